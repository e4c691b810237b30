package consensus

import (
	"log/slog"
	"sync"
	"time"
)

// ModelBreaker tracks per-model circuit breakers. After a configurable
// number of consecutive failures a model is skipped for a cool-down window;
// its weight is effectively redistributed because strategies normalize over
// responding models only.
//
// This is distinct from the system-wide rollback controller: a tripped
// model breaker degrades one backend, not the engine.
type ModelBreaker struct {
	threshold int
	cooldown  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]*breakerEntry
}

type breakerEntry struct {
	consecutiveFailures int
	openUntil           time.Time
}

// NewModelBreaker creates a per-model breaker registry.
func NewModelBreaker(threshold int, cooldown time.Duration, logger *slog.Logger) *ModelBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		logger:    logger.With("component", "consensus.breaker"),
		entries:   make(map[string]*breakerEntry),
	}
}

// Allow reports whether the model may be called. A model inside its
// cool-down window is skipped.
func (b *ModelBreaker) Allow(model string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[model]
	if !ok {
		return true
	}
	if entry.openUntil.IsZero() {
		return true
	}
	if time.Now().After(entry.openUntil) {
		// Cool-down elapsed: allow a probe call. Failure counts carry
		// over so a single failure re-trips immediately.
		entry.openUntil = time.Time{}
		return true
	}
	return false
}

// RecordSuccess resets the model's failure count.
func (b *ModelBreaker) RecordSuccess(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[model]
	if !ok {
		return
	}
	if entry.consecutiveFailures > 0 {
		b.logger.Info("model breaker reset", "model", model)
	}
	delete(b.entries, model)
}

// RecordFailure increments the model's failure count and trips the breaker
// when the threshold is reached. Reports whether this call tripped it.
func (b *ModelBreaker) RecordFailure(model string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[model]
	if !ok {
		entry = &breakerEntry{}
		b.entries[model] = entry
	}
	entry.consecutiveFailures++

	if entry.consecutiveFailures >= b.threshold && entry.openUntil.IsZero() {
		entry.openUntil = time.Now().Add(b.cooldown)
		b.logger.Warn("model breaker tripped",
			"model", model,
			"consecutive_failures", entry.consecutiveFailures,
			"cooldown", b.cooldown,
		)
		return true
	}
	return false
}

// Tripped reports whether the model is currently inside a cool-down window.
func (b *ModelBreaker) Tripped(model string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[model]
	if !ok || entry.openUntil.IsZero() {
		return false
	}
	return time.Now().Before(entry.openUntil)
}
