package consensus

import (
	"sync"
	"time"
)

// PerformanceTracker maintains rolling per-model accuracy and latency
// statistics as exponential moving averages. The performance-adaptive
// strategy uses them to bias effective weights toward models with better
// track records.
type PerformanceTracker struct {
	alpha          float64
	latencyBudget  time.Duration
	mu             sync.RWMutex
	stats          map[string]*modelStats
}

type modelStats struct {
	accuracyEMA float64
	latencyEMA  time.Duration
	samples     int64
}

// ModelStats is a read-only snapshot of one model's rolling statistics.
type ModelStats struct {
	// AccuracyEMA is the moving average of agreement with the final
	// synthesized decision, in [0, 1].
	AccuracyEMA float64

	// LatencyEMA is the moving average call latency.
	LatencyEMA time.Duration

	// Samples is the number of observations.
	Samples int64
}

// NewPerformanceTracker creates a tracker. alpha is the EMA smoothing
// factor in (0, 1]; latencyBudget is the latency at which a model's
// effective weight is halved by slowness.
func NewPerformanceTracker(alpha float64, latencyBudget time.Duration) *PerformanceTracker {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	if latencyBudget <= 0 {
		latencyBudget = 500 * time.Millisecond
	}
	return &PerformanceTracker{
		alpha:         alpha,
		latencyBudget: latencyBudget,
		stats:         make(map[string]*modelStats),
	}
}

// Observe records one outcome for a model: whether its vote agreed with the
// final synthesized decision, and how long its call took.
func (t *PerformanceTracker) Observe(model string, agreed bool, latency time.Duration) {
	accuracy := 0.0
	if agreed {
		accuracy = 1.0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[model]
	if !ok {
		t.stats[model] = &modelStats{
			accuracyEMA: accuracy,
			latencyEMA:  latency,
			samples:     1,
		}
		return
	}
	s.accuracyEMA = t.alpha*accuracy + (1-t.alpha)*s.accuracyEMA
	s.latencyEMA = time.Duration(t.alpha*float64(latency) + (1-t.alpha)*float64(s.latencyEMA))
	s.samples++
}

// Multiplier returns the effective-weight multiplier for a model: its
// accuracy EMA damped by a latency factor. Unknown models are neutral (1.0)
// so new backends are not starved before building a track record.
func (t *PerformanceTracker) Multiplier(model string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.stats[model]
	if !ok {
		return 1.0
	}
	latencyFactor := float64(t.latencyBudget) / float64(t.latencyBudget+s.latencyEMA)
	return s.accuracyEMA * latencyFactor
}

// Snapshot returns a copy of all model statistics.
func (t *PerformanceTracker) Snapshot() map[string]ModelStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ModelStats, len(t.stats))
	for name, s := range t.stats {
		out[name] = ModelStats{
			AccuracyEMA: s.accuracyEMA,
			LatencyEMA:  s.latencyEMA,
			Samples:     s.samples,
		}
	}
	return out
}
