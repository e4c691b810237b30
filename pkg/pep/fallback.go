package pep

import (
	"sync"
	"time"

	"acgs-hq/sentinel/pkg/consensus"
)

// FallbackStore remembers the last compliant decision per category for use
// when consensus is unavailable. Entries expire after the configured TTL so
// a long outage degrades to default-deny rather than serving stale
// approvals indefinitely.
type FallbackStore struct {
	ttl time.Duration

	mu         sync.RWMutex
	byCategory map[string]fallbackEntry
}

type fallbackEntry struct {
	decision   *consensus.ConsensusDecision
	rememberAt time.Time
}

// NewFallbackStore creates a FallbackStore.
func NewFallbackStore(ttl time.Duration) *FallbackStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FallbackStore{
		ttl:        ttl,
		byCategory: make(map[string]fallbackEntry),
	}
}

// Remember stores the decision as the category's last-known-good. Only
// compliant decisions are remembered.
func (f *FallbackStore) Remember(category string, decision *consensus.ConsensusDecision) {
	if decision == nil || !decision.Compliant {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byCategory[category] = fallbackEntry{
		decision:   decision,
		rememberAt: time.Now(),
	}
}

// Get returns the category's last-known-good decision, if unexpired.
func (f *FallbackStore) Get(category string) (*consensus.ConsensusDecision, bool) {
	f.mu.RLock()
	entry, ok := f.byCategory[category]
	f.mu.RUnlock()

	if !ok || time.Since(entry.rememberAt) > f.ttl {
		return nil, false
	}
	return entry.decision, true
}

// Purge drops all entries. Called when the principle set is replaced.
func (f *FallbackStore) Purge() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byCategory = make(map[string]fallbackEntry)
}
