package constitution

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store holds the active PrincipleSet behind an atomic pointer. Readers on
// the decision path call Active without taking any lock; reloads swap the
// entire immutable snapshot so a request never observes a partial set.
type Store struct {
	current atomic.Pointer[PrincipleSet]
	logger  *slog.Logger

	// subscribers are notified after each swap with the new set.
	mu          sync.Mutex
	subscribers []func(*PrincipleSet)
}

// NewStore creates a Store with an optional initial set.
func NewStore(initial *PrincipleSet, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger.With("component", "constitution.store")}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Active returns the current principle set, or nil if none is loaded.
// Safe for concurrent use; never blocks.
func (s *Store) Active() *PrincipleSet {
	return s.current.Load()
}

// Hash returns the constitutional hash of the active set, or "" if none
// is loaded.
func (s *Store) Hash() string {
	set := s.current.Load()
	if set == nil {
		return ""
	}
	return set.Hash()
}

// Replace atomically swaps in a new principle set and notifies subscribers.
// The previous set remains valid for requests already holding it.
func (s *Store) Replace(set *PrincipleSet) {
	old := s.current.Swap(set)

	oldHash := ""
	if old != nil {
		oldHash = old.Hash()
	}
	if oldHash != set.Hash() {
		s.logger.Info("principle set replaced",
			"previous_hash", oldHash,
			"hash", set.Hash(),
			"principles", set.Len(),
		)
	}

	s.mu.Lock()
	subs := make([]func(*PrincipleSet), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(set)
	}
}

// Subscribe registers a callback invoked after every Replace with the new
// set. Callbacks run on the reloading goroutine and must not block.
func (s *Store) Subscribe(fn func(*PrincipleSet)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}
