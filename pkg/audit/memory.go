package audit

import (
	"context"
	"sync"
	"time"
)

// defaultQueryLimit caps Query results when the filter sets no limit.
const defaultQueryLimit = 100

// MemoryStore is a bounded in-memory Store. When the capacity is reached the
// oldest records are discarded. Suitable for tests and ephemeral deployments
// where durability is not required.
type MemoryStore struct {
	capacity int

	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStore creates a MemoryStore holding at most capacity records.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryStore{capacity: capacity}
}

// Append writes one record, evicting the oldest when full.
func (s *MemoryStore) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.capacity {
		overflow := len(s.records) - s.capacity
		s.records = append(s.records[:0:0], s.records[overflow:]...)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(_ context.Context, f Filter) ([]*Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if matches(s.records[i], f) {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

// Prune removes records created before the cutoff.
func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, rec := range s.records {
		if rec.CreatedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return removed, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(rec *Record, f Filter) bool {
	if f.RequestID != "" && rec.RequestID != f.RequestID {
		return false
	}
	if f.TenantID != "" && rec.TenantID != f.TenantID {
		return false
	}
	if f.Outcome != "" && rec.Outcome != f.Outcome {
		return false
	}
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !rec.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}
