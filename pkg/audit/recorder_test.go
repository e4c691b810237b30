package audit

import (
	"context"
	"testing"
	"time"
)

func TestRecorderWritesAsync(t *testing.T) {
	store := NewMemoryStore(100)
	rec := NewRecorder(store, 16, nil)

	id := rec.Record(&Record{
		RequestID: "req-1",
		Outcome:   OutcomeCompliant,
		Compliant: true,
		Score:     0.97,
	})
	if id == "" {
		t.Fatal("Record returned empty audit id")
	}
	rec.Close()

	recs, err := store.Query(context.Background(), Filter{RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].AuditID != id {
		t.Errorf("audit id = %q, want %q", recs[0].AuditID, id)
	}
	if recs[0].CreatedAt.IsZero() {
		t.Error("record missing timestamp")
	}
}

func TestRecorderDistinctAuditIDs(t *testing.T) {
	store := NewMemoryStore(100)
	rec := NewRecorder(store, 16, nil)
	defer rec.Close()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := rec.Record(&Record{RequestID: "req", Outcome: OutcomeCompliant})
		if seen[id] {
			t.Fatalf("duplicate audit id %q", id)
		}
		seen[id] = true
	}
}

// blockingStore stalls Append until released.
type blockingStore struct {
	*MemoryStore
	release chan struct{}
}

func (s *blockingStore) Append(ctx context.Context, rec *Record) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.MemoryStore.Append(ctx, rec)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	store := &blockingStore{MemoryStore: NewMemoryStore(100), release: make(chan struct{})}
	rec := NewRecorder(store, 1, nil)

	// One record wedges the worker, one fills the buffer; further records
	// must be dropped, never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			rec.Record(&Record{RequestID: "req", Outcome: OutcomeCompliant})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on full queue")
	}
	if rec.Dropped() == 0 {
		t.Error("no records reported dropped")
	}

	close(store.release)
	rec.Close()
}
