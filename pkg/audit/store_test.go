package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func sampleRecord(i int, outcome string, created time.Time) *Record {
	return &Record{
		AuditID:            fmt.Sprintf("audit-%d", i),
		RequestID:          fmt.Sprintf("req-%d", i),
		TenantID:           "tenant-a",
		ConstitutionalHash: "cdd01ef066bc6cf2",
		Category:           "governance",
		Outcome:            outcome,
		Compliant:          outcome == OutcomeCompliant,
		Score:              0.96,
		Breakdown:          json.RawMessage(`{"p1":0.96}`),
		Strategy:           "weighted_average",
		LatencyMS:          42,
		CreatedAt:          created,
	}
}

// storeTest exercises the Store contract against any implementation.
func storeTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		outcome := OutcomeCompliant
		if i%2 == 1 {
			outcome = OutcomeNonCompliant
		}
		rec := sampleRecord(i, outcome, base.Add(time.Duration(i)*time.Minute))
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	t.Run("QueryAll", func(t *testing.T) {
		recs, err := store.Query(ctx, Filter{})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(recs) != 5 {
			t.Fatalf("got %d records, want 5", len(recs))
		}
		// Newest first.
		if recs[0].RequestID != "req-4" {
			t.Errorf("first record = %s, want req-4", recs[0].RequestID)
		}
		if got := recs[0].ConstitutionalHash; got != "cdd01ef066bc6cf2" {
			t.Errorf("hash = %q", got)
		}
		if string(recs[0].Breakdown) != `{"p1":0.96}` {
			t.Errorf("breakdown = %s", recs[0].Breakdown)
		}
	})

	t.Run("QueryByRequestID", func(t *testing.T) {
		recs, err := store.Query(ctx, Filter{RequestID: "req-2"})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(recs) != 1 || recs[0].RequestID != "req-2" {
			t.Errorf("got %d records", len(recs))
		}
	})

	t.Run("QueryByOutcome", func(t *testing.T) {
		recs, err := store.Query(ctx, Filter{Outcome: OutcomeNonCompliant})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(recs) != 2 {
			t.Errorf("got %d non-compliant records, want 2", len(recs))
		}
		for _, rec := range recs {
			if rec.Compliant {
				t.Errorf("record %s marked compliant", rec.AuditID)
			}
		}
	})

	t.Run("QueryTimeRange", func(t *testing.T) {
		recs, err := store.Query(ctx, Filter{
			Since: base.Add(time.Minute),
			Until: base.Add(3 * time.Minute),
		})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(recs) != 2 {
			t.Errorf("got %d records in range, want 2", len(recs))
		}
	})

	t.Run("QueryLimit", func(t *testing.T) {
		recs, err := store.Query(ctx, Filter{Limit: 2})
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(recs) != 2 {
			t.Errorf("got %d records, want 2", len(recs))
		}
	})

	t.Run("Prune", func(t *testing.T) {
		removed, err := store.Prune(ctx, base.Add(2*time.Minute))
		if err != nil {
			t.Fatalf("Prune: %v", err)
		}
		if removed != 2 {
			t.Errorf("pruned %d records, want 2", removed)
		}
		recs, err := store.Query(ctx, Filter{})
		if err != nil {
			t.Fatalf("Query after prune: %v", err)
		}
		if len(recs) != 3 {
			t.Errorf("got %d records after prune, want 3", len(recs))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeTest(t, NewMemoryStore(100))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()
	storeTest(t, store)
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec := sampleRecord(i, OutcomeCompliant, time.Now())
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if store.Len() != 3 {
		t.Fatalf("len = %d, want 3", store.Len())
	}
	recs, err := store.Query(ctx, Filter{RequestID: "req-0"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 0 {
		t.Error("oldest record survived eviction")
	}
}
