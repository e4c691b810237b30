package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"acgs-hq/sentinel/pkg/audit"
	"acgs-hq/sentinel/pkg/config"
	"acgs-hq/sentinel/pkg/consensus"
	"acgs-hq/sentinel/pkg/constitution"
	"acgs-hq/sentinel/pkg/pep"
	"acgs-hq/sentinel/pkg/rollback"
)

type fakeDecider struct {
	decision *pep.Decision
	err      error
}

func (d *fakeDecider) Decide(_ context.Context, req *consensus.DecisionRequest) (*pep.Decision, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := *d.decision
	cd := *out.ConsensusDecision
	cd.RequestID = req.RequestID
	out.ConsensusDecision = &cd
	return &out, nil
}

func testStore(t *testing.T) *constitution.Store {
	t.Helper()
	set, err := constitution.NewPrincipleSet([]constitution.Principle{{
		ID:       "decision_transparency",
		Text:     "Decisions must carry a reviewable rationale.",
		Category: constitution.CategoryTransparency,
		Priority: 5,
	}})
	if err != nil {
		t.Fatalf("NewPrincipleSet: %v", err)
	}
	return constitution.NewStore(set, nil)
}

func compliantDecision(hash string) *pep.Decision {
	return &pep.Decision{
		ConsensusDecision: &consensus.ConsensusDecision{
			OverallScore:       0.97,
			Compliant:          true,
			StrategyUsed:       "weighted_average",
			ConstitutionalHash: hash,
			SynthesizedAt:      time.Now(),
		},
		AuditID: "audit-1",
	}
}

func newTestServer(t *testing.T, decider Decider, store *constitution.Store, auditStore audit.Store) *httptest.Server {
	t.Helper()
	srv := NewServer(config.ServerConfig{}, decider, store, auditStore, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postValidate(t *testing.T, ts *httptest.Server, body string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/constitutional/validate", strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	return resp
}

func TestValidateEndpoint(t *testing.T) {
	store := testStore(t)
	decider := &fakeDecider{decision: compliantDecision(store.Hash())}
	ts := newTestServer(t, decider, store, nil)

	resp := postValidate(t, ts, `{"content":"deploy service","category":"governance"}`, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get(HashHeader); got != store.Hash() {
		t.Errorf("hash header = %q, want %q", got, store.Hash())
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	var body ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Compliant || body.ComplianceScore != 0.97 {
		t.Errorf("body = %+v", body)
	}
	if body.Strategy != "weighted_average" {
		t.Errorf("strategy = %q", body.Strategy)
	}
	if body.AuditID != "audit-1" {
		t.Errorf("audit id = %q", body.AuditID)
	}
	if body.RequestID == "" {
		t.Error("missing request id in body")
	}
}

func TestValidateEchoesClientRequestID(t *testing.T) {
	store := testStore(t)
	ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, nil)

	resp := postValidate(t, ts, `{"content":"x"}`, map[string]string{RequestIDHeader: "client-id-1"})
	defer resp.Body.Close()

	if got := resp.Header.Get(RequestIDHeader); got != "client-id-1" {
		t.Errorf("request id header = %q", got)
	}
	var body ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RequestID != "client-id-1" {
		t.Errorf("request id in body = %q", body.RequestID)
	}
}

func TestValidateHashHeaderMismatch(t *testing.T) {
	store := testStore(t)
	ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, nil)

	resp := postValidate(t, ts, `{"content":"x"}`, map[string]string{HashHeader: "ffffffffffffffff"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	// The active hash is still reported so the client can resync.
	if got := resp.Header.Get(HashHeader); got != store.Hash() {
		t.Errorf("hash header = %q", got)
	}
}

func TestValidateHashHeaderMatch(t *testing.T) {
	store := testStore(t)
	ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, nil)

	resp := postValidate(t, ts, `{"content":"x"}`, map[string]string{HashHeader: store.Hash()})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestValidateDegradedReason(t *testing.T) {
	store := testStore(t)
	decision := compliantDecision(store.Hash())
	decision.Degraded = true
	decision.Fallback = true
	decision.Reason = rollback.ErrCircuitOpen
	ts := newTestServer(t, &fakeDecider{decision: decision}, store, nil)

	resp := postValidate(t, ts, `{"content":"x"}`, nil)
	defer resp.Body.Close()

	var body ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Degraded {
		t.Error("degraded flag not set")
	}
	if body.Reason != pep.ReasonCircuitOpen {
		t.Errorf("reason = %q, want %q", body.Reason, pep.ReasonCircuitOpen)
	}
}

func TestValidateBadRequests(t *testing.T) {
	store := testStore(t)
	ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, nil)

	tests := []struct {
		name string
		body string
	}{
		{"InvalidJSON", `{not json`},
		{"MissingContent", `{"category":"governance"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postValidate(t, ts, tt.body, nil)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestValidateMethodNotAllowed(t *testing.T) {
	store := testStore(t)
	ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, nil)

	resp, err := http.Get(ts.URL + "/constitutional/validate")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestValidateIntegrityFailure(t *testing.T) {
	store := testStore(t)
	decider := &fakeDecider{err: fmt.Errorf("request rejected: %w",
		&constitution.IntegrityError{Expected: "aaaa", Computed: "bbbb"})}
	ts := newTestServer(t, decider, store, nil)

	resp := postValidate(t, ts, `{"content":"x"}`, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	store := testStore(t)
	ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestReadyz(t *testing.T) {
	t.Run("Ready", func(t *testing.T) {
		store := testStore(t)
		ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, nil)

		resp, err := http.Get(ts.URL + "/readyz")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var body HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ConstitutionalHash != store.Hash() || body.Principles != 1 {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("NoPrincipleSet", func(t *testing.T) {
		store := constitution.NewStore(nil, nil)
		ts := newTestServer(t, &fakeDecider{}, store, nil)

		resp, err := http.Get(ts.URL + "/readyz")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})
}

func TestAuditRecordsEndpoint(t *testing.T) {
	store := testStore(t)
	auditStore := audit.NewMemoryStore(100)
	for i := 0; i < 3; i++ {
		rec := &audit.Record{
			AuditID:   fmt.Sprintf("audit-%d", i),
			RequestID: fmt.Sprintf("req-%d", i),
			Outcome:   audit.OutcomeCompliant,
			CreatedAt: time.Now(),
		}
		if err := auditStore.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	ts := newTestServer(t, &fakeDecider{decision: compliantDecision(store.Hash())}, store, auditStore)

	resp, err := http.Get(ts.URL + "/audit/records?request_id=req-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var recs []*audit.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].RequestID != "req-1" {
		t.Errorf("records = %+v", recs)
	}

	resp2, err := http.Get(ts.URL + "/audit/records?limit=bogus")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp2.StatusCode)
	}
}

type panicDecider struct{}

func (panicDecider) Decide(context.Context, *consensus.DecisionRequest) (*pep.Decision, error) {
	panic("boom")
}

func TestRecoveryMiddleware(t *testing.T) {
	store := testStore(t)
	ts := newTestServer(t, panicDecider{}, store, nil)

	resp := postValidate(t, ts, `{"content":"x"}`, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q", body.Error)
	}
}
