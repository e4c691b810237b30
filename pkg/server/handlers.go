package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"acgs-hq/sentinel/pkg/audit"
	"acgs-hq/sentinel/pkg/consensus"
	"acgs-hq/sentinel/pkg/constitution"
	"acgs-hq/sentinel/pkg/pep"
)

// HashHeader carries the constitutional hash on requests and responses. A
// client may set it to assert which constitution it expects; a mismatch is
// rejected before any evaluation runs.
const HashHeader = "X-Constitutional-Hash"

// maxRequestBody bounds the validation request body.
const maxRequestBody = 1 << 20 // 1 MiB

// Decider produces enforcement decisions. Implemented by
// *pep.EnforcementPoint.
type Decider interface {
	Decide(ctx context.Context, req *consensus.DecisionRequest) (*pep.Decision, error)
}

// ValidateHandler serves POST /constitutional/validate.
type ValidateHandler struct {
	decider Decider
	store   *constitution.Store
	logger  *slog.Logger
}

// NewValidateHandler creates the validation handler.
func NewValidateHandler(decider Decider, store *constitution.Store, logger *slog.Logger) *ValidateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateHandler{decider: decider, store: store, logger: logger}
}

func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	activeHash := h.store.Hash()
	w.Header().Set(HashHeader, activeHash)

	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if claimed := r.Header.Get(HashHeader); claimed != "" && claimed != activeHash {
		h.logger.Warn("client constitutional hash mismatch",
			"request_id", GetRequestID(r.Context()),
			"claimed", claimed,
			"active", activeHash,
		)
		writeError(w, r, http.StatusConflict, "constitutional hash mismatch")
		return
	}

	var req ValidateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}

	decision, err := h.decider.Decide(r.Context(), &consensus.DecisionRequest{
		RequestID: GetRequestID(r.Context()),
		TenantID:  req.TenantID,
		Category:  req.Category,
		Urgency:   req.Urgency,
		Content:   req.Content,
		Context:   req.Context,
	})
	if err != nil {
		if errors.Is(err, constitution.ErrIntegrity) || errors.Is(err, constitution.ErrNoPrinciples) {
			writeError(w, r, http.StatusServiceUnavailable, "constitutional validation failed")
			return
		}
		h.logger.Error("decision failed",
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, r, http.StatusInternalServerError, "decision failed")
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{
		RequestID:          decision.RequestID,
		Compliant:          decision.Compliant,
		ComplianceScore:    decision.OverallScore,
		Violations:         decision.Violations,
		ConstitutionalHash: decision.ConstitutionalHash,
		AuditID:            decision.AuditID,
		Degraded:           decision.Degraded,
		Reason:             decision.ReasonCode(),
		Cached:             decision.Cached,
		Strategy:           decision.StrategyUsed,
	})
}

// HealthHandler serves GET /healthz: pure liveness, always 200.
type HealthHandler struct{}

func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ReadyHandler serves GET /readyz: ready only once a principle set is loaded.
type ReadyHandler struct {
	store *constitution.Store
}

// NewReadyHandler creates the readiness handler.
func NewReadyHandler(store *constitution.Store) *ReadyHandler {
	return &ReadyHandler{store: store}
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	set := h.store.Active()
	if set == nil || set.Empty() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "no principle set loaded"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:             "ready",
		ConstitutionalHash: set.Hash(),
		Principles:         set.Len(),
	})
}

// AuditHandler serves GET /audit/records.
type AuditHandler struct {
	store  audit.Store
	logger *slog.Logger
}

// NewAuditHandler creates the audit query handler.
func NewAuditHandler(store audit.Store, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{store: store, logger: logger}
}

func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		RequestID: q.Get("request_id"),
		TenantID:  q.Get("tenant_id"),
		Outcome:   q.Get("outcome"),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = limit
	}

	recs, err := h.store.Query(r.Context(), f)
	if err != nil {
		h.logger.Error("audit query failed",
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
		writeError(w, r, http.StatusInternalServerError, "audit query failed")
		return
	}
	if recs == nil {
		recs = []*audit.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		RequestID: GetRequestID(r.Context()),
	})
}
