package server

import "acgs-hq/sentinel/pkg/scoring"

// ValidateRequest is the body of POST /constitutional/validate.
type ValidateRequest struct {
	// Content is the textual decision or action under evaluation.
	Content string `json:"content"`

	// Context carries additional key/value context.
	Context map[string]string `json:"context,omitempty"`

	// Category is the governance category of the request.
	Category string `json:"category,omitempty"`

	// Urgency is a caller-supplied urgency hint.
	Urgency string `json:"urgency,omitempty"`

	// TenantID identifies the requesting tenant, if any.
	TenantID string `json:"tenant_id,omitempty"`
}

// ValidateResponse is the response of POST /constitutional/validate.
type ValidateResponse struct {
	RequestID          string              `json:"request_id"`
	Compliant          bool                `json:"compliant"`
	ComplianceScore    float64             `json:"compliance_score"`
	Violations         []scoring.Violation `json:"violations,omitempty"`
	ConstitutionalHash string              `json:"constitutional_hash"`
	AuditID            string              `json:"audit_id,omitempty"`
	Degraded           bool                `json:"degraded"`
	// Reason distinguishes degraded decisions: "budget_exceeded",
	// "quorum_lost", "circuit_open", or "consensus_failed".
	Reason   string `json:"reason,omitempty"`
	Cached   bool   `json:"cached"`
	Strategy string `json:"strategy"`
}

// ErrorResponse is the JSON error body for all non-2xx responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of the health and readiness probes.
type HealthResponse struct {
	Status             string `json:"status"`
	ConstitutionalHash string `json:"constitutional_hash,omitempty"`
	Principles         int    `json:"principles,omitempty"`
	CircuitState       string `json:"circuit_state,omitempty"`
}
