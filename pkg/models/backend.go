package models

import (
	"context"
	"time"
)

// Backend is the interface implemented by all model backend adapters.
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must respect context cancellation and return promptly when
// the context is cancelled; the consensus engine abandons stragglers rather
// than awaiting them.
type Backend interface {
	// Evaluate asks the backend for its compliance opinion of a decision
	// context. Returns an error if the call fails or times out.
	Evaluate(ctx context.Context, req *EvaluationRequest) (*Evaluation, error)

	// HealthCheck verifies the backend is reachable and responding.
	HealthCheck(ctx context.Context) error

	// Name returns the backend's configured name.
	Name() string

	// Weight returns the backend's vote weight in consensus.
	Weight() float64
}

// EvaluationRequest is the provider-agnostic evaluation payload.
type EvaluationRequest struct {
	// RequestID correlates the call with the originating decision.
	RequestID string `json:"request_id"`

	// Content is the textual payload under evaluation.
	Content string `json:"content"`

	// Context carries additional key/value context.
	Context map[string]string `json:"context,omitempty"`

	// Category is the governance category of the request.
	Category string `json:"category,omitempty"`

	// ConstitutionalHash identifies the principle set in force, so the
	// backend can refuse evaluation against a constitution it does not
	// recognize.
	ConstitutionalHash string `json:"constitutional_hash"`
}

// Evaluation is a backend's normalized response.
type Evaluation struct {
	// Score is the backend's compliance score in [0, 1].
	Score float64 `json:"score"`

	// Reasoning is the backend's free-text justification.
	Reasoning string `json:"reasoning,omitempty"`
}

// BackendConfig describes a backend adapter.
type BackendConfig struct {
	// Name identifies the backend in logs, metrics, and decisions.
	Name string

	// Endpoint is the evaluation URL (HTTP backend).
	Endpoint string

	// Weight is the backend's vote weight. Defaults to 1.0.
	Weight float64

	// Timeout is the per-call timeout.
	Timeout time.Duration

	// APIKey is an optional bearer token.
	APIKey string

	// MaxRetries is the retry count for transient errors.
	MaxRetries int

	// StaticScore is the fixed score for a static backend.
	StaticScore float64
}
