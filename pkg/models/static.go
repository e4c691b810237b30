package models

import "context"

// StaticBackend returns a fixed compliance score for every evaluation.
// Used by the offline validation CLI and as a deterministic probe target;
// tests also use it in place of remote services.
type StaticBackend struct {
	name   string
	weight float64
	score  float64
}

// NewStaticBackend creates a static backend with a fixed score.
func NewStaticBackend(cfg BackendConfig) *StaticBackend {
	if cfg.Weight <= 0 {
		cfg.Weight = 1.0
	}
	return &StaticBackend{
		name:   cfg.Name,
		weight: cfg.Weight,
		score:  cfg.StaticScore,
	}
}

// Name returns the backend's configured name.
func (b *StaticBackend) Name() string {
	return b.name
}

// Weight returns the backend's vote weight.
func (b *StaticBackend) Weight() float64 {
	return b.weight
}

// Evaluate returns the fixed score. Honors context cancellation.
func (b *StaticBackend) Evaluate(ctx context.Context, req *EvaluationRequest) (*Evaluation, error) {
	select {
	case <-ctx.Done():
		return nil, &BackendError{Backend: b.name, Err: ctx.Err()}
	default:
	}
	return &Evaluation{Score: b.score, Reasoning: "static evaluation"}, nil
}

// HealthCheck always succeeds.
func (b *StaticBackend) HealthCheck(ctx context.Context) error {
	return nil
}

// NewBackend constructs the appropriate adapter for the configuration:
// an HTTP backend when an endpoint is set, otherwise a static backend.
func NewBackend(cfg BackendConfig) Backend {
	if cfg.Endpoint != "" {
		return NewHTTPBackend(cfg, nil)
	}
	return NewStaticBackend(cfg)
}
