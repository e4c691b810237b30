package consensus

import (
	"time"

	"acgs-hq/sentinel/pkg/scoring"
)

// DecisionRequest is a single governance decision query. Requests are
// created per incoming query and never mutated afterwards.
type DecisionRequest struct {
	// RequestID uniquely identifies the request.
	RequestID string `json:"request_id"`

	// TenantID identifies the requesting tenant, if any.
	TenantID string `json:"tenant_id,omitempty"`

	// Category is the governance category of the decision.
	Category string `json:"category,omitempty"`

	// Urgency is a caller-supplied urgency hint.
	Urgency string `json:"urgency,omitempty"`

	// Content is the textual payload under evaluation.
	Content string `json:"content"`

	// Context carries additional key/value context.
	Context map[string]string `json:"context,omitempty"`
}

// ModelOpinion is one backend's scored opinion of a request. Opinions are
// request-scoped: they are owned by the engine during aggregation and
// discarded after synthesis; only the aggregate decision is persisted.
type ModelOpinion struct {
	// ModelID names the backend that produced the opinion.
	ModelID string

	// Weight is the backend's effective vote weight.
	Weight float64

	// ComplianceScore is the opinion's overall compliance score in [0, 1].
	ComplianceScore float64

	// Breakdown is the per-principle scoring detail.
	Breakdown scoring.Breakdown

	// Reasoning is the backend's free-text justification.
	Reasoning string

	// Latency is how long the backend call took.
	Latency time.Duration

	// Err is set when the backend call failed; failed opinions do not
	// participate in synthesis.
	Err error
}

// Responded reports whether the opinion carries a usable score.
func (o *ModelOpinion) Responded() bool {
	return o.Err == nil
}

// ConsensusDecision is the synthesized compliance verdict. Immutable once
// created; cached by the enforcement point keyed on a fingerprint of the
// request context and the constitutional hash.
type ConsensusDecision struct {
	// RequestID is the originating request.
	RequestID string `json:"request_id"`

	// OverallScore is the combined compliance score in [0, 1].
	OverallScore float64 `json:"overall_score"`

	// Compliant reports whether the decision passed the two-tier gate.
	Compliant bool `json:"compliant"`

	// PerPrinciple maps principle id to its aggregated score.
	PerPrinciple map[string]float64 `json:"per_principle"`

	// Violations lists principles that failed the gate.
	Violations []scoring.Violation `json:"violations,omitempty"`

	// ContributingModels names the backends whose opinions were combined.
	ContributingModels []string `json:"contributing_models"`

	// StrategyUsed names the consensus strategy.
	StrategyUsed string `json:"strategy_used"`

	// ConstitutionalHash identifies the principle set in force.
	ConstitutionalHash string `json:"constitutional_hash"`

	// SynthesizedAt is when the decision was produced.
	SynthesizedAt time.Time `json:"synthesized_at"`
}

// Synthesis is a strategy's intermediate aggregate, before the engine
// applies the compliance gate.
type Synthesis struct {
	// OverallScore is the combined compliance score in [0, 1].
	OverallScore float64

	// PerPrinciple maps principle id to its aggregated score.
	PerPrinciple map[string]float64
}

// Strategy combines responding model opinions into a synthesis.
// Implementations live in the strategies subpackage and must be safe for
// concurrent use.
type Strategy interface {
	// Name returns the strategy's configuration name.
	Name() string

	// Combine aggregates responding opinions. Called only with opinions
	// for which Responded() is true, and only when quorum is met.
	Combine(opinions []ModelOpinion) (*Synthesis, error)
}
