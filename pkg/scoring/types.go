package scoring

// DecisionContext is the scorer's view of a governance decision request.
type DecisionContext struct {
	// Content is the textual payload under evaluation.
	Content string

	// Attributes are additional context key/value pairs.
	Attributes map[string]string

	// Category is the request's governance category.
	Category string
}

// ModelOutput is a single model backend's opinion of the decision context.
type ModelOutput struct {
	// Score is the model's self-reported compliance score in [0, 1].
	Score float64

	// Reasoning is the model's free-text justification.
	Reasoning string
}

// Violation describes a principle whose score fell below the reporting
// threshold.
type Violation struct {
	// PrincipleID names the violated principle. Empty for the
	// empty-constitution marker.
	PrincipleID string `json:"principle_id"`

	// Score is the principle's compliance score.
	Score float64 `json:"score"`

	// Threshold is the reporting threshold the score missed.
	Threshold float64 `json:"threshold"`

	// Reason explains the violation.
	Reason string `json:"reason"`
}

// Breakdown is the result of scoring one model opinion against the active
// principle set.
type Breakdown struct {
	// PerPrinciple maps principle id to its compliance score in [0, 1].
	PerPrinciple map[string]float64 `json:"per_principle"`

	// Overall is the priority-weighted mean of the per-principle scores.
	Overall float64 `json:"overall"`

	// Violations lists principles below the reporting threshold, in
	// principle id order.
	Violations []Violation `json:"violations,omitempty"`
}
