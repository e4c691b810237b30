package strategies

import (
	"fmt"

	"acgs-hq/sentinel/pkg/consensus"
)

// Adaptive is a weighted average whose effective weights are the configured
// weights scaled by each model's rolling performance multiplier. Models that
// track the final decision closely and respond quickly gain influence;
// models with no history stay at their configured weight.
type Adaptive struct {
	tracker *consensus.PerformanceTracker
}

// NewAdaptive creates a performance-adaptive strategy around tracker.
func NewAdaptive(tracker *consensus.PerformanceTracker) *Adaptive {
	return &Adaptive{tracker: tracker}
}

// Name returns the strategy's configuration name.
func (s *Adaptive) Name() string { return PerformanceAdaptive }

// Combine aggregates opinions with performance-scaled weights. If every
// multiplier collapses to zero the configured weights are used unscaled so
// a decision is still produced.
func (s *Adaptive) Combine(opinions []consensus.ModelOpinion) (*consensus.Synthesis, error) {
	weights := make([]float64, len(opinions))
	var sum, norm float64
	for i, op := range opinions {
		w := op.Weight
		if w <= 0 {
			w = 1.0
		}
		w *= s.tracker.Multiplier(op.ModelID)
		weights[i] = w
		sum += w * op.ComplianceScore
		norm += w
	}

	if norm == 0 {
		sum, norm = 0, 0
		for i, op := range opinions {
			w := op.Weight
			if w <= 0 {
				w = 1.0
			}
			weights[i] = w
			sum += w * op.ComplianceScore
			norm += w
		}
	}
	if norm == 0 {
		return nil, fmt.Errorf("no weighted opinions to combine")
	}

	return &consensus.Synthesis{
		OverallScore: sum / norm,
		PerPrinciple: combinePrinciples(opinions, weights),
	}, nil
}
