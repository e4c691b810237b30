package strategies

import (
	"fmt"

	"acgs-hq/sentinel/pkg/consensus"
)

// Weighted combines opinions as a weight-normalized mean of compliance
// scores. A skipped or failed model's weight is implicitly redistributed
// because normalization runs over responding opinions only.
type Weighted struct{}

// Name returns the strategy's configuration name.
func (s *Weighted) Name() string { return WeightedAverage }

// Combine aggregates opinions as sum(w_i * score_i) / sum(w_i).
func (s *Weighted) Combine(opinions []consensus.ModelOpinion) (*consensus.Synthesis, error) {
	weights := make([]float64, len(opinions))
	var sum, norm float64
	for i, op := range opinions {
		w := op.Weight
		if w <= 0 {
			w = 1.0
		}
		weights[i] = w
		sum += w * op.ComplianceScore
		norm += w
	}
	if norm == 0 {
		return nil, fmt.Errorf("no weighted opinions to combine")
	}

	return &consensus.Synthesis{
		OverallScore: sum / norm,
		PerPrinciple: combinePrinciples(opinions, weights),
	}, nil
}
