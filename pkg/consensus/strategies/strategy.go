package strategies

import (
	"fmt"

	"acgs-hq/sentinel/pkg/consensus"
)

// Strategy names accepted by New.
const (
	WeightedAverage     = "weighted_average"
	MajorityVote        = "majority_vote"
	PerformanceAdaptive = "performance_adaptive"
)

// New returns the strategy registered under name. The performance-adaptive
// strategy requires a tracker; the others ignore it.
func New(name string, tracker *consensus.PerformanceTracker) (consensus.Strategy, error) {
	switch name {
	case WeightedAverage:
		return &Weighted{}, nil
	case MajorityVote:
		return &Majority{}, nil
	case PerformanceAdaptive:
		if tracker == nil {
			return nil, fmt.Errorf("strategy %s requires a performance tracker", name)
		}
		return &Adaptive{tracker: tracker}, nil
	default:
		return nil, fmt.Errorf("unknown consensus strategy: %q", name)
	}
}

// combinePrinciples computes the weighted mean per principle id across
// opinions, using the supplied effective weight per opinion index. Opinions
// missing a principle do not dilute that principle's aggregate.
func combinePrinciples(opinions []consensus.ModelOpinion, weights []float64) map[string]float64 {
	sums := make(map[string]float64)
	norms := make(map[string]float64)
	for i, op := range opinions {
		w := weights[i]
		if w <= 0 {
			continue
		}
		for id, score := range op.Breakdown.PerPrinciple {
			sums[id] += w * score
			norms[id] += w
		}
	}

	out := make(map[string]float64, len(sums))
	for id, sum := range sums {
		out[id] = sum / norms[id]
	}
	return out
}
