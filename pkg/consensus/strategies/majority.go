package strategies

import (
	"fmt"

	"acgs-hq/sentinel/pkg/consensus"
)

// voteThreshold splits opinions into compliance camps for majority voting.
const voteThreshold = 0.5

// Majority counts each opinion as a vote: scores at or above 0.5 vote
// compliant, scores below vote non-compliant. The synthesis averages the
// winning side's scores, weighted, so the minority cannot drag the aggregate
// across the gate. A weight tie goes to the side containing the single
// highest-weight model.
type Majority struct{}

// Name returns the strategy's configuration name.
func (s *Majority) Name() string { return MajorityVote }

// Combine aggregates the majority side's opinions by weighted mean.
func (s *Majority) Combine(opinions []consensus.ModelOpinion) (*consensus.Synthesis, error) {
	if len(opinions) == 0 {
		return nil, fmt.Errorf("no opinions to combine")
	}

	var forWeight, againstWeight float64
	var heaviest consensus.ModelOpinion
	for _, op := range opinions {
		w := op.Weight
		if w <= 0 {
			w = 1.0
		}
		if op.ComplianceScore >= voteThreshold {
			forWeight += w
		} else {
			againstWeight += w
		}
		if w > heaviest.Weight {
			heaviest = op
		}
	}

	winnerVotesFor := forWeight > againstWeight
	if forWeight == againstWeight {
		winnerVotesFor = heaviest.ComplianceScore >= voteThreshold
	}

	winners := make([]consensus.ModelOpinion, 0, len(opinions))
	for _, op := range opinions {
		if (op.ComplianceScore >= voteThreshold) == winnerVotesFor {
			winners = append(winners, op)
		}
	}

	weights := make([]float64, len(winners))
	var sum, norm float64
	for i, op := range winners {
		w := op.Weight
		if w <= 0 {
			w = 1.0
		}
		weights[i] = w
		sum += w * op.ComplianceScore
		norm += w
	}

	return &consensus.Synthesis{
		OverallScore: sum / norm,
		PerPrinciple: combinePrinciples(winners, weights),
	}, nil
}
