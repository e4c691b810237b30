package scoring

import (
	"fmt"
	"sort"
	"strings"

	"acgs-hq/sentinel/pkg/constitution"
)

// Default scorer parameters.
const (
	// DefaultViolationPenalty is the fraction by which a keyword match
	// reduces a principle's score.
	DefaultViolationPenalty = 0.5

	// DefaultViolationThreshold is the per-principle score below which a
	// violation is reported.
	DefaultViolationThreshold = 0.9
)

// Config contains scorer parameters.
type Config struct {
	// ViolationPenalty is the fraction by which a keyword match reduces
	// a principle's score, in (0, 1].
	ViolationPenalty float64

	// ViolationThreshold is the per-principle score below which a
	// violation is reported.
	ViolationThreshold float64
}

// Scorer evaluates model opinions against the active principle set.
// Scorer has no hidden state; Score is safe for concurrent use.
type Scorer struct {
	penalty   float64
	threshold float64
}

// NewScorer creates a Scorer, applying defaults for zero-valued fields.
func NewScorer(cfg Config) *Scorer {
	if cfg.ViolationPenalty <= 0 || cfg.ViolationPenalty > 1 {
		cfg.ViolationPenalty = DefaultViolationPenalty
	}
	if cfg.ViolationThreshold <= 0 || cfg.ViolationThreshold > 1 {
		cfg.ViolationThreshold = DefaultViolationThreshold
	}
	return &Scorer{
		penalty:   cfg.ViolationPenalty,
		threshold: cfg.ViolationThreshold,
	}
}

// Score evaluates one model opinion against the principle set.
//
// Each principle's score starts from the model's self-reported compliance
// score, clamped to [0, 1]. If any of the principle's keywords appears in
// the normalized decision context, the score is reduced by the violation
// penalty. The overall score is the priority-weighted mean over all active
// principles.
//
// An empty principle set fails closed: the overall score is 0 and a single
// marker violation is reported.
func (s *Scorer) Score(dctx DecisionContext, set *constitution.PrincipleSet, op ModelOutput) Breakdown {
	if set == nil || set.Empty() {
		return Breakdown{
			PerPrinciple: map[string]float64{},
			Overall:      0,
			Violations: []Violation{{
				Threshold: s.threshold,
				Reason:    "empty principle set: failing closed",
			}},
		}
	}

	haystack := normalizeContext(dctx)
	base := clamp01(op.Score)

	perPrinciple := make(map[string]float64, set.Len())
	var violations []Violation
	var weightedSum, weightTotal float64

	// Principles() is sorted by id, so iteration order (and therefore the
	// violations slice) is deterministic.
	for _, p := range set.Principles() {
		score := base
		matched := matchKeyword(haystack, p.Keywords)
		if matched != "" {
			score = clamp01(base * (1 - s.penalty))
		}

		perPrinciple[p.ID] = score
		weightedSum += float64(p.Priority) * score
		weightTotal += float64(p.Priority)

		if score < s.threshold {
			reason := fmt.Sprintf("score %.3f below threshold %.3f", score, s.threshold)
			if matched != "" {
				reason = fmt.Sprintf("context matched violation keyword %q", matched)
			}
			violations = append(violations, Violation{
				PrincipleID: p.ID,
				Score:       score,
				Threshold:   s.threshold,
				Reason:      reason,
			})
		}
	}

	return Breakdown{
		PerPrinciple: perPrinciple,
		Overall:      clamp01(weightedSum / weightTotal),
		Violations:   violations,
	}
}

// normalizeContext lowercases and concatenates the scoreable parts of the
// decision context. Attributes are visited in sorted key order so the
// normalized form is identical across calls.
func normalizeContext(dctx DecisionContext) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(dctx.Content))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(dctx.Category))

	keys := make([]string, 0, len(dctx.Attributes))
	for k := range dctx.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(dctx.Attributes[k]))
	}
	return b.String()
}

// matchKeyword returns the first keyword present in the haystack, or "".
func matchKeyword(haystack string, keywords []string) string {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
