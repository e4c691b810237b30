// Package scoring evaluates a model's opinion of a decision context against
// the active principle set and produces a per-principle compliance breakdown.
//
// The scorer is a pure function: identical inputs always produce identical
// output, which is required for reproducing audit trails. The overall score
// is the priority-weighted mean of the per-principle scores, normalized to
// [0, 1]. An empty principle set fails closed: nothing can be compliant
// against a constitution that has no principles.
package scoring
