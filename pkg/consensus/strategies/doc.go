// Package strategies implements the consensus aggregation strategies:
// weighted averaging, majority voting, and performance-adaptive weighting.
// Each implements consensus.Strategy and is selected by name through New.
package strategies
