// Package consensus synthesizes a single compliance decision from the
// opinions of multiple independent model backends.
//
// The engine fans out to all registered backends concurrently, scores each
// response against the active principle set, and combines the resulting
// opinions with a pluggable strategy (see the strategies subpackage). Each
// backend is wrapped in its own circuit breaker so a failing model is skipped
// for a cool-down window while the remaining healthy models carry its share
// of the weight. If fewer than the configured quorum of backends respond,
// the engine refuses to synthesize and returns ErrConsensusUnavailable.
//
// A decision is compliant only if the aggregate score meets the compliance
// threshold and no critical principle scores below its stricter floor. This
// two-tier gate is applied uniformly by the engine regardless of strategy.
package consensus
