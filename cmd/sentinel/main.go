// Sentinel is a constitutional policy enforcement and multi-model consensus
// engine.
//
// It evaluates governance decisions against a versioned set of constitutional
// principles, synthesizing compliance verdicts from multiple model backends:
//   - Constitutional hash validation on every decision path
//   - Weighted, majority, and performance-adaptive consensus strategies
//   - Decision caching with last-known-good fallback
//   - Automatic rollback circuit breaking on sustained degradation
//   - Append-only audit trail with retention
//
// Usage:
//
//	# Start the enforcement point with default configuration
//	sentinel run
//
//	# Start with custom configuration file
//	sentinel run --config /etc/sentinel/config.yaml
//
//	# Compute the constitutional hash of a principle file
//	sentinel hash --principles principles.yaml
//
//	# Evaluate content offline against the principles
//	sentinel validate --principles principles.yaml "deploy the service"
//
//	# Show version information
//	sentinel version
package main

func main() {
	Execute()
}
