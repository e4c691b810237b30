package consensus

import (
	"errors"
	"fmt"
)

// ErrConsensusUnavailable indicates too few model backends responded to
// synthesize a decision. The enforcement point falls back to a cached or
// default-deny decision.
var ErrConsensusUnavailable = errors.New("consensus unavailable")

// QuorumError reports a failed quorum check.
type QuorumError struct {
	// Responded is the number of backends that produced an opinion.
	Responded int

	// Required is the configured minimum quorum.
	Required int

	// Dispatched is the number of backends the engine attempted.
	Dispatched int
}

// Error returns the error message.
func (e *QuorumError) Error() string {
	return fmt.Sprintf("quorum not met: %d of %d backends responded, %d required", e.Responded, e.Dispatched, e.Required)
}

// Unwrap returns ErrConsensusUnavailable so callers can match with errors.Is.
func (e *QuorumError) Unwrap() error {
	return ErrConsensusUnavailable
}
