package constitution

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrIntegrity indicates a constitutional hash mismatch. Fatal for
	// the request; never retried.
	ErrIntegrity = errors.New("constitutional integrity violation")

	// ErrNoPrinciples indicates no principle set has been loaded.
	ErrNoPrinciples = errors.New("no principle set loaded")
)

// IntegrityError reports a mismatch between the expected (pinned)
// constitutional hash and the hash computed from the active principle set.
type IntegrityError struct {
	Expected string
	Computed string
}

// Error returns the error message.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("constitutional hash mismatch: expected %s, computed %s", e.Expected, e.Computed)
}

// Unwrap returns ErrIntegrity so callers can match with errors.Is.
func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}
