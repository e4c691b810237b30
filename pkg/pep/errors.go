package pep

import "errors"

// ErrBudgetExceeded indicates consensus did not finish within the request
// budget. The enforcement point still serves a fallback decision; the
// sentinel is carried on Decision.Reason so callers can tell a timeout
// apart from a quorum failure.
var ErrBudgetExceeded = errors.New("decision budget exceeded")
