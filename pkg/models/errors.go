package models

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable indicates a backend could not produce an evaluation.
// The consensus engine absorbs these locally; they surface to callers only
// when quorum is lost.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// BackendError describes a failed backend call.
type BackendError struct {
	// Backend is the backend's name.
	Backend string

	// StatusCode is the HTTP status, if the call reached the backend.
	StatusCode int

	// Retryable indicates whether the failure was transient.
	Retryable bool

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend %s: status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("backend %s: %v", e.Backend, e.Err)
}

// Unwrap returns ErrBackendUnavailable so callers can match with errors.Is.
func (e *BackendError) Unwrap() error {
	return ErrBackendUnavailable
}
