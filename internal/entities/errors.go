package entities

import (
	"errors"
	"fmt"
)

// BackendUnavailableError marks a failed upstream call (network error or
// non-2xx response). Handlers must turn it into a user-visible reply, never
// swallow it.
type BackendUnavailableError struct {
	Op  string // logical operation, e.g. "chat", "location"
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// IsBackendUnavailable reports whether err is a BackendUnavailableError.
func IsBackendUnavailable(err error) bool {
	var be *BackendUnavailableError
	return errors.As(err, &be)
}

// ValidationError marks a request missing a required field. Surfaced as
// HTTP 400 by the relay endpoints.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
