// Package run implements the assessment run lifecycle: create, start,
// answer, complete, cancel, read results, and verify signatures.
package run

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// State machine error codes.
const (
	CodeInvalidTransition = "invalid_transition"
	CodeRunNotActive      = "run_not_active"
)

// Data error codes.
const (
	CodeInsufficientResponses = "insufficient_responses"
	CodeMalformedResponse     = "malformed_response"
)

// AuthorizationError means the caller may not perform the operation:
// either the run belongs to someone else or the entitlement gate denied a
// new run. Never retried.
type AuthorizationError struct {
	Message string
	Reason  string // gate denial reason, when applicable
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authorization error: %s (%s)", e.Message, e.Reason)
	}
	return fmt.Sprintf("authorization error: %s", e.Message)
}

// NotFoundError means the requested run does not exist.
type NotFoundError struct {
	RunID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.RunID)
}

// StateError means the run's current status forbids the operation. The
// operation was rejected cleanly; nothing changed. Never retried.
type StateError struct {
	Code    string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error [%s]: %s", e.Code, e.Message)
}

// DataError means the submitted or stored data cannot produce a valid
// result. The run is left untouched. Never retried.
type DataError struct {
	Code    string
	Message string
	Cause   error
}

func (e *DataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Code, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Cause
}

// IntegrityError means the tamper-evidence chain is broken. Missing
// distinguishes "no signature on file" from a present-but-mismatched
// pair. Always surfaced, always logged, never retried.
type IntegrityError struct {
	RunID   uuid.UUID
	Missing bool
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error for run %s: %s", e.RunID, e.Message)
}

// TransientError means the store was temporarily unavailable. Safe to
// retry with backoff; the operation itself did not take effect.
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
