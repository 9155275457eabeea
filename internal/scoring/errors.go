// Package scoring converts a run's responses into a ray score profile.
//
// Scoring is pure: everything it needs arrives in the Input, and the same
// Input always produces a byte-identical profile. No clocks, no I/O, no
// randomness.
package scoring

import "fmt"

// Error represents a scoring failure
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("scoring error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// InsufficientCoverageError means too few assigned items were answered to
// produce any profile. Callers must surface it as a data problem, never as
// a low-confidence result.
type InsufficientCoverageError struct {
	Coverage float64
	Required float64
}

func (e *InsufficientCoverageError) Error() string {
	return fmt.Sprintf("insufficient responses: coverage %.2f below required %.2f", e.Coverage, e.Required)
}
