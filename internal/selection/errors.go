// Package selection deterministically assigns item lists to assessment runs.
package selection

import "fmt"

// Error represents an item selection failure
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("selection error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("selection error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
