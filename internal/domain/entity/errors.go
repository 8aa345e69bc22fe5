package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor is matched by every ValidationError.
// A feed failing it is skipped for the run, never fatal.
var ErrInvalidDescriptor = errors.New("invalid feed descriptor")

// ValidationError names the descriptor field that was rejected.
// FeedID is empty when the value was checked outside a descriptor.
type ValidationError struct {
	FeedID  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.FeedID == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("feed %q: invalid %s: %s", e.FeedID, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDescriptor
}
