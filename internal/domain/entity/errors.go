package entity

import (
	"errors"
	"fmt"
)

// ErrValidationFailed is the sentinel all validation errors unwrap to,
// so callers can match with errors.Is without knowing the failed field.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError reports which field of an Item violated its invariant.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
