package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap allows errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// InvalidDeltaError is returned when the month delta is not a non-negative integer.
// It is a configuration error and is never retried.
type InvalidDeltaError struct {
	Value  string
	Reason string
}

// Error returns a formatted error message for the invalid delta.
func (e *InvalidDeltaError) Error() string {
	return fmt.Sprintf("invalid month delta %q: %s", e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidInput).
func (e *InvalidDeltaError) Unwrap() error {
	return ErrInvalidInput
}
