package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy returned by the core. Every error that leaves a service is
// either one of these (possibly wrapped) or an internal failure.
var (
	// ErrNotFound is returned when a referenced node, question, session or
	// progress record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the entity exists but belongs to another
	// user, or when the operation targets a protected node such as a root.
	ErrForbidden = errors.New("forbidden")

	// ErrCycleViolation is returned when a move would place a node inside its
	// own subtree.
	ErrCycleViolation = errors.New("cycle violation")

	// ErrEmptyCollection is returned when no question is eligible for the
	// requested mode or subtree.
	ErrEmptyCollection = errors.New("empty collection")

	// ErrValidation is returned when input is malformed. It is usually
	// wrapped by a *ValidationError carrying the offending field.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a single malformed input field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Message)
}

// Unwrap exposes the cause so errors.Is(err, ErrValidation) holds.
func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// Is reports ValidationError as ErrValidation even when it wraps a
// different cause.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
