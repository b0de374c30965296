package service

import (
	"errors"
	"fmt"

	"github.com/Chesten223/SoRight3/internal/domain"
)

// Error handling principles:
//  1. Service methods return the domain taxonomy errors unchanged so callers
//     can match them with errors.Is.
//  2. Anything else is an internal failure and is wrapped in a ServiceError
//     once the unit of work has rolled back.
//  3. The API layer maps taxonomy errors to client status codes and every
//     ServiceError to 500.

// ServiceError wraps an unexpected failure with the service and operation
// that produced it.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}

// IsTaxonomy reports whether err belongs to the domain error taxonomy.
func IsTaxonomy(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrCycleViolation) ||
		errors.Is(err, domain.ErrEmptyCollection) ||
		errors.Is(err, domain.ErrValidation)
}

// Wrap returns nil for nil, err itself for taxonomy errors, and a
// ServiceError otherwise.
func Wrap(service, op string, err error) error {
	if err == nil || IsTaxonomy(err) {
		return err
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return err
	}
	return NewServiceError(service, op, err)
}
