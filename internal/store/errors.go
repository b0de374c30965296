package store

import (
	"errors"
	"fmt"

	"github.com/Chesten223/SoRight3/internal/domain"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist. It is
	// the domain taxonomy error so services can pass it through unchanged.
	ErrNotFound = domain.ErrNotFound

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity violates a storage
	// constraint. Check the wrapped error for details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrNodeNotFound indicates that the requested tree node does not exist.
	ErrNodeNotFound = fmt.Errorf("%w: tree node", ErrNotFound)

	// ErrQuestionNotFound indicates that the question is not in the catalog.
	ErrQuestionNotFound = fmt.Errorf("%w: question", ErrNotFound)

	// ErrProgressNotFound indicates that the user never answered the question.
	ErrProgressNotFound = fmt.Errorf("%w: question progress", ErrNotFound)

	// ErrSessionNotFound indicates that the study session does not exist.
	ErrSessionNotFound = fmt.Errorf("%w: study session", ErrNotFound)
)

// StoreError records which entity and operation a storage failure belongs to.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("store: %s %s: %s", e.Operation, e.Entity, e.Message)
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with the entity and operation it failed on.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
