// Package srs implements the stage-based review schedule: how an answer
// changes a question's proficiency and stage, and when it is due again.
package srs

import (
	"errors"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
)

// ErrNilProgress is returned when no progress record is supplied.
var ErrNilProgress = errors.New("question progress cannot be nil")

// Service defines the interface for schedule operations.
type Service interface {
	// ApplyAnswer computes the progress that results from answering the
	// question correctly or not at now. The input record is left untouched.
	ApplyAnswer(
		progress *domain.QuestionProgress,
		correct bool,
		now time.Time,
	) (*domain.QuestionProgress, error)

	// Params exposes the active schedule parameters.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a schedule with default parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a schedule with custom parameters.
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

// ApplyAnswer implements Service.
func (s *defaultService) ApplyAnswer(
	progress *domain.QuestionProgress,
	correct bool,
	now time.Time,
) (*domain.QuestionProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	return calculateNextProgress(progress, correct, now, s.params), nil
}

// Params implements Service.
func (s *defaultService) Params() Params {
	p := *s.params
	p.IntervalDays = append([]int(nil), s.params.IntervalDays...)
	return p
}
