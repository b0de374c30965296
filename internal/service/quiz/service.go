// Package quiz serves questions and records answers.
//
// GetQuestion dispatches on the requested mode: a direct question id, the
// daily review pool, a notebook subtree (mistake mode), or a catalog mode
// such as practice or exam. In daily and mistake mode an over-practiced
// question may be replaced by a related variant. SubmitAnswer applies the
// review schedule to the user's progress record and files missed questions
// in the Inbox notebook.
package quiz

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/domain/srs"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/redact"
	"github.com/Chesten223/SoRight3/internal/service"
	"github.com/Chesten223/SoRight3/internal/service/review"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// Request modes that are not catalog modes.
const (
	ModeDirect  = "direct"
	ModeDaily   = "daily"
	ModeMistake = "mistake"
)

// Request selects how GetQuestion picks a question.
type Request struct {
	Mode       string
	QuestionID string
	NotebookID *uuid.UUID
}

// ServedQuestion is a question chosen for the user.
type ServedQuestion struct {
	Question domain.Question `json:"question"`
	// Tags are the catalog tags plus any tags inherited from notebooks.
	Tags      []string `json:"tags"`
	IsDue     bool     `json:"is_due"`
	IsVariant bool     `json:"is_variant"`
	VariantOf string   `json:"variant_of,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// Answer is a submitted choice.
type Answer struct {
	Choice     string
	SessionID  *uuid.UUID
	DurationMs int
}

// AnswerResult reports the outcome of a submitted answer.
type AnswerResult struct {
	IsCorrect     bool                    `json:"is_correct"`
	CorrectChoice string                  `json:"correct_choice"`
	Progress      domain.QuestionProgress `json:"progress"`
	Explanation   string                  `json:"explanation"`
	// Diagnosis is only set for wrong answers.
	Diagnosis string `json:"diagnosis,omitempty"`
}

// Service is the quiz entry point.
type Service interface {
	// GetQuestion picks a question for req at now.
	GetQuestion(ctx context.Context, userID uuid.UUID, req Request, now time.Time) (*ServedQuestion, error)

	// SubmitAnswer records an answer to questionID.
	SubmitAnswer(ctx context.Context, userID uuid.UUID, questionID string, answer Answer) (*AnswerResult, error)

	// SetQuestionTags replaces the catalog tags of a question.
	SetQuestionTags(ctx context.Context, questionID string, tags []string) (*domain.Question, error)

	// StartSession opens a study session.
	StartSession(ctx context.Context, userID uuid.UUID, mode string) (*domain.StudySession, error)

	// FinishSession closes a session and computes its score from its logs.
	FinishSession(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*domain.StudySession, error)
}

// Option configures the quiz Service.
type Option func(*serviceImpl)

// WithClock overrides the clock used to stamp answers and sessions.
func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPicker overrides the uniform random choice among n candidates.
func WithPicker(pick func(n int) int) Option {
	return func(s *serviceImpl) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// WithScheduler overrides the daily review pool rules.
func WithScheduler(scheduler review.Scheduler) Option {
	return func(s *serviceImpl) {
		s.scheduler = scheduler
	}
}

// WithVariantThreshold overrides the attempt count after which variants
// are served.
func WithVariantThreshold(threshold int) Option {
	return func(s *serviceImpl) {
		s.variants.Threshold = threshold
	}
}

type serviceImpl struct {
	tx        store.TxManager
	schedule  srs.Service
	scheduler review.Scheduler
	variants  VariantSelector
	now       func() time.Time
	pick      func(n int) int
	logger    *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a quiz Service.
func NewService(tx store.TxManager, schedule srs.Service, logger *slog.Logger, opts ...Option) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if schedule == nil {
		return nil, domain.NewValidationError("schedule", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &serviceImpl{
		tx:        tx,
		schedule:  schedule,
		scheduler: review.NewScheduler(),
		variants:  VariantSelector{Threshold: DefaultVariantThreshold},
		now:       time.Now,
		pick:      rand.IntN,
		logger:    logger.With(slog.String("component", "quiz_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *serviceImpl) run(ctx context.Context, op string, fn store.UnitFn) error {
	err := s.tx.WithinTx(ctx, fn)
	if err != nil && !service.IsTaxonomy(err) {
		logger.FromContextOrDefault(ctx, s.logger).Error("quiz operation failed",
			slog.String("operation", op),
			slog.String("error", redact.Error(err)))
	}
	return service.Wrap("quiz", op, err)
}
