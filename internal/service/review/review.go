// Package review decides which answered questions are waiting for review.
//
// The due set holds every question the user has missed at least once whose
// next review time has passed. When the due set is empty, questions whose
// proficiency is still below a threshold form the fallback pool.
package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/redact"
	"github.com/Chesten223/SoRight3/internal/service"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// DefaultFallbackProficiency is the proficiency below which a question is
// offered when nothing is due.
const DefaultFallbackProficiency = 80

// Scheduler computes review pools from progress records.
type Scheduler struct {
	// FallbackProficiency bounds the fallback pool, exclusive.
	FallbackProficiency int
}

// NewScheduler returns a Scheduler with the default fallback threshold.
func NewScheduler() Scheduler {
	return Scheduler{FallbackProficiency: DefaultFallbackProficiency}
}

// DueSet returns the user's due records ordered by next review time.
func (s Scheduler) DueSet(ctx context.Context, progress store.ProgressStore, userID uuid.UUID, now time.Time) ([]domain.QuestionProgress, error) {
	return progress.ListDue(ctx, userID, now)
}

// Pool returns the candidates for a daily review. due reports whether the
// pool is the due set; otherwise it is the low proficiency fallback, which
// may itself be empty.
func (s Scheduler) Pool(ctx context.Context, progress store.ProgressStore, userID uuid.UUID, now time.Time) (pool []domain.QuestionProgress, due bool, err error) {
	pool, err = s.DueSet(ctx, progress, userID, now)
	if err != nil {
		return nil, false, err
	}
	if len(pool) > 0 {
		return pool, true, nil
	}

	threshold := s.FallbackProficiency
	if threshold <= 0 {
		threshold = DefaultFallbackProficiency
	}
	pool, err = progress.ListBelowProficiency(ctx, userID, threshold)
	if err != nil {
		return nil, false, err
	}
	return pool, false, nil
}

// Service exposes the due set to callers.
type Service interface {
	// DueReviews returns the ids of the questions due at now, most overdue
	// first. It never falls back to low proficiency questions.
	DueReviews(ctx context.Context, userID uuid.UUID, now time.Time) ([]string, error)
}

type serviceImpl struct {
	tx        store.TxManager
	scheduler Scheduler
	logger    *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a review Service.
func NewService(tx store.TxManager, scheduler Scheduler, logger *slog.Logger) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		tx:        tx,
		scheduler: scheduler,
		logger:    logger.With(slog.String("component", "review_service")),
	}, nil
}

func (s *serviceImpl) DueReviews(ctx context.Context, userID uuid.UUID, now time.Time) ([]string, error) {
	var ids []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores *store.Stores) error {
		due, err := s.scheduler.DueSet(ctx, stores.Progress, userID, now)
		if err != nil {
			return err
		}
		ids = make([]string, len(due))
		for i, p := range due {
			ids[i] = p.QuestionID
		}
		return nil
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list due reviews",
			slog.String("user_id", userID.String()),
			slog.String("error", redact.Error(err)))
		return nil, service.Wrap("review", "due_reviews", err)
	}
	return ids, nil
}
