package quiz

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

func (s *serviceImpl) SubmitAnswer(ctx context.Context, userID uuid.UUID, questionID string, answer Answer) (*AnswerResult, error) {
	choice := strings.TrimSpace(answer.Choice)
	if choice == "" {
		return nil, domain.NewValidationError("choice", "cannot be blank", nil)
	}
	if answer.DurationMs < 0 {
		return nil, domain.NewValidationError("duration_ms", "cannot be negative", nil)
	}
	now := s.now().UTC()

	var result *AnswerResult
	err := s.run(ctx, "submit_answer", func(ctx context.Context, stores *store.Stores) error {
		q, err := stores.Catalog.Get(ctx, questionID)
		if err != nil {
			return err
		}

		if answer.SessionID != nil {
			session, err := stores.Sessions.GetSession(ctx, *answer.SessionID)
			if err != nil {
				return err
			}
			if session.UserID != userID {
				return domain.ErrForbidden
			}
			if session.Finished() {
				return domain.NewValidationError("session_id", "session is already finished", nil)
			}
		}

		current, err := stores.Progress.Get(ctx, userID, q.ID)
		if errors.Is(err, store.ErrNotFound) {
			current, err = domain.NewQuestionProgress(userID, q.ID, now)
		}
		if err != nil {
			return err
		}

		correct := q.IsCorrect(choice)
		next, err := s.schedule.ApplyAnswer(current, correct, now)
		if err != nil {
			return err
		}
		if err := stores.Progress.Upsert(ctx, next); err != nil {
			return err
		}

		if err := stores.Sessions.AppendLog(ctx, &domain.AnswerLog{
			ID:         uuid.New(),
			UserID:     userID,
			QuestionID: q.ID,
			SessionID:  answer.SessionID,
			Choice:     choice,
			IsCorrect:  correct,
			DurationMs: answer.DurationMs,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		if !correct {
			if _, err := notebook.Bind(stores, s.now).AddToInbox(ctx, userID, q.ID); err != nil {
				return err
			}
		}

		result = &AnswerResult{
			IsCorrect:     correct,
			CorrectChoice: q.CorrectOptionID,
			Progress:      *next,
			Explanation:   q.ExplanationOrDefault(),
		}
		if !correct {
			result.Diagnosis = q.Diagnosis
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("answer recorded",
		slog.String("question_id", questionID),
		slog.Bool("correct", result.IsCorrect),
		slog.Int("stage", result.Progress.Stage),
		slog.Int("proficiency", result.Progress.Proficiency))
	return result, nil
}

func (s *serviceImpl) SetQuestionTags(ctx context.Context, questionID string, tags []string) (*domain.Question, error) {
	var updated *domain.Question
	err := s.run(ctx, "set_question_tags", func(ctx context.Context, stores *store.Stores) error {
		if err := stores.Catalog.UpdateTags(ctx, questionID, domain.NormalizeSet(tags)); err != nil {
			return err
		}
		var err error
		updated, err = stores.Catalog.Get(ctx, questionID)
		return err
	})
	return updated, err
}
