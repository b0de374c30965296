package quiz

import (
	"context"
	"log/slog"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

func (s *serviceImpl) StartSession(ctx context.Context, userID uuid.UUID, mode string) (*domain.StudySession, error) {
	mode = domain.NormalizeMode(mode)
	if mode == "" {
		return nil, domain.NewValidationError("mode", "cannot be blank", nil)
	}
	session := &domain.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		Mode:      mode,
		StartedAt: s.now().UTC(),
	}
	err := s.run(ctx, "start_session", func(ctx context.Context, stores *store.Stores) error {
		return stores.Sessions.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *serviceImpl) FinishSession(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*domain.StudySession, error) {
	var session *domain.StudySession
	err := s.run(ctx, "finish_session", func(ctx context.Context, stores *store.Stores) error {
		var err error
		session, err = stores.Sessions.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.UserID != userID {
			return domain.ErrForbidden
		}
		if session.Finished() {
			return domain.NewValidationError("session_id", "session is already finished", nil)
		}

		logs, err := stores.Sessions.SessionLogs(ctx, sessionID)
		if err != nil {
			return err
		}
		session.Finish(logs, now.UTC())
		return stores.Sessions.UpdateSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("session finished",
		slog.String("session_id", sessionID.String()),
		slog.String("mode", session.Mode),
		slog.Int("score", session.Score))
	return session, nil
}
