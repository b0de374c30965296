package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

const progressColumns = `user_id, question_id, attempts, errors, proficiency, stage, next_review_at, last_reviewed_at`

// ProgressStore implements store.ProgressStore.
type ProgressStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// NewProgressStore creates a ProgressStore.
func NewProgressStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *ProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "progress_store")),
	}
}

// Get implements store.ProgressStore.
func (s *ProgressStore) Get(ctx context.Context, userID uuid.UUID, questionID string) (*domain.QuestionProgress, error) {
	query := s.dialect.Rebind(`SELECT ` + progressColumns +
		` FROM question_progress WHERE user_id = ? AND question_id = ?`)
	p, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("question_id", questionID))
		return nil, s.dialect.MapError(err)
	}
	return p, nil
}

// Upsert implements store.ProgressStore.
func (s *ProgressStore) Upsert(ctx context.Context, p *domain.QuestionProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		return store.NewStoreError("question progress", "upsert", "invalid record", errors.Join(store.ErrInvalidEntity, err))
	}

	query := s.dialect.Rebind(`
		INSERT INTO question_progress (` + progressColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, question_id) DO UPDATE SET
			attempts = excluded.attempts,
			errors = excluded.errors,
			proficiency = excluded.proficiency,
			stage = excluded.stage,
			next_review_at = excluded.next_review_at,
			last_reviewed_at = excluded.last_reviewed_at`)
	_, err := s.db.ExecContext(ctx, query,
		p.UserID,
		p.QuestionID,
		p.Attempts,
		p.Errors,
		p.Proficiency,
		p.Stage,
		toMillis(p.NextReviewAt),
		toMillis(p.LastReviewedAt),
	)
	if err != nil {
		log.Error("failed to upsert progress",
			slog.String("error", err.Error()),
			slog.String("user_id", p.UserID.String()),
			slog.String("question_id", p.QuestionID))
		return store.NewStoreError("question progress", "upsert", "upsert failed", s.dialect.MapError(err))
	}

	log.Debug("progress saved",
		slog.String("question_id", p.QuestionID),
		slog.Int("proficiency", p.Proficiency),
		slog.Int("stage", p.Stage))
	return nil
}

// ListDue implements store.ProgressStore.
func (s *ProgressStore) ListDue(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.QuestionProgress, error) {
	query := s.dialect.Rebind(`SELECT ` + progressColumns + `
		FROM question_progress
		WHERE user_id = ? AND errors > 0 AND next_review_at <= ?
		ORDER BY next_review_at, question_id`)
	return s.queryMany(ctx, query, userID, toMillis(now))
}

// ListBelowProficiency implements store.ProgressStore.
func (s *ProgressStore) ListBelowProficiency(ctx context.Context, userID uuid.UUID, threshold int) ([]domain.QuestionProgress, error) {
	query := s.dialect.Rebind(`SELECT ` + progressColumns + `
		FROM question_progress
		WHERE user_id = ? AND proficiency < ?
		ORDER BY question_id`)
	return s.queryMany(ctx, query, userID, threshold)
}

// ListByUser implements store.ProgressStore.
func (s *ProgressStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.QuestionProgress, error) {
	query := s.dialect.Rebind(`SELECT ` + progressColumns +
		` FROM question_progress WHERE user_id = ? ORDER BY question_id`)
	return s.queryMany(ctx, query, userID)
}

// GetMany implements store.ProgressStore.
func (s *ProgressStore) GetMany(ctx context.Context, userID uuid.UUID, questionIDs []string) (map[string]domain.QuestionProgress, error) {
	result := make(map[string]domain.QuestionProgress, len(questionIDs))
	if len(questionIDs) == 0 {
		return result, nil
	}

	args := make([]any, 0, len(questionIDs)+1)
	args = append(args, userID)
	for _, id := range questionIDs {
		args = append(args, id)
	}
	query := s.dialect.Rebind(`SELECT ` + progressColumns +
		` FROM question_progress WHERE user_id = ? AND question_id IN (` + placeholders(len(questionIDs)) + `)`)

	records, err := s.queryMany(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range records {
		result[p.QuestionID] = p
	}
	return result, nil
}

func (s *ProgressStore) queryMany(ctx context.Context, query string, args ...any) ([]domain.QuestionProgress, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query progress",
			slog.String("error", err.Error()))
		return nil, s.dialect.MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.QuestionProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.MapError(err)
	}
	return records, nil
}

func scanProgress(row rowScanner) (*domain.QuestionProgress, error) {
	var (
		p              domain.QuestionProgress
		next, reviewed int64
	)
	if err := row.Scan(
		&p.UserID,
		&p.QuestionID,
		&p.Attempts,
		&p.Errors,
		&p.Proficiency,
		&p.Stage,
		&next,
		&reviewed,
	); err != nil {
		return nil, err
	}
	p.NextReviewAt = fromMillis(next)
	p.LastReviewedAt = fromMillis(reviewed)
	return &p, nil
}
