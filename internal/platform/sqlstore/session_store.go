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

const (
	sessionColumns = `id, user_id, mode, started_at, ended_at, duration_seconds, total_questions, correct_count, score`
	logColumns     = `id, user_id, question_id, session_id, choice, is_correct, duration_ms, created_at`
)

// SessionStore implements store.SessionStore.
type SessionStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

var _ store.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore.
func NewSessionStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *SessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "session_store")),
	}
}

// CreateSession implements store.SessionStore.
func (s *SessionStore) CreateSession(ctx context.Context, session *domain.StudySession) error {
	query := s.dialect.Rebind(`INSERT INTO study_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, sessionArgs(session)...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return store.NewStoreError("study session", "create", "insert failed", s.dialect.MapError(err))
	}
	return nil
}

// GetSession implements store.SessionStore.
func (s *SessionStore) GetSession(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	query := s.dialect.Rebind(`SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = ?`)

	var (
		session domain.StudySession
		started int64
		ended   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.Mode,
		&started,
		&ended,
		&session.DurationSeconds,
		&session.TotalQuestions,
		&session.CorrectCount,
		&session.Score,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, s.dialect.MapError(err)
	}

	session.StartedAt = fromMillis(started)
	if ended.Valid {
		t := fromMillis(ended.Int64)
		session.EndedAt = &t
	}
	return &session, nil
}

// UpdateSession implements store.SessionStore.
func (s *SessionStore) UpdateSession(ctx context.Context, session *domain.StudySession) error {
	query := s.dialect.Rebind(`
		UPDATE study_sessions
		SET ended_at = ?, duration_seconds = ?, total_questions = ?, correct_count = ?, score = ?
		WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		nullMillis(session.EndedAt),
		session.DurationSeconds,
		session.TotalQuestions,
		session.CorrectCount,
		session.Score,
		session.ID,
	)
	if err != nil {
		return store.NewStoreError("study session", "update", "update failed", s.dialect.MapError(err))
	}
	return checkRowsAffected(result, store.ErrSessionNotFound)
}

// AppendLog implements store.SessionStore.
func (s *SessionStore) AppendLog(ctx context.Context, entry *domain.AnswerLog) error {
	query := s.dialect.Rebind(`INSERT INTO answer_logs (` + logColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.QuestionID,
		entry.SessionID,
		entry.Choice,
		entry.IsCorrect,
		entry.DurationMs,
		toMillis(entry.CreatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append answer log",
			slog.String("error", err.Error()),
			slog.String("question_id", entry.QuestionID))
		return store.NewStoreError("answer log", "append", "insert failed", s.dialect.MapError(err))
	}
	return nil
}

// SessionLogs implements store.SessionStore.
func (s *SessionStore) SessionLogs(ctx context.Context, sessionID uuid.UUID) ([]domain.AnswerLog, error) {
	query := s.dialect.Rebind(`SELECT ` + logColumns +
		` FROM answer_logs WHERE session_id = ? ORDER BY created_at, id`)
	return s.queryLogs(ctx, query, sessionID)
}

// ListLogsSince implements store.SessionStore.
func (s *SessionStore) ListLogsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.AnswerLog, error) {
	query := s.dialect.Rebind(`SELECT ` + logColumns +
		` FROM answer_logs WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC, id`)
	return s.queryLogs(ctx, query, userID, toMillis(since))
}

func (s *SessionStore) queryLogs(ctx context.Context, query string, args ...any) ([]domain.AnswerLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dialect.MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var logs []domain.AnswerLog
	for rows.Next() {
		var (
			entry   domain.AnswerLog
			session uuid.NullUUID
			created int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.QuestionID,
			&session,
			&entry.Choice,
			&entry.IsCorrect,
			&entry.DurationMs,
			&created,
		); err != nil {
			return nil, err
		}
		if session.Valid {
			id := session.UUID
			entry.SessionID = &id
		}
		entry.CreatedAt = fromMillis(created)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.MapError(err)
	}
	return logs, nil
}

func sessionArgs(session *domain.StudySession) []any {
	return []any{
		session.ID,
		session.UserID,
		session.Mode,
		toMillis(session.StartedAt),
		nullMillis(session.EndedAt),
		session.DurationSeconds,
		session.TotalQuestions,
		session.CorrectCount,
		session.Score,
	}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}
