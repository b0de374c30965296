package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/store"
)

const questionColumns = `id, content, options, correct_option_id, tags, mode, explanation, diagnosis`

// CatalogStore implements store.CatalogStore.
type CatalogStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

var _ store.CatalogStore = (*CatalogStore)(nil)

// NewCatalogStore creates a CatalogStore.
func NewCatalogStore(db store.DBTX, dialect Dialect, logger *slog.Logger) *CatalogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "catalog_store")),
	}
}

// Get implements store.CatalogStore.
func (s *CatalogStore) Get(ctx context.Context, id string) (*domain.Question, error) {
	query := s.dialect.Rebind(`SELECT ` + questionColumns + ` FROM questions WHERE id = ?`)
	q, err := scanQuestion(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQuestionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get question",
			slog.String("error", err.Error()),
			slog.String("question_id", id))
		return nil, s.dialect.MapError(err)
	}
	return q, nil
}

// GetMany implements store.CatalogStore.
func (s *CatalogStore) GetMany(ctx context.Context, ids []string) (map[string]domain.Question, error) {
	result := make(map[string]domain.Question, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := s.dialect.Rebind(`SELECT ` + questionColumns +
		` FROM questions WHERE id IN (` + placeholders(len(ids)) + `)`)

	questions, err := s.queryMany(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		result[q.ID] = q
	}
	return result, nil
}

// ListByMode implements store.CatalogStore.
func (s *CatalogStore) ListByMode(ctx context.Context, mode string) ([]domain.Question, error) {
	query := s.dialect.Rebind(`SELECT ` + questionColumns + ` FROM questions WHERE mode = ? ORDER BY id`)
	return s.queryMany(ctx, query, mode)
}

// Insert implements store.CatalogStore.
func (s *CatalogStore) Insert(ctx context.Context, question *domain.Question) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	options, err := json.Marshal(question.Options)
	if err != nil {
		return false, fmt.Errorf("failed to encode options: %w", err)
	}
	tags, err := encodeTags(question.Tags)
	if err != nil {
		return false, err
	}

	query := s.dialect.Rebind(`
		INSERT INTO questions (` + questionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	result, err := s.db.ExecContext(ctx, query,
		question.ID,
		question.Content,
		string(options),
		question.CorrectOptionID,
		tags,
		question.Mode,
		question.Explanation,
		question.Diagnosis,
	)
	if err != nil {
		log.Error("failed to insert question",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID))
		return false, store.NewStoreError("question", "insert", "insert failed", s.dialect.MapError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Debug("question already in catalog", slog.String("question_id", question.ID))
		return false, nil
	}
	return true, nil
}

// UpdateTags implements store.CatalogStore.
func (s *CatalogStore) UpdateTags(ctx context.Context, id string, tags []string) error {
	encoded, err := encodeTags(tags)
	if err != nil {
		return err
	}

	query := s.dialect.Rebind(`UPDATE questions SET tags = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, encoded, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update question tags",
			slog.String("error", err.Error()),
			slog.String("question_id", id))
		return store.NewStoreError("question", "update tags", "update failed", s.dialect.MapError(err))
	}
	return checkRowsAffected(result, store.ErrQuestionNotFound)
}

func (s *CatalogStore) queryMany(ctx context.Context, query string, args ...any) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dialect.MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.MapError(err)
	}
	return questions, nil
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var (
		q       domain.Question
		options string
		tags    string
	)
	if err := row.Scan(
		&q.ID,
		&q.Content,
		&options,
		&q.CorrectOptionID,
		&tags,
		&q.Mode,
		&q.Explanation,
		&q.Diagnosis,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options of question %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &q.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of question %s: %w", q.ID, err)
	}
	q.Tags = domain.NormalizeSet(q.Tags)
	return &q, nil
}

func encodeTags(tags []string) (string, error) {
	data, err := json.Marshal(domain.NormalizeSet(tags))
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(data), nil
}
