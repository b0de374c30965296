package notebook

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

// Service exposes notebook membership operations, each as one unit of work.
type Service interface {
	Inbox(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[domain.NotebookPayload], error)
	AddToInbox(ctx context.Context, userID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error)
	AddQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error)
	RemoveQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error)
	Collect(ctx context.Context, userID, nodeID uuid.UUID) ([]Entry, error)
}

type serviceImpl struct {
	tx     store.TxManager
	now    func() time.Time
	logger *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a notebook Service. now may be nil to use time.Now.
func NewService(tx store.TxManager, now func() time.Time, logger *slog.Logger) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		tx:     tx,
		now:    now,
		logger: logger.With(slog.String("component", "notebook_service")),
	}, nil
}

func (s *serviceImpl) run(ctx context.Context, op string, fn func(ctx context.Context, b *Book) error) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores *store.Stores) error {
		return fn(ctx, Bind(stores, s.now))
	})
	if err != nil && !service.IsTaxonomy(err) {
		logger.FromContextOrDefault(ctx, s.logger).Error("notebook operation failed",
			slog.String("operation", op),
			slog.String("error", redact.Error(err)))
	}
	return service.Wrap("notebook", op, err)
}

func (s *serviceImpl) Inbox(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[domain.NotebookPayload], error) {
	var node *domain.TreeNode[domain.NotebookPayload]
	err := s.run(ctx, "inbox", func(ctx context.Context, b *Book) (err error) {
		node, err = b.Inbox(ctx, userID)
		return err
	})
	return node, err
}

func (s *serviceImpl) AddToInbox(ctx context.Context, userID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error) {
	var node *domain.TreeNode[domain.NotebookPayload]
	err := s.run(ctx, "add_to_inbox", func(ctx context.Context, b *Book) (err error) {
		if _, err := b.catalog.Get(ctx, questionID); err != nil {
			return err
		}
		node, err = b.AddToInbox(ctx, userID, questionID)
		return err
	})
	return node, err
}

func (s *serviceImpl) AddQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error) {
	var node *domain.TreeNode[domain.NotebookPayload]
	err := s.run(ctx, "add_question", func(ctx context.Context, b *Book) (err error) {
		node, err = b.AddQuestion(ctx, userID, notebookID, questionID)
		return err
	})
	return node, err
}

func (s *serviceImpl) RemoveQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error) {
	var node *domain.TreeNode[domain.NotebookPayload]
	err := s.run(ctx, "remove_question", func(ctx context.Context, b *Book) (err error) {
		node, err = b.RemoveQuestion(ctx, userID, notebookID, questionID)
		return err
	})
	return node, err
}

func (s *serviceImpl) Collect(ctx context.Context, userID, nodeID uuid.UUID) ([]Entry, error) {
	var entries []Entry
	err := s.run(ctx, "collect", func(ctx context.Context, b *Book) (err error) {
		entries, err = b.Collect(ctx, userID, nodeID)
		return err
	})
	return entries, err
}
