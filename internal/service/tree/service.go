package tree

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

// Service exposes the tree operations for one tree kind. Every call is
// scoped to userID and runs as a single unit of work.
type Service[P any] interface {
	Root(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[P], error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.TreeNode[P], error)
	Children(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error)
	Breadcrumbs(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error)
	Subtree(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error)

	// Create adds a node; a nil parentID places it under the root.
	Create(ctx context.Context, userID uuid.UUID, name string, parentID *uuid.UUID, payload P) (*domain.TreeNode[P], error)
	Move(ctx context.Context, userID, id, newParentID uuid.UUID) (*domain.TreeNode[P], error)
	Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.TreeNode[P], error)
	SetPayload(ctx context.Context, userID, id uuid.UUID, payload P) (*domain.TreeNode[P], error)
	// Delete removes the node and its subtree and returns the removed ids.
	Delete(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error)
	Reorder(ctx context.Context, userID, parentID uuid.UUID, orderedIDs []uuid.UUID) ([]*domain.TreeNode[P], error)
	Sort(ctx context.Context, userID, parentID uuid.UUID, key SortKey) ([]*domain.TreeNode[P], error)
}

// Option configures a Service.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for created and updated times.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

type serviceImpl[P any] struct {
	tx     store.TxManager
	kind   Kind[P]
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a Service for kind.
func NewService[P any](tx store.TxManager, kind Kind[P], logger *slog.Logger, opts ...Option) (Service[P], error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if kind.Pick == nil || kind.RootPayload == nil || kind.Normalize == nil || kind.CanContain == nil {
		return nil, domain.NewValidationError("kind", "is incomplete", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &serviceImpl[P]{
		tx:   tx,
		kind: kind,
		now:  o.now,
		logger: logger.With(
			slog.String("component", "tree_service"),
			slog.String("kind", string(kind.Name)),
		),
	}, nil
}

// run executes fn inside a unit of work with a bound Tree.
func (s *serviceImpl[P]) run(ctx context.Context, op string, fn func(ctx context.Context, t *Tree[P]) error) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, stores *store.Stores) error {
		return fn(ctx, s.kind.Bind(stores, s.now))
	})
	if err != nil && !service.IsTaxonomy(err) {
		logger.FromContextOrDefault(ctx, s.logger).Error("tree operation failed",
			slog.String("operation", op),
			slog.String("error", redact.Error(err)))
	}
	return service.Wrap("tree", op, err)
}

func (s *serviceImpl[P]) Root(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.run(ctx, "root", func(ctx context.Context, t *Tree[P]) (err error) {
		node, err = t.Root(ctx, userID)
		return err
	})
	return node, err
}

func (s *serviceImpl[P]) Get(ctx context.Context, userID, id uuid.UUID) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.run(ctx, "get", func(ctx context.Context, t *Tree[P]) (err error) {
		node, err = t.Get(ctx, userID, id)
		return err
	})
	return node, err
}

func (s *serviceImpl[P]) Children(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	var nodes []*domain.TreeNode[P]
	err := s.run(ctx, "children", func(ctx context.Context, t *Tree[P]) (err error) {
		nodes, err = t.Children(ctx, userID, id)
		return err
	})
	return nodes, err
}

func (s *serviceImpl[P]) Breadcrumbs(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	var nodes []*domain.TreeNode[P]
	err := s.run(ctx, "breadcrumbs", func(ctx context.Context, t *Tree[P]) (err error) {
		nodes, err = t.Breadcrumbs(ctx, userID, id)
		return err
	})
	return nodes, err
}

func (s *serviceImpl[P]) Subtree(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	var nodes []*domain.TreeNode[P]
	err := s.run(ctx, "subtree", func(ctx context.Context, t *Tree[P]) (err error) {
		nodes, err = t.Subtree(ctx, userID, id)
		return err
	})
	return nodes, err
}

func (s *serviceImpl[P]) Create(ctx context.Context, userID uuid.UUID, name string, parentID *uuid.UUID, payload P) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.run(ctx, "create", func(ctx context.Context, t *Tree[P]) (err error) {
		node, err = t.Create(ctx, userID, name, parentID, payload)
		return err
	})
	if err == nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("node created",
			slog.String("node_id", node.ID.String()))
	}
	return node, err
}

func (s *serviceImpl[P]) Move(ctx context.Context, userID, id, newParentID uuid.UUID) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.run(ctx, "move", func(ctx context.Context, t *Tree[P]) (err error) {
		node, err = t.Move(ctx, userID, id, newParentID)
		return err
	})
	return node, err
}

func (s *serviceImpl[P]) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.run(ctx, "rename", func(ctx context.Context, t *Tree[P]) (err error) {
		node, err = t.Rename(ctx, userID, id, name)
		return err
	})
	return node, err
}

func (s *serviceImpl[P]) SetPayload(ctx context.Context, userID, id uuid.UUID, payload P) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.run(ctx, "set_payload", func(ctx context.Context, t *Tree[P]) (err error) {
		node, err = t.SetPayload(ctx, userID, id, payload)
		return err
	})
	return node, err
}

func (s *serviceImpl[P]) Delete(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	err := s.run(ctx, "delete", func(ctx context.Context, t *Tree[P]) (err error) {
		removed, err = t.Delete(ctx, userID, id)
		return err
	})
	if err == nil {
		logger.FromContextOrDefault(ctx, s.logger).Info("subtree deleted",
			slog.String("node_id", id.String()),
			slog.Int("removed", len(removed)))
	}
	return removed, err
}

func (s *serviceImpl[P]) Reorder(ctx context.Context, userID, parentID uuid.UUID, orderedIDs []uuid.UUID) ([]*domain.TreeNode[P], error) {
	var nodes []*domain.TreeNode[P]
	err := s.run(ctx, "reorder", func(ctx context.Context, t *Tree[P]) (err error) {
		nodes, err = t.Reorder(ctx, userID, parentID, orderedIDs)
		return err
	})
	return nodes, err
}

func (s *serviceImpl[P]) Sort(ctx context.Context, userID, parentID uuid.UUID, key SortKey) ([]*domain.TreeNode[P], error) {
	var nodes []*domain.TreeNode[P]
	err := s.run(ctx, "sort", func(ctx context.Context, t *Tree[P]) (err error) {
		nodes, err = t.Sort(ctx, userID, parentID, key)
		return err
	})
	return nodes, err
}
