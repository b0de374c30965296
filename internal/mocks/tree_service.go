package mocks

import (
	"context"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/service/tree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// TreeService mocks tree.Service for any payload type.
type TreeService[P any] struct {
	mock.Mock
}

var (
	_ tree.Service[domain.NotePayload]     = (*TreeService[domain.NotePayload])(nil)
	_ tree.Service[domain.NotebookPayload] = (*TreeService[domain.NotebookPayload])(nil)
)

func (m *TreeService[P]) node(args mock.Arguments) (*domain.TreeNode[P], error) {
	n, _ := args.Get(0).(*domain.TreeNode[P])
	return n, args.Error(1)
}

func (m *TreeService[P]) nodes(args mock.Arguments) ([]*domain.TreeNode[P], error) {
	ns, _ := args.Get(0).([]*domain.TreeNode[P])
	return ns, args.Error(1)
}

func (m *TreeService[P]) Root(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[P], error) {
	return m.node(m.Called(ctx, userID))
}

func (m *TreeService[P]) Get(ctx context.Context, userID, id uuid.UUID) (*domain.TreeNode[P], error) {
	return m.node(m.Called(ctx, userID, id))
}

func (m *TreeService[P]) Children(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	return m.nodes(m.Called(ctx, userID, id))
}

func (m *TreeService[P]) Breadcrumbs(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	return m.nodes(m.Called(ctx, userID, id))
}

func (m *TreeService[P]) Subtree(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	return m.nodes(m.Called(ctx, userID, id))
}

func (m *TreeService[P]) Create(ctx context.Context, userID uuid.UUID, name string, parentID *uuid.UUID, payload P) (*domain.TreeNode[P], error) {
	return m.node(m.Called(ctx, userID, name, parentID, payload))
}

func (m *TreeService[P]) Move(ctx context.Context, userID, id, newParentID uuid.UUID) (*domain.TreeNode[P], error) {
	return m.node(m.Called(ctx, userID, id, newParentID))
}

func (m *TreeService[P]) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.TreeNode[P], error) {
	return m.node(m.Called(ctx, userID, id, name))
}

func (m *TreeService[P]) SetPayload(ctx context.Context, userID, id uuid.UUID, payload P) (*domain.TreeNode[P], error) {
	return m.node(m.Called(ctx, userID, id, payload))
}

func (m *TreeService[P]) Delete(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, id)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

func (m *TreeService[P]) Reorder(ctx context.Context, userID, parentID uuid.UUID, orderedIDs []uuid.UUID) ([]*domain.TreeNode[P], error) {
	return m.nodes(m.Called(ctx, userID, parentID, orderedIDs))
}

func (m *TreeService[P]) Sort(ctx context.Context, userID, parentID uuid.UUID, key tree.SortKey) ([]*domain.TreeNode[P], error) {
	return m.nodes(m.Called(ctx, userID, parentID, key))
}
