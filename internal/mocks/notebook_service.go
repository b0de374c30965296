package mocks

import (
	"context"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// NotebookService mocks notebook.Service.
type NotebookService struct {
	mock.Mock
}

var _ notebook.Service = (*NotebookService)(nil)

type notebookNode = domain.TreeNode[domain.NotebookPayload]

func (m *NotebookService) node(args mock.Arguments) (*notebookNode, error) {
	n, _ := args.Get(0).(*notebookNode)
	return n, args.Error(1)
}

func (m *NotebookService) Inbox(ctx context.Context, userID uuid.UUID) (*notebookNode, error) {
	return m.node(m.Called(ctx, userID))
}

func (m *NotebookService) AddToInbox(ctx context.Context, userID uuid.UUID, questionID string) (*notebookNode, error) {
	return m.node(m.Called(ctx, userID, questionID))
}

func (m *NotebookService) AddQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*notebookNode, error) {
	return m.node(m.Called(ctx, userID, notebookID, questionID))
}

func (m *NotebookService) RemoveQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*notebookNode, error) {
	return m.node(m.Called(ctx, userID, notebookID, questionID))
}

func (m *NotebookService) Collect(ctx context.Context, userID, nodeID uuid.UUID) ([]notebook.Entry, error) {
	args := m.Called(ctx, userID, nodeID)
	entries, _ := args.Get(0).([]notebook.Entry)
	return entries, args.Error(1)
}
