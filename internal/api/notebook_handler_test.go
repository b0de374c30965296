package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/mocks"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotebookHandler(t *testing.T) (*mocks.NotebookService, *NotebookHandler) {
	t.Helper()
	svc := new(mocks.NotebookService)
	t.Cleanup(func() { svc.AssertExpectations(t) })
	return svc, NewNotebookHandler(svc, discard)
}

func notebookNode(name string, questionIDs ...string) *domain.TreeNode[domain.NotebookPayload] {
	return &domain.TreeNode[domain.NotebookPayload]{
		ID:        uuid.New(),
		Kind:      domain.TreeKindNotebooks,
		Name:      name,
		Payload:   domain.NotebookPayload{Tags: []string{}, QuestionIDs: questionIDs},
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}

func TestNotebookHandlerInbox(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	svc, h := newNotebookHandler(t)

	inbox := notebookNode(notebook.InboxName, "q-3")
	svc.On("Inbox", mock.Anything, userID).Return(inbox, nil)

	w, env := call(t, h.Routes, userID, http.MethodGet, "/inbox", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeData[NodeResponse[domain.NotebookPayload]](t, env)
	assert.Equal(t, inbox.ID, got.ID)
	assert.Equal(t, []string{"q-3"}, got.Payload.QuestionIDs)
}

func TestNotebookHandlerCollect(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	nodeID := uuid.New()

	t.Run("empty subtree", func(t *testing.T) {
		svc, h := newNotebookHandler(t)
		svc.On("Collect", mock.Anything, userID, nodeID).Return(nil, nil)

		w, env := call(t, h.Routes, userID, http.MethodGet, "/"+nodeID.String()+"/questions", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(env.Data))
	})

	t.Run("inherited tags", func(t *testing.T) {
		svc, h := newNotebookHandler(t)
		svc.On("Collect", mock.Anything, userID, nodeID).Return([]notebook.Entry{
			{QuestionID: "q-1", Tags: []string{"kinematics", "mechanics"}, NotebookIDs: []uuid.UUID{nodeID}},
		}, nil)

		w, env := call(t, h.Routes, userID, http.MethodGet, "/"+nodeID.String()+"/questions", "")
		require.Equal(t, http.StatusOK, w.Code)
		got := decodeData[[]notebook.Entry](t, env)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"kinematics", "mechanics"}, got[0].Tags)
	})

	t.Run("unknown notebook", func(t *testing.T) {
		svc, h := newNotebookHandler(t)
		svc.On("Collect", mock.Anything, userID, nodeID).Return(nil, store.ErrNodeNotFound)

		w, env := call(t, h.Routes, userID, http.MethodGet, "/"+nodeID.String()+"/questions", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Node not found", env.Error)
	})
}

func TestNotebookHandlerMembership(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	tests := []struct {
		name       string
		method     string
		path       func(id uuid.UUID) string
		body       string
		setup      func(svc *mocks.NotebookService, node *domain.TreeNode[domain.NotebookPayload])
		wantStatus int
		wantError  string
	}{
		{
			name:   "add trims the id",
			method: http.MethodPost,
			path:   func(id uuid.UUID) string { return "/" + id.String() + "/questions" },
			body:   `{"question_id":"  q-9 "}`,
			setup: func(svc *mocks.NotebookService, node *domain.TreeNode[domain.NotebookPayload]) {
				svc.On("AddQuestion", mock.Anything, userID, node.ID, "q-9").Return(node, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "add without id",
			method:     http.MethodPost,
			path:       func(id uuid.UUID) string { return "/" + id.String() + "/questions" },
			body:       `{}`,
			setup:      func(*mocks.NotebookService, *domain.TreeNode[domain.NotebookPayload]) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid question_id: required field",
		},
		{
			name:   "add unknown question",
			method: http.MethodPost,
			path:   func(id uuid.UUID) string { return "/" + id.String() + "/questions" },
			body:   `{"question_id":"q-404"}`,
			setup: func(svc *mocks.NotebookService, node *domain.TreeNode[domain.NotebookPayload]) {
				svc.On("AddQuestion", mock.Anything, userID, node.ID, "q-404").Return(nil, store.ErrQuestionNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantError:  "Question not found",
		},
		{
			name:   "remove",
			method: http.MethodDelete,
			path:   func(id uuid.UUID) string { return fmt.Sprintf("/%s/questions/q-9", id) },
			setup: func(svc *mocks.NotebookService, node *domain.TreeNode[domain.NotebookPayload]) {
				svc.On("RemoveQuestion", mock.Anything, userID, node.ID, "q-9").Return(node, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, h := newNotebookHandler(t)
			node := notebookNode("Mechanics", "q-9")
			tc.setup(svc, node)

			w, env := call(t, h.Routes, userID, tc.method, tc.path(node.ID), tc.body)
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantError, env.Error)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, node.ID, decodeData[NodeResponse[domain.NotebookPayload]](t, env).ID)
			}
		})
	}
}
