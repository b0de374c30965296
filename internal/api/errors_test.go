package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/service"
	"github.com/Chesten223/SoRight3/internal/service/auth"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"nil", nil, http.StatusInternalServerError, "An unexpected error occurred"},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized, "Invalid token"},
		{"forbidden", fmt.Errorf("move: %w", domain.ErrForbidden), http.StatusForbidden, "You do not have access to this resource"},
		{"node not found", store.ErrNodeNotFound, http.StatusNotFound, "Node not found"},
		{"question not found", fmt.Errorf("get: %w", store.ErrQuestionNotFound), http.StatusNotFound, "Question not found"},
		{"session not found", store.ErrSessionNotFound, http.StatusNotFound, "Study session not found"},
		{"plain not found", domain.ErrNotFound, http.StatusNotFound, "Resource not found"},
		{"empty collection", domain.ErrEmptyCollection, http.StatusNotFound, "No eligible question"},
		{"cycle", domain.ErrCycleViolation, http.StatusConflict, "A node cannot be moved into its own subtree"},
		{"duplicate", store.ErrDuplicate, http.StatusConflict, "Resource already exists"},
		{"validation with field", domain.NewValidationError("name", "cannot be blank", nil), http.StatusBadRequest, "Invalid name: cannot be blank"},
		{"validation without field", domain.NewValidationError("", "ids must list every child", nil), http.StatusBadRequest, "ids must list every child"},
		{"bare validation", domain.ErrValidation, http.StatusBadRequest, "Invalid request"},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest, "Invalid request"},
		{
			"service error hides cause",
			service.NewServiceError("quiz", "SubmitAnswer", errors.New("pq: connection reset by peer")),
			http.StatusInternalServerError,
			"An unexpected error occurred",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantStatus, MapErrorToStatusCode(tc.err))
			assert.Equal(t, tc.wantMsg, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  interface{}
		want string
	}{
		{"required", &RenameNodeRequest{}, "Invalid name: required field"},
		{"too long", &RenameNodeRequest{Name: string(make([]byte, 256))}, "Invalid name: too long"},
		{"negative duration", &SubmitAnswerRequest{Choice: "A", DurationMs: -1}, "Invalid duration_ms: too small"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := shared.ValidateRequest(tc.req)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(err))
			assert.Equal(t, tc.want, GetSafeErrorMessage(err))
		})
	}

	assert.Equal(t, "Validation error", SanitizeValidationError(nil))
}
