package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/go-chi/chi/v5"
)

// NotebookHandler serves question membership of notebooks.
type NotebookHandler struct {
	service notebook.Service
	logger  *slog.Logger
}

// NewNotebookHandler creates a NotebookHandler.
func NewNotebookHandler(service notebook.Service, logger *slog.Logger) *NotebookHandler {
	if service == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("service and logger cannot be nil for NotebookHandler")
	}
	return &NotebookHandler{
		service: service,
		logger:  logger.With(slog.String("component", "notebook_handler")),
	}
}

// Routes registers the membership endpoints on the notebooks router.
func (h *NotebookHandler) Routes(r chi.Router) {
	r.Get("/inbox", h.Inbox)
	r.Get("/{id}/questions", h.Collect)
	r.Post("/{id}/questions", h.AddQuestion)
	r.Delete("/{id}/questions/{questionID}", h.RemoveQuestion)
}

// Inbox handles GET /inbox.
func (h *NotebookHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	inbox, err := h.service.Inbox(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load inbox")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(inbox))
}

// Collect handles GET /{id}/questions, listing every question filed in the
// subtree with its inherited tags.
func (h *NotebookHandler) Collect(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	entries, err := h.service.Collect(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list notebook questions")
		return
	}
	if entries == nil {
		entries = []notebook.Entry{}
	}
	shared.RespondWithData(w, r, http.StatusOK, entries)
}

// AddQuestion handles POST /{id}/questions.
func (h *NotebookHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req AddQuestionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	node, err := h.service.AddQuestion(r.Context(), userID, id, strings.TrimSpace(req.QuestionID))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add question")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(node))
}

// RemoveQuestion handles DELETE /{id}/questions/{questionID}.
func (h *NotebookHandler) RemoveQuestion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, id, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	questionID := chi.URLParam(r, "questionID")
	if questionID == "" {
		HandleAPIError(w, r, domain.NewValidationError("questionID", "is required", nil), "")
		return
	}

	node, err := h.service.RemoveQuestion(r.Context(), userID, id, questionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove question")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, nodeToResponse(node))
}
