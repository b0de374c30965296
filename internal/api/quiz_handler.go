package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/service/quiz"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// QuizHandler serves questions, answers and study sessions.
type QuizHandler struct {
	service quiz.Service
	now     func() time.Time
	logger  *slog.Logger
}

// NewQuizHandler creates a QuizHandler. now may be nil to use time.Now.
func NewQuizHandler(service quiz.Service, now func() time.Time, logger *slog.Logger) *QuizHandler {
	if service == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("service and logger cannot be nil for QuizHandler")
	}
	if now == nil {
		now = time.Now
	}
	return &QuizHandler{
		service: service,
		now:     now,
		logger:  logger.With(slog.String("component", "quiz_handler")),
	}
}

// Routes registers the quiz endpoints on r.
func (h *QuizHandler) Routes(r chi.Router) {
	r.Get("/questions/next", h.NextQuestion)
	r.Get("/questions/{questionID}", h.GetQuestion)
	r.Post("/questions/{questionID}/answer", h.SubmitAnswer)
	r.Put("/questions/{questionID}/tags", h.SetTags)
	r.Post("/sessions", h.StartSession)
	r.Post("/sessions/{id}/finish", h.FinishSession)
}

// NextQuestion handles GET /questions/next?mode=...&notebook_id=...&question_id=...
func (h *QuizHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	query := r.URL.Query()
	notebookID, err := parseOptionalUUID("notebook_id", query.Get("notebook_id"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.serve(w, r, userID, quiz.Request{
		Mode:       query.Get("mode"),
		QuestionID: strings.TrimSpace(query.Get("question_id")),
		NotebookID: notebookID,
	})
}

// GetQuestion handles GET /questions/{questionID}.
func (h *QuizHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	h.serve(w, r, userID, quiz.Request{
		Mode:       quiz.ModeDirect,
		QuestionID: chi.URLParam(r, "questionID"),
	})
}

func (h *QuizHandler) serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID, req quiz.Request) {
	served, err := h.service.GetQuestion(r.Context(), userID, req, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get question")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, servedToResponse(served))
}

// SubmitAnswer handles POST /questions/{questionID}/answer.
func (h *QuizHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	questionID := chi.URLParam(r, "questionID")
	result, err := h.service.SubmitAnswer(r.Context(), userID, questionID, quiz.Answer{
		Choice:     req.Choice,
		SessionID:  req.SessionID,
		DurationMs: req.DurationMs,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit answer")
		return
	}

	log.Debug("answer submitted",
		slog.String("question_id", questionID),
		slog.Bool("is_correct", result.IsCorrect))
	shared.RespondWithData(w, r, http.StatusOK, result)
}

// SetTags handles PUT /questions/{questionID}/tags.
func (h *QuizHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	if _, ok := requireUser(w, r, log); !ok {
		return
	}

	var req SetTagsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.service.SetQuestionTags(r.Context(), chi.URLParam(r, "questionID"), req.Tags)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update tags")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, questionToResponse(*q))
}

// StartSession handles POST /sessions.
func (h *QuizHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	var req StartSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.service.StartSession(r.Context(), userID, req.Mode)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}
	shared.RespondWithData(w, r, http.StatusCreated, session)
}

// FinishSession handles POST /sessions/{id}/finish.
func (h *QuizHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.service.FinishSession(r.Context(), userID, sessionID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to finish session")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, session)
}
