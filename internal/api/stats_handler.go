package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/service/review"
	"github.com/Chesten223/SoRight3/internal/service/stats"
	"github.com/go-chi/chi/v5"
)

// StatsHandler serves the due list and progress rollups.
type StatsHandler struct {
	reviews review.Service
	stats   stats.Service
	now     func() time.Time
	logger  *slog.Logger
}

// NewStatsHandler creates a StatsHandler. now may be nil to use time.Now.
func NewStatsHandler(reviews review.Service, stats stats.Service, now func() time.Time, logger *slog.Logger) *StatsHandler {
	if reviews == nil || stats == nil || logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("services and logger cannot be nil for StatsHandler")
	}
	if now == nil {
		now = time.Now
	}
	return &StatsHandler{
		reviews: reviews,
		stats:   stats,
		now:     now,
		logger:  logger.With(slog.String("component", "stats_handler")),
	}
}

// Routes registers the endpoints on r.
func (h *StatsHandler) Routes(r chi.Router) {
	r.Get("/reviews/due", h.DueReviews)
	r.Get("/stats/dashboard", h.Dashboard)
	r.Get("/stats/notebooks/{id}", h.Aggregate)
}

// DueReviews handles GET /reviews/due.
func (h *StatsHandler) DueReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	ids, err := h.reviews.DueReviews(r.Context(), userID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due reviews")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	shared.RespondWithData(w, r, http.StatusOK, DueReviewsResponse{QuestionIDs: ids, Count: len(ids)})
}

// Dashboard handles GET /stats/dashboard.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUser(w, r, log)
	if !ok {
		return
	}

	dash, err := h.stats.Dashboard(r.Context(), userID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load dashboard")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, dash)
}

// Aggregate handles GET /stats/notebooks/{id}.
func (h *StatsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, nodeID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	summary, err := h.stats.Aggregate(r.Context(), userID, nodeID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to aggregate notebook")
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, summary)
}
