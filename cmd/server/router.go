package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Chesten223/SoRight3/internal/api"
	apiMiddleware "github.com/Chesten223/SoRight3/internal/api/middleware"
	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// setupRouter creates the router with its middleware and every route.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	// CORS must answer pre-flight requests before authentication runs.
	r.Use(cors.New(cors.Options{
		AllowedOrigins: app.config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders: []string{apiMiddleware.TraceHeader},
		MaxAge:         300,
	}).Handler)

	r.Get("/health", app.health)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokens)
	limiter := apiMiddleware.NewRateLimiter(app.config.Server.RateLimitRPS, app.config.Server.RateLimitBurst)

	notesHandler := api.NewTreeHandler(app.notes, domain.TreeKindNotes, app.logger)
	notebooksHandler := api.NewTreeHandler(app.notebooks, domain.TreeKindNotebooks, app.logger)
	membershipHandler := api.NewNotebookHandler(app.notebook, app.logger)
	quizHandler := api.NewQuizHandler(app.quiz, app.now, app.logger)
	statsHandler := api.NewStatsHandler(app.reviews, app.stats, app.now, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(limiter.Handler)

		r.Route("/notes", notesHandler.Routes)
		r.Route("/notebooks", func(r chi.Router) {
			membershipHandler.Routes(r)
			notebooksHandler.Routes(r)
		})
		quizHandler.Routes(r)
		statsHandler.Routes(r)
	})

	return r
}

// health reports 503 when any backend connection fails its check.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, check := range app.backend.checks {
		if err := check(ctx); err != nil {
			app.logger.Error("health check failed",
				slog.String("dependency", name),
				slog.String("error", err.Error()))
			status[name] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	shared.RespondWithJSON(w, r, code, status)
}
