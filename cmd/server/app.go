package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Chesten223/SoRight3/internal/config"
	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/domain/srs"
	"github.com/Chesten223/SoRight3/internal/service/auth"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/Chesten223/SoRight3/internal/service/quiz"
	"github.com/Chesten223/SoRight3/internal/service/review"
	"github.com/Chesten223/SoRight3/internal/service/stats"
	"github.com/Chesten223/SoRight3/internal/service/tree"
)

// application holds the shared dependencies of the server so they can be
// wired once and released together on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	backend *backend
	now     func() time.Time

	tokens    auth.TokenService
	notes     tree.Service[domain.NotePayload]
	notebooks tree.Service[domain.NotebookPayload]
	notebook  notebook.Service
	reviews   review.Service
	quiz      quiz.Service
	stats     stats.Service
}

// newApplication builds every service on top of backend.
func newApplication(cfg *config.Config, logger *slog.Logger, backend *backend) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		backend: backend,
		now:     time.Now,
	}

	var err error
	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("token service initialized", slog.Duration("token_lifetime", cfg.Auth.TokenLifetime))

	schedule, err := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		IntervalDays:     cfg.Review.IntervalDays,
		CorrectGain:      cfg.Review.CorrectGain,
		IncorrectPenalty: cfg.Review.IncorrectPenalty,
		RetryDelay:       cfg.Review.RetryDelay,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create review schedule: %w", err)
	}
	scheduler := review.Scheduler{FallbackProficiency: cfg.Review.FallbackProficiency}

	tx := backend.tx
	if app.notes, err = tree.NewService(tx, tree.Notes, logger); err != nil {
		return nil, fmt.Errorf("failed to create notes service: %w", err)
	}
	if app.notebooks, err = tree.NewService(tx, tree.Notebooks, logger); err != nil {
		return nil, fmt.Errorf("failed to create notebooks service: %w", err)
	}
	if app.notebook, err = notebook.NewService(tx, app.now, logger); err != nil {
		return nil, fmt.Errorf("failed to create notebook service: %w", err)
	}
	if app.reviews, err = review.NewService(tx, scheduler, logger); err != nil {
		return nil, fmt.Errorf("failed to create review service: %w", err)
	}
	if app.quiz, err = quiz.NewService(tx, schedule, logger,
		quiz.WithScheduler(scheduler),
		quiz.WithVariantThreshold(cfg.Review.VariantAttemptThreshold),
	); err != nil {
		return nil, fmt.Errorf("failed to create quiz service: %w", err)
	}
	if app.stats, err = stats.NewService(tx, cfg.Review.TopTags, logger); err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// cleanup releases the backend connections.
func (app *application) cleanup() {
	app.backend.Close(app.logger)
	app.logger.Info("application shutdown completed")
}
