package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Chesten223/SoRight3/internal/config"
	"github.com/Chesten223/SoRight3/internal/platform/cache"
	"github.com/Chesten223/SoRight3/internal/platform/memory"
	"github.com/Chesten223/SoRight3/internal/platform/migrations"
	"github.com/Chesten223/SoRight3/internal/platform/postgres"
	"github.com/Chesten223/SoRight3/internal/platform/sqlite"
	"github.com/Chesten223/SoRight3/internal/platform/sqlstore"
	"github.com/Chesten223/SoRight3/internal/store"
)

// backend is the persistence selected by the configuration together with
// the health checks and closers of the connections it holds.
type backend struct {
	tx      store.TxManager
	checks  map[string]func(context.Context) error
	closers []func() error
}

// Close releases every connection, logging failures.
func (b *backend) Close(logger *slog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.Error("error closing connection", slog.String("error", err.Error()))
		}
	}
}

// openSQL connects to the configured SQL database.
func openSQL(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, sqlstore.Dialect, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.URL)
		return db, postgres.Dialect{}, err
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		return db, sqlite.Dialect{}, err
	default:
		return nil, nil, fmt.Errorf("driver %q is not a SQL database", cfg.Driver)
	}
}

// openBackend opens the configured store, applying pending migrations to SQL
// databases when migrate is set, and layers the catalog cache on top when a
// cache URL is configured.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) (*backend, error) {
	b := &backend{checks: map[string]func(context.Context) error{}}

	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("using the in-memory store, data is lost on exit")
		b.tx = memory.New(logger)
	} else {
		db, dialect, err := openSQL(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)

		if migrate {
			runner, err := migrations.NewRunner(db, cfg.Database.Driver, logger)
			if err != nil {
				b.Close(logger)
				return nil, err
			}
			if err := runner.Up(ctx); err != nil {
				b.Close(logger)
				return nil, err
			}
		}

		sqlBackend := sqlstore.New(db, dialect, logger)
		b.tx = sqlBackend
		b.checks["database"] = sqlBackend.Ping
		logger.Info("database connection established", slog.String("driver", cfg.Database.Driver))
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			b.Close(logger)
			return nil, fmt.Errorf("failed to connect to cache: %w", err)
		}
		b.closers = append(b.closers, c.Close)
		b.checks["cache"] = c.HealthCheck
		b.tx = cache.NewTxManager(b.tx, c, cfg.Cache.TTL, logger.With(slog.String("component", "catalog_cache")))
		logger.Info("catalog cache enabled", slog.Duration("ttl", cfg.Cache.TTL))
	}

	return b, nil
}
