// Package migrations embeds the SQL schema and applies it with goose. The
// same migration files serve both the postgres and the sqlite backends.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedded embed.FS

// Supported migration commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// ErrUnknownCommand is returned for commands other than the ones above.
var ErrUnknownCommand = errors.New("unknown migration command")

// Dialect maps a configured driver name to the goose dialect.
func Dialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres":
		return goose.DialectPostgres, nil
	case "sqlite":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driver)
	}
}

// Runner applies the embedded migrations to one database.
type Runner struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// NewRunner creates a Runner for db using the dialect of driver.
func NewRunner(db *sql.DB, driver string, logger *slog.Logger) (*Runner, error) {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialect, err := Dialect(driver)
	if err != nil {
		return nil, err
	}

	fsys, err := fs.Sub(embedded, "sql")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Runner{
		provider: provider,
		logger:   logger.With(slog.String("component", "migrations"), slog.String("driver", driver)),
	}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	r.logResults(results)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if len(results) == 0 {
		r.logger.Info("database schema is up to date")
	}
	return nil
}

// Run executes one of the Command* operations.
func (r *Runner) Run(ctx context.Context, command string) error {
	switch command {
	case CommandUp:
		return r.Up(ctx)
	case CommandDown:
		result, err := r.provider.Down(ctx)
		if result != nil {
			r.logResults([]*goose.MigrationResult{result})
		}
		if err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return nil
	case CommandReset:
		results, err := r.provider.DownTo(ctx, 0)
		r.logResults(results)
		if err != nil {
			return fmt.Errorf("failed to reset migrations: %w", err)
		}
		return nil
	case CommandStatus:
		statuses, err := r.provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		for _, s := range statuses {
			r.logger.Info("migration status",
				slog.Int64("version", s.Source.Version),
				slog.String("path", s.Source.Path),
				slog.String("state", string(s.State)),
				slog.Time("applied_at", s.AppliedAt))
		}
		return nil
	case CommandVersion:
		version, err := r.Version(ctx)
		if err != nil {
			return err
		}
		r.logger.Info("current migration version", slog.Int64("version", version))
		return nil
	default:
		return fmt.Errorf("%w: %s (expected up, down, reset, status or version)", ErrUnknownCommand, command)
	}
}

// Version returns the highest applied migration version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	version, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}

func (r *Runner) logResults(results []*goose.MigrationResult) {
	for _, res := range results {
		attrs := []any{
			slog.Int64("version", res.Source.Version),
			slog.String("path", res.Source.Path),
			slog.String("direction", res.Direction),
			slog.Duration("duration", res.Duration),
		}
		if res.Error != nil {
			r.logger.Error("migration failed", append(attrs, slog.String("error", res.Error.Error()))...)
			continue
		}
		r.logger.Info("migration applied", attrs...)
	}
}
