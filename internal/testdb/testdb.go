package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Chesten223/SoRight3/internal/platform/migrations"
	"github.com/Chesten223/SoRight3/internal/platform/postgres"
	"github.com/Chesten223/SoRight3/internal/platform/sqlite"
	"github.com/Chesten223/SoRight3/internal/platform/sqlstore"
	"github.com/stretchr/testify/require"
)

// EnvDatabaseURL names an existing PostgreSQL server to use instead of a
// container. The user must be allowed to create databases.
const EnvDatabaseURL = "SORIGHT_TEST_DATABASE_URL"

// SetupTimeout bounds opening and migrating one database.
const SetupTimeout = 2 * time.Minute

// Open returns a migrated database for driver ("sqlite" or "postgres") and
// the matching sqlstore dialect. The database is closed when t ends.
func Open(t *testing.T, driver string) (*sql.DB, sqlstore.Dialect) {
	t.Helper()
	switch driver {
	case sqlite.DriverName:
		return SQLite(t), sqlite.Dialect{}
	case postgres.DriverName:
		return Postgres(t), postgres.Dialect{}
	default:
		t.Fatalf("testdb: unsupported driver %q", driver)
		return nil, nil
	}
}

// SQLite returns a migrated database file in t's temp directory.
func SQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), SetupTimeout)
	defer cancel()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "soright.db"))
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = db.Close() })

	migrate(ctx, t, db, sqlite.DriverName)
	return db
}

// Postgres returns a migrated database on the shared server.
func Postgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests are skipped in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), SetupTimeout)
	defer cancel()

	serverURL := os.Getenv(EnvDatabaseURL)
	if serverURL == "" {
		var err error
		serverURL, err = sharedContainerURL(ctx)
		require.NoError(t, err, "start postgres container")
	}

	url, err := createDatabase(ctx, t, serverURL)
	require.NoError(t, err, "create test database")

	db, err := postgres.Open(ctx, url)
	require.NoError(t, err, "open postgres")
	t.Cleanup(func() { _ = db.Close() })

	migrate(ctx, t, db, postgres.DriverName)
	return db
}

func migrate(ctx context.Context, t *testing.T, db *sql.DB, driver string) {
	t.Helper()
	runner, err := migrations.NewRunner(db, driver, Logger())
	require.NoError(t, err, "create migration runner")
	require.NoError(t, runner.Up(ctx), "apply migrations")
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
