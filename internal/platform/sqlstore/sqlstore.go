// Package sqlstore implements every persistence port on top of database/sql.
// The SQL is written once with '?' placeholders and portable types; a
// Dialect adapts placeholders and driver errors to the concrete database.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/store"
)

// Dialect captures the differences between the supported SQL databases.
type Dialect interface {
	// Name is the configured driver name, e.g. "postgres".
	Name() string
	// Rebind rewrites '?' placeholders into the database's syntax.
	Rebind(query string) string
	// MapError converts driver errors into store errors.
	MapError(err error) error
	// ForUpdate is the row locking suffix for SELECT, or "" when the
	// database serialises write transactions itself.
	ForUpdate() string
}

// Backend owns the connection pool and hands out port implementations bound
// either to the pool or to a transaction.
type Backend struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ store.TxManager = (*Backend)(nil)

// New creates a Backend. db and dialect are required.
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) *Backend {
	if db == nil {
		panic("db cannot be nil")
	}
	if dialect == nil {
		panic("dialect cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "sqlstore"), slog.String("dialect", dialect.Name())),
	}
}

// Stores returns implementations that run each call on the pool.
func (b *Backend) Stores() *store.Stores {
	return b.storesFor(b.db)
}

// WithinTx implements store.TxManager.
func (b *Backend) WithinTx(ctx context.Context, fn store.UnitFn) error {
	return store.RunInTransaction(ctx, b.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, b.storesFor(tx))
	})
}

// Ping checks connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *Backend) storesFor(q store.DBTX) *store.Stores {
	return &store.Stores{
		Catalog:   NewCatalogStore(q, b.dialect, b.logger),
		Progress:  NewProgressStore(q, b.dialect, b.logger),
		Notes:     NewNodeStore[domain.NotePayload](q, b.dialect, domain.TreeKindNotes, b.logger),
		Notebooks: NewNodeStore[domain.NotebookPayload](q, b.dialect, domain.TreeKindNotebooks, b.logger),
		Sessions:  NewSessionStore(q, b.dialect, b.logger),
	}
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// toMillis stores timestamps as UTC unix milliseconds, which both
// databases handle as BIGINT.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// checkRowsAffected returns notFound when result touched no rows.
func checkRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to checkRowsAffected")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
