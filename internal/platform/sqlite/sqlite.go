// Package sqlite connects the SQL store to an embedded SQLite file through
// the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Chesten223/SoRight3/internal/store"
	msqlite "modernc.org/sqlite"
)

// DriverName is the configured database driver served by this package.
const DriverName = "sqlite"

// Extended SQLite result codes for constraint failures.
const (
	constraintCode           = 19
	constraintCheckCode      = 275
	constraintForeignKeyCode = 787
	constraintNotNullCode    = 1299
	constraintPrimaryKeyCode = 1555
	constraintUniqueCode     = 2067
)

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
}

// Open opens (creating if needed) the database file at path. The pool is
// limited to one connection so pragmas hold for every statement and writes
// are serialized.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	path = strings.TrimPrefix(path, "file:")
	if path == "" {
		return nil, errors.New("sqlite: database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}
	return db, nil
}

// MapError maps SQLite constraint failures to store errors.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case constraintUniqueCode, constraintPrimaryKeyCode:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case constraintForeignKeyCode:
			return fmt.Errorf("%w: foreign key violation: %v", store.ErrInvalidEntity, err)
		case constraintCheckCode:
			return fmt.Errorf("%w: check constraint violation: %v", store.ErrInvalidEntity, err)
		case constraintNotNullCode:
			return fmt.Errorf("%w: not null violation: %v", store.ErrInvalidEntity, err)
		case constraintCode:
			return fmt.Errorf("%w: constraint violation: %v", store.ErrInvalidEntity, err)
		}
	}

	return err
}

// Dialect keeps '?' placeholders and maps SQLite errors.
type Dialect struct{}

// Name returns DriverName.
func (Dialect) Name() string { return DriverName }

// Rebind returns query unchanged.
func (Dialect) Rebind(query string) string { return query }

// MapError implements the sqlstore dialect contract.
func (Dialect) MapError(err error) error { return MapError(err) }

// ForUpdate implements sqlstore.Dialect. The single connection already
// serialises transactions.
func (Dialect) ForUpdate() string { return "" }
