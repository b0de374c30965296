// Package postgres connects the SQL store to PostgreSQL through the pgx
// database/sql driver and translates PostgreSQL error codes into store errors.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// registers the "pgx" driver
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DriverName is the configured database driver served by this package.
const DriverName = "postgres"

// Open establishes a connection pool and verifies it with a ping.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Dialect rewrites placeholders to $n and maps pgconn errors.
type Dialect struct{}

// Name returns DriverName.
func (Dialect) Name() string { return DriverName }

// Rebind replaces every '?' with $1, $2, ... in order. Queries in this
// project never contain a literal question mark.
func (Dialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MapError implements the sqlstore dialect contract.
func (Dialect) MapError(err error) error { return MapError(err) }

// ForUpdate implements sqlstore.Dialect.
func (Dialect) ForUpdate() string { return " FOR UPDATE" }
