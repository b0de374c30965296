package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "fk"}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "name"}, store.ErrInvalidEntity},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: uniqueViolationCode}), store.ErrDuplicate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tc.err), tc.target)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapError(nil))
	})

	t.Run("unmapped error passes through", func(t *testing.T) {
		original := errors.New("connection reset")
		assert.Same(t, original, MapError(original))
	})

	t.Run("unmapped code passes through", func(t *testing.T) {
		original := &pgconn.PgError{Code: "40001"}
		assert.Equal(t, error(original), MapError(original))
	})
}

func TestMapErrorNamesConstraint(t *testing.T) {
	t.Parallel()

	err := MapError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "nodes_parent_fk"})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.Contains(t, err.Error(), "foreign key violation (nodes_parent_fk)")

	err = MapError(&pgconn.PgError{Code: notNullViolationCode, ColumnName: "name"})
	assert.Contains(t, err.Error(), "not null violation (name)")
}

func TestDialectRebind(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	assert.Equal(t, "postgres", d.Name())
	assert.Equal(t,
		"SELECT a FROM t WHERE x = $1 AND y IN ($2, $3)",
		d.Rebind("SELECT a FROM t WHERE x = ? AND y IN (?, ?)"))
	assert.Equal(t, "SELECT 1", d.Rebind("SELECT 1"))
	assert.Equal(t, " FOR UPDATE", d.ForUpdate())
}
