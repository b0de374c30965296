package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes of constraint violations.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

type violation struct {
	target error
	kind   string
}

var violations = map[string]violation{
	uniqueViolationCode:     {store.ErrDuplicate, "unique violation"},
	foreignKeyViolationCode: {store.ErrInvalidEntity, "foreign key violation"},
	checkViolationCode:      {store.ErrInvalidEntity, "check constraint violation"},
	notNullViolationCode:    {store.ErrInvalidEntity, "not null violation"},
}

// MapError translates sql.ErrNoRows and constraint violations into store
// errors, keeping err wrapped. Anything else is returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	v, ok := violations[pgErr.Code]
	if !ok {
		return err
	}

	subject := pgErr.ConstraintName
	if subject == "" {
		subject = pgErr.ColumnName
	}
	if subject == "" {
		return fmt.Errorf("%w: %s: %v", v.target, v.kind, err)
	}
	return fmt.Errorf("%w: %s (%s): %v", v.target, v.kind, subject, err)
}
