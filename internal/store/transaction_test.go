package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInTransaction(t *testing.T) {
	t.Parallel()

	errWork := errors.New("work failed")
	errDriver := errors.New("driver failed")

	tests := []struct {
		name   string
		expect func(m sqlmock.Sqlmock)
		fn     TxFn
		check  func(t *testing.T, err error)
	}{
		{
			name: "commits on success",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectExec("UPDATE question_progress").WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectCommit()
			},
			fn: func(ctx context.Context, tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, "UPDATE question_progress SET stage = 0")
				return err
			},
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name: "rolls back and returns the work error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback()
			},
			fn: func(context.Context, *sql.Tx) error { return errWork },
			check: func(t *testing.T, err error) {
				assert.Equal(t, errWork, err)
			},
		},
		{
			name: "begin failure",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin().WillReturnError(errDriver)
			},
			fn: func(context.Context, *sql.Tx) error { return errWork },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errDriver)
				assert.NotErrorIs(t, err, errWork)
				assert.Contains(t, err.Error(), "failed to begin transaction")
			},
		},
		{
			name: "commit failure",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectCommit().WillReturnError(errDriver)
			},
			fn: func(context.Context, *sql.Tx) error { return nil },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errDriver)
				assert.Contains(t, err.Error(), "failed to commit transaction")
			},
		},
		{
			name: "rollback failure keeps the work error",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectRollback().WillReturnError(errDriver)
			},
			fn: func(context.Context, *sql.Tx) error { return errWork },
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errWork)
				assert.Contains(t, err.Error(), "driver failed")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tc.expect(mock)
			tc.check(t, RunInTransaction(context.Background(), db, tc.fn))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRunInTransactionRollsBackOnPanic(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = RunInTransaction(context.Background(), db, func(context.Context, *sql.Tx) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
