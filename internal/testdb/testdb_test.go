package testdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteIsMigrated(t *testing.T) {
	t.Parallel()
	db := SQLite(t)

	var n int
	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM questions").Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithDatabase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "replaces database",
			url:  "postgres://soright:pw@localhost:55432/soright?sslmode=disable",
			want: "postgres://soright:pw@localhost:55432/test_1?sslmode=disable",
		},
		{
			name: "adds database",
			url:  "postgresql://localhost:5432",
			want: "postgresql://localhost:5432/test_1",
		},
		{
			name:    "rejects other schemes",
			url:     "mysql://localhost/db",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WithDatabase(tc.url, "test_1")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
