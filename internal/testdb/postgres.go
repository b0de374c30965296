package testdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Chesten223/SoRight3/internal/platform/postgres"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	containerUser = "soright"
	containerPass = "soright"
	containerDB   = "soright"
)

var (
	containerOnce sync.Once
	containerURL  string
	containerErr  error
)

// sharedContainerURL starts the postgres container on first use and
// returns its connection string.
func sharedContainerURL(ctx context.Context) (string, error) {
	containerOnce.Do(func() {
		ctr, err := tcpostgres.Run(ctx, postgresImage,
			tcpostgres.WithDatabase(containerDB),
			tcpostgres.WithUsername(containerUser),
			tcpostgres.WithPassword(containerPass),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(90*time.Second),
			),
		)
		if err != nil {
			containerErr = fmt.Errorf("run %s: %w", postgresImage, err)
			return
		}
		containerURL, containerErr = ctr.ConnectionString(ctx, "sslmode=disable")
	})
	return containerURL, containerErr
}

// createDatabase creates a uniquely named database on the server behind
// serverURL, drops it when t ends, and returns its URL.
func createDatabase(ctx context.Context, t *testing.T, serverURL string) (string, error) {
	admin, err := postgres.Open(ctx, serverURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = admin.Close() }()

	name := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+name); err != nil {
		return "", fmt.Errorf("create database %s: %w", name, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		admin, err := postgres.Open(ctx, serverURL)
		if err != nil {
			t.Logf("testdb: reconnect to drop %s: %v", name, err)
			return
		}
		defer func() { _ = admin.Close() }()
		if _, err := admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)"); err != nil {
			t.Logf("testdb: drop %s: %v", name, err)
		}
	})

	return WithDatabase(serverURL, name)
}

// WithDatabase returns serverURL pointing at database name.
func WithDatabase(serverURL, name string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("database URL must use the postgres scheme, got %q", u.Scheme)
	}
	u.Path = "/" + name
	return u.String(), nil
}
