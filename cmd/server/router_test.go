package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Chesten223/SoRight3/internal/config"
	"github.com/Chesten223/SoRight3/internal/importer"
	"github.com/Chesten223/SoRight3/internal/platform/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `mode: practice
questions:
  - id: kin-1
    content: A ball is dropped from rest. Its speed after 2 s is closest to
    options:
      - {id: A, text: 9.8 m/s}
      - {id: B, text: 19.6 m/s}
    correct_option_id: B
    tags: [kinematics]
    explanation: v = g t
`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:               8080,
			LogLevel:           "error",
			CORSAllowedOrigins: []string{"https://study.example.com"},
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:     "a-test-secret-that-is-at-least-32-characters",
			TokenLifetime: time.Hour,
		},
		Review: config.ReviewConfig{
			IntervalDays:            []int{0, 1, 3, 7, 15, 30},
			CorrectGain:             15,
			IncorrectPenalty:        10,
			RetryDelay:              12 * time.Hour,
			FallbackProficiency:     80,
			VariantAttemptThreshold: 3,
			TopTags:                 8,
		},
	}
}

type testServer struct {
	*httptest.Server
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := memory.New(logger)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))
	_, err := importer.New(mem, logger).ImportCatalog(context.Background(), []string{path}, "")
	require.NoError(t, err)

	backend := &backend{
		tx: mem,
		checks: map[string]func(context.Context) error{
			"database": func(context.Context) error { return nil },
		},
	}
	app, err := newApplication(testConfig(), logger, backend)
	require.NoError(t, err)

	token, err := app.tokens.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, token: token}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type nodeBody struct {
	ID       uuid.UUID      `json:"id"`
	ParentID *uuid.UUID     `json:"parent_id"`
	Name     string         `json:"name"`
	ChildIDs []uuid.UUID    `json:"child_ids"`
	Payload  map[string]any `json:"payload"`
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestAPIRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	srv.token = ""

	status, env := srv.do(t, http.MethodGet, "/api/notes/root", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization header required", env.Error)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name        string
		origin      string
		reqHeaders  string
		allowOrigin string
	}{
		{"browser preflight", "https://study.example.com", "authorization", "https://study.example.com"},
		{"non-canonical header name", "https://study.example.com", "Authorization", ""},
		{"unknown origin", "https://evil.example.com", "authorization", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/notes/root", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", tc.reqHeaders)

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tc.allowOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestNotesTreeOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, http.MethodGet, "/api/notes/root", nil)
	require.Equal(t, http.StatusOK, status)
	root := decode[nodeBody](t, env)

	status, env = srv.do(t, http.MethodPost, "/api/notes", map[string]any{
		"name":    "Physics",
		"payload": map[string]any{"kind": "folder"},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	physics := decode[nodeBody](t, env)
	require.NotNil(t, physics.ParentID)
	assert.Equal(t, root.ID, *physics.ParentID)

	status, env = srv.do(t, http.MethodPost, "/api/notes", map[string]any{
		"name":      "Waves",
		"parent_id": physics.ID,
		"payload":   map[string]any{"kind": "folder"},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	waves := decode[nodeBody](t, env)

	status, env = srv.do(t, http.MethodGet, "/api/notes/"+waves.ID.String()+"/breadcrumbs", nil)
	require.Equal(t, http.StatusOK, status)
	crumbs := decode[[]nodeBody](t, env)
	require.Len(t, crumbs, 3)
	assert.Equal(t, "Waves", crumbs[2].Name)

	status, env = srv.do(t, http.MethodPost, "/api/notes/"+physics.ID.String()+"/move",
		map[string]any{"parent_id": waves.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)

	status, _ = srv.do(t, http.MethodDelete, "/api/notes/"+root.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = srv.do(t, http.MethodDelete, "/api/notes/"+physics.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	deleted := decode[struct {
		Deleted []uuid.UUID `json:"deleted"`
	}](t, env)
	assert.ElementsMatch(t, []uuid.UUID{physics.ID, waves.ID}, deleted.Deleted)
}

func TestWrongAnswerLandsInInbox(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, http.MethodGet, "/api/questions/next?mode=practice", nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.NotContains(t, string(env.Data), "correct_option_id")

	status, env = srv.do(t, http.MethodPost, "/api/questions/kin-1/answer", map[string]any{"choice": "A"})
	require.Equal(t, http.StatusOK, status, env.Error)
	result := decode[struct {
		IsCorrect     bool   `json:"is_correct"`
		CorrectChoice string `json:"correct_choice"`
		Progress      struct {
			Errors int `json:"errors"`
			Stage  int `json:"stage"`
		} `json:"progress"`
	}](t, env)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, "B", result.CorrectChoice)
	assert.Equal(t, 1, result.Progress.Errors)
	assert.Equal(t, 0, result.Progress.Stage)

	status, env = srv.do(t, http.MethodGet, "/api/notebooks/inbox", nil)
	require.Equal(t, http.StatusOK, status)
	inbox := decode[nodeBody](t, env)
	assert.Equal(t, "Inbox", inbox.Name)
	assert.Equal(t, []any{"kin-1"}, inbox.Payload["question_ids"])

	status, env = srv.do(t, http.MethodGet, "/api/stats/notebooks/"+inbox.ID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	summary := decode[struct {
		Total  int `json:"total"`
		Errors int `json:"errors"`
	}](t, env)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Errors)

	status, env = srv.do(t, http.MethodGet, "/api/questions/next?mode=exam", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No eligible question", env.Error)
}
