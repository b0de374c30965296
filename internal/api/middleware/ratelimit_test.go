package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerUser(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := rl.Handler(ok)

	call := func(userID uuid.UUID) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/reviews/due", nil)
		r = r.WithContext(shared.WithUserID(r.Context(), userID))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	alice, bob := uuid.New(), uuid.New()
	assert.Equal(t, http.StatusOK, call(alice).Code)
	assert.Equal(t, http.StatusOK, call(alice).Code)

	limited := call(alice)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, call(bob).Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, call(alice).Code)
}

func TestRateLimiterKeys(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "addr:10.0.0.7", rateKey(r))

	userID := uuid.New()
	r = r.WithContext(shared.WithUserID(r.Context(), userID))
	assert.Equal(t, "user:"+userID.String(), rateKey(r))
}

func TestRateLimiterDisabled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("user:x"))
	}
}

func TestRateLimiterEvictsIdle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, 5)
	rl.now = func() time.Time { return now }

	rl.Allow("user:a")
	now = now.Add(2 * limiterIdle)
	rl.Allow("user:b")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limits, "user:a")
	assert.Contains(t, rl.limits, "user:b")
}
