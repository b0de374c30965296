package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"golang.org/x/time/rate"
)

// limiterIdle is how long an unused limiter is kept.
const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a token bucket per authenticated user, or per client
// address for anonymous requests.
type RateLimiter struct {
	mu      sync.Mutex
	limits  map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	now     func() time.Time
	lastGC  time.Time
	retryIn time.Duration
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	retry := time.Second
	if rps > 0 {
		retry = time.Duration(float64(time.Second) / rps)
	}
	return &RateLimiter{
		limits:  make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		retryIn: retry,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastGC) > limiterIdle {
		for k, e := range rl.limits {
			if now.Sub(e.lastSeen) > limiterIdle {
				delete(rl.limits, k)
			}
		}
		rl.lastGC = now
	}

	e, ok := rl.limits[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limits[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Allow reports whether a request for key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.rps <= 0 {
		return true
	}
	return rl.getLimiter(key).AllowN(rl.now(), 1)
}

// Handler rejects requests over budget with 429. Mount it after
// authentication so requests are keyed by user.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rateKey(r)) {
			secs := int(rl.retryIn.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, "Too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rateKey(r *http.Request) string {
	if userID, ok := shared.UserIDFromContext(r.Context()); ok {
		return "user:" + userID.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
