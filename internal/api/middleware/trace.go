package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Chesten223/SoRight3/internal/api/shared"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/google/uuid"
)

// TraceHeader carries the trace id back to the client.
const TraceHeader = "X-Trace-ID"

// NewTraceMiddleware adds a trace ID to the request context and a logger
// tagged with it. Apply it before any middleware that logs.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)
			w.Header().Set(TraceHeader, traceID)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withUserLogger(ctx context.Context, userID uuid.UUID) context.Context {
	log := logger.FromContext(ctx).With(slog.String("user_id", userID.String()))
	return logger.WithLogger(ctx, log)
}
