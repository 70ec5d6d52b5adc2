// Package middleware provides HTTP middleware for the operator API.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/undergrid/stagehand/internal/api/shared"
)

// Trace adds a trace ID to the request context. Apply it early in the chain
// so every downstream handler and error response carries the ID.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		slog.Debug("request started",
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
