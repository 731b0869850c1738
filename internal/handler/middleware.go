package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"linkshort/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// Middleware wraps next with, outermost first: request id, access log, panic
// recovery and CORS.
func Middleware(next http.Handler, l *slog.Logger, allowedOrigins []string) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger.StdLogger(l, slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)

	h := recovery(cors(next))
	h = handlers.CustomLoggingHandler(io.Discard, h, accessLog(l))
	return requestID(h)
}

// requestID propagates X-Request-ID, minting a UUID when the caller sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func accessLog(l *slog.Logger) handlers.LogFormatter {
	l = l.With("component", "access")
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		l.InfoContext(p.Request.Context(), "request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"duration", time.Since(p.TimeStamp),
		)
	}
}
