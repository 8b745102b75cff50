package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidhub/backend/internal/logging"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	if rw.status == 0 {
		rw.status = status
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// RequestLogger decorates requests with structured logging metadata and
// converts panics into error responses via recovered. A well-formed incoming
// X-Request-Id is kept so ids line up across proxies.
func RequestLogger(base *slog.Logger, recovered ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get("X-Request-Id")
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}

			reqLogger := base.With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)

			ctx := logging.WithLogger(r.Context(), reqLogger)
			ctx = logging.WithRequestID(ctx, requestID)
			w.Header().Set("X-Request-Id", requestID)

			wrapped := &responseWriter{ResponseWriter: w}
			req := r.WithContext(ctx)

			defer func() {
				if rec := recover(); rec != nil {
					reqLogger.Error("panic recovered", "panic", rec)
					if wrapped.status == 0 {
						recovered(wrapped, req, fmt.Errorf("panic: %v", rec))
					}
				}

				level := slog.LevelInfo
				switch status := wrapped.Status(); {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				}
				reqLogger.Log(ctx, level, "request completed",
					slog.Int("status", wrapped.Status()),
					slog.Duration("duration", time.Since(start)),
					slog.Int64("request_bytes", r.ContentLength),
				)
			}()

			next.ServeHTTP(wrapped, req)
		})
	}
}
