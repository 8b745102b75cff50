package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one step of a request, such as assembling a view.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The returned context carries a
// logger annotated with the span and, when known, the request id.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	spanID := uuid.NewString()
	attrs := []any{slog.String("span", name), slog.String("span_id", spanID)}
	if parent := spanIDFromContext(ctx); parent != "" {
		attrs = append(attrs, slog.String("parent_span_id", parent))
	} else if requestID := RequestIDFromContext(ctx); requestID != "" {
		attrs = append(attrs, slog.String("trace_id", requestID))
	}
	logger = logger.With(attrs...)

	ctx = WithLogger(ctx, logger)
	ctx = context.WithValue(ctx, spanIDKey, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End records the span duration at debug level.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}
