package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vidhub/backend/internal/logging"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	Database Pinger
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{"status": "ok"}
	if h.Database != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		if err := h.Database.Ping(pingCtx); err != nil {
			logging.FromContext(ctx).Error("database health check failed", slog.Any("error", err))
			status["status"] = "degraded"
			status["database"] = "unreachable"
			respond(ctx, w, http.StatusServiceUnavailable, status, "database unreachable")
			return
		}
		status["database"] = "ok"
	}

	respond(ctx, w, http.StatusOK, status, "healthy")
}
