package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
)

// envelope is the uniform response body of every endpoint.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	message := apperrors.MessageOf(err)

	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Int("status", status), slog.String("message", message), slog.Any("error", err))
	} else {
		logger.Warn("request returned client error", slog.Int("status", status), slog.String("message", message))
	}

	respond(ctx, w, status, nil, message)
}

// WriteError adapts respondError to the middleware error hook.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(r.Context(), w, err)
}

const maxJSONBody = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return apperrors.InvalidArgument("request body is required")
	}
	return apperrors.InvalidArgument("invalid request body")
}
