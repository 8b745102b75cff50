package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/comments"
)

// CommentHandler serves comment creation.
type CommentHandler struct {
	Comments CommentService
}

type commentRequest struct {
	Content json.RawMessage `json:"content"`
}

// Create handles POST /api/v1/comments?modelId=&targetModel=.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	query := r.URL.Query()
	target, err := comments.ParseTarget(query.Get("targetModel"), query.Get("modelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(ctx, w, apperrors.InvalidArgument("invalid request body"))
		return
	}

	comment, err := h.Comments.Create(ctx, subject.ID, target, req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, comment, "Comment created")
}
