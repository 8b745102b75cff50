// Package comments validates and records comments attached to videos, tweets
// or other comments.
package comments

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
)

// Target is the document a comment is attached to. Construct it with one of
// VideoTarget, TweetTarget, CommentTarget or ParseTarget.
type Target struct {
	kind models.TargetKind
	id   string
}

func VideoTarget(id string) Target   { return Target{kind: models.TargetVideo, id: id} }
func TweetTarget(id string) Target   { return Target{kind: models.TargetTweet, id: id} }
func CommentTarget(id string) Target { return Target{kind: models.TargetComment, id: id} }

// Kind returns the target's kind.
func (t Target) Kind() models.TargetKind { return t.kind }

// ID returns the target's identifier.
func (t Target) ID() string { return t.id }

// ParseTarget validates a raw kind and identifier pair.
func ParseTarget(kind, id string) (Target, error) {
	kind = strings.TrimSpace(kind)
	id = strings.TrimSpace(id)
	if kind == "" || id == "" {
		return Target{}, apperrors.InvalidArgument("reference of the model and the model id are required")
	}
	if !models.ValidID(id) {
		return Target{}, apperrors.InvalidArgument("invalid model id")
	}

	switch models.TargetKind(kind) {
	case models.TargetVideo:
		return VideoTarget(id), nil
	case models.TargetTweet:
		return TweetTarget(id), nil
	case models.TargetComment:
		return CommentTarget(id), nil
	default:
		return Target{}, apperrors.InvalidArgument("invalid target model " + kind)
	}
}

// ParseContent extracts comment text from a raw JSON value. Only strings
// that are non-empty after trimming are accepted.
func ParseContent(raw json.RawMessage) (string, error) {
	var content string
	if len(raw) == 0 || json.Unmarshal(raw, &content) != nil {
		return "", apperrors.InvalidArgument("comment content must be a string")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.InvalidArgument("comment content is missing")
	}
	return content, nil
}

// Store persists comments.
type Store interface {
	Create(ctx context.Context, comment models.Comment) error
}

// Service creates comments.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Create records a comment by ownerID on target. The target is not checked
// for existence.
func (s *Service) Create(ctx context.Context, ownerID string, target Target, content json.RawMessage) (models.Comment, error) {
	if ownerID == "" {
		return models.Comment{}, apperrors.Unauthorized("authentication required")
	}
	if target.kind == "" {
		return models.Comment{}, apperrors.InvalidArgument("reference of the model and the model id are required")
	}

	text, err := ParseContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	now := s.now()
	comment := models.Comment{
		ID:         models.NewID(),
		Content:    text,
		OwnerID:    ownerID,
		TargetKind: target.kind,
		TargetID:   target.id,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Create(ctx, comment); err != nil {
		return models.Comment{}, apperrors.Internal("could not create the comment", err)
	}

	logging.FromContext(ctx).Info("comment created",
		slog.String("comment_id", comment.ID),
		slog.String("target_model", string(comment.TargetKind)),
	)
	return comment, nil
}
