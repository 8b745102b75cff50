package repositories

import (
	"context"

	"github.com/vidhub/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateDetails(ctx context.Context, video models.Video) (models.Video, error)
	SetVisibility(ctx context.Context, id string, public bool) (models.Video, error)
	Delete(ctx context.Context, id string) error
}

// CommentRepository persists comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
}

// SubscriptionRepository manages subscriber to channel edges.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}
