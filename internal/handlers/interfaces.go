package handlers

import (
	"context"
	"encoding/json"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/comments"
	"github.com/vidhub/backend/internal/media"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/videos"
	"github.com/vidhub/backend/internal/views"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateFullName(ctx context.Context, id, fullName string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, avatar string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImage string) (models.User, error)
}

// SessionManager issues, rotates and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, subject auth.Subject) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// ViewAssembler builds the read-side composite views.
type ViewAssembler interface {
	ChannelProfile(ctx context.Context, username string, caller views.Caller) (models.ChannelProfile, error)
	VideoDetail(ctx context.Context, videoID string, caller views.Caller) (views.DetailResult, error)
	ListVideos(ctx context.Context, in views.ListVideosInput) (models.Page[models.VideoSummary], error)
	WatchHistory(ctx context.Context, caller views.Caller) ([]models.VideoSummary, error)
}

// VideoService performs video mutations.
type VideoService interface {
	Publish(ctx context.Context, in videos.PublishInput) (models.Video, error)
	UpdateDetails(ctx context.Context, callerID, videoID string, in videos.UpdateInput) (models.Video, error)
	ToggleVisibility(ctx context.Context, callerID, videoID string) (models.Video, error)
	Delete(ctx context.Context, callerID, videoID string) error
}

// CommentService records comments.
type CommentService interface {
	Create(ctx context.Context, ownerID string, target comments.Target, content json.RawMessage) (models.Comment, error)
}

// SubscriptionStore toggles subscription edges.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// AssetCleaner schedules deletion of superseded media.
type AssetCleaner interface {
	Enqueue(ctx context.Context, url string) error
}

// MediaHost uploads and deletes media assets.
type MediaHost = media.Host
