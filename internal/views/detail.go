package views

import (
	"context"
	"log/slog"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
)

// DetailResult is the outcome of a video detail read. A hidden video is not
// an error: Forbidden is set and Video is nil.
type DetailResult struct {
	Video     *models.VideoDetail
	Forbidden bool
}

// VideoDetail builds the detail view of a single video. A public video read
// by anyone but its owner counts as one view, and authenticated callers get
// the video appended to their watch history. A failed history append is
// logged and does not fail the read.
func (a *Assembler) VideoDetail(ctx context.Context, videoID string, caller Caller) (DetailResult, error) {
	ctx, span := logging.StartSpan(ctx, "views.video_detail")
	defer span.End()

	if !models.ValidID(videoID) {
		return DetailResult{}, apperrors.InvalidArgument("invalid video id")
	}

	records, err := a.store.VideoByID(ctx, videoID)
	if err != nil {
		return DetailResult{}, apperrors.Internal("could not load video", err)
	}
	record := first(records)
	if record == nil {
		return DetailResult{}, apperrors.NotFound("video not found")
	}

	video := record.Video
	isOwner := caller.Is(video.OwnerID)
	if !video.IsPublic && !isOwner {
		return DetailResult{Forbidden: true}, nil
	}

	owner, err := a.detailOwner(ctx, first(record.Owner), caller)
	if err != nil {
		return DetailResult{}, err
	}

	if video.IsPublic && !isOwner {
		if err := a.store.IncrementViews(ctx, video.ID); err != nil {
			return DetailResult{}, apperrors.Internal("could not record view", err)
		}
		video.Views++
	}

	if caller.Authenticated() {
		if err := a.store.AppendWatchHistory(ctx, caller.UserID, video.ID); err != nil {
			logging.FromContext(ctx).Warn("append watch history failed",
				slog.String("user_id", caller.UserID),
				slog.String("video_id", video.ID),
				slog.Any("error", err),
			)
		}
	}

	return DetailResult{Video: &models.VideoDetail{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		VideoFile:   video.VideoFile,
		Thumbnail:   video.Thumbnail,
		Duration:    video.Duration,
		Views:       video.Views,
		IsPublic:    video.IsPublic,
		CreatedAt:   video.CreatedAt,
		UpdatedAt:   video.UpdatedAt,
		Owner:       owner,
	}}, nil
}

func (a *Assembler) detailOwner(ctx context.Context, owner *models.User, caller Caller) (*models.DetailOwner, error) {
	if owner == nil {
		return nil, nil
	}

	subscribers, err := a.store.CountSubscribers(ctx, owner.ID)
	if err != nil {
		return nil, apperrors.Internal("could not load owner subscriptions", err)
	}

	var edges []models.Subscription
	if caller.Authenticated() {
		edges, err = a.store.SubscriptionEdges(ctx, owner.ID, caller.UserID)
		if err != nil {
			return nil, apperrors.Internal("could not load owner subscriptions", err)
		}
	}

	return &models.DetailOwner{
		ID:              owner.ID,
		FullName:        owner.FullName,
		Username:        owner.Username,
		Avatar:          owner.Avatar,
		SubscriberCount: subscribers,
		IsSubscribedTo:  isSubscribed(edges, owner.ID, caller),
	}, nil
}
