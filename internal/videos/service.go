// Package videos implements the video mutations. Each mutation that touches
// the media host is a compensating sequence: external assets are created
// first, the record is written last, and new assets are deleted again if the
// write fails.
package videos

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/media"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/repositories"
)

const enqueueTimeout = 2 * time.Second

// Store is the persistence surface used by the video mutations.
type Store interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateDetails(ctx context.Context, video models.Video) (models.Video, error)
	SetVisibility(ctx context.Context, id string, public bool) (models.Video, error)
	Delete(ctx context.Context, id string) error
}

// Cleaner schedules deletion of assets that are no longer referenced.
type Cleaner interface {
	Enqueue(ctx context.Context, url string) error
}

// Service performs video mutations against the store and media host.
type Service struct {
	store   Store
	host    media.Host
	cleaner Cleaner
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, host media.Host, cleaner Cleaner) *Service {
	return &Service{
		store:   store,
		host:    host,
		cleaner: cleaner,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PublishInput carries a new video and its metadata. Paths point at local
// temporary files.
type PublishInput struct {
	OwnerID       string
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
	// IsPublic defaults to true when nil.
	IsPublic *bool
}

// Publish uploads the video and thumbnail and records the new video.
func (s *Service) Publish(ctx context.Context, in PublishInput) (models.Video, error) {
	switch {
	case strings.TrimSpace(in.VideoPath) == "":
		return models.Video{}, apperrors.InvalidArgument("video is required")
	case strings.TrimSpace(in.ThumbnailPath) == "":
		return models.Video{}, apperrors.InvalidArgument("thumbnail is required")
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return models.Video{}, apperrors.InvalidArgument("title and description are required")
	}

	batch := media.NewBatch(s.host)

	videoAsset, err := batch.Upload(ctx, in.VideoPath, media.KindVideo)
	if err != nil {
		return models.Video{}, apperrors.Internal("could not upload video", err)
	}

	thumbnail, err := batch.Upload(ctx, in.ThumbnailPath, media.KindImage)
	if err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		return models.Video{}, apperrors.Internal("could not upload thumbnail", err)
	}

	public := true
	if in.IsPublic != nil {
		public = *in.IsPublic
	}

	now := s.now()
	video := models.Video{
		ID:          models.NewID(),
		OwnerID:     in.OwnerID,
		Title:       title,
		Description: description,
		VideoFile:   videoAsset.URL,
		Thumbnail:   thumbnail.URL,
		Duration:    videoAsset.Duration,
		IsPublic:    public,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, video); err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		return models.Video{}, apperrors.Internal("could not save video", err)
	}

	logging.FromContext(ctx).Info("video published", slog.String("video_id", video.ID), slog.String("owner_id", video.OwnerID))
	return video, nil
}

// UpdateInput carries the editable video details. Blank fields keep their
// current value.
type UpdateInput struct {
	Title         string
	Description   string
	ThumbnailPath string
}

// UpdateDetails edits a video owned by callerID. A new thumbnail is uploaded
// before the record is written, and the previous one is only released after
// the write succeeds.
func (s *Service) UpdateDetails(ctx context.Context, callerID, videoID string, in UpdateInput) (models.Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	thumbnailPath := strings.TrimSpace(in.ThumbnailPath)
	if title == "" && description == "" && thumbnailPath == "" {
		return models.Video{}, errNothingToUpdate
	}

	video, err := s.owned(ctx, callerID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if title != "" {
		video.Title = title
	}
	if description != "" {
		video.Description = description
	}

	batch := media.NewBatch(s.host)
	previousThumbnail := video.Thumbnail
	if thumbnailPath != "" {
		thumbnail, err := batch.Upload(ctx, thumbnailPath, media.KindImage)
		if err != nil {
			return models.Video{}, apperrors.Internal("could not upload thumbnail", err)
		}
		video.Thumbnail = thumbnail.URL
	}

	updated, err := s.store.UpdateDetails(ctx, video)
	if err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, errVideoNotFound
		}
		return models.Video{}, apperrors.Internal("could not update video", err)
	}

	if thumbnailPath != "" {
		s.release(ctx, previousThumbnail)
	}
	return updated, nil
}

// ToggleVisibility flips the public flag of a video owned by callerID.
func (s *Service) ToggleVisibility(ctx context.Context, callerID, videoID string) (models.Video, error) {
	video, err := s.owned(ctx, callerID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	updated, err := s.store.SetVisibility(ctx, video.ID, !video.IsPublic)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, errVideoNotFound
		}
		return models.Video{}, apperrors.Internal("could not update video visibility", err)
	}
	return updated, nil
}

// Delete removes a video owned by callerID. The record goes first; its
// assets are then released best-effort.
func (s *Service) Delete(ctx context.Context, callerID, videoID string) error {
	video, err := s.owned(ctx, callerID, videoID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, video.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errVideoNotFound
		}
		return apperrors.Internal("could not delete video", err)
	}

	s.release(ctx, video.VideoFile)
	s.release(ctx, video.Thumbnail)
	return nil
}

func (s *Service) owned(ctx context.Context, callerID, videoID string) (models.Video, error) {
	if !models.ValidID(videoID) {
		return models.Video{}, errInvalidVideoID
	}

	video, err := s.store.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, errVideoNotFound
		}
		return models.Video{}, apperrors.Internal("could not load video", err)
	}
	if callerID == "" || video.OwnerID != callerID {
		return models.Video{}, errNotOwner
	}
	return video, nil
}

func (s *Service) release(ctx context.Context, url string) {
	if s.cleaner == nil || url == "" {
		return
	}
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	if err := s.cleaner.Enqueue(enqueueCtx, url); err != nil {
		logging.FromContext(ctx).Warn("could not schedule asset deletion", slog.String("url", url), slog.Any("error", err))
	}
}
