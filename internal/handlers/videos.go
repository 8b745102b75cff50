package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/videos"
	"github.com/vidhub/backend/internal/views"
)

// VideoHandler exposes listing, detail and mutation endpoints for videos.
type VideoHandler struct {
	Videos  VideoService
	Views   ViewAssembler
	Uploads UploadConfig
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	search := query.Get("search")
	if search == "" {
		search = query.Get("query")
	}

	page, err := h.Views.ListVideos(ctx, views.ListVideosInput{
		Page:     query.Get("page"),
		Limit:    query.Get("limit"),
		Search:   search,
		SortBy:   query.Get("sortBy"),
		SortType: query.Get("sortType"),
		OwnerID:  query.Get("userId"),
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, page, "Videos fetched successfully")
}

// Detail handles GET /api/v1/videos/{videoId}.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.Views.VideoDetail(ctx, r.PathValue("videoId"), callerOf(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if result.Forbidden {
		logging.FromContext(ctx).Warn("private video requested", slog.String("video_id", r.PathValue("videoId")))
		respond(ctx, w, http.StatusForbidden, nil, "This video is private")
		return
	}
	respond(ctx, w, http.StatusOK, result.Video, "Video fetched successfully")
}

// Publish handles POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	files, err := stageUploads(w, r, h.Uploads, "video", "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer files.Cleanup(r)

	in := videos.PublishInput{
		OwnerID:       subject.ID,
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		VideoPath:     files["video"],
		ThumbnailPath: files["thumbnail"],
	}
	if raw := strings.TrimSpace(r.FormValue("isPublic")); raw != "" {
		public, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(ctx, w, apperrors.InvalidArgument("isPublic must be true or false"))
			return
		}
		in.IsPublic = &public
	}

	video, err := h.Videos.Publish(ctx, in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, video, "Video successfully uploaded")
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	files, err := stageUploads(w, r, h.Uploads, "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer files.Cleanup(r)

	video, err := h.Videos.UpdateDetails(ctx, subject.ID, r.PathValue("videoId"), videos.UpdateInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		ThumbnailPath: files["thumbnail"],
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, video, "Video details updated")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.ToggleVisibility(ctx, subject.ID, r.PathValue("videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, video, "Video visibility updated")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Videos.Delete(ctx, subject.ID, r.PathValue("videoId")); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "Video deleted")
}
