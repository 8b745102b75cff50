package handlers

import (
	"net/http"

	"github.com/vidhub/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Tokens        middleware.TokenVerifier
	Views         ViewAssembler
	Videos        VideoService
	Comments      CommentService
	Subscriptions SubscriptionStore
	Media         MediaHost
	Cleaner       AssetCleaner
	Database      Pinger
	Uploads       UploadConfig

	// AuthLimiter throttles credential endpoints per client address. Nil
	// disables throttling.
	AuthLimiter middleware.RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	users := UserHandler{
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Views:    deps.Views,
		Media:    deps.Media,
		Cleaner:  deps.Cleaner,
		Uploads:  deps.Uploads,
	}
	videos := VideoHandler{Videos: deps.Videos, Views: deps.Views, Uploads: deps.Uploads}
	comments := CommentHandler{Comments: deps.Comments}
	subscriptions := SubscriptionHandler{Users: deps.Users, Subscriptions: deps.Subscriptions}

	throttle := func(scope string, h http.HandlerFunc) http.Handler {
		if deps.AuthLimiter == nil {
			return h
		}
		return middleware.RateLimit(deps.AuthLimiter, scope, WriteError)(h)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.Handle("POST /api/v1/users/register", throttle("register", users.Register))
	mux.Handle("POST /api/v1/users/login", throttle("login", users.Login))
	mux.Handle("POST /api/v1/users/refresh-token", throttle("refresh", users.RefreshToken))
	mux.HandleFunc("POST /api/v1/users/logout", users.Logout)
	mux.HandleFunc("PATCH /api/v1/users/password", users.ChangePassword)
	mux.HandleFunc("GET /api/v1/users/me", users.Me)
	mux.HandleFunc("PATCH /api/v1/users/full-name", users.UpdateFullName)
	mux.HandleFunc("PATCH /api/v1/users/avatar", users.UpdateAvatar)
	mux.HandleFunc("PATCH /api/v1/users/cover-image", users.UpdateCoverImage)
	mux.HandleFunc("GET /api/v1/users/watch-history", users.WatchHistory)
	mux.HandleFunc("GET /api/v1/users/channel/{username}", users.Channel)

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("POST /api/v1/videos", videos.Publish)
	mux.HandleFunc("GET /api/v1/videos/{videoId}", videos.Detail)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", videos.Update)
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", videos.Delete)
	mux.HandleFunc("PATCH /api/v1/videos/toggle/publish/{videoId}", videos.TogglePublish)

	mux.HandleFunc("POST /api/v1/comments", comments.Create)

	mux.HandleFunc("POST /api/v1/subscriptions/c/{channelId}", subscriptions.Toggle)
}
