package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/media"
	"github.com/vidhub/backend/internal/middleware"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/repositories"
	"github.com/vidhub/backend/internal/views"
)

const (
	minPasswordLength = 8
	enqueueTimeout    = 2 * time.Second
)

var errInvalidCredentials = apperrors.Unauthorized("invalid credentials")

// UserHandler serves account, profile and channel endpoints.
type UserHandler struct {
	Users    UserStore
	Sessions SessionManager
	Views    ViewAssembler
	Media    MediaHost
	Cleaner  AssetCleaner
	Uploads  UploadConfig
	NowFunc  func() time.Time
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User models.User `json:"user"`
	models.SessionTokens
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type fullNameRequest struct {
	FullName string `json:"fullName"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	files, err := stageUploads(w, r, h.Uploads, "avatar", "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer files.Cleanup(r)

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	username := strings.ToLower(strings.TrimSpace(r.FormValue("username")))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	if fullName == "" || username == "" || email == "" || password == "" {
		respondError(ctx, w, apperrors.InvalidArgument("all fields are required"))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, apperrors.InvalidArgument("email address is invalid"))
		return
	}
	if len(password) < minPasswordLength {
		respondError(ctx, w, apperrors.InvalidArgument("password must be at least 8 characters"))
		return
	}
	avatarPath, ok := files["avatar"]
	if !ok {
		respondError(ctx, w, apperrors.InvalidArgument("avatar file is required"))
		return
	}

	if _, err := h.Users.FindByLogin(ctx, username, email); err == nil {
		respondError(ctx, w, apperrors.Conflict("user with this email or username already exists"))
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, apperrors.Internal("could not check existing users", err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, apperrors.Internal("could not hash password", err))
		return
	}

	batch := media.NewBatch(h.Media)
	avatar, err := batch.Upload(ctx, avatarPath, media.KindImage)
	if err != nil {
		respondError(ctx, w, apperrors.Internal("could not upload avatar", err))
		return
	}

	message := "User successfully registered"
	var coverImage string
	if coverPath, ok := files["coverImage"]; ok {
		cover, err := batch.Upload(ctx, coverPath, media.KindImage)
		if err != nil {
			logger.Warn("cover image upload failed, registering without it", slog.Any("error", err))
			message = "User successfully registered without cover image"
		} else {
			coverImage = cover.URL
		}
	}

	now := h.now()
	user := models.User{
		ID:           models.NewID(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatar.URL,
		CoverImage:   coverImage,
		Password:     string(hash),
		WatchHistory: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperrors.Conflict("user with this email or username already exists"))
			return
		}
		respondError(ctx, w, apperrors.Internal("could not register the user", err))
		return
	}

	logger.Info("user registered", slog.String("user_id", user.ID))
	respond(ctx, w, http.StatusCreated, user, message)
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if (username == "" && email == "") || req.Password == "" {
		respondError(ctx, w, apperrors.InvalidArgument("username or email and password are required"))
		return
	}

	user, err := h.Users.FindByLogin(ctx, username, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, errInvalidCredentials)
			return
		}
		respondError(ctx, w, apperrors.Internal("could not load user", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(ctx, w, errInvalidCredentials)
		return
	}

	tokens, err := h.Sessions.Issue(ctx, auth.SubjectFor(user))
	if err != nil {
		respondError(ctx, w, apperrors.Internal("could not create session", err))
		return
	}

	logging.FromContext(ctx).Info("user logged in", slog.String("user_id", user.ID))
	respond(ctx, w, http.StatusOK, loginResponse{User: user, SessionTokens: tokens}, "User logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Sessions.Revoke(ctx, subject.ID); err != nil {
		respondError(ctx, w, apperrors.Internal("could not log out", err))
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "Successfully logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		respondError(ctx, w, apperrors.Unauthorized("unauthorized request"))
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshTokenReused), errors.Is(err, auth.ErrRefreshTokenExpired):
			respondError(ctx, w, apperrors.Unauthorized("refresh token is expired or used"))
		case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrTokenInvalid):
			respondError(ctx, w, apperrors.Unauthorized("invalid refresh token"))
		default:
			respondError(ctx, w, apperrors.Internal("could not refresh session", err))
		}
		return
	}

	respond(ctx, w, http.StatusOK, tokens, "Access token refreshed")
}

// ChangePassword handles PATCH /api/v1/users/password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, apperrors.InvalidArgument("old and new password are required"))
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		respondError(ctx, w, apperrors.InvalidArgument("password must be at least 8 characters"))
		return
	}

	user, err := h.currentUser(ctx, subject.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		respondError(ctx, w, apperrors.InvalidArgument("old password is incorrect"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, apperrors.Internal("could not hash password", err))
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		respondError(ctx, w, apperrors.Internal("could not change password", err))
		return
	}

	respond(ctx, w, http.StatusOK, struct{}{}, "Password changed successfully")
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.currentUser(ctx, subject.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, user, "User fetched successfully")
}

// UpdateFullName handles PATCH /api/v1/users/full-name.
func (h UserHandler) UpdateFullName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req fullNameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		respondError(ctx, w, apperrors.InvalidArgument("full name is required"))
		return
	}

	user, err := h.Users.UpdateFullName(ctx, subject.ID, fullName)
	if err != nil {
		respondError(ctx, w, userWriteError(err))
		return
	}
	respond(ctx, w, http.StatusOK, user, "Full name updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "avatar", func(u models.User) string { return u.Avatar }, h.Users.UpdateAvatar, "Avatar updated")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceImage(w, r, "coverImage", func(u models.User) string { return u.CoverImage }, h.Users.UpdateCoverImage, "Cover image updated")
}

// replaceImage uploads the new image, points the user at it and schedules
// the previous image for deletion. The new upload is removed if the write
// fails.
func (h UserHandler) replaceImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	current func(models.User) string,
	write func(ctx context.Context, id, url string) (models.User, error),
	message string,
) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	files, err := stageUploads(w, r, h.Uploads, field)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer files.Cleanup(r)

	path, ok := files[field]
	if !ok {
		respondError(ctx, w, apperrors.InvalidArgument(field+" file is required"))
		return
	}

	existing, err := h.currentUser(ctx, subject.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	batch := media.NewBatch(h.Media)
	asset, err := batch.Upload(ctx, path, media.KindImage)
	if err != nil {
		respondError(ctx, w, apperrors.Internal("could not upload "+field, err))
		return
	}

	user, err := write(ctx, subject.ID, asset.URL)
	if err != nil {
		batch.Rollback(context.WithoutCancel(ctx))
		respondError(ctx, w, userWriteError(err))
		return
	}

	h.release(ctx, current(existing))
	respond(ctx, w, http.StatusOK, user, message)
}

// Channel handles GET /api/v1/users/channel/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.Views.ChannelProfile(ctx, r.PathValue("username"), callerOf(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, profile, "Channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/watch-history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := requireSubject(r); err != nil {
		respondError(ctx, w, err)
		return
	}

	history, err := h.Views.WatchHistory(ctx, callerOf(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, history, "Successfully fetched watch history")
}

func (h UserHandler) currentUser(ctx context.Context, id string) (models.User, error) {
	user, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperrors.Unauthorized("user no longer exists")
		}
		return models.User{}, apperrors.Internal("could not load user", err)
	}
	return user, nil
}

func (h UserHandler) release(ctx context.Context, url string) {
	if url == "" || h.Cleaner == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()
	if err := h.Cleaner.Enqueue(ctx, url); err != nil {
		logging.FromContext(ctx).Warn("could not schedule asset removal", slog.String("url", url), slog.Any("error", err))
	}
}

func userWriteError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.Unauthorized("user no longer exists")
	}
	return apperrors.Internal("could not update the user", err)
}

func requireSubject(r *http.Request) (auth.Subject, error) {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		return auth.Subject{}, apperrors.Unauthorized("unauthorized request")
	}
	return subject, nil
}

func callerOf(r *http.Request) views.Caller {
	subject, ok := middleware.SubjectFromContext(r.Context())
	if !ok {
		return views.Anonymous()
	}
	return views.AuthenticatedAs(subject.ID)
}
