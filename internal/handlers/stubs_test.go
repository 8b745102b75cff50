package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/comments"
	"github.com/vidhub/backend/internal/media"
	"github.com/vidhub/backend/internal/middleware"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/repositories"
	"github.com/vidhub/backend/internal/videos"
	"github.com/vidhub/backend/internal/views"
)

var errStub = errors.New("stub failure")

type userStoreStub struct {
	mu      sync.Mutex
	byID    map[string]models.User
	created []models.User

	createErr error
	findErr   error
	updateErr error
}

func newUserStoreStub(users ...models.User) *userStoreStub {
	s := &userStoreStub{byID: make(map[string]models.User)}
	for _, u := range users {
		s.byID[u.ID] = u
	}
	return s
}

func (s *userStoreStub) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, user)
	s.byID[user.ID] = user
	return nil
}

func (s *userStoreStub) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return models.User{}, s.findErr
	}
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *userStoreStub) FindByLogin(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return models.User{}, s.findErr
	}
	for _, u := range s.byID {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *userStoreStub) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := s.update(id, func(u *models.User) { u.Password = hash })
	return err
}

func (s *userStoreStub) UpdateFullName(_ context.Context, id, fullName string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.FullName = fullName })
}

func (s *userStoreStub) UpdateAvatar(_ context.Context, id, avatar string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.Avatar = avatar })
}

func (s *userStoreStub) UpdateCoverImage(_ context.Context, id, cover string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.CoverImage = cover })
}

func (s *userStoreStub) update(id string, apply func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return models.User{}, s.updateErr
	}
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	apply(&user)
	s.byID[id] = user
	return user, nil
}

func (s *userStoreStub) get(id string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id]
}

type sessionStub struct {
	issued    []auth.Subject
	revoked   []string
	refreshed []string

	tokens     models.SessionTokens
	issueErr   error
	refreshErr error
}

func (s *sessionStub) Issue(_ context.Context, subject auth.Subject) (models.SessionTokens, error) {
	s.issued = append(s.issued, subject)
	return s.tokens, s.issueErr
}

func (s *sessionStub) Refresh(_ context.Context, token string) (models.SessionTokens, error) {
	s.refreshed = append(s.refreshed, token)
	if s.refreshErr != nil {
		return models.SessionTokens{}, s.refreshErr
	}
	return s.tokens, nil
}

func (s *sessionStub) Revoke(_ context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

type viewStub struct {
	channelCaller views.Caller
	channelName   string
	listInput     views.ListVideosInput
	detailCaller  views.Caller
	historyCaller views.Caller

	profile models.ChannelProfile
	detail  views.DetailResult
	page    models.Page[models.VideoSummary]
	history []models.VideoSummary
	err     error
}

func (s *viewStub) ChannelProfile(_ context.Context, username string, caller views.Caller) (models.ChannelProfile, error) {
	s.channelName = username
	s.channelCaller = caller
	return s.profile, s.err
}

func (s *viewStub) VideoDetail(_ context.Context, _ string, caller views.Caller) (views.DetailResult, error) {
	s.detailCaller = caller
	return s.detail, s.err
}

func (s *viewStub) ListVideos(_ context.Context, in views.ListVideosInput) (models.Page[models.VideoSummary], error) {
	s.listInput = in
	return s.page, s.err
}

func (s *viewStub) WatchHistory(_ context.Context, caller views.Caller) ([]models.VideoSummary, error) {
	s.historyCaller = caller
	return s.history, s.err
}

type videoServiceStub struct {
	publishIn  videos.PublishInput
	updateIn   videos.UpdateInput
	callerID   string
	videoID    string
	deleted    bool
	publishErr error
	err        error
	video      models.Video
}

func (s *videoServiceStub) Publish(_ context.Context, in videos.PublishInput) (models.Video, error) {
	s.publishIn = in
	return s.video, s.publishErr
}

func (s *videoServiceStub) UpdateDetails(_ context.Context, callerID, videoID string, in videos.UpdateInput) (models.Video, error) {
	s.callerID, s.videoID, s.updateIn = callerID, videoID, in
	return s.video, s.err
}

func (s *videoServiceStub) ToggleVisibility(_ context.Context, callerID, videoID string) (models.Video, error) {
	s.callerID, s.videoID = callerID, videoID
	return s.video, s.err
}

func (s *videoServiceStub) Delete(_ context.Context, callerID, videoID string) error {
	s.callerID, s.videoID = callerID, videoID
	s.deleted = s.err == nil
	return s.err
}

type commentServiceStub struct {
	ownerID string
	target  comments.Target
	content json.RawMessage
	err     error
}

func (s *commentServiceStub) Create(_ context.Context, ownerID string, target comments.Target, content json.RawMessage) (models.Comment, error) {
	s.ownerID, s.target, s.content = ownerID, target, content
	if s.err != nil {
		return models.Comment{}, s.err
	}
	text, err := comments.ParseContent(content)
	if err != nil {
		return models.Comment{}, err
	}
	return models.Comment{ID: "c1", Content: text, OwnerID: ownerID, TargetKind: target.Kind(), TargetID: target.ID()}, nil
}

type subscriptionStub struct {
	subscriber, channel string
	subscribed          bool
	err                 error
}

func (s *subscriptionStub) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.subscriber, s.channel = subscriberID, channelID
	s.subscribed = !s.subscribed
	return s.subscribed, s.err
}

type hostStub struct {
	mu        sync.Mutex
	next      int
	uploaded  []string
	deleted   []string
	uploadErr map[int]error
}

func (h *hostStub) Upload(_ context.Context, _ string, kind media.Kind) (media.Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	if err := h.uploadErr[h.next]; err != nil {
		return media.Asset{}, err
	}
	url := "https://cdn.test/" + string(kind) + "/" + string(rune('0'+h.next))
	h.uploaded = append(h.uploaded, url)
	return media.Asset{URL: url}, nil
}

func (h *hostStub) Delete(_ context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, url)
	return nil
}

type cleanerStub struct {
	mu   sync.Mutex
	urls []string
}

func (c *cleanerStub) Enqueue(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = append(c.urls, url)
	return nil
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func asUser(r *http.Request, id string) *http.Request {
	return r.WithContext(middleware.WithSubject(r.Context(), auth.Subject{ID: id}))
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a multipart form with the given text fields and
// small in-memory files.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, filename := range files {
		part, err := writer.CreateFormFile(name, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, "content of "+filename); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type decodedEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) decodedEnvelope {
	t.Helper()
	var env decodedEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	if env.StatusCode != rec.Code {
		t.Fatalf("envelope status %d does not match response %d", env.StatusCode, rec.Code)
	}
	return env
}

func uploadConfig(t *testing.T) UploadConfig {
	return UploadConfig{Dir: t.TempDir(), MaxBytes: 1 << 20}
}
