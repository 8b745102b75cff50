package views

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vidhub/backend/internal/models"
)

// memoryStore is an in-memory Store used to exercise the assembler.
type memoryStore struct {
	mu            sync.Mutex
	users         []models.User
	videos        []models.Video
	subscriptions []models.Subscription

	err error

	incrementCalls []string
	appendCalls    []string
	queries        []VideoQuery
}

func (s *memoryStore) UsersByUsername(_ context.Context, username string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.User
	for _, u := range s.users {
		if u.Username == username {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memoryStore) UsersByID(_ context.Context, id string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.usersByIDLocked(id), nil
}

func (s *memoryStore) usersByIDLocked(id string) []models.User {
	var out []models.User
	for _, u := range s.users {
		if u.ID == id {
			out = append(out, u)
		}
	}
	return out
}

func (s *memoryStore) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sub := range s.subscriptions {
		if sub.ChannelID == channelID {
			n++
		}
	}
	return n, s.err
}

func (s *memoryStore) CountSubscriptions(_ context.Context, subscriberID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sub := range s.subscriptions {
		if sub.SubscriberID == subscriberID {
			n++
		}
	}
	return n, s.err
}

func (s *memoryStore) SubscriptionEdges(_ context.Context, channelID, subscriberID string) ([]models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Subscription
	for _, sub := range s.subscriptions {
		if sub.ChannelID == channelID && sub.SubscriberID == subscriberID {
			out = append(out, sub)
		}
	}
	return out, s.err
}

func (s *memoryStore) VideoByID(_ context.Context, id string) ([]VideoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, v := range s.videos {
		if v.ID == id {
			return []VideoRecord{s.recordLocked(v)}, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) recordLocked(v models.Video) VideoRecord {
	return VideoRecord{Video: v, Owner: s.usersByIDLocked(v.OwnerID)}
}

func (s *memoryStore) matchLocked(filter VideoFilter) []models.Video {
	var out []models.Video
	search := strings.ToLower(filter.Search)
	for _, v := range s.videos {
		if filter.PublicOnly && !v.IsPublic {
			continue
		}
		if filter.OwnerID != "" && v.OwnerID != filter.OwnerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(v.Title), search) && !strings.Contains(strings.ToLower(v.Description), search) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (s *memoryStore) QueryVideos(_ context.Context, query VideoQuery) ([]VideoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}

	matched := s.matchLocked(query.Filter)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch query.SortBy {
		case SortTitle:
			less = a.Title < b.Title
		case SortViews:
			less = a.Views < b.Views
		case SortDuration:
			less = a.Duration < b.Duration
		case SortUpdatedAt:
			less = a.UpdatedAt.Before(b.UpdatedAt)
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if query.Descending {
			return !less && !equalKey(a, b, query.SortBy)
		}
		return less
	})

	var out []VideoRecord
	for i := query.Skip; i < int64(len(matched)) && i < query.Skip+query.Limit; i++ {
		out = append(out, s.recordLocked(matched[i]))
	}
	return out, nil
}

func equalKey(a, b models.Video, field SortField) bool {
	switch field {
	case SortTitle:
		return a.Title == b.Title
	case SortViews:
		return a.Views == b.Views
	case SortDuration:
		return a.Duration == b.Duration
	case SortUpdatedAt:
		return a.UpdatedAt.Equal(b.UpdatedAt)
	default:
		return a.CreatedAt.Equal(b.CreatedAt)
	}
}

func (s *memoryStore) CountVideos(_ context.Context, filter VideoFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return int64(len(s.matchLocked(filter))), nil
}

func (s *memoryStore) VideosByIDs(_ context.Context, ids []string) ([]VideoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []VideoRecord
	// Storage order, not request order.
	for _, v := range s.videos {
		if wanted[v.ID] {
			out = append(out, s.recordLocked(v))
		}
	}
	return out, nil
}

func (s *memoryStore) IncrementViews(_ context.Context, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incrementCalls = append(s.incrementCalls, videoID)
	for i := range s.videos {
		if s.videos[i].ID == videoID {
			s.videos[i].Views++
		}
	}
	return nil
}

func (s *memoryStore) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendCalls = append(s.appendCalls, videoID)
	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].WatchHistory = append(s.users[i].WatchHistory, videoID)
		}
	}
	return nil
}

func (s *memoryStore) views(videoID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.videos {
		if v.ID == videoID {
			return v.Views
		}
	}
	return -1
}

var baseTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newUser(id, username string) models.User {
	return models.User{
		ID:         id,
		Username:   username,
		Email:      username + "@example.com",
		FullName:   strings.ToUpper(username[:1]) + username[1:],
		Avatar:     "https://cdn.example.com/" + username + ".png",
		CoverImage: "https://cdn.example.com/" + username + "-cover.png",
		Password:   "hash",
	}
}

func newVideo(id, ownerID string, public bool, offset int) models.Video {
	created := baseTime.Add(time.Duration(offset) * time.Minute)
	return models.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       "video " + id,
		Description: "description of " + id,
		VideoFile:   "https://cdn.example.com/" + id + ".mp4",
		Thumbnail:   "https://cdn.example.com/" + id + ".jpg",
		Duration:    float64(60 + offset),
		IsPublic:    public,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}
