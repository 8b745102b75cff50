// Package views assembles read-optimized composite views by joining users,
// videos and subscriptions at query time. Nothing built here is persisted.
package views

import (
	"github.com/vidhub/backend/internal/models"
)

// Caller identifies who is requesting a view. The zero value is anonymous.
type Caller struct {
	UserID string
}

// Anonymous returns the caller for unauthenticated requests.
func Anonymous() Caller {
	return Caller{}
}

// AuthenticatedAs returns a caller for the given user.
func AuthenticatedAs(userID string) Caller {
	return Caller{UserID: userID}
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

// Is reports whether the caller is the given user. Anonymous callers are
// nobody.
func (c Caller) Is(userID string) bool {
	return c.Authenticated() && c.UserID == userID
}

// Assembler builds the composite views.
type Assembler struct {
	store Store
}

// NewAssembler constructs an Assembler over store.
func NewAssembler(store Store) *Assembler {
	if store == nil {
		panic("views: store must not be nil")
	}
	return &Assembler{store: store}
}

// first flattens a join result that holds at most one relevant element.
func first[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

// isSubscribed reports whether caller appears as a subscriber among the
// channel's edges.
func isSubscribed(edges []models.Subscription, channelID string, caller Caller) bool {
	if !caller.Authenticated() {
		return false
	}
	for _, edge := range edges {
		if edge.ChannelID == channelID && edge.SubscriberID == caller.UserID {
			return true
		}
	}
	return false
}

func projectOwner(user *models.User) *models.OwnerSummary {
	if user == nil {
		return nil
	}
	return &models.OwnerSummary{
		ID:       user.ID,
		FullName: user.FullName,
		Username: user.Username,
		Avatar:   user.Avatar,
	}
}

func summarize(record VideoRecord) models.VideoSummary {
	v := record.Video
	return models.VideoSummary{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublic:    v.IsPublic,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		Owner:       projectOwner(first(record.Owner)),
	}
}
