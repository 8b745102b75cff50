package views

import (
	"context"

	"github.com/vidhub/backend/internal/models"
)

// Store is the read surface the assembler joins over. Joined sides are always
// returned as slices, even for to-one relationships; the assembler decides
// how to flatten them.
type Store interface {
	UsersByUsername(ctx context.Context, username string) ([]models.User, error)
	UsersByID(ctx context.Context, id string) ([]models.User, error)

	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int64, error)
	// SubscriptionEdges returns the channel's subscriber edges restricted to
	// one subscriber, so membership checks never load a whole audience.
	SubscriptionEdges(ctx context.Context, channelID, subscriberID string) ([]models.Subscription, error)

	VideoByID(ctx context.Context, id string) ([]VideoRecord, error)
	QueryVideos(ctx context.Context, query VideoQuery) ([]VideoRecord, error)
	CountVideos(ctx context.Context, filter VideoFilter) (int64, error)
	// VideosByIDs returns the videos matching ids in no particular order,
	// each id at most once.
	VideosByIDs(ctx context.Context, ids []string) ([]VideoRecord, error)

	IncrementViews(ctx context.Context, videoID string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// VideoRecord is a video joined with its owner documents.
type VideoRecord struct {
	Video models.Video
	Owner []models.User
}

// SortField names a sortable video attribute.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortTitle     SortField = "title"
	SortViews     SortField = "views"
	SortDuration  SortField = "duration"
)

var sortFields = map[SortField]struct{}{
	SortCreatedAt: {},
	SortUpdatedAt: {},
	SortTitle:     {},
	SortViews:     {},
	SortDuration:  {},
}

// Valid reports whether f is a recognised sort field.
func (f SortField) Valid() bool {
	_, ok := sortFields[f]
	return ok
}

// VideoFilter restricts which videos a listing considers.
type VideoFilter struct {
	PublicOnly bool
	OwnerID    string
	// Search is matched case-insensitively as a substring of title or
	// description.
	Search string
}

// VideoQuery is a filtered, sorted window over videos.
type VideoQuery struct {
	Filter     VideoFilter
	SortBy     SortField
	Descending bool
	Skip       int64
	Limit      int64
}
