package models

import "time"

// OwnerSummary is the projection of a user embedded in video views.
type OwnerSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// ChannelProfile is the public view of a user acting as a channel. It is an
// allow-list: nothing else from User may be added here.
type ChannelProfile struct {
	FullName          string `json:"fullName"`
	Username          string `json:"username"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage"`
	SubscriberCount   int64  `json:"subscriberCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// DetailOwner is the owner block of a video detail view.
type DetailOwner struct {
	ID              string `json:"id"`
	FullName        string `json:"fullName"`
	Username        string `json:"username"`
	Avatar          string `json:"avatar"`
	SubscriberCount int64  `json:"subscriberCount"`
	IsSubscribedTo  bool   `json:"isSubscribedTo"`
}

// VideoDetail is a full video record with its owner flattened in.
type VideoDetail struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	IsPublic    bool         `json:"isPublic"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Owner       *DetailOwner `json:"owner"`
}

// VideoSummary is a video with a reduced owner projection, used by listings
// and watch history.
type VideoSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	VideoFile   string        `json:"videoFile"`
	Thumbnail   string        `json:"thumbnail"`
	Duration    float64       `json:"duration"`
	Views       int64         `json:"views"`
	IsPublic    bool          `json:"isPublic"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	Owner       *OwnerSummary `json:"owner"`
}

// Pagination describes where a page sits within a result set.
type Pagination struct {
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	Limit       int64 `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// Page is one slice of a paginated result.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
