package models

import "time"

// User represents an account; when subscribed-to it acts as a channel.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	Password     string    `json:"-"`
	WatchHistory []string  `json:"watchHistory"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Video is an uploaded video owned by a user.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TargetKind names the kind of document a comment is attached to.
type TargetKind string

const (
	TargetVideo   TargetKind = "Video"
	TargetTweet   TargetKind = "Tweet"
	TargetComment TargetKind = "Comment"
)

// Comment is free text attached to a video, tweet or another comment.
type Comment struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	OwnerID    string     `json:"ownerId"`
	TargetKind TargetKind `json:"targetModel"`
	TargetID   string     `json:"modelId"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Subscription is an edge from a subscriber to a channel.
type Subscription struct {
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
