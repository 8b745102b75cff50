// Package media abstracts the external host that stores uploaded images and
// videos, and the bookkeeping needed to keep it consistent with the database.
package media

import (
	"context"
	"errors"
)

// Kind selects how an uploaded file is treated by the host.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var (
	// ErrHostUnavailable indicates the media host is not configured.
	ErrHostUnavailable = errors.New("media host unavailable")
	// ErrEmptyReference indicates a delete was requested without a location.
	ErrEmptyReference = errors.New("media reference is empty")
)

// Asset describes an uploaded file. Duration is only set for videos and is
// measured in seconds.
type Asset struct {
	URL      string
	Duration float64
}

// Host uploads local files and deletes previously uploaded ones. Deleting an
// asset that no longer exists is not an error.
type Host interface {
	Upload(ctx context.Context, localPath string, kind Kind) (Asset, error)
	Delete(ctx context.Context, url string) error
}
