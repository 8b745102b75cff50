package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type hostStub struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	uploadErr map[string]error
	deleteErr error
}

func (h *hostStub) Upload(_ context.Context, localPath string, kind Kind) (Asset, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.uploadErr[localPath]; err != nil {
		return Asset{}, err
	}
	h.uploads = append(h.uploads, localPath)
	asset := Asset{URL: fmt.Sprintf("https://cdn.example.com/%s/%s", kind, localPath)}
	if kind == KindVideo {
		asset.Duration = 42
	}
	return asset, nil
}

func (h *hostStub) Delete(_ context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.deleteErr != nil {
		return h.deleteErr
	}
	h.deleted = append(h.deleted, url)
	return nil
}

func (h *hostStub) deletedURLs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}

var errStub = errors.New("host failure")
