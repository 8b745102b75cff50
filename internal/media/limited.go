package media

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limited bounds the number of in-flight calls to the wrapped host. Callers
// wait for a slot or give up when their context ends.
type Limited struct {
	host Host
	sem  *semaphore.Weighted
}

// NewLimited wraps host so at most n calls run at once.
func NewLimited(host Host, n int64) *Limited {
	if n <= 0 {
		n = 1
	}
	return &Limited{host: host, sem: semaphore.NewWeighted(n)}
}

// Upload forwards to the wrapped host once a slot is free.
func (l *Limited) Upload(ctx context.Context, localPath string, kind Kind) (Asset, error) {
	if l.host == nil {
		return Asset{}, ErrHostUnavailable
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Asset{}, err
	}
	defer l.sem.Release(1)
	return l.host.Upload(ctx, localPath, kind)
}

// Delete forwards to the wrapped host once a slot is free.
func (l *Limited) Delete(ctx context.Context, url string) error {
	if l.host == nil {
		return ErrHostUnavailable
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return l.host.Delete(ctx, url)
}

var _ Host = (*Limited)(nil)
