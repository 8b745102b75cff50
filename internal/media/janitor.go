package media

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// JanitorConfig controls the concurrency characteristics of the janitor.
type JanitorConfig struct {
	QueueSize     int
	Workers       int
	DeleteTimeout time.Duration
}

// Janitor deletes superseded assets in the background so request handlers
// never wait on cleanup.
type Janitor struct {
	host    Host
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan string
	wg     sync.WaitGroup
}

var errJanitorClosed = errors.New("media janitor closed")

// NewJanitor starts a worker pool deleting assets from host.
func NewJanitor(host Host, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Janitor{
		host:    host,
		logger:  logger,
		timeout: cfg.DeleteTimeout,
		jobs:    make(chan string, cfg.QueueSize),
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules deletion of the asset at url. Empty references are
// ignored.
func (j *Janitor) Enqueue(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return errJanitorClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.jobs <- url:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.jobs)
	}
	j.mu.Unlock()

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	// Accepted deletions are drained even after Shutdown.
	for url := range j.jobs {
		j.handle(url)
	}
}

func (j *Janitor) handle(url string) {
	if j.host == nil {
		j.logger.Error("media janitor missing host", "url", url)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.host.Delete(ctx, url); err != nil {
		j.logger.Error("delete superseded asset", "url", url, "error", err)
		return
	}
	j.logger.Debug("deleted superseded asset", "url", url)
}
