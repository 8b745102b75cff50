package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/comments"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/handlers"
	"github.com/vidhub/backend/internal/media"
	"github.com/vidhub/backend/internal/middleware"
	"github.com/vidhub/backend/internal/repositories"
	"github.com/vidhub/backend/internal/storage"
	"github.com/vidhub/backend/internal/videos"
	"github.com/vidhub/backend/internal/views"
)

// rateLimitTTLFactor keeps idle visitors around for this many windows.
const rateLimitTTLFactor = 10

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains background media work and must be
// called after the HTTP server has stopped accepting requests.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	prober := media.NewFFProbe(cfg.Media.FFProbePath, cfg.Media.FFProbeTimeout)
	s3Host, err := storage.NewS3Host(ctx, cfg.ObjectStore, cfg.Media.VideoPartSizeMB, prober)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure media host: %w", err)
	}
	host := media.NewLimited(s3Host, cfg.Media.MaxConcurrent)

	janitor := media.NewJanitor(host, media.JanitorConfig{
		QueueSize:     cfg.Media.JanitorQueue,
		Workers:       cfg.Media.JanitorWorkers,
		DeleteTimeout: cfg.Media.DeleteTimeout,
	}, logger)

	users := repositories.NewPostgresUserRepository(pool)
	sessions := auth.NewManager(
		cfg.Tokens.AccessSecret,
		cfg.Tokens.RefreshSecret,
		cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshTTL,
		repositories.NewPostgresSessionStore(pool),
	)

	limiter := middleware.NewIPRateLimiter(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		cfg.RateLimit.Burst,
		cfg.RateLimit.Window*rateLimitTTLFactor,
	)

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Tokens:        sessions,
		Views:         views.NewAssembler(repositories.NewPostgresViewStore(pool)),
		Videos:        videos.NewService(repositories.NewPostgresVideoRepository(pool), host, janitor),
		Comments:      comments.NewService(repositories.NewPostgresCommentRepository(pool)),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Media:         host,
		Cleaner:       janitor,
		Uploads:       handlers.UploadConfig{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes},
		AuthLimiter:   limiter,
	}
	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.Database = pinger
	}

	cleanup := func(ctx context.Context) error {
		if err := janitor.Shutdown(ctx); err != nil {
			return fmt.Errorf("drain media janitor: %w", err)
		}
		return nil
	}

	return deps, cleanup, nil
}
