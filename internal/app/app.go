package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/handlers"
	"github.com/vidhub/backend/internal/httpserver"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/middleware"
)

// Run bootstraps the vidhub backend. args[0] selects serve, migrate or seed.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger, handlers.WriteError)(
		middleware.Authenticate(deps.Tokens, handlers.WriteError)(mux),
	)

	srv := httpserver.New(cfg.AppPort, handler, httpserver.Options{WriteTimeout: cfg.HTTPWriteTimeout})

	logger.Info("starting http server", "port", cfg.AppPort)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server", slog.Any("reason", context.Cause(ctx)))
	case err := <-srvErr:
		serveErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := cleanup(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, err)
	}
	return serveErr
}
