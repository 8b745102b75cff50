package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
)

const (
	migrationAttempts    = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

// SQLSTATE codes worth another attempt: serialization_failure,
// deadlock_detected and lock_not_available.
var retryableSQLStates = []string{"40001", "40P01", "55P03"}

type migration struct {
	name string
	path string
}

func runMigrations(ctx context.Context, args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	switch command {
	case "up", "status":
	case "down":
		return errors.New("down migrations are not supported")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dir, err := absDir(cfg.MigrationDir)
	if err != nil {
		return err
	}
	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	return withConn(ctx, cfg.DatabaseURL, func(conn *pgxpool.Conn) error {
		applied, err := appliedMigrations(ctx, conn)
		if err != nil {
			return err
		}

		logger := slog.Default()
		for _, m := range migrations {
			if command == "status" {
				logger.Info("migration", slog.String("name", m.name), slog.Bool("applied", applied[m.name]))
				continue
			}
			if applied[m.name] {
				continue
			}
			if err := applyMigration(ctx, conn, m); err != nil {
				return err
			}
			logger.Info("applied migration", slog.String("name", m.name))
		}
		if command == "up" && len(migrations) == 0 {
			logger.Info("no migrations to apply", slog.String("dir", dir))
		}
		return nil
	})
}

func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	dir, err := absDir(cfg.SeedDir)
	if err != nil {
		return err
	}

	name := args[0]
	if !strings.HasSuffix(name, ".sql") {
		name += "_seed.sql"
	}
	contents, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", name, err)
	}

	return withConn(ctx, cfg.DatabaseURL, func(conn *pgxpool.Conn) error {
		if _, err := conn.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply seed %s: %w", name, err)
		}
		slog.Default().Info("applied seed", slog.String("name", name))
		return nil
	})
}

func withConn(ctx context.Context, databaseURL string, fn func(*pgxpool.Conn) error) error {
	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return fn(conn)
}

func absDir(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return abs, nil
}

// loadMigrations lists the .sql files in dir in lexical order.
func loadMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		migrations = append(migrations, migration{name: entry.Name(), path: filepath.Join(dir, entry.Name())})
	}
	slices.SortFunc(migrations, func(a, b migration) int { return strings.Compare(a.name, b.name) })
	return migrations, nil
}

func appliedMigrations(ctx context.Context, conn *pgxpool.Conn) (map[string]bool, error) {
	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
                version TEXT PRIMARY KEY,
                applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// applyMigration runs one migration and records it in a single serializable
// transaction, retrying transient failures with exponential backoff.
func applyMigration(ctx context.Context, conn *pgxpool.Conn, m migration) error {
	contents, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.name, err)
	}

	for attempt := 0; ; attempt++ {
		err := pgx.BeginTxFunc(ctx, conn, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(contents)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.name)
			return err
		})
		if err == nil {
			return nil
		}
		if attempt+1 >= migrationAttempts || !retryableMigrationError(err) {
			return fmt.Errorf("apply migration %s (attempt %d/%d): %w", m.name, attempt+1, migrationAttempts, err)
		}

		slog.Default().Warn("transient migration failure, retrying",
			slog.String("name", m.name),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
		timer := time.NewTimer(migrationBackoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func migrationBackoff(attempt int) time.Duration {
	return min(migrationBaseBackoff<<attempt, migrationMaxBackoff)
}

func retryableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && slices.Contains(retryableSQLStates, pgErr.Code)
}
