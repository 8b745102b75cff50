package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/db"
)

// PostgresSessionStore keeps each user's current refresh token on the users
// row itself.
type PostgresSessionStore struct {
	pool db.Pool
}

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save replaces the user's refresh token.
func (s *PostgresSessionStore) Save(ctx context.Context, userID, refreshToken string) error {
	return s.setToken(ctx, userID, &refreshToken)
}

// Find loads the user's identity together with the stored refresh token.
func (s *PostgresSessionStore) Find(ctx context.Context, userID string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, username, full_name, refresh_token
        FROM users
        WHERE id = $1
    `, userID)

	var (
		session auth.Session
		token   *string
	)
	if err := row.Scan(&session.Subject.ID, &session.Subject.Email, &session.Subject.Username, &session.Subject.FullName, &token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Session{}, auth.ErrSessionNotFound
		}
		return auth.Session{}, fmt.Errorf("select session: %w", err)
	}
	if token == nil || *token == "" {
		return auth.Session{}, auth.ErrSessionNotFound
	}

	session.RefreshToken = *token
	return session, nil
}

// Delete clears the user's refresh token. Clearing an absent token succeeds.
func (s *PostgresSessionStore) Delete(ctx context.Context, userID string) error {
	err := s.setToken(ctx, userID, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *PostgresSessionStore) setToken(ctx context.Context, userID string, token *string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2, updated_at = $3
        WHERE id = $1
    `, userID, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)
