package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/models"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, full_name, avatar, cover_image, password_hash, watch_history, refresh_token, created_at, updated_at`

const videoColumns = `id, owner_id, title, description, video_file, thumbnail, duration, views, is_public, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Avatar, &user.CoverImage,
		&user.Password, &user.WatchHistory, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return models.User{}, err
	}
	if user.WatchHistory == nil {
		user.WatchHistory = []string{}
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}

func scanVideo(row scanner) (models.Video, error) {
	var video models.Video
	if err := row.Scan(
		&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile, &video.Thumbnail,
		&video.Duration, &video.Views, &video.IsPublic, &video.CreatedAt, &video.UpdatedAt,
	); err != nil {
		return models.Video{}, err
	}
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()
	return video, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	history := user.WatchHistory
	if history == nil {
		history = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash, watch_history, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, user.ID, user.Username, user.Email, user.FullName, user.Avatar, user.CoverImage, user.Password, history, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByLogin fetches the user whose username or email matches.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, username, email string) (models.User, error) {
	return r.findOne(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
        ORDER BY created_at
        LIMIT 1
    `, username, email)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// UpdatePassword replaces the stored credential hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET password_hash = $2, updated_at = $3
        WHERE id = $1
    `, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateFullName sets the display name and returns the updated record.
func (r *PostgresUserRepository) UpdateFullName(ctx context.Context, id, fullName string) (models.User, error) {
	return r.updateColumn(ctx, "full_name", id, fullName)
}

// UpdateAvatar sets the avatar reference and returns the updated record.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, avatar string) (models.User, error) {
	return r.updateColumn(ctx, "avatar", id, avatar)
}

// UpdateCoverImage sets the cover image reference and returns the updated record.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, id, coverImage string) (models.User, error) {
	return r.updateColumn(ctx, "cover_image", id, coverImage)
}

// updateColumn only ever receives column names from this file.
func (r *PostgresUserRepository) updateColumn(ctx context.Context, column, id, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET `+column+` = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns, id, value, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("update user %s: %w", column, err)
	}
	return user, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_file, thumbnail, duration, views, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoFile, video.Thumbnail,
		video.Duration, video.Views, video.IsPublic, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video without joins.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// UpdateDetails writes title, description and thumbnail.
func (r *PostgresVideoRepository) UpdateDetails(ctx context.Context, video models.Video) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	updated, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail = $4, updated_at = $5
        WHERE id = $1
        RETURNING `+videoColumns, video.ID, video.Title, video.Description, video.Thumbnail, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video details: %w", err)
	}
	return updated, nil
}

// SetVisibility flips a video between public and private.
func (r *PostgresVideoRepository) SetVisibility(ctx context.Context, id string, public bool) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	updated, err := scanVideo(conn.QueryRow(ctx, `
        UPDATE videos
        SET is_public = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+videoColumns, id, public, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video visibility: %w", err)
	}
	return updated, nil
}

// Delete removes a video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, content, owner_id, target_kind, target_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, comment.ID, comment.Content, comment.OwnerID, string(comment.TargetKind), comment.TargetID, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscription edges. The (subscriber, channel) pair is unique.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle removes the edge if present and creates it otherwise. It reports
// whether the subscriber is subscribed afterwards.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, subscriberID, channelID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	return true, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ CommentRepository = (*PostgresCommentRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
