package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/views"
)

// joinedVideoColumns selects a video with its owner's projected columns from
// a LEFT JOIN, so a missing owner yields NULLs rather than dropping the row.
const joinedVideoColumns = `
        v.id, v.owner_id, v.title, v.description, v.video_file, v.thumbnail, v.duration, v.views, v.is_public, v.created_at, v.updated_at,
        u.id, u.username, u.full_name, u.avatar`

const joinedVideoFrom = `
        FROM videos v
        LEFT JOIN users u ON u.id = v.owner_id`

var sortColumns = map[views.SortField]string{
	views.SortCreatedAt: "v.created_at",
	views.SortUpdatedAt: "v.updated_at",
	views.SortTitle:     "v.title",
	views.SortViews:     "v.views",
	views.SortDuration:  "v.duration",
}

// PostgresViewStore implements views.Store over the PostgreSQL schema.
type PostgresViewStore struct {
	pool db.Pool
}

// NewPostgresViewStore constructs the read store used by the view assembler.
func NewPostgresViewStore(pool db.Pool) *PostgresViewStore {
	return &PostgresViewStore{pool: pool}
}

// UsersByUsername returns users whose stored (lower-cased) username matches.
func (s *PostgresViewStore) UsersByUsername(ctx context.Context, username string) ([]models.User, error) {
	return s.users(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// UsersByID returns the user with the given id, if any.
func (s *PostgresViewStore) UsersByID(ctx context.Context, id string) ([]models.User, error) {
	return s.users(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresViewStore) users(ctx context.Context, query string, args ...any) ([]models.User, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// CountSubscribers counts edges pointing at the channel.
func (s *PostgresViewStore) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return s.count(ctx, `SELECT count(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountSubscriptions counts edges leaving the subscriber.
func (s *PostgresViewStore) CountSubscriptions(ctx context.Context, subscriberID string) (int64, error) {
	return s.count(ctx, `SELECT count(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (s *PostgresViewStore) count(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// SubscriptionEdges returns the edges from subscriberID to channelID.
func (s *PostgresViewStore) SubscriptionEdges(ctx context.Context, channelID, subscriberID string) ([]models.Subscription, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT subscriber_id, channel_id, created_at
        FROM subscriptions
        WHERE channel_id = $1 AND subscriber_id = $2
    `, channelID, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var edges []models.Subscription
	for rows.Next() {
		var edge models.Subscription
		if err := rows.Scan(&edge.SubscriberID, &edge.ChannelID, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		edges = append(edges, edge)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return edges, nil
}

// VideoByID returns the video joined with its owner.
func (s *PostgresViewStore) VideoByID(ctx context.Context, id string) ([]views.VideoRecord, error) {
	return s.videoRecords(ctx, `SELECT `+joinedVideoColumns+joinedVideoFrom+` WHERE v.id = $1`, id)
}

// VideosByIDs returns the videos in ids joined with their owners.
func (s *PostgresViewStore) VideosByIDs(ctx context.Context, ids []string) ([]views.VideoRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.videoRecords(ctx, `SELECT `+joinedVideoColumns+joinedVideoFrom+` WHERE v.id = ANY($1)`, ids)
}

// QueryVideos returns one sorted window of videos matching the filter.
func (s *PostgresViewStore) QueryVideos(ctx context.Context, query views.VideoQuery) ([]views.VideoRecord, error) {
	where, args := buildVideoFilter(query.Filter)

	column, ok := sortColumns[query.SortBy]
	if !ok {
		column = sortColumns[views.SortCreatedAt]
	}
	direction := "ASC"
	if query.Descending {
		direction = "DESC"
	}

	args = append(args, query.Limit, query.Skip)
	sql := `SELECT ` + joinedVideoColumns + joinedVideoFrom + where +
		fmt.Sprintf(` ORDER BY %s %s, v.id %s LIMIT $%d OFFSET $%d`, column, direction, direction, len(args)-1, len(args))

	return s.videoRecords(ctx, sql, args...)
}

// CountVideos counts every video matching the filter, ignoring pagination.
func (s *PostgresViewStore) CountVideos(ctx context.Context, filter views.VideoFilter) (int64, error) {
	where, args := buildVideoFilter(filter)
	return s.count(ctx, `SELECT count(*) FROM videos v`+where, args...)
}

func buildVideoFilter(filter views.VideoFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.PublicOnly {
		clauses = append(clauses, "v.is_public = true")
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(v.title ILIKE $%d OR v.description ILIKE $%d)", n, n))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *PostgresViewStore) videoRecords(ctx context.Context, query string, args ...any) ([]views.VideoRecord, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var records []views.VideoRecord
	for rows.Next() {
		var (
			video                                   models.Video
			ownerID, ownerName, ownerFull, ownerAva *string
		)
		if err := rows.Scan(
			&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile, &video.Thumbnail,
			&video.Duration, &video.Views, &video.IsPublic, &video.CreatedAt, &video.UpdatedAt,
			&ownerID, &ownerName, &ownerFull, &ownerAva,
		); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		video.CreatedAt = video.CreatedAt.UTC()
		video.UpdatedAt = video.UpdatedAt.UTC()

		record := views.VideoRecord{Video: video}
		if ownerID != nil {
			record.Owner = []models.User{{
				ID:       *ownerID,
				Username: deref(ownerName),
				FullName: deref(ownerFull),
				Avatar:   deref(ownerAva),
			}}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IncrementViews atomically adds one view.
func (s *PostgresViewStore) IncrementViews(ctx context.Context, videoID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendWatchHistory appends videoID to the user's watch list.
func (s *PostgresViewStore) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET watch_history = array_append(watch_history, $2::TEXT), updated_at = $3
        WHERE id = $1
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ views.Store = (*PostgresViewStore)(nil)
