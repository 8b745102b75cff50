package views

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListVideosInput carries the raw listing parameters as received from the
// client.
type ListVideosInput struct {
	Page     string
	Limit    string
	Search   string
	SortBy   string
	SortType string
	OwnerID  string
}

// ParseListVideosInput validates raw listing parameters into a query.
// Listings only ever expose public videos.
func ParseListVideosInput(in ListVideosInput) (VideoQuery, int64, error) {
	page, err := parsePositive(in.Page, DefaultPage, "page")
	if err != nil {
		return VideoQuery{}, 0, err
	}
	limit, err := parsePositive(in.Limit, DefaultLimit, "limit")
	if err != nil {
		return VideoQuery{}, 0, err
	}

	filter := VideoFilter{
		PublicOnly: true,
		Search:     strings.TrimSpace(in.Search),
	}
	if owner := strings.TrimSpace(in.OwnerID); owner != "" {
		if !models.ValidID(owner) {
			return VideoQuery{}, 0, apperrors.InvalidArgument("invalid owner id")
		}
		filter.OwnerID = owner
	}

	sortBy, descending := resolveSort(in.SortBy, in.SortType)

	return VideoQuery{
		Filter:     filter,
		SortBy:     sortBy,
		Descending: descending,
		Skip:       (page - 1) * limit,
		Limit:      limit,
	}, page, nil
}

// resolveSort falls back to createdAt for unknown fields. Only an explicit
// "asc" sorts ascending.
func resolveSort(sortBy, sortType string) (SortField, bool) {
	field := SortField(strings.TrimSpace(sortBy))
	if !field.Valid() {
		field = SortCreatedAt
	}
	return field, !strings.EqualFold(strings.TrimSpace(sortType), "asc")
}

func parsePositive(raw string, fallback int64, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return 0, apperrors.InvalidArgument("invalid " + name + ": must be a positive integer")
	}
	return n, nil
}

// ListVideos returns one page of public videos with a total computed over
// the same filter.
func (a *Assembler) ListVideos(ctx context.Context, in ListVideosInput) (models.Page[models.VideoSummary], error) {
	ctx, span := logging.StartSpan(ctx, "views.list_videos")
	defer span.End()

	query, page, err := ParseListVideosInput(in)
	if err != nil {
		return models.Page[models.VideoSummary]{}, err
	}

	var (
		records []VideoRecord
		total   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := a.store.QueryVideos(gctx, query)
		records = found
		return err
	})
	g.Go(func() error {
		n, err := a.store.CountVideos(gctx, query.Filter)
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Page[models.VideoSummary]{}, apperrors.Internal("could not list videos", err)
	}

	items := make([]models.VideoSummary, 0, len(records))
	for _, record := range records {
		items = append(items, summarize(record))
	}

	return models.Page[models.VideoSummary]{
		Items:      items,
		Pagination: paginate(total, page, query.Limit),
	}, nil
}

func paginate(total, page, limit int64) models.Pagination {
	var totalPages int64
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return models.Pagination{
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Limit:       limit,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && totalPages > 0,
	}
}
