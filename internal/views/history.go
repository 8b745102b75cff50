package views

import (
	"context"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
)

// WatchHistory returns the caller's watched videos in recorded order,
// repeats included. Videos that no longer exist are skipped.
func (a *Assembler) WatchHistory(ctx context.Context, caller Caller) ([]models.VideoSummary, error) {
	ctx, span := logging.StartSpan(ctx, "views.watch_history")
	defer span.End()

	if !caller.Authenticated() {
		return nil, apperrors.Unauthorized("authentication required")
	}

	users, err := a.store.UsersByID(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.Internal("could not load watch history", err)
	}
	user := first(users)
	if user == nil {
		// An authenticated caller without a user record is a consistency
		// problem, not a missing resource.
		return nil, apperrors.Internal("could not resolve watch history owner", nil)
	}

	history := make([]models.VideoSummary, 0, len(user.WatchHistory))
	if len(user.WatchHistory) == 0 {
		return history, nil
	}

	records, err := a.store.VideosByIDs(ctx, distinct(user.WatchHistory))
	if err != nil {
		return nil, apperrors.Internal("could not load watch history", err)
	}

	byID := make(map[string]models.VideoSummary, len(records))
	for _, record := range records {
		byID[record.Video.ID] = summarize(record)
	}

	for _, id := range user.WatchHistory {
		if summary, ok := byID[id]; ok {
			history = append(history, summary)
		}
	}
	return history, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
