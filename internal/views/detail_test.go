package views

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
)

const (
	publicVideoID  = "6a0c2f5e-8b7d-4d7b-a3e4-1f2a3b4c5d01"
	privateVideoID = "6a0c2f5e-8b7d-4d7b-a3e4-1f2a3b4c5d02"
	missingVideoID = "6a0c2f5e-8b7d-4d7b-a3e4-1f2a3b4c5d99"
)

func detailFixture() *memoryStore {
	return &memoryStore{
		users: []models.User{newUser(aliceID, "alice"), newUser(bobID, "bob")},
		videos: []models.Video{
			newVideo(publicVideoID, aliceID, true, 0),
			newVideo(privateVideoID, aliceID, false, 1),
		},
		subscriptions: []models.Subscription{{SubscriberID: bobID, ChannelID: aliceID}},
	}
}

func TestVideoDetailPrivateVideoIsForbiddenForNonOwners(t *testing.T) {
	store := detailFixture()
	assembler := NewAssembler(store)

	for _, caller := range []Caller{Anonymous(), AuthenticatedAs(bobID)} {
		result, err := assembler.VideoDetail(context.Background(), privateVideoID, caller)
		if err != nil {
			t.Fatalf("video detail: %v", err)
		}
		if !result.Forbidden || result.Video != nil {
			t.Fatalf("expected forbidden empty result got %+v", result)
		}
	}
	if len(store.incrementCalls) != 0 || len(store.appendCalls) != 0 {
		t.Fatal("hidden video must not produce side effects")
	}

	result, err := assembler.VideoDetail(context.Background(), privateVideoID, AuthenticatedAs(aliceID))
	if err != nil {
		t.Fatalf("owner video detail: %v", err)
	}
	if result.Forbidden || result.Video == nil {
		t.Fatalf("owner should see private video got %+v", result)
	}
	if store.views(privateVideoID) != 0 {
		t.Fatal("owner read must not count a view")
	}
}

func TestVideoDetailCountsOneViewPerNonOwnerRead(t *testing.T) {
	store := detailFixture()
	assembler := NewAssembler(store)

	for i := 1; i <= 3; i++ {
		result, err := assembler.VideoDetail(context.Background(), publicVideoID, AuthenticatedAs(bobID))
		if err != nil {
			t.Fatalf("video detail: %v", err)
		}
		if got := store.views(publicVideoID); got != int64(i) {
			t.Fatalf("after %d reads expected %d views got %d", i, i, got)
		}
		if result.Video.Views != int64(i) {
			t.Fatalf("returned views %d want %d", result.Video.Views, i)
		}
	}

	if _, err := assembler.VideoDetail(context.Background(), publicVideoID, Anonymous()); err != nil {
		t.Fatalf("anonymous detail: %v", err)
	}
	if got := store.views(publicVideoID); got != 4 {
		t.Fatalf("anonymous read should count, got %d", got)
	}

	if _, err := assembler.VideoDetail(context.Background(), publicVideoID, AuthenticatedAs(aliceID)); err != nil {
		t.Fatalf("owner detail: %v", err)
	}
	if got := store.views(publicVideoID); got != 4 {
		t.Fatalf("owner read must not count, got %d", got)
	}
}

func TestVideoDetailOwnerBlock(t *testing.T) {
	store := detailFixture()
	assembler := NewAssembler(store)

	result, err := assembler.VideoDetail(context.Background(), publicVideoID, AuthenticatedAs(bobID))
	if err != nil {
		t.Fatalf("video detail: %v", err)
	}
	owner := result.Video.Owner
	if owner == nil {
		t.Fatal("expected flattened owner")
	}
	if owner.Username != "alice" || owner.SubscriberCount != 1 || !owner.IsSubscribedTo {
		t.Fatalf("unexpected owner block %+v", owner)
	}

	result, err = assembler.VideoDetail(context.Background(), publicVideoID, Anonymous())
	if err != nil {
		t.Fatalf("anonymous detail: %v", err)
	}
	if result.Video.Owner.IsSubscribedTo {
		t.Fatal("anonymous caller cannot be subscribed")
	}
}

func TestVideoDetailRecordsWatchHistoryForAuthenticatedCallers(t *testing.T) {
	store := detailFixture()
	assembler := NewAssembler(store)

	if _, err := assembler.VideoDetail(context.Background(), publicVideoID, Anonymous()); err != nil {
		t.Fatalf("anonymous detail: %v", err)
	}
	if len(store.appendCalls) != 0 {
		t.Fatal("anonymous reads must not touch watch history")
	}

	if _, err := assembler.VideoDetail(context.Background(), publicVideoID, AuthenticatedAs(bobID)); err != nil {
		t.Fatalf("detail: %v", err)
	}
	users, _ := store.UsersByID(context.Background(), bobID)
	if len(users[0].WatchHistory) != 1 || users[0].WatchHistory[0] != publicVideoID {
		t.Fatalf("unexpected watch history %v", users[0].WatchHistory)
	}
}

type failingHistoryStore struct {
	*memoryStore
}

func (failingHistoryStore) AppendWatchHistory(context.Context, string, string) error {
	return errors.New("history unavailable")
}

func TestVideoDetailSurvivesWatchHistoryFailure(t *testing.T) {
	store := detailFixture()
	assembler := NewAssembler(failingHistoryStore{store})

	var logs bytes.Buffer
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))

	result, err := assembler.VideoDetail(ctx, publicVideoID, AuthenticatedAs(bobID))
	if err != nil {
		t.Fatalf("video detail: %v", err)
	}
	if result.Video == nil || result.Video.Views != 1 {
		t.Fatalf("unexpected detail %+v", result.Video)
	}
	if got := store.views(publicVideoID); got != 1 {
		t.Fatalf("expected the view to be counted once got %d", got)
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "history unavailable") {
		t.Fatalf("expected a warning about the history append, got %q", logs.String())
	}
}

func TestVideoDetailFailures(t *testing.T) {
	assembler := NewAssembler(detailFixture())

	if _, err := assembler.VideoDetail(context.Background(), "not-an-id", Anonymous()); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument got %v", err)
	}
	if _, err := assembler.VideoDetail(context.Background(), missingVideoID, Anonymous()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestVideoDetailRoundTripAfterCreate(t *testing.T) {
	store := &memoryStore{users: []models.User{newUser(aliceID, "alice")}}
	assembler := NewAssembler(store)

	created := newVideo(publicVideoID, aliceID, false, 0)
	store.videos = append(store.videos, created)

	result, err := assembler.VideoDetail(context.Background(), created.ID, AuthenticatedAs(aliceID))
	if err != nil {
		t.Fatalf("video detail: %v", err)
	}
	if result.Video == nil || result.Video.Owner == nil || result.Video.Owner.Username != "alice" {
		t.Fatalf("unexpected round trip result %+v", result.Video)
	}
}
