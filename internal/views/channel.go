package views

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
)

// ChannelProfile builds the public profile of the channel named username.
func (a *Assembler) ChannelProfile(ctx context.Context, username string, caller Caller) (models.ChannelProfile, error) {
	ctx, span := logging.StartSpan(ctx, "views.channel_profile")
	defer span.End()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperrors.InvalidArgument("username is missing")
	}

	users, err := a.store.UsersByUsername(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, apperrors.Internal("could not load channel", err)
	}
	channel := first(users)
	if channel == nil {
		return models.ChannelProfile{}, apperrors.NotFound("channel does not exist")
	}

	var (
		subscribers  int64
		subscribedTo int64
		edges        []models.Subscription
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := a.store.CountSubscribers(gctx, channel.ID)
		subscribers = n
		return err
	})
	g.Go(func() error {
		n, err := a.store.CountSubscriptions(gctx, channel.ID)
		subscribedTo = n
		return err
	})
	if caller.Authenticated() {
		g.Go(func() error {
			found, err := a.store.SubscriptionEdges(gctx, channel.ID, caller.UserID)
			edges = found
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return models.ChannelProfile{}, apperrors.Internal("could not load channel subscriptions", err)
	}

	return models.ChannelProfile{
		FullName:          channel.FullName,
		Username:          channel.Username,
		Avatar:            channel.Avatar,
		CoverImage:        channel.CoverImage,
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed(edges, channel.ID, caller),
	}, nil
}
