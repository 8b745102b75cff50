package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vidhub/backend/internal/apperrors"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/repositories"
)

// SubscriptionHandler toggles subscriptions to channels.
type SubscriptionHandler struct {
	Users         UserStore
	Subscriptions SubscriptionStore
}

type subscriptionResponse struct {
	ChannelID  string `json:"channelId"`
	Subscribed bool   `json:"subscribed"`
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject, err := requireSubject(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channelID := r.PathValue("channelId")
	if !models.ValidID(channelID) {
		respondError(ctx, w, apperrors.InvalidArgument("invalid channel id"))
		return
	}
	if channelID == subject.ID {
		respondError(ctx, w, apperrors.InvalidArgument("cannot subscribe to your own channel"))
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperrors.NotFound("channel does not exist"))
			return
		}
		respondError(ctx, w, apperrors.Internal("could not load channel", err))
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, subject.ID, channelID)
	if err != nil {
		respondError(ctx, w, apperrors.Internal("could not update subscription", err))
		return
	}

	logging.FromContext(ctx).Info("subscription toggled",
		slog.String("channel_id", channelID),
		slog.Bool("subscribed", subscribed),
	)

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	respond(ctx, w, http.StatusOK, subscriptionResponse{ChannelID: channelID, Subscribed: subscribed}, message)
}
