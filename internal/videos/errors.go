package videos

import "github.com/vidhub/backend/internal/apperrors"

var (
	errNotOwner        = apperrors.Forbidden("only the owner can modify this video")
	errInvalidVideoID  = apperrors.InvalidArgument("invalid video id")
	errVideoNotFound   = apperrors.NotFound("video not found")
	errNothingToUpdate = apperrors.InvalidArgument("title, description or thumbnail is required")
)
