package rankhandlers

import (
	"context"

	rankevents "github.com/Black-And-White-Club/stride-bot/app/events/rank"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for rank event handlers.
type Handlers interface {
	// HandleChallengeRequest picks a challenge for the caller's current tier.
	HandleChallengeRequest(ctx context.Context, payload *rankevents.ChallengeRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleProgressRequest reports the caller's tier and distance to the next one.
	HandleProgressRequest(ctx context.Context, payload *rankevents.ProgressRequestedPayloadV1) ([]handlerwrapper.Result, error)
}

// WeeklyTotals gives the rank handlers the current week's total for a user.
type WeeklyTotals interface {
	WeekTotal(ctx context.Context, userID int64) (float64, error)
}
