package leaderboardhandlers

import (
	"context"

	leaderboardevents "github.com/Black-And-White-Club/stride-bot/app/events/leaderboard"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
)

// Handlers answers leaderboard requests.
type Handlers interface {
	HandleWeeklyRequest(ctx context.Context, payload *leaderboardevents.RequestedPayloadV1) ([]handlerwrapper.Result, error)
	HandleMonthlyRequest(ctx context.Context, payload *leaderboardevents.RequestedPayloadV1) ([]handlerwrapper.Result, error)
}
