package activityhandlers

import (
	"context"

	activityevents "github.com/Black-And-White-Club/stride-bot/app/events/activity"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
)

// Handlers defines the interface for activity event handlers.
type Handlers interface {
	// HandleEnsureUser creates the user if absent.
	HandleEnsureUser(ctx context.Context, payload *activityevents.UserEnsureRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleRecordRequest appends a distance entry and replies with totals and rank.
	HandleRecordRequest(ctx context.Context, payload *activityevents.RecordRequestedPayloadV1) ([]handlerwrapper.Result, error)

	// HandleStatsRequest replies with the user's aggregates.
	HandleStatsRequest(ctx context.Context, payload *activityevents.StatsRequestedPayloadV1) ([]handlerwrapper.Result, error)
}
