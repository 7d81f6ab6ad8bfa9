package activityhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	activityevents "github.com/Black-And-White-Club/stride-bot/app/events/activity"
	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// ActivityHandlers implements the Handlers interface.
type ActivityHandlers struct {
	service activityservice.Service
	rank    rankservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewActivityHandlers creates a new ActivityHandlers instance.
func NewActivityHandlers(
	service activityservice.Service,
	rank rankservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &ActivityHandlers{
		service: service,
		rank:    rank,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleEnsureUser handles user registration and display name refreshes.
func (h *ActivityHandlers) HandleEnsureUser(ctx context.Context, payload *activityevents.UserEnsureRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ActivityHandlers.HandleEnsureUser")
	defer span.End()

	if err := h.service.EnsureUser(ctx, payload.UserID, payload.DisplayName); err != nil {
		return nil, err
	}

	return []handlerwrapper.Result{{
		Topic:   handlerwrapper.ReplyTopic(ctx, activityevents.UserEnsuredV1),
		Payload: &activityevents.UserEnsuredPayloadV1{UserID: payload.UserID},
	}}, nil
}

// HandleRecordRequest handles a distance entry. The record is keyed by the
// request id, or by the message UUID, so a redelivery after a failed reply
// publish replays the reply without appending a second record.
func (h *ActivityHandlers) HandleRecordRequest(ctx context.Context, payload *activityevents.RecordRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ActivityHandlers.HandleRecordRequest")
	defer span.End()

	if payload.DisplayName != nil {
		if err := h.service.EnsureUser(ctx, payload.UserID, payload.DisplayName); err != nil {
			return nil, err
		}
	}

	distance, err := requestedDistance(payload)
	if err != nil {
		return h.recordFailed(ctx, payload.UserID, err), nil
	}

	recordID := payload.RequestID
	if recordID == "" {
		recordID = handlerwrapper.MessageID(ctx)
	}
	recorded, err := h.service.RecordActivity(ctx, activityservice.RecordKey(recordID), payload.UserID, distance)
	if err != nil {
		if errors.Is(err, activityservice.ErrInvalidDistance) {
			return h.recordFailed(ctx, payload.UserID, err), nil
		}
		return nil, err
	}

	out := &activityevents.RecordSucceededPayloadV1{
		UserID:        payload.UserID,
		Distance:      recorded.Distance,
		WeeklyTotal:   recorded.WeeklyTotal,
		LifetimeTotal: recorded.LifetimeTotal,
	}

	progress, err := h.rank.Progress(recorded.WeeklyTotal)
	if err != nil {
		h.logger.ErrorContext(ctx, "Rank progress invariant violated",
			attr.ExtractCorrelationID(ctx),
			attr.UserID(payload.UserID),
			attr.Float64("weekly_total", recorded.WeeklyTotal),
			attr.Error(err),
		)
		out.Tier = h.rank.DetermineRank(recorded.WeeklyTotal).Name
	} else {
		out.Tier = progress.Current.Name
		out.NextTier = progress.NextName()
		out.KmRemaining = progress.KmRemaining
	}

	motivation, err := h.rank.RandomMotivation(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "Falling back to default motivation",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		motivation = rankservice.DefaultMotivation
	}
	out.Motivation = motivation

	h.logger.InfoContext(ctx, "Activity recorded",
		attr.ExtractCorrelationID(ctx),
		attr.UserID(payload.UserID),
		attr.Float64("distance", recorded.Distance),
		attr.Float64("weekly_total", recorded.WeeklyTotal),
		attr.String("tier", out.Tier),
	)

	return []handlerwrapper.Result{{
		Topic:   handlerwrapper.ReplyTopic(ctx, activityevents.RecordSucceededV1),
		Payload: out,
	}}, nil
}

func requestedDistance(payload *activityevents.RecordRequestedPayloadV1) (float64, error) {
	if payload.DistanceText != "" {
		return activityservice.ParseDistance(payload.DistanceText)
	}
	if payload.Distance == nil {
		return 0, fmt.Errorf("%w: no distance supplied", activityservice.ErrInvalidDistance)
	}
	if err := activityservice.ValidateDistance(*payload.Distance); err != nil {
		return 0, err
	}
	return *payload.Distance, nil
}

func (h *ActivityHandlers) recordFailed(ctx context.Context, userID int64, err error) []handlerwrapper.Result {
	h.logger.InfoContext(ctx, "Activity record rejected",
		attr.ExtractCorrelationID(ctx),
		attr.UserID(userID),
		attr.Error(err),
	)
	return []handlerwrapper.Result{{
		Topic: handlerwrapper.ReplyTopic(ctx, activityevents.RecordFailedV1),
		Payload: &activityevents.RecordFailedPayloadV1{
			UserID: userID,
			Code:   activityevents.FailureInvalidDistance,
			Reason: err.Error(),
		},
	}}
}

// HandleStatsRequest replies with the user's aggregates and current rank.
func (h *ActivityHandlers) HandleStatsRequest(ctx context.Context, payload *activityevents.StatsRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ActivityHandlers.HandleStatsRequest")
	defer span.End()

	if payload.DisplayName != nil {
		if err := h.service.EnsureUser(ctx, payload.UserID, payload.DisplayName); err != nil {
			return nil, err
		}
	}

	stats, err := h.service.GetStats(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	progress, err := h.rank.Progress(stats.WeeklyTotal)
	if err != nil {
		return nil, err
	}
	out := StatsPayloadV1(stats, progress, time.Now().UTC())

	return []handlerwrapper.Result{{
		Topic:   handlerwrapper.ReplyTopic(ctx, activityevents.StatsRetrievedV1),
		Payload: out,
	}}, nil
}

// StatsPayloadV1 converts a user's stats and rank progress to their wire form.
func StatsPayloadV1(stats *activityservice.Stats, progress rankservice.Progress, retrievedAt time.Time) *activityevents.StatsRetrievedPayloadV1 {
	return &activityevents.StatsRetrievedPayloadV1{
		UserID:         stats.UserID,
		DisplayName:    stats.DisplayName,
		WeeklyTotal:    stats.WeeklyTotal,
		MonthlyTotal:   stats.MonthlyTotal,
		LifetimeTotal:  stats.LifetimeTotal,
		WeekStart:      stats.Week.StartDate(),
		WeekEnd:        stats.Week.EndDate(),
		DailyBreakdown: activityservice.DailyTotalsV1(stats.DailyBreakdown),
		JoinedDate:     stats.JoinedDate.Format(calendar.DateLayout),
		Tier:           progress.Current.Name,
		NextTier:       progress.NextName(),
		KmRemaining:    progress.KmRemaining,
		RetrievedAt:    retrievedAt,
	}
}
