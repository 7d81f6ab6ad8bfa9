package rankhandlers

import (
	"context"
	"log/slog"

	rankevents "github.com/Black-And-White-Club/stride-bot/app/events/rank"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// RankHandlers implements the Handlers interface.
type RankHandlers struct {
	service rankservice.Service
	totals  WeeklyTotals
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewRankHandlers creates a new RankHandlers instance.
func NewRankHandlers(
	service rankservice.Service,
	totals WeeklyTotals,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &RankHandlers{
		service: service,
		totals:  totals,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleChallengeRequest resolves the user's tier from this week's total and
// picks one of its challenges.
func (h *RankHandlers) HandleChallengeRequest(ctx context.Context, payload *rankevents.ChallengeRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RankHandlers.HandleChallengeRequest")
	defer span.End()

	total, err := h.totals.WeekTotal(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	tier := h.service.DetermineRank(total)
	challenge, err := h.service.RandomChallenge(ctx, tier.Name)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "Challenge selected",
		attr.ExtractCorrelationID(ctx),
		attr.UserID(payload.UserID),
		attr.String("tier", tier.Name),
	)

	return []handlerwrapper.Result{{
		Topic: handlerwrapper.ReplyTopic(ctx, rankevents.ChallengeRetrievedV1),
		Payload: &rankevents.ChallengeRetrievedPayloadV1{
			UserID:    payload.UserID,
			Tier:      tier.Name,
			Challenge: challenge,
		},
	}}, nil
}

// HandleProgressRequest reports the user's rank progress for the current week.
func (h *RankHandlers) HandleProgressRequest(ctx context.Context, payload *rankevents.ProgressRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RankHandlers.HandleProgressRequest")
	defer span.End()

	total, err := h.totals.WeekTotal(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	progress, err := h.service.Progress(total)
	if err != nil {
		h.logger.ErrorContext(ctx, "Rank progress invariant violated",
			attr.ExtractCorrelationID(ctx),
			attr.UserID(payload.UserID),
			attr.Float64("weekly_total", total),
			attr.Error(err),
		)
		return nil, err
	}

	return []handlerwrapper.Result{{
		Topic: handlerwrapper.ReplyTopic(ctx, rankevents.ProgressRetrievedV1),
		Payload: &rankevents.ProgressRetrievedPayloadV1{
			UserID:      payload.UserID,
			WeeklyTotal: total,
			Tier:        progress.Current.Name,
			TierIndex:   progress.Current.Index,
			NextTier:    progress.NextName(),
			KmRemaining: progress.KmRemaining,
		},
	}}, nil
}
