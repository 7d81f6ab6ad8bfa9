package leaderboardhandlers

import (
	"context"
	"log/slog"

	leaderboardevents "github.com/Black-And-White-Club/stride-bot/app/events/leaderboard"
	leaderboardservice "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// LeaderboardHandlers implements the Handlers interface.
type LeaderboardHandlers struct {
	service      leaderboardservice.Service
	defaultLimit int
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewLeaderboardHandlers creates a new LeaderboardHandlers instance.
func NewLeaderboardHandlers(
	service leaderboardservice.Service,
	defaultLimit int,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &LeaderboardHandlers{
		service:      service,
		defaultLimit: defaultLimit,
		logger:       logger,
		tracer:       tracer,
	}
}

func (h *LeaderboardHandlers) limit(payload *leaderboardevents.RequestedPayloadV1) int {
	if payload.Limit == nil {
		return h.defaultLimit
	}
	return *payload.Limit
}

// HandleWeeklyRequest replies with the current week's leaderboard.
func (h *LeaderboardHandlers) HandleWeeklyRequest(ctx context.Context, payload *leaderboardevents.RequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "LeaderboardHandlers.HandleWeeklyRequest")
	defer span.End()

	board, err := h.service.WeeklyLeaderboard(ctx, h.limit(payload))
	if err != nil {
		return nil, err
	}
	return h.reply(ctx, leaderboardevents.WeeklyRetrievedV1, board), nil
}

// HandleMonthlyRequest replies with the current month's leaderboard.
func (h *LeaderboardHandlers) HandleMonthlyRequest(ctx context.Context, payload *leaderboardevents.RequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "LeaderboardHandlers.HandleMonthlyRequest")
	defer span.End()

	board, err := h.service.MonthlyLeaderboard(ctx, h.limit(payload))
	if err != nil {
		return nil, err
	}
	return h.reply(ctx, leaderboardevents.MonthlyRetrievedV1, board), nil
}

func (h *LeaderboardHandlers) reply(ctx context.Context, topic string, board *leaderboardservice.Board) []handlerwrapper.Result {
	payload := leaderboardservice.BoardPayloadV1(board)
	h.logger.DebugContext(ctx, "Leaderboard retrieved",
		attr.ExtractCorrelationID(ctx),
		attr.String("topic", topic),
		attr.Int("entries", len(payload.Entries)),
	)
	return []handlerwrapper.Result{{
		Topic:   handlerwrapper.ReplyTopic(ctx, topic),
		Payload: &payload,
	}}
}
