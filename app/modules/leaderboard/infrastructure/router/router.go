package leaderboardrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	leaderboardevents "github.com/Black-And-White-Club/stride-bot/app/events/leaderboard"
	leaderboardhandlers "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/handlers"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// LeaderboardRouter handles Watermill handler registration for leaderboard requests.
type LeaderboardRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer
}

// NewLeaderboardRouter creates a new LeaderboardRouter.
func NewLeaderboardRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
) *LeaderboardRouter {
	return &LeaderboardRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *LeaderboardRouter) Configure(_ context.Context, handlers leaderboardhandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
}

func (r *LeaderboardRouter) registerHandlers(handlers leaderboardhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, leaderboardevents.WeeklyRequestedV1, handlers.HandleWeeklyRequest)
	registerHandler(deps, leaderboardevents.MonthlyRequestedV1, handlers.HandleMonthlyRequest)

	r.logger.Info("Leaderboard module handlers registered successfully")
}

func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "leaderboard." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"",
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(handlerName, deps.logger, deps.tracer, handler),
	)
}

// Close shuts down the router.
func (r *LeaderboardRouter) Close() error {
	return r.router.Close()
}
