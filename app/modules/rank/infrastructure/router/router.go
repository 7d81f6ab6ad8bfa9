package rankrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	rankevents "github.com/Black-And-White-Club/stride-bot/app/events/rank"
	rankhandlers "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/handlers"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// RankRouter handles Watermill handler registration for rank events.
type RankRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer
}

// NewRankRouter creates a new RankRouter.
func NewRankRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
) *RankRouter {
	return &RankRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *RankRouter) Configure(_ context.Context, handlers rankhandlers.Handlers) error {
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

func (r *RankRouter) registerHandlers(handlers rankhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, rankevents.ChallengeRequestedV1, handlers.HandleChallengeRequest)
	registerHandler(deps, rankevents.ProgressRequestedV1, handlers.HandleProgressRequest)

	r.logger.Info("Rank module handlers registered successfully")
}

func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "rank." + topic

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
func (r *RankRouter) Close() error {
	return r.router.Close()
}
