package activityrouter

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	activityevents "github.com/Black-And-White-Club/stride-bot/app/events/activity"
	activityhandlers "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/handlers"
	"github.com/Black-And-White-Club/stride-bot/app/shared/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
)

// ActivityRouter handles Watermill handler registration for activity events.
type ActivityRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer
}

// NewActivityRouter creates a new ActivityRouter.
func NewActivityRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
) *ActivityRouter {
	return &ActivityRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *ActivityRouter) Configure(_ context.Context, handlers activityhandlers.Handlers) error {
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

func (r *ActivityRouter) registerHandlers(handlers activityhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering activity module handlers",
		slog.String("ensure_subject", activityevents.UserEnsureRequestedV1),
		slog.String("record_subject", activityevents.RecordRequestedV1),
		slog.String("stats_subject", activityevents.StatsRequestedV1),
	)

	registerHandler(deps, activityevents.UserEnsureRequestedV1, handlers.HandleEnsureUser)
	registerHandler(deps, activityevents.RecordRequestedV1, handlers.HandleRecordRequest)
	registerHandler(deps, activityevents.StatsRequestedV1, handlers.HandleStatsRequest)

	r.logger.Info("Activity module handlers registered successfully")
}

func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "activity." + topic

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
func (r *ActivityRouter) Close() error {
	return r.router.Close()
}
