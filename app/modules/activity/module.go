package activity

import (
	"context"
	"fmt"
	"sync"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	activityhandlers "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/handlers"
	activitydb "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/repositories"
	activityrouter "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/router"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/observability"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Module represents the activity module.
type Module struct {
	ActivityService activityservice.Service
	ActivityRouter  *activityrouter.ActivityRouter
	eventBus        eventbus.EventBus
	cancelFunc      context.CancelFunc
	observability   observability.Observability
}

// NewActivityModule creates the ledger service. Handlers are registered by
// ConfigureRouter once the rank service they reply with exists.
func NewActivityModule(
	ctx context.Context,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	db *bun.DB,
	clk clock.Clock,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "activity.NewActivityModule initializing")

	repo := activitydb.NewRepository(db)

	var activityMetrics metrics.ActivityMetrics = metrics.NoOpMetrics{}
	if obs.Registry.Prometheus != nil {
		activityMetrics = metrics.NewActivity(obs.Registry.Prometheus)
	}

	service := activityservice.NewActivityService(repo, logger, activityMetrics, tracer, db, clk)

	return &Module{
		ActivityService: service,
		eventBus:        eventBus,
		observability:   obs,
	}, nil
}

// ConfigureRouter wires the activity handlers into router.
func (m *Module) ConfigureRouter(routerCtx context.Context, router *message.Router, rank rankservice.Service) error {
	logger := m.observability.Provider.Logger
	tracer := m.observability.Registry.Tracer

	handlers := activityhandlers.NewActivityHandlers(m.ActivityService, rank, logger, tracer)
	r := activityrouter.NewActivityRouter(logger, router, m.eventBus, m.eventBus, tracer)
	if err := r.Configure(routerCtx, handlers); err != nil {
		return fmt.Errorf("failed to configure activity router: %w", err)
	}
	m.ActivityRouter = r
	return nil
}

// Run starts the activity module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting activity module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Activity module goroutine stopped")
}

// Close shuts down the activity module.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping activity module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Activity module stopped")
	return nil
}
