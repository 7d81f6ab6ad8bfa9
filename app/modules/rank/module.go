package rank

import (
	"context"
	"fmt"
	"sync"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	rankhandlers "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/handlers"
	rankdb "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/repositories"
	rankrouter "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/router"
	"github.com/Black-And-White-Club/stride-bot/app/observability"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Module represents the rank module.
type Module struct {
	RankService   rankservice.Service
	RankRouter    *rankrouter.RankRouter
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewRankModule loads the tier table and wires the rank handlers. A table
// that fails validation aborts startup.
func NewRankModule(
	ctx context.Context,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	routerCtx context.Context,
	db *bun.DB,
	totals rankhandlers.WeeklyTotals,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "rank.NewRankModule initializing")

	repo := rankdb.NewRepository(db)

	table, err := rankservice.LoadTable(ctx, repo, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load rank tier table: %w", err)
	}

	var opMetrics metrics.OperationMetrics = metrics.NoOpMetrics{}
	if obs.Registry.Prometheus != nil {
		opMetrics = metrics.NewOperation(obs.Registry.Prometheus, "rank")
	}

	service := rankservice.NewRankService(table, repo, logger, opMetrics, tracer, nil)

	m := &Module{
		RankService:   service,
		observability: obs,
	}

	// Without a router the module only serves the service to other modules.
	if router == nil {
		return m, nil
	}

	handlers := rankhandlers.NewRankHandlers(service, totals, logger, tracer)
	rankRouter := rankrouter.NewRankRouter(logger, router, eventBus, eventBus, tracer)
	if err := rankRouter.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure rank router: %w", err)
	}
	m.RankRouter = rankRouter
	return m, nil
}

// Run starts the rank module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting rank module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Rank module goroutine stopped")
}

// Close shuts down the rank module.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping rank module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Rank module stopped")
	return nil
}
