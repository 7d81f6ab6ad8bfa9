package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	leaderboardservice "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/application"
	leaderboardhandlers "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/handlers"
	leaderboardqueue "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/queue"
	leaderboarddb "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/repositories"
	leaderboardrouter "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/router"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/observability"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/Black-And-White-Club/stride-bot/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Module represents the leaderboard module.
type Module struct {
	LeaderboardService leaderboardservice.Service
	LeaderboardRouter  *leaderboardrouter.LeaderboardRouter
	QueueService       leaderboardqueue.QueueService
	cancelFunc         context.CancelFunc
	observability      observability.Observability
}

// Deps are the services the leaderboard reads from.
type Deps struct {
	Ledger leaderboardservice.DailyBreakdowns
	Rank   rankservice.Service
	Clock  clock.Clock
}

// NewLeaderboardModule wires the leaderboard service, its request handlers and
// the River queue that runs the weekly report. A nil router skips handler
// registration.
func NewLeaderboardModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	routerCtx context.Context,
	db *bun.DB,
	deps Deps,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "leaderboard.NewLeaderboardModule initializing")

	var leaderboardMetrics metrics.LeaderboardMetrics = metrics.NoOpMetrics{}
	if obs.Registry.Prometheus != nil {
		leaderboardMetrics = metrics.NewLeaderboard(obs.Registry.Prometheus)
	}

	service := leaderboardservice.NewLeaderboardService(
		leaderboarddb.NewRepository(db),
		deps.Ledger,
		deps.Rank,
		eventBus,
		logger,
		leaderboardMetrics,
		tracer,
		db,
		deps.Clock,
		leaderboardservice.Options{
			MonthlyTierFromMonthlyTotal: cfg.Leaderboard.MonthlyTierFromMonthlyTotal,
			ReportLimit:                 cfg.Report.Limit,
			DeliveryRate:                cfg.Report.DeliveryRate,
			DeliveryBurst:               cfg.Report.DeliveryBurst,
		},
	)

	m := &Module{
		LeaderboardService: service,
		observability:      obs,
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	schedule, err := reportSchedule(cfg, loc)
	if err != nil {
		return nil, err
	}
	queueService, err := leaderboardqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, leaderboardMetrics, service, loc, schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to create report queue: %w", err)
	}
	m.QueueService = queueService

	if router == nil {
		return m, nil
	}

	handlers := leaderboardhandlers.NewLeaderboardHandlers(service, cfg.Leaderboard.DefaultLimit, logger, tracer)
	r := leaderboardrouter.NewLeaderboardRouter(logger, router, eventBus, eventBus, tracer)
	if err := r.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure leaderboard router: %w", err)
	}
	m.LeaderboardRouter = r
	return m, nil
}

// reportSchedule returns nil when the weekly report is disabled.
func reportSchedule(cfg *config.Config, loc *time.Location) (*leaderboardqueue.WeeklySchedule, error) {
	if !cfg.Report.Enabled {
		return nil, nil
	}
	weekday, err := cfg.ReportWeekday()
	if err != nil {
		return nil, err
	}
	return &leaderboardqueue.WeeklySchedule{
		Weekday:  weekday,
		Hour:     cfg.Report.Hour,
		Minute:   cfg.Report.Minute,
		Location: loc,
	}, nil
}

// Run starts the report queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	// River is detached from ctx and only shut down by Close.
	if m.QueueService != nil {
		if err := m.QueueService.Start(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Report queue failed to start", attr.Error(err))
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Leaderboard module goroutine stopped")
}

// Close stops the report queue, letting a running sweep finish within the grace period.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping leaderboard module")

	var stopErr error
	if m.QueueService != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if stopErr = m.QueueService.Stop(stopCtx); stopErr != nil {
			logger.Error("Failed to stop report queue", attr.Error(stopErr))
		}
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if stopErr != nil {
		return stopErr
	}

	logger.Info("Leaderboard module stopped")
	return nil
}
