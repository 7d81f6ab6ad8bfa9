package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/stride-bot/app/eventbus"
	"github.com/Black-And-White-Club/stride-bot/app/httpapi"
	"github.com/Black-And-White-Club/stride-bot/app/modules/activity"
	"github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard"
	"github.com/Black-And-White-Club/stride-bot/app/modules/rank"
	"github.com/Black-And-White-Club/stride-bot/app/observability"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/Black-And-White-Club/stride-bot/config"
	"github.com/Black-And-White-Club/stride-bot/db/bundb"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/uptrace/bun"
)

// App holds every long-lived component of the service.
type App struct {
	Config            *config.Config
	Observability     observability.Observability
	DB                *bun.DB
	EventBus          eventbus.EventBus
	Router            *message.Router
	HTTPServer        *http.Server
	RankModule        *rank.Module
	ActivityModule    *activity.Module
	LeaderboardModule *leaderboard.Module

	routerCtx    context.Context
	routerCancel context.CancelFunc
	wg           sync.WaitGroup
}

// Initialize connects to Postgres and NATS, migrates, and wires the modules.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs observability.Observability) error {
	app.Config = cfg
	app.Observability = obs
	logger := obs.Provider.Logger

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := bundb.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	app.DB = db

	if cfg.Postgres.AutoMigrate {
		if err := bundb.Migrate(ctx, db, cfg.Postgres.DSN, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus

	if err := eventbus.InitializeStreams(ctx, bus, eventbus.DefaultStreams); err != nil {
		return fmt.Errorf("failed to initialize streams: %w", err)
	}

	if err := app.initializeRouter(logger); err != nil {
		return err
	}

	clk := clock.NewRealClock(loc)

	app.ActivityModule, err = activity.NewActivityModule(ctx, obs, bus, db, clk)
	if err != nil {
		return fmt.Errorf("failed to initialize activity module: %w", err)
	}

	app.RankModule, err = rank.NewRankModule(ctx, obs, bus, app.Router, app.routerCtx, db, app.ActivityModule.ActivityService)
	if err != nil {
		return fmt.Errorf("failed to initialize rank module: %w", err)
	}

	if err := app.ActivityModule.ConfigureRouter(app.routerCtx, app.Router, app.RankModule.RankService); err != nil {
		return err
	}

	app.LeaderboardModule, err = leaderboard.NewLeaderboardModule(ctx, cfg, obs, bus, app.Router, app.routerCtx, db, leaderboard.Deps{
		Ledger: app.ActivityModule.ActivityService,
		Rank:   app.RankModule.RankService,
		Clock:  clk,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}

	app.HTTPServer = httpapi.NewServer(cfg.HTTP.Address, httpapi.NewRouter(httpapi.Deps{
		Activity:    app.ActivityModule.ActivityService,
		Rank:        app.RankModule.RankService,
		Leaderboard: app.LeaderboardModule.LeaderboardService,
		Gatherer:    obs.Registry.Prometheus,
		HealthChecks: []httpapi.HealthCheck{
			{Name: "postgres", Check: db.PingContext},
			{Name: "report_queue", Check: app.LeaderboardModule.QueueService.HealthCheck},
		},
		Logger:       logger,
		DefaultLimit: cfg.Leaderboard.DefaultLimit,
		RateLimit:    cfg.HTTP.RateLimit,
		RateBurst:    cfg.HTTP.RateBurst,

		LeaderboardRateLimit: cfg.HTTP.LeaderboardRateLimit,
		LeaderboardRateBurst: cfg.HTTP.LeaderboardRateBurst,
	}))

	logger.InfoContext(ctx, "Application initialized")
	return nil
}

func (app *App) initializeRouter(logger *slog.Logger) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create message router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2,
			Logger:          watermill.NewSlogLogger(logger),
		}.Middleware,
	)

	app.Router = router
	app.routerCtx, app.routerCancel = context.WithCancel(context.Background())
	return nil
}

// Run starts the router, the modules and the HTTP server, then blocks until
// ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Provider.Logger

	routerErr := make(chan error, 1)
	go func() {
		routerErr <- app.Router.Run(app.routerCtx)
	}()

	select {
	case <-app.Router.Running():
		logger.InfoContext(ctx, "Message router running")
	case err := <-routerErr:
		return fmt.Errorf("message router failed to start: %w", err)
	case <-ctx.Done():
		return nil
	}

	app.wg.Add(3)
	go app.ActivityModule.Run(ctx, &app.wg)
	go app.RankModule.Run(ctx, &app.wg)
	go app.LeaderboardModule.Run(ctx, &app.wg)

	httpErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("address", app.HTTPServer.Addr))
		if err := app.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-httpErr:
		return fmt.Errorf("http server failed: %w", err)
	case err := <-routerErr:
		if err != nil {
			return fmt.Errorf("message router stopped: %w", err)
		}
		return nil
	}
}

// Close shuts components down in reverse start order.
func (app *App) Close() error {
	logger := app.Observability.Provider.Logger
	var errs []error

	if app.HTTPServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := app.HTTPServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
		cancel()
	}

	// The leaderboard module stops River before its context is cancelled.
	if app.LeaderboardModule != nil {
		if err := app.LeaderboardModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("leaderboard module: %w", err))
		}
	}
	if app.RankModule != nil {
		if err := app.RankModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("rank module: %w", err))
		}
	}
	if app.ActivityModule != nil {
		if err := app.ActivityModule.Close(); err != nil {
			errs = append(errs, fmt.Errorf("activity module: %w", err))
		}
	}
	app.wg.Wait()

	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("message router: %w", err))
		}
	}
	if app.routerCancel != nil {
		app.routerCancel()
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("Shutdown completed with errors", attr.Error(err))
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
