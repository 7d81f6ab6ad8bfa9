// Package httpapi serves the read-only JSON API, health and metrics endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	leaderboardservice "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/application"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// HealthCheck is one dependency checked by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Activity     activityservice.Service
	Rank         rankservice.Service
	Leaderboard  leaderboardservice.Service
	Gatherer     prometheus.Gatherer
	HealthChecks []HealthCheck
	Logger       *slog.Logger
	DefaultLimit int
	// RateLimit and RateBurst budget single-user reads and rank lookups.
	RateLimit float64
	RateBurst int
	// LeaderboardRateLimit and LeaderboardRateBurst budget the leaderboard
	// endpoints. Zero falls back to the read budget.
	LeaderboardRateLimit float64
	LeaderboardRateBurst int
}

// NewRouter builds the chi router. /healthz and /metrics are not rate limited.
func NewRouter(deps Deps) chi.Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	reads := RateClass{Name: "read", Limit: rate.Limit(deps.RateLimit), Burst: deps.RateBurst}
	boards := RateClass{Name: "leaderboard", Limit: rate.Limit(deps.LeaderboardRateLimit), Burst: deps.LeaderboardRateBurst}
	if boards.Limit <= 0 || boards.Burst <= 0 {
		boards.Limit, boards.Burst = reads.Limit, reads.Burst
	}
	limiter := NewClientLimiter(clientIdleTTL)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit(reads))
			r.Get("/users/{userID}/stats", h.userStats)
			r.Get("/ranks", h.ranks)
			r.Get("/ranks/progress", h.rankProgress)
		})
		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit(boards))
			r.Get("/leaderboard/weekly", h.weeklyLeaderboard)
			r.Get("/leaderboard/monthly", h.monthlyLeaderboard)
		})
	})

	return r
}

// NewServer wraps handler in an http.Server with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
