package httpapi

import (
	"context"

	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	leaderboardservice "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/application"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/google/uuid"
)

// ------------------------
// Fake Activity Service
// ------------------------

type FakeActivityService struct {
	GetStatsFunc func(ctx context.Context, userID int64) (*activityservice.Stats, error)
}

func (f *FakeActivityService) EnsureUser(context.Context, int64, *string) error { return nil }

func (f *FakeActivityService) RecordActivity(context.Context, uuid.UUID, int64, float64) (*activityservice.RecordResult, error) {
	return &activityservice.RecordResult{}, nil
}

func (f *FakeActivityService) WeekTotal(context.Context, int64) (float64, error)     { return 0, nil }
func (f *FakeActivityService) MonthTotal(context.Context, int64) (float64, error)    { return 0, nil }
func (f *FakeActivityService) LifetimeTotal(context.Context, int64) (float64, error) { return 0, nil }

func (f *FakeActivityService) HasActivityThisWeek(context.Context, int64) (bool, error) {
	return false, nil
}

func (f *FakeActivityService) DailyBreakdown(context.Context, int64, calendar.Window) ([]activityservice.DailyTotal, error) {
	return []activityservice.DailyTotal{}, nil
}

func (f *FakeActivityService) GetStats(ctx context.Context, userID int64) (*activityservice.Stats, error) {
	if f.GetStatsFunc != nil {
		return f.GetStatsFunc(ctx, userID)
	}
	return &activityservice.Stats{UserID: userID}, nil
}

var _ activityservice.Service = (*FakeActivityService)(nil)

// ------------------------
// Fake Leaderboard Service
// ------------------------

type FakeLeaderboardService struct {
	limits []int

	BoardFunc func(ctx context.Context, limit int) (*leaderboardservice.Board, error)
}

func (f *FakeLeaderboardService) board(ctx context.Context, limit int) (*leaderboardservice.Board, error) {
	f.limits = append(f.limits, limit)
	if f.BoardFunc != nil {
		return f.BoardFunc(ctx, limit)
	}
	return &leaderboardservice.Board{Entries: []leaderboardservice.Entry{}}, nil
}

func (f *FakeLeaderboardService) WeeklyLeaderboard(ctx context.Context, limit int) (*leaderboardservice.Board, error) {
	return f.board(ctx, limit)
}

func (f *FakeLeaderboardService) MonthlyLeaderboard(ctx context.Context, limit int) (*leaderboardservice.Board, error) {
	return f.board(ctx, limit)
}

func (f *FakeLeaderboardService) SendWeeklyReport(context.Context) (*leaderboardservice.ReportSummary, error) {
	return &leaderboardservice.ReportSummary{}, nil
}

func (f *FakeLeaderboardService) SendWeeklyReportAt(context.Context, clock.Clock) (*leaderboardservice.ReportSummary, error) {
	return &leaderboardservice.ReportSummary{}, nil
}

var _ leaderboardservice.Service = (*FakeLeaderboardService)(nil)

func newRankService() rankservice.Service {
	table, err := rankservice.NewTable([]rankservice.Tier{
		{Name: "Padawan", Lower: 0, Upper: ptr(10.0)},
		{Name: "Knight", Lower: 10, Upper: ptr(30.0)},
		{Name: "Master", Lower: 30, Upper: ptr(60.0)},
		{Name: "Grand Master", Lower: 60},
	})
	if err != nil {
		panic(err)
	}
	return rankservice.NewRankService(table, nil, nil, metrics.NoOpMetrics{}, nil, nil)
}

func ptr[T any](v T) *T { return &v }
