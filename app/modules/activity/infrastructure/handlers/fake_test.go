package activityhandlers

import (
	"context"

	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/google/uuid"
)

// ------------------------
// Fake Activity Service
// ------------------------

type FakeActivityService struct {
	trace []string

	EnsureUserFunc          func(ctx context.Context, userID int64, displayName *string) error
	RecordActivityFunc      func(ctx context.Context, recordID uuid.UUID, userID int64, distance float64) (*activityservice.RecordResult, error)
	WeekTotalFunc           func(ctx context.Context, userID int64) (float64, error)
	MonthTotalFunc          func(ctx context.Context, userID int64) (float64, error)
	LifetimeTotalFunc       func(ctx context.Context, userID int64) (float64, error)
	HasActivityThisWeekFunc func(ctx context.Context, userID int64) (bool, error)
	DailyBreakdownFunc      func(ctx context.Context, userID int64, window calendar.Window) ([]activityservice.DailyTotal, error)
	GetStatsFunc            func(ctx context.Context, userID int64) (*activityservice.Stats, error)
}

func NewFakeActivityService() *FakeActivityService {
	return &FakeActivityService{trace: []string{}}
}

func (f *FakeActivityService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeActivityService) EnsureUser(ctx context.Context, userID int64, displayName *string) error {
	f.record("EnsureUser")
	if f.EnsureUserFunc != nil {
		return f.EnsureUserFunc(ctx, userID, displayName)
	}
	return nil
}

func (f *FakeActivityService) RecordActivity(ctx context.Context, recordID uuid.UUID, userID int64, distance float64) (*activityservice.RecordResult, error) {
	f.record("RecordActivity")
	if f.RecordActivityFunc != nil {
		return f.RecordActivityFunc(ctx, recordID, userID, distance)
	}
	return &activityservice.RecordResult{Distance: distance, WeeklyTotal: distance, LifetimeTotal: distance}, nil
}

func (f *FakeActivityService) WeekTotal(ctx context.Context, userID int64) (float64, error) {
	f.record("WeekTotal")
	if f.WeekTotalFunc != nil {
		return f.WeekTotalFunc(ctx, userID)
	}
	return 0, nil
}

func (f *FakeActivityService) MonthTotal(ctx context.Context, userID int64) (float64, error) {
	f.record("MonthTotal")
	if f.MonthTotalFunc != nil {
		return f.MonthTotalFunc(ctx, userID)
	}
	return 0, nil
}

func (f *FakeActivityService) LifetimeTotal(ctx context.Context, userID int64) (float64, error) {
	f.record("LifetimeTotal")
	if f.LifetimeTotalFunc != nil {
		return f.LifetimeTotalFunc(ctx, userID)
	}
	return 0, nil
}

func (f *FakeActivityService) HasActivityThisWeek(ctx context.Context, userID int64) (bool, error) {
	f.record("HasActivityThisWeek")
	if f.HasActivityThisWeekFunc != nil {
		return f.HasActivityThisWeekFunc(ctx, userID)
	}
	return false, nil
}

func (f *FakeActivityService) DailyBreakdown(ctx context.Context, userID int64, window calendar.Window) ([]activityservice.DailyTotal, error) {
	f.record("DailyBreakdown")
	if f.DailyBreakdownFunc != nil {
		return f.DailyBreakdownFunc(ctx, userID, window)
	}
	return nil, nil
}

func (f *FakeActivityService) GetStats(ctx context.Context, userID int64) (*activityservice.Stats, error) {
	f.record("GetStats")
	if f.GetStatsFunc != nil {
		return f.GetStatsFunc(ctx, userID)
	}
	return &activityservice.Stats{UserID: userID}, nil
}

func (f *FakeActivityService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ activityservice.Service = (*FakeActivityService)(nil)

// ------------------------
// Fake Rank Service
// ------------------------

// FakeRankService delegates the pure operations to a real table.
type FakeRankService struct {
	table *rankservice.Table

	ProgressFunc         func(weeklyTotal float64) (rankservice.Progress, error)
	RandomMotivationFunc func(ctx context.Context) (string, error)
}

func NewFakeRankService() *FakeRankService {
	table, err := rankservice.NewTable([]rankservice.Tier{
		{Name: "Padawan", Lower: 0, Upper: ptr(10.0)},
		{Name: "Knight", Lower: 10, Upper: ptr(30.0)},
		{Name: "Master", Lower: 30, Upper: ptr(60.0)},
		{Name: "Grand Master", Lower: 60},
	})
	if err != nil {
		panic(err)
	}
	return &FakeRankService{table: table}
}

func (f *FakeRankService) Tiers() []rankservice.Tier { return f.table.Tiers() }

func (f *FakeRankService) DetermineRank(weeklyTotal float64) rankservice.Tier {
	return f.table.DetermineRank(weeklyTotal)
}

func (f *FakeRankService) Progress(weeklyTotal float64) (rankservice.Progress, error) {
	if f.ProgressFunc != nil {
		return f.ProgressFunc(weeklyTotal)
	}
	return f.table.Progress(weeklyTotal)
}

func (f *FakeRankService) RandomChallenge(context.Context, string) (string, error) {
	return rankservice.DefaultChallenge, nil
}

func (f *FakeRankService) RandomMotivation(ctx context.Context) (string, error) {
	if f.RandomMotivationFunc != nil {
		return f.RandomMotivationFunc(ctx)
	}
	return "Go!", nil
}

var _ rankservice.Service = (*FakeRankService)(nil)

func ptr[T any](v T) *T { return &v }
