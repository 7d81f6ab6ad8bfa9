package leaderboardhandlers

import (
	"context"

	leaderboardservice "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
)

// ------------------------
// Fake Leaderboard Service
// ------------------------

type FakeLeaderboardService struct {
	trace []string

	WeeklyLeaderboardFunc  func(ctx context.Context, limit int) (*leaderboardservice.Board, error)
	MonthlyLeaderboardFunc func(ctx context.Context, limit int) (*leaderboardservice.Board, error)
}

func NewFakeLeaderboardService() *FakeLeaderboardService {
	return &FakeLeaderboardService{trace: []string{}}
}

func (f *FakeLeaderboardService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeLeaderboardService) WeeklyLeaderboard(ctx context.Context, limit int) (*leaderboardservice.Board, error) {
	f.record("WeeklyLeaderboard")
	if f.WeeklyLeaderboardFunc != nil {
		return f.WeeklyLeaderboardFunc(ctx, limit)
	}
	return &leaderboardservice.Board{Entries: []leaderboardservice.Entry{}}, nil
}

func (f *FakeLeaderboardService) MonthlyLeaderboard(ctx context.Context, limit int) (*leaderboardservice.Board, error) {
	f.record("MonthlyLeaderboard")
	if f.MonthlyLeaderboardFunc != nil {
		return f.MonthlyLeaderboardFunc(ctx, limit)
	}
	return &leaderboardservice.Board{Entries: []leaderboardservice.Entry{}}, nil
}

func (f *FakeLeaderboardService) SendWeeklyReport(context.Context) (*leaderboardservice.ReportSummary, error) {
	f.record("SendWeeklyReport")
	return &leaderboardservice.ReportSummary{}, nil
}

func (f *FakeLeaderboardService) SendWeeklyReportAt(context.Context, clock.Clock) (*leaderboardservice.ReportSummary, error) {
	f.record("SendWeeklyReportAt")
	return &leaderboardservice.ReportSummary{}, nil
}

var _ leaderboardservice.Service = (*FakeLeaderboardService)(nil)

func ptr[T any](v T) *T { return &v }
