package leaderboardservice

import (
	"context"

	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
)

// Service builds leaderboards and runs the weekly report sweep.
type Service interface {
	// WeeklyLeaderboard ranks users by their current ISO week total.
	WeeklyLeaderboard(ctx context.Context, limit int) (*Board, error)

	// MonthlyLeaderboard ranks users by their current calendar month total.
	MonthlyLeaderboard(ctx context.Context, limit int) (*Board, error)

	// SendWeeklyReport publishes a report to every user active this week,
	// followed by the weekly leaderboard.
	SendWeeklyReport(ctx context.Context) (*ReportSummary, error)

	// SendWeeklyReportAt runs the sweep for the week containing clk's today.
	SendWeeklyReportAt(ctx context.Context, clk clock.Clock) (*ReportSummary, error)
}

// DailyBreakdowns supplies the per-date sums shown in a user report.
type DailyBreakdowns interface {
	DailyBreakdown(ctx context.Context, userID int64, window calendar.Window) ([]activityservice.DailyTotal, error)
}
