package leaderboardservice

import (
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
)

// Entry is one ranked row of a leaderboard. MonthlyTotal and WeeklyTotal are
// only set on monthly boards, where Total is the monthly sum.
type Entry struct {
	Position     int
	UserID       int64
	DisplayName  string
	Total        float64
	Tier         string
	MonthlyTotal *float64
	WeeklyTotal  *float64
}

// Board is a leaderboard over a calendar window.
type Board struct {
	Window  calendar.Window
	Entries []Entry
}

// ReportSummary is the outcome of one weekly report sweep.
type ReportSummary struct {
	Week                 calendar.Window
	Delivered            int
	Failed               int
	LeaderboardPublished bool
}

// Options tune leaderboard construction and report delivery.
type Options struct {
	// MonthlyTierFromMonthlyTotal ranks monthly entries by the monthly total.
	// By default the tier follows the user's weekly total.
	MonthlyTierFromMonthlyTotal bool
	// ReportLimit caps the leaderboard broadcast at the end of a sweep.
	ReportLimit int
	// DeliveryRate is the per-second ceiling on report publishes.
	DeliveryRate float64
	// DeliveryBurst is the limiter bucket size.
	DeliveryBurst int
}
