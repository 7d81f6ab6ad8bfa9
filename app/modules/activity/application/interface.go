package activityservice

import (
	"context"

	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/google/uuid"
)

// Service is the activity ledger.
type Service interface {
	// EnsureUser creates the user if absent and refreshes a supplied display name.
	EnsureUser(ctx context.Context, userID int64, displayName *string) error

	// RecordActivity appends a distance entry dated today and returns the new
	// totals. recordID keys the entry: a second call with the same id appends
	// nothing and reports the current totals with Duplicate set. uuid.Nil
	// always appends.
	RecordActivity(ctx context.Context, recordID uuid.UUID, userID int64, distance float64) (*RecordResult, error)

	// WeekTotal sums the user's records in the current ISO week.
	WeekTotal(ctx context.Context, userID int64) (float64, error)

	// MonthTotal sums the user's records in the current calendar month.
	MonthTotal(ctx context.Context, userID int64) (float64, error)

	// LifetimeTotal returns the user's lifetime counter.
	LifetimeTotal(ctx context.Context, userID int64) (float64, error)

	// HasActivityThisWeek reports whether the current week's total is positive.
	HasActivityThisWeek(ctx context.Context, userID int64) (bool, error)

	// DailyBreakdown lists the dates of window that have records, ascending.
	DailyBreakdown(ctx context.Context, userID int64, window calendar.Window) ([]DailyTotal, error)

	// GetStats returns the user's aggregates, creating the user if needed.
	GetStats(ctx context.Context, userID int64) (*Stats, error)
}
