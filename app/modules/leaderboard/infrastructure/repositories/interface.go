package leaderboarddb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository reads the ledger tables to build leaderboards. It owns no
// tables of its own.
type Repository interface {
	// WindowTotals groups records dated within [start, end] by user, ordered by
	// total descending then user id ascending, and returns at most limit rows.
	WindowTotals(ctx context.Context, db bun.IDB, start, end string, limit int) ([]TotalRow, error)

	// UserTotals sums the window for each of userIDs. Users without records are absent.
	UserTotals(ctx context.Context, db bun.IDB, userIDs []int64, start, end string) (map[int64]float64, error)

	// ActiveUsers returns every user with records in the window, by user id.
	ActiveUsers(ctx context.Context, db bun.IDB, start, end string) ([]TotalRow, error)
}
