package activitydb

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a user is not found.
var ErrNotFound = errors.New("user not found")

// Repository defines the contract for ledger persistence. Every method takes
// an optional bun.IDB so callers can run it inside a transaction.
type Repository interface {
	// EnsureUser inserts the user if absent. For an existing user a non-nil
	// display name replaces the stored one; the join date never changes.
	EnsureUser(ctx context.Context, db bun.IDB, user *User) error

	// GetUser returns the user or ErrNotFound.
	GetUser(ctx context.Context, db bun.IDB, userID int64) (*User, error)

	// InsertRecord appends a distance entry keyed by record.UUID. It returns
	// false, and changes nothing, when that uuid is already stored.
	InsertRecord(ctx context.Context, db bun.IDB, record *ActivityRecord) (bool, error)

	// IncrementLifetime adds km to the user's lifetime counter and returns the new value.
	IncrementLifetime(ctx context.Context, db bun.IDB, userID int64, km float64) (float64, error)

	// SumDistance sums the user's records dated within [start, end].
	SumDistance(ctx context.Context, db bun.IDB, userID int64, start, end string) (float64, error)

	// DailyTotals groups the user's records within [start, end] by date, ascending.
	DailyTotals(ctx context.Context, db bun.IDB, userID int64, start, end string) ([]DailyTotal, error)
}
