package leaderboarddb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new leaderboard repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) windowQuery(db bun.IDB, start, end string) *bun.SelectQuery {
	return db.NewSelect().
		TableExpr("activity_records AS ar").
		Join("JOIN users AS u ON u.user_id = ar.user_id").
		ColumnExpr("ar.user_id AS user_id").
		ColumnExpr("u.display_name AS display_name").
		ColumnExpr("SUM(ar.distance) AS total").
		Where("ar.activity_date BETWEEN ? AND ?", start, end).
		GroupExpr("ar.user_id, u.display_name")
}

// WindowTotals returns an empty slice for a non-positive limit.
func (r *Impl) WindowTotals(ctx context.Context, db bun.IDB, start, end string, limit int) ([]TotalRow, error) {
	rows := []TotalRow{}
	if limit <= 0 {
		return rows, nil
	}
	db = r.resolveDB(db)
	err := r.windowQuery(db, start, end).
		OrderExpr("total DESC, ar.user_id ASC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for %s..%s: %w", start, end, err)
	}
	return rows, nil
}

// UserTotals sums the window for a set of users.
func (r *Impl) UserTotals(ctx context.Context, db bun.IDB, userIDs []int64, start, end string) (map[int64]float64, error) {
	out := make(map[int64]float64, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	db = r.resolveDB(db)
	var rows []TotalRow
	err := r.windowQuery(db, start, end).
		Where("ar.user_id IN (?)", bun.In(userIDs)).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load user totals for %s..%s: %w", start, end, err)
	}
	for _, row := range rows {
		out[row.UserID] = row.Total
	}
	return out, nil
}

// ActiveUsers lists the users to include in a weekly report.
func (r *Impl) ActiveUsers(ctx context.Context, db bun.IDB, start, end string) ([]TotalRow, error) {
	db = r.resolveDB(db)
	rows := []TotalRow{}
	err := r.windowQuery(db, start, end).
		Having("SUM(ar.distance) > 0").
		OrderExpr("ar.user_id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users for %s..%s: %w", start, end, err)
	}
	return rows, nil
}
