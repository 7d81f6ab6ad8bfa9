package activitydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new activity repository.
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

// EnsureUser upserts the user in a single statement.
func (r *Impl) EnsureUser(ctx context.Context, db bun.IDB, user *User) error {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.JoinedDate = CivilDate(user.JoinedDate)

	_, err := db.NewInsert().
		Model(user).
		On("CONFLICT (user_id) DO UPDATE").
		Set("display_name = COALESCE(EXCLUDED.display_name, ?TableAlias.display_name)").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure user %d: %w", user.UserID, err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (r *Impl) GetUser(ctx context.Context, db bun.IDB, userID int64) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	err := db.NewSelect().
		Model(user).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

// InsertRecord appends a record. A record whose uuid is already stored is
// left untouched and reported as not inserted.
func (r *Impl) InsertRecord(ctx context.Context, db bun.IDB, record *ActivityRecord) (bool, error) {
	db = r.resolveDB(db)
	record.ActivityDate = CivilDate(record.ActivityDate)
	res, err := db.NewInsert().
		Model(record).
		On("CONFLICT (uuid) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to insert activity record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert activity record: %w", err)
	}
	return n > 0, nil
}

// IncrementLifetime applies an additive update so concurrent writers for the
// same user serialize on the row lock.
func (r *Impl) IncrementLifetime(ctx context.Context, db bun.IDB, userID int64, km float64) (float64, error) {
	db = r.resolveDB(db)
	var total float64
	err := db.NewUpdate().
		Model((*User)(nil)).
		Set("lifetime_total = lifetime_total + ?", km).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Returning("lifetime_total").
		Scan(ctx, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment lifetime total for user %d: %w", userID, err)
	}
	return total, nil
}

// SumDistance returns 0 when no record falls inside the window.
func (r *Impl) SumDistance(ctx context.Context, db bun.IDB, userID int64, start, end string) (float64, error) {
	db = r.resolveDB(db)
	var total float64
	err := db.NewSelect().
		Model((*ActivityRecord)(nil)).
		ColumnExpr("COALESCE(SUM(distance), 0)").
		Where("user_id = ?", userID).
		Where("activity_date BETWEEN ? AND ?", start, end).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum distance for user %d: %w", userID, err)
	}
	return total, nil
}

// DailyTotals returns only the dates that have records.
func (r *Impl) DailyTotals(ctx context.Context, db bun.IDB, userID int64, start, end string) ([]DailyTotal, error) {
	db = r.resolveDB(db)
	rows := []DailyTotal{}
	err := db.NewSelect().
		Model((*ActivityRecord)(nil)).
		ColumnExpr("activity_date AS day").
		ColumnExpr("SUM(distance) AS total").
		Where("user_id = ?", userID).
		Where("activity_date BETWEEN ? AND ?", start, end).
		GroupExpr("activity_date").
		OrderExpr("activity_date ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily totals for user %d: %w", userID, err)
	}
	return rows, nil
}
