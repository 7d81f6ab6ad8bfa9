package testutils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/uptrace/bun"

	activitydb "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/repositories"
)

// ledgerTables are truncated between tests. Rank reference data is seeded by
// migrations and left in place.
var ledgerTables = []string{"activity_records", "users"}

// CleanupDatabase truncates the ledger tables and River's jobs.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(ledgerTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		return fmt.Errorf("failed to cleanup river jobs: %w", err)
	}
	return nil
}

// SeedUser inserts a user with a generated display name.
func SeedUser(ctx context.Context, db bun.IDB, userID int64, joined time.Time) (*activitydb.User, error) {
	name := gofakeit.FirstName()
	user := &activitydb.User{
		UserID:      userID,
		DisplayName: &name,
		JoinedDate:  joined,
	}
	if err := activitydb.NewRepository(db).EnsureUser(ctx, db, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SeedRecord appends one record and keeps the lifetime counter in step.
func SeedRecord(ctx context.Context, db bun.IDB, userID int64, day time.Time, km float64) error {
	repo := activitydb.NewRepository(db)
	if _, err := repo.InsertRecord(ctx, db, &activitydb.ActivityRecord{
		UserID:       userID,
		ActivityDate: day,
		Distance:     km,
	}); err != nil {
		return err
	}
	_, err := repo.IncrementLifetime(ctx, db, userID, km)
	return err
}
