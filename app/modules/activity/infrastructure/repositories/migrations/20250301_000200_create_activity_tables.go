package activitymigrations

import (
	"context"
	"fmt"

	activitydb "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating users and activity_records tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().
				Model((*activitydb.User)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create users table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				ALTER TABLE users
				ADD CONSTRAINT users_lifetime_total_non_negative CHECK (lifetime_total >= 0);
			`); err != nil {
				return fmt.Errorf("failed to add users constraint: %w", err)
			}

			if _, err := tx.NewCreateTable().
				Model((*activitydb.ActivityRecord)(nil)).
				IfNotExists().
				ForeignKey(`("user_id") REFERENCES "users" ("user_id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create activity_records table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				ALTER TABLE activity_records
				ADD CONSTRAINT activity_records_distance_positive CHECK (distance > 0);
				CREATE INDEX IF NOT EXISTS idx_activity_records_user_date ON activity_records(user_id, activity_date);
				CREATE INDEX IF NOT EXISTS idx_activity_records_date ON activity_records(activity_date);
			`); err != nil {
				return fmt.Errorf("failed to add activity_records constraints: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping activity_records and users tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS activity_records;`); err != nil {
				return fmt.Errorf("failed to drop activity_records table: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS users;`); err != nil {
				return fmt.Errorf("failed to drop users table: %w", err)
			}
			return nil
		})
	})
}
