package rankmigrations

import (
	"context"
	"fmt"

	rankdb "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating rank reference tables...")

			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				if _, err := tx.NewCreateTable().Model((*rankdb.RankTier)(nil)).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create rank_tiers table: %w", err)
				}

				if _, err := tx.ExecContext(ctx, `
					ALTER TABLE rank_tiers
					ADD CONSTRAINT rank_tiers_bounds_check
					CHECK (upper_bound IS NULL OR upper_bound >= lower_bound);
				`); err != nil {
					return fmt.Errorf("failed to add rank_tiers bounds check: %w", err)
				}

				if _, err := tx.ExecContext(ctx, `
					CREATE TABLE IF NOT EXISTS challenges (
						id BIGSERIAL PRIMARY KEY,
						tier_name VARCHAR(64) NOT NULL REFERENCES rank_tiers(name) ON UPDATE CASCADE ON DELETE CASCADE,
						text TEXT NOT NULL
					);
					CREATE INDEX IF NOT EXISTS idx_challenges_tier_name ON challenges(tier_name);
				`); err != nil {
					return fmt.Errorf("failed to create challenges table: %w", err)
				}

				if _, err := tx.NewCreateTable().Model((*rankdb.Motivation)(nil)).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create motivations table: %w", err)
				}

				fmt.Println("Rank reference tables created successfully!")
				return nil
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Dropping rank reference tables...")
			if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS challenges, motivations, rank_tiers CASCADE;`); err != nil {
				return fmt.Errorf("failed to drop rank reference tables: %w", err)
			}
			return nil
		},
	)
}
