package rankmigrations

import (
	"context"
	"fmt"

	rankdb "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func bound(v float64) *float64 { return &v }

// SeedTiers is the default tier table. Adjacent tiers share their boundary;
// the higher tier owns it.
var SeedTiers = []rankdb.RankTier{
	{Name: "Padawan", LowerBound: 0, UpperBound: bound(10)},
	{Name: "Knight", LowerBound: 10, UpperBound: bound(30)},
	{Name: "Master", LowerBound: 30, UpperBound: bound(60)},
	{Name: "Grand Master", LowerBound: 60, UpperBound: nil},
}

var seedChallenges = []rankdb.Challenge{
	{TierName: "Padawan", Text: "Run 3 km without stopping."},
	{TierName: "Padawan", Text: "Go for a run on two different days this week."},
	{TierName: "Padawan", Text: "Finish a run with a one-minute fast finish."},
	{TierName: "Knight", Text: "Run 5 km at a steady conversational pace."},
	{TierName: "Knight", Text: "Add 6 x 200 m strides to one of your runs."},
	{TierName: "Knight", Text: "Do one run on hills this week."},
	{TierName: "Master", Text: "Complete a 15 km long run."},
	{TierName: "Master", Text: "Run a 20-minute tempo segment."},
	{TierName: "Master", Text: "Try a negative split: second half faster than the first."},
	{TierName: "Grand Master", Text: "Run a half marathon distance this week."},
	{TierName: "Grand Master", Text: "Do an interval session of 5 x 1 km."},
	{TierName: "Grand Master", Text: "Pace a friend through their first 10 km."},
}

var seedMotivations = []rankdb.Motivation{
	{Text: "Every kilometre counts. Keep it up!"},
	{Text: "Consistency beats intensity. See you on the next run."},
	{Text: "The hardest step is out the door, and you took it."},
	{Text: "Today's run is tomorrow's warm-up."},
	{Text: "Small steps, big progress."},
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Seeding rank reference data...")

			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				tiers := append([]rankdb.RankTier(nil), SeedTiers...)
				if _, err := tx.NewInsert().Model(&tiers).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
					return fmt.Errorf("failed to seed rank tiers: %w", err)
				}

				challenges := append([]rankdb.Challenge(nil), seedChallenges...)
				if _, err := tx.NewInsert().Model(&challenges).Exec(ctx); err != nil {
					return fmt.Errorf("failed to seed challenges: %w", err)
				}

				motivations := append([]rankdb.Motivation(nil), seedMotivations...)
				if _, err := tx.NewInsert().Model(&motivations).Exec(ctx); err != nil {
					return fmt.Errorf("failed to seed motivations: %w", err)
				}

				fmt.Println("Rank reference data seeded successfully!")
				return nil
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Removing seeded rank reference data...")
			if _, err := db.ExecContext(ctx, `TRUNCATE TABLE challenges, motivations, rank_tiers RESTART IDENTITY CASCADE;`); err != nil {
				return fmt.Errorf("failed to remove rank reference data: %w", err)
			}
			return nil
		},
	)
}
