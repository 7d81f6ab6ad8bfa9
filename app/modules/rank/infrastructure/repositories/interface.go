package rankdb

import (
	"context"

	"github.com/uptrace/bun"
)

// Repository defines the contract for rank reference data.
// All methods accept an optional bun.IDB; nil uses the repository's default connection.
type Repository interface {
	// ListTiers returns every tier ordered by lower bound ascending.
	ListTiers(ctx context.Context, db bun.IDB) ([]RankTier, error)

	// ChallengesForTier returns the challenge texts of a tier. An unknown tier
	// or a tier without challenges yields an empty slice, not an error.
	ChallengesForTier(ctx context.Context, db bun.IDB, tierName string) ([]string, error)

	// Motivations returns the whole motivation pool.
	Motivations(ctx context.Context, db bun.IDB) ([]string, error)
}
