package rankdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new rank repository.
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

// ListTiers returns every tier ordered by lower bound ascending.
func (r *Impl) ListTiers(ctx context.Context, db bun.IDB) ([]RankTier, error) {
	db = r.resolveDB(db)
	var tiers []RankTier
	err := db.NewSelect().
		Model(&tiers).
		OrderExpr("lower_bound ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rank tiers: %w", err)
	}
	return tiers, nil
}

// ChallengesForTier returns the challenge texts attached to tierName.
func (r *Impl) ChallengesForTier(ctx context.Context, db bun.IDB, tierName string) ([]string, error) {
	db = r.resolveDB(db)
	texts := []string{}
	err := db.NewSelect().
		Model((*Challenge)(nil)).
		Column("text").
		Where("tier_name = ?", tierName).
		OrderExpr("id ASC").
		Scan(ctx, &texts)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges for tier %q: %w", tierName, err)
	}
	return texts, nil
}

// Motivations returns the whole motivation pool.
func (r *Impl) Motivations(ctx context.Context, db bun.IDB) ([]string, error) {
	db = r.resolveDB(db)
	texts := []string{}
	err := db.NewSelect().
		Model((*Motivation)(nil)).
		Column("text").
		OrderExpr("id ASC").
		Scan(ctx, &texts)
	if err != nil {
		return nil, fmt.Errorf("failed to list motivations: %w", err)
	}
	return texts, nil
}
