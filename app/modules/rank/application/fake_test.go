package rankservice

import (
	"context"

	rankdb "github.com/Black-And-White-Club/stride-bot/app/modules/rank/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Rank Repository
// ------------------------

type FakeRankRepository struct {
	trace []string

	ListTiersFunc         func(ctx context.Context, db bun.IDB) ([]rankdb.RankTier, error)
	ChallengesForTierFunc func(ctx context.Context, db bun.IDB, tierName string) ([]string, error)
	MotivationsFunc       func(ctx context.Context, db bun.IDB) ([]string, error)
}

func NewFakeRankRepository() *FakeRankRepository {
	return &FakeRankRepository{trace: []string{}}
}

func (f *FakeRankRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRankRepository) ListTiers(ctx context.Context, db bun.IDB) ([]rankdb.RankTier, error) {
	f.record("ListTiers")
	if f.ListTiersFunc != nil {
		return f.ListTiersFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeRankRepository) ChallengesForTier(ctx context.Context, db bun.IDB, tierName string) ([]string, error) {
	f.record("ChallengesForTier:" + tierName)
	if f.ChallengesForTierFunc != nil {
		return f.ChallengesForTierFunc(ctx, db, tierName)
	}
	return []string{}, nil
}

func (f *FakeRankRepository) Motivations(ctx context.Context, db bun.IDB) ([]string, error) {
	f.record("Motivations")
	if f.MotivationsFunc != nil {
		return f.MotivationsFunc(ctx, db)
	}
	return []string{}, nil
}

func (f *FakeRankRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ rankdb.Repository = (*FakeRankRepository)(nil)
