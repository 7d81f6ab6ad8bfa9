package rankhandlers

import (
	"context"
	"fmt"

	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
)

// ------------------------
// Fake Rank Service
// ------------------------

type FakeRankService struct {
	trace []string

	TiersFunc            func() []rankservice.Tier
	DetermineRankFunc    func(weeklyTotal float64) rankservice.Tier
	ProgressFunc         func(weeklyTotal float64) (rankservice.Progress, error)
	RandomChallengeFunc  func(ctx context.Context, tierName string) (string, error)
	RandomMotivationFunc func(ctx context.Context) (string, error)
}

func NewFakeRankService() *FakeRankService {
	return &FakeRankService{trace: []string{}}
}

func (f *FakeRankService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRankService) Tiers() []rankservice.Tier {
	f.record("Tiers")
	if f.TiersFunc != nil {
		return f.TiersFunc()
	}
	return nil
}

func (f *FakeRankService) DetermineRank(weeklyTotal float64) rankservice.Tier {
	f.record("DetermineRank")
	if f.DetermineRankFunc != nil {
		return f.DetermineRankFunc(weeklyTotal)
	}
	return rankservice.Tier{}
}

func (f *FakeRankService) Progress(weeklyTotal float64) (rankservice.Progress, error) {
	f.record("Progress")
	if f.ProgressFunc != nil {
		return f.ProgressFunc(weeklyTotal)
	}
	return rankservice.Progress{}, nil
}

func (f *FakeRankService) RandomChallenge(ctx context.Context, tierName string) (string, error) {
	f.record("RandomChallenge:" + tierName)
	if f.RandomChallengeFunc != nil {
		return f.RandomChallengeFunc(ctx, tierName)
	}
	return "", nil
}

func (f *FakeRankService) RandomMotivation(ctx context.Context) (string, error) {
	f.record("RandomMotivation")
	if f.RandomMotivationFunc != nil {
		return f.RandomMotivationFunc(ctx)
	}
	return "", nil
}

func (f *FakeRankService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ rankservice.Service = (*FakeRankService)(nil)

// ------------------------
// Fake Weekly Totals
// ------------------------

type FakeWeeklyTotals struct {
	totals map[int64]float64
	err    error
}

func (f *FakeWeeklyTotals) WeekTotal(_ context.Context, userID int64) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.totals[userID], nil
}

var _ WeeklyTotals = (*FakeWeeklyTotals)(nil)

// ------------------------
// Helpers
// ------------------------

func ptr[T any](v T) *T { return &v }

func mustTable(tiers ...rankservice.Tier) *rankservice.Table {
	t, err := rankservice.NewTable(tiers)
	if err != nil {
		panic(fmt.Sprintf("bad tier table: %v", err))
	}
	return t
}
