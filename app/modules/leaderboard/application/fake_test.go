package leaderboardservice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	leaderboarddb "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/repositories"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Leaderboard Repository
// ------------------------

type FakeLeaderboardRepository struct {
	trace []string

	WindowTotalsFunc func(ctx context.Context, db bun.IDB, start, end string, limit int) ([]leaderboarddb.TotalRow, error)
	UserTotalsFunc   func(ctx context.Context, db bun.IDB, userIDs []int64, start, end string) (map[int64]float64, error)
	ActiveUsersFunc  func(ctx context.Context, db bun.IDB, start, end string) ([]leaderboarddb.TotalRow, error)
}

func NewFakeLeaderboardRepository() *FakeLeaderboardRepository {
	return &FakeLeaderboardRepository{trace: []string{}}
}

func (f *FakeLeaderboardRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeLeaderboardRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLeaderboardRepository) WindowTotals(ctx context.Context, db bun.IDB, start, end string, limit int) ([]leaderboarddb.TotalRow, error) {
	f.record(fmt.Sprintf("WindowTotals:%s..%s", start, end))
	if f.WindowTotalsFunc != nil {
		return f.WindowTotalsFunc(ctx, db, start, end, limit)
	}
	return []leaderboarddb.TotalRow{}, nil
}

func (f *FakeLeaderboardRepository) UserTotals(ctx context.Context, db bun.IDB, userIDs []int64, start, end string) (map[int64]float64, error) {
	f.record(fmt.Sprintf("UserTotals:%s..%s", start, end))
	if f.UserTotalsFunc != nil {
		return f.UserTotalsFunc(ctx, db, userIDs, start, end)
	}
	return map[int64]float64{}, nil
}

func (f *FakeLeaderboardRepository) ActiveUsers(ctx context.Context, db bun.IDB, start, end string) ([]leaderboarddb.TotalRow, error) {
	f.record(fmt.Sprintf("ActiveUsers:%s..%s", start, end))
	if f.ActiveUsersFunc != nil {
		return f.ActiveUsersFunc(ctx, db, start, end)
	}
	return []leaderboarddb.TotalRow{}, nil
}

var _ leaderboarddb.Repository = (*FakeLeaderboardRepository)(nil)

// ------------------------
// Fake Daily Breakdowns
// ------------------------

type FakeDailyBreakdowns struct {
	DailyBreakdownFunc func(ctx context.Context, userID int64, window calendar.Window) ([]activityservice.DailyTotal, error)
}

func (f *FakeDailyBreakdowns) DailyBreakdown(ctx context.Context, userID int64, window calendar.Window) ([]activityservice.DailyTotal, error) {
	if f.DailyBreakdownFunc != nil {
		return f.DailyBreakdownFunc(ctx, userID, window)
	}
	return []activityservice.DailyTotal{}, nil
}

// ------------------------
// Recording Publisher
// ------------------------

type published struct {
	Topic   string
	UUID    string
	Payload json.RawMessage
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published

	// FailFor makes Publish fail when it returns true for a message.
	FailFor func(topic string, payload []byte) bool
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if p.FailFor != nil && p.FailFor(topic, m.Payload) {
			return fmt.Errorf("publish to %s refused", topic)
		}
		p.msgs = append(p.msgs, published{Topic: topic, UUID: m.UUID, Payload: json.RawMessage(m.Payload)})
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Topic)
	}
	return out
}

// ------------------------
// Report metrics
// ------------------------

type countingMetrics struct {
	metrics.NoOpMetrics
	delivered int
	failed    int
}

func (m *countingMetrics) RecordReportDelivered(context.Context) { m.delivered++ }
func (m *countingMetrics) RecordReportFailed(context.Context)    { m.failed++ }

// ------------------------
// Helpers
// ------------------------

func newRankService() rankservice.Service {
	table, err := rankservice.NewTable([]rankservice.Tier{
		{Name: "Padawan", Lower: 0, Upper: ptr(10.0)},
		{Name: "Knight", Lower: 10, Upper: ptr(30.0)},
		{Name: "Master", Lower: 30, Upper: ptr(60.0)},
		{Name: "Grand Master", Lower: 60},
	})
	if err != nil {
		panic(err)
	}
	return rankservice.NewRankService(table, nil, nil, metrics.NoOpMetrics{}, nil, nil)
}

func ptr[T any](v T) *T { return &v }
