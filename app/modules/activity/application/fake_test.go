package activityservice

import (
	"context"
	"sort"
	"sync"
	"time"

	activitydb "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Activity Repository
// ------------------------

type FakeActivityRepository struct {
	trace []string

	EnsureUserFunc        func(ctx context.Context, db bun.IDB, user *activitydb.User) error
	GetUserFunc           func(ctx context.Context, db bun.IDB, userID int64) (*activitydb.User, error)
	InsertRecordFunc      func(ctx context.Context, db bun.IDB, record *activitydb.ActivityRecord) (bool, error)
	IncrementLifetimeFunc func(ctx context.Context, db bun.IDB, userID int64, km float64) (float64, error)
	SumDistanceFunc       func(ctx context.Context, db bun.IDB, userID int64, start, end string) (float64, error)
	DailyTotalsFunc       func(ctx context.Context, db bun.IDB, userID int64, start, end string) ([]activitydb.DailyTotal, error)
}

func NewFakeActivityRepository() *FakeActivityRepository {
	return &FakeActivityRepository{trace: []string{}}
}

func (f *FakeActivityRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeActivityRepository) EnsureUser(ctx context.Context, db bun.IDB, user *activitydb.User) error {
	f.record("EnsureUser")
	if f.EnsureUserFunc != nil {
		return f.EnsureUserFunc(ctx, db, user)
	}
	return nil
}

func (f *FakeActivityRepository) GetUser(ctx context.Context, db bun.IDB, userID int64) (*activitydb.User, error) {
	f.record("GetUser")
	if f.GetUserFunc != nil {
		return f.GetUserFunc(ctx, db, userID)
	}
	return nil, activitydb.ErrNotFound
}

func (f *FakeActivityRepository) InsertRecord(ctx context.Context, db bun.IDB, record *activitydb.ActivityRecord) (bool, error) {
	f.record("InsertRecord")
	if f.InsertRecordFunc != nil {
		return f.InsertRecordFunc(ctx, db, record)
	}
	return true, nil
}

func (f *FakeActivityRepository) IncrementLifetime(ctx context.Context, db bun.IDB, userID int64, km float64) (float64, error) {
	f.record("IncrementLifetime")
	if f.IncrementLifetimeFunc != nil {
		return f.IncrementLifetimeFunc(ctx, db, userID, km)
	}
	return 0, nil
}

func (f *FakeActivityRepository) SumDistance(ctx context.Context, db bun.IDB, userID int64, start, end string) (float64, error) {
	f.record("SumDistance")
	if f.SumDistanceFunc != nil {
		return f.SumDistanceFunc(ctx, db, userID, start, end)
	}
	return 0, nil
}

func (f *FakeActivityRepository) DailyTotals(ctx context.Context, db bun.IDB, userID int64, start, end string) ([]activitydb.DailyTotal, error) {
	f.record("DailyTotals")
	if f.DailyTotalsFunc != nil {
		return f.DailyTotalsFunc(ctx, db, userID, start, end)
	}
	return []activitydb.DailyTotal{}, nil
}

func (f *FakeActivityRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ activitydb.Repository = (*FakeActivityRepository)(nil)

// ------------------------
// In-memory ledger
// ------------------------

// memLedger backs a FakeActivityRepository with maps so property tests can
// exercise many records.
type memLedger struct {
	mu      sync.Mutex
	users   map[int64]*activitydb.User
	records []activitydb.ActivityRecord
}

func newMemLedger() *memLedger {
	return &memLedger{users: map[int64]*activitydb.User{}}
}

func (m *memLedger) wire(f *FakeActivityRepository) {
	f.EnsureUserFunc = func(_ context.Context, _ bun.IDB, u *activitydb.User) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if existing, ok := m.users[u.UserID]; ok {
			if u.DisplayName != nil {
				existing.DisplayName = u.DisplayName
			}
			return nil
		}
		cp := *u
		cp.JoinedDate = activitydb.CivilDate(u.JoinedDate)
		m.users[u.UserID] = &cp
		return nil
	}
	f.GetUserFunc = func(_ context.Context, _ bun.IDB, id int64) (*activitydb.User, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		u, ok := m.users[id]
		if !ok {
			return nil, activitydb.ErrNotFound
		}
		cp := *u
		return &cp, nil
	}
	f.InsertRecordFunc = func(_ context.Context, _ bun.IDB, r *activitydb.ActivityRecord) (bool, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		cp := *r
		if cp.UUID == uuid.Nil {
			cp.UUID = uuid.New()
		}
		for _, existing := range m.records {
			if existing.UUID == cp.UUID {
				return false, nil
			}
		}
		cp.ActivityDate = activitydb.CivilDate(r.ActivityDate)
		m.records = append(m.records, cp)
		return true, nil
	}
	f.IncrementLifetimeFunc = func(_ context.Context, _ bun.IDB, id int64, km float64) (float64, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		u, ok := m.users[id]
		if !ok {
			return 0, activitydb.ErrNotFound
		}
		u.LifetimeTotal += km
		return u.LifetimeTotal, nil
	}
	f.SumDistanceFunc = func(_ context.Context, _ bun.IDB, id int64, start, end string) (float64, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		var total float64
		for _, r := range m.records {
			if d := r.ActivityDate.Format(time.DateOnly); r.UserID == id && d >= start && d <= end {
				total += r.Distance
			}
		}
		return total, nil
	}
	f.DailyTotalsFunc = func(_ context.Context, _ bun.IDB, id int64, start, end string) ([]activitydb.DailyTotal, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		byDay := map[string]float64{}
		for _, r := range m.records {
			if d := r.ActivityDate.Format(time.DateOnly); r.UserID == id && d >= start && d <= end {
				byDay[d] += r.Distance
			}
		}
		keys := make([]string, 0, len(byDay))
		for k := range byDay {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]activitydb.DailyTotal, 0, len(keys))
		for _, k := range keys {
			day, _ := time.Parse(time.DateOnly, k)
			out = append(out, activitydb.DailyTotal{Day: day, Total: byDay[k]})
		}
		return out, nil
	}
}

func (m *memLedger) recordSum(userID int64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, r := range m.records {
		if r.UserID == userID {
			total += r.Distance
		}
	}
	return total
}

func ptr[T any](v T) *T { return &v }
