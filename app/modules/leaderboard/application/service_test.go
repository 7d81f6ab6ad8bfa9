package leaderboardservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	reportevents "github.com/Black-And-White-Club/stride-bot/app/events/report"
	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	leaderboarddb "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/infrastructure/repositories"
	"github.com/Black-And-White-Club/stride-bot/app/observability/metrics"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/Black-And-White-Club/stride-bot/app/shared/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

// Wednesday 2025-03-12, inside the ISO week 2025-03-10..2025-03-16.
var wednesday = time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)

type testDeps struct {
	repo      *FakeLeaderboardRepository
	ledger    *FakeDailyBreakdowns
	publisher *recordingPublisher
	metrics   *countingMetrics
}

func newTestService(opts Options) (*LeaderboardService, *testDeps) {
	deps := &testDeps{
		repo:      NewFakeLeaderboardRepository(),
		ledger:    &FakeDailyBreakdowns{},
		publisher: &recordingPublisher{},
		metrics:   &countingMetrics{},
	}
	svc := NewLeaderboardService(
		deps.repo,
		deps.ledger,
		newRankService(),
		deps.publisher,
		slog.Default(),
		deps.metrics,
		noop.NewTracerProvider().Tracer("test"),
		nil,
		clock.Fixed(wednesday),
		opts,
	)
	return svc, deps
}

func staticRows(rows ...leaderboarddb.TotalRow) func(context.Context, bun.IDB, string, string, int) ([]leaderboarddb.TotalRow, error) {
	return func(context.Context, bun.IDB, string, string, int) ([]leaderboarddb.TotalRow, error) {
		return append([]leaderboarddb.TotalRow(nil), rows...), nil
	}
}

func TestWeeklyLeaderboard(t *testing.T) {
	tests := []struct {
		name  string
		rows  []leaderboarddb.TotalRow
		limit int
		want  []Entry
	}{
		{
			name: "sorted by total then user id",
			rows: []leaderboarddb.TotalRow{
				{UserID: 3, DisplayName: ptr("Cleo"), Total: 12},
				{UserID: 1, Total: 12},
				{UserID: 2, DisplayName: ptr("Bo"), Total: 20},
			},
			limit: 10,
			want: []Entry{
				{Position: 1, UserID: 2, DisplayName: "Bo", Total: 20, Tier: "Knight"},
				{Position: 2, UserID: 1, DisplayName: "Runner #1", Total: 12, Tier: "Knight"},
				{Position: 3, UserID: 3, DisplayName: "Cleo", Total: 12, Tier: "Knight"},
			},
		},
		{
			name: "truncated to limit",
			rows: []leaderboarddb.TotalRow{
				{UserID: 1, Total: 70},
				{UserID: 2, Total: 31},
				{UserID: 3, Total: 2},
			},
			limit: 2,
			want: []Entry{
				{Position: 1, UserID: 1, DisplayName: "Runner #1", Total: 70, Tier: "Grand Master"},
				{Position: 2, UserID: 2, DisplayName: "Runner #2", Total: 31, Tier: "Master"},
			},
		},
		{
			name:  "empty display name falls back",
			rows:  []leaderboarddb.TotalRow{{UserID: 9, DisplayName: ptr(""), Total: 1}},
			limit: 5,
			want:  []Entry{{Position: 1, UserID: 9, DisplayName: "Runner #9", Total: 1, Tier: "Padawan"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newTestService(Options{})
			deps.repo.WindowTotalsFunc = staticRows(tt.rows...)

			board, err := svc.WeeklyLeaderboard(context.Background(), tt.limit)
			require.NoError(t, err)

			assert.Equal(t, "2025-03-10", board.Window.StartDate())
			assert.Equal(t, "2025-03-16", board.Window.EndDate())
			if diff := cmp.Diff(tt.want, board.Entries); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []string{"WindowTotals:2025-03-10..2025-03-16"}, deps.repo.Trace())
		})
	}
}

func TestLeaderboardNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -3} {
		svc, deps := newTestService(Options{})
		deps.repo.WindowTotalsFunc = staticRows(leaderboarddb.TotalRow{UserID: 1, Total: 5})

		weekly, err := svc.WeeklyLeaderboard(context.Background(), limit)
		require.NoError(t, err)
		assert.Empty(t, weekly.Entries)

		monthly, err := svc.MonthlyLeaderboard(context.Background(), limit)
		require.NoError(t, err)
		assert.Empty(t, monthly.Entries)
		assert.NotNil(t, monthly.Entries)

		assert.Empty(t, deps.repo.Trace())
	}
}

func TestMonthlyLeaderboard(t *testing.T) {
	rows := []leaderboarddb.TotalRow{
		{UserID: 2, DisplayName: ptr("Bo"), Total: 40},
		{UserID: 1, DisplayName: ptr("Ada"), Total: 50},
	}
	weekly := map[int64]float64{1: 5}

	tests := []struct {
		name      string
		opts      Options
		wantTiers []string
	}{
		{name: "tier from weekly total", wantTiers: []string{"Padawan", "Padawan"}},
		{name: "tier from monthly total", opts: Options{MonthlyTierFromMonthlyTotal: true}, wantTiers: []string{"Master", "Master"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newTestService(tt.opts)
			deps.repo.WindowTotalsFunc = staticRows(rows...)
			var askedFor []int64
			deps.repo.UserTotalsFunc = func(_ context.Context, _ bun.IDB, ids []int64, _, _ string) (map[int64]float64, error) {
				askedFor = ids
				return weekly, nil
			}

			board, err := svc.MonthlyLeaderboard(context.Background(), 10)
			require.NoError(t, err)

			assert.Equal(t, "2025-03-01", board.Window.StartDate())
			assert.Equal(t, "2025-03-31", board.Window.EndDate())
			assert.Equal(t, []int64{1, 2}, askedFor)
			assert.Equal(t, []string{
				"WindowTotals:2025-03-01..2025-03-31",
				"UserTotals:2025-03-10..2025-03-16",
			}, deps.repo.Trace())

			want := []Entry{
				{Position: 1, UserID: 1, DisplayName: "Ada", Total: 50, Tier: tt.wantTiers[0], MonthlyTotal: ptr(50.0), WeeklyTotal: ptr(5.0)},
				{Position: 2, UserID: 2, DisplayName: "Bo", Total: 40, Tier: tt.wantTiers[1], MonthlyTotal: ptr(40.0), WeeklyTotal: ptr(0.0)},
			}
			if diff := cmp.Diff(want, board.Entries); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLeaderboardRepositoryError(t *testing.T) {
	svc, deps := newTestService(Options{})
	deps.repo.WindowTotalsFunc = func(context.Context, bun.IDB, string, string, int) ([]leaderboarddb.TotalRow, error) {
		return nil, errors.New("connection reset")
	}

	_, err := svc.WeeklyLeaderboard(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WeeklyLeaderboard")
}

func TestSendWeeklyReportContinuesPastFailures(t *testing.T) {
	svc, deps := newTestService(Options{ReportLimit: 10})
	active := []leaderboarddb.TotalRow{
		{UserID: 1, DisplayName: ptr("Ada"), Total: 12},
		{UserID: 2, Total: 3},
		{UserID: 3, DisplayName: ptr("Cleo"), Total: 70},
	}
	deps.repo.ActiveUsersFunc = func(context.Context, bun.IDB, string, string) ([]leaderboarddb.TotalRow, error) {
		return active, nil
	}
	deps.repo.WindowTotalsFunc = staticRows(active...)
	deps.ledger.DailyBreakdownFunc = func(_ context.Context, userID int64, window calendar.Window) ([]activityservice.DailyTotal, error) {
		if userID == 2 {
			return nil, errors.New("timeout")
		}
		return []activityservice.DailyTotal{{Date: window.Start, Total: 12}}, nil
	}

	summary, err := svc.SendWeeklyReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Delivered)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.LeaderboardPublished)
	assert.Equal(t, "2025-03-10", summary.Week.StartDate())
	assert.Equal(t, 2, deps.metrics.delivered)
	assert.Equal(t, 1, deps.metrics.failed)

	assert.Equal(t, []string{
		reportevents.WeeklyUserV1,
		reportevents.WeeklyUserV1,
		reportevents.WeeklyLeaderboardV1,
	}, deps.publisher.topics())

	var first reportevents.WeeklyUserPayloadV1
	require.NoError(t, json.Unmarshal(deps.publisher.msgs[0].Payload, &first))
	assert.Equal(t, int64(1), first.UserID)
	assert.Equal(t, "Knight", first.Tier)
	require.NotNil(t, first.NextTier)
	assert.Equal(t, "Master", *first.NextTier)
	require.NotNil(t, first.KmRemaining)
	assert.InDelta(t, 18.0, *first.KmRemaining, 1e-9)
	require.Len(t, first.DailyBreakdown, 1)
	assert.Equal(t, "2025-03-10", first.DailyBreakdown[0].Date)

	var last reportevents.WeeklyUserPayloadV1
	require.NoError(t, json.Unmarshal(deps.publisher.msgs[1].Payload, &last))
	assert.Equal(t, "Grand Master", last.Tier)
	assert.Nil(t, last.NextTier)
	assert.Nil(t, last.KmRemaining)

	var board reportevents.WeeklyLeaderboardPayloadV1
	require.NoError(t, json.Unmarshal(deps.publisher.msgs[2].Payload, &board))
	require.Len(t, board.Entries, 3)
	assert.Equal(t, int64(3), board.Entries[0].UserID)
}

func TestSendWeeklyReportPublishFailure(t *testing.T) {
	svc, deps := newTestService(Options{ReportLimit: 10})
	deps.repo.ActiveUsersFunc = func(context.Context, bun.IDB, string, string) ([]leaderboarddb.TotalRow, error) {
		return []leaderboarddb.TotalRow{{UserID: 1, Total: 4}, {UserID: 2, Total: 8}}, nil
	}
	deps.publisher.FailFor = func(topic string, _ []byte) bool { return topic == reportevents.WeeklyLeaderboardV1 }

	summary, err := svc.SendWeeklyReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Delivered)
	assert.False(t, summary.LeaderboardPublished)
}

func TestSendWeeklyReportAtUsesAnchorWeek(t *testing.T) {
	svc, deps := newTestService(Options{})
	sunday := time.Date(2025, 3, 2, 20, 0, 0, 0, time.UTC)

	summary, err := svc.SendWeeklyReportAt(context.Background(), clock.NewAnchorClock(sunday, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2025-02-24", summary.Week.StartDate())
	assert.Equal(t, "2025-03-02", summary.Week.EndDate())
	assert.Equal(t, "ActiveUsers:2025-02-24..2025-03-02", deps.repo.Trace()[0])
}

func TestSendWeeklyReportAborts(t *testing.T) {
	t.Run("listing users fails", func(t *testing.T) {
		svc, deps := newTestService(Options{})
		deps.repo.ActiveUsersFunc = func(context.Context, bun.IDB, string, string) ([]leaderboarddb.TotalRow, error) {
			return nil, errors.New("db down")
		}

		_, err := svc.SendWeeklyReport(context.Background())
		require.Error(t, err)
		assert.Empty(t, deps.publisher.topics())
	})

	t.Run("context cancelled", func(t *testing.T) {
		svc, deps := newTestService(Options{DeliveryRate: 1})
		deps.repo.ActiveUsersFunc = func(context.Context, bun.IDB, string, string) ([]leaderboarddb.TotalRow, error) {
			return []leaderboarddb.TotalRow{{UserID: 1, Total: 4}}, nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := svc.SendWeeklyReport(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, deps.publisher.topics())
	})
}

func TestSendWeeklyReportRetryRepublishesSameReportIDs(t *testing.T) {
	svc, deps := newTestService(Options{})
	deps.repo.ActiveUsersFunc = func(context.Context, bun.IDB, string, string) ([]leaderboarddb.TotalRow, error) {
		return []leaderboarddb.TotalRow{{UserID: 1, Total: 4}, {UserID: 2, Total: 8}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	deps.ledger.DailyBreakdownFunc = func(_ context.Context, userID int64, _ calendar.Window) ([]activityservice.DailyTotal, error) {
		if userID == 1 {
			cancel()
		}
		return []activityservice.DailyTotal{}, nil
	}

	_, err := svc.SendWeeklyReport(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{reportevents.WeeklyUserV1}, deps.publisher.topics())

	_, err = svc.SendWeeklyReport(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{
		reportevents.WeeklyUserV1,
		reportevents.WeeklyUserV1,
		reportevents.WeeklyUserV1,
		reportevents.WeeklyLeaderboardV1,
	}, deps.publisher.topics())

	reports := make([]reportevents.WeeklyUserPayloadV1, 3)
	for i := range reports {
		require.NoError(t, json.Unmarshal(deps.publisher.msgs[i].Payload, &reports[i]))
		assert.Equal(t, reports[i].ReportID, deps.publisher.msgs[i].UUID)
	}

	// User 1 got the report twice, under one id consumers can drop on.
	assert.Equal(t, int64(1), reports[0].UserID)
	assert.Equal(t, int64(1), reports[1].UserID)
	assert.Equal(t, reports[0].ReportID, reports[1].ReportID)
	assert.Equal(t, ReportID(calendar.WeekOf(wednesday), 1), reports[0].ReportID)
	assert.NotEqual(t, reports[0].ReportID, reports[2].ReportID)
	assert.NotEqual(t, deps.publisher.msgs[3].UUID, reports[0].ReportID)
}

func TestReportIDIsPerUserPerWeek(t *testing.T) {
	week := calendar.WeekOf(wednesday)
	next := calendar.WeekOf(wednesday.AddDate(0, 0, 7))

	assert.Equal(t, ReportID(week, 1), ReportID(week, 1))
	assert.NotEqual(t, ReportID(week, 1), ReportID(week, 2))
	assert.NotEqual(t, ReportID(week, 1), ReportID(next, 1))
}

func TestBoardPayloadV1(t *testing.T) {
	board := &Board{
		Window:  calendar.WeekOf(wednesday),
		Entries: []Entry{{Position: 1, UserID: 4, DisplayName: "Runner #4", Total: 9.5, Tier: "Padawan"}},
	}

	got := BoardPayloadV1(board)
	assert.Equal(t, "2025-03-10", got.Start)
	assert.Equal(t, "2025-03-16", got.End)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, 9.5, got.Entries[0].Total)
	assert.Nil(t, got.Entries[0].MonthlyTotal)
}

var _ metrics.LeaderboardMetrics = (*countingMetrics)(nil)
