package activityhandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	activityevents "github.com/Black-And-White-Club/stride-bot/app/events/activity"
	activityservice "github.com/Black-And-White-Club/stride-bot/app/modules/activity/application"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/calendar"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newHandlers(svc *FakeActivityService, rank *FakeRankService) Handlers {
	return NewActivityHandlers(svc, rank, slog.Default(), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleEnsureUser(t *testing.T) {
	svc := NewFakeActivityService()
	var gotName *string
	svc.EnsureUserFunc = func(_ context.Context, _ int64, name *string) error {
		gotName = name
		return nil
	}

	results, err := newHandlers(svc, NewFakeRankService()).HandleEnsureUser(context.Background(),
		&activityevents.UserEnsureRequestedPayloadV1{UserID: 3, DisplayName: ptr("Ann")})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, activityevents.UserEnsuredV1, results[0].Topic)
	require.NotNil(t, gotName)
	assert.Equal(t, "Ann", *gotName)

	svc.EnsureUserFunc = func(context.Context, int64, *string) error { return errors.New("db down") }
	_, err = newHandlers(svc, NewFakeRankService()).HandleEnsureUser(context.Background(),
		&activityevents.UserEnsureRequestedPayloadV1{UserID: 3})
	assert.Error(t, err)
}

func TestHandleRecordRequest(t *testing.T) {
	tests := []struct {
		name         string
		payload      *activityevents.RecordRequestedPayloadV1
		setupService func(*FakeActivityService)
		setupRank    func(*FakeRankService)
		wantErr      bool
		wantTopic    string
		wantTrace    []string
		verify       func(t *testing.T, payload any)
	}{
		{
			name:    "seven km reaches padawan with three to go",
			payload: &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(7.0)},
			setupService: func(f *FakeActivityService) {
				f.RecordActivityFunc = func(_ context.Context, _ uuid.UUID, _ int64, km float64) (*activityservice.RecordResult, error) {
					return &activityservice.RecordResult{Distance: km, WeeklyTotal: 7, LifetimeTotal: 7}, nil
				}
			},
			wantTopic: activityevents.RecordSucceededV1,
			wantTrace: []string{"RecordActivity"},
			verify: func(t *testing.T, payload any) {
				p := payload.(*activityevents.RecordSucceededPayloadV1)
				assert.Equal(t, "Padawan", p.Tier)
				require.NotNil(t, p.NextTier)
				assert.Equal(t, "Knight", *p.NextTier)
				require.NotNil(t, p.KmRemaining)
				assert.InDelta(t, 3.0, *p.KmRemaining, 1e-9)
				assert.Equal(t, "Go!", p.Motivation)
			},
		},
		{
			name:    "comma text is parsed",
			payload: &activityevents.RecordRequestedPayloadV1{UserID: 1, DistanceText: "5,2"},
			setupService: func(f *FakeActivityService) {
				f.RecordActivityFunc = func(_ context.Context, _ uuid.UUID, _ int64, km float64) (*activityservice.RecordResult, error) {
					assert.InDelta(t, 5.2, km, 1e-9)
					return &activityservice.RecordResult{Distance: km, WeeklyTotal: 12, LifetimeTotal: 40}, nil
				}
			},
			wantTopic: activityevents.RecordSucceededV1,
			wantTrace: []string{"RecordActivity"},
			verify: func(t *testing.T, payload any) {
				p := payload.(*activityevents.RecordSucceededPayloadV1)
				assert.Equal(t, "Knight", p.Tier)
				assert.InDelta(t, 18.0, *p.KmRemaining, 1e-9)
			},
		},
		{
			name:    "top tier has no next tier",
			payload: &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(10.0)},
			setupService: func(f *FakeActivityService) {
				f.RecordActivityFunc = func(_ context.Context, _ uuid.UUID, _ int64, km float64) (*activityservice.RecordResult, error) {
					return &activityservice.RecordResult{Distance: km, WeeklyTotal: 75, LifetimeTotal: 300}, nil
				}
			},
			wantTopic: activityevents.RecordSucceededV1,
			wantTrace: []string{"RecordActivity"},
			verify: func(t *testing.T, payload any) {
				p := payload.(*activityevents.RecordSucceededPayloadV1)
				assert.Equal(t, "Grand Master", p.Tier)
				assert.Nil(t, p.NextTier)
				assert.Nil(t, p.KmRemaining)
			},
		},
		{
			name:      "unparsable text is rejected without touching the ledger",
			payload:   &activityevents.RecordRequestedPayloadV1{UserID: 1, DistanceText: "far"},
			wantTopic: activityevents.RecordFailedV1,
			wantTrace: []string{},
			verify: func(t *testing.T, payload any) {
				p := payload.(*activityevents.RecordFailedPayloadV1)
				assert.Equal(t, activityevents.FailureInvalidDistance, p.Code)
				assert.NotEmpty(t, p.Reason)
			},
		},
		{
			name:      "missing distance is rejected",
			payload:   &activityevents.RecordRequestedPayloadV1{UserID: 1},
			wantTopic: activityevents.RecordFailedV1,
			wantTrace: []string{},
		},
		{
			name:      "non-positive distance is rejected",
			payload:   &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(-2.0)},
			wantTopic: activityevents.RecordFailedV1,
			wantTrace: []string{},
		},
		{
			name:    "service invalid distance becomes a failure reply",
			payload: &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(1.0)},
			setupService: func(f *FakeActivityService) {
				f.RecordActivityFunc = func(context.Context, uuid.UUID, int64, float64) (*activityservice.RecordResult, error) {
					return nil, fmt.Errorf("RecordActivity: %w", activityservice.ErrInvalidDistance)
				}
			},
			wantTopic: activityevents.RecordFailedV1,
			wantTrace: []string{"RecordActivity"},
		},
		{
			name:      "display name is refreshed first",
			payload:   &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(3.0), DisplayName: ptr("Ann")},
			wantTopic: activityevents.RecordSucceededV1,
			wantTrace: []string{"EnsureUser", "RecordActivity"},
		},
		{
			name:    "storage error is returned for redelivery",
			payload: &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(3.0)},
			setupService: func(f *FakeActivityService) {
				f.RecordActivityFunc = func(context.Context, uuid.UUID, int64, float64) (*activityservice.RecordResult, error) {
					return nil, errors.New("connection reset")
				}
			},
			wantErr:   true,
			wantTrace: []string{"RecordActivity"},
		},
		{
			name:    "motivation error after commit falls back to the default",
			payload: &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(3.0)},
			setupRank: func(f *FakeRankService) {
				f.RandomMotivationFunc = func(context.Context) (string, error) {
					return "", errors.New("db down")
				}
			},
			wantTopic: activityevents.RecordSucceededV1,
			wantTrace: []string{"RecordActivity"},
			verify: func(t *testing.T, payload any) {
				p := payload.(*activityevents.RecordSucceededPayloadV1)
				assert.Equal(t, rankservice.DefaultMotivation, p.Motivation)
			},
		},
		{
			name:    "progress invariant violation still acknowledges the record",
			payload: &activityevents.RecordRequestedPayloadV1{UserID: 1, Distance: ptr(3.0)},
			setupRank: func(f *FakeRankService) {
				f.ProgressFunc = func(float64) (rankservice.Progress, error) {
					return rankservice.Progress{}, rankservice.ErrInvariantViolation
				}
			},
			wantTopic: activityevents.RecordSucceededV1,
			wantTrace: []string{"RecordActivity"},
			verify: func(t *testing.T, payload any) {
				p := payload.(*activityevents.RecordSucceededPayloadV1)
				assert.Equal(t, "Padawan", p.Tier)
				assert.Nil(t, p.NextTier)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFakeActivityService()
			if tt.setupService != nil {
				tt.setupService(svc)
			}
			rank := NewFakeRankService()
			if tt.setupRank != nil {
				tt.setupRank(rank)
			}

			results, err := newHandlers(svc, rank).HandleRecordRequest(context.Background(), tt.payload)

			assert.Equal(t, tt.wantTrace, svc.Trace())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.wantTopic, results[0].Topic)
			if tt.verify != nil {
				tt.verify(t, results[0].Payload)
			}
		})
	}
}

func TestHandleStatsRequest(t *testing.T) {
	week := calendar.WeekOf(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC))
	svc := NewFakeActivityService()
	svc.GetStatsFunc = func(_ context.Context, userID int64) (*activityservice.Stats, error) {
		return &activityservice.Stats{
			UserID:        userID,
			DisplayName:   ptr("Ann"),
			WeeklyTotal:   12,
			MonthlyTotal:  30,
			LifetimeTotal: 120,
			Week:          week,
			DailyBreakdown: []activityservice.DailyTotal{
				{Date: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Total: 5},
				{Date: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), Total: 7},
			},
			JoinedDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		}, nil
	}

	results, err := newHandlers(svc, NewFakeRankService()).HandleStatsRequest(context.Background(),
		&activityevents.StatsRequestedPayloadV1{UserID: 4})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, activityevents.StatsRetrievedV1, results[0].Topic)

	p := results[0].Payload.(*activityevents.StatsRetrievedPayloadV1)
	assert.Equal(t, int64(4), p.UserID)
	assert.Equal(t, "2024-03-11", p.WeekStart)
	assert.Equal(t, "2024-03-17", p.WeekEnd)
	assert.Equal(t, "2024-01-02", p.JoinedDate)
	assert.Equal(t, "Knight", p.Tier)
	assert.Equal(t, []activityevents.DailyTotalV1{
		{Date: "2024-03-11", Total: 5},
		{Date: "2024-03-13", Total: 7},
	}, p.DailyBreakdown)

	svc.GetStatsFunc = func(context.Context, int64) (*activityservice.Stats, error) {
		return nil, errors.New("db down")
	}
	_, err = newHandlers(svc, NewFakeRankService()).HandleStatsRequest(context.Background(),
		&activityevents.StatsRequestedPayloadV1{UserID: 4})
	assert.Error(t, err)
}
