// Package activityevents defines the activity ledger topics and payloads.
package activityevents

import "time"

const (
	// UserEnsureRequestedV1 asks the ledger to create a user if absent.
	UserEnsureRequestedV1 = "activity.user.ensure.requested.v1"
	// UserEnsuredV1 confirms the user exists.
	UserEnsuredV1 = "activity.user.ensured.v1"

	// RecordRequestedV1 asks the ledger to append a distance entry for today.
	RecordRequestedV1 = "activity.record.requested.v1"
	// RecordSucceededV1 carries the updated totals and rank after a record.
	RecordSucceededV1 = "activity.record.succeeded.v1"
	// RecordFailedV1 is published when the entry was rejected.
	RecordFailedV1 = "activity.record.failed.v1"

	// StatsRequestedV1 asks for a user's aggregates.
	StatsRequestedV1 = "activity.stats.requested.v1"
	// StatsRetrievedV1 carries the aggregates.
	StatsRetrievedV1 = "activity.stats.retrieved.v1"
)

// Failure codes carried by RecordFailedPayloadV1.
const (
	FailureInvalidDistance = "invalid_distance"
)

// UserEnsureRequestedPayloadV1 is sent on every interaction so the display
// name stays current.
type UserEnsureRequestedPayloadV1 struct {
	UserID      int64   `json:"user_id"`
	DisplayName *string `json:"display_name,omitempty"`
}

// UserEnsuredPayloadV1 is the reply to UserEnsureRequestedPayloadV1.
type UserEnsuredPayloadV1 struct {
	UserID int64 `json:"user_id"`
}

// RecordRequestedPayloadV1 carries either a parsed distance or the raw text
// the user typed. DistanceText wins when both are set. RequestID keys the
// record; without one the message UUID does.
type RecordRequestedPayloadV1 struct {
	RequestID    string   `json:"request_id,omitempty"`
	UserID       int64    `json:"user_id"`
	DisplayName  *string  `json:"display_name,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	DistanceText string   `json:"distance_text,omitempty"`
}

// RecordSucceededPayloadV1 is the reply to a successful record.
type RecordSucceededPayloadV1 struct {
	UserID        int64    `json:"user_id"`
	Distance      float64  `json:"distance"`
	WeeklyTotal   float64  `json:"weekly_total"`
	LifetimeTotal float64  `json:"lifetime_total"`
	Tier          string   `json:"tier"`
	NextTier      *string  `json:"next_tier,omitempty"`
	KmRemaining   *float64 `json:"km_remaining,omitempty"`
	Motivation    string   `json:"motivation"`
}

// RecordFailedPayloadV1 is the reply to a rejected record.
type RecordFailedPayloadV1 struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// StatsRequestedPayloadV1 asks for the stats of one user.
type StatsRequestedPayloadV1 struct {
	UserID      int64   `json:"user_id"`
	DisplayName *string `json:"display_name,omitempty"`
}

// DailyTotalV1 is one day of a breakdown. Date uses the 2006-01-02 layout.
type DailyTotalV1 struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// StatsRetrievedPayloadV1 is the reply to StatsRequestedPayloadV1.
type StatsRetrievedPayloadV1 struct {
	UserID         int64          `json:"user_id"`
	DisplayName    *string        `json:"display_name,omitempty"`
	WeeklyTotal    float64        `json:"weekly_total"`
	MonthlyTotal   float64        `json:"monthly_total"`
	LifetimeTotal  float64        `json:"lifetime_total"`
	WeekStart      string         `json:"week_start"`
	WeekEnd        string         `json:"week_end"`
	DailyBreakdown []DailyTotalV1 `json:"daily_breakdown"`
	JoinedDate     string         `json:"joined_date"`
	Tier           string         `json:"tier"`
	NextTier       *string        `json:"next_tier,omitempty"`
	KmRemaining    *float64       `json:"km_remaining,omitempty"`
	RetrievedAt    time.Time      `json:"retrieved_at"`
}
