// Package reportevents defines the payloads published by the weekly report sweep.
package reportevents

import (
	activityevents "github.com/Black-And-White-Club/stride-bot/app/events/activity"
	leaderboardevents "github.com/Black-And-White-Club/stride-bot/app/events/leaderboard"
)

const (
	// WeeklyUserV1 carries one user's weekly report.
	WeeklyUserV1 = "report.weekly.user.v1"
	// WeeklyLeaderboardV1 carries the weekly leaderboard at sweep time.
	WeeklyLeaderboardV1 = "report.weekly.leaderboard.v1"
)

// WeeklyUserPayloadV1 is the weekly report for a single user. Delivery is
// at least once: a retried sweep republishes reports with the same
// ReportID, which is also the message UUID, so consumers drop repeats.
type WeeklyUserPayloadV1 struct {
	ReportID       string                        `json:"report_id"`
	UserID         int64                         `json:"user_id"`
	DisplayName    string                        `json:"display_name"`
	WeekStart      string                        `json:"week_start"`
	WeekEnd        string                        `json:"week_end"`
	WeeklyTotal    float64                       `json:"weekly_total"`
	Tier           string                        `json:"tier"`
	NextTier       *string                       `json:"next_tier,omitempty"`
	KmRemaining    *float64                      `json:"km_remaining,omitempty"`
	DailyBreakdown []activityevents.DailyTotalV1 `json:"daily_breakdown"`
}

// WeeklyLeaderboardPayloadV1 is the leaderboard broadcast that closes a sweep.
type WeeklyLeaderboardPayloadV1 = leaderboardevents.RetrievedPayloadV1
