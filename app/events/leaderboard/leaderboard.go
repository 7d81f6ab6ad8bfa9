// Package leaderboardevents defines the leaderboard topics and payloads.
package leaderboardevents

const (
	WeeklyRequestedV1  = "leaderboard.weekly.requested.v1"
	WeeklyRetrievedV1  = "leaderboard.weekly.retrieved.v1"
	MonthlyRequestedV1 = "leaderboard.monthly.requested.v1"
	MonthlyRetrievedV1 = "leaderboard.monthly.retrieved.v1"
)

// RequestedPayloadV1 is shared by the weekly and monthly requests. A nil
// Limit uses the configured default.
type RequestedPayloadV1 struct {
	Limit *int `json:"limit,omitempty"`
}

// EntryV1 is one leaderboard row. MonthlyTotal and WeeklyTotal are only set
// on monthly boards.
type EntryV1 struct {
	Position     int      `json:"position"`
	UserID       int64    `json:"user_id"`
	DisplayName  string   `json:"display_name"`
	Total        float64  `json:"total"`
	Tier         string   `json:"tier"`
	MonthlyTotal *float64 `json:"monthly_total,omitempty"`
	WeeklyTotal  *float64 `json:"weekly_total,omitempty"`
}

// RetrievedPayloadV1 carries a leaderboard for the window [Start, End].
type RetrievedPayloadV1 struct {
	Start   string    `json:"start"`
	End     string    `json:"end"`
	Entries []EntryV1 `json:"entries"`
}
