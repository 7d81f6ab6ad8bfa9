// Package rankevents defines the rank engine topics and payloads.
package rankevents

const (
	// ChallengeRequestedV1 asks for a challenge matching the user's current tier.
	ChallengeRequestedV1 = "rank.challenge.requested.v1"
	// ChallengeRetrievedV1 carries the chosen challenge.
	ChallengeRetrievedV1 = "rank.challenge.retrieved.v1"

	// ProgressRequestedV1 asks for the user's rank and the distance to the next tier.
	ProgressRequestedV1 = "rank.progress.requested.v1"
	// ProgressRetrievedV1 carries the rank progress.
	ProgressRetrievedV1 = "rank.progress.retrieved.v1"
)

// ChallengeRequestedPayloadV1 asks for a challenge for UserID.
type ChallengeRequestedPayloadV1 struct {
	UserID int64 `json:"user_id"`
}

// ChallengeRetrievedPayloadV1 is the reply to ChallengeRequestedPayloadV1.
type ChallengeRetrievedPayloadV1 struct {
	UserID    int64  `json:"user_id"`
	Tier      string `json:"tier"`
	Challenge string `json:"challenge"`
}

// ProgressRequestedPayloadV1 asks for the rank progress of UserID.
type ProgressRequestedPayloadV1 struct {
	UserID int64 `json:"user_id"`
}

// ProgressRetrievedPayloadV1 is the reply to ProgressRequestedPayloadV1.
// NextTier and KmRemaining are omitted at the highest tier.
type ProgressRetrievedPayloadV1 struct {
	UserID      int64    `json:"user_id"`
	WeeklyTotal float64  `json:"weekly_total"`
	Tier        string   `json:"tier"`
	TierIndex   int      `json:"tier_index"`
	NextTier    *string  `json:"next_tier,omitempty"`
	KmRemaining *float64 `json:"km_remaining,omitempty"`
}
