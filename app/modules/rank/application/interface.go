package rankservice

import "context"

// Service is the rank engine plus the challenge/motivation selector.
type Service interface {
	// Tiers returns the tier table in ascending order.
	Tiers() []Tier

	// DetermineRank maps a weekly total to its tier.
	DetermineRank(weeklyTotal float64) Tier

	// Progress returns the current tier and the distance to the next one.
	Progress(weeklyTotal float64) (Progress, error)

	// RandomChallenge picks a challenge for the tier, falling back to the
	// lowest tier's pool and then to DefaultChallenge.
	RandomChallenge(ctx context.Context, tierName string) (string, error)

	// RandomMotivation picks a motivation line, falling back to DefaultMotivation.
	RandomMotivation(ctx context.Context) (string, error)
}
