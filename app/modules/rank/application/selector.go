package rankservice

import "math/rand/v2"

const (
	// DefaultChallenge is used when neither the tier nor the lowest tier has challenges.
	DefaultChallenge = "Run 2 km more than last week."

	// DefaultMotivation is used when the motivation pool is empty.
	DefaultMotivation = "Keep moving forward! Every step brings you closer to your goal."
)

// Picker returns a uniformly distributed index in [0, n). n is always > 0.
type Picker func(n int) int

// DefaultPicker draws from math/rand/v2.
func DefaultPicker(n int) int { return rand.IntN(n) }

// pickFrom resolves the fallback chain: the first non-empty pool wins, else
// fallback is returned.
func pickFrom(pick Picker, fallback string, pools ...[]string) string {
	for _, pool := range pools {
		if len(pool) > 0 {
			return pool[pick(len(pool))]
		}
	}
	return fallback
}
