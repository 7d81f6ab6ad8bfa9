package leaderboarddb

// TotalRow is one user's summed distance over a window.
type TotalRow struct {
	UserID      int64   `bun:"user_id"`
	DisplayName *string `bun:"display_name"`
	Total       float64 `bun:"total"`
}
