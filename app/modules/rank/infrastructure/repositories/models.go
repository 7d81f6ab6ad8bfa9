package rankdb

import "github.com/uptrace/bun"

// RankTier is one row of the static tier table. A NULL upper bound means the
// tier is unbounded above.
type RankTier struct {
	bun.BaseModel `bun:"table:rank_tiers,alias:rt"`
	ID            int64    `bun:"id,pk,autoincrement"`
	Name          string   `bun:"name,notnull,unique,type:varchar(64)"`
	LowerBound    float64  `bun:"lower_bound,notnull,type:double precision"`
	UpperBound    *float64 `bun:"upper_bound,type:double precision"`
}

// Challenge is an extra task offered to runners of a tier.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:ch"`
	ID            int64  `bun:"id,pk,autoincrement"`
	TierName      string `bun:"tier_name,notnull,type:varchar(64)"`
	Text          string `bun:"text,notnull"`
}

// Motivation is an untagged encouragement line.
type Motivation struct {
	bun.BaseModel `bun:"table:motivations,alias:mo"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Text          string `bun:"text,notnull"`
}
