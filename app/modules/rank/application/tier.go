package rankservice

import (
	"fmt"
	"sort"
)

// Tier is a named rank bucket over the weekly total. Upper is nil for the
// unbounded top tier.
type Tier struct {
	Name  string   `json:"name"`
	Lower float64  `json:"lower_bound"`
	Upper *float64 `json:"upper_bound,omitempty"`
	// Index is the tier's position in ascending order.
	Index int `json:"index"`
}

// Contains reports whether km lies within the tier's inclusive bounds.
func (t Tier) Contains(km float64) bool {
	if km < t.Lower {
		return false
	}
	return t.Upper == nil || km <= *t.Upper
}

// Unbounded reports whether the tier has no upper bound.
func (t Tier) Unbounded() bool { return t.Upper == nil }

// Progress describes where a weekly total sits in the tier table. Next and
// KmRemaining are both nil at the top tier.
type Progress struct {
	Current     Tier     `json:"current"`
	Next        *Tier    `json:"next,omitempty"`
	KmRemaining *float64 `json:"km_remaining,omitempty"`
}

// NextName returns the next tier's name, or nil at the top tier.
func (p Progress) NextName() *string {
	if p.Next == nil {
		return nil
	}
	name := p.Next.Name
	return &name
}

// Table is the immutable, ordered tier set.
type Table struct {
	tiers     []Tier
	anomalies []string
}

// NewTable sorts and validates tiers. Every non-negative total must resolve
// to a tier: the lowest lower bound must be <= 0 and the highest tier must be
// unbounded. Gaps and overlaps beyond a shared endpoint are accepted and
// reported by Anomalies.
func NewTable(tiers []Tier) (*Table, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidTierTable)
	}

	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Lower < sorted[j].Lower })

	seen := make(map[string]struct{}, len(sorted))
	for i := range sorted {
		t := &sorted[i]
		t.Index = i
		if t.Name == "" {
			return nil, fmt.Errorf("%w: tier %d has no name", ErrInvalidTierTable, i)
		}
		if _, dup := seen[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidTierTable, t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.Upper != nil && *t.Upper < t.Lower {
			return nil, fmt.Errorf("%w: tier %q upper bound %.2f below lower bound %.2f", ErrInvalidTierTable, t.Name, *t.Upper, t.Lower)
		}
	}

	if sorted[0].Lower > 0 {
		return nil, fmt.Errorf("%w: lowest tier %q starts at %.2f, want <= 0", ErrInvalidTierTable, sorted[0].Name, sorted[0].Lower)
	}
	if top := sorted[len(sorted)-1]; !top.Unbounded() {
		return nil, fmt.Errorf("%w: highest tier %q must be unbounded", ErrInvalidTierTable, top.Name)
	}

	return &Table{tiers: sorted, anomalies: findAnomalies(sorted)}, nil
}

func findAnomalies(tiers []Tier) []string {
	var out []string
	for i := 0; i+1 < len(tiers); i++ {
		cur, next := tiers[i], tiers[i+1]
		switch {
		case cur.Lower == next.Lower:
			out = append(out, fmt.Sprintf("tiers %q and %q share lower bound %.2f", cur.Name, next.Name, cur.Lower))
		case cur.Upper == nil:
			out = append(out, fmt.Sprintf("tier %q is unbounded but followed by %q", cur.Name, next.Name))
		case *cur.Upper < next.Lower:
			out = append(out, fmt.Sprintf("gap between %q (%.2f) and %q (%.2f)", cur.Name, *cur.Upper, next.Name, next.Lower))
		case *cur.Upper > next.Lower:
			out = append(out, fmt.Sprintf("overlap between %q (%.2f) and %q (%.2f)", cur.Name, *cur.Upper, next.Name, next.Lower))
		}
	}
	return out
}

// Tiers returns a copy of the tiers in ascending order.
func (t *Table) Tiers() []Tier {
	return append([]Tier(nil), t.tiers...)
}

// Anomalies lists gaps and overlaps found at construction.
func (t *Table) Anomalies() []string {
	return append([]string(nil), t.anomalies...)
}

// Lowest returns the tier with the smallest lower bound.
func (t *Table) Lowest() Tier { return t.tiers[0] }

// Lookup finds a tier by name.
func (t *Table) Lookup(name string) (Tier, bool) {
	for _, tier := range t.tiers {
		if tier.Name == name {
			return tier, true
		}
	}
	return Tier{}, false
}

// DetermineRank returns the tier containing weeklyTotal. When several tiers
// contain it the one with the highest lower bound wins, so a shared endpoint
// belongs to the higher tier. A total no tier contains, such as one in a gap
// of a misconfigured table, resolves to the highest tier.
func (t *Table) DetermineRank(weeklyTotal float64) Tier {
	for i := len(t.tiers) - 1; i >= 0; i-- {
		if t.tiers[i].Contains(weeklyTotal) {
			return t.tiers[i]
		}
	}
	return t.tiers[len(t.tiers)-1]
}

// Progress returns the current tier, the next tier and the distance left to
// reach it.
func (t *Table) Progress(weeklyTotal float64) (Progress, error) {
	current := t.DetermineRank(weeklyTotal)

	for _, candidate := range t.tiers[current.Index+1:] {
		if candidate.Lower <= current.Lower {
			continue
		}
		remaining := candidate.Lower - weeklyTotal
		if remaining < 0 {
			return Progress{}, fmt.Errorf("%w: %.2f km past %q while ranked %q", ErrInvariantViolation, -remaining, candidate.Name, current.Name)
		}
		next := candidate
		return Progress{Current: current, Next: &next, KmRemaining: &remaining}, nil
	}

	return Progress{Current: current}, nil
}
