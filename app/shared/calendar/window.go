// Package calendar resolves the week and month windows that activity totals
// are summed over. Windows are closed date intervals; all functions are pure.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the wire and SQL representation of a calendar date.
const DateLayout = "2006-01-02"

// Window is a closed [Start, End] interval of calendar days. Both bounds are
// midnight in the location of the reference date they were resolved from.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Date truncates t to midnight of its civil day in t's location.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// InLocation returns midnight of t's civil day in loc without shifting the day.
// Dates read back from storage arrive as UTC midnight and are re-anchored with it.
func InLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// WeekOf returns the ISO week (Monday through Sunday) containing ref.
func WeekOf(ref time.Time) Window {
	d := Date(ref)
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthOf returns the first through last calendar day of ref's month.
func MonthOf(ref time.Time) Window {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return Window{Start: start, End: start.AddDate(0, 1, -1)}
}

// Contains reports whether the civil date of d lies within w, inclusive.
// Only the year/month/day of d are compared, so storage dates in UTC and
// window bounds in a local zone compare correctly.
func (w Window) Contains(d time.Time) bool {
	k := dayKey(d)
	return dayKey(w.Start) <= k && k <= dayKey(w.End)
}

// Days lists every date of the window in ascending order.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.Start; dayKey(d) <= dayKey(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// StartDate and EndDate render the bounds for use as SQL date parameters.
func (w Window) StartDate() string { return w.Start.Format(DateLayout) }
func (w Window) EndDate() string   { return w.End.Format(DateLayout) }

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.StartDate(), w.EndDate())
}

func dayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
