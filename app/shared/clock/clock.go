package clock

import "time"

// Clock supplies "now" to everything that resolves calendar windows.
type Clock interface {
	// Now returns the current instant in the clock's location.
	Now() time.Time
	// Location is the zone in which "today" is evaluated.
	Location() *time.Location
}

// Today truncates c.Now() to midnight in the clock's location.
func Today(c Clock) time.Time {
	now := c.Now().In(c.Location())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location())
}

// RealClock reads the system clock.
type RealClock struct {
	loc *time.Location
}

// NewRealClock returns a RealClock evaluating dates in loc (UTC when nil).
func NewRealClock(loc *time.Location) RealClock {
	if loc == nil {
		loc = time.UTC
	}
	return RealClock{loc: loc}
}

func (c RealClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c RealClock) Location() *time.Location { return c.loc }

// AnchorClock always reports the anchor instant. The weekly report worker
// anchors on the job's scheduled time so a retried or delayed run still
// reports the week it was scheduled for.
type AnchorClock struct {
	anchor time.Time
	loc    *time.Location
}

// NewAnchorClock creates a new AnchorClock. If t is the zero value, the current
// real time is used.
func NewAnchorClock(t time.Time, loc *time.Location) AnchorClock {
	if loc == nil {
		loc = time.UTC
	}
	if t.IsZero() {
		t = time.Now()
	}
	return AnchorClock{anchor: t.In(loc), loc: loc}
}

func (c AnchorClock) Now() time.Time           { return c.anchor }
func (c AnchorClock) Location() *time.Location { return c.loc }
