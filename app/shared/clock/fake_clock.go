package clock

import "time"

// FakeClock is a fake implementation of the Clock interface.
type FakeClock struct {
	NowFn      func() time.Time
	LocationFn func() *time.Location
}

func (f *FakeClock) Now() time.Time {
	if f.NowFn != nil {
		return f.NowFn()
	}
	return time.Now()
}

func (f *FakeClock) Location() *time.Location {
	if f.LocationFn != nil {
		return f.LocationFn()
	}
	return time.UTC
}

// Fixed returns a FakeClock frozen at t, in t's location.
func Fixed(t time.Time) *FakeClock {
	return &FakeClock{
		NowFn:      func() time.Time { return t },
		LocationFn: func() *time.Location { return t.Location() },
	}
}
