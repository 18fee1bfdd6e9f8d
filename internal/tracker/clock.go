package tracker

import "time"

// Clock supplies the timestamps tasks are measured with.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. Durations are computed from the
// monotonic reading time.Now attaches.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock only moves when Advance is called. It makes timings
// deterministic in tests and replays.
type ManualClock struct {
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
