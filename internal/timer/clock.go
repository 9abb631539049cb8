package timer

import (
	"math"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// FakeClock is a manually advanced clock for tests and replays.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RemainingUntil derives the whole seconds left before deadline. It is
// recomputed from the absolute deadline on every tick, never decremented,
// so late or skipped ticks cannot make the countdown drift.
func RemainingUntil(deadline, now time.Time) int {
	secs := math.Round(deadline.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}
