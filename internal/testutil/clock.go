package testutil

import (
	"sync"
	"time"
)

// Clock provides a thread-safe deterministic time source for tests.
//
// Unlike wall time, a Clock only moves when a test tells it to. This
// makes timestamps in published versions and metric records exactly
// predictable, so tests assert equality instead of windows.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at start.
//
// Pass a UTC instant; the service stores whatever the clock returns.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current instant without advancing.
//
// Pass the method value (clock.Now) wherever a time source function is
// expected.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
//
// Monotonic: tests only ever move the clock forward.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps the clock to t.
//
// Used to reproduce a specific recorded scenario.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
