// Package clock abstracts the time source used for session timestamps.
package clock

import (
	"sync"
	"time"
)

// Clock provides an abstraction for time operations to enable deterministic testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system time, truncated to UTC.
type RealClock struct{}

// Now returns the current system time in UTC.
func (c *RealClock) Now() time.Time {
	return time.Now().UTC()
}

// FakeClock implements Clock for tests. It is safe for concurrent use, and
// can advance by a fixed step on every call so successive timestamps differ.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewFakeClock creates a new FakeClock fixed at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// NewSteppingClock creates a FakeClock that starts at t and moves forward by
// step after each call to Now.
func NewSteppingClock(t time.Time, step time.Duration) *FakeClock {
	return &FakeClock{current: t, step: step}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Func adapts the clock to APIs that take a time source function.
func Func(c Clock) func() time.Time {
	return c.Now
}
