// Package clock abstracts the wall clock so batch timings and bundle names
// are deterministic in tests.
package clock

import "time"

// StampLayout is the timestamp format used in generated file names.
const StampLayout = "20060102-150405"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current system time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock returns a fixed time, optionally moving forward by Step on
// every call to Now.
type FakeClock struct {
	current time.Time
	Step    time.Duration
}

// NewFakeClock creates a new FakeClock starting at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t}
}

// Now returns the current fake time, then advances it by Step.
func (c *FakeClock) Now() time.Time {
	now := c.current
	c.current = c.current.Add(c.Step)
	return now
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// Stamp formats the clock's current time for use in file names.
func Stamp(c Clock) string {
	return c.Now().Format(StampLayout)
}
