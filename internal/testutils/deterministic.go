// Package testutils provides deterministic clocks and document fixtures for ccode tests.
package testutils

import (
	"sync"
	"time"
)

// BaseTime is the first instant returned by a SequentialClock created with NewSequentialClock.
var BaseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// SequentialClock returns incrementing deterministic timestamps.
// Each call to Now returns a time Step later than the previous call.
type SequentialClock struct {
	mu   sync.Mutex
	next time.Time
	Step time.Duration
}

// NewSequentialClock creates a clock starting at BaseTime with one-second steps.
func NewSequentialClock() *SequentialClock {
	return NewSequentialClockAt(BaseTime, time.Second)
}

// NewSequentialClockAt creates a clock starting at start with the given step.
func NewSequentialClockAt(start time.Time, step time.Duration) *SequentialClock {
	return &SequentialClock{next: start, Step: step}
}

// Now returns the next timestamp.
func (c *SequentialClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.next
	c.next = c.next.Add(c.Step)
	return now
}

// FixedClock returns a clock function that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
