package engine

import "sync/atomic"

// Clock is the logical clock that stamps edits. Values are strictly
// increasing and start after the highest seq already in the log.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Peek returns the value the next call to Next will hand out.
func (c *Clock) Peek() int64 {
	return c.seq.Load() + 1
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
