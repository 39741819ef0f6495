package engine

import "sync/atomic"

// Clock hands out increasing sequence numbers starting at 1. A Session
// numbers its staged results with one; the harness orders trace events with
// another. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock that has handed out nothing.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, or 0.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
