package engine

import "sync/atomic"

// Clock counts completed ticks.
//
// Tick indices are the only notion of time in a run: record steps, trajectory
// indices and the oracle's simulated time (tick*dt) all derive from it.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations), so a
// progress observer may read Current while the driver advances it.
type Clock struct {
	tick atomic.Int64
}

// NewClock creates a new clock starting at tick 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next marks the current tick as completed and returns the new tick index.
func (c *Clock) Next() int {
	return int(c.tick.Add(1))
}

// Current returns the index of the tick about to be processed.
func (c *Clock) Current() int {
	return int(c.tick.Load())
}
