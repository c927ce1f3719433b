package engine

import "sync/atomic"

// Clock is a monotonic logical clock for ordering crank and transfer
// records. Stamping audit rows with a strictly increasing seq keeps the
// combined trace in a total order without wall-clock race conditions.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the host serializes cranks so only one goroutine typically
// calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used on startup to resume from the store's last recorded seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
