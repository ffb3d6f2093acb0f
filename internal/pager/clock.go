package pager

import "sync/atomic"

// Clock hands out request sequence numbers.
//
// Every request issued by a View is stamped with a strictly increasing seq.
// Completions carry the seq back, which lets the view drop answers to
// requests it no longer waits for.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
