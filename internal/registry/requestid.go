package registry

import "sync/atomic"

// RequestIDGenerator allocates strictly increasing request ids with a
// stride of 2, leaving the other parity free for the peer's
// self-originated ids in the same id space. The initial value is
// configurable rather than hardcoded to 0, since spec.md §9 notes some
// deployed relays expect a session to start at 1.
type RequestIDGenerator struct {
	next atomic.Uint64
}

// NewRequestIDGenerator creates a generator whose first Next() call
// returns initial.
func NewRequestIDGenerator(initial uint64) *RequestIDGenerator {
	g := &RequestIDGenerator{}
	g.next.Store(initial)
	return g
}

// Next returns the current id and advances the counter by 2.
func (g *RequestIDGenerator) Next() uint64 {
	return g.next.Add(2) - 2
}
