package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

// SubscribeResult is the eventual outcome of a subscribe request:
// exactly one of Ok, Err, or Internal is set.
type SubscribeResult struct {
	Ok       *protocol.SubscribeOk
	Err      *protocol.SubscribeError
	Internal error
}

// SubscribeRequest tracks one outstanding (or recently resolved)
// SUBSCRIBE this session originated: the one-shot completion future
// plus the mutable subscription state the uni-stream dispatcher and
// control dispatcher update as objects and SUBSCRIBE_DONE arrive.
type SubscribeRequest struct {
	RequestID     uint64
	TrackAlias    protocol.TrackAlias
	FullTrackName protocol.FullTrackName
	Forward       bool
	Priority      uint8

	// Sink is an opaque delivery handle the caller above this package
	// stashes here (a channel-backed object sink, typically) so the
	// uni-stream dispatcher can hand it decoded objects without this
	// package importing the caller's types.
	Sink any

	mu              sync.Mutex
	startLocation   protocol.Location
	endGroup        *uint64
	largestLocation protocol.Location
	hasLargest      bool
	streamsAccepted uint64
	expectedStreams *uint64

	done   atomic.Bool
	result chan SubscribeResult
}

// NewSubscribeRequest creates a SubscribeRequest for reqID, bound to
// trackAlias/name, with the given resolved start location and optional
// end group (nil unless the filter was AbsoluteRange).
func NewSubscribeRequest(reqID uint64, alias protocol.TrackAlias, name protocol.FullTrackName, start protocol.Location, endGroup *uint64, forward bool, priority uint8) *SubscribeRequest {
	return &SubscribeRequest{
		RequestID:     reqID,
		TrackAlias:    alias,
		FullTrackName: name,
		Forward:       forward,
		Priority:      priority,
		startLocation: start,
		endGroup:      endGroup,
		result:        make(chan SubscribeResult, 1),
	}
}

// ID implements Request.
func (r *SubscribeRequest) ID() uint64 { return r.RequestID }

// Complete resolves the request exactly once. A second call panics:
// the peer sent two responses to the same request id, a protocol
// violation that the caller should already be disconnecting over.
func (r *SubscribeRequest) Complete(res SubscribeResult) {
	if !r.done.CompareAndSwap(false, true) {
		panic("registry: subscribe request completed twice")
	}
	r.result <- res
}

// Abort resolves the request with an internal error if it has not
// already completed; it is silent otherwise.
func (r *SubscribeRequest) Abort(err error) {
	if r.done.CompareAndSwap(false, true) {
		r.result <- SubscribeResult{Internal: err}
	}
}

// Wait blocks until the request resolves or ctx is done.
func (r *SubscribeRequest) Wait(ctx context.Context) (SubscribeResult, error) {
	select {
	case res := <-r.result:
		return res, nil
	case <-ctx.Done():
		return SubscribeResult{}, ctx.Err()
	}
}

// StartLocation returns the filter-resolved start location.
func (r *SubscribeRequest) StartLocation() protocol.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocation
}

// SetStartLocation narrows the start location, used by a successful
// SubscribeUpdate.
func (r *SubscribeRequest) SetStartLocation(loc protocol.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startLocation = loc
}

// EndGroup returns the subscription's end group, if any.
func (r *SubscribeRequest) EndGroup() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.endGroup == nil {
		return 0, false
	}
	return *r.endGroup, true
}

// SetEndGroup narrows the end group, used by a successful SubscribeUpdate.
func (r *SubscribeRequest) SetEndGroup(endGroup uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endGroup = &endGroup
}

// UpdateLargest replaces the largest-seen location by monotonic
// replacement: loc is only applied if it sorts after the current value.
func (r *SubscribeRequest) UpdateLargest(loc protocol.Location) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasLargest || r.largestLocation.Less(loc) {
		r.largestLocation = loc
		r.hasLargest = true
	}
}

// Largest returns the largest-seen location and whether any object has
// been observed yet.
func (r *SubscribeRequest) Largest() (protocol.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.largestLocation, r.hasLargest
}

// IncrementStreamsAccepted records that one more uni stream belonging
// to this subscription finished, returning the new count and whether
// the subscription is now complete (expectedStreams known and reached).
func (r *SubscribeRequest) IncrementStreamsAccepted() (count uint64, complete bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streamsAccepted++
	return r.streamsAccepted, r.expectedStreams != nil && r.streamsAccepted >= *r.expectedStreams
}

// SetExpectedStreams records SUBSCRIBE_DONE's streams_opened count,
// returning whether the subscription is already complete.
func (r *SubscribeRequest) SetExpectedStreams(n uint64) (complete bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expectedStreams = &n
	return r.streamsAccepted >= n
}
