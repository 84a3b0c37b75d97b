package registry

import (
	"context"
	"sync/atomic"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

// FetchResult is the eventual outcome of a fetch request.
type FetchResult struct {
	Ok       *protocol.FetchOk
	Err      *protocol.FetchError
	Internal error
}

// FetchRequest tracks one outstanding FETCH this session originated.
type FetchRequest struct {
	RequestID uint64
	Start     protocol.Location
	End       protocol.Location

	// Sink is an opaque delivery handle, see SubscribeRequest.Sink.
	Sink any

	done   atomic.Bool
	result chan FetchResult
}

// NewFetchRequest creates a FetchRequest for reqID over [start, end].
func NewFetchRequest(reqID uint64, start, end protocol.Location) *FetchRequest {
	return &FetchRequest{RequestID: reqID, Start: start, End: end, result: make(chan FetchResult, 1)}
}

// ID implements Request.
func (r *FetchRequest) ID() uint64 { return r.RequestID }

// Complete resolves the request exactly once; a second call panics.
func (r *FetchRequest) Complete(res FetchResult) {
	if !r.done.CompareAndSwap(false, true) {
		panic("registry: fetch request completed twice")
	}
	r.result <- res
}

// Abort resolves the request with an internal error unless it already
// completed.
func (r *FetchRequest) Abort(err error) {
	if r.done.CompareAndSwap(false, true) {
		r.result <- FetchResult{Internal: err}
	}
}

// Wait blocks until the request resolves or ctx is done.
func (r *FetchRequest) Wait(ctx context.Context) (FetchResult, error) {
	select {
	case res := <-r.result:
		return res, nil
	case <-ctx.Done():
		return FetchResult{}, ctx.Err()
	}
}
