package registry

import (
	"context"
	"sync/atomic"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

// TrackStatusResult is the eventual outcome of a track_status request.
type TrackStatusResult struct {
	Ok       *protocol.TrackStatus
	Err      *protocol.TrackStatusError
	Internal error
}

// TrackStatusRequest tracks one outstanding TRACK_STATUS_REQUEST this
// session originated.
type TrackStatusRequest struct {
	RequestID uint64

	done   atomic.Bool
	result chan TrackStatusResult
}

func NewTrackStatusRequest(reqID uint64) *TrackStatusRequest {
	return &TrackStatusRequest{RequestID: reqID, result: make(chan TrackStatusResult, 1)}
}

func (r *TrackStatusRequest) ID() uint64 { return r.RequestID }

func (r *TrackStatusRequest) Complete(res TrackStatusResult) {
	if !r.done.CompareAndSwap(false, true) {
		panic("registry: track_status request completed twice")
	}
	r.result <- res
}

func (r *TrackStatusRequest) Abort(err error) {
	if r.done.CompareAndSwap(false, true) {
		r.result <- TrackStatusResult{Internal: err}
	}
}

func (r *TrackStatusRequest) Wait(ctx context.Context) (TrackStatusResult, error) {
	select {
	case res := <-r.result:
		return res, nil
	case <-ctx.Done():
		return TrackStatusResult{}, ctx.Err()
	}
}
