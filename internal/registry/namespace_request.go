package registry

import (
	"context"
	"sync/atomic"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

// PublishNamespaceResult is the eventual outcome of a publish_namespace
// (wire name ANNOUNCE) request.
type PublishNamespaceResult struct {
	Ok       bool
	Err      *protocol.PublishNamespaceError
	Internal error
}

// PublishNamespaceRequest tracks one outstanding PUBLISH_NAMESPACE this
// session originated.
type PublishNamespaceRequest struct {
	RequestID uint64
	Namespace [][]byte

	done   atomic.Bool
	result chan PublishNamespaceResult
}

func NewPublishNamespaceRequest(reqID uint64, namespace [][]byte) *PublishNamespaceRequest {
	return &PublishNamespaceRequest{RequestID: reqID, Namespace: namespace, result: make(chan PublishNamespaceResult, 1)}
}

func (r *PublishNamespaceRequest) ID() uint64 { return r.RequestID }

func (r *PublishNamespaceRequest) Complete(res PublishNamespaceResult) {
	if !r.done.CompareAndSwap(false, true) {
		panic("registry: publish_namespace request completed twice")
	}
	r.result <- res
}

func (r *PublishNamespaceRequest) Abort(err error) {
	if r.done.CompareAndSwap(false, true) {
		r.result <- PublishNamespaceResult{Internal: err}
	}
}

func (r *PublishNamespaceRequest) Wait(ctx context.Context) (PublishNamespaceResult, error) {
	select {
	case res := <-r.result:
		return res, nil
	case <-ctx.Done():
		return PublishNamespaceResult{}, ctx.Err()
	}
}

// SubscribeAnnouncesResult is the eventual outcome of a
// subscribe_announces request.
type SubscribeAnnouncesResult struct {
	Ok       bool
	Err      *protocol.SubscribeAnnouncesError
	Internal error
}

// SubscribeAnnouncesRequest tracks one outstanding SUBSCRIBE_ANNOUNCES
// this session originated.
type SubscribeAnnouncesRequest struct {
	RequestID       uint64
	NamespacePrefix [][]byte

	done   atomic.Bool
	result chan SubscribeAnnouncesResult
}

func NewSubscribeAnnouncesRequest(reqID uint64, prefix [][]byte) *SubscribeAnnouncesRequest {
	return &SubscribeAnnouncesRequest{RequestID: reqID, NamespacePrefix: prefix, result: make(chan SubscribeAnnouncesResult, 1)}
}

func (r *SubscribeAnnouncesRequest) ID() uint64 { return r.RequestID }

func (r *SubscribeAnnouncesRequest) Complete(res SubscribeAnnouncesResult) {
	if !r.done.CompareAndSwap(false, true) {
		panic("registry: subscribe_announces request completed twice")
	}
	r.result <- res
}

func (r *SubscribeAnnouncesRequest) Abort(err error) {
	if r.done.CompareAndSwap(false, true) {
		r.result <- SubscribeAnnouncesResult{Internal: err}
	}
}

func (r *SubscribeAnnouncesRequest) Wait(ctx context.Context) (SubscribeAnnouncesResult, error) {
	select {
	case res := <-r.result:
		return res, nil
	case <-ctx.Done():
		return SubscribeAnnouncesResult{}, ctx.Err()
	}
}
