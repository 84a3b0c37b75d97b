package registry

// Request is the common shape of every in-flight, originator-side
// request keyed by RequestId in the Requests table: SubscribeRequest,
// FetchRequest, PublishNamespaceRequest, SubscribeAnnouncesRequest, and
// TrackStatusRequest all satisfy it.
//
// Each concrete type is a one-shot future: exactly one of its own
// Complete method or Abort may resolve it with a result, deliverable
// through its own typed Wait method. Complete is called by the control
// reader loop when the matching Ok/Error message arrives and panics on
// a second call — duplicate responses are a protocol bug, not a race
// to tolerate. Abort is called once by session teardown to resolve any
// requests still outstanding with an internal error; it is a no-op if
// the request already completed.
type Request interface {
	ID() uint64
	Abort(err error)
}
