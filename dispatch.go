package moqtail

import (
	"github.com/streaming-university/moqtail-sub001/internal/protocol"
	"github.com/streaming-university/moqtail-sub001/internal/registry"
)

// newDispatchTable builds the control-message switch a Session's
// readControlLoop consults by message type. Handlers that resolve a
// self-originated request look it up in s.requests; handlers for
// peer-originated requests (SUBSCRIBE, FETCH, …) build and register a
// publication instead.
func newDispatchTable() map[uint64]func(*Session, []byte) error {
	return map[uint64]func(*Session, []byte) error{
		protocol.MsgSubscribeOk:           (*Session).handleSubscribeOk,
		protocol.MsgSubscribeError:        (*Session).handleSubscribeError,
		protocol.MsgSubscribeDone:         (*Session).handleSubscribeDone,
		protocol.MsgFetchOk:               (*Session).handleFetchOk,
		protocol.MsgFetchError:            (*Session).handleFetchError,
		protocol.MsgAnnounceOk:            (*Session).handlePublishNamespaceOk,
		protocol.MsgAnnounceError:         (*Session).handlePublishNamespaceError,
		protocol.MsgAnnounce:              (*Session).handlePublishNamespace,
		protocol.MsgUnannounce:            (*Session).handlePublishNamespaceDone,
		protocol.MsgAnnounceCancel:        (*Session).handlePublishNamespaceCancel,
		protocol.MsgSubscribeAnnouncesOk:  (*Session).handleSubscribeAnnouncesOk,
		protocol.MsgSubscribeAnnouncesErr: (*Session).handleSubscribeAnnouncesError,
		protocol.MsgGoAway:                (*Session).handleGoAway,
		protocol.MsgMaxRequestID:          (*Session).handleMaxRequestID,
		protocol.MsgRequestsBlocked:       (*Session).handleRequestsBlocked,
		protocol.MsgTrackStatusRequest:    (*Session).handleTrackStatusRequest,
		protocol.MsgTrackStatus:           (*Session).handleTrackStatus,
		protocol.MsgTrackStatusRequestResp: (*Session).handleTrackStatusRequestResp,

		protocol.MsgSubscribe:       (*Session).handleIncomingSubscribe,
		protocol.MsgSubscribeUpdate: (*Session).handleIncomingSubscribeUpdate,
		protocol.MsgUnsubscribe:     (*Session).handleIncomingUnsubscribe,
		protocol.MsgFetch:           (*Session).handleIncomingFetch,
		protocol.MsgFetchCancel:     (*Session).handleIncomingFetchCancel,
	}
}

func (s *Session) handleSubscribeOk(payload []byte) error {
	ok, err := protocol.ParseSubscribeOk(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(ok.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	sreq, isSubscribe := req.(*registry.SubscribeRequest)
	if !isSubscribe {
		return ErrProtocolViolation
	}
	if _, alreadyActive := s.subscriptions.Get(sreq.TrackAlias); alreadyActive {
		return ErrProtocolViolation
	}
	if err := s.aliases.Add(sreq.TrackAlias, sreq.FullTrackName); err != nil {
		return ErrProtocolViolation
	}
	s.subscriptions.Add(sreq)
	sreq.Complete(registry.SubscribeResult{Ok: &ok})
	return nil
}

func (s *Session) handleSubscribeError(payload []byte) error {
	se, err := protocol.ParseSubscribeError(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(se.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	sreq, isSubscribe := req.(*registry.SubscribeRequest)
	if !isSubscribe {
		return ErrProtocolViolation
	}
	s.requests.Remove(se.RequestID)
	sreq.Complete(registry.SubscribeResult{Err: &se})
	return nil
}

func (s *Session) handleSubscribeDone(payload []byte) error {
	sd, err := protocol.ParseSubscribeDone(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(sd.RequestID)
	if !found {
		s.log.Warn("subscribe_done for unknown request", "request_id", sd.RequestID)
		return nil
	}
	sreq, isSubscribe := req.(*registry.SubscribeRequest)
	if !isSubscribe {
		return ErrProtocolViolation
	}
	if complete := sreq.SetExpectedStreams(sd.StreamsOpened); complete {
		s.requests.Remove(sd.RequestID)
		s.subscriptions.Remove(sreq.TrackAlias)
		if sink, ok := sreq.Sink.(*objectStream); ok {
			sink.close()
		}
	}
	return nil
}

func (s *Session) handleFetchOk(payload []byte) error {
	ok, err := protocol.ParseFetchOk(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(ok.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	freq, isFetch := req.(*registry.FetchRequest)
	if !isFetch {
		return ErrProtocolViolation
	}
	freq.Complete(registry.FetchResult{Ok: &ok})
	return nil
}

func (s *Session) handleFetchError(payload []byte) error {
	fe, err := protocol.ParseFetchError(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(fe.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	freq, isFetch := req.(*registry.FetchRequest)
	if !isFetch {
		return ErrProtocolViolation
	}
	s.requests.Remove(fe.RequestID)
	freq.Complete(registry.FetchResult{Err: &fe})
	return nil
}

func (s *Session) handlePublishNamespaceOk(payload []byte) error {
	ok, err := protocol.ParsePublishNamespaceOk(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(ok.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	preq, isPublish := req.(*registry.PublishNamespaceRequest)
	if !isPublish {
		return ErrProtocolViolation
	}
	s.requests.Remove(ok.RequestID)
	preq.Complete(registry.PublishNamespaceResult{Ok: true})
	return nil
}

func (s *Session) handlePublishNamespaceError(payload []byte) error {
	pe, err := protocol.ParsePublishNamespaceError(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(pe.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	preq, isPublish := req.(*registry.PublishNamespaceRequest)
	if !isPublish {
		return ErrProtocolViolation
	}
	s.requests.Remove(pe.RequestID)
	preq.Complete(registry.PublishNamespaceResult{Err: &pe})
	return nil
}

// handlePublishNamespace answers an incoming namespace advertisement
// with PUBLISH_NAMESPACE_OK and surfaces it to the caller. This session
// never itself declines an advertisement; it has no announced-namespace
// table of its own to conflict with the peer's.
func (s *Session) handlePublishNamespace(payload []byte) error {
	p, err := protocol.ParsePublishNamespace(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	if err := s.writeControl(protocol.MsgAnnounceOk, protocol.PublishNamespaceOk{RequestID: p.RequestID}.Serialize()); err != nil {
		return internalErrorf("ack publish_namespace", err)
	}

	s.cbMu.RLock()
	cb := s.onNamespacePublished
	s.cbMu.RUnlock()
	if cb != nil {
		ns := make([]string, len(p.Namespace))
		for i, f := range p.Namespace {
			ns[i] = string(f)
		}
		cb(ns, p.Params)
	}
	return nil
}

func (s *Session) handlePublishNamespaceDone(payload []byte) error {
	p, err := protocol.ParsePublishNamespaceDone(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	s.fireNamespaceDone(p.Namespace)
	return nil
}

func (s *Session) handlePublishNamespaceCancel(payload []byte) error {
	p, err := protocol.ParsePublishNamespaceCancel(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	s.log.Info("publish_namespace canceled by peer", "error_code", p.ErrorCode, "reason", p.ReasonPhrase)
	s.fireNamespaceDone(p.Namespace)
	return nil
}

func (s *Session) fireNamespaceDone(namespace [][]byte) {
	s.cbMu.RLock()
	cb := s.onNamespaceDone
	s.cbMu.RUnlock()
	if cb == nil {
		return
	}
	ns := make([]string, len(namespace))
	for i, f := range namespace {
		ns[i] = string(f)
	}
	cb(ns)
}

func (s *Session) handleSubscribeAnnouncesOk(payload []byte) error {
	ok, err := protocol.ParseSubscribeAnnouncesOk(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(ok.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	sareq, isSA := req.(*registry.SubscribeAnnouncesRequest)
	if !isSA {
		return ErrProtocolViolation
	}
	s.requests.Remove(ok.RequestID)
	sareq.Complete(registry.SubscribeAnnouncesResult{Ok: true})
	return nil
}

func (s *Session) handleSubscribeAnnouncesError(payload []byte) error {
	se, err := protocol.ParseSubscribeAnnouncesError(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(se.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	sareq, isSA := req.(*registry.SubscribeAnnouncesRequest)
	if !isSA {
		return ErrProtocolViolation
	}
	s.requests.Remove(se.RequestID)
	sareq.Complete(registry.SubscribeAnnouncesResult{Err: &se})
	return nil
}

func (s *Session) handleGoAway(payload []byte) error {
	ga, err := protocol.ParseGoAway(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	s.log.Info("peer requested go_away", "new_session_uri", ga.NewSessionURI)
	s.cbMu.RLock()
	cb := s.onGoAway
	s.cbMu.RUnlock()
	if cb != nil {
		cb(ga.NewSessionURI)
	}
	return nil
}

// handleMaxRequestID is log-only: this session's RequestIDGenerator is
// monotonic on the caller's own half of the id space regardless of the
// peer's advertised ceiling, and callers are expected to watch for
// RequestsBlocked rather than pre-check against it.
func (s *Session) handleMaxRequestID(payload []byte) error {
	m, err := protocol.ParseMaxRequestID(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	s.log.Debug("peer advertised max request id", "max_request_id", m.RequestID)
	return nil
}

func (s *Session) handleRequestsBlocked(payload []byte) error {
	rb, err := protocol.ParseRequestsBlocked(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	s.log.Debug("peer reported requests_blocked", "max_request_id", rb.MaxRequestID)
	return nil
}

func (s *Session) handleTrackStatusRequest(payload []byte) error {
	req, err := protocol.ParseTrackStatusRequest(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	name := fullTrackNameFromProtocol(mustFullTrackName(req.Namespace, req.TrackName))
	track, ok := s.track(name)
	if !ok {
		terr := protocol.TrackStatusError{RequestID: req.RequestID, ErrorCode: protocol.ErrCodeTrackDoesNotExist, ReasonPhrase: "track not found"}
		return s.writeControl(protocol.MsgTrackStatusRequestResp, terr.Serialize())
	}

	status := protocol.TrackStatus{RequestID: req.RequestID}
	if track.PastSource != nil {
		if largest, ok := s.trackLargest(track); ok {
			status.LargestGroup, status.LargestObj = largest.Group, largest.Object
		}
	}
	return s.writeControl(protocol.MsgTrackStatus, status.Serialize())
}

// handleTrackStatus resolves a TRACK_STATUS_REQUEST this session
// originated, once the peer answers with the success case.
func (s *Session) handleTrackStatus(payload []byte) error {
	ts, err := protocol.ParseTrackStatus(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(ts.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	tsreq, isTrackStatus := req.(*registry.TrackStatusRequest)
	if !isTrackStatus {
		return ErrProtocolViolation
	}
	s.requests.Remove(ts.RequestID)
	tsreq.Complete(registry.TrackStatusResult{Ok: &ts})
	return nil
}

// handleTrackStatusRequestResp resolves a TRACK_STATUS_REQUEST this
// session originated, once the peer answers with the reject case.
func (s *Session) handleTrackStatusRequestResp(payload []byte) error {
	te, err := protocol.ParseTrackStatusError(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	req, found := s.requests.Get(te.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	tsreq, isTrackStatus := req.(*registry.TrackStatusRequest)
	if !isTrackStatus {
		return ErrProtocolViolation
	}
	s.requests.Remove(te.RequestID)
	tsreq.Complete(registry.TrackStatusResult{Err: &te})
	return nil
}

// trackLargest is a hook point a future live/past-source extension can
// use to answer TRACK_STATUS_REQUEST with real data; today nothing
// populates it so it always reports unknown.
func (s *Session) trackLargest(track *Track) (Location, bool) {
	return Location{}, false
}

func mustFullTrackName(namespace [][]byte, name []byte) protocol.FullTrackName {
	ftn, _ := protocol.NewFullTrackName(namespace, name)
	return ftn
}
