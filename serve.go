package moqtail

import (
	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

// handleIncomingSubscribe answers a peer SUBSCRIBE: locate the track,
// resolve a track alias (rejecting with RetryTrackAlias on a
// conflict), resolve the filter to a start location, and register a
// SubscribePublication fed by the track's LiveObjectSource.
func (s *Session) handleIncomingSubscribe(payload []byte) error {
	sub, err := protocol.ParseSubscribe(payload)
	if err != nil {
		return ErrProtocolViolation
	}

	name := fullTrackNameFromProtocol(mustFullTrackName(sub.Namespace, sub.TrackName))
	track, ok := s.track(name)
	if !ok {
		return s.rejectSubscribe(sub.RequestID, protocol.ErrCodeTrackDoesNotExist, "track not found")
	}
	if track.LiveSource == nil {
		return s.rejectSubscribe(sub.RequestID, protocol.ErrCodeNotSupported, "track has no live source")
	}

	alias := protocol.TrackAlias(sub.TrackAlias)
	if err := s.aliases.Add(alias, name.toProtocol()); err != nil {
		fresh := protocol.TrackAlias(s.reqIDGen.Next())
		for s.aliases.HasAlias(fresh) {
			fresh = protocol.TrackAlias(s.reqIDGen.Next())
		}
		errMsg := protocol.SubscribeError{RequestID: sub.RequestID, ErrorCode: protocol.ErrCodeRetryTrackAlias, ReasonPhrase: "track alias in use", TrackAlias: uint64(fresh)}
		return s.writeControl(protocol.MsgSubscribeError, errMsg.Serialize())
	}

	start, err := protocol.ResolveSubscribeStart(sub.FilterType, Location{Group: sub.StartGroup, Object: sub.StartObj}, nil)
	if err != nil {
		return s.rejectSubscribe(sub.RequestID, protocol.ErrCodeInvalidRange, "invalid filter")
	}
	if err := protocol.ValidateSubscribeRange(sub.FilterType, start, sub.EndGroup); err != nil {
		return s.rejectSubscribe(sub.RequestID, protocol.ErrCodeInvalidRange, "invalid range")
	}
	var endGroup *uint64
	if sub.FilterType == protocol.FilterAbsoluteRange {
		eg := sub.EndGroup
		endGroup = &eg
	}

	pub := &SubscribePublication{
		session:    s,
		track:      track,
		reqID:      sub.RequestID,
		trackAlias: TrackAlias(alias),
		subPrio:    sub.Priority,
		start:      start,
		endGroup:   endGroup,
	}
	pub.forward.Store(sub.Forward)
	if !s.publications.Add(pub) {
		return s.rejectSubscribe(sub.RequestID, protocol.ErrCodeInternalError, "duplicate request id")
	}
	pub.liveCancel = track.LiveSource.Subscribe(pub.onNewObject, func() {
		pub.finish(protocol.SubscribeDoneTrackEnded, "track ended")
	})

	ok2 := protocol.SubscribeOk{RequestID: sub.RequestID, GroupOrder: sub.GroupOrder}
	return s.writeControl(protocol.MsgSubscribeOk, ok2.Serialize())
}

func (s *Session) rejectSubscribe(requestID uint64, code protocol.RequestErrorCode, reason string) error {
	msg := protocol.SubscribeError{RequestID: requestID, ErrorCode: code, ReasonPhrase: reason}
	return s.writeControl(protocol.MsgSubscribeError, msg.Serialize())
}

// handleIncomingSubscribeUpdate narrows an active SubscribePublication.
// A widening attempt is a protocol violation: it is rejected before any
// state changes, per spec.md's SUBSCRIBE_UPDATE invariant.
func (s *Session) handleIncomingSubscribeUpdate(payload []byte) error {
	su, err := protocol.ParseSubscribeUpdate(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	pub0, found := s.publications.Get(su.RequestID)
	if !found {
		return ErrProtocolViolation
	}
	pub, isSubscribe := pub0.(*SubscribePublication)
	if !isSubscribe {
		return ErrProtocolViolation
	}

	newStart := Location{Group: su.StartGroup, Object: su.StartObj}
	pub.streamMu.Lock()
	defer pub.streamMu.Unlock()
	if newStart.Less(pub.start) {
		return ErrProtocolViolation
	}
	if pub.endGroup != nil && su.EndGroup > *pub.endGroup {
		return ErrProtocolViolation
	}
	pub.start = newStart
	if su.EndGroup != 0 {
		eg := su.EndGroup
		pub.endGroup = &eg
	}
	pub.subPrio = su.Priority
	pub.setForward(su.Forward)
	return nil
}

// handleIncomingUnsubscribe stops an active SubscribePublication. No
// SUBSCRIBE_DONE is sent: the peer already knows it asked to stop.
func (s *Session) handleIncomingUnsubscribe(payload []byte) error {
	u, err := protocol.ParseUnsubscribe(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	if pub, found := s.publications.Get(u.RequestID); found {
		pub.Cancel()
	}
	return nil
}

// handleIncomingFetch answers a peer FETCH: resolve the requested
// range (consulting the joining subscription's known largest location
// for Relative/Absolute fetches) and register a FetchPublication that
// streams the track's PastObjectSource.
func (s *Session) handleIncomingFetch(payload []byte) error {
	f, err := protocol.ParseFetch(payload)
	if err != nil {
		return ErrProtocolViolation
	}

	var track *Track
	var joining *protocol.JoiningSubscribeView

	switch f.TypeProps.Kind {
	case protocol.FetchStandAlone:
		name := fullTrackNameFromProtocol(mustFullTrackName(f.TypeProps.Namespace, f.TypeProps.TrackName))
		t, ok := s.track(name)
		if !ok {
			return s.rejectFetch(f.RequestID, protocol.ErrCodeTrackDoesNotExist, "track not found")
		}
		track = t
	case protocol.FetchRelative, protocol.FetchAbsolute:
		joiningPub, found := s.publications.Get(f.TypeProps.JoiningRequestID)
		if !found {
			return s.rejectFetch(f.RequestID, protocol.ErrCodeInvalidRange, "unknown joining subscription")
		}
		sp, isSubscribe := joiningPub.(*SubscribePublication)
		if !isSubscribe {
			return s.rejectFetch(f.RequestID, protocol.ErrCodeInvalidRange, "joining request is not a subscription")
		}
		track = sp.track
		view := protocol.JoiningSubscribeView{LargestLocation: sp.largest()}
		joining = &view
	default:
		return s.rejectFetch(f.RequestID, protocol.ErrCodeInvalidRange, "unknown fetch kind")
	}

	if track.PastSource == nil {
		return s.rejectFetch(f.RequestID, protocol.ErrCodeNotSupported, "track has no past source")
	}
	start, end, err := protocol.ResolveFetchRange(f.TypeProps, joining)
	if err != nil {
		return s.rejectFetch(f.RequestID, protocol.ErrCodeInvalidRange, "invalid range")
	}

	pub := &FetchPublication{session: s, track: track, reqID: f.RequestID, priority: f.Priority, cancelCh: make(chan struct{})}
	if !s.publications.Add(pub) {
		return s.rejectFetch(f.RequestID, protocol.ErrCodeInternalError, "duplicate request id")
	}

	ok := protocol.FetchOk{RequestID: f.RequestID, GroupOrder: f.GroupOrder, InitialGroup: 0, InitialObj: 0}
	if err := s.writeControl(protocol.MsgFetchOk, ok.Serialize()); err != nil {
		s.publications.Remove(f.RequestID)
		return internalErrorf("send fetch_ok", err)
	}
	go pub.run(s.ctx, start, end)
	return nil
}

func (s *Session) rejectFetch(requestID uint64, code protocol.RequestErrorCode, reason string) error {
	msg := protocol.FetchError{RequestID: requestID, ErrorCode: code, ReasonPhrase: reason}
	return s.writeControl(protocol.MsgFetchError, msg.Serialize())
}

// handleIncomingFetchCancel abandons an in-flight FetchPublication.
func (s *Session) handleIncomingFetchCancel(payload []byte) error {
	fc, err := protocol.ParseFetchCancel(payload)
	if err != nil {
		return ErrProtocolViolation
	}
	if pub, found := s.publications.Get(fc.RequestID); found {
		pub.Cancel()
	}
	return nil
}
