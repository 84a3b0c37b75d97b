package moqtail

import (
	"context"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
	"github.com/streaming-university/moqtail-sub001/internal/registry"
)

// SubscribeOptions configures an originated SUBSCRIBE.
type SubscribeOptions struct {
	Track      FullTrackName
	TrackAlias TrackAlias // 0 requests an auto-assigned alias
	Priority   uint8
	GroupOrder GroupOrder
	Forward    bool
	Filter     FilterType
	StartGroup uint64 // AbsoluteStart / AbsoluteRange
	StartObj   uint64 // AbsoluteStart / AbsoluteRange
	EndGroup   uint64 // AbsoluteRange
	Params     []KeyValuePair
	// BufferSize bounds how many undelivered objects Recv will queue
	// before producer writes block. Defaults to 64.
	BufferSize int
}

// Subscribe originates a SUBSCRIBE and blocks until the peer answers
// with SUBSCRIBE_OK or SUBSCRIBE_ERROR.
func (s *Session) Subscribe(ctx context.Context, opts SubscribeOptions) (*Subscription, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	if err := protocol.ValidateSubscribeRange(opts.Filter, Location{Group: opts.StartGroup, Object: opts.StartObj}, opts.EndGroup); err != nil {
		return nil, internalErrorf("validate subscribe range", err)
	}

	alias := opts.TrackAlias
	if alias == 0 {
		alias = TrackAlias(s.reqIDGen.Next())
	}
	reqID := s.reqIDGen.Next()

	start, err := protocol.ResolveSubscribeStart(opts.Filter, Location{Group: opts.StartGroup, Object: opts.StartObj}, nil)
	if err != nil {
		return nil, internalErrorf("resolve subscribe start", err)
	}
	var endGroup *uint64
	if opts.Filter == FilterAbsoluteRange {
		eg := opts.EndGroup
		endGroup = &eg
	}

	sreq := registry.NewSubscribeRequest(reqID, protocol.TrackAlias(alias), opts.Track.toProtocol(), start, endGroup, opts.Forward, opts.Priority)
	buffer := opts.BufferSize
	if buffer <= 0 {
		buffer = 64
	}
	objects := newObjectStream(buffer)
	sreq.Sink = objects
	s.requests.Add(sreq)

	msg := protocol.Subscribe{
		RequestID:  reqID,
		TrackAlias: uint64(alias),
		Namespace:  opts.Track.toProtocol().Namespace,
		TrackName:  opts.Track.toProtocol().Name,
		Priority:   opts.Priority,
		GroupOrder: opts.GroupOrder,
		Forward:    opts.Forward,
		FilterType: opts.Filter,
		StartGroup: opts.StartGroup,
		StartObj:   opts.StartObj,
		EndGroup:   opts.EndGroup,
		Params:     opts.Params,
	}
	if err := s.writeControl(protocol.MsgSubscribe, msg.Serialize()); err != nil {
		s.requests.Remove(reqID)
		return nil, internalErrorf("send subscribe", err)
	}

	res, err := sreq.Wait(ctx)
	if err != nil {
		s.requests.Remove(reqID)
		return nil, err
	}
	if res.Internal != nil {
		return nil, res.Internal
	}
	if res.Err != nil {
		return nil, &RequestError{Code: uint64(res.Err.ErrorCode), Reason: res.Err.ReasonPhrase}
	}
	return &Subscription{session: s, reqID: reqID, alias: alias, objects: objects}, nil
}

// Unsubscribe cancels a subscription this session originated.
func (s *Session) Unsubscribe(requestID uint64) error {
	req, found := s.requests.Get(requestID)
	if !found {
		return ErrNotSubscribed
	}
	sreq, isSubscribe := req.(*registry.SubscribeRequest)
	if !isSubscribe {
		return ErrNotSubscribed
	}
	s.requests.Remove(requestID)
	s.subscriptions.Remove(sreq.TrackAlias)
	if sink, ok := sreq.Sink.(*objectStream); ok {
		sink.close()
	}
	msg := protocol.Unsubscribe{RequestID: requestID}
	return s.writeControl(protocol.MsgUnsubscribe, msg.Serialize())
}

// SubscribeUpdateOptions narrows an existing subscription. Every field
// must narrow (never widen) the current window, per spec.md's
// SUBSCRIBE_UPDATE invariant.
type SubscribeUpdateOptions struct {
	StartGroup uint64
	StartObj   uint64
	EndGroup   uint64
	Priority   uint8
	Forward    bool
	Params     []KeyValuePair
}

// SubscribeUpdate narrows requestID's subscription window or priority.
// It rejects any attempt to widen the window before writing anything to
// the wire.
func (s *Session) SubscribeUpdate(requestID uint64, opts SubscribeUpdateOptions) error {
	req, found := s.requests.Get(requestID)
	if !found {
		return ErrNotSubscribed
	}
	sreq, isSubscribe := req.(*registry.SubscribeRequest)
	if !isSubscribe {
		return ErrNotSubscribed
	}

	newStart := Location{Group: opts.StartGroup, Object: opts.StartObj}
	if newStart.Less(sreq.StartLocation()) {
		return ErrProtocolViolation
	}
	if curEnd, ok := sreq.EndGroup(); ok && opts.EndGroup > curEnd {
		return ErrProtocolViolation
	}

	msg := protocol.SubscribeUpdate{
		RequestID:  requestID,
		StartGroup: opts.StartGroup,
		StartObj:   opts.StartObj,
		EndGroup:   opts.EndGroup,
		Priority:   opts.Priority,
		Forward:    opts.Forward,
		Params:     opts.Params,
	}
	if err := s.writeControl(protocol.MsgSubscribeUpdate, msg.Serialize()); err != nil {
		return internalErrorf("send subscribe_update", err)
	}
	sreq.SetStartLocation(newStart)
	sreq.SetEndGroup(opts.EndGroup)
	return nil
}

// FetchOptions configures an originated standalone FETCH.
type FetchOptions struct {
	Track      FullTrackName
	Priority   uint8
	GroupOrder GroupOrder
	StartGroup uint64
	StartObj   uint64
	EndGroup   uint64
	EndObj     uint64
	Params     []KeyValuePair
	BufferSize int
}

// Fetch originates a standalone FETCH and blocks until the peer answers
// with FETCH_OK or FETCH_ERROR.
func (s *Session) Fetch(ctx context.Context, opts FetchOptions) (*FetchStream, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	reqID := s.reqIDGen.Next()
	start := Location{Group: opts.StartGroup, Object: opts.StartObj}
	end := Location{Group: opts.EndGroup, Object: opts.EndObj}

	freq := registry.NewFetchRequest(reqID, start, end)
	buffer := opts.BufferSize
	if buffer <= 0 {
		buffer = 64
	}
	objects := newObjectStream(buffer)
	freq.Sink = objects
	s.requests.Add(freq)

	msg := protocol.Fetch{
		RequestID:  reqID,
		Priority:   opts.Priority,
		GroupOrder: opts.GroupOrder,
		TypeProps: protocol.FetchTypeAndProps{
			Kind:       protocol.FetchStandAlone,
			Namespace:  opts.Track.toProtocol().Namespace,
			TrackName:  opts.Track.toProtocol().Name,
			StartGroup: opts.StartGroup,
			StartObj:   opts.StartObj,
			EndGroup:   opts.EndGroup,
			EndObj:     opts.EndObj,
		},
		Params: opts.Params,
	}
	if err := s.writeControl(protocol.MsgFetch, msg.Serialize()); err != nil {
		s.requests.Remove(reqID)
		return nil, internalErrorf("send fetch", err)
	}

	res, err := freq.Wait(ctx)
	if err != nil {
		s.requests.Remove(reqID)
		return nil, err
	}
	if res.Internal != nil {
		return nil, res.Internal
	}
	if res.Err != nil {
		return nil, &RequestError{Code: uint64(res.Err.ErrorCode), Reason: res.Err.ReasonPhrase}
	}
	return &FetchStream{session: s, reqID: reqID, objects: objects}, nil
}

// FetchCancel abandons a fetch this session originated.
func (s *Session) FetchCancel(requestID uint64) error {
	req, found := s.requests.Get(requestID)
	if !found {
		return ErrUnknownTrack
	}
	freq, isFetch := req.(*registry.FetchRequest)
	if !isFetch {
		return ErrUnknownTrack
	}
	s.requests.Remove(requestID)
	if sink, ok := freq.Sink.(*objectStream); ok {
		sink.close()
	}
	msg := protocol.FetchCancel{RequestID: requestID}
	return s.writeControl(protocol.MsgFetchCancel, msg.Serialize())
}

// PublishNamespace advertises namespace to the peer and blocks until
// the peer answers with PUBLISH_NAMESPACE_OK or _ERROR.
func (s *Session) PublishNamespace(ctx context.Context, namespace []string, params []KeyValuePair) error {
	raw := make([][]byte, len(namespace))
	for i, f := range namespace {
		raw[i] = []byte(f)
	}
	reqID := s.reqIDGen.Next()
	preq := registry.NewPublishNamespaceRequest(reqID, raw)
	s.requests.Add(preq)

	msg := protocol.PublishNamespace{RequestID: reqID, Namespace: raw, Params: params}
	if err := s.writeControl(protocol.MsgAnnounce, msg.Serialize()); err != nil {
		s.requests.Remove(reqID)
		return internalErrorf("send publish_namespace", err)
	}

	res, err := preq.Wait(ctx)
	if err != nil {
		s.requests.Remove(reqID)
		return err
	}
	if res.Internal != nil {
		return res.Internal
	}
	if res.Err != nil {
		return &RequestError{Code: uint64(res.Err.ErrorCode), Reason: res.Err.ReasonPhrase}
	}

	s.announcedMu.Lock()
	s.announced[namespaceKey(namespace)] = true
	s.announcedMu.Unlock()
	return nil
}

// namespaceKey builds a comparable map key for a namespace tuple,
// escaping "/" so adjacent fields cannot collide across boundaries.
func namespaceKey(namespace []string) string {
	var key []byte
	for _, f := range namespace {
		key = append(key, '/')
		for i := 0; i < len(f); i++ {
			if f[i] == '/' || f[i] == '\\' {
				key = append(key, '\\')
			}
			key = append(key, f[i])
		}
	}
	return string(key)
}

// PublishNamespaceDone withdraws a previously published namespace.
func (s *Session) PublishNamespaceDone(namespace []string) error {
	raw := make([][]byte, len(namespace))
	for i, f := range namespace {
		raw[i] = []byte(f)
	}
	s.announcedMu.Lock()
	delete(s.announced, namespaceKey(namespace))
	s.announcedMu.Unlock()

	msg := protocol.PublishNamespaceDone{Namespace: raw}
	return s.writeControl(protocol.MsgUnannounce, msg.Serialize())
}

// SubscribeAnnounces registers interest in PUBLISH_NAMESPACE messages
// whose namespace carries prefix as a prefix, and blocks until the peer
// answers.
func (s *Session) SubscribeAnnounces(ctx context.Context, prefix []string, params []KeyValuePair) error {
	raw := make([][]byte, len(prefix))
	for i, f := range prefix {
		raw[i] = []byte(f)
	}
	reqID := s.reqIDGen.Next()
	sareq := registry.NewSubscribeAnnouncesRequest(reqID, raw)
	s.requests.Add(sareq)

	msg := protocol.SubscribeAnnounces{RequestID: reqID, NamespacePrefix: raw, Params: params}
	if err := s.writeControl(protocol.MsgSubscribeAnnounces, msg.Serialize()); err != nil {
		s.requests.Remove(reqID)
		return internalErrorf("send subscribe_announces", err)
	}

	res, err := sareq.Wait(ctx)
	if err != nil {
		s.requests.Remove(reqID)
		return err
	}
	if res.Internal != nil {
		return res.Internal
	}
	if res.Err != nil {
		return &RequestError{Code: uint64(res.Err.ErrorCode), Reason: res.Err.ReasonPhrase}
	}
	return nil
}

// UnsubscribeAnnounces withdraws a SubscribeAnnounces registration.
func (s *Session) UnsubscribeAnnounces(prefix []string) error {
	raw := make([][]byte, len(prefix))
	for i, f := range prefix {
		raw[i] = []byte(f)
	}
	msg := protocol.UnsubscribeAnnounces{NamespacePrefix: raw}
	return s.writeControl(protocol.MsgUnsubscribeAnnounces, msg.Serialize())
}

// AddOrUpdateTrack registers track as servable to the peer's incoming
// SUBSCRIBE and FETCH requests.
func (s *Session) AddOrUpdateTrack(track *Track) {
	s.tracksMu.Lock()
	s.tracks[track.Name.Key()] = track
	s.tracksMu.Unlock()
}

// RemoveTrack deregisters a track, causing future SUBSCRIBE/FETCH
// requests for it to be rejected with ErrCodeTrackDoesNotExist.
func (s *Session) RemoveTrack(name FullTrackName) {
	s.tracksMu.Lock()
	delete(s.tracks, name.Key())
	s.tracksMu.Unlock()
}

// TrackStatusInfo reports a track's known state without subscribing to
// it, per TRACK_STATUS_REQUEST's success answer.
type TrackStatusInfo struct {
	StatusCode uint64
	Largest    Location
	Params     []KeyValuePair
}

// TrackStatus asks the peer for track's current state without
// subscribing to it, and blocks until the peer answers.
func (s *Session) TrackStatus(ctx context.Context, track FullTrackName) (TrackStatusInfo, error) {
	if s.isClosed() {
		return TrackStatusInfo{}, ErrSessionClosed
	}
	reqID := s.reqIDGen.Next()
	tsreq := registry.NewTrackStatusRequest(reqID)
	s.requests.Add(tsreq)

	msg := protocol.TrackStatusRequest{
		RequestID: reqID,
		Namespace: track.toProtocol().Namespace,
		TrackName: track.toProtocol().Name,
	}
	if err := s.writeControl(protocol.MsgTrackStatusRequest, msg.Serialize()); err != nil {
		s.requests.Remove(reqID)
		return TrackStatusInfo{}, internalErrorf("send track_status_request", err)
	}

	res, err := tsreq.Wait(ctx)
	if err != nil {
		s.requests.Remove(reqID)
		return TrackStatusInfo{}, err
	}
	if res.Internal != nil {
		return TrackStatusInfo{}, res.Internal
	}
	if res.Err != nil {
		return TrackStatusInfo{}, &RequestError{Code: uint64(res.Err.ErrorCode), Reason: res.Err.ReasonPhrase}
	}
	return TrackStatusInfo{
		StatusCode: res.Ok.StatusCode,
		Largest:    Location{Group: res.Ok.LargestGroup, Object: res.Ok.LargestObj},
		Params:     res.Ok.Params,
	}, nil
}

// RequestError is returned by an originating operation when the peer
// answers with an explicit protocol error rather than success.
type RequestError struct {
	Code   uint64
	Reason string
}

func (e *RequestError) Error() string {
	if e.Reason == "" {
		return "moqtail: request error"
	}
	return "moqtail: request error: " + e.Reason
}
