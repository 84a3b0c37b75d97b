package moqtail

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
	"github.com/streaming-university/moqtail-sub001/transport"
)

// transportPriority combines a track's publisher priority and a
// subscriber's requested priority into the single priority value set
// on the underlying transport stream: 0.4 weight to the publisher's
// side, 0.6 to the subscriber's, each first rescaled so that lower
// protocol priority (which means "more important") maps to a higher
// transport priority value.
func transportPriority(pubPrio, subPrio uint8) int {
	t := func(p uint8) float64 {
		return math.Round(float64(255-p) * float64(math.MaxInt32) / 255)
	}
	return int(math.Round(0.4*t(pubPrio) + 0.6*t(subPrio)))
}

// SubscribePublication serves one peer SUBSCRIBE: it receives newly
// produced objects from a Track's LiveObjectSource and forwards them
// onto per-group unidirectional streams, opening a new stream on each
// group change and closing the previous one, per the teacher's
// writeVideoLoop group-boundary discipline.
type SubscribePublication struct {
	session    *Session
	track      *Track
	reqID      uint64
	trackAlias TrackAlias
	subPrio    uint8
	start      Location
	endGroup   *uint64

	forward  atomic.Bool
	canceled atomic.Bool

	liveCancel func()

	streamMu      sync.Mutex
	stream        transport.SendStream
	currentGroup  uint64
	haveGroup     bool
	streamHasExt  bool
	streamsOpened atomic.Uint64

	latestMu  sync.Mutex
	latest    Location
	hasLatest bool
}

// RequestID implements registry.Publication.
func (p *SubscribePublication) RequestID() uint64 { return p.reqID }

// Cancel stops delivery, closes any open stream, unsubscribes from the
// live source, and evicts the publication from the session's table. It
// is safe to call more than once.
func (p *SubscribePublication) Cancel() {
	if !p.canceled.CompareAndSwap(false, true) {
		return
	}
	if p.liveCancel != nil {
		p.liveCancel()
	}
	p.streamMu.Lock()
	if p.stream != nil {
		_ = p.stream.Close()
		p.stream = nil
	}
	p.streamMu.Unlock()
	p.session.publications.Remove(p.reqID)
}

// largest returns the highest location written so far, used to resolve
// a joining FETCH's Relative/Absolute range against this subscription.
func (p *SubscribePublication) largest() Location {
	p.latestMu.Lock()
	defer p.latestMu.Unlock()
	return p.latest
}

// setForward updates whether objects are actually written to the wire,
// used by SUBSCRIBE_UPDATE to pause/resume delivery without tearing
// down the subscription.
func (p *SubscribePublication) setForward(forward bool) { p.forward.Store(forward) }

// onNewObject implements the per-object forwarding algorithm: drop if
// canceled or forwarding is off, open a fresh per-group stream on a
// group boundary, write the object, close the stream at a group or
// track end, and send SUBSCRIBE_DONE once the subscription's end group
// is reached.
func (p *SubscribePublication) onNewObject(obj MoqtObject) {
	if p.canceled.Load() || !p.forward.Load() {
		return
	}
	if obj.Location.Less(p.start) {
		return
	}

	p.streamMu.Lock()
	defer p.streamMu.Unlock()

	if !p.haveGroup || obj.Location.Group != p.currentGroup {
		if p.stream != nil {
			_ = p.stream.Close()
			p.stream = nil
		}
		stream, err := p.session.transport.OpenUniStream(p.session.ctx)
		if err != nil {
			p.session.log.Warn("open subgroup stream", "err", err, "request_id", p.reqID)
			return
		}
		stream.SetPriority(transportPriority(p.track.PublisherPriority, p.subPrio))

		hdr := protocol.SubgroupHeader{
			Type:          protocol.SubgroupHeaderType{SubgroupIDKind: protocol.SubgroupIDImplicitZero, HasExtensions: len(obj.Extensions) > 0},
			TrackAlias:    uint64(p.trackAlias),
			GroupID:       obj.Location.Group,
			PublisherPrio: p.track.PublisherPriority,
		}
		if _, err := stream.Write(hdr.Serialize()); err != nil {
			p.session.log.Warn("write subgroup header", "err", err, "request_id", p.reqID)
			return
		}
		p.stream = stream
		p.streamHasExt = hdr.Type.HasExtensions
		p.currentGroup = obj.Location.Group
		p.haveGroup = true
		p.streamsOpened.Add(1)
	}

	so := protocol.SubgroupObject{
		ObjectID:   obj.Location.Object,
		Extensions: obj.Extensions,
		Status:     obj.Status,
		Payload:    obj.Payload,
	}
	if _, err := p.stream.Write(so.Serialize(p.streamHasExt)); err != nil {
		p.session.log.Warn("write subgroup object", "err", err, "request_id", p.reqID)
		return
	}

	p.latestMu.Lock()
	if !p.hasLatest || p.latest.Less(obj.Location) {
		p.latest = obj.Location
		p.hasLatest = true
	}
	p.latestMu.Unlock()

	if obj.Status == ObjectStatusEndOfGroup || obj.Status == ObjectStatusEndOfTrack {
		_ = p.stream.Close()
		p.stream = nil
		p.haveGroup = false
	}

	if p.endGroup != nil && obj.Location.Group >= *p.endGroup {
		p.finish(protocol.SubscribeDoneSubscriptionEnded, "end group reached")
	}
}

// finish sends SUBSCRIBE_DONE and cancels the publication. Called with
// streamMu held by onNewObject, or standalone by the live source's
// onDone callback when the track ends.
func (p *SubscribePublication) finish(code protocol.SubscribeDoneCode, reason string) {
	msg := protocol.SubscribeDone{
		RequestID:     p.reqID,
		StatusCode:    code,
		StreamsOpened: p.streamsOpened.Load(),
		ReasonPhrase:  reason,
	}
	_ = p.session.writeControl(protocol.MsgSubscribeDone, msg.Serialize())
	go p.Cancel()
}

// FetchPublication serves one peer FETCH: a one-shot read of a Track's
// PastObjectSource, streamed out on a single unidirectional stream in
// order, matching the teacher's writeCaptionLoop one-stream-then-close
// shape.
type FetchPublication struct {
	session  *Session
	track    *Track
	reqID    uint64
	priority uint8
	canceled atomic.Bool
	cancelCh chan struct{}
}

// RequestID implements registry.Publication.
func (p *FetchPublication) RequestID() uint64 { return p.reqID }

// Cancel implements registry.Publication.
func (p *FetchPublication) Cancel() {
	if p.canceled.CompareAndSwap(false, true) {
		close(p.cancelCh)
	}
}

// run fetches [start, end] from the track's PastObjectSource and
// streams the result out, checking for cancellation between objects.
func (p *FetchPublication) run(ctx context.Context, start, end Location) {
	defer p.session.publications.Remove(p.reqID)

	if p.track.PastSource == nil {
		return
	}
	objs, err := p.track.PastSource.GetRange(ctx, start, end)
	if err != nil {
		p.session.log.Warn("fetch get range", "err", err, "request_id", p.reqID)
		return
	}

	stream, err := p.session.transport.OpenUniStream(ctx)
	if err != nil {
		p.session.log.Warn("open fetch stream", "err", err, "request_id", p.reqID)
		return
	}
	defer stream.Close()
	stream.SetPriority(transportPriority(p.track.PublisherPriority, p.priority))

	hdr := protocol.FetchHeader{RequestID: p.reqID}
	if _, err := stream.Write(hdr.Serialize()); err != nil {
		return
	}

	for _, obj := range objs {
		select {
		case <-p.cancelCh:
			return
		default:
		}
		fo := protocol.FetchObject{
			GroupID:       obj.Location.Group,
			SubgroupID:    obj.SubgroupID,
			ObjectID:      obj.Location.Object,
			PublisherPrio: obj.PublisherPrio,
			Extensions:    obj.Extensions,
			Status:        obj.Status,
			Payload:       obj.Payload,
		}
		if _, err := stream.Write(fo.Serialize()); err != nil {
			return
		}
	}
}
