package moqtail

import (
	"context"
	"errors"
	"io"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
	"github.com/streaming-university/moqtail-sub001/internal/registry"
	"github.com/streaming-university/moqtail-sub001/internal/wire"
	"github.com/streaming-university/moqtail-sub001/transport"
)

// objectStream is the single-producer-single-consumer handoff between
// a uni-stream reader goroutine and the caller draining a Subscription
// or FetchStream. Closing is modeled as cancelling ctx rather than
// closing ch, so a producer racing a Close/Cancel call never panics on
// a send to a closed channel.
type objectStream struct {
	ch     chan MoqtObject
	ctx    context.Context
	cancel context.CancelFunc
}

func newObjectStream(buffer int) *objectStream {
	ctx, cancel := context.WithCancel(context.Background())
	return &objectStream{ch: make(chan MoqtObject, buffer), ctx: ctx, cancel: cancel}
}

func (o *objectStream) push(obj MoqtObject) {
	select {
	case o.ch <- obj:
	case <-o.ctx.Done():
	}
}

func (o *objectStream) recv(ctx context.Context) (MoqtObject, error) {
	select {
	case obj := <-o.ch:
		return obj, nil
	case <-o.ctx.Done():
		return MoqtObject{}, io.EOF
	case <-ctx.Done():
		return MoqtObject{}, ctx.Err()
	}
}

func (o *objectStream) close() { o.cancel() }

// Subscription is a live handle to a SUBSCRIBE this session originated.
type Subscription struct {
	session *Session
	reqID   uint64
	alias   TrackAlias
	objects *objectStream
}

// RequestID returns the request id SUBSCRIBE was sent with.
func (s *Subscription) RequestID() uint64 { return s.reqID }

// TrackAlias returns the alias objects on this subscription's data
// streams carry.
func (s *Subscription) TrackAlias() TrackAlias { return s.alias }

// Recv blocks for the next delivered object, or returns ctx's error, or
// io.EOF once the subscription has ended (SUBSCRIBE_DONE received, or
// Close called).
func (s *Subscription) Recv(ctx context.Context) (MoqtObject, error) {
	return s.objects.recv(ctx)
}

// Close unsubscribes and releases local delivery state.
func (s *Subscription) Close() error {
	s.objects.close()
	return s.session.Unsubscribe(s.reqID)
}

// FetchStream is a live handle to a FETCH this session originated.
type FetchStream struct {
	session *Session
	reqID   uint64
	objects *objectStream
}

// RequestID returns the request id FETCH was sent with.
func (f *FetchStream) RequestID() uint64 { return f.reqID }

// Recv blocks for the next delivered object, or returns ctx's error, or
// io.EOF once the fetch stream has been fully delivered or canceled.
func (f *FetchStream) Recv(ctx context.Context) (MoqtObject, error) {
	return f.objects.recv(ctx)
}

// Cancel stops delivery and tells the peer to abandon the fetch.
func (f *FetchStream) Cancel() error {
	f.objects.close()
	return f.session.FetchCancel(f.reqID)
}

// frameReader incrementally fills a buffer from a stream and retries a
// parse attempt against it, following the wire package's
// checkpoint/restore discipline: a parse that reports
// wire.ErrNotEnoughBytes is retried once more bytes have arrived rather
// than treated as fatal.
type frameReader struct {
	r   io.Reader
	buf []byte
}

func newFrameReader(r io.Reader) *frameReader {
	return &frameReader{r: r}
}

// parse runs fn against the buffered bytes, growing the buffer from the
// stream as needed, until fn succeeds (returning the number of bytes it
// consumed) or fails with an error other than wire.ErrNotEnoughBytes.
func (f *frameReader) parse(fn func([]byte) (consumed int, err error)) error {
	for {
		if len(f.buf) > 0 {
			n, err := fn(f.buf)
			if err == nil {
				f.buf = f.buf[n:]
				return nil
			}
			if !errors.Is(err, wire.ErrNotEnoughBytes) {
				return err
			}
		}
		chunk := make([]byte, 4096)
		n, err := f.r.Read(chunk)
		if n > 0 {
			f.buf = append(f.buf, chunk[:n]...)
		}
		if err != nil {
			if n > 0 {
				continue
			}
			return err
		}
	}
}

// handleUniStream reads the stream-type varint that opens every
// unidirectional data stream and routes to the fetch-stream or
// subgroup-stream reader accordingly.
func (s *Session) handleUniStream(stream transport.ReceiveStream) {
	fr := newFrameReader(stream)
	var typ uint64
	if err := fr.parse(func(buf []byte) (int, error) {
		r := wire.NewReader(buf)
		t, err := r.GetVarint()
		if err != nil {
			return 0, err
		}
		typ = t
		return r.Checkpoint(), nil
	}); err != nil {
		s.log.Debug("uni stream closed before header", "err", err)
		return
	}

	if typ == protocol.FetchHeaderType {
		s.handleFetchStream(fr)
		return
	}
	hdrType, ok := protocol.DecodeSubgroupHeaderType(typ)
	if !ok {
		s.log.Warn("unknown uni stream type", "type", typ)
		s.disconnect(ErrProtocolViolation)
		return
	}
	s.handleSubgroupStream(fr, typ, hdrType)
}

func (s *Session) handleFetchStream(fr *frameReader) {
	var hdr protocol.FetchHeader
	if err := fr.parse(func(buf []byte) (int, error) {
		r := wire.NewReader(buf)
		h, err := protocol.ParseFetchHeader(r)
		if err != nil {
			return 0, err
		}
		hdr = h
		return r.Checkpoint(), nil
	}); err != nil {
		s.log.Debug("fetch stream closed before header", "err", err)
		return
	}

	req, found := s.requests.Get(hdr.RequestID)
	if !found {
		s.log.Warn("fetch stream for unknown request", "request_id", hdr.RequestID)
		return
	}
	freq, isFetch := req.(*registry.FetchRequest)
	if !isFetch {
		return
	}
	sink, _ := freq.Sink.(*objectStream)

	for {
		var obj protocol.FetchObject
		err := fr.parse(func(buf []byte) (int, error) {
			r := wire.NewReader(buf)
			o, err := protocol.ParseFetchObject(r)
			if err != nil {
				return 0, err
			}
			obj = o
			return r.Checkpoint(), nil
		})
		if err != nil {
			if sink != nil {
				sink.close()
			}
			return
		}
		if sink != nil {
			sink.push(MoqtObject{
				Location:      Location{Group: obj.GroupID, Object: obj.ObjectID},
				PublisherPrio: obj.PublisherPrio,
				SubgroupID:    obj.SubgroupID,
				Status:        obj.Status,
				Extensions:    obj.Extensions,
				Payload:       obj.Payload,
			})
		}
	}
}

func (s *Session) handleSubgroupStream(fr *frameReader, typ uint64, hdrType protocol.SubgroupHeaderType) {
	var hdr protocol.SubgroupHeader
	if err := fr.parse(func(buf []byte) (int, error) {
		r := wire.NewReader(buf)
		h, err := protocol.ParseSubgroupHeader(r, typ)
		if err != nil {
			return 0, err
		}
		hdr = h
		return r.Checkpoint(), nil
	}); err != nil {
		s.log.Debug("subgroup stream closed before header", "err", err)
		return
	}

	sreq, found := s.subscriptions.Get(protocol.TrackAlias(hdr.TrackAlias))
	if !found {
		s.log.Warn("subgroup stream for unknown track alias", "track_alias", hdr.TrackAlias)
		return
	}
	sink, _ := sreq.Sink.(*objectStream)

	var subgroupID uint64
	first := true
	for {
		var obj protocol.SubgroupObject
		err := fr.parse(func(buf []byte) (int, error) {
			r := wire.NewReader(buf)
			o, err := protocol.ParseSubgroupObject(r, hdrType.HasExtensions)
			if err != nil {
				return 0, err
			}
			obj = o
			return r.Checkpoint(), nil
		})
		if err != nil {
			break
		}
		if first {
			subgroupID = hdrType.EffectiveSubgroupID(obj.ObjectID, hdr.SubgroupID)
			first = false
		}
		loc := Location{Group: hdr.GroupID, Object: obj.ObjectID}
		sreq.UpdateLargest(loc)
		if sink != nil {
			sink.push(MoqtObject{
				TrackAlias:    TrackAlias(hdr.TrackAlias),
				Location:      loc,
				PublisherPrio: hdr.PublisherPrio,
				Forwarding:    ForwardingPreferenceSubgroup,
				SubgroupID:    subgroupID,
				Status:        obj.Status,
				Extensions:    obj.Extensions,
				Payload:       obj.Payload,
			})
		}
	}

	if count, complete := sreq.IncrementStreamsAccepted(); complete {
		s.requests.Remove(sreq.RequestID)
		s.subscriptions.Remove(sreq.TrackAlias)
		if sink != nil {
			sink.close()
		}
		s.log.Debug("subscription delivery complete", "request_id", sreq.RequestID, "streams", count)
	}
}
