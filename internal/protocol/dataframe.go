package protocol

import "github.com/streaming-university/moqtail-sub001/internal/wire"

// FetchHeaderType is the fixed stream-type varint that opens a stream
// carrying fetch objects.
const FetchHeaderType uint64 = 0x05

// SubgroupIDKind selects how a SubgroupHeader's subgroup id is derived.
// Modeled as an explicit enum rather than inferred from a numeric
// comparison against the subgroup id value, which conflates "subgroup
// id happens to be zero" with "subgroup id is implicitly zero".
type SubgroupIDKind uint8

const (
	SubgroupIDImplicitZero SubgroupIDKind = iota
	SubgroupIDImplicitFirstObject
	SubgroupIDExplicit
)

// SubgroupHeaderType carries the two orthogonal bits draft-15 packs
// into the subgroup stream-type varint: whether a subgroup id is
// carried explicitly on the wire, and whether objects on this stream
// carry extension headers.
type SubgroupHeaderType struct {
	SubgroupIDKind SubgroupIDKind
	HasExtensions  bool
}

// Encode returns the wire stream-type varint for t.
func (t SubgroupHeaderType) Encode() uint64 {
	typ := uint64(0x08) + uint64(t.SubgroupIDKind)*2
	if t.HasExtensions {
		typ++
	}
	return typ
}

// DecodeSubgroupHeaderType parses a subgroup stream-type varint.
func DecodeSubgroupHeaderType(typ uint64) (SubgroupHeaderType, bool) {
	if typ < 0x08 || typ > 0x0D {
		return SubgroupHeaderType{}, false
	}
	offset := typ - 0x08
	return SubgroupHeaderType{
		SubgroupIDKind: SubgroupIDKind(offset / 2),
		HasExtensions:  offset%2 == 1,
	}, true
}

// EffectiveSubgroupID derives the subgroup id implied by t, given the
// first object id seen on the stream and (when t.SubgroupIDKind is
// Explicit) the subgroup id carried in the header itself.
func (t SubgroupHeaderType) EffectiveSubgroupID(firstObjectID, headerField uint64) uint64 {
	switch t.SubgroupIDKind {
	case SubgroupIDImplicitFirstObject:
		return firstObjectID
	case SubgroupIDExplicit:
		return headerField
	default:
		return 0
	}
}

// SubgroupHeader opens a unidirectional data stream carrying the
// objects of one (group, subgroup) pair for a subscribed track.
type SubgroupHeader struct {
	Type          SubgroupHeaderType
	TrackAlias    uint64
	GroupID       uint64
	SubgroupID    uint64 // meaningful only when Type.SubgroupIDKind == SubgroupIDExplicit
	PublisherPrio uint8
}

// Serialize encodes a SubgroupHeader.
func (h SubgroupHeader) Serialize() []byte {
	w := wire.NewWriter(24)
	w.PutVarint(h.Type.Encode())
	w.PutVarint(h.TrackAlias)
	w.PutVarint(h.GroupID)
	if h.Type.SubgroupIDKind == SubgroupIDExplicit {
		w.PutVarint(h.SubgroupID)
	}
	w.PutUint8(h.PublisherPrio)
	return w.Bytes()
}

// ParseSubgroupHeader decodes a SubgroupHeader whose stream-type varint
// has already been read as typ.
func ParseSubgroupHeader(r *wire.Reader, typ uint64) (SubgroupHeader, error) {
	var h SubgroupHeader
	hdrType, ok := DecodeSubgroupHeaderType(typ)
	if !ok {
		return h, wire.ErrInvalidType
	}
	h.Type = hdrType

	mark := r.Checkpoint()
	var err error
	if h.TrackAlias, err = r.GetVarint(); err != nil {
		r.Restore(mark)
		return h, &wire.FieldError{Field: "track_alias", Err: err}
	}
	if h.GroupID, err = r.GetVarint(); err != nil {
		r.Restore(mark)
		return h, &wire.FieldError{Field: "group_id", Err: err}
	}
	if hdrType.SubgroupIDKind == SubgroupIDExplicit {
		if h.SubgroupID, err = r.GetVarint(); err != nil {
			r.Restore(mark)
			return h, &wire.FieldError{Field: "subgroup_id", Err: err}
		}
	}
	if h.PublisherPrio, err = r.GetUint8(); err != nil {
		r.Restore(mark)
		return h, &wire.FieldError{Field: "publisher_priority", Err: err}
	}
	return h, nil
}

// SubgroupObject is one object on a subgroup stream. Payload is nil and
// Status is meaningful iff the object is not ObjectStatusNormal.
type SubgroupObject struct {
	ObjectID   uint64
	Extensions []wire.KeyValuePair
	Status     ObjectStatus
	Payload    []byte
}

// Serialize encodes a SubgroupObject. withExtensions must match the
// owning stream's SubgroupHeader.Type.HasExtensions.
func (o SubgroupObject) Serialize(withExtensions bool) []byte {
	w := wire.NewWriter(16 + len(o.Payload))
	w.PutVarint(o.ObjectID)
	if withExtensions {
		ext := wire.NewWriter(0)
		for _, kv := range o.Extensions {
			ext.PutKeyValuePair(kv)
		}
		w.PutBytes(ext.Bytes())
	}
	if o.Status == ObjectStatusNormal {
		w.PutVarint(uint64(len(o.Payload)))
		w.PutRaw(o.Payload)
	} else {
		w.PutVarint(0)
		w.PutVarint(uint64(o.Status))
	}
	return w.Bytes()
}

// ParseSubgroupObject decodes a SubgroupObject, given whether the
// owning stream's header declared extensions present.
func ParseSubgroupObject(r *wire.Reader, withExtensions bool) (SubgroupObject, error) {
	var o SubgroupObject
	mark := r.Checkpoint()
	var err error
	if o.ObjectID, err = r.GetVarint(); err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "object_id", Err: err}
	}
	if withExtensions {
		extBytes, err := r.GetBytes()
		if err != nil {
			r.Restore(mark)
			return o, &wire.FieldError{Field: "extensions", Err: err}
		}
		o.Extensions, err = parseExtensions(extBytes)
		if err != nil {
			r.Restore(mark)
			return o, &wire.FieldError{Field: "extensions", Err: err}
		}
	}
	payloadLen, err := r.GetVarint()
	if err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "payload_len", Err: err}
	}
	if payloadLen == 0 {
		status, err := r.GetVarint()
		if err != nil {
			r.Restore(mark)
			return o, &wire.FieldError{Field: "object_status", Err: err}
		}
		o.Status = ObjectStatus(status)
		return o, nil
	}
	if uint64(r.Len()) < payloadLen {
		r.Restore(mark)
		return o, wire.ErrNotEnoughBytes
	}
	o.Status = ObjectStatusNormal
	o.Payload = r.Bytes()[:payloadLen]
	r.Advance(int(payloadLen))
	return o, nil
}

// FetchHeader opens a unidirectional stream carrying the objects
// answering a single FETCH request.
type FetchHeader struct {
	RequestID uint64
}

// Serialize encodes a FetchHeader, including its fixed stream type.
func (h FetchHeader) Serialize() []byte {
	w := wire.NewWriter(8)
	w.PutVarint(FetchHeaderType)
	w.PutVarint(h.RequestID)
	return w.Bytes()
}

// ParseFetchHeader decodes a FetchHeader whose stream-type varint has
// already been consumed by the caller.
func ParseFetchHeader(r *wire.Reader) (FetchHeader, error) {
	mark := r.Checkpoint()
	reqID, err := r.GetVarint()
	if err != nil {
		r.Restore(mark)
		return FetchHeader{}, &wire.FieldError{Field: "request_id", Err: err}
	}
	return FetchHeader{RequestID: reqID}, nil
}

// FetchObject is one object on a fetch stream, self-describing its own
// location since fetch streams interleave groups and subgroups.
type FetchObject struct {
	GroupID    uint64
	SubgroupID uint64
	ObjectID   uint64
	PublisherPrio uint8
	Extensions []wire.KeyValuePair
	Status     ObjectStatus
	Payload    []byte
}

// Serialize encodes a FetchObject. Extensions are always length-framed
// on fetch streams (unlike subgroup streams, where framing is
// conditional on the header), per spec.md §6's fetch-object wire row.
func (o FetchObject) Serialize() []byte {
	w := wire.NewWriter(24 + len(o.Payload))
	w.PutVarint(o.GroupID)
	w.PutVarint(o.SubgroupID)
	w.PutVarint(o.ObjectID)
	w.PutUint8(o.PublisherPrio)
	ext := wire.NewWriter(0)
	for _, kv := range o.Extensions {
		ext.PutKeyValuePair(kv)
	}
	w.PutBytes(ext.Bytes())
	if o.Status == ObjectStatusNormal {
		w.PutVarint(uint64(len(o.Payload)))
		w.PutRaw(o.Payload)
	} else {
		w.PutVarint(0)
		w.PutVarint(uint64(o.Status))
	}
	return w.Bytes()
}

// ParseFetchObject decodes a FetchObject.
func ParseFetchObject(r *wire.Reader) (FetchObject, error) {
	var o FetchObject
	mark := r.Checkpoint()
	var err error
	if o.GroupID, err = r.GetVarint(); err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "group_id", Err: err}
	}
	if o.SubgroupID, err = r.GetVarint(); err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "subgroup_id", Err: err}
	}
	if o.ObjectID, err = r.GetVarint(); err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "object_id", Err: err}
	}
	if o.PublisherPrio, err = r.GetUint8(); err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "publisher_priority", Err: err}
	}
	extBytes, err := r.GetBytes()
	if err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "extensions", Err: err}
	}
	if o.Extensions, err = parseExtensions(extBytes); err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "extensions", Err: err}
	}
	payloadLen, err := r.GetVarint()
	if err != nil {
		r.Restore(mark)
		return o, &wire.FieldError{Field: "payload_len", Err: err}
	}
	if payloadLen == 0 {
		status, err := r.GetVarint()
		if err != nil {
			r.Restore(mark)
			return o, &wire.FieldError{Field: "object_status", Err: err}
		}
		o.Status = ObjectStatus(status)
		return o, nil
	}
	if uint64(r.Len()) < payloadLen {
		r.Restore(mark)
		return o, wire.ErrNotEnoughBytes
	}
	o.Status = ObjectStatusNormal
	o.Payload = r.Bytes()[:payloadLen]
	r.Advance(int(payloadLen))
	return o, nil
}

// DatagramObjectType selects the datagram wire variant.
const (
	DatagramTypeNoExtensions uint64 = 0x00
	DatagramTypeExtensions   uint64 = 0x01
)

// DatagramObject is a complete object carried on the unreliable
// datagram channel rather than a stream.
type DatagramObject struct {
	TrackAlias    uint64
	GroupID       uint64
	ObjectID      uint64
	PublisherPrio uint8
	Extensions    []wire.KeyValuePair
	Payload       []byte
}

// Serialize encodes a DatagramObject, choosing the with/without
// extensions wire variant based on whether Extensions is non-empty.
func (o DatagramObject) Serialize() []byte {
	w := wire.NewWriter(24 + len(o.Payload))
	hasExt := len(o.Extensions) > 0
	if hasExt {
		w.PutVarint(DatagramTypeExtensions)
	} else {
		w.PutVarint(DatagramTypeNoExtensions)
	}
	w.PutVarint(o.TrackAlias)
	w.PutVarint(o.GroupID)
	w.PutVarint(o.ObjectID)
	w.PutUint8(o.PublisherPrio)
	if hasExt {
		ext := wire.NewWriter(0)
		for _, kv := range o.Extensions {
			ext.PutKeyValuePair(kv)
		}
		w.PutBytes(ext.Bytes())
	}
	w.PutRaw(o.Payload)
	return w.Bytes()
}

// ParseDatagramObject decodes a DatagramObject, including its leading
// type varint.
func ParseDatagramObject(data []byte) (DatagramObject, error) {
	r := wire.NewReader(data)
	var o DatagramObject
	typ, err := r.GetVarint()
	if err != nil {
		return o, &wire.FieldError{Field: "datagram_type", Err: err}
	}
	if o.TrackAlias, err = r.GetVarint(); err != nil {
		return o, &wire.FieldError{Field: "track_alias", Err: err}
	}
	if o.GroupID, err = r.GetVarint(); err != nil {
		return o, &wire.FieldError{Field: "group_id", Err: err}
	}
	if o.ObjectID, err = r.GetVarint(); err != nil {
		return o, &wire.FieldError{Field: "object_id", Err: err}
	}
	if o.PublisherPrio, err = r.GetUint8(); err != nil {
		return o, &wire.FieldError{Field: "publisher_priority", Err: err}
	}
	if typ == DatagramTypeExtensions {
		extBytes, err := r.GetBytes()
		if err != nil {
			return o, &wire.FieldError{Field: "extensions", Err: err}
		}
		if o.Extensions, err = parseExtensions(extBytes); err != nil {
			return o, &wire.FieldError{Field: "extensions", Err: err}
		}
	}
	o.Payload = append([]byte(nil), r.Bytes()...)
	return o, nil
}

// parseExtensions decodes a concatenated run of KeyValuePairs with no
// outer count prefix — the buffer's length alone bounds the sequence,
// since extension blocks are themselves length-prefixed by their
// caller (PutBytes/GetBytes).
func parseExtensions(data []byte) ([]wire.KeyValuePair, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r := wire.NewReader(data)
	var kvs []wire.KeyValuePair
	for r.Len() > 0 {
		kv, err := r.GetKeyValuePair()
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, kv)
	}
	return kvs, nil
}
