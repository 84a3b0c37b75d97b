package ext

import (
	"github.com/streaming-university/moqtail-sub001/internal/wire"
)

// Well-known extension type codes. Even codes carry a varint value,
// odd codes carry a length-prefixed byte string, per the KeyValuePair
// parity rule every extension header obeys.
const (
	TypeCaptureTimestamp  uint64 = 2  // varint, microseconds since Unix epoch
	TypeVideoFrameMarking uint64 = 4  // varint, bit-packed marking flags
	TypeAudioLevel        uint64 = 6  // varint, dBov magnitude in [0,127]
	TypeVideoConfig       uint64 = 13 // bytes, codec-specific config record (e.g. AVCC/HVCC)
)

// CaptureTimestamp is the wall-clock time, in microseconds since the
// Unix epoch, at which the object's payload was captured.
type CaptureTimestamp uint64

// Encode returns the wire form of a capture timestamp extension.
func (t CaptureTimestamp) Encode() (wire.KeyValuePair, error) {
	return wire.NewVarintKV(TypeCaptureTimestamp, uint64(t))
}

// DecodeCaptureTimestamp extracts a CaptureTimestamp from kv, which
// must have Type == TypeCaptureTimestamp.
func DecodeCaptureTimestamp(kv wire.KeyValuePair) (CaptureTimestamp, error) {
	if kv.Type != TypeCaptureTimestamp {
		return 0, wire.ErrInvalidType
	}
	return CaptureTimestamp(kv.VarintValue), nil
}

// VideoFrameMarking carries a bit-packed set of frame-marking flags
// (e.g. start-of-frame, independent, discardable) as defined by the
// application's codec profile; this package does not interpret the
// bits themselves.
type VideoFrameMarking uint64

func (m VideoFrameMarking) Encode() (wire.KeyValuePair, error) {
	return wire.NewVarintKV(TypeVideoFrameMarking, uint64(m))
}

func DecodeVideoFrameMarking(kv wire.KeyValuePair) (VideoFrameMarking, error) {
	if kv.Type != TypeVideoFrameMarking {
		return 0, wire.ErrInvalidType
	}
	return VideoFrameMarking(kv.VarintValue), nil
}

// AudioLevel is a dBov magnitude in [0,127], 0 being loudest, per the
// convention shared with RTP's client-to-mixer audio level header.
type AudioLevel uint8

func (l AudioLevel) Encode() (wire.KeyValuePair, error) {
	return wire.NewVarintKV(TypeAudioLevel, uint64(l))
}

func DecodeAudioLevel(kv wire.KeyValuePair) (AudioLevel, error) {
	if kv.Type != TypeAudioLevel {
		return 0, wire.ErrInvalidType
	}
	return AudioLevel(kv.VarintValue), nil
}

// VideoConfig is an opaque codec-specific configuration record (e.g.
// an AVCC or HVCC decoder configuration box), carried as a byte-string
// extension.
type VideoConfig []byte

func (c VideoConfig) Encode() (wire.KeyValuePair, error) {
	return wire.NewBytesKV(TypeVideoConfig, c)
}

func DecodeVideoConfig(kv wire.KeyValuePair) (VideoConfig, error) {
	if kv.Type != TypeVideoConfig {
		return nil, wire.ErrInvalidType
	}
	return VideoConfig(kv.BytesValue), nil
}

// Catalog maps a well-known extension type to a decoder that turns its
// raw KeyValuePair into the typed value above. It exists so callers
// such as debug logging can pretty-print recognized extensions without
// a type switch; it is never consulted on a forwarding path; those
// paths carry wire.KeyValuePair slices through unexamined.
var Catalog = map[uint64]func(wire.KeyValuePair) (any, error){
	TypeCaptureTimestamp: func(kv wire.KeyValuePair) (any, error) { return DecodeCaptureTimestamp(kv) },
	TypeVideoFrameMarking: func(kv wire.KeyValuePair) (any, error) {
		return DecodeVideoFrameMarking(kv)
	},
	TypeAudioLevel:  func(kv wire.KeyValuePair) (any, error) { return DecodeAudioLevel(kv) },
	TypeVideoConfig: func(kv wire.KeyValuePair) (any, error) { return DecodeVideoConfig(kv) },
}

// Describe decodes kv via Catalog if its type is recognized, returning
// ok=false for any other type.
func Describe(kv wire.KeyValuePair) (value any, ok bool) {
	decode, known := Catalog[kv.Type]
	if !known {
		return nil, false
	}
	v, err := decode(kv)
	if err != nil {
		return nil, false
	}
	return v, true
}
