package moqtail

import (
	"context"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
	"github.com/streaming-university/moqtail-sub001/internal/wire"
)

// FullTrackName is a track's protocol identity: an ordered namespace
// tuple plus a track name. Namespace fields are carried as strings for
// caller convenience (the wire itself only ever requires raw byte
// strings; UTF-8 is not mandated), mirroring the teacher's
// moq.Subscribe.Namespace []string field.
type FullTrackName struct {
	Namespace []string
	Name      string
}

// NewFullTrackName validates namespace field count (1..32) and total
// encoded size (<=4096 bytes) and returns an immutable FullTrackName.
func NewFullTrackName(namespace []string, name string) (FullTrackName, error) {
	raw := make([][]byte, len(namespace))
	for i, f := range namespace {
		raw[i] = []byte(f)
	}
	if _, err := protocol.NewFullTrackName(raw, []byte(name)); err != nil {
		return FullTrackName{}, err
	}
	ns := append([]string(nil), namespace...)
	return FullTrackName{Namespace: ns, Name: name}, nil
}

func (n FullTrackName) toProtocol() protocol.FullTrackName {
	raw := make([][]byte, len(n.Namespace))
	for i, f := range n.Namespace {
		raw[i] = []byte(f)
	}
	ftn, _ := protocol.NewFullTrackName(raw, []byte(n.Name))
	return ftn
}

func fullTrackNameFromProtocol(p protocol.FullTrackName) FullTrackName {
	ns := make([]string, len(p.Namespace))
	for i, f := range p.Namespace {
		ns[i] = string(f)
	}
	return FullTrackName{Namespace: ns, Name: string(p.Name)}
}

// Key returns a comparable string suitable for use as a map key.
func (n FullTrackName) Key() string { return n.toProtocol().Key() }

// TrackAlias is a session-scoped short identifier standing in for a
// FullTrackName on the data plane.
type TrackAlias = protocol.TrackAlias

// Location identifies one object within a track by group and object
// sequence number, per spec.md §3.
type Location = protocol.Location

// KeyValuePair is an object extension header or setup parameter: an
// even type code carries a varint value, an odd type code carries a
// length-prefixed byte blob.
type KeyValuePair = wire.KeyValuePair

// ObjectStatus describes an object that carries no payload, or
// confirms that one does.
type ObjectStatus = protocol.ObjectStatus

const (
	ObjectStatusNormal       = protocol.ObjectStatusNormal
	ObjectStatusDoesNotExist = protocol.ObjectStatusDoesNotExist
	ObjectStatusEndOfGroup   = protocol.ObjectStatusEndOfGroup
	ObjectStatusEndOfTrack   = protocol.ObjectStatusEndOfTrack
)

// ForwardingPreference selects how a track's objects are carried on
// the data plane: grouped onto per-group unidirectional streams, or
// sent individually as datagrams.
type ForwardingPreference = protocol.ForwardingPreference

const (
	ForwardingPreferenceSubgroup = protocol.ForwardingSubgroup
	ForwardingPreferenceDatagram = protocol.ForwardingDatagram
)

// GroupOrder selects the order in which a publisher delivers groups.
type GroupOrder = protocol.GroupOrder

const (
	GroupOrderDefault    = protocol.GroupOrderDefault
	GroupOrderAscending  = protocol.GroupOrderAscending
	GroupOrderDescending = protocol.GroupOrderDescending
)

// FilterType selects how a SUBSCRIBE's start location is resolved.
type FilterType = protocol.FilterType

const (
	FilterNextGroupStart = protocol.FilterNextGroupStart
	FilterLatestObject   = protocol.FilterLatestObject
	FilterAbsoluteStart  = protocol.FilterAbsoluteStart
	FilterAbsoluteRange  = protocol.FilterAbsoluteRange
)

// MoqtObject is one unit of a track's data: a location, the publisher
// priority it was sent at, its status, and (when status is Normal) a
// payload plus any extension headers.
type MoqtObject struct {
	TrackAlias    TrackAlias
	Location      Location
	PublisherPrio uint8
	Forwarding    ForwardingPreference
	SubgroupID    uint64 // meaningful only when Forwarding == ForwardingPreferenceSubgroup
	Status        ObjectStatus
	Extensions    []KeyValuePair
	Payload       []byte
}

// LiveObjectSource feeds newly produced objects to a single active
// subscriber's callback until cancelled or onDone is invoked.
type LiveObjectSource interface {
	Subscribe(cb func(MoqtObject), onDone func()) (cancel func())
}

// PastObjectSource answers a bounded historical range query, used to
// serve FETCH.
type PastObjectSource interface {
	GetRange(ctx context.Context, start, end Location) ([]MoqtObject, error)
}

// Track is a caller-registered publishable track: its identity, a live
// source for new objects (required to serve SUBSCRIBE), and an
// optional past source (required to serve FETCH and joining
// subscriptions).
type Track struct {
	Name       FullTrackName
	LiveSource LiveObjectSource
	PastSource PastObjectSource
	// PublisherPriority is this track's publisher-side priority input to
	// the transport-priority arithmetic computed for each subscriber.
	PublisherPriority uint8
}
