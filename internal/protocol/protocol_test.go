package protocol

import (
	"bytes"
	"testing"

	"github.com/streaming-university/moqtail-sub001/internal/wire"
)

func TestClientServerSetupRoundTrip(t *testing.T) {
	t.Parallel()
	cs := ClientSetup{Versions: []uint64{Version}, Params: nil}
	got, err := ParseClientSetup(cs.Serialize())
	if err != nil {
		t.Fatalf("ParseClientSetup: unexpected error: %v", err)
	}
	if len(got.Versions) != 1 || got.Versions[0] != Version {
		t.Fatalf("ParseClientSetup: got %+v", got)
	}

	ss := ServerSetup{SelectedVersion: Version}
	gotSS, err := ParseServerSetup(ss.Serialize())
	if err != nil {
		t.Fatalf("ParseServerSetup: unexpected error: %v", err)
	}
	if gotSS.SelectedVersion != Version {
		t.Fatalf("ParseServerSetup: got %+v", gotSS)
	}
}

func TestSubscribeRoundTripLatestObject(t *testing.T) {
	t.Parallel()
	s := Subscribe{
		RequestID:  0,
		TrackAlias: 7,
		Namespace:  [][]byte{[]byte("moqtail"), []byte("r1"), []byte("u1")},
		TrackName:  []byte("video"),
		Priority:   32,
		GroupOrder: GroupOrderDefault,
		Forward:    true,
		FilterType: FilterLatestObject,
	}
	got, err := ParseSubscribe(s.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribe: unexpected error: %v", err)
	}
	if got.RequestID != s.RequestID || got.TrackAlias != s.TrackAlias || got.FilterType != s.FilterType {
		t.Fatalf("ParseSubscribe: got %+v, want %+v", got, s)
	}
	if len(got.Namespace) != 3 || !bytes.Equal(got.Namespace[2], []byte("u1")) {
		t.Fatalf("ParseSubscribe namespace: got %v", got.Namespace)
	}
	if !got.Forward {
		t.Fatalf("ParseSubscribe: forward flag lost in round trip")
	}
}

func TestSubscribeRoundTripAbsoluteRange(t *testing.T) {
	t.Parallel()
	s := Subscribe{
		RequestID:  2,
		Namespace:  [][]byte{[]byte("ns")},
		TrackName:  []byte("audio"),
		FilterType: FilterAbsoluteRange,
		StartGroup: 5,
		StartObj:   0,
		EndGroup:   6,
	}
	got, err := ParseSubscribe(s.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribe: unexpected error: %v", err)
	}
	if got.StartGroup != 5 || got.EndGroup != 6 {
		t.Fatalf("ParseSubscribe range: got start=%d end=%d", got.StartGroup, got.EndGroup)
	}
}

func TestSubscribeOkContentExistsRoundTrip(t *testing.T) {
	t.Parallel()
	sok := SubscribeOk{RequestID: 0, Expires: 0, ContentExists: true, LargestGroup: 3, LargestObj: 9}
	got, err := ParseSubscribeOk(sok.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribeOk: unexpected error: %v", err)
	}
	if !got.ContentExists || got.LargestGroup != 3 || got.LargestObj != 9 {
		t.Fatalf("ParseSubscribeOk: got %+v", got)
	}
}

func TestSubscribeErrorRetryTrackAliasRoundTrip(t *testing.T) {
	t.Parallel()
	se := SubscribeError{RequestID: 1, ErrorCode: ErrCodeRetryTrackAlias, ReasonPhrase: "alias in use", TrackAlias: 99}
	got, err := ParseSubscribeError(se.Serialize())
	if err != nil {
		t.Fatalf("ParseSubscribeError: unexpected error: %v", err)
	}
	if got.TrackAlias != 99 || got.ReasonPhrase != "alias in use" {
		t.Fatalf("ParseSubscribeError: got %+v", got)
	}
}

func TestFetchStandAloneRoundTrip(t *testing.T) {
	t.Parallel()
	f := Fetch{
		RequestID:  3,
		Priority:   64,
		GroupOrder: GroupOrderDefault,
		TypeProps: FetchTypeAndProps{
			Kind:       FetchStandAlone,
			Namespace:  [][]byte{[]byte("ns")},
			TrackName:  []byte("video"),
			StartGroup: 10, StartObj: 0,
			EndGroup: 10, EndObj: 4,
		},
	}
	got, err := ParseFetch(f.Serialize())
	if err != nil {
		t.Fatalf("ParseFetch: unexpected error: %v", err)
	}
	if got.TypeProps.Kind != FetchStandAlone || got.TypeProps.EndObj != 4 {
		t.Fatalf("ParseFetch: got %+v", got.TypeProps)
	}
}

func TestFetchRelativeRoundTrip(t *testing.T) {
	t.Parallel()
	f := Fetch{
		RequestID: 4,
		TypeProps: FetchTypeAndProps{Kind: FetchRelative, JoiningRequestID: 0, JoiningStart: 2},
	}
	got, err := ParseFetch(f.Serialize())
	if err != nil {
		t.Fatalf("ParseFetch: unexpected error: %v", err)
	}
	if got.TypeProps.Kind != FetchRelative || got.TypeProps.JoiningStart != 2 {
		t.Fatalf("ParseFetch: got %+v", got.TypeProps)
	}
}

func TestSubgroupHeaderTypeTable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		wire uint64
		kind SubgroupIDKind
		ext  bool
	}{
		{0x08, SubgroupIDImplicitZero, false},
		{0x09, SubgroupIDImplicitZero, true},
		{0x0A, SubgroupIDImplicitFirstObject, false},
		{0x0B, SubgroupIDImplicitFirstObject, true},
		{0x0C, SubgroupIDExplicit, false},
		{0x0D, SubgroupIDExplicit, true},
	}
	for _, c := range cases {
		got, ok := DecodeSubgroupHeaderType(c.wire)
		if !ok {
			t.Fatalf("DecodeSubgroupHeaderType(%#x): not recognized", c.wire)
		}
		if got.SubgroupIDKind != c.kind || got.HasExtensions != c.ext {
			t.Fatalf("DecodeSubgroupHeaderType(%#x): got %+v, want kind=%v ext=%v", c.wire, got, c.kind, c.ext)
		}
		if got.Encode() != c.wire {
			t.Fatalf("SubgroupHeaderType.Encode round trip: got %#x, want %#x", got.Encode(), c.wire)
		}
	}
}

func TestSubgroupHeaderEffectiveSubgroupID(t *testing.T) {
	t.Parallel()
	implicitZero := SubgroupHeaderType{SubgroupIDKind: SubgroupIDImplicitZero}
	if got := implicitZero.EffectiveSubgroupID(7, 0); got != 0 {
		t.Fatalf("implicit-zero EffectiveSubgroupID: got %d, want 0", got)
	}
	implicitFirst := SubgroupHeaderType{SubgroupIDKind: SubgroupIDImplicitFirstObject}
	if got := implicitFirst.EffectiveSubgroupID(7, 0); got != 7 {
		t.Fatalf("implicit-first-object EffectiveSubgroupID: got %d, want 7", got)
	}
	explicit := SubgroupHeaderType{SubgroupIDKind: SubgroupIDExplicit}
	if got := explicit.EffectiveSubgroupID(7, 42); got != 42 {
		t.Fatalf("explicit EffectiveSubgroupID: got %d, want 42", got)
	}
}

func TestSubgroupHeaderAndObjectRoundTrip(t *testing.T) {
	t.Parallel()
	h := SubgroupHeader{
		Type:          SubgroupHeaderType{SubgroupIDKind: SubgroupIDImplicitZero},
		TrackAlias:    5,
		GroupID:       0,
		PublisherPrio: 128,
	}
	hdrBytes := h.Serialize()
	r := wire.NewReader(hdrBytes)
	typ, err := r.GetVarint()
	if err != nil {
		t.Fatalf("GetVarint(type): unexpected error: %v", err)
	}
	got, err := ParseSubgroupHeader(r, typ)
	if err != nil {
		t.Fatalf("ParseSubgroupHeader: unexpected error: %v", err)
	}
	if got.TrackAlias != 5 || got.PublisherPrio != 128 {
		t.Fatalf("ParseSubgroupHeader: got %+v", got)
	}

	obj := SubgroupObject{ObjectID: 1, Status: ObjectStatusNormal, Payload: []byte{2}}
	objR := wire.NewReader(obj.Serialize(false))
	gotObj, err := ParseSubgroupObject(objR, false)
	if err != nil {
		t.Fatalf("ParseSubgroupObject: unexpected error: %v", err)
	}
	if gotObj.ObjectID != 1 || !bytes.Equal(gotObj.Payload, []byte{2}) {
		t.Fatalf("ParseSubgroupObject: got %+v", gotObj)
	}
}

func TestSubgroupObjectStatusOnly(t *testing.T) {
	t.Parallel()
	obj := SubgroupObject{ObjectID: 9, Status: ObjectStatusEndOfGroup}
	r := wire.NewReader(obj.Serialize(false))
	got, err := ParseSubgroupObject(r, false)
	if err != nil {
		t.Fatalf("ParseSubgroupObject: unexpected error: %v", err)
	}
	if got.Status != ObjectStatusEndOfGroup || len(got.Payload) != 0 {
		t.Fatalf("ParseSubgroupObject status-only: got %+v", got)
	}
}

func TestFetchHeaderAndObjectRoundTrip(t *testing.T) {
	t.Parallel()
	h := FetchHeader{RequestID: 3}
	hdrBytes := h.Serialize()
	r := wire.NewReader(hdrBytes)
	typ, err := r.GetVarint()
	if err != nil || typ != FetchHeaderType {
		t.Fatalf("GetVarint(type): got (%v, %v), want (0x05, nil)", typ, err)
	}
	got, err := ParseFetchHeader(r)
	if err != nil {
		t.Fatalf("ParseFetchHeader: unexpected error: %v", err)
	}
	if got.RequestID != 3 {
		t.Fatalf("ParseFetchHeader: got %+v", got)
	}

	obj := FetchObject{GroupID: 10, SubgroupID: 0, ObjectID: 2, PublisherPrio: 64, Status: ObjectStatusNormal, Payload: []byte("x")}
	gotObj, err := ParseFetchObject(wire.NewReader(obj.Serialize()))
	if err != nil {
		t.Fatalf("ParseFetchObject: unexpected error: %v", err)
	}
	if gotObj.GroupID != 10 || !bytes.Equal(gotObj.Payload, []byte("x")) {
		t.Fatalf("ParseFetchObject: got %+v", gotObj)
	}
}

func TestDatagramObjectRoundTripWithExtensions(t *testing.T) {
	t.Parallel()
	kv, err := wire.NewVarintKV(2, 123)
	if err != nil {
		t.Fatalf("NewVarintKV: unexpected error: %v", err)
	}
	d := DatagramObject{TrackAlias: 1, GroupID: 0, ObjectID: 0, PublisherPrio: 10, Extensions: []wire.KeyValuePair{kv}, Payload: []byte("hi")}
	got, err := ParseDatagramObject(d.Serialize())
	if err != nil {
		t.Fatalf("ParseDatagramObject: unexpected error: %v", err)
	}
	if len(got.Extensions) != 1 || got.Extensions[0].VarintValue != 123 {
		t.Fatalf("ParseDatagramObject extensions: got %+v", got.Extensions)
	}
	if !bytes.Equal(got.Payload, []byte("hi")) {
		t.Fatalf("ParseDatagramObject payload: got %q", got.Payload)
	}
}

func TestPublishNamespaceRoundTrip(t *testing.T) {
	t.Parallel()
	p := PublishNamespace{RequestID: 1, Namespace: [][]byte{[]byte("moqtail"), []byte("live")}}
	got, err := ParsePublishNamespace(p.Serialize())
	if err != nil {
		t.Fatalf("ParsePublishNamespace: unexpected error: %v", err)
	}
	if len(got.Namespace) != 2 || !bytes.Equal(got.Namespace[1], []byte("live")) {
		t.Fatalf("ParsePublishNamespace: got %+v", got)
	}
}

func TestResolveSubscribeStartLatestObjectUnknownPublisher(t *testing.T) {
	t.Parallel()
	got, err := ResolveSubscribeStart(FilterLatestObject, Location{}, nil)
	if err != nil {
		t.Fatalf("ResolveSubscribeStart: unexpected error: %v", err)
	}
	if got != (Location{}) {
		t.Fatalf("ResolveSubscribeStart with unknown publisher: got %+v, want zero value", got)
	}
}

func TestResolveSubscribeStartLatestObjectKnownPublisher(t *testing.T) {
	t.Parallel()
	largest := Location{Group: 4, Object: 2}
	got, err := ResolveSubscribeStart(FilterLatestObject, Location{}, &largest)
	if err != nil {
		t.Fatalf("ResolveSubscribeStart: unexpected error: %v", err)
	}
	if got != (Location{Group: 4, Object: 3}) {
		t.Fatalf("ResolveSubscribeStart LatestObject: got %+v", got)
	}
}

func TestResolveSubscribeStartNextGroupStart(t *testing.T) {
	t.Parallel()
	largest := Location{Group: 4, Object: 2}
	got, err := ResolveSubscribeStart(FilterNextGroupStart, Location{}, &largest)
	if err != nil {
		t.Fatalf("ResolveSubscribeStart: unexpected error: %v", err)
	}
	if got != (Location{Group: 5, Object: 0}) {
		t.Fatalf("ResolveSubscribeStart NextGroupStart: got %+v", got)
	}
}

func TestValidateSubscribeRangeRejectsNonIncreasingEndGroup(t *testing.T) {
	t.Parallel()
	start := Location{Group: 5, Object: 0}
	if err := ValidateSubscribeRange(FilterAbsoluteRange, start, 5); err != ErrInvalidRange {
		t.Fatalf("ValidateSubscribeRange: got %v, want ErrInvalidRange", err)
	}
	if err := ValidateSubscribeRange(FilterAbsoluteRange, start, 6); err != nil {
		t.Fatalf("ValidateSubscribeRange: unexpected error: %v", err)
	}
}

func TestResolveFetchRangeRelative(t *testing.T) {
	t.Parallel()
	joining := &JoiningSubscribeView{LargestLocation: Location{Group: 10, Object: 3}}
	start, end, err := ResolveFetchRange(FetchTypeAndProps{Kind: FetchRelative, JoiningStart: 2}, joining)
	if err != nil {
		t.Fatalf("ResolveFetchRange: unexpected error: %v", err)
	}
	if start != (Location{Group: 8, Object: 0}) || end != joining.LargestLocation {
		t.Fatalf("ResolveFetchRange Relative: got start=%+v end=%+v", start, end)
	}
}

func TestResolveFetchRangeAbsoluteRequiresJoining(t *testing.T) {
	t.Parallel()
	_, _, err := ResolveFetchRange(FetchTypeAndProps{Kind: FetchAbsolute, JoiningStart: 5}, nil)
	if err != ErrInvalidRange {
		t.Fatalf("ResolveFetchRange Absolute without joining: got %v, want ErrInvalidRange", err)
	}
}

func TestControlMsgFraming(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	payload := Unsubscribe{RequestID: 42}.Serialize()
	if err := WriteControlMsg(&buf, MsgUnsubscribe, payload); err != nil {
		t.Fatalf("WriteControlMsg: unexpected error: %v", err)
	}
	msgType, gotPayload, err := ReadControlMsg(&buf)
	if err != nil {
		t.Fatalf("ReadControlMsg: unexpected error: %v", err)
	}
	if msgType != MsgUnsubscribe {
		t.Fatalf("ReadControlMsg: got type %#x, want %#x", msgType, MsgUnsubscribe)
	}
	got, err := ParseUnsubscribe(gotPayload)
	if err != nil {
		t.Fatalf("ParseUnsubscribe: unexpected error: %v", err)
	}
	if got.RequestID != 42 {
		t.Fatalf("ParseUnsubscribe: got %+v", got)
	}
}
