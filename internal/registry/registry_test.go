package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

func mustName(t *testing.T, ns [][]byte, name []byte) protocol.FullTrackName {
	t.Helper()
	n, err := protocol.NewFullTrackName(ns, name)
	if err != nil {
		t.Fatalf("NewFullTrackName: unexpected error: %v", err)
	}
	return n
}

func TestAliasMapBijection(t *testing.T) {
	t.Parallel()
	m := NewAliasMap(nil)
	name := mustName(t, [][]byte{[]byte("moqtail")}, []byte("video"))

	if err := m.Add(1, name); err != nil {
		t.Fatalf("Add: unexpected error: %v", err)
	}
	if err := m.Add(1, name); err != nil {
		t.Fatalf("Add identical re-insertion: unexpected error: %v", err)
	}

	other := mustName(t, [][]byte{[]byte("moqtail")}, []byte("audio"))
	if err := m.Add(1, other); err != ErrTrackAlias {
		t.Fatalf("Add conflicting alias: got %v, want ErrTrackAlias", err)
	}

	gotName, ok := m.Name(1)
	if !ok || gotName.Key() != name.Key() {
		t.Fatalf("Name(1): got (%+v, %v)", gotName, ok)
	}
	gotAlias, ok := m.Alias(name)
	if !ok || gotAlias != 1 {
		t.Fatalf("Alias(name): got (%v, %v)", gotAlias, ok)
	}

	removedName, ok := m.RemoveByAlias(1)
	if !ok || removedName.Key() != name.Key() {
		t.Fatalf("RemoveByAlias: got (%+v, %v)", removedName, ok)
	}
	if _, ok := m.Name(1); ok {
		t.Fatalf("Name(1) after removal: still present")
	}
}

func TestRequestIDGeneratorStride(t *testing.T) {
	t.Parallel()
	g := NewRequestIDGenerator(0)
	first := g.Next()
	second := g.Next()
	third := g.Next()
	if first != 0 || second != 2 || third != 4 {
		t.Fatalf("RequestIDGenerator: got %d, %d, %d, want 0, 2, 4", first, second, third)
	}
}

func TestRequestIDGeneratorConfigurableInitial(t *testing.T) {
	t.Parallel()
	g := NewRequestIDGenerator(1)
	if got := g.Next(); got != 1 {
		t.Fatalf("RequestIDGenerator with initial=1: got %d, want 1", got)
	}
}

func TestSubscribeRequestCompleteTwicePanics(t *testing.T) {
	t.Parallel()
	name := mustName(t, [][]byte{[]byte("ns")}, []byte("track"))
	req := NewSubscribeRequest(0, 1, name, protocol.Location{}, nil, true, 32)

	req.Complete(SubscribeResult{Ok: &protocol.SubscribeOk{RequestID: 0}})

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("Complete a second time: expected panic, got none")
		}
	}()
	req.Complete(SubscribeResult{Ok: &protocol.SubscribeOk{RequestID: 0}})
}

func TestSubscribeRequestAbortAfterCompleteIsNoop(t *testing.T) {
	t.Parallel()
	name := mustName(t, [][]byte{[]byte("ns")}, []byte("track"))
	req := NewSubscribeRequest(0, 1, name, protocol.Location{}, nil, true, 32)
	req.Complete(SubscribeResult{Ok: &protocol.SubscribeOk{RequestID: 0}})

	req.Abort(errors.New("teardown"))

	res, err := req.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: unexpected error: %v", err)
	}
	if res.Ok == nil || res.Internal != nil {
		t.Fatalf("Wait after Abort-following-Complete: got %+v, want the original Ok result preserved", res)
	}
}

func TestSubscribeRequestLargestMonotonic(t *testing.T) {
	t.Parallel()
	name := mustName(t, [][]byte{[]byte("ns")}, []byte("track"))
	req := NewSubscribeRequest(0, 1, name, protocol.Location{}, nil, true, 32)

	req.UpdateLargest(protocol.Location{Group: 2, Object: 0})
	req.UpdateLargest(protocol.Location{Group: 1, Object: 9}) // must not regress
	got, ok := req.Largest()
	if !ok || got != (protocol.Location{Group: 2, Object: 0}) {
		t.Fatalf("Largest after out-of-order update: got %+v", got)
	}

	req.UpdateLargest(protocol.Location{Group: 2, Object: 1})
	got, _ = req.Largest()
	if got != (protocol.Location{Group: 2, Object: 1}) {
		t.Fatalf("Largest after forward update: got %+v", got)
	}
}

func TestSubscribeRequestExpectedStreamsCompletion(t *testing.T) {
	t.Parallel()
	name := mustName(t, [][]byte{[]byte("ns")}, []byte("track"))
	req := NewSubscribeRequest(0, 1, name, protocol.Location{}, nil, true, 32)

	if _, complete := req.IncrementStreamsAccepted(); complete {
		t.Fatalf("IncrementStreamsAccepted before ExpectedStreams known: got complete=true")
	}
	if complete := req.SetExpectedStreams(2); complete {
		t.Fatalf("SetExpectedStreams(2) with 1 accepted: got complete=true")
	}
	count, complete := req.IncrementStreamsAccepted()
	if count != 2 || !complete {
		t.Fatalf("IncrementStreamsAccepted: got count=%d complete=%v, want 2 true", count, complete)
	}
}

func TestRequestsAbortAll(t *testing.T) {
	t.Parallel()
	table := NewRequests(nil)
	name := mustName(t, [][]byte{[]byte("ns")}, []byte("track"))
	sub := NewSubscribeRequest(0, 1, name, protocol.Location{}, nil, true, 32)
	fetch := NewFetchRequest(2, protocol.Location{}, protocol.Location{Group: 1})
	table.Add(sub)
	table.Add(fetch)

	table.AbortAll(errors.New("disconnect"))

	if table.Len() != 0 {
		t.Fatalf("Requests.Len after AbortAll: got %d, want 0", table.Len())
	}
	subRes, err := sub.Wait(context.Background())
	if err != nil || subRes.Internal == nil {
		t.Fatalf("subscribe Wait after AbortAll: got (%+v, %v)", subRes, err)
	}
	fetchRes, err := fetch.Wait(context.Background())
	if err != nil || fetchRes.Internal == nil {
		t.Fatalf("fetch Wait after AbortAll: got (%+v, %v)", fetchRes, err)
	}
}

type fakePublication struct {
	id        uint64
	cancelled bool
}

func (f *fakePublication) RequestID() uint64 { return f.id }
func (f *fakePublication) Cancel()           { f.cancelled = true }

func TestPublicationsRejectsDuplicateRequestID(t *testing.T) {
	t.Parallel()
	table := NewPublications(nil)
	first := &fakePublication{id: 1}
	second := &fakePublication{id: 1}

	if !table.Add(first) {
		t.Fatalf("Add first publication: got false")
	}
	if table.Add(second) {
		t.Fatalf("Add second publication with same id: got true, want false")
	}
}

func TestPublicationsCancelAll(t *testing.T) {
	t.Parallel()
	table := NewPublications(nil)
	pub := &fakePublication{id: 1}
	table.Add(pub)

	table.CancelAll()

	if !pub.cancelled {
		t.Fatalf("CancelAll: publication not cancelled")
	}
	if _, ok := table.Get(1); ok {
		t.Fatalf("Get(1) after CancelAll: still present")
	}
}
