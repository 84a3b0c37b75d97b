package registry

import (
	"log/slog"
	"sync"
)

// Publication is the minimal shape the registry needs from an active
// SubscribePublication or FetchPublication. Both concrete types live in
// the root package, which imports registry; the interface lives here
// instead so registry never imports the root package back, breaking
// what would otherwise be an import cycle between Session and its
// Publications.
type Publication interface {
	RequestID() uint64
	Cancel()
}

// Publications is the map RequestId → active publication this session
// is serving in response to a peer SUBSCRIBE or FETCH.
type Publications struct {
	log *slog.Logger
	mu  sync.RWMutex
	m   map[uint64]Publication
}

// NewPublications creates an empty Publications table. If log is nil,
// slog.Default() is used.
func NewPublications(log *slog.Logger) *Publications {
	if log == nil {
		log = slog.Default()
	}
	return &Publications{log: log.With("component", "publications"), m: make(map[uint64]Publication)}
}

// Add registers pub under its RequestID. Returns false without
// inserting if a publication is already registered for that id, since
// spec.md §3 requires at most one publication per incoming request id.
func (t *Publications) Add(pub Publication) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.m[pub.RequestID()]; exists {
		return false
	}
	t.m[pub.RequestID()] = pub
	return true
}

// Get returns the publication registered under id, if any.
func (t *Publications) Get(id uint64) (Publication, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pub, ok := t.m[id]
	return pub, ok
}

// Remove evicts the publication registered under id.
func (t *Publications) Remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, id)
}

// CancelAll cancels and evicts every registered publication. Called
// once by session teardown.
func (t *Publications) CancelAll() {
	t.mu.Lock()
	pubs := make([]Publication, 0, len(t.m))
	for _, pub := range t.m {
		pubs = append(pubs, pub)
	}
	t.m = make(map[uint64]Publication)
	t.mu.Unlock()

	for _, pub := range pubs {
		pub.Cancel()
	}
	t.log.Debug("canceled active publications", "count", len(pubs))
}
