package registry

import (
	"log/slog"
	"sync"
)

// Requests is the map RequestId → in-flight request record shared by
// every request kind this session originates.
type Requests struct {
	log *slog.Logger
	mu  sync.RWMutex
	m   map[uint64]Request
}

// NewRequests creates an empty Requests table. If log is nil,
// slog.Default() is used.
func NewRequests(log *slog.Logger) *Requests {
	if log == nil {
		log = slog.Default()
	}
	return &Requests{log: log.With("component", "requests"), m: make(map[uint64]Request)}
}

// Add inserts req, keyed by its own RequestId.
func (t *Requests) Add(req Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[req.ID()] = req
}

// Get returns the request keyed by id, if any.
func (t *Requests) Get(id uint64) (Request, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	req, ok := t.m[id]
	return req, ok
}

// Remove evicts the request keyed by id.
func (t *Requests) Remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, id)
}

// AbortAll resolves every outstanding request with err and empties the
// table. Called once by session teardown.
func (t *Requests) AbortAll(err error) {
	t.mu.Lock()
	reqs := make([]Request, 0, len(t.m))
	for _, req := range t.m {
		reqs = append(reqs, req)
	}
	t.m = make(map[uint64]Request)
	t.mu.Unlock()

	for _, req := range reqs {
		req.Abort(err)
	}
	t.log.Debug("aborted outstanding requests", "count", len(reqs))
}

// Snapshot returns every request currently in the table without
// removing any of them, for callers that need to reach request state
// (such as a caller-attached delivery sink) that AbortAll's no-op on an
// already-completed request won't touch.
func (t *Requests) Snapshot() []Request {
	t.mu.RLock()
	defer t.mu.RUnlock()
	reqs := make([]Request, 0, len(t.m))
	for _, req := range t.m {
		reqs = append(reqs, req)
	}
	return reqs
}

// Len reports the number of in-flight requests, for tests and metrics.
func (t *Requests) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}
