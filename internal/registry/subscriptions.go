package registry

import (
	"log/slog"
	"sync"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

// Subscriptions is the subset view map TrackAlias → SubscribeRequest
// used by the uni-stream dispatcher to find a subscription by the
// alias carried on an incoming SubgroupHeader, without scanning the
// full Requests table by request id.
type Subscriptions struct {
	log *slog.Logger
	mu  sync.RWMutex
	m   map[protocol.TrackAlias]*SubscribeRequest
}

// NewSubscriptions creates an empty Subscriptions table. If log is
// nil, slog.Default() is used.
func NewSubscriptions(log *slog.Logger) *Subscriptions {
	if log == nil {
		log = slog.Default()
	}
	return &Subscriptions{log: log.With("component", "subscriptions"), m: make(map[protocol.TrackAlias]*SubscribeRequest)}
}

// Add registers req under its TrackAlias.
func (t *Subscriptions) Add(req *SubscribeRequest) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[req.TrackAlias] = req
}

// Get returns the subscription registered under alias, if any.
func (t *Subscriptions) Get(alias protocol.TrackAlias) (*SubscribeRequest, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	req, ok := t.m[alias]
	return req, ok
}

// Remove evicts the subscription registered under alias.
func (t *Subscriptions) Remove(alias protocol.TrackAlias) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, alias)
}

// All returns every active subscription, for teardown iteration.
func (t *Subscriptions) All() []*SubscribeRequest {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*SubscribeRequest, 0, len(t.m))
	for _, req := range t.m {
		out = append(out, req)
	}
	return out
}
