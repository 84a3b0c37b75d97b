package registry

import (
	"log/slog"
	"sync"

	"github.com/streaming-university/moqtail-sub001/internal/protocol"
)

// AliasMap is the session-scoped bidirectional mapping between a
// TrackAlias and the FullTrackName it stands for.
type AliasMap struct {
	log        *slog.Logger
	mu         sync.RWMutex
	byAlias    map[protocol.TrackAlias]protocol.FullTrackName
	aliasByKey map[string]protocol.TrackAlias
}

// NewAliasMap creates an empty AliasMap. If log is nil, slog.Default()
// is used.
func NewAliasMap(log *slog.Logger) *AliasMap {
	if log == nil {
		log = slog.Default()
	}
	return &AliasMap{
		log:        log.With("component", "alias-map"),
		byAlias:    make(map[protocol.TrackAlias]protocol.FullTrackName),
		aliasByKey: make(map[string]protocol.TrackAlias),
	}
}

// Add inserts the alias↔name mapping. Re-inserting an identical pair is
// a no-op that returns nil; inserting a conflicting mapping for either
// the alias or the name returns ErrTrackAlias.
func (m *AliasMap) Add(alias protocol.TrackAlias, name protocol.FullTrackName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := name.Key()
	if existingName, ok := m.byAlias[alias]; ok {
		if existingName.Key() != key {
			return ErrTrackAlias
		}
		return nil
	}
	if existingAlias, ok := m.aliasByKey[key]; ok {
		if existingAlias != alias {
			return ErrTrackAlias
		}
		return nil
	}

	m.byAlias[alias] = name
	m.aliasByKey[key] = alias
	m.log.Debug("alias registered", "alias", alias)
	return nil
}

// Name returns the FullTrackName mapped to alias, if any.
func (m *AliasMap) Name(alias protocol.TrackAlias) (protocol.FullTrackName, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.byAlias[alias]
	return name, ok
}

// Alias returns the TrackAlias mapped to name, if any.
func (m *AliasMap) Alias(name protocol.FullTrackName) (protocol.TrackAlias, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	alias, ok := m.aliasByKey[name.Key()]
	return alias, ok
}

// HasAlias reports whether alias is currently in use, for the
// retry-with-a-fresh-alias loop spec.md §9 requires.
func (m *AliasMap) HasAlias(alias protocol.TrackAlias) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byAlias[alias]
	return ok
}

// RemoveByAlias evicts the mapping for alias, returning the removed
// name if one existed.
func (m *AliasMap) RemoveByAlias(alias protocol.TrackAlias) (protocol.FullTrackName, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.byAlias[alias]
	if !ok {
		return protocol.FullTrackName{}, false
	}
	delete(m.byAlias, alias)
	delete(m.aliasByKey, name.Key())
	return name, true
}

// RemoveByName evicts the mapping for name, returning the removed
// alias if one existed.
func (m *AliasMap) RemoveByName(name protocol.FullTrackName) (protocol.TrackAlias, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alias, ok := m.aliasByKey[name.Key()]
	if !ok {
		return 0, false
	}
	delete(m.aliasByKey, name.Key())
	delete(m.byAlias, alias)
	return alias, true
}
