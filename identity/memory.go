// Package identity provides the in-process identity store: the shared,
// request-or-process scoped cache of resolved entities keyed by
// (type, id, relation signature). It only grows; eviction is the embedding
// application's concern.
package identity

import (
	"sync"

	"github.com/refgraph/refgraph/types"
)

// Memory is a mutex-guarded in-memory identity store safe for concurrent
// loads. Concurrent writers for the same key converge last-writer-wins.
type Memory struct {
	mu      sync.RWMutex
	entries map[types.IdentityKey]any
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[types.IdentityKey]any)}
}

// Has reports whether an entity is cached under the key.
func (m *Memory) Has(key types.IdentityKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

// Get returns the cached entity for the key.
func (m *Memory) Get(key types.IdentityKey) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Put caches an entity under the key, replacing any previous value.
func (m *Memory) Put(key types.IdentityKey, entity any) {
	m.mu.Lock()
	m.entries[key] = entity
	m.mu.Unlock()
}

// Len returns the number of cached entities.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear empties the store.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[types.IdentityKey]any)
	m.mu.Unlock()
}
