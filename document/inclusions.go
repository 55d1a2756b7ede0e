package document

import (
	"sort"
	"sync"

	"github.com/refgraph/refgraph/types"
)

// inclusionSet maps identity keys to resolved entities for one object
// graph. It is written concurrently while a drain is in flight and read
// freely afterwards.
type inclusionSet struct {
	mu      sync.RWMutex
	entries map[types.IdentityKey]any
}

func newInclusionSet() *inclusionSet {
	return &inclusionSet{entries: make(map[types.IdentityKey]any)}
}

// merge inserts a resolved entity or a batch of them under the given
// relation signature. A merged document folds its own inclusion set in too,
// so a just-fetched entity brings its already-resolved relations along
// without another fetch.
func (s *inclusionSet) merge(entity any, signature string) {
	switch val := entity.(type) {
	case []any:
		for _, item := range val {
			s.merge(item, signature)
		}
	case []map[string]any:
		for _, item := range val {
			s.merge(item, signature)
		}
	case *Document:
		if key, ok := types.KeyForEntity(val.data, signature); ok {
			s.put(key, val)
		}
		if val.inclusions != s {
			s.fold(val.inclusions)
		}
	case map[string]any:
		if key, ok := types.KeyForEntity(val, signature); ok {
			s.put(key, val)
		}
	}
}

func (s *inclusionSet) put(key types.IdentityKey, entity any) {
	s.mu.Lock()
	s.entries[key] = entity
	s.mu.Unlock()
}

func (s *inclusionSet) get(key types.IdentityKey) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

func (s *inclusionSet) snapshot() map[types.IdentityKey]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.IdentityKey]any, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// fold copies every entry of another set into this one.
func (s *inclusionSet) fold(other *inclusionSet) {
	if other == nil || other == s {
		return
	}
	for k, v := range other.snapshot() {
		s.put(k, v)
	}
}

// flatten returns the keyed inclusion map with every entry's own transitive
// includes folded in. A seen-guard keeps cyclic graphs from recursing.
func (s *inclusionSet) flatten() map[types.IdentityKey]any {
	out := make(map[types.IdentityKey]any)
	var visit func(key types.IdentityKey, entity any)
	visit = func(key types.IdentityKey, entity any) {
		if _, done := out[key]; done {
			return
		}
		out[key] = entity
		if doc, ok := entity.(*Document); ok {
			for k, v := range doc.inclusions.snapshot() {
				visit(k, v)
			}
		}
	}
	for k, v := range s.snapshot() {
		visit(k, v)
	}
	return out
}

// flattenList returns the deduplicated inclusion sequence in a stable
// key order.
func (s *inclusionSet) flattenList() []any {
	flat := s.flatten()
	keys := make([]types.IdentityKey, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Signature < b.Signature
	})
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, flat[k])
	}
	return out
}

func (s *inclusionSet) clear() {
	s.mu.Lock()
	s.entries = make(map[types.IdentityKey]any)
	s.mu.Unlock()
}

func (s *inclusionSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
