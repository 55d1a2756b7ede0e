package document

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refgraph/refgraph/relation"
	"github.com/refgraph/refgraph/types"
)

// fakeResolver records every batch it receives and answers from a fixture
// map keyed by entity type and id.
type fakeResolver struct {
	mu       sync.Mutex
	calls    []resolveCall
	fixtures map[string]map[string]map[string]any
	fail     error
}

type resolveCall struct {
	entityType string
	signature  string
	ids        []any
	locale     string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{fixtures: make(map[string]map[string]map[string]any)}
}

func (f *fakeResolver) entity(entityType, id string, fields map[string]any) map[string]any {
	data := map[string]any{"id": id, "type": entityType}
	for k, v := range fields {
		data[k] = v
	}
	if f.fixtures[entityType] == nil {
		f.fixtures[entityType] = make(map[string]map[string]any)
	}
	f.fixtures[entityType][id] = data
	return data
}

func (f *fakeResolver) Resolve(ctx context.Context, entityType string, ids []any, rel relation.Spec, locale string) ([]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, resolveCall{
		entityType: entityType,
		signature:  rel.Signature(),
		ids:        ids,
		locale:     locale,
	})
	f.mu.Unlock()

	if f.fail != nil {
		return nil, f.fail
	}

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if data, ok := f.fixtures[entityType][fmt.Sprint(id)]; ok {
			out = append(out, data)
		}
	}
	return out, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeResolver) callsFor(entityType string) []resolveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []resolveCall
	for _, c := range f.calls {
		if c.entityType == entityType {
			out = append(out, c)
		}
	}
	return out
}

// fakeStore is a plain map identity store for single-goroutine assertions.
type fakeStore struct {
	mu      sync.Mutex
	entries map[types.IdentityKey]any
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[types.IdentityKey]any)}
}

func (s *fakeStore) Has(key types.IdentityKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func (s *fakeStore) Get(key types.IdentityKey) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

func (s *fakeStore) Put(key types.IdentityKey, entity any) {
	s.mu.Lock()
	s.entries[key] = entity
	s.mu.Unlock()
}

func stub(id, entityType string) map[string]any {
	return map[string]any{"id": id, "type": entityType}
}

func testDeps(r Resolver, store IdentityStore) Deps {
	return Deps{Resolver: r, Identity: store}
}

func TestDocument_Load_BatchesByTypeAndSignature(t *testing.T) {
	resolver := newFakeResolver()
	resolver.entity("person", "p1", map[string]any{"name": "Ada"})
	resolver.entity("person", "p2", map[string]any{"name": "Grace"})
	resolver.entity("comment", "c1", map[string]any{"body": "first"})

	doc := NewDocument(map[string]any{
		"id":       "a1",
		"type":     "article",
		"author":   stub("p1", "person"),
		"editor":   stub("p2", "person"),
		"reviewer": stub("p1", "person"),
		"comments": []any{stub("c1", "comment")},
	}, testDeps(resolver, newFakeStore()))

	require.NoError(t, doc.Load(context.Background(), 1))

	people := resolver.callsFor("person")
	require.Len(t, people, 1, "same type and signature share one batch")
	assert.ElementsMatch(t, []any{"p1", "p2"}, people[0].ids, "duplicate ids collapse")

	comments := resolver.callsFor("comment")
	require.Len(t, comments, 1)
	assert.Equal(t, []any{"c1"}, comments[0].ids)

	included := doc.Included()
	assert.Len(t, included, 3)
}

func TestDocument_Load_NoRelationsFetchesNothing(t *testing.T) {
	resolver := newFakeResolver()
	doc := NewDocument(map[string]any{
		"id":     "a1",
		"type":   "article",
		"author": stub("p1", "person"),
	}, testDeps(resolver, newFakeStore()))

	require.NoError(t, doc.Load(context.Background(), nil))
	assert.Zero(t, resolver.callCount())
	assert.Empty(t, doc.Included())
}

func TestDocument_Load_DepthZeroStillFollowsAssets(t *testing.T) {
	resolver := newFakeResolver()
	resolver.entity("file", "f1", map[string]any{"url": "/f1.png"})

	doc := NewDocument(map[string]any{
		"id":     "a1",
		"type":   "article",
		"author": stub("p1", "person"),
		"cover":  stub("f1", "file"),
	}, testDeps(resolver, newFakeStore()))

	require.NoError(t, doc.Load(context.Background(), 0))

	require.Equal(t, 1, resolver.callCount(), "only the asset stub qualifies at depth zero")
	assert.Equal(t, "file", resolver.callsFor("file")[0].entityType)
}

func TestDocument_Load_PathsSelectFields(t *testing.T) {
	resolver := newFakeResolver()
	resolver.entity("person", "p1", map[string]any{"name": "Ada"})

	doc := NewDocument(map[string]any{
		"id":       "a1",
		"type":     "article",
		"author":   stub("p1", "person"),
		"comments": []any{stub("c1", "comment")},
	}, testDeps(resolver, newFakeStore()))

	require.NoError(t, doc.Load(context.Background(), "author"))

	assert.Equal(t, 1, resolver.callCount())
	assert.Empty(t, resolver.callsFor("comment"))
}

func TestDocument_Load_IdentityStoreShortCircuits(t *testing.T) {
	resolver := newFakeResolver()
	store := newFakeStore()
	cached := map[string]any{"id": "p1", "type": "person", "name": "Ada"}
	// Depth(1) leaves an empty remainder spec on the stubs it reaches.
	store.Put(types.NewIdentityKey("person", "p1", relation.Paths().Signature()), cached)

	doc := NewDocument(map[string]any{
		"id":     "a1",
		"type":   "article",
		"author": stub("p1", "person"),
	}, testDeps(resolver, store))

	require.NoError(t, doc.Load(context.Background(), 1))

	assert.Zero(t, resolver.callCount(), "cached entities never hit the resolver")
	require.Len(t, doc.Included(), 1)
	assert.Equal(t, cached, doc.Included()[0])
}

func TestDocument_Load_PopulatesIdentityStore(t *testing.T) {
	resolver := newFakeResolver()
	resolver.entity("person", "p1", map[string]any{"name": "Ada"})
	store := newFakeStore()

	doc := NewDocument(map[string]any{
		"id":     "a1",
		"type":   "article",
		"author": stub("p1", "person"),
	}, testDeps(resolver, store))

	require.NoError(t, doc.Load(context.Background(), 1))

	key := types.NewIdentityKey("person", "p1", relation.Paths().Signature())
	assert.True(t, store.Has(key))
}

func TestDocument_Load_ResolverErrorAborts(t *testing.T) {
	resolver := newFakeResolver()
	boom := errors.New("connection refused")
	resolver.fail = boom

	doc := NewDocument(map[string]any{
		"id":     "a1",
		"type":   "article",
		"author": stub("p1", "person"),
	}, testDeps(resolver, newFakeStore()))

	err := doc.Load(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestDocument_Load_InvalidRelations(t *testing.T) {
	doc := NewDocument(map[string]any{"id": "a1", "type": "article"}, testDeps(newFakeResolver(), nil))
	err := doc.Load(context.Background(), -3)
	assert.ErrorIs(t, err, types.ErrInvalidRelations)
}

func TestDocument_Load_LocalePassedThrough(t *testing.T) {
	resolver := newFakeResolver()
	resolver.entity("person", "p1", nil)

	doc := NewDocument(map[string]any{
		"id":     "a1",
		"type":   "article",
		"author": stub("p1", "person"),
	}, testDeps(resolver, newFakeStore()))
	doc.SetMeta("locale", "de")

	require.NoError(t, doc.Load(context.Background(), 1))
	require.Equal(t, 1, resolver.callCount())
	assert.Equal(t, "de", resolver.callsFor("person")[0].locale)
}

func TestDocument_Append(t *testing.T) {
	doc := NewDocument(map[string]any{"id": "a1", "type": "article"}, Deps{})
	assert.ErrorIs(t, doc.Append("x"), types.ErrNotCollection)
}

func TestDocument_Accessors(t *testing.T) {
	doc := NewDocument(nil, Deps{})
	doc.Set("title", "hello")
	assert.Equal(t, "hello", doc.Get("title"))
	assert.Equal(t, map[string]any{"title": "hello"}, doc.Data())

	assert.Empty(t, doc.Locale())
	doc.SetMeta("locale", "en")
	assert.Equal(t, "en", doc.Locale())
	assert.Equal(t, map[string]any{"locale": "en"}, doc.Meta())
}

func TestDocument_AddIncludesAndClear(t *testing.T) {
	doc := NewDocument(map[string]any{"id": "a1", "type": "article"}, Deps{})
	require.NoError(t, doc.AddIncludes(map[string]any{"id": "p1", "type": "person", "name": "Ada"}, nil))

	inc := doc.Inclusions()
	require.Len(t, inc, 1)
	key := types.NewIdentityKey("person", "p1", "")
	assert.Contains(t, inc, key)

	doc.ClearInclusions()
	assert.Empty(t, doc.Included())
}

func TestCollection_Load_BatchesAcrossItems(t *testing.T) {
	resolver := newFakeResolver()
	resolver.entity("person", "p1", map[string]any{"name": "Ada"})
	resolver.entity("person", "p2", map[string]any{"name": "Grace"})

	coll := NewCollection([]any{
		map[string]any{"id": "a1", "type": "article", "author": stub("p1", "person")},
		map[string]any{"id": "a2", "type": "article", "author": stub("p2", "person")},
		map[string]any{"id": "a3", "type": "article", "author": stub("p1", "person")},
	}, testDeps(resolver, newFakeStore()))

	require.NoError(t, coll.Load(context.Background(), 1))

	calls := resolver.callsFor("person")
	require.Len(t, calls, 1, "one batch serves every item")
	assert.ElementsMatch(t, []any{"p1", "p2"}, calls[0].ids)
	assert.Len(t, coll.Included(), 2)
}

func TestCollection_ItemSharesInclusions(t *testing.T) {
	resolver := newFakeResolver()
	resolver.entity("person", "p1", nil)

	coll := NewCollection([]any{
		map[string]any{"id": "a1", "type": "article", "author": stub("p1", "person")},
	}, testDeps(resolver, newFakeStore()))
	require.NoError(t, coll.Load(context.Background(), 1))

	item := coll.Item(0)
	assert.Equal(t, "a1", item.Get("id"))
	assert.Len(t, item.Included(), 1, "items see the collection's includes")
}

func TestCollection_AppendAndLen(t *testing.T) {
	coll := NewCollection(nil, Deps{})
	assert.Zero(t, coll.Len())
	coll.Append(map[string]any{"id": "a1", "type": "article"})
	assert.Equal(t, 1, coll.Len())
	assert.Len(t, coll.Items(), 1)
}
