package document

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refgraph/refgraph/logger"
	"github.com/refgraph/refgraph/relation"
)

// fakeSource is an in-memory Source serving fixture entities per type.
type fakeSource struct {
	mu       sync.Mutex
	entities map[string]map[string]map[string]any
	fetches  []fetchCall
	failWith error
}

type fetchCall struct {
	entityType string
	ids        []any
	locale     string
}

func newFakeSource() *fakeSource {
	return &fakeSource{entities: make(map[string]map[string]map[string]any)}
}

func (f *fakeSource) add(entityType, id string, fields map[string]any) {
	data := map[string]any{"id": id, "type": entityType}
	for k, v := range fields {
		data[k] = v
	}
	if f.entities[entityType] == nil {
		f.entities[entityType] = make(map[string]map[string]any)
	}
	f.entities[entityType][id] = data
}

func (f *fakeSource) Connect(ctx context.Context) error { return nil }
func (f *fakeSource) Close() error                      { return nil }
func (f *fakeSource) Ping(ctx context.Context) error    { return nil }
func (f *fakeSource) SetLogger(l logger.Logger)         {}

func (f *fakeSource) Fetch(ctx context.Context, entityType string, ids []any, locale string) ([]map[string]any, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, fetchCall{entityType: entityType, ids: ids, locale: locale})
	f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		if data, ok := f.entities[entityType][id.(string)]; ok {
			// Fresh copy per fetch; callers mutate what they get back.
			copied := make(map[string]any, len(data))
			for k, v := range data {
				copied[k] = v
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func TestSourceResolver_FlatFetch(t *testing.T) {
	src := newFakeSource()
	src.add("person", "p1", map[string]any{"name": "Ada"})

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	out, err := resolver.Resolve(context.Background(), "person", []any{"p1"}, relation.Paths(), "")
	require.NoError(t, err)

	require.Len(t, out, 1)
	entity, ok := out[0].(map[string]any)
	require.True(t, ok, "an empty spec returns raw entity maps")
	assert.Equal(t, "Ada", entity["name"])
}

func TestSourceResolver_RecursiveResolution(t *testing.T) {
	src := newFakeSource()
	src.add("article", "a1", map[string]any{
		"title":  "Hello",
		"author": stub("p1", "person"),
	})
	src.add("person", "p1", map[string]any{
		"name":    "Ada",
		"profile": stub("pr1", "profile"),
	})
	src.add("profile", "pr1", map[string]any{"bio": "mathematician"})

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	out, err := resolver.Resolve(context.Background(), "article", []any{"a1"}, relation.Depth(2), "")
	require.NoError(t, err)

	require.Len(t, out, 1)
	doc, ok := out[0].(*Document)
	require.True(t, ok, "a non-empty spec returns loaded documents")

	flat := doc.Inclusions()
	ids := make(map[string]bool)
	for key := range flat {
		ids[key.Type+"/"+key.ID] = true
	}
	assert.True(t, ids["person/p1"], "first level resolved")
	assert.True(t, ids["profile/pr1"], "second level resolved transitively")
}

func TestSourceResolver_CyclicGraphTerminates(t *testing.T) {
	src := newFakeSource()
	src.add("node", "a", map[string]any{"next": stub("b", "node")})
	src.add("node", "b", map[string]any{"next": stub("a", "node")})

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	out, err := resolver.Resolve(context.Background(), "node", []any{"a"}, relation.Depth(10), "")
	require.NoError(t, err)
	require.Len(t, out, 1)

	// Depth shrinks one level per hop, so the loop bottoms out.
	assert.LessOrEqual(t, src.fetchCount(), 11)
}

func TestSourceResolver_SameSignatureCycleTerminates(t *testing.T) {
	// The assets keyword propagates verbatim, so a self-referencing file
	// keeps requesting the same (type, id, signature). Only the in-flight
	// registry stops that loop.
	src := newFakeSource()
	src.add("file", "f1", map[string]any{"thumbnail": stub("f1", "file")})

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	out, err := resolver.Resolve(context.Background(), "file", []any{"f1"}, relation.Paths("assets"), "")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, src.fetchCount())
}

func TestSourceResolver_MissingEntitiesAreOmitted(t *testing.T) {
	src := newFakeSource()
	src.add("person", "p1", nil)

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	out, err := resolver.Resolve(context.Background(), "person", []any{"p1", "p404"}, relation.Paths(), "")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestSourceResolver_FetchErrorWraps(t *testing.T) {
	src := newFakeSource()
	boom := errors.New("connection reset")
	src.failWith = boom

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	_, err := resolver.Resolve(context.Background(), "person", []any{"p1"}, relation.Paths(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "person")
}

func TestSourceResolver_LocaleReachesSource(t *testing.T) {
	src := newFakeSource()
	src.add("person", "p1", nil)

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	_, err := resolver.Resolve(context.Background(), "person", []any{"p1"}, relation.Paths(), "de")
	require.NoError(t, err)

	require.Equal(t, 1, src.fetchCount())
	assert.Equal(t, "de", src.fetches[0].locale)
}

func TestSourceResolver_DefaultsEntityType(t *testing.T) {
	src := newFakeSource()
	src.entities["person"] = map[string]map[string]any{
		"p1": {"id": "p1", "name": "Ada"},
	}

	resolver := NewSourceResolver(src, newFakeStore(), logger.NewNullLogger())
	out, err := resolver.Resolve(context.Background(), "person", []any{"p1"}, relation.Paths(), "")
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "person", out[0].(map[string]any)["type"], "entities without a type get the batch's")
}

func TestSourceResolver_EndToEndLoad(t *testing.T) {
	src := newFakeSource()
	src.add("person", "p1", map[string]any{"name": "Ada"})

	store := newFakeStore()
	resolver := NewSourceResolver(src, store, logger.NewNullLogger())
	deps := Deps{Resolver: resolver, Identity: store, Logger: logger.NewNullLogger()}

	doc := NewDocument(map[string]any{
		"id":     "a1",
		"type":   "article",
		"author": stub("p1", "person"),
	}, deps)
	require.NoError(t, doc.Load(context.Background(), 1))
	require.Equal(t, 1, src.fetchCount())

	// A second document over the same deps is served from the store.
	other := NewDocument(map[string]any{
		"id":     "a2",
		"type":   "article",
		"author": stub("p1", "person"),
	}, deps)
	require.NoError(t, other.Load(context.Background(), 1))
	assert.Equal(t, 1, src.fetchCount(), "the identity store absorbs the repeat fetch")
}
