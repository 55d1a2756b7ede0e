package document

import (
	"context"
	"fmt"
	"sync"

	"github.com/refgraph/refgraph/logger"
	"github.com/refgraph/refgraph/relation"
	"github.com/refgraph/refgraph/types"
)

// Source is a flat entity fetcher: one storage backend, one batch lookup.
// Sources know nothing about relations - recursion over a fetched entity's
// own references is the resolver's job.
type Source interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error
	Fetch(ctx context.Context, entityType string, ids []any, locale string) ([]map[string]any, error)
	SetLogger(l logger.Logger)
}

// SourceResolver adapts a Source into a full Resolver: it fetches the flat
// batch and then loads each fetched entity's own relations through itself,
// so the returned documents carry their sub-graph in their inclusion sets.
type SourceResolver struct {
	source   Source
	identity IdentityStore
	log      logger.Logger

	mu       sync.Mutex
	inflight map[types.IdentityKey]*Document
}

// NewSourceResolver builds a resolver over a storage source. The identity
// store is shared with every document the resolver produces.
func NewSourceResolver(source Source, identity IdentityStore, log logger.Logger) *SourceResolver {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &SourceResolver{
		source:   source,
		identity: identity,
		log:      log,
		inflight: make(map[types.IdentityKey]*Document),
	}
}

// Resolve fetches one batch and recursively resolves each entity per the
// requested relation spec. Recursion bottoms out when the remainder spec
// matches nothing. Cyclic graphs terminate through the in-flight registry:
// an entity whose load is already underway is handed back as-is instead of
// being resolved a second time.
func (r *SourceResolver) Resolve(ctx context.Context, entityType string, ids []any, rel relation.Spec, locale string) ([]any, error) {
	signature := rel.Signature()

	out := make([]any, 0, len(ids))
	fetch := make([]any, 0, len(ids))
	for _, id := range ids {
		key := types.NewIdentityKey(entityType, id, signature)
		if doc, loading := r.pending(key); loading {
			out = append(out, doc)
			continue
		}
		fetch = append(fetch, id)
	}
	if len(fetch) == 0 {
		return out, nil
	}

	raw, err := r.source.Fetch(ctx, entityType, fetch, locale)
	if err != nil {
		return nil, fmt.Errorf("fetch %s batch: %w", entityType, err)
	}
	r.log.Debug("fetched %d/%d %s entities", len(raw), len(fetch), entityType)

	for _, data := range raw {
		if _, ok := data["type"]; !ok {
			data["type"] = entityType
		}
		if rel.IsZero() {
			out = append(out, data)
			continue
		}

		doc := NewDocument(data, Deps{Resolver: r, Identity: r.identity, Logger: r.log})
		if locale != "" {
			doc.SetMeta("locale", locale)
		}

		key, keyed := types.KeyForEntity(data, signature)
		if keyed {
			r.register(key, doc)
		}
		err := doc.Load(ctx, rel)
		if keyed {
			r.unregister(key)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (r *SourceResolver) pending(key types.IdentityKey) (*Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.inflight[key]
	return doc, ok
}

func (r *SourceResolver) register(key types.IdentityKey, doc *Document) {
	r.mu.Lock()
	r.inflight[key] = doc
	r.mu.Unlock()
}

func (r *SourceResolver) unregister(key types.IdentityKey) {
	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()
}
