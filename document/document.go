package document

import (
	"context"

	"github.com/refgraph/refgraph/logger"
	"github.com/refgraph/refgraph/relation"
	"github.com/refgraph/refgraph/types"
	"github.com/refgraph/refgraph/utils"
)

// Resolver turns a batch of ids of one entity type into resolved entities.
// Implementations may silently omit ids they cannot find; the loader does
// not assert cardinality. Returned values are either raw field maps or
// *Document instances carrying their own inclusion sets.
type Resolver interface {
	Resolve(ctx context.Context, entityType string, ids []any, rel relation.Spec, locale string) ([]any, error)
}

// IdentityStore is the shared entity cache consulted before every Resolve
// call and populated after every successful one. Implementations must be
// safe for concurrent use; a read-then-write race between two loaders is
// tolerable as long as it converges (last writer wins).
type IdentityStore interface {
	Has(key types.IdentityKey) bool
	Get(key types.IdentityKey) (any, bool)
	Put(key types.IdentityKey, entity any)
}

// Deps carries the injected collaborators of a document graph.
type Deps struct {
	Resolver Resolver
	Identity IdentityStore
	Logger   logger.Logger
}

func (d Deps) logger() logger.Logger {
	if d.Logger == nil {
		return logger.GetGlobalLogger()
	}
	return d.Logger
}

// Document is a single entity graph: a tree of resolved fields, unresolved
// references and nested containers, plus the inclusion set of every entity
// resolved for it so far.
type Document struct {
	data       map[string]any
	meta       map[string]any
	deps       Deps
	inclusions *inclusionSet
}

// NewDocument wraps raw entity data into a loadable document.
func NewDocument(data map[string]any, deps Deps) *Document {
	if data == nil {
		data = make(map[string]any)
	}
	return &Document{
		data:       data,
		meta:       make(map[string]any),
		deps:       deps,
		inclusions: newInclusionSet(),
	}
}

// Data returns the live data tree. References stay in place until
// serialization substitutes them.
func (d *Document) Data() map[string]any { return d.data }

// Get returns the named field value.
func (d *Document) Get(field string) any { return d.data[field] }

// Set assigns the named field value.
func (d *Document) Set(field string, value any) { d.data[field] = value }

// Append fails: a plain document has no positional slots to append to.
func (d *Document) Append(value any) error {
	return types.ErrNotCollection
}

// Meta returns the document's metadata bag.
func (d *Document) Meta() map[string]any { return d.meta }

// SetMeta assigns a metadata entry.
func (d *Document) SetMeta(key string, value any) { d.meta[key] = value }

// Locale returns the meta.locale convention value, empty when unset.
func (d *Document) Locale() string {
	v, ok := d.meta["locale"]
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

// Load resolves every reference reachable under the requested relations.
// The relations argument accepts a non-negative depth, a comma-separated
// string, or a sequence of dot-paths; see relation.Parse.
//
// Load is all-or-nothing: the first failing batch aborts the call and the
// error is returned as-is. Entities already merged before the failure stay
// in the inclusion set and in the identity store. Each call works on its own
// queue, so concurrent Loads on independent documents do not interfere.
func (d *Document) Load(ctx context.Context, relations any) error {
	spec, err := relation.Parse(relations)
	if err != nil {
		return err
	}

	queue := newLoadQueue()
	walk(d.data, spec, queue, d.inclusions)

	l := &loader{
		deps:       d.deps,
		inclusions: d.inclusions,
		locale:     d.Locale(),
	}
	return l.drain(ctx, queue)
}

// AddIncludes merges an already-resolved entity (or a batch of them) into
// the document's inclusion set under the given relation spec.
func (d *Document) AddIncludes(entity any, relations any) error {
	spec, err := relation.Parse(relations)
	if err != nil {
		return err
	}
	d.inclusions.merge(entity, spec.Signature())
	return nil
}

// Inclusions returns the flattened inclusion map, transitive includes
// folded in, keyed by identity.
func (d *Document) Inclusions() map[types.IdentityKey]any {
	return d.inclusions.flatten()
}

// Included returns the flattened, deduplicated inclusion list.
func (d *Document) Included() []any {
	return d.inclusions.flattenList()
}

// ClearInclusions drops every inclusion collected so far.
func (d *Document) ClearInclusions() { d.inclusions.clear() }
