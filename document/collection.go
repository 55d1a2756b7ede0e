package document

import (
	"context"

	"github.com/refgraph/refgraph/relation"
	"github.com/refgraph/refgraph/types"
	"github.com/refgraph/refgraph/utils"
)

// Collection is a sequence of entity graphs sharing one inclusion set, so
// that any item can resolve includes fetched for a sibling.
type Collection struct {
	items      []any
	meta       map[string]any
	deps       Deps
	inclusions *inclusionSet
}

// NewCollection wraps a sequence of raw entities into a loadable collection.
func NewCollection(items []any, deps Deps) *Collection {
	return &Collection{
		items:      items,
		meta:       make(map[string]any),
		deps:       deps,
		inclusions: newInclusionSet(),
	}
}

// Items returns the live item sequence.
func (c *Collection) Items() []any { return c.items }

// Len returns the number of items.
func (c *Collection) Len() int { return len(c.items) }

// Item wraps the i-th entity as a document sharing the collection's
// inclusion set and collaborators.
func (c *Collection) Item(i int) *Document {
	data, _ := c.items[i].(map[string]any)
	doc := NewDocument(data, c.deps)
	doc.inclusions = c.inclusions
	doc.meta = c.meta
	return doc
}

// Append adds an entity to the collection.
func (c *Collection) Append(value any) {
	c.items = append(c.items, value)
}

// Meta returns the collection's metadata bag.
func (c *Collection) Meta() map[string]any { return c.meta }

// SetMeta assigns a metadata entry.
func (c *Collection) SetMeta(key string, value any) { c.meta[key] = value }

// Locale returns the meta.locale convention value, empty when unset.
func (c *Collection) Locale() string {
	v, ok := c.meta["locale"]
	if !ok {
		return ""
	}
	return utils.ToString(v)
}

// Load resolves references across every item in one pass, batching by
// entity type and relation signature over the whole collection. Same
// contract as Document.Load: all-or-nothing, per-call queue.
func (c *Collection) Load(ctx context.Context, relations any) error {
	spec, err := relation.Parse(relations)
	if err != nil {
		return err
	}

	queue := newLoadQueue()
	for _, item := range c.items {
		walk(item, spec, queue, c.inclusions)
	}

	l := &loader{
		deps:       c.deps,
		inclusions: c.inclusions,
		locale:     c.Locale(),
	}
	return l.drain(ctx, queue)
}

// AddIncludes merges an already-resolved entity (or a batch) into the
// shared inclusion set under the given relation spec.
func (c *Collection) AddIncludes(entity any, relations any) error {
	spec, err := relation.Parse(relations)
	if err != nil {
		return err
	}
	c.inclusions.merge(entity, spec.Signature())
	return nil
}

// Inclusions returns the flattened inclusion map shared by all items.
func (c *Collection) Inclusions() map[types.IdentityKey]any {
	return c.inclusions.flatten()
}

// Included returns the flattened, deduplicated inclusion list.
func (c *Collection) Included() []any {
	return c.inclusions.flattenList()
}

// ClearInclusions drops every inclusion collected so far.
func (c *Collection) ClearInclusions() { c.inclusions.clear() }
