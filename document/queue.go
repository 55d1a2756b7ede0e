package document

import (
	"github.com/refgraph/refgraph/relation"
	"github.com/refgraph/refgraph/types"
	"github.com/refgraph/refgraph/utils"
)

// queueKey groups references that can share one batch fetch: same entity
// type, same exact relation signature.
type queueKey struct {
	entityType string
	signature  string
}

// queueGroup accumulates the distinct ids of one batch. Insertion order is
// kept for deterministic fetches; it carries no semantic weight.
type queueGroup struct {
	entityType string
	spec       relation.Spec
	ids        []any
	seen       map[string]struct{}
}

func (g *queueGroup) add(id any) {
	canonical := utils.ToString(id)
	if _, dup := g.seen[canonical]; dup {
		return
	}
	g.seen[canonical] = struct{}{}
	g.ids = append(g.ids, id)
}

// loadQueue collects the references of one Load invocation. Every Load
// creates its own queue, so independent graphs never share batches.
type loadQueue struct {
	groups map[queueKey]*queueGroup
	order  []queueKey
}

func newLoadQueue() *loadQueue {
	return &loadQueue{groups: make(map[queueKey]*queueGroup)}
}

func (q *loadQueue) add(ref types.Reference, spec relation.Spec) {
	key := queueKey{entityType: ref.Type, signature: spec.Signature()}
	group, ok := q.groups[key]
	if !ok {
		group = &queueGroup{
			entityType: ref.Type,
			spec:       spec,
			seen:       make(map[string]struct{}),
		}
		q.groups[key] = group
		q.order = append(q.order, key)
	}
	group.add(ref.ID)
}

func (q *loadQueue) empty() bool { return len(q.order) == 0 }
