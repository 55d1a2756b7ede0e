package document

import (
	"github.com/refgraph/refgraph/relation"
	"github.com/refgraph/refgraph/types"
)

// walk descends an entity data tree, routing every reference reachable
// under the active relation rules into the queue. References are terminal:
// their fields do not exist yet, so there is nothing to descend into.
//
// Sequence membership does not consume a relation level - every element of
// a plain list is walked with the same spec. Mapping fields are only
// entered when the spec matches the field name (or the field's value
// triggers the asset shortcut), and the remainder spec applies below.
func walk(node any, spec relation.Spec, queue *loadQueue, inc *inclusionSet) {
	switch val := node.(type) {
	case *Document:
		// An embedded graph brings its own resolved includes along.
		if val.inclusions != inc {
			inc.fold(val.inclusions)
		}
		walk(val.data, spec, queue, inc)

	case *Collection:
		if val.inclusions != inc {
			inc.fold(val.inclusions)
		}
		for _, item := range val.items {
			walk(item, spec, queue, inc)
		}

	case types.Reference:
		queue.add(val, spec)

	case map[string]any:
		if ref, ok := types.AsReference(val); ok {
			queue.add(ref, spec)
			return
		}
		for key, value := range val {
			if !spec.Matches(key, value) {
				continue
			}
			walk(value, spec.Descend(key), queue, inc)
		}

	case []any:
		for _, item := range val {
			walk(item, spec, queue, inc)
		}
	}
}
