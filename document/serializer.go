package document

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/refgraph/refgraph/types"
	"github.com/refgraph/refgraph/utils"
)

// Transform is the per-value serialization hook. It receives the containing
// structure, the key being written (empty for sequence elements and the top
// level), the raw value and the active resolution context, and may override
// the value actually written by returning (override, true). Overrides are
// written verbatim.
type Transform func(parent any, key string, value any, nested bool, extra map[types.IdentityKey]any) (any, bool)

// serializer converts a live data tree into a plain, acyclic structure.
// It is a read-only traversal; one instance serves one rendering.
type serializer struct {
	tr    Transform
	stack map[uintptr]struct{}
}

func newSerializer(tr Transform) *serializer {
	return &serializer{tr: tr, stack: make(map[uintptr]struct{})}
}

// ToMap renders the compound-document shape {data, included?, meta?}.
// With nestedInclude true, resolved entities are embedded in place of their
// stubs; with nestedInclude false, stubs stay in data and the flattened
// inclusion list is emitted under "included" instead. The two output shapes
// are mutually exclusive.
func (d *Document) ToMap(includeMeta, nestedInclude bool, tr Transform) (map[string]any, error) {
	s := newSerializer(tr)
	data, err := s.render(nil, "", d, nestedInclude, nil)
	if err != nil {
		return nil, err
	}

	out := map[string]any{"data": data}
	if err := d.attachIncluded(out, nestedInclude, tr); err != nil {
		return nil, err
	}
	if includeMeta && len(d.meta) > 0 {
		meta, err := newSerializer(nil).render(nil, "meta", d.meta, false, nil)
		if err != nil {
			return nil, err
		}
		out["meta"] = meta
	}
	return out, nil
}

// ToJSON renders the compound document as JSON.
func (d *Document) ToJSON(includeMeta, nestedInclude bool, tr Transform) ([]byte, error) {
	out, err := d.ToMap(includeMeta, nestedInclude, tr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (d *Document) attachIncluded(out map[string]any, nestedInclude bool, tr Transform) error {
	if nestedInclude {
		return nil
	}
	included, err := renderIncluded(d.inclusions, tr)
	if err != nil {
		return err
	}
	if len(included) > 0 {
		out["included"] = included
	}
	return nil
}

// ToMap renders the collection's compound document: a data sequence plus
// the shared flat includes.
func (c *Collection) ToMap(includeMeta, nestedInclude bool, tr Transform) (map[string]any, error) {
	s := newSerializer(tr)
	data, err := s.render(nil, "", c, nestedInclude, nil)
	if err != nil {
		return nil, err
	}

	out := map[string]any{"data": data}
	if !nestedInclude {
		included, err := renderIncluded(c.inclusions, tr)
		if err != nil {
			return nil, err
		}
		if len(included) > 0 {
			out["included"] = included
		}
	}
	if includeMeta && len(c.meta) > 0 {
		meta, err := newSerializer(nil).render(nil, "meta", c.meta, false, nil)
		if err != nil {
			return nil, err
		}
		out["meta"] = meta
	}
	return out, nil
}

// ToJSON renders the collection's compound document as JSON.
func (c *Collection) ToJSON(includeMeta, nestedInclude bool, tr Transform) ([]byte, error) {
	out, err := c.ToMap(includeMeta, nestedInclude, tr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// renderIncluded flattens an inclusion set and renders every entry without
// nested resolution, so included entities keep their own stubs instead of
// re-substituting each other in place.
func renderIncluded(inc *inclusionSet, tr Transform) ([]any, error) {
	entries := inc.flattenList()
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]any, 0, len(entries))
	for _, entry := range entries {
		rendered, err := newSerializer(tr).render(nil, "", entry, false, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	return out, nil
}

// render recursively converts one node. Resolution precedence for stubs is:
// caller-supplied extra includes, then the nearest enclosing document's own
// inclusion set, then the stub passes through unresolved.
func (s *serializer) render(parent any, key string, node any, nested bool, extra map[types.IdentityKey]any) (any, error) {
	if s.tr != nil {
		if override, ok := s.tr(parent, key, node, nested, extra); ok {
			return override, nil
		}
	}

	if nested {
		if ref, ok := types.AsReference(node); ok {
			if resolved, found := lookupIncludes(extra, ref); found {
				node = resolved
			}
		}
	}

	switch val := node.(type) {
	case *Document:
		if err := s.enter(val); err != nil {
			return nil, err
		}
		defer s.leave(val)
		merged := overlayIncludes(val.inclusions.snapshot(), extra)
		// A document whose data is itself a bare stub renders as the
		// resolved entity; inner stubs still follow the nested flag.
		if ref, ok := types.AsReference(val.data); ok {
			if resolved, found := lookupIncludes(merged, ref); found {
				return s.render(parent, key, resolved, nested, merged)
			}
		}
		return s.renderMap(val.data, nested, merged)

	case *Collection:
		if err := s.enter(val); err != nil {
			return nil, err
		}
		defer s.leave(val)
		merged := overlayIncludes(val.inclusions.snapshot(), extra)
		out := make([]any, 0, len(val.items))
		for _, item := range val.items {
			// Items are data roots: a stub item renders as its resolved
			// entity whichever include shape is requested.
			if ref, ok := types.AsReference(item); ok {
				if resolved, found := lookupIncludes(merged, ref); found {
					item = resolved
				}
			}
			rendered, err := s.render(val, "", item, nested, merged)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil

	case types.Reference:
		return val.Raw(), nil

	case time.Time:
		return val.UTC().Format(time.RFC3339), nil

	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return val.UTC().Format(time.RFC3339), nil

	case map[string]any:
		if len(val) == 0 {
			return map[string]any{}, nil
		}
		if err := s.enter(val); err != nil {
			return nil, err
		}
		defer s.leave(val)
		return s.renderMap(val, nested, extra)

	case []any:
		if len(val) == 0 {
			return []any{}, nil
		}
		if err := s.enter(val); err != nil {
			return nil, err
		}
		defer s.leave(val)
		out := make([]any, 0, len(val))
		for _, item := range val {
			rendered, err := s.render(val, "", item, nested, extra)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil

	default:
		return val, nil
	}
}

func (s *serializer) renderMap(m map[string]any, nested bool, extra map[types.IdentityKey]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, value := range m {
		rendered, err := s.render(m, key, value, nested, extra)
		if err != nil {
			return nil, err
		}
		out[key] = rendered
	}
	return out, nil
}

// enter guards against rendering a container that is already on the render
// stack, which would recurse forever.
func (s *serializer) enter(v any) error {
	p := reflect.ValueOf(v).Pointer()
	if _, rendering := s.stack[p]; rendering {
		return types.ErrCycle
	}
	s.stack[p] = struct{}{}
	return nil
}

func (s *serializer) leave(v any) {
	delete(s.stack, reflect.ValueOf(v).Pointer())
}

// overlayIncludes merges a document's own inclusion snapshot under the
// caller-supplied extra includes; extra entries win.
func overlayIncludes(own, extra map[types.IdentityKey]any) map[types.IdentityKey]any {
	if len(extra) == 0 {
		return own
	}
	out := make(map[types.IdentityKey]any, len(own)+len(extra))
	for k, v := range own {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// lookupIncludes finds a stub's resolved entity by id and type, picking the
// smallest signature when several match so the choice is deterministic.
func lookupIncludes(includes map[types.IdentityKey]any, ref types.Reference) (any, bool) {
	if len(includes) == 0 {
		return nil, false
	}
	id := utils.ToString(ref.ID)
	var (
		found bool
		best  types.IdentityKey
	)
	for key := range includes {
		if key.Type != ref.Type || key.ID != id {
			continue
		}
		if !found || key.Signature < best.Signature {
			found = true
			best = key
		}
	}
	if !found {
		return nil, false
	}
	return includes[best], true
}
