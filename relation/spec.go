package relation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/refgraph/refgraph/types"
)

const (
	// AssetsKeyword is the reserved path that always expands asset-bearing
	// fields, whatever they are named.
	AssetsKeyword = "assets"

	// FieldsContainer is the field name that holds an entity's field
	// container. Descending into it never consumes a depth level.
	FieldsContainer = "fields"
)

// Spec is a relation request: either a uniform depth or an explicit set of
// dot-separated paths. The tag is fixed at construction - a spec never holds
// a mix of both.
type Spec struct {
	isDepth bool
	depth   int
	paths   []string
}

// Depth builds a depth-tagged spec.
func Depth(n int) Spec {
	return Spec{isDepth: true, depth: n}
}

// Paths builds a path-tagged spec from trimmed, deduplicated entries.
func Paths(paths ...string) Spec {
	return Spec{paths: normalizePaths(paths)}
}

func normalizePaths(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Parse turns a caller-supplied relation request into a Spec. Accepted
// inputs: a non-negative integer (or whole float, or numeric string) for a
// uniform depth, a comma-separated string or a string sequence for explicit
// paths, and nil for "no relations". Anything else fails with
// types.ErrInvalidRelations.
func Parse(input any) (Spec, error) {
	switch v := input.(type) {
	case nil:
		return Paths(), nil
	case Spec:
		return v, nil
	case int:
		return parseDepth(int64(v))
	case int32:
		return parseDepth(int64(v))
	case int64:
		return parseDepth(v)
	case float64:
		if v != float64(int64(v)) {
			return Spec{}, fmt.Errorf("%w: fractional depth %v", types.ErrInvalidRelations, v)
		}
		return parseDepth(int64(v))
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return parseDepth(n)
		}
		return Paths(strings.Split(v, ",")...), nil
	case []string:
		return Paths(v...), nil
	case []any:
		paths := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return Spec{}, fmt.Errorf("%w: path entry %T is not a string", types.ErrInvalidRelations, item)
			}
			paths = append(paths, s)
		}
		return Paths(paths...), nil
	default:
		return Spec{}, fmt.Errorf("%w: unsupported type %T", types.ErrInvalidRelations, input)
	}
}

func parseDepth(n int64) (Spec, error) {
	if n < 0 {
		return Spec{}, fmt.Errorf("%w: negative depth %d", types.ErrInvalidRelations, n)
	}
	return Depth(int(n)), nil
}

// IsDepth reports whether the spec is depth-tagged.
func (s Spec) IsDepth() bool { return s.isDepth }

// DepthValue returns the depth of a depth-tagged spec, 0 otherwise.
func (s Spec) DepthValue() int {
	if !s.isDepth {
		return 0
	}
	return s.depth
}

// PathList returns a copy of the path set of a path-tagged spec.
func (s Spec) PathList() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// IsZero reports whether the spec matches nothing: a path spec with no
// entries. Depth(0) is not zero - the fields container and asset shortcuts
// still apply to it.
func (s Spec) IsZero() bool {
	return !s.isDepth && len(s.paths) == 0
}

// Merge combines a follow-up request into the spec. A depth addition
// replaces whatever was there (last numeric wins); path additions union with
// an existing path set and replace a depth spec.
func (s Spec) Merge(addition Spec) Spec {
	if addition.isDepth || s.isDepth {
		return addition
	}
	return Paths(append(s.PathList(), addition.paths...)...)
}

// Matches decides whether the walker should descend into the named field.
// The field's value takes part in the decision through the asset shortcut: a
// file stub or a homogeneous list of file stubs is always eligible.
func (s Spec) Matches(field string, value any) bool {
	if s.isDepth {
		if s.depth > 0 || field == FieldsContainer {
			return true
		}
		return types.IsAssetValue(value)
	}
	for _, p := range s.paths {
		if p == AssetsKeyword && types.IsAssetValue(value) {
			return true
		}
		if p == field || strings.HasPrefix(p, field+".") {
			return true
		}
	}
	return false
}

// Descend derives the remainder spec for the named field's children.
func (s Spec) Descend(field string) Spec {
	if s.isDepth {
		if field == FieldsContainer {
			return s
		}
		if s.depth-1 > 0 {
			return Depth(s.depth - 1)
		}
		return Paths()
	}

	remainder := make([]string, 0, len(s.paths))
	for _, p := range s.paths {
		if p == AssetsKeyword {
			remainder = append(remainder, p)
			continue
		}
		if rest, ok := strings.CutPrefix(p, field+"."); ok && rest != "" {
			remainder = append(remainder, rest)
		}
	}
	return Paths(remainder...)
}

// Signature renders the canonical, order-independent encoding of the spec.
// Two walks requesting the same relations produce the same signature and
// therefore share one batch. Parse(sig) round-trips.
func (s Spec) Signature() string {
	if s.isDepth {
		return strconv.Itoa(s.depth)
	}
	sorted := s.PathList()
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func (s Spec) String() string {
	if s.isDepth {
		return "depth(" + strconv.Itoa(s.depth) + ")"
	}
	return "paths(" + s.Signature() + ")"
}
