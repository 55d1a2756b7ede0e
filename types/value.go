package types

// AssetType is the entity type carried by file-asset references.
const AssetType = "file"

// Reference is a stub that exclusively identifies an entity without carrying
// any of its attributes. A raw value qualifies as a reference only when it has
// exactly the two fields "id" and "type" - anything richer is a resolved
// entity, never an error.
type Reference struct {
	ID   any
	Type string
}

// IsAsset reports whether the reference points at a file asset.
func (r Reference) IsAsset() bool {
	return r.Type == AssetType
}

// Raw returns the two-field map form of the reference.
func (r Reference) Raw() map[string]any {
	return map[string]any{"id": r.ID, "type": r.Type}
}

// Kind classifies a value in an entity data tree.
type Kind int

const (
	// KindPlain covers scalars, nil and empty containers.
	KindPlain Kind = iota
	// KindEntity covers object-like values with resolved fields.
	KindEntity
	// KindReference covers unresolved {id, type} stubs.
	KindReference
	// KindAssetReference covers stubs whose type is "file".
	KindAssetReference
)

func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindReference:
		return "reference"
	case KindAssetReference:
		return "asset-reference"
	default:
		return "plain"
	}
}

// Classify assigns a value its kind. Classification happens once at a tree
// boundary; downstream code switches on the result instead of re-inspecting
// the shape at every call site.
func Classify(v any) Kind {
	switch val := v.(type) {
	case Reference:
		if val.IsAsset() {
			return KindAssetReference
		}
		return KindReference
	case map[string]any:
		if len(val) == 0 {
			return KindPlain
		}
		if ref, ok := referenceFromMap(val); ok {
			if ref.IsAsset() {
				return KindAssetReference
			}
			return KindReference
		}
		return KindEntity
	case []any:
		if len(val) == 0 {
			return KindPlain
		}
		return KindEntity
	default:
		return KindPlain
	}
}

// AsReference extracts the reference form of a value, if it has one.
func AsReference(v any) (Reference, bool) {
	switch val := v.(type) {
	case Reference:
		return val, true
	case map[string]any:
		return referenceFromMap(val)
	default:
		return Reference{}, false
	}
}

// referenceFromMap recognizes the exact two-field stub shape. The type field
// must be a string; a non-string type means the value is ordinary data.
func referenceFromMap(m map[string]any) (Reference, bool) {
	if len(m) != 2 {
		return Reference{}, false
	}
	id, hasID := m["id"]
	typ, hasType := m["type"]
	if !hasID || !hasType {
		return Reference{}, false
	}
	typeName, ok := typ.(string)
	if !ok || typeName == "" {
		return Reference{}, false
	}
	return Reference{ID: id, Type: typeName}, true
}

// IsAssetValue reports whether a field value triggers the asset shortcut:
// either a single file stub or a non-empty list made up entirely of file
// stubs. A mixed list never qualifies.
func IsAssetValue(v any) bool {
	switch val := v.(type) {
	case Reference, map[string]any:
		return Classify(val) == KindAssetReference
	case []any:
		if len(val) == 0 {
			return false
		}
		for _, item := range val {
			if Classify(item) != KindAssetReference {
				return false
			}
		}
		return true
	default:
		return false
	}
}
