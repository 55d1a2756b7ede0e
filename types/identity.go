package types

import "github.com/refgraph/refgraph/utils"

// IdentityKey identifies a resolved entity for caching and inclusion
// purposes. Two entities are the same iff id, type and the relation
// signature they were fetched with all match - the same entity fetched with
// different relation specs is cached separately, so a deeper request is
// never served an under-resolved copy.
type IdentityKey struct {
	Type      string
	ID        string
	Signature string
}

// NewIdentityKey builds a key from a raw id value and the canonical relation
// signature. Ids are canonicalized to their string form so that numeric and
// string ids from different drivers compare equal.
func NewIdentityKey(entityType string, id any, signature string) IdentityKey {
	return IdentityKey{
		Type:      entityType,
		ID:        utils.ToString(id),
		Signature: signature,
	}
}

// KeyForEntity derives the identity key of a resolved entity's raw data.
// The second return is false when the data carries no usable id or type.
func KeyForEntity(data map[string]any, signature string) (IdentityKey, bool) {
	id, hasID := data["id"]
	typ, _ := data["type"].(string)
	if !hasID || typ == "" {
		return IdentityKey{}, false
	}
	return NewIdentityKey(typ, id, signature), true
}
