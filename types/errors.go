package types

import "errors"

var (
	// ErrInvalidRelations is returned when a relation request is neither a
	// non-negative depth nor a path list.
	ErrInvalidRelations = errors.New("invalid relations input")

	// ErrNotCollection is returned when an append without a key is attempted
	// on a non-collection value.
	ErrNotCollection = errors.New("append requires a collection")

	// ErrCycle is returned by the serializer when it revisits a node that is
	// still being rendered.
	ErrCycle = errors.New("cycle detected in entity graph")
)
