// Package script hosts user-supplied JavaScript serialization hooks.
package script

import (
	"fmt"
	"sync"

	js "github.com/dop251/goja"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/types"
)

// NewTransform compiles a JavaScript function of the form
//
//	(key, value, nested) => override
//
// into a document.Transform. Returning undefined (or nothing) keeps the
// original value; any other return value is written in its place. The
// source must evaluate to a function.
//
// A goja runtime is single-threaded, so calls are serialized behind a
// mutex; the hook is invoked during rendering, which is itself a
// single-goroutine traversal per document.
func NewTransform(source string) (document.Transform, error) {
	vm := js.New()

	value, err := vm.RunString(source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile transform: %w", err)
	}

	fn, ok := js.AssertFunction(value)
	if !ok {
		return nil, fmt.Errorf("transform source must evaluate to a function")
	}

	var mu sync.Mutex
	transform := func(parent any, key string, value any, nested bool, extra map[types.IdentityKey]any) (any, bool) {
		if !exportable(value) {
			return nil, false
		}

		mu.Lock()
		defer mu.Unlock()

		result, err := fn(js.Undefined(), vm.ToValue(key), vm.ToValue(value), vm.ToValue(nested))
		if err != nil {
			// A throwing hook keeps the original value rather than
			// failing the rendering.
			return nil, false
		}
		if result == nil || js.IsUndefined(result) {
			return nil, false
		}
		return result.Export(), true
	}
	return transform, nil
}

// exportable reports whether a value can cross into the JS runtime without
// leaking live graph objects. Documents and collections stay opaque; the
// hook sees their rendered fields instead.
func exportable(v any) bool {
	switch v.(type) {
	case *document.Document, *document.Collection:
		return false
	default:
		return true
	}
}
