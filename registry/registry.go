// Package registry holds the driver registrations that map source URI
// schemes to storage backends. Drivers self-register from their init
// functions; importing a driver package is what makes its scheme available.
package registry

import (
	"fmt"
	"sync"

	"github.com/refgraph/refgraph/document"
)

// SourceFactory creates a source from a driver-native URI or DSN.
type SourceFactory func(nativeURI string) (document.Source, error)

// URIParser converts a refgraph source URI into a driver-native one.
type URIParser interface {
	// ParseURI returns the native URI/DSN when the input belongs to this
	// driver, or an error when the format is not supported.
	ParseURI(uri string) (string, error)

	// SupportedSchemes lists the URI schemes this parser accepts.
	SupportedSchemes() []string
}

var (
	mu         sync.RWMutex
	factories  = make(map[string]SourceFactory)
	uriParsers = make(map[string]URIParser)
)

// Register registers a source driver factory under a driver name.
// Registering the same name twice is a programming error and panics.
func Register(driver string, factory SourceFactory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[driver]; exists {
		panic(fmt.Sprintf("source driver %q already registered", driver))
	}
	factories[driver] = factory
}

// RegisterURIParser registers the URI parser of a driver.
func RegisterURIParser(driver string, parser URIParser) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := uriParsers[driver]; exists {
		panic(fmt.Sprintf("URI parser for driver %q already registered", driver))
	}
	uriParsers[driver] = parser
}

// Get retrieves a registered driver factory.
func Get(driver string) (SourceFactory, error) {
	mu.RLock()
	defer mu.RUnlock()

	factory, exists := factories[driver]
	if !exists {
		return nil, fmt.Errorf("source driver %q not registered", driver)
	}
	return factory, nil
}

// Drivers lists the registered driver names.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	return out
}

// ParseURI finds the driver whose parser accepts the URI and returns the
// native URI together with the driver name.
func ParseURI(uri string) (nativeURI, driver string, err error) {
	scheme := uriScheme(uri)
	if scheme == "" {
		return "", "", fmt.Errorf("source URI %q has no scheme", uri)
	}

	mu.RLock()
	defer mu.RUnlock()

	for name, parser := range uriParsers {
		for _, s := range parser.SupportedSchemes() {
			if s != scheme {
				continue
			}
			native, err := parser.ParseURI(uri)
			if err != nil {
				return "", "", err
			}
			return native, name, nil
		}
	}
	return "", "", fmt.Errorf("no driver registered for scheme %q", scheme)
}

func uriScheme(uri string) string {
	for i := 0; i < len(uri); i++ {
		if uri[i] == ':' {
			return uri[:i]
		}
	}
	return ""
}
