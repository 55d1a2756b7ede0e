// Package postgresql provides the PostgreSQL-backed entity source.
package postgresql

import (
	"strconv"

	_ "github.com/lib/pq"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/drivers/base"
	"github.com/refgraph/refgraph/registry"
)

const driverName = "postgresql"

func init() {
	registry.Register(driverName, func(nativeURI string) (document.Source, error) {
		return NewSource(nativeURI), nil
	})
	registry.RegisterURIParser(driverName, &uriParser{})
}

type dialect struct{}

func (dialect) Placeholder(i int) string      { return "$" + strconv.Itoa(i) }
func (dialect) QuoteIdent(name string) string { return `"` + name + `"` }

// Source is the PostgreSQL entity source.
type Source struct {
	*base.SQLSource
}

// NewSource creates a source over a native connection string; lib/pq
// accepts postgres:// URLs directly.
func NewSource(dsn string) *Source {
	return &Source{SQLSource: base.NewSQLSource("postgres", dsn, dialect{})}
}
