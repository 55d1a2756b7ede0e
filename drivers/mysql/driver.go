// Package mysql provides the MySQL-backed entity source.
package mysql

import (
	_ "github.com/go-sql-driver/mysql"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/drivers/base"
	"github.com/refgraph/refgraph/registry"
)

const driverName = "mysql"

func init() {
	registry.Register(driverName, func(nativeURI string) (document.Source, error) {
		return NewSource(nativeURI), nil
	})
	registry.RegisterURIParser(driverName, &uriParser{})
}

type dialect struct{}

func (dialect) Placeholder(i int) string      { return "?" }
func (dialect) QuoteIdent(name string) string { return "`" + name + "`" }

// Source is the MySQL entity source.
type Source struct {
	*base.SQLSource
}

// NewSource creates a source over a native MySQL DSN, e.g.
// "user:pass@tcp(localhost:3306)/dbname".
func NewSource(dsn string) *Source {
	return &Source{SQLSource: base.NewSQLSource("mysql", dsn, dialect{})}
}
