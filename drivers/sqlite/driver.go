// Package sqlite provides the SQLite-backed entity source.
package sqlite

import (
	"context"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/drivers/base"
	"github.com/refgraph/refgraph/registry"
)

const driverName = "sqlite"

func init() {
	registry.Register(driverName, func(nativeURI string) (document.Source, error) {
		return NewSource(nativeURI), nil
	})
	registry.RegisterURIParser(driverName, &uriParser{})
}

type dialect struct{}

func (dialect) Placeholder(i int) string      { return "?" }
func (dialect) QuoteIdent(name string) string { return `"` + name + `"` }

// Source is the SQLite entity source.
type Source struct {
	*base.SQLSource
	path string
}

// NewSource creates a source over a native SQLite path, e.g.
// "/var/data/entities.db" or ":memory:".
func NewSource(path string) *Source {
	return &Source{
		SQLSource: base.NewSQLSource("sqlite3", path, dialect{}),
		path:      path,
	}
}

// Connect opens the database file and enforces foreign keys, matching how
// the file is written by the importing tooling.
func (s *Source) Connect(ctx context.Context) error {
	if err := s.SQLSource.Connect(ctx); err != nil {
		return err
	}
	if _, err := s.DB().ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}
