// Package base carries the SQL machinery shared by the relational source
// drivers. Entities live one table per entity type, as (id, locale, data)
// rows with the fields serialized into the data column as JSON.
package base

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/refgraph/refgraph/logger"
	"github.com/refgraph/refgraph/utils"
)

// Dialect abstracts the per-driver SQL differences.
type Dialect interface {
	// Placeholder renders the 1-based i-th bind placeholder.
	Placeholder(i int) string
	// QuoteIdent quotes a table or column identifier.
	QuoteIdent(name string) string
}

// SQLSource is a generic database/sql backed source.
type SQLSource struct {
	driverName string
	dsn        string
	dialect    Dialect
	db         *sql.DB
	log        logger.Logger
}

// NewSQLSource builds a source for the given database/sql driver and DSN.
func NewSQLSource(driverName, dsn string, dialect Dialect) *SQLSource {
	return &SQLSource{
		driverName: driverName,
		dsn:        dsn,
		dialect:    dialect,
		log:        logger.GetGlobalLogger(),
	}
}

// SetLogger replaces the source's logger.
func (s *SQLSource) SetLogger(l logger.Logger) {
	if l != nil {
		s.log = l
	}
}

// DB exposes the underlying handle for driver-specific setup statements.
func (s *SQLSource) DB() *sql.DB { return s.db }

// Connect opens and pings the database.
func (s *SQLSource) Connect(ctx context.Context) error {
	db, err := sql.Open(s.driverName, s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s source: %w", s.driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping %s source: %w", s.driverName, err)
	}
	s.db = db
	return nil
}

// Close releases the database handle.
func (s *SQLSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection is alive.
func (s *SQLSource) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("%s source is not connected", s.driverName)
	}
	return s.db.PingContext(ctx)
}

// Fetch loads one batch of entities of a single type. Unknown ids are
// silently omitted. When a locale is given, localized rows match it and
// locale-less rows still qualify.
func (s *SQLSource) Fetch(ctx context.Context, entityType string, ids []any, locale string) ([]map[string]any, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%s source is not connected", s.driverName)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	table, err := TableForType(entityType)
	if err != nil {
		return nil, err
	}

	var (
		query strings.Builder
		args  []any
	)
	query.WriteString("SELECT id, data FROM ")
	query.WriteString(s.dialect.QuoteIdent(table))
	query.WriteString(" WHERE id IN (")
	for i, id := range ids {
		if i > 0 {
			query.WriteString(", ")
		}
		query.WriteString(s.dialect.Placeholder(len(args) + 1))
		args = append(args, id)
	}
	query.WriteString(")")
	if locale != "" {
		query.WriteString(" AND (locale = ")
		query.WriteString(s.dialect.Placeholder(len(args) + 1))
		query.WriteString(" OR locale IS NULL OR locale = '')")
		args = append(args, locale)
	}

	s.log.Debug("%s query: %s %v", s.driverName, query.String(), args)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			id   any
			data sql.NullString
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}

		entity := make(map[string]any)
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &entity); err != nil {
				return nil, fmt.Errorf("malformed data for %s id %v: %w", table, id, err)
			}
		}
		entity["id"] = utils.ToInterface(id)
		entity["type"] = entityType
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}
	return out, nil
}

// TableForType maps an entity type to its table name. Types are used as
// table names directly, so only identifier-safe characters pass through.
func TableForType(entityType string) (string, error) {
	if entityType == "" {
		return "", fmt.Errorf("empty entity type")
	}
	for _, r := range entityType {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return "", fmt.Errorf("entity type %q is not a valid table name", entityType)
		}
	}
	return entityType, nil
}
