// Package mongodb provides the MongoDB-backed entity source. Entities live
// one collection per entity type, with their fields as document fields.
package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/logger"
	"github.com/refgraph/refgraph/registry"
)

const driverName = "mongodb"

func init() {
	registry.Register(driverName, func(nativeURI string) (document.Source, error) {
		return NewSource(nativeURI)
	})
	registry.RegisterURIParser(driverName, &uriParser{})
}

// Source is the MongoDB entity source.
type Source struct {
	nativeURI string
	dbName    string
	client    *mongo.Client
	log       logger.Logger
}

// NewSource creates a source over a MongoDB connection string. The database
// name is required in the URI path.
func NewSource(nativeURI string) (*Source, error) {
	dbName := databaseName(nativeURI)
	if dbName == "" {
		return nil, fmt.Errorf("database name is required in MongoDB URI")
	}
	return &Source{
		nativeURI: nativeURI,
		dbName:    dbName,
		log:       logger.GetGlobalLogger(),
	}, nil
}

// SetLogger replaces the source's logger.
func (s *Source) SetLogger(l logger.Logger) {
	if l != nil {
		s.log = l
	}
}

// Connect establishes and verifies the connection.
func (s *Source) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.nativeURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	s.client = client
	return nil
}

// Close disconnects the client.
func (s *Source) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// Ping verifies the connection is alive.
func (s *Source) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("not connected to MongoDB")
	}
	return s.client.Ping(ctx, nil)
}

// Fetch loads one batch of entities of a single type. Unknown ids are
// silently omitted; with a locale set, localized documents must match it
// while locale-less documents still qualify.
func (s *Source) Fetch(ctx context.Context, entityType string, ids []any, locale string) ([]map[string]any, error) {
	if s.client == nil {
		return nil, fmt.Errorf("not connected to MongoDB")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}}
	if locale != "" {
		filter["$or"] = []bson.M{
			{"locale": locale},
			{"locale": bson.M{"$exists": false}},
			{"locale": ""},
		}
	}

	s.log.Debug("mongodb find %s: %v", entityType, filter)

	cursor, err := s.client.Database(s.dbName).Collection(entityType).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", entityType, err)
	}
	defer cursor.Close(ctx)

	var out []map[string]any
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", entityType, err)
		}
		entity := normalizeDocument(doc)
		if id, ok := entity["_id"]; ok {
			delete(entity, "_id")
			entity["id"] = id
		}
		entity["type"] = entityType
		out = append(out, entity)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s cursor: %w", entityType, err)
	}
	return out, nil
}

func databaseName(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Path, "/")
}
