package graphql

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/refgraph/refgraph/document"
)

// BuildSchema generates the query schema over a configured document
// dependency set. Resolution results are compound documents carried through
// the JSON scalar.
func BuildSchema(deps document.Deps) (graphql.Schema, error) {
	queryFields := graphql.Fields{
		"entity": &graphql.Field{
			Type:        JSONScalar,
			Description: "Resolve one entity and its requested relations into a compound document",
			Args: graphql.FieldConfigArgument{
				"type":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"id":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"relations": &graphql.ArgumentConfig{Type: graphql.String},
				"locale":    &graphql.ArgumentConfig{Type: graphql.String},
				"nested":    &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				"meta":      &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				entityType, _ := p.Args["type"].(string)
				id, _ := p.Args["id"].(string)
				nested, _ := p.Args["nested"].(bool)
				withMeta, _ := p.Args["meta"].(bool)

				doc := document.NewDocument(stub(id, entityType), deps)
				applyLocale(p.Args, doc.SetMeta)
				if err := doc.Load(p.Context, relationsArg(p.Args)); err != nil {
					return nil, err
				}
				return doc.ToMap(withMeta, nested, nil)
			},
		},
		"entities": &graphql.Field{
			Type:        JSONScalar,
			Description: "Resolve a batch of entities of one type into a compound document",
			Args: graphql.FieldConfigArgument{
				"type":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				"ids":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.String)))},
				"relations": &graphql.ArgumentConfig{Type: graphql.String},
				"locale":    &graphql.ArgumentConfig{Type: graphql.String},
				"nested":    &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				"meta":      &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
			},
			Resolve: func(p graphql.ResolveParams) (any, error) {
				entityType, _ := p.Args["type"].(string)
				nested, _ := p.Args["nested"].(bool)
				withMeta, _ := p.Args["meta"].(bool)

				rawIDs, _ := p.Args["ids"].([]any)
				items := make([]any, 0, len(rawIDs))
				for _, id := range rawIDs {
					s, ok := id.(string)
					if !ok {
						return nil, fmt.Errorf("entity id %v is not a string", id)
					}
					items = append(items, stub(s, entityType))
				}

				coll := document.NewCollection(items, deps)
				applyLocale(p.Args, coll.SetMeta)
				if err := coll.Load(p.Context, relationsArg(p.Args)); err != nil {
					return nil, err
				}
				return coll.ToMap(withMeta, nested, nil)
			},
		},
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: queryFields,
		}),
	})
}

func stub(id, entityType string) map[string]any {
	return map[string]any{"id": id, "type": entityType}
}

func relationsArg(args map[string]any) any {
	rel, ok := args["relations"]
	if !ok || rel == nil {
		return nil
	}
	return rel
}

func applyLocale(args map[string]any, setMeta func(string, any)) {
	if locale, ok := args["locale"].(string); ok && locale != "" {
		setMeta("locale", locale)
	}
}
