package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/types"
)

// addTool wraps mcp.AddTool with invocation logging.
func addTool[In, Out any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[In]) (*mcp.CallToolResultFor[Out], error)) {
	s.log.Info("Registering tool: %s", tool.Name)

	wrapped := func(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[In]) (*mcp.CallToolResultFor[Out], error) {
		start := time.Now()
		result, err := handler(ctx, session, params)
		if err != nil {
			s.log.Error("Tool %s failed after %v: %v", tool.Name, time.Since(start), err)
		} else {
			s.log.Debug("Tool %s completed in %v", tool.Name, time.Since(start))
		}
		return result, err
	}

	mcp.AddTool[In, Out](s.mcpServer, tool, wrapped)
}

// EntityResolveParams asks for a batch of entities of one type, resolved
// per the given relations, rendered as a compound document.
type EntityResolveParams struct {
	Type      string   `json:"type" jsonschema:"Entity type"`
	IDs       []string `json:"ids" jsonschema:"Entity ids"`
	Relations string   `json:"relations,omitempty" jsonschema:"Relations as depth or dot-paths"`
	Locale    string   `json:"locale,omitempty" jsonschema:"Locale filter"`
	Nested    bool     `json:"nested,omitempty" jsonschema:"Embed resolved entities in place instead of a flat included list"`
	Meta      bool     `json:"meta,omitempty" jsonschema:"Include the meta bag in the output"`
}

// ReferenceClassifyParams asks how a raw value would be classified.
type ReferenceClassifyParams struct {
	Value any `json:"value" jsonschema:"Value to classify"`
}

func (s *Server) registerTools() {
	resolveSchema, _ := jsonschema.For[EntityResolveParams]()
	addTool[EntityResolveParams, any](s, &mcp.Tool{
		Name:        "entity.resolve",
		Description: "Resolve entity references into a compound document with batched fetches",
		InputSchema: resolveSchema,
	}, s.handleEntityResolve)

	classifySchema, _ := jsonschema.For[ReferenceClassifyParams]()
	addTool[ReferenceClassifyParams, any](s, &mcp.Tool{
		Name:        "reference.classify",
		Description: "Classify a value as a plain value, entity, reference or asset reference",
		InputSchema: classifySchema,
	}, s.handleReferenceClassify)
}

func (s *Server) handleEntityResolve(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[EntityResolveParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments

	items := make([]any, 0, len(args.IDs))
	for _, id := range args.IDs {
		items = append(items, map[string]any{"id": id, "type": args.Type})
	}

	coll := document.NewCollection(items, s.deps)
	if args.Locale != "" {
		coll.SetMeta("locale", args.Locale)
	}

	var relations any
	if args.Relations != "" {
		relations = args.Relations
	}
	if err := coll.Load(ctx, relations); err != nil {
		return nil, err
	}

	payload, err := coll.ToJSON(args.Meta, args.Nested, nil)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(payload)},
		},
	}, nil
}

func (s *Server) handleReferenceClassify(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ReferenceClassifyParams]) (*mcp.CallToolResultFor[any], error) {
	kind := types.Classify(params.Arguments.Value)
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: kind.String()},
		},
	}, nil
}
