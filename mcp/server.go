// Package mcp exposes entity resolution as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/identity"
	"github.com/refgraph/refgraph/logger"
	"github.com/refgraph/refgraph/source"
)

// ServerConfig holds the MCP server configuration.
type ServerConfig struct {
	SourceURI string
	Transport string // "stdio" or "http"
	Port      int
	LogLevel  string
	Version   string
}

// Server wraps the MCP SDK server around a connected source.
type Server struct {
	mcpServer *mcp.Server
	config    ServerConfig
	src       document.Source
	deps      document.Deps
	log       logger.Logger
}

// NewServer connects the source and registers the tools.
func NewServer(config ServerConfig) (*Server, error) {
	log := logger.NewDefaultLogger("MCP")
	log.SetLevel(logger.ParseLogLevel(config.LogLevel))
	if config.Transport == "stdio" {
		// Keep the JSON-RPC stream on stdout clean.
		log.SetOutput(os.Stderr)
	}
	logger.SetGlobalLogger(log)

	src, err := source.NewFromURI(config.SourceURI)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	if err := src.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect source: %w", err)
	}

	store := identity.NewMemory()
	server := &Server{
		config: config,
		src:    src,
		deps: document.Deps{
			Resolver: document.NewSourceResolver(src, store, log),
			Identity: store,
			Logger:   log,
		},
		log: log,
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "refgraph-mcp",
		Version: config.Version,
	}, &mcp.ServerOptions{
		Instructions: "refgraph MCP server - resolves entity reference graphs into compound documents",
	})
	server.registerTools()

	return server, nil
}

// Start runs the server on the configured transport until it stops.
func (s *Server) Start() error {
	ctx := context.Background()

	switch s.config.Transport {
	case "", "stdio":
		s.log.Info("MCP stdio server starting")
		return s.mcpServer.Run(ctx, mcp.NewStdioTransport())

	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return s.mcpServer
		}, nil)
		addr := fmt.Sprintf(":%d", s.config.Port)
		s.log.Info("MCP HTTP server listening on %s", addr)
		return http.ListenAndServe(addr, handler)

	default:
		return fmt.Errorf("unsupported transport: %s", s.config.Transport)
	}
}

// Stop closes the underlying source.
func (s *Server) Stop() error {
	return s.src.Close()
}
