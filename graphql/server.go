package graphql

import (
	"context"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/refgraph/refgraph/document"
	"github.com/refgraph/refgraph/identity"
	"github.com/refgraph/refgraph/logger"
	"github.com/refgraph/refgraph/source"
)

// ServerConfig configures the GraphQL read surface.
type ServerConfig struct {
	SourceURI  string
	Port       int
	Playground bool
	CORS       bool
	LogLevel   string
}

// Server serves compound documents over GraphQL.
type Server struct {
	src     document.Source
	handler http.Handler
	config  ServerConfig
	log     logger.Logger
}

// NewServer connects the source and builds the schema.
func NewServer(config ServerConfig) (*Server, error) {
	log := logger.NewDefaultLogger("refgraph")
	log.SetLevel(logger.ParseLogLevel(config.LogLevel))

	src, err := source.NewFromURI(config.SourceURI)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	if err := src.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect source: %w", err)
	}

	store := identity.NewMemory()
	deps := document.Deps{
		Resolver: document.NewSourceResolver(src, store, log),
		Identity: store,
		Logger:   log,
	}

	schema, err := BuildSchema(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}

	return &Server{
		src:     src,
		handler: newHTTPHandler(schema, config.Playground),
		config:  config,
		log:     log,
	}, nil
}

func newHTTPHandler(schema graphql.Schema, playground bool) http.Handler {
	return handler.New(&handler.Config{
		Schema:     &schema,
		Pretty:     true,
		Playground: playground,
	})
}

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/graphql", s.corsMiddleware(s.handler))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.src.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Info("GraphQL server listening on %s/graphql", addr)
	return http.ListenAndServe(addr, mux)
}

// Stop closes the underlying source.
func (s *Server) Stop() error {
	return s.src.Close()
}

// Handler exposes the GraphQL handler for embedding in another mux.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.CORS {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
