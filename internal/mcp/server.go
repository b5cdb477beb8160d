// Package mcp exposes the project graphs as Model Context Protocol tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"archivum/internal/config"
	"archivum/internal/graph"
	"archivum/internal/ingest"
	"archivum/internal/store"
)

// Catalog is the read side of store.Store the tools use.
type Catalog interface {
	ListProjects(ctx context.Context) ([]store.Project, error)
	Search(ctx context.Context, projectID, query string, entityType store.EntityType) ([]store.SearchResult, error)
}

type GraphAssembler interface {
	Assemble(ctx context.Context, projectID string) (*graph.Graph, error)
}

// Extractor is satisfied by *ingest.Orchestrator.
type Extractor interface {
	Available() bool
	Extract(ctx context.Context, projectID, text string) (*ingest.Result, error)
}

type Server struct {
	catalog   Catalog
	graphs    GraphAssembler
	extractor Extractor
	vocab     *config.Vocabulary
	mcp       *sdk.Server
}

func NewServer(catalog Catalog, graphs GraphAssembler, extractor Extractor, vocab *config.Vocabulary, version string) *Server {
	s := &Server{
		catalog:   catalog,
		graphs:    graphs,
		extractor: extractor,
		vocab:     vocab,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "archivum",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
