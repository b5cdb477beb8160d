package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"archivum/internal/apperrors"
	"archivum/internal/config"
	"archivum/internal/graph"
	"archivum/internal/ingest"
	"archivum/internal/store"
)

type mockCatalog struct {
	projects     []store.Project
	searchResult []store.SearchResult
	searchErr    error

	lastSearchProject string
	lastSearchQuery   string
	lastSearchType    store.EntityType
}

func (m *mockCatalog) ListProjects(ctx context.Context) ([]store.Project, error) {
	return m.projects, nil
}

func (m *mockCatalog) Search(ctx context.Context, projectID, query string, entityType store.EntityType) ([]store.SearchResult, error) {
	m.lastSearchProject = projectID
	m.lastSearchQuery = query
	m.lastSearchType = entityType
	return m.searchResult, m.searchErr
}

type mockAssembler struct {
	graph *graph.Graph
	err   error

	lastProject string
}

func (m *mockAssembler) Assemble(ctx context.Context, projectID string) (*graph.Graph, error) {
	m.lastProject = projectID
	return m.graph, m.err
}

type mockExtractor struct {
	available bool
	result    *ingest.Result

	lastProject string
	lastText    string
}

func (m *mockExtractor) Available() bool { return m.available }

func (m *mockExtractor) Extract(ctx context.Context, projectID, text string) (*ingest.Result, error) {
	m.lastProject = projectID
	m.lastText = text
	return m.result, nil
}

func rametGraph() *graph.Graph {
	return graph.Build("p1", []store.Entity{
		{ID: "a", Type: store.EntityPerson, Name: "Marcel Ramet"},
		{ID: "b", Type: store.EntityPerson, Name: "Jeanne Dubois"},
		{ID: "c", Type: store.EntityPlace, Name: "Paris"},
	}, []store.Relationship{
		{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "married_to", Weight: 1},
		{ID: "r2", SourceID: "a", TargetID: "c", RelationType: "located_in", Weight: 1},
	})
}

func newTestServer(catalog Catalog, graphs GraphAssembler, extractor Extractor) *Server {
	return NewServer(catalog, graphs, extractor, config.DefaultVocabulary(), "test")
}

func TestListProjects(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	server := newTestServer(&mockCatalog{projects: []store.Project{{ID: "p1", Name: "Ramet", CreatedAt: created}}}, &mockAssembler{}, nil)

	_, output, err := server.handleListProjects(context.Background(), nil, ListProjectsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Projects) != 1 || output.Projects[0].CreatedAt != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected projects output: %+v", output)
	}
}

func TestGetGraph(t *testing.T) {
	assembler := &mockAssembler{graph: rametGraph()}
	server := newTestServer(&mockCatalog{}, assembler, nil)

	_, output, err := server.handleGetGraph(context.Background(), nil, GetGraphInput{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Nodes) != 3 || len(output.Edges) != 2 || output.Stats.ByType[store.EntityPerson] != 2 {
		t.Fatalf("unexpected graph output: %+v", output)
	}
	if assembler.lastProject != "p1" {
		t.Fatalf("unexpected project %q", assembler.lastProject)
	}

	_, output, err = server.handleGetGraph(context.Background(), nil, GetGraphInput{ProjectID: "p1", Type: "Place"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Nodes) != 1 || len(output.Edges) != 0 {
		t.Fatalf("unexpected filtered output: %+v", output)
	}

	if _, _, err := server.handleGetGraph(context.Background(), nil, GetGraphInput{ProjectID: "p1", Type: "ship"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, _, err := server.handleGetGraph(context.Background(), nil, GetGraphInput{}); err == nil {
		t.Fatalf("expected error without project")
	}
}

func TestGetEntity(t *testing.T) {
	server := newTestServer(&mockCatalog{}, &mockAssembler{graph: rametGraph()}, nil)

	_, detail, err := server.handleGetEntity(context.Background(), nil, GetEntityInput{ProjectID: "p1", EntityID: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Node.Name != "Marcel Ramet" || len(detail.Outgoing) != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	if _, _, err := server.handleGetEntity(context.Background(), nil, GetEntityInput{ProjectID: "p1", EntityID: "missing"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetEntity_ProjectNotFound(t *testing.T) {
	server := newTestServer(&mockCatalog{}, &mockAssembler{err: apperrors.ErrNotFound}, nil)

	_, _, err := server.handleGetEntity(context.Background(), nil, GetEntityInput{ProjectID: "p9", EntityID: "a"})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchEntities(t *testing.T) {
	catalog := &mockCatalog{
		searchResult: []store.SearchResult{
			{ID: "a", Name: "Marcel Ramet", Type: store.EntityPerson, Aliases: []string{"M. Ramet"}, Score: 2.5, Snippet: "**Ramet**"},
		},
	}
	server := newTestServer(catalog, &mockAssembler{}, nil)

	_, output, err := server.handleSearchEntities(context.Background(), nil, SearchEntitiesInput{ProjectID: "p1", Query: "ramet", Type: "person"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.Results) != 1 || output.Results[0].Name != "Marcel Ramet" || output.Results[0].Type != "person" {
		t.Fatalf("unexpected search output: %+v", output)
	}
	if catalog.lastSearchProject != "p1" || catalog.lastSearchQuery != "ramet" || catalog.lastSearchType != store.EntityPerson {
		t.Fatalf("unexpected search params")
	}

	if _, _, err := server.handleSearchEntities(context.Background(), nil, SearchEntitiesInput{ProjectID: "p1", Query: "  "}); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestExtractEntities(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		extractor := &mockExtractor{}
		server := newTestServer(&mockCatalog{}, &mockAssembler{}, extractor)

		_, _, err := server.handleExtractEntities(context.Background(), nil, ExtractEntitiesInput{ProjectID: "p1", Text: "text"})
		if !errors.Is(err, apperrors.ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
		if extractor.lastText != "" {
			t.Fatalf("extractor should not be called")
		}
	})

	t.Run("stores result", func(t *testing.T) {
		extractor := &mockExtractor{
			available: true,
			result: &ingest.Result{
				Entities: []ingest.EntityRef{{ID: "a", Name: "Marcel Ramet", Type: store.EntityPerson, Created: true}},
				Stats:    ingest.Stats{EntitiesCreated: 1},
			},
		}
		extractor.result.Metadata.Model = "mock-model"
		server := newTestServer(&mockCatalog{}, &mockAssembler{}, extractor)

		_, output, err := server.handleExtractEntities(context.Background(), nil, ExtractEntitiesInput{ProjectID: "p1", Text: "Marcel Ramet"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.Stats.EntitiesCreated != 1 || output.Model != "mock-model" {
			t.Fatalf("unexpected output: %+v", output)
		}
		if extractor.lastProject != "p1" || extractor.lastText != "Marcel Ramet" {
			t.Fatalf("unexpected extract params")
		}
	})
}

func TestGetVocabulary(t *testing.T) {
	server := newTestServer(&mockCatalog{}, &mockAssembler{}, nil)

	_, output, err := server.handleGetVocabulary(context.Background(), nil, GetVocabularyInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.EntityTypes) != 5 || len(output.RelationTypes) != 5 {
		t.Fatalf("unexpected vocabulary output: %+v", output)
	}
}
