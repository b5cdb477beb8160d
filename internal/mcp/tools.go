package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"archivum/internal/apperrors"
	"archivum/internal/graph"
	"archivum/internal/ingest"
	"archivum/internal/store"
)

type ListProjectsInput struct{}

type GetGraphInput struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	Type      string `json:"type,omitempty" jsonschema:"only return nodes of this entity type"`
}

type GetEntityInput struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	EntityID  string `json:"entity_id" jsonschema:"entity id"`
}

type SearchEntitiesInput struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	Query     string `json:"query" jsonschema:"search terms; supports \"phrases\", -exclusions and OR"`
	Type      string `json:"type,omitempty" jsonschema:"person, place, event, object or concept"`
}

type ExtractEntitiesInput struct {
	ProjectID string `json:"project_id" jsonschema:"project id"`
	Text      string `json:"text" jsonschema:"transcribed document text"`
}

type GetVocabularyInput struct{}

type ProjectOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type ListProjectsOutput struct {
	Projects []ProjectOutput `json:"projects"`
}

type GetGraphOutput struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
	Stats graph.Stats  `json:"stats"`
}

type SearchResultOutput struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Aliases []string `json:"aliases"`
	Score   float64  `json:"score"`
	Snippet string   `json:"snippet,omitempty"`
}

type SearchEntitiesOutput struct {
	Results []SearchResultOutput `json:"results"`
}

type ExtractEntitiesOutput struct {
	Entities      []ingest.EntityRef           `json:"entities"`
	Relationships []ingest.RelationshipRef     `json:"relationships"`
	Dropped       []ingest.DroppedRelationship `json:"dropped"`
	Stats         ingest.Stats                 `json:"stats"`
	Model         string                       `json:"model"`
	TotalTokens   int                          `json:"total_tokens"`
}

type RelationTypeOutput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Inverse     string `json:"inverse,omitempty"`
	Symmetric   bool   `json:"symmetric,omitempty"`
}

type GetVocabularyOutput struct {
	EntityTypes   []string             `json:"entity_types"`
	RelationTypes []RelationTypeOutput `json:"relation_types"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_projects",
		Description: "List archive projects",
	}, s.handleListProjects)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_graph",
		Description: "Return the entity graph of a project with per-type statistics",
	}, s.handleGetGraph)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_entity",
		Description: "Retrieve an entity with its incoming and outgoing relationships",
	}, s.handleGetEntity)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_entities",
		Description: "Full-text search over entity names, aliases and descriptions",
	}, s.handleSearchEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "extract_entities",
		Description: "Extract entities and relationships from document text into a project",
	}, s.handleExtractEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_vocabulary",
		Description: "Return the entity types and recommended relation types",
	}, s.handleGetVocabulary)
}

func (s *Server) handleListProjects(ctx context.Context, req *sdk.CallToolRequest, input ListProjectsInput) (*sdk.CallToolResult, ListProjectsOutput, error) {
	projects, err := s.catalog.ListProjects(ctx)
	if err != nil {
		return nil, ListProjectsOutput{}, err
	}

	output := make([]ProjectOutput, 0, len(projects))
	for _, p := range projects {
		output = append(output, ProjectOutput{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, ListProjectsOutput{Projects: output}, nil
}

func (s *Server) handleGetGraph(ctx context.Context, req *sdk.CallToolRequest, input GetGraphInput) (*sdk.CallToolResult, GetGraphOutput, error) {
	if input.ProjectID == "" {
		return nil, GetGraphOutput{}, fmt.Errorf("project_id is required")
	}
	entityType, err := parseOptionalType(input.Type)
	if err != nil {
		return nil, GetGraphOutput{}, err
	}

	g, err := s.graphs.Assemble(ctx, input.ProjectID)
	if err != nil {
		return nil, GetGraphOutput{}, err
	}
	if entityType != "" {
		g = g.OfType(entityType)
	}
	return nil, GetGraphOutput{Nodes: g.Nodes, Edges: g.Edges, Stats: g.Stats}, nil
}

func (s *Server) handleGetEntity(ctx context.Context, req *sdk.CallToolRequest, input GetEntityInput) (*sdk.CallToolResult, graph.Detail, error) {
	if input.ProjectID == "" || input.EntityID == "" {
		return nil, graph.Detail{}, fmt.Errorf("project_id and entity_id are required")
	}
	g, err := s.graphs.Assemble(ctx, input.ProjectID)
	if err != nil {
		return nil, graph.Detail{}, err
	}
	detail, err := g.Detail(input.EntityID)
	if err != nil {
		return nil, graph.Detail{}, fmt.Errorf("entity not found")
	}
	return nil, *detail, nil
}

func (s *Server) handleSearchEntities(ctx context.Context, req *sdk.CallToolRequest, input SearchEntitiesInput) (*sdk.CallToolResult, SearchEntitiesOutput, error) {
	if input.ProjectID == "" {
		return nil, SearchEntitiesOutput{}, fmt.Errorf("project_id is required")
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchEntitiesOutput{}, fmt.Errorf("query is required")
	}
	entityType, err := parseOptionalType(input.Type)
	if err != nil {
		return nil, SearchEntitiesOutput{}, err
	}

	results, err := s.catalog.Search(ctx, input.ProjectID, input.Query, entityType)
	if err != nil {
		return nil, SearchEntitiesOutput{}, err
	}

	output := make([]SearchResultOutput, 0, len(results))
	for _, r := range results {
		output = append(output, SearchResultOutput{
			ID:      r.ID,
			Name:    r.Name,
			Type:    string(r.Type),
			Aliases: append([]string{}, r.Aliases...),
			Score:   r.Score,
			Snippet: r.Snippet,
		})
	}
	return nil, SearchEntitiesOutput{Results: output}, nil
}

func (s *Server) handleExtractEntities(ctx context.Context, req *sdk.CallToolRequest, input ExtractEntitiesInput) (*sdk.CallToolResult, ExtractEntitiesOutput, error) {
	if s.extractor == nil || !s.extractor.Available() {
		return nil, ExtractEntitiesOutput{}, fmt.Errorf("%w: set ARCHIVUM_LLM_API_KEY or llm.api_key", apperrors.ErrNotConfigured)
	}
	if input.ProjectID == "" {
		return nil, ExtractEntitiesOutput{}, fmt.Errorf("project_id is required")
	}

	result, err := s.extractor.Extract(ctx, input.ProjectID, input.Text)
	if err != nil {
		return nil, ExtractEntitiesOutput{}, err
	}
	return nil, ExtractEntitiesOutput{
		Entities:      result.Entities,
		Relationships: result.Relationships,
		Dropped:       result.Dropped,
		Stats:         result.Stats,
		Model:         result.Metadata.Model,
		TotalTokens:   result.Metadata.TotalTokens,
	}, nil
}

func (s *Server) handleGetVocabulary(ctx context.Context, req *sdk.CallToolRequest, input GetVocabularyInput) (*sdk.CallToolResult, GetVocabularyOutput, error) {
	out := GetVocabularyOutput{
		EntityTypes:   make([]string, 0, len(store.EntityTypes)),
		RelationTypes: []RelationTypeOutput{},
	}
	for _, t := range store.EntityTypes {
		out.EntityTypes = append(out.EntityTypes, string(t))
	}
	if s.vocab != nil {
		for _, rel := range s.vocab.RelationTypes {
			out.RelationTypes = append(out.RelationTypes, RelationTypeOutput{
				Name:        rel.Name,
				Description: rel.Description,
				Inverse:     rel.Inverse,
				Symmetric:   rel.Symmetric,
			})
		}
	}
	return nil, out, nil
}

func parseOptionalType(s string) (store.EntityType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	t, ok := store.ParseEntityType(s)
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}
