package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"archivum/internal/apperrors"
	"archivum/internal/graph"
	"archivum/internal/ingest"
	"archivum/internal/layout"
	"archivum/internal/store"
)

const maxBodyBytes = 8 << 20

type ProjectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ExtractRequest struct {
	Text string `json:"text"`
}

type ExtractResponse struct {
	Entities      []ingest.EntityRef           `json:"entities"`
	Relationships []ingest.RelationshipRef     `json:"relationships"`
	Dropped       []ingest.DroppedRelationship `json:"dropped"`
	Stats         ingest.Stats                 `json:"stats"`
	Model         string                       `json:"model"`
	Malformed     bool                         `json:"malformed,omitempty"`
}

type SearchResultResponse struct {
	ID      string           `json:"id"`
	Type    store.EntityType `json:"type"`
	Name    string           `json:"name"`
	Aliases []string         `json:"aliases"`
	Score   float64          `json:"score"`
	Snippet string           `json:"snippet,omitempty"`
}

type StatusResponse struct {
	Version             string `json:"version,omitempty"`
	ExtractionAvailable bool   `json:"extraction_available"`
}

func toProjectResponse(p store.Project) ProjectResponse {
	return ProjectResponse{ID: p.ID, Name: p.Name, Description: p.Description, CreatedAt: p.CreatedAt}
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, http.StatusOK, StatusResponse{
		Version:             s.opts.Version,
		ExtractionAvailable: s.extractionAvailable(),
	})
}

func (s *Server) extractionAvailable() bool {
	return s.extractor != nil && s.extractor.Available()
}

func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	s.writeData(w, http.StatusOK, out)
}

func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	project, err := s.store.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusCreated, toProjectResponse(*project))
}

func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteProject(r.Context(), projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph returns the project graph. ?type= narrows it to one entity type.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.assemble(w, r)
	if !ok {
		return
	}

	t, ok := s.entityTypeParam(w, r)
	if !ok {
		return
	}
	if t != "" {
		g = g.OfType(t)
	}
	s.writeData(w, http.StatusOK, g)
}

func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	entityID, ok := s.entityID(w, r)
	if !ok {
		return
	}
	g, ok := s.assemble(w, r)
	if !ok {
		return
	}

	detail, err := g.Detail(entityID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, detail)
}

// GetLayout settles a force-directed layout of the project graph and
// returns it as a PNG. ?type= dims other entity types, ?select= highlights
// one entity and ?rule= picks the stop rule.
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request) {
	focus, ok := s.entityTypeParam(w, r)
	if !ok {
		return
	}
	g, ok := s.assemble(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	ruleName := s.opts.StopRule
	if v := q.Get("rule"); v != "" {
		ruleName = v
	}
	rule, err := layout.ParseStopRule(ruleName, s.opts.Layout, s.opts.Epsilon, s.opts.QuietTicks)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err))
		return
	}

	sim := layout.New(g.Nodes, g.Edges, s.opts.Layout)
	sim.SetFocus(focus)
	if selected := q.Get("select"); selected != "" {
		if _, found := g.Node(selected); !found {
			s.writeError(w, r, fmt.Errorf("entity %s: %w", selected, apperrors.ErrNotFound))
			return
		}
		sim.Select(selected)
	}
	state := sim.Settle(rule)

	surface := layout.NewPNGSurface(q.Get("labels") != "false")
	if err := surface.Draw(sim.Frame()); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Debug("Rendered layout",
		zap.String("project_id", g.ProjectID),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("ticks", state.TickCount),
		zap.Float64("energy", state.Energy))

	w.Header().Set("Content-Type", "image/png")
	if err := surface.WritePNG(w); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return
	}
	entityType, ok := s.entityTypeParam(w, r)
	if !ok {
		return
	}

	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		s.writeError(w, r, err)
		return
	}
	results, err := s.store.Search(r.Context(), projectID, r.URL.Query().Get("q"), entityType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]SearchResultResponse, 0, len(results))
	for _, res := range results {
		aliases := res.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		out = append(out, SearchResultResponse{
			ID:      res.ID,
			Type:    res.Type,
			Name:    res.Name,
			Aliases: aliases,
			Score:   res.Score,
			Snippet: res.Snippet,
		})
	}
	s.writeData(w, http.StatusOK, out)
}

func (s *Server) Extract(w http.ResponseWriter, r *http.Request) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return
	}
	if !s.extractionAvailable() {
		s.writeError(w, r, apperrors.ErrNotConfigured)
		return
	}

	var req ExtractRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.extractor.Extract(r.Context(), projectID, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, ExtractResponse{
		Entities:      result.Entities,
		Relationships: result.Relationships,
		Dropped:       result.Dropped,
		Stats:         result.Stats,
		Model:         result.Metadata.Model,
		Malformed:     result.Metadata.Malformed,
	})
}

func (s *Server) assemble(w http.ResponseWriter, r *http.Request) (*graph.Graph, bool) {
	projectID, ok := s.projectID(w, r)
	if !ok {
		return nil, false
	}
	g, err := s.graphs.Assemble(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return g, true
}

func (s *Server) entityTypeParam(w http.ResponseWriter, r *http.Request) (store.EntityType, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("type"))
	if raw == "" {
		return "", true
	}
	t, ok := store.ParseEntityType(raw)
	if !ok {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_entity_type",
			fmt.Sprintf("Unknown entity type %q", raw)); err != nil {
			s.logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return t, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			s.logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}
