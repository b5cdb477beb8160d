// Package graph assembles a project's stored entities and relationships
// into the node and edge lists the visualization consumes.
package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

// Source is the read side of store.Store the assembler needs.
type Source interface {
	GetProject(ctx context.Context, id string) (*store.Project, error)
	ListEntities(ctx context.Context, projectID string, entityType store.EntityType) ([]store.Entity, error)
	ListRelationships(ctx context.Context, projectID string) ([]store.Relationship, error)
}

type Assembler struct {
	src    Source
	logger *zap.Logger
}

func NewAssembler(src Source, logger *zap.Logger) *Assembler {
	return &Assembler{src: src, logger: logger.Named("graph")}
}

// Assemble builds the graph of projectID. It never writes. Edges are kept
// only when both endpoints are nodes of this graph, whatever the store
// returned.
func (a *Assembler) Assemble(ctx context.Context, projectID string) (*Graph, error) {
	if _, err := a.src.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %q: %w", projectID, err)
	}

	entities, err := a.src.ListEntities(ctx, projectID, "")
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	relationships, err := a.src.ListRelationships(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}

	g := Build(projectID, entities, relationships)
	if skipped := len(relationships) - len(g.Edges); skipped > 0 {
		a.logger.Warn("Skipped relationships with endpoints outside the project",
			zap.String("project_id", projectID),
			zap.Int("skipped", skipped))
	}
	return g, nil
}

// Build shapes already loaded rows into a Graph.
func Build(projectID string, entities []store.Entity, relationships []store.Relationship) *Graph {
	g := &Graph{
		ProjectID: projectID,
		Nodes:     make([]Node, 0, len(entities)),
		Edges:     make([]Edge, 0, len(relationships)),
		Stats:     Stats{ByType: make(map[store.EntityType]int, len(store.EntityTypes))},
	}
	for _, t := range store.EntityTypes {
		g.Stats.ByType[t] = 0
	}

	ids := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		ids[e.ID] = struct{}{}
		g.Nodes = append(g.Nodes, Node{
			ID:          e.ID,
			Type:        e.Type,
			Name:        e.Name,
			Aliases:     nonNilStrings(e.Aliases),
			Description: e.Description,
			Properties:  nonNilMap(e.Properties),
		})
		g.Stats.ByType[e.Type]++
	}

	for _, r := range relationships {
		if _, ok := ids[r.SourceID]; !ok {
			continue
		}
		if _, ok := ids[r.TargetID]; !ok {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			ID:           r.ID,
			Source:       r.SourceID,
			Target:       r.TargetID,
			RelationType: r.RelationType,
			Weight:       r.Weight,
			Properties:   nonNilMap(r.Properties),
		})
	}

	g.Stats.TotalEntities = len(g.Nodes)
	g.Stats.TotalRelationships = len(g.Edges)
	return g
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Detail collects the edges touching a node with their neighbors' names.
func (g *Graph) Detail(id string) (*Detail, error) {
	node, ok := g.Node(id)
	if !ok {
		return nil, fmt.Errorf("entity %q: %w", id, apperrors.ErrNotFound)
	}

	byID := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	detail := &Detail{Node: node, Outgoing: []Neighbor{}, Incoming: []Neighbor{}}
	for _, e := range g.Edges {
		switch id {
		case e.Source:
			other := byID[e.Target]
			detail.Outgoing = append(detail.Outgoing, Neighbor{
				EdgeID: e.ID, NodeID: other.ID, Name: other.Name, Type: other.Type,
				RelationType: e.RelationType, Weight: e.Weight,
			})
		case e.Target:
			other := byID[e.Source]
			detail.Incoming = append(detail.Incoming, Neighbor{
				EdgeID: e.ID, NodeID: other.ID, Name: other.Name, Type: other.Type,
				RelationType: e.RelationType, Weight: e.Weight,
			})
		}
	}
	return detail, nil
}

// OfType returns the subgraph of nodes with type t and the edges between
// them, with stats recomputed.
func (g *Graph) OfType(t store.EntityType) *Graph {
	out := &Graph{
		ProjectID: g.ProjectID,
		Nodes:     []Node{},
		Edges:     []Edge{},
		Stats:     Stats{ByType: make(map[store.EntityType]int, len(store.EntityTypes))},
	}
	for _, known := range store.EntityTypes {
		out.Stats.ByType[known] = 0
	}

	keep := make(map[string]struct{})
	for _, n := range g.Nodes {
		if n.Type == t {
			keep[n.ID] = struct{}{}
			out.Nodes = append(out.Nodes, n)
			out.Stats.ByType[t]++
		}
	}
	for _, e := range g.Edges {
		_, okSource := keep[e.Source]
		_, okTarget := keep[e.Target]
		if okSource && okTarget {
			out.Edges = append(out.Edges, e)
		}
	}

	out.Stats.TotalEntities = len(out.Nodes)
	out.Stats.TotalRelationships = len(out.Edges)
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
