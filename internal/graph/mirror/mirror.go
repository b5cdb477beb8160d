// Package mirror projects an assembled graph into Neo4j so it can be
// explored with Cypher. The relational store stays the source of truth.
package mirror

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"archivum/internal/graph"
	"archivum/internal/store"
)

var labelPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

const fallbackRelationLabel = "RELATED_TO"

var nodeLabels = map[store.EntityType]string{
	store.EntityPerson:  "Person",
	store.EntityPlace:   "Place",
	store.EntityEvent:   "Event",
	store.EntityObject:  "Object",
	store.EntityConcept: "Concept",
}

type Mirror struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

type SyncResult struct {
	NodesUpserted int   `json:"nodesUpserted"`
	EdgesUpserted int   `json:"edgesUpserted"`
	NodesRemoved  int64 `json:"nodesRemoved"`
	EdgesRemoved  int64 `json:"edgesRemoved"`
}

func New(ctx context.Context, uri, username, password, database string, logger *zap.Logger) (*Mirror, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Mirror{driver: driver, database: database, logger: logger.Named("mirror")}, nil
}

func (m *Mirror) Close(ctx context.Context) error {
	if m == nil || m.driver == nil {
		return nil
	}
	return m.driver.Close(ctx)
}

func (m *Mirror) EnsureIndexes(ctx context.Context) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.database})
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT entity_unique_id IF NOT EXISTS
FOR (e:Entity) REQUIRE e.id IS UNIQUE`,
		`CREATE INDEX entity_project IF NOT EXISTS FOR (e:Entity) ON (e.project_id)`,
		`CREATE FULLTEXT INDEX entity_fulltext IF NOT EXISTS
FOR (e:Entity) ON EACH [e.name, e.aliases_text, e.description]`,
	}

	for _, stmt := range statements {
		if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return fmt.Errorf("ensuring indexes: %w", err)
		}
	}

	return nil
}

// RelationLabel turns a stored relation type into a Cypher relationship
// type. Types that cannot be a label (non-ASCII letters, leading digit)
// become RELATED_TO; the original is kept in the relation_type property.
func RelationLabel(relationType string) string {
	label := strings.ToUpper(store.NormalizeRelationType(relationType))
	if !labelPattern.MatchString(label) {
		return fallbackRelationLabel
	}
	return label
}

// Sync makes the project's part of the Neo4j graph equal to g in a single
// write transaction: nodes and edges are merged by id, and nodes or edges
// of the project that g no longer has are removed.
func (m *Mirror) Sync(ctx context.Context, projectID string, g *graph.Graph) (*SyncResult, error) {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res := &SyncResult{}

		nodeIDs := make([]string, 0, len(g.Nodes))
		for label, rows := range nodeRows(g) {
			query := fmt.Sprintf(`
UNWIND $rows AS row
MERGE (n:Entity {id: row.id})
SET n.project_id = $project_id,
    n.name = row.name,
    n.entity_type = row.entity_type,
    n.aliases = row.aliases,
    n.aliases_text = row.aliases_text,
    n.description = row.description,
    n.last_synced = datetime(),
    n:%s
`, label)
			if _, err := tx.Run(ctx, query, map[string]any{"rows": rows, "project_id": projectID}); err != nil {
				return nil, fmt.Errorf("merging %s nodes: %w", label, err)
			}
			for _, row := range rows {
				nodeIDs = append(nodeIDs, row["id"].(string))
			}
			res.NodesUpserted += len(rows)
		}

		edgeIDs := make([]string, 0, len(g.Edges))
		for label, rows := range edgeRows(g) {
			query := fmt.Sprintf(`
UNWIND $rows AS row
MATCH (a:Entity {id: row.source}), (b:Entity {id: row.target})
MERGE (a)-[r:%s {id: row.id}]->(b)
SET r.project_id = $project_id,
    r.relation_type = row.relation_type,
    r.weight = row.weight
`, label)
			if _, err := tx.Run(ctx, query, map[string]any{"rows": rows, "project_id": projectID}); err != nil {
				return nil, fmt.Errorf("merging %s edges: %w", label, err)
			}
			for _, row := range rows {
				edgeIDs = append(edgeIDs, row["id"].(string))
			}
			res.EdgesUpserted += len(rows)
		}

		var err error
		res.EdgesRemoved, err = runCount(ctx, tx, `
MATCH (:Entity {project_id: $project_id})-[r]->()
WHERE NOT r.id IN $ids
DELETE r
RETURN count(r) AS deleted
`, map[string]any{"project_id": projectID, "ids": edgeIDs})
		if err != nil {
			return nil, fmt.Errorf("removing stale edges: %w", err)
		}

		res.NodesRemoved, err = runCount(ctx, tx, `
MATCH (n:Entity {project_id: $project_id})
WHERE NOT n.id IN $ids
DETACH DELETE n
RETURN count(n) AS deleted
`, map[string]any{"project_id": projectID, "ids": nodeIDs})
		if err != nil {
			return nil, fmt.Errorf("removing stale nodes: %w", err)
		}

		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("syncing project %q: %w", projectID, err)
	}

	res := result.(*SyncResult)
	m.logger.Info("Graph mirrored",
		zap.String("project_id", projectID),
		zap.Int("nodes", res.NodesUpserted),
		zap.Int("edges", res.EdgesUpserted),
		zap.Int64("nodes_removed", res.NodesRemoved),
		zap.Int64("edges_removed", res.EdgesRemoved))
	return res, nil
}

// RunCypher runs a read-only query and returns each record as a map.
func (m *Mirror) RunCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: m.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0)
		for res.Next(ctx) {
			record := res.Record()
			row := make(map[string]any, len(record.Keys))
			for _, key := range record.Keys {
				value, _ := record.Get(key)
				row[key] = value
			}
			rows = append(rows, row)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("run cypher: %w", err)
	}

	return result.([]map[string]any), nil
}

func runCount(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) (int64, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	if res.Next(ctx) {
		value, _ := res.Record().Get("deleted")
		if count, ok := value.(int64); ok {
			return count, nil
		}
	}
	return 0, res.Err()
}

func nodeRows(g *graph.Graph) map[string][]map[string]any {
	rows := make(map[string][]map[string]any)
	for _, n := range g.Nodes {
		label, ok := nodeLabels[n.Type]
		if !ok {
			label = nodeLabels[store.EntityConcept]
		}
		rows[label] = append(rows[label], map[string]any{
			"id":           n.ID,
			"name":         n.Name,
			"entity_type":  string(n.Type),
			"aliases":      n.Aliases,
			"aliases_text": strings.Join(n.Aliases, " "),
			"description":  n.Description,
		})
	}
	return rows
}

func edgeRows(g *graph.Graph) map[string][]map[string]any {
	rows := make(map[string][]map[string]any)
	for _, e := range g.Edges {
		label := RelationLabel(e.RelationType)
		rows[label] = append(rows[label], map[string]any{
			"id":            e.ID,
			"source":        e.Source,
			"target":        e.Target,
			"relation_type": e.RelationType,
			"weight":        e.Weight,
		})
	}
	return rows
}
