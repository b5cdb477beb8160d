package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"archivum/internal/store"
)

const relationshipColumns = `r.id, r.project_id, r.source_id, r.target_id, r.relation_type, r.weight, r.properties, r.created_at`

func (c *Client) ListRelationships(ctx context.Context, projectID string) ([]store.Relationship, error) {
	pid, ok := parseID(projectID)
	if !ok {
		return []store.Relationship{}, nil
	}
	return c.queryRelationships(ctx, `
SELECT `+relationshipColumns+`
FROM relationships r
WHERE r.project_id = $1
ORDER BY r.created_at, r.id
`, pid)
}

// ListCrossProjectRelationships returns relationships filed under projectID
// whose endpoints are owned by some other project.
func (c *Client) ListCrossProjectRelationships(ctx context.Context, projectID string) ([]store.Relationship, error) {
	pid, ok := parseID(projectID)
	if !ok {
		return []store.Relationship{}, nil
	}
	return c.queryRelationships(ctx, `
SELECT `+relationshipColumns+`
FROM relationships r
JOIN entities s ON s.id = r.source_id
JOIN entities t ON t.id = r.target_id
WHERE r.project_id = $1
  AND (s.project_id <> r.project_id OR t.project_id <> r.project_id)
ORDER BY r.created_at, r.id
`, pid)
}

func (c *Client) queryRelationships(ctx context.Context, query string, args ...any) ([]store.Relationship, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	relationships := []store.Relationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		relationships = append(relationships, *rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}
	return relationships, nil
}

func scanRelationship(row pgx.Row) (*store.Relationship, error) {
	var r store.Relationship
	var id, projectID, sourceID, targetID uuid.UUID
	var propsBytes []byte
	err := row.Scan(&id, &projectID, &sourceID, &targetID, &r.RelationType, &r.Weight, &propsBytes, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = id.String()
	r.ProjectID = projectID.String()
	r.SourceID = sourceID.String()
	r.TargetID = targetID.String()
	if len(propsBytes) > 0 {
		if err := json.Unmarshal(propsBytes, &r.Properties); err != nil {
			return nil, fmt.Errorf("unmarshaling properties: %w", err)
		}
	}
	if r.Properties == nil {
		r.Properties = map[string]any{}
	}
	return &r, nil
}
