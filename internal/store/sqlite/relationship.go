package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"archivum/internal/store"
)

const relationshipColumns = `r.id, r.project_id, r.source_id, r.target_id, r.relation_type, r.weight, r.properties, r.created_at`

func (c *Client) ListRelationships(ctx context.Context, projectID string) ([]store.Relationship, error) {
	return c.queryRelationships(ctx, `
	SELECT `+relationshipColumns+`
	FROM relationships r
	WHERE r.project_id = ?
	ORDER BY r.created_at, r.id
	`, projectID)
}

func (c *Client) ListCrossProjectRelationships(ctx context.Context, projectID string) ([]store.Relationship, error) {
	return c.queryRelationships(ctx, `
	SELECT `+relationshipColumns+`
	FROM relationships r
	JOIN entities s ON s.id = r.source_id
	JOIN entities t ON t.id = r.target_id
	WHERE r.project_id = ?
	  AND (s.project_id <> r.project_id OR t.project_id <> r.project_id)
	ORDER BY r.created_at, r.id
	`, projectID)
}

func (c *Client) queryRelationships(ctx context.Context, query string, args ...any) ([]store.Relationship, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	relationships := []store.Relationship{}
	for rows.Next() {
		var r store.Relationship
		var props, createdAt string
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.SourceID, &r.TargetID, &r.RelationType, &r.Weight, &props, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		if props != "" {
			if err := json.Unmarshal([]byte(props), &r.Properties); err != nil {
				return nil, fmt.Errorf("unmarshaling properties: %w", err)
			}
		}
		if r.Properties == nil {
			r.Properties = map[string]any{}
		}
		relationships = append(relationships, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relationships: %w", err)
	}
	return relationships, nil
}
