package sqlite

import (
	"context"
	"fmt"

	"archivum/internal/store"
)

func (c *Client) ListOrphanedEntities(ctx context.Context, projectID string) ([]store.EntitySummary, error) {
	query := `
	SELECT e.id, e.project_id, e.entity_type, e.name FROM entities e
	WHERE e.project_id = ?
	  AND NOT EXISTS (SELECT 1 FROM relationships r WHERE r.source_id = e.id OR r.target_id = e.id)
	ORDER BY e.name
	`

	rows, err := c.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing orphaned entities: %w", err)
	}
	defer rows.Close()

	summaries := []store.EntitySummary{}
	for rows.Next() {
		var s store.EntitySummary
		var entityType string
		if err := rows.Scan(&s.ID, &s.ProjectID, &entityType, &s.Name); err != nil {
			return nil, fmt.Errorf("scanning orphaned entity: %w", err)
		}
		s.Type = store.EntityType(entityType)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orphaned entities: %w", err)
	}
	return summaries, nil
}
