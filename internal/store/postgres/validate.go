package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"archivum/internal/store"
)

func (c *Client) ListOrphanedEntities(ctx context.Context, projectID string) ([]store.EntitySummary, error) {
	pid, ok := parseID(projectID)
	if !ok {
		return []store.EntitySummary{}, nil
	}

	rows, err := c.pool.Query(ctx, `
SELECT e.id, e.project_id, e.entity_type, e.name FROM entities e
WHERE e.project_id = $1
  AND NOT EXISTS (SELECT 1 FROM relationships r WHERE r.source_id = e.id OR r.target_id = e.id)
ORDER BY e.name
`, pid)
	if err != nil {
		return nil, fmt.Errorf("listing orphaned entities: %w", err)
	}
	defer rows.Close()

	summaries := []store.EntitySummary{}
	for rows.Next() {
		var s store.EntitySummary
		var id, owner uuid.UUID
		var entityType string
		if err := rows.Scan(&id, &owner, &entityType, &s.Name); err != nil {
			return nil, fmt.Errorf("scanning orphaned entity: %w", err)
		}
		s.ID = id.String()
		s.ProjectID = owner.String()
		s.Type = store.EntityType(entityType)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orphaned entities: %w", err)
	}
	return summaries, nil
}
