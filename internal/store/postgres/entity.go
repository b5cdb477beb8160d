package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

const entityColumns = `id, project_id, entity_type, name, name_normalized, aliases, description, properties, created_at, updated_at`

func (c *Client) GetEntity(ctx context.Context, projectID, id string) (*store.Entity, error) {
	return getEntity(ctx, c.pool, projectID, id)
}

func getEntity(ctx context.Context, q querier, projectID, id string) (*store.Entity, error) {
	pid, ok := parseID(projectID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	eid, ok := parseID(id)
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	row := q.QueryRow(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE project_id = $1 AND id = $2",
		pid, eid,
	)
	e, err := scanEntity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting entity: %w", err)
	}
	return e, nil
}

func (c *Client) ListEntities(ctx context.Context, projectID string, entityType store.EntityType) ([]store.Entity, error) {
	pid, ok := parseID(projectID)
	if !ok {
		return []store.Entity{}, nil
	}

	rows, err := c.pool.Query(ctx, `
SELECT `+entityColumns+`
FROM entities
WHERE project_id = $1
  AND ($2 = '' OR entity_type = $2)
ORDER BY created_at, name
`, pid, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	entities := []store.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

func scanEntity(row pgx.Row) (*store.Entity, error) {
	var e store.Entity
	var id, projectID uuid.UUID
	var entityType string
	var propsBytes []byte
	err := row.Scan(
		&id,
		&projectID,
		&entityType,
		&e.Name,
		&e.NormalizedName,
		&e.Aliases,
		&e.Description,
		&propsBytes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ID = id.String()
	e.ProjectID = projectID.String()
	e.Type = store.EntityType(entityType)
	if len(propsBytes) > 0 {
		if err := json.Unmarshal(propsBytes, &e.Properties); err != nil {
			return nil, fmt.Errorf("unmarshaling properties: %w", err)
		}
	}
	if e.Properties == nil {
		e.Properties = map[string]any{}
	}
	if e.Aliases == nil {
		e.Aliases = []string{}
	}
	return &e, nil
}
