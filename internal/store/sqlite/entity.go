package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

const entityColumns = `id, project_id, entity_type, name, name_normalized, aliases, description, properties, created_at, updated_at`

func (c *Client) GetEntity(ctx context.Context, projectID, id string) (*store.Entity, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE project_id = ? AND id = ?",
		projectID, id,
	)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting entity: %w", err)
	}
	return e, nil
}

func (c *Client) ListEntities(ctx context.Context, projectID string, entityType store.EntityType) ([]store.Entity, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT `+entityColumns+`
	FROM entities
	WHERE project_id = ?
	  AND (? = '' OR entity_type = ?)
	ORDER BY created_at, name
	`, projectID, string(entityType), string(entityType))
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*store.Entity, error) {
	var e store.Entity
	var entityType, aliases, props, createdAt, updatedAt string
	err := row.Scan(
		&e.ID,
		&e.ProjectID,
		&entityType,
		&e.Name,
		&e.NormalizedName,
		&aliases,
		&e.Description,
		&props,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Type = store.EntityType(entityType)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)

	if aliases != "" {
		if err := json.Unmarshal([]byte(aliases), &e.Aliases); err != nil {
			return nil, fmt.Errorf("unmarshaling aliases: %w", err)
		}
	}
	if e.Aliases == nil {
		e.Aliases = []string{}
	}
	if props != "" {
		if err := json.Unmarshal([]byte(props), &e.Properties); err != nil {
			return nil, fmt.Errorf("unmarshaling properties: %w", err)
		}
	}
	if e.Properties == nil {
		e.Properties = map[string]any{}
	}
	return &e, nil
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
