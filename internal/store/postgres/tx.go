package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

func (c *Client) WithTx(ctx context.Context, fn func(w store.Writer) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&writer{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type writer struct {
	q querier
}

func (w *writer) UpsertEntity(ctx context.Context, in store.EntityInput) (store.UpsertResult, error) {
	pid, ok := parseID(in.ProjectID)
	if !ok {
		return store.UpsertResult{}, fmt.Errorf("project %q: %w", in.ProjectID, apperrors.ErrNotFound)
	}
	if !in.Type.Valid() {
		return store.UpsertResult{}, fmt.Errorf("entity type %q: %w", in.Type, apperrors.ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	normalized := store.NormalizeName(name)
	if normalized == "" {
		return store.UpsertResult{}, fmt.Errorf("entity name is required: %w", apperrors.ErrInvalidInput)
	}

	row := w.q.QueryRow(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE project_id = $1 AND name_normalized = $2 FOR UPDATE",
		pid, normalized,
	)
	existing, err := scanEntity(row)
	switch {
	case err == nil:
		if store.MergeInto(existing, in) {
			if err := w.updateMerged(ctx, existing); err != nil {
				return store.UpsertResult{}, err
			}
		}
		return store.UpsertResult{ID: existing.ID, Created: false}, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return store.UpsertResult{}, fmt.Errorf("finding entity %q: %w", name, err)
	}

	props := in.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("marshaling properties: %w", err)
	}

	id := uuid.New()
	_, err = w.q.Exec(ctx, `
INSERT INTO entities (id, project_id, entity_type, name, name_normalized, aliases, description, properties, search_vector)
VALUES ($1, $2, $3, $4::text, $5::text, $6::text[], $7::text, $8,
    setweight(to_tsvector('simple', $4::text || ' ' || $5::text), 'A') ||
    setweight(to_tsvector('simple', array_to_string($6::text[], ' ')), 'B') ||
    setweight(to_tsvector('simple', $7::text), 'C')
)`,
		id,
		pid,
		string(in.Type),
		name,
		normalized,
		store.EntityAliases(name, in.Aliases),
		strings.TrimSpace(in.Description),
		propsJSON,
	)
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("inserting entity %q: %w", name, err)
	}
	return store.UpsertResult{ID: id.String(), Created: true}, nil
}

func (w *writer) updateMerged(ctx context.Context, e *store.Entity) error {
	propsJSON, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("marshaling properties: %w", err)
	}
	_, err = w.q.Exec(ctx, `
UPDATE entities SET
    aliases = $4::text[],
    description = $5::text,
    properties = $6,
    updated_at = now(),
    search_vector =
        setweight(to_tsvector('simple', $2::text || ' ' || $3::text), 'A') ||
        setweight(to_tsvector('simple', array_to_string($4::text[], ' ')), 'B') ||
        setweight(to_tsvector('simple', $5::text), 'C')
WHERE id = $1`,
		uuid.MustParse(e.ID),
		e.Name,
		e.NormalizedName,
		e.Aliases,
		e.Description,
		propsJSON,
	)
	if err != nil {
		return fmt.Errorf("merging entity %q: %w", e.Name, err)
	}
	return nil
}

func (w *writer) InsertRelationship(ctx context.Context, in store.RelationshipInput) (string, error) {
	if in.SourceID == in.TargetID {
		return "", store.ErrSelfRelationship
	}
	pid, ok := parseID(in.ProjectID)
	if !ok {
		return "", fmt.Errorf("project %q: %w", in.ProjectID, apperrors.ErrNotFound)
	}
	src, ok := parseID(in.SourceID)
	if !ok {
		return "", fmt.Errorf("source entity %q: %w", in.SourceID, apperrors.ErrNotFound)
	}
	dst, ok := parseID(in.TargetID)
	if !ok {
		return "", fmt.Errorf("target entity %q: %w", in.TargetID, apperrors.ErrNotFound)
	}

	rows, err := w.q.Query(ctx, "SELECT id, project_id FROM entities WHERE id = ANY($1)", []uuid.UUID{src, dst})
	if err != nil {
		return "", fmt.Errorf("loading relationship endpoints: %w", err)
	}
	owners := make(map[uuid.UUID]uuid.UUID, 2)
	for rows.Next() {
		var id, owner uuid.UUID
		if err := rows.Scan(&id, &owner); err != nil {
			rows.Close()
			return "", fmt.Errorf("scanning relationship endpoint: %w", err)
		}
		owners[id] = owner
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating relationship endpoints: %w", err)
	}

	for _, endpoint := range []uuid.UUID{src, dst} {
		owner, found := owners[endpoint]
		if !found {
			return "", fmt.Errorf("relationship endpoint %s: %w", endpoint, apperrors.ErrNotFound)
		}
		if owner != pid {
			return "", store.ErrCrossProject
		}
	}

	props := in.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("marshaling properties: %w", err)
	}

	id := uuid.New()
	_, err = w.q.Exec(ctx, `
INSERT INTO relationships (id, project_id, source_id, target_id, relation_type, weight, properties)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		pid,
		src,
		dst,
		store.NormalizeRelationType(in.RelationType),
		store.ClampWeight(in.Weight),
		propsJSON,
	)
	if err != nil {
		return "", fmt.Errorf("inserting relationship: %w", err)
	}
	return id.String(), nil
}
