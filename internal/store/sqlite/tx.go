package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

// WithTx opens an IMMEDIATE transaction (see parseDSN), so the write lock is
// taken up front instead of on the first INSERT.
func (c *Client) WithTx(ctx context.Context, fn func(w store.Writer) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&writer{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type writer struct {
	q querier
}

func (w *writer) UpsertEntity(ctx context.Context, in store.EntityInput) (store.UpsertResult, error) {
	if _, err := getProject(ctx, w.q, in.ProjectID); err != nil {
		return store.UpsertResult{}, fmt.Errorf("project %q: %w", in.ProjectID, err)
	}
	if !in.Type.Valid() {
		return store.UpsertResult{}, fmt.Errorf("entity type %q: %w", in.Type, apperrors.ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	normalized := store.NormalizeName(name)
	if normalized == "" {
		return store.UpsertResult{}, fmt.Errorf("entity name is required: %w", apperrors.ErrInvalidInput)
	}

	row := w.q.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE project_id = ? AND name_normalized = ?",
		in.ProjectID, normalized,
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
	case !errors.Is(err, sql.ErrNoRows):
		return store.UpsertResult{}, fmt.Errorf("finding entity %q: %w", name, err)
	}

	props := in.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := marshalJSON(props)
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("marshaling properties: %w", err)
	}
	aliasesJSON, err := marshalJSON(store.EntityAliases(name, in.Aliases))
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("marshaling aliases: %w", err)
	}

	id := uuid.New().String()
	now := formatTime(time.Now())
	_, err = w.q.ExecContext(ctx, `
	INSERT INTO entities (id, project_id, entity_type, name, name_normalized, aliases, description, properties, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		in.ProjectID,
		string(in.Type),
		name,
		normalized,
		aliasesJSON,
		strings.TrimSpace(in.Description),
		propsJSON,
		now,
		now,
	)
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("inserting entity %q: %w", name, err)
	}
	return store.UpsertResult{ID: id, Created: true}, nil
}

func (w *writer) updateMerged(ctx context.Context, e *store.Entity) error {
	aliasesJSON, err := marshalJSON(e.Aliases)
	if err != nil {
		return fmt.Errorf("marshaling aliases: %w", err)
	}
	propsJSON, err := marshalJSON(e.Properties)
	if err != nil {
		return fmt.Errorf("marshaling properties: %w", err)
	}
	_, err = w.q.ExecContext(ctx,
		"UPDATE entities SET aliases = ?, description = ?, properties = ?, updated_at = ? WHERE id = ?",
		aliasesJSON, e.Description, propsJSON, formatTime(time.Now()), e.ID,
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

	for _, endpoint := range []string{in.SourceID, in.TargetID} {
		var owner string
		err := w.q.QueryRowContext(ctx, "SELECT project_id FROM entities WHERE id = ?", endpoint).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("relationship endpoint %s: %w", endpoint, apperrors.ErrNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("loading relationship endpoint: %w", err)
		}
		if owner != in.ProjectID {
			return "", store.ErrCrossProject
		}
	}

	props := in.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := marshalJSON(props)
	if err != nil {
		return "", fmt.Errorf("marshaling properties: %w", err)
	}

	id := uuid.New().String()
	_, err = w.q.ExecContext(ctx, `
	INSERT INTO relationships (id, project_id, source_id, target_id, relation_type, weight, properties, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		in.ProjectID,
		in.SourceID,
		in.TargetID,
		store.NormalizeRelationType(in.RelationType),
		store.ClampWeight(in.Weight),
		propsJSON,
		formatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("inserting relationship: %w", err)
	}
	return id, nil
}
