package validate

import (
	"context"

	"archivum/internal/store"
)

// Source is the read side of store.Store that validation needs.
type Source interface {
	GetProject(ctx context.Context, id string) (*store.Project, error)
	ListEntities(ctx context.Context, projectID string, entityType store.EntityType) ([]store.Entity, error)
	ListRelationships(ctx context.Context, projectID string) ([]store.Relationship, error)
	ListOrphanedEntities(ctx context.Context, projectID string) ([]store.EntitySummary, error)
	ListCrossProjectRelationships(ctx context.Context, projectID string) ([]store.Relationship, error)
}
