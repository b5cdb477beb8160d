package store

import (
	"context"
	"errors"
)

var (
	ErrSelfRelationship = errors.New("relationship endpoints must differ")
	ErrCrossProject     = errors.New("relationship endpoints belong to different projects")
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	CreateProject(ctx context.Context, name, description string) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	GetEntity(ctx context.Context, projectID, id string) (*Entity, error)
	ListEntities(ctx context.Context, projectID string, entityType EntityType) ([]Entity, error)
	ListRelationships(ctx context.Context, projectID string) ([]Relationship, error)
	Search(ctx context.Context, projectID, query string, entityType EntityType) ([]SearchResult, error)

	ListOrphanedEntities(ctx context.Context, projectID string) ([]EntitySummary, error)
	ListCrossProjectRelationships(ctx context.Context, projectID string) ([]Relationship, error)

	// WithTx runs fn inside a single transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(w Writer) error) error
}

type Writer interface {
	UpsertEntity(ctx context.Context, in EntityInput) (UpsertResult, error)
	InsertRelationship(ctx context.Context, in RelationshipInput) (string, error)
}
