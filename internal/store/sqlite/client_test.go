package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archivum/internal/apperrors"
	"archivum/internal/store"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	dsn := "sqlite://" + filepath.Join(t.TempDir(), "archivum.db")
	client, err := New(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(ctx) })

	require.NoError(t, client.EnsureSchema(ctx))
	return client
}

func upsert(t *testing.T, client *Client, in store.EntityInput) store.UpsertResult {
	t.Helper()
	ctx := context.Background()
	var res store.UpsertResult
	require.NoError(t, client.WithTx(ctx, func(w store.Writer) error {
		var err error
		res, err = w.UpsertEntity(ctx, in)
		return err
	}))
	return res
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	client := testClient(t)
	require.NoError(t, client.EnsureSchema(context.Background()))
}

func TestProjectLifecycle_CascadesEntities(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	project, err := client.CreateProject(ctx, "  Ramet family papers ", "letters 1914-1918")
	require.NoError(t, err)
	assert.Equal(t, "Ramet family papers", project.Name)

	projects, err := client.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, project.ID, projects[0].ID)

	marcel := upsert(t, client, store.EntityInput{ProjectID: project.ID, Type: store.EntityPerson, Name: "Marcel Ramet"})

	require.NoError(t, client.DeleteProject(ctx, project.ID))

	_, err = client.GetProject(ctx, project.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = client.GetEntity(ctx, project.ID, marcel.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, client.DeleteProject(ctx, project.ID), apperrors.ErrNotFound)
}

func TestCreateProject_RequiresName(t *testing.T) {
	client := testClient(t)
	_, err := client.CreateProject(context.Background(), "   ", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpsertEntity_DedupAcrossRuns(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	project, err := client.CreateProject(ctx, "dedup", "")
	require.NoError(t, err)

	first := upsert(t, client, store.EntityInput{
		ProjectID: project.ID, Type: store.EntityPerson, Name: "Élise Lefèvre", Aliases: []string{"E. Lefèvre"},
	})
	second := upsert(t, client, store.EntityInput{
		ProjectID: project.ID, Type: store.EntityPerson, Name: "elise  lefevre", Aliases: []string{"Lise"},
		Description: "Schoolteacher",
	})

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	entity, err := client.GetEntity(ctx, project.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Élise Lefèvre", entity.Name)
	assert.Equal(t, "elise lefevre", entity.NormalizedName)
	assert.Equal(t, []string{"E. Lefèvre", "Lise"}, entity.Aliases)
	assert.Equal(t, "Schoolteacher", entity.Description)

	results, err := client.Search(ctx, project.ID, "elise", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, first.ID, results[0].ID)

	results, err = client.Search(ctx, project.ID, "lise", store.EntityPerson)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = client.Search(ctx, project.ID, "lise", store.EntityPlace)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertEntity_SameNameInOtherProject(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	p1, err := client.CreateProject(ctx, "one", "")
	require.NoError(t, err)
	p2, err := client.CreateProject(ctx, "two", "")
	require.NoError(t, err)

	a := upsert(t, client, store.EntityInput{ProjectID: p1.ID, Type: store.EntityPlace, Name: "Lyon"})
	b := upsert(t, client, store.EntityInput{ProjectID: p2.ID, Type: store.EntityPlace, Name: "Lyon"})
	assert.True(t, b.Created)
	assert.NotEqual(t, a.ID, b.ID)

	results, err := client.Search(ctx, p1.ID, "lyon", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, a.ID, results[0].ID)
}

func TestUpsertEntity_Rejects(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	project, err := client.CreateProject(ctx, "rejects", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   store.EntityInput
		want error
	}{
		{"unknown project", store.EntityInput{ProjectID: "missing", Type: store.EntityPerson, Name: "X"}, apperrors.ErrNotFound},
		{"unknown type", store.EntityInput{ProjectID: project.ID, Type: "organization", Name: "X"}, apperrors.ErrInvalidInput},
		{"blank name", store.EntityInput{ProjectID: project.ID, Type: store.EntityPerson, Name: "  "}, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.WithTx(ctx, func(w store.Writer) error {
				_, err := w.UpsertEntity(ctx, tt.in)
				return err
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInsertRelationship_ClampsWeight(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	p, err := client.CreateProject(ctx, "weights", "")
	require.NoError(t, err)
	a := upsert(t, client, store.EntityInput{ProjectID: p.ID, Type: store.EntityPerson, Name: "A"})
	b := upsert(t, client, store.EntityInput{ProjectID: p.ID, Type: store.EntityPlace, Name: "B"})

	err = client.WithTx(ctx, func(w store.Writer) error {
		for relType, weight := range map[string]float64{"located_in": 0, "related_to": -1, "created_by": 0.4} {
			if _, err := w.InsertRelationship(ctx, store.RelationshipInput{ProjectID: p.ID, SourceID: a.ID, TargetID: b.ID, RelationType: relType, Weight: weight}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	rels, err := client.ListRelationships(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rels, 3)
	weights := map[string]float64{}
	for _, rel := range rels {
		weights[rel.RelationType] = rel.Weight
	}
	assert.Equal(t, map[string]float64{"located_in": 0, "related_to": 0, "created_by": 0.4}, weights)
}

func TestInsertRelationship_Guards(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	p1, err := client.CreateProject(ctx, "one", "")
	require.NoError(t, err)
	p2, err := client.CreateProject(ctx, "two", "")
	require.NoError(t, err)

	a := upsert(t, client, store.EntityInput{ProjectID: p1.ID, Type: store.EntityPerson, Name: "A"})
	b := upsert(t, client, store.EntityInput{ProjectID: p1.ID, Type: store.EntityPlace, Name: "B"})
	c := upsert(t, client, store.EntityInput{ProjectID: p2.ID, Type: store.EntityPlace, Name: "C"})
	orphan := upsert(t, client, store.EntityInput{ProjectID: p1.ID, Type: store.EntityObject, Name: "D"})

	insert := func(in store.RelationshipInput) error {
		return client.WithTx(ctx, func(w store.Writer) error {
			_, err := w.InsertRelationship(ctx, in)
			return err
		})
	}

	assert.ErrorIs(t, insert(store.RelationshipInput{ProjectID: p1.ID, SourceID: a.ID, TargetID: a.ID, RelationType: "knows"}), store.ErrSelfRelationship)
	assert.ErrorIs(t, insert(store.RelationshipInput{ProjectID: p1.ID, SourceID: a.ID, TargetID: c.ID, RelationType: "located_in"}), store.ErrCrossProject)
	assert.ErrorIs(t, insert(store.RelationshipInput{ProjectID: p1.ID, SourceID: a.ID, TargetID: "missing"}), apperrors.ErrNotFound)
	require.NoError(t, insert(store.RelationshipInput{ProjectID: p1.ID, SourceID: a.ID, TargetID: b.ID, RelationType: "Located In", Weight: 3}))

	rels, err := client.ListRelationships(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "located_in", rels[0].RelationType)
	assert.Equal(t, 1.0, rels[0].Weight)
	assert.Equal(t, p1.ID, rels[0].ProjectID)

	others, err := client.ListRelationships(ctx, p2.ID)
	require.NoError(t, err)
	assert.Empty(t, others)

	cross, err := client.ListCrossProjectRelationships(ctx, p1.ID)
	require.NoError(t, err)
	assert.Empty(t, cross)

	orphans, err := client.ListOrphanedEntities(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, orphan.ID, orphans[0].ID)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	client := testClient(t)

	project, err := client.CreateProject(ctx, "rollback", "")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = client.WithTx(ctx, func(w store.Writer) error {
		if _, err := w.UpsertEntity(ctx, store.EntityInput{ProjectID: project.ID, Type: store.EntityObject, Name: "Ledger"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entities, err := client.ListEntities(ctx, project.ID, "")
	require.NoError(t, err)
	assert.Empty(t, entities)

	results, err := client.Search(ctx, project.ID, "ledger", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := testClient(t)
	_, err := client.Search(context.Background(), "p", "  ", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
