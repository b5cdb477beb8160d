package validate

import (
	"context"
	"errors"
	"math"
	"testing"

	"archivum/internal/apperrors"
	"archivum/internal/config"
	"archivum/internal/store"
)

type mockStore struct {
	missing       bool
	entities      []store.Entity
	relationships []store.Relationship
	orphans       []store.EntitySummary
	cross         []store.Relationship
}

func (m *mockStore) GetProject(ctx context.Context, id string) (*store.Project, error) {
	if m.missing {
		return nil, apperrors.ErrNotFound
	}
	return &store.Project{ID: id}, nil
}

func (m *mockStore) ListEntities(ctx context.Context, projectID string, entityType store.EntityType) ([]store.Entity, error) {
	return m.entities, nil
}

func (m *mockStore) ListRelationships(ctx context.Context, projectID string) ([]store.Relationship, error) {
	return m.relationships, nil
}

func (m *mockStore) ListOrphanedEntities(ctx context.Context, projectID string) ([]store.EntitySummary, error) {
	return m.orphans, nil
}

func (m *mockStore) ListCrossProjectRelationships(ctx context.Context, projectID string) ([]store.Relationship, error) {
	return m.cross, nil
}

func entity(id, name string, typ store.EntityType, aliases ...string) store.Entity {
	return store.Entity{ID: id, Name: name, NormalizedName: store.NormalizeName(name), Type: typ, Aliases: aliases}
}

func TestRun_CleanProject(t *testing.T) {
	src := &mockStore{
		entities: []store.Entity{
			entity("a", "Marcel Ramet", store.EntityPerson, "M. Ramet"),
			entity("b", "Paris", store.EntityPlace),
		},
		relationships: []store.Relationship{
			{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "located_in", Weight: 1},
		},
	}

	report, err := Run(context.Background(), "p", src, config.DefaultVocabulary())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if report.Summary() != "0 errors, 0 warnings, 0 notes" {
		t.Fatalf("unexpected summary %q", report.Summary())
	}
}

func TestRun_Issues(t *testing.T) {
	tests := []struct {
		name     string
		src      *mockStore
		code     string
		severity Severity
	}{
		{
			name:     "cross project",
			src:      &mockStore{cross: []store.Relationship{{ID: "r1"}}},
			code:     codeCrossProject,
			severity: SeverityError,
		},
		{
			name:     "orphan",
			src:      &mockStore{orphans: []store.EntitySummary{{ID: "a", Name: "Lonely"}}},
			code:     codeOrphanedEntity,
			severity: SeverityWarn,
		},
		{
			name:     "unknown type",
			src:      &mockStore{entities: []store.Entity{entity("a", "Thing", "organization")}},
			code:     codeUnknownEntityType,
			severity: SeverityError,
		},
		{
			name: "weight out of range",
			src: &mockStore{relationships: []store.Relationship{
				{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "related_to", Weight: 1.5},
			}},
			code:     codeWeightOutOfRange,
			severity: SeverityWarn,
		},
		{
			name: "nan weight",
			src: &mockStore{relationships: []store.Relationship{
				{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "related_to", Weight: math.NaN()},
			}},
			code:     codeWeightOutOfRange,
			severity: SeverityWarn,
		},
		{
			name: "self relationship",
			src: &mockStore{relationships: []store.Relationship{
				{ID: "r1", SourceID: "a", TargetID: "a", RelationType: "related_to", Weight: 1},
			}},
			code:     codeSelfRelationship,
			severity: SeverityError,
		},
		{
			name: "alias names another entity",
			src: &mockStore{entities: []store.Entity{
				entity("a", "Marcel Ramet", store.EntityPerson, "Marcel"),
				entity("b", "marcel", store.EntityPerson),
			}},
			code:     codeProbableDuplicate,
			severity: SeverityWarn,
		},
		{
			name: "symmetric stored twice",
			src: &mockStore{relationships: []store.Relationship{
				{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "related_to", Weight: 1},
				{ID: "r2", SourceID: "b", TargetID: "a", RelationType: "related_to", Weight: 1},
			}},
			code:     codeSymmetricDuplicate,
			severity: SeverityWarn,
		},
		{
			name: "relation type outside vocabulary",
			src: &mockStore{relationships: []store.Relationship{
				{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "married_to", Weight: 1},
			}},
			code:     codeUnrecommendedRelType,
			severity: SeverityInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Run(context.Background(), "p", tt.src, config.DefaultVocabulary())
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			issue, ok := findIssue(report.Issues, tt.code)
			if !ok {
				t.Fatalf("expected %s issue, got %+v", tt.code, report.Issues)
			}
			if issue.Severity != tt.severity {
				t.Fatalf("expected severity %s, got %s", tt.severity, issue.Severity)
			}
		})
	}
}

func TestRun_WithoutVocabulary(t *testing.T) {
	src := &mockStore{relationships: []store.Relationship{
		{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "married_to", Weight: 1},
	}}
	report, err := Run(context.Background(), "p", src, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := findIssue(report.Issues, codeUnrecommendedRelType); ok {
		t.Fatalf("vocabulary check should be skipped")
	}
}

func TestRun_MissingProject(t *testing.T) {
	_, err := Run(context.Background(), "p", &mockStore{missing: true}, nil)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReportSummary(t *testing.T) {
	report := &Report{Issues: []Issue{
		{Severity: SeverityError},
		{Severity: SeverityWarn},
		{Severity: SeverityWarn},
		{Severity: SeverityInfo},
	}}
	if got := report.Summary(); got != "1 error, 2 warnings, 1 note" {
		t.Fatalf("unexpected summary %q", got)
	}
	if !report.HasErrors() {
		t.Fatalf("expected errors")
	}
}

func findIssue(issues []Issue, code string) (Issue, bool) {
	for _, issue := range issues {
		if issue.Code == code {
			return issue, true
		}
	}
	return Issue{}, false
}
