// Package validate reports consistency problems in a project's graph that
// the store cannot rule out on its own.
package validate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"archivum/internal/config"
	"archivum/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
	SeverityInfo  Severity = "info"
)

const (
	codeCrossProject         = "cross_project_relationship"
	codeSelfRelationship     = "self_relationship"
	codeUnknownEntityType    = "unknown_entity_type"
	codeWeightOutOfRange     = "weight_out_of_range"
	codeOrphanedEntity       = "orphaned_entity"
	codeProbableDuplicate    = "probable_duplicate"
	codeSymmetricDuplicate   = "symmetric_duplicate"
	codeUnrecommendedRelType = "unrecommended_relation_type"
)

type Issue struct {
	Severity       Severity `json:"severity"`
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	EntityID       string   `json:"entityId,omitempty"`
	Entity         string   `json:"entity,omitempty"`
	RelationshipID string   `json:"relationshipId,omitempty"`
}

type Report struct {
	ProjectID string  `json:"projectId"`
	Issues    []Issue `json:"issues"`
}

// Run checks projectID. vocab may be nil, which skips the relation type
// check.
func Run(ctx context.Context, projectID string, src Source, vocab *config.Vocabulary) (*Report, error) {
	if src == nil {
		return nil, fmt.Errorf("store is required")
	}
	if _, err := src.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %q: %w", projectID, err)
	}

	issues := make([]Issue, 0)

	entities, err := src.ListEntities(ctx, projectID, "")
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	names := make(map[string]store.Entity, len(entities))
	for _, e := range entities {
		names[e.NormalizedName] = e
		if !e.Type.Valid() {
			issues = append(issues, entityIssue(e.ID, e.Name, SeverityError, codeUnknownEntityType,
				fmt.Sprintf("unknown entity type %q", e.Type)))
		}
	}
	issues = append(issues, probableDuplicates(entities, names)...)

	relationships, err := src.ListRelationships(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	issues = append(issues, checkRelationships(relationships, vocab)...)

	cross, err := src.ListCrossProjectRelationships(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list cross-project relationships: %w", err)
	}
	for _, r := range cross {
		issues = append(issues, Issue{
			Severity:       SeverityError,
			Code:           codeCrossProject,
			Message:        "relationship endpoints belong to different projects",
			RelationshipID: r.ID,
		})
	}

	orphans, err := src.ListOrphanedEntities(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list orphaned entities: %w", err)
	}
	for _, o := range orphans {
		issues = append(issues, entityIssue(o.ID, o.Name, SeverityWarn, codeOrphanedEntity, "entity has no relationships"))
	}

	return &Report{ProjectID: projectID, Issues: issues}, nil
}

// probableDuplicates flags aliases that spell another entity's name. The
// upsert merges by canonical name only, so these pairs survive extraction.
func probableDuplicates(entities []store.Entity, names map[string]store.Entity) []Issue {
	var issues []Issue
	for _, e := range entities {
		for _, alias := range e.Aliases {
			other, ok := names[store.NormalizeName(alias)]
			if !ok || other.ID == e.ID {
				continue
			}
			issues = append(issues, entityIssue(e.ID, e.Name, SeverityWarn, codeProbableDuplicate,
				fmt.Sprintf("alias %q matches entity %q", alias, other.Name)))
		}
	}
	return issues
}

func checkRelationships(relationships []store.Relationship, vocab *config.Vocabulary) []Issue {
	var issues []Issue
	seenSymmetric := make(map[string]string)
	unrecommended := make(map[string]int)

	for _, r := range relationships {
		if r.SourceID == r.TargetID {
			issues = append(issues, relationshipIssue(r.ID, SeverityError, codeSelfRelationship, "relationship points at its own source"))
		}
		if math.IsNaN(r.Weight) || r.Weight < 0 || r.Weight > 1 {
			issues = append(issues, relationshipIssue(r.ID, SeverityWarn, codeWeightOutOfRange,
				fmt.Sprintf("weight %v is outside [0,1]", r.Weight)))
		}
		if vocab == nil {
			continue
		}
		if !vocab.IsRecommended(r.RelationType) {
			unrecommended[r.RelationType]++
		}
		if vocab.IsSymmetric(r.RelationType) {
			key := symmetricKey(r)
			if first, ok := seenSymmetric[key]; ok {
				issues = append(issues, relationshipIssue(r.ID, SeverityWarn, codeSymmetricDuplicate,
					fmt.Sprintf("%s is symmetric and already stored as %s", r.RelationType, first)))
				continue
			}
			seenSymmetric[key] = r.ID
		}
	}

	types := make([]string, 0, len(unrecommended))
	for t := range unrecommended {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		n := unrecommended[t]
		issues = append(issues, Issue{
			Severity: SeverityInfo,
			Code:     codeUnrecommendedRelType,
			Message:  fmt.Sprintf("%d %s use %q, which is not in the vocabulary", n, plural("relationship", n), t),
		})
	}
	return issues
}

func symmetricKey(r store.Relationship) string {
	a, b := r.SourceID, r.TargetID
	if a > b {
		a, b = b, a
	}
	return r.RelationType + "|" + a + "|" + b
}

func entityIssue(id, name string, severity Severity, code, message string) Issue {
	return Issue{Severity: severity, Code: code, Message: message, EntityID: id, Entity: name}
}

func relationshipIssue(id string, severity Severity, code, message string) Issue {
	return Issue{Severity: severity, Code: code, Message: message, RelationshipID: id}
}

// Count returns how many issues have the given severity.
func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Summary renders counts such as "1 error, 2 warnings, 0 notes".
func (r *Report) Summary() string {
	errs, warns, infos := r.Count(SeverityError), r.Count(SeverityWarn), r.Count(SeverityInfo)
	return strings.Join([]string{
		fmt.Sprintf("%d %s", errs, plural("error", errs)),
		fmt.Sprintf("%d %s", warns, plural("warning", warns)),
		fmt.Sprintf("%d %s", infos, plural("note", infos)),
	}, ", ")
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return inflection.Plural(word)
}
