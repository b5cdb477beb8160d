// Package ingest persists extraction candidates into the entity store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"archivum/internal/apperrors"
	"archivum/internal/extract"
	"archivum/internal/lock"
	"archivum/internal/store"
)

// Extractor is satisfied by *extract.Client.
type Extractor interface {
	Extract(ctx context.Context, text string) (*extract.Result, error)
	IsAvailable() bool
}

type Orchestrator struct {
	store     store.Store
	extractor Extractor
	locker    lock.Locker
	logger    *zap.Logger
}

func New(db store.Store, extractor Extractor, locker lock.Locker, logger *zap.Logger) *Orchestrator {
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	return &Orchestrator{
		store:     db,
		extractor: extractor,
		locker:    locker,
		logger:    logger.Named("ingest"),
	}
}

// Available reports whether extraction can run at all.
func (o *Orchestrator) Available() bool {
	return o.extractor != nil && o.extractor.IsAvailable()
}

// Extract runs the model over text and stores what it found in projectID.
// The model call happens before the project lock is taken; every write of
// the run shares one transaction, so a failure leaves the project untouched.
func (o *Orchestrator) Extract(ctx context.Context, projectID, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty: %w", apperrors.ErrInvalidInput)
	}
	if !o.Available() {
		return nil, apperrors.ErrNotConfigured
	}
	if _, err := o.store.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %q: %w", projectID, err)
	}

	candidates, err := o.extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	unlock, err := o.locker.Lock(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("locking project %q: %w", projectID, err)
	}
	defer unlock()

	var result *Result
	err = o.store.WithTx(ctx, func(w store.Writer) error {
		var err error
		result, err = o.persist(ctx, w, projectID, candidates)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("storing extraction: %w", err)
	}

	o.logger.Info("Extraction stored",
		zap.String("project_id", projectID),
		zap.Int("entities_created", result.Stats.EntitiesCreated),
		zap.Int("entities_merged", result.Stats.EntitiesMerged),
		zap.Int("relationships_created", result.Stats.RelationshipsCreated),
		zap.Int("relationships_dropped", result.Stats.RelationshipsDropped))

	return result, nil
}

func (o *Orchestrator) persist(ctx context.Context, w store.Writer, projectID string, candidates *extract.Result) (*Result, error) {
	result := &Result{
		Entities:      []EntityRef{},
		Relationships: []RelationshipRef{},
		Dropped:       []DroppedRelationship{},
		Candidates:    candidates,
		Metadata:      candidates.Metadata,
	}

	ids := nameIndex{}
	for _, candidate := range candidates.Entities {
		res, err := w.UpsertEntity(ctx, store.EntityInput{
			ProjectID:   projectID,
			Type:        candidate.Type,
			Name:        candidate.Name,
			Aliases:     candidate.Aliases,
			Description: candidate.Description,
			Properties:  candidate.Properties,
		})
		if err != nil {
			return nil, fmt.Errorf("upserting entity %q: %w", candidate.Name, err)
		}

		ids.add(candidate, res.ID)
		if res.Created {
			result.Stats.EntitiesCreated++
		} else {
			result.Stats.EntitiesMerged++
		}
		result.Entities = append(result.Entities, EntityRef{
			ID:      res.ID,
			Type:    candidate.Type,
			Name:    candidate.Name,
			Created: res.Created,
		})
	}

	for _, candidate := range candidates.Relationships {
		drop := func(reason string) {
			result.Stats.RelationshipsDropped++
			result.Dropped = append(result.Dropped, DroppedRelationship{
				Source:       candidate.Source,
				Target:       candidate.Target,
				RelationType: candidate.RelationType,
				Reason:       reason,
			})
			o.logger.Debug("Dropping relationship",
				zap.String("source", candidate.Source),
				zap.String("target", candidate.Target),
				zap.String("relation_type", candidate.RelationType),
				zap.String("reason", reason))
		}

		sourceID, okSource := ids.resolve(candidate.Source)
		targetID, okTarget := ids.resolve(candidate.Target)
		if !okSource || !okTarget {
			drop(DropUnresolvedEndpoint)
			continue
		}
		if sourceID == targetID {
			drop(DropSelfRelationship)
			continue
		}

		relType := store.NormalizeRelationType(candidate.RelationType)
		weight := store.ClampWeight(candidate.Weight)
		id, err := w.InsertRelationship(ctx, store.RelationshipInput{
			ProjectID:    projectID,
			SourceID:     sourceID,
			TargetID:     targetID,
			RelationType: relType,
			Weight:       weight,
			Properties:   candidate.Properties,
		})
		switch {
		case errors.Is(err, store.ErrSelfRelationship):
			drop(DropSelfRelationship)
			continue
		case errors.Is(err, store.ErrCrossProject):
			drop(DropCrossProject)
			continue
		case err != nil:
			return nil, fmt.Errorf("inserting relationship %q -> %q: %w", candidate.Source, candidate.Target, err)
		}

		result.Stats.RelationshipsCreated++
		result.Relationships = append(result.Relationships, RelationshipRef{
			ID:           id,
			SourceID:     sourceID,
			TargetID:     targetID,
			RelationType: relType,
			Weight:       weight,
		})
	}

	return result, nil
}

// nameIndex maps the literal names a response gave its entities to stored
// ids. A relationship endpoint written any other way does not resolve.
type nameIndex map[string]string

func (n nameIndex) add(candidate extract.EntityCandidate, id string) {
	n[strings.TrimSpace(candidate.Name)] = id
}

func (n nameIndex) resolve(name string) (string, bool) {
	id, ok := n[strings.TrimSpace(name)]
	return id, ok
}
