package extract

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"archivum/internal/llm"
	"archivum/internal/store"
)

type rawResponse struct {
	Entities      []json.RawMessage `json:"entities"`
	Relationships []json.RawMessage `json:"relationships"`
}

type rawEntity struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Aliases     []string       `json:"aliases"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
}

type rawRelationship struct {
	Source        string         `json:"source"`
	Target        string         `json:"target"`
	RelationType  string         `json:"relationType"`
	RelationSnake string         `json:"relation_type"`
	Weight        *float64       `json:"weight"`
	Properties    map[string]any `json:"properties"`
}

// parseResponse turns a model reply into candidates. It never fails: a reply
// without usable JSON yields empty lists and ok=false, and individual
// malformed items are skipped.
func parseResponse(content string, logger *zap.Logger) (entities []EntityCandidate, relationships []RelationshipCandidate, ok bool) {
	entities = []EntityCandidate{}
	relationships = []RelationshipCandidate{}

	raw, err := llm.ParseJSONResponse[rawResponse](content)
	if err != nil {
		return entities, relationships, false
	}

	for i, msg := range raw.Entities {
		var e rawEntity
		if err := json.Unmarshal(msg, &e); err != nil {
			logger.Debug("Skipping malformed entity candidate", zap.Int("index", i), zap.Error(err))
			continue
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		entityType, known := store.ParseEntityType(e.Type)
		if !known {
			logger.Debug("Coercing unknown entity type to concept",
				zap.String("name", name),
				zap.String("type", e.Type))
			entityType = store.EntityConcept
		}
		entities = append(entities, EntityCandidate{
			Type:        entityType,
			Name:        name,
			Aliases:     store.EntityAliases(name, e.Aliases),
			Description: strings.TrimSpace(e.Description),
			Properties:  e.Properties,
		})
	}

	for i, msg := range raw.Relationships {
		var r rawRelationship
		if err := json.Unmarshal(msg, &r); err != nil {
			logger.Debug("Skipping malformed relationship candidate", zap.Int("index", i), zap.Error(err))
			continue
		}
		source := strings.TrimSpace(r.Source)
		target := strings.TrimSpace(r.Target)
		if source == "" || target == "" {
			continue
		}
		relType := r.RelationType
		if strings.TrimSpace(relType) == "" {
			relType = r.RelationSnake
		}
		weight := store.DefaultWeight
		if r.Weight != nil {
			weight = store.ClampWeight(*r.Weight)
		}
		relationships = append(relationships, RelationshipCandidate{
			Source:       source,
			Target:       target,
			RelationType: store.NormalizeRelationType(relType),
			Weight:       weight,
			Properties:   r.Properties,
		})
	}

	return entities, relationships, true
}
