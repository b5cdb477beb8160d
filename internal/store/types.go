package store

import (
	"strings"
	"time"
)

type EntityType string

const (
	EntityPerson  EntityType = "person"
	EntityPlace   EntityType = "place"
	EntityEvent   EntityType = "event"
	EntityObject  EntityType = "object"
	EntityConcept EntityType = "concept"
)

// EntityTypes lists the closed set of entity types in display order.
var EntityTypes = []EntityType{EntityPerson, EntityPlace, EntityEvent, EntityObject, EntityConcept}

func ParseEntityType(s string) (EntityType, bool) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range EntityTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

func (t EntityType) Valid() bool {
	_, ok := ParseEntityType(string(t))
	return ok
}

type Project struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

type EntityInput struct {
	ProjectID   string
	Type        EntityType
	Name        string
	Aliases     []string
	Description string
	Properties  map[string]any
}

type Entity struct {
	ID             string
	ProjectID      string
	Type           EntityType
	Name           string
	NormalizedName string
	Aliases        []string
	Description    string
	Properties     map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UpsertResult reports which row an EntityInput landed on.
type UpsertResult struct {
	ID      string
	Created bool
}

type RelationshipInput struct {
	ProjectID    string
	SourceID     string
	TargetID     string
	RelationType string
	Weight       float64
	Properties   map[string]any
}

type Relationship struct {
	ID           string
	ProjectID    string
	SourceID     string
	TargetID     string
	RelationType string
	Weight       float64
	Properties   map[string]any
	CreatedAt    time.Time
}

type EntitySummary struct {
	ID        string
	ProjectID string
	Type      EntityType
	Name      string
}

type SearchResult struct {
	ID      string
	Type    EntityType
	Name    string
	Aliases []string
	Score   float64
	Snippet string
}
