package ingest

import (
	"archivum/internal/extract"
	"archivum/internal/store"
)

// Reasons a relationship candidate is not persisted.
const (
	DropUnresolvedEndpoint = "unresolved_endpoint"
	DropSelfRelationship   = "self_relationship"
	DropCrossProject       = "cross_project"
)

// EntityRef is the stored entity a candidate landed on.
type EntityRef struct {
	ID      string           `json:"id"`
	Type    store.EntityType `json:"type"`
	Name    string           `json:"name"`
	Created bool             `json:"created"`
}

type RelationshipRef struct {
	ID           string  `json:"id"`
	SourceID     string  `json:"sourceId"`
	TargetID     string  `json:"targetId"`
	RelationType string  `json:"relationType"`
	Weight       float64 `json:"weight"`
}

type DroppedRelationship struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	RelationType string `json:"relationType"`
	Reason       string `json:"reason"`
}

type Stats struct {
	EntitiesCreated      int `json:"entitiesCreated"`
	EntitiesMerged       int `json:"entitiesMerged"`
	RelationshipsCreated int `json:"relationshipsCreated"`
	RelationshipsDropped int `json:"relationshipsDropped"`
}

func (s *Stats) add(other Stats) {
	s.EntitiesCreated += other.EntitiesCreated
	s.EntitiesMerged += other.EntitiesMerged
	s.RelationshipsCreated += other.RelationshipsCreated
	s.RelationshipsDropped += other.RelationshipsDropped
}

type Result struct {
	Entities      []EntityRef           `json:"entities"`
	Relationships []RelationshipRef     `json:"relationships"`
	Dropped       []DroppedRelationship `json:"dropped"`
	Candidates    *extract.Result       `json:"candidates"`
	Metadata      extract.Metadata      `json:"metadata"`
	Stats         Stats                 `json:"stats"`
}
