package extract

import (
	"time"

	"archivum/internal/store"
)

// EntityCandidate is an entity the model proposed. It has no identity yet.
type EntityCandidate struct {
	Type        store.EntityType `json:"type"`
	Name        string           `json:"name"`
	Aliases     []string         `json:"aliases"`
	Description string           `json:"description,omitempty"`
	Properties  map[string]any   `json:"properties,omitempty"`
}

// RelationshipCandidate refers to its endpoints by name, as written in the
// entity candidates of the same response.
type RelationshipCandidate struct {
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	RelationType string         `json:"relationType"`
	Weight       float64        `json:"weight"`
	Properties   map[string]any `json:"properties,omitempty"`
}

type Metadata struct {
	Model            string    `json:"model"`
	PromptVersion    string    `json:"promptVersion"`
	PromptTokens     int       `json:"promptTokens"`
	CompletionTokens int       `json:"completionTokens"`
	TotalTokens      int       `json:"totalTokens"`
	ExtractedAt      time.Time `json:"extractedAt"`
	// Malformed is set when the model reply held no usable JSON and the
	// result was degraded to empty.
	Malformed bool `json:"malformed,omitempty"`
}

type Result struct {
	Entities      []EntityCandidate       `json:"entities"`
	Relationships []RelationshipCandidate `json:"relationships"`
	Metadata      Metadata                `json:"metadata"`
}
