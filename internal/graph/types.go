package graph

import "archivum/internal/store"

// Node is an entity as shown in the graph view.
type Node struct {
	ID          string           `json:"id"`
	Type        store.EntityType `json:"type"`
	Name        string           `json:"name"`
	Aliases     []string         `json:"aliases"`
	Description string           `json:"description,omitempty"`
	Properties  map[string]any   `json:"properties"`
}

type Edge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	RelationType string         `json:"relationType"`
	Weight       float64        `json:"weight"`
	Properties   map[string]any `json:"properties"`
}

type Stats struct {
	TotalEntities int `json:"totalEntities"`
	// ByType always carries every entity type, zero or not.
	ByType             map[store.EntityType]int `json:"byType"`
	TotalRelationships int                      `json:"totalRelationships"`
}

type Graph struct {
	ProjectID string `json:"projectId"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	Stats     Stats  `json:"stats"`
}

// Neighbor is the far end of an edge touching the selected node.
type Neighbor struct {
	EdgeID       string           `json:"edgeId"`
	NodeID       string           `json:"nodeId"`
	Name         string           `json:"name"`
	Type         store.EntityType `json:"type"`
	RelationType string           `json:"relationType"`
	Weight       float64          `json:"weight"`
}

// Detail is what the selection panel shows for one node.
type Detail struct {
	Node     Node       `json:"node"`
	Outgoing []Neighbor `json:"outgoing"`
	Incoming []Neighbor `json:"incoming"`
}
