package mirror

import (
	"testing"

	"archivum/internal/graph"
	"archivum/internal/store"
)

func TestRelationLabel(t *testing.T) {
	tests := map[string]string{
		"married_to":   "MARRIED_TO",
		"Located In":   "LOCATED_IN",
		"":             "RELATED_TO",
		"créé_par":     "RELATED_TO",
		"1914_service": "RELATED_TO",
	}
	for input, want := range tests {
		if got := RelationLabel(input); got != want {
			t.Errorf("RelationLabel(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestRows_GroupByLabel(t *testing.T) {
	g := graph.Build("p", []store.Entity{
		{ID: "a", Type: store.EntityPerson, Name: "Marcel Ramet", Aliases: []string{"M. Ramet", "Marcel"}},
		{ID: "b", Type: store.EntityPerson, Name: "Jeanne Dubois"},
		{ID: "c", Type: store.EntityPlace, Name: "Paris"},
	}, []store.Relationship{
		{ID: "r1", SourceID: "a", TargetID: "b", RelationType: "married_to"},
		{ID: "r2", SourceID: "a", TargetID: "c", RelationType: "located_in"},
		{ID: "r3", SourceID: "b", TargetID: "c", RelationType: "located_in"},
	})

	nodes := nodeRows(g)
	if len(nodes["Person"]) != 2 || len(nodes["Place"]) != 1 {
		t.Fatalf("unexpected node grouping: %v", nodes)
	}
	if got := nodes["Person"][0]["aliases_text"]; got != "M. Ramet Marcel" {
		t.Fatalf("unexpected aliases_text %q", got)
	}

	edges := edgeRows(g)
	if len(edges["MARRIED_TO"]) != 1 || len(edges["LOCATED_IN"]) != 2 {
		t.Fatalf("unexpected edge grouping: %v", edges)
	}
}
