package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"archivum/internal/graph"
	"archivum/internal/store"
)

func graphCmd() *cobra.Command {
	var entityType string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "graph <project-id>",
		Short: "Print a project's entity graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := parseTypeFlag(entityType)
			if err != nil {
				return err
			}

			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			g, err := graph.NewAssembler(db, a.logger).Assemble(ctx, args[0])
			if err != nil {
				return err
			}
			if t != "" {
				g = g.OfType(t)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), g)
			}
			printGraph(cmd.OutOrStdout(), g)
			return nil
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "Only include entities of this type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the graph as JSON")
	return cmd
}

func printGraph(out io.Writer, g *graph.Graph) {
	fmt.Fprintf(out, "%s, %s\n", countOf(g.Stats.TotalEntities, "entity"), countOf(g.Stats.TotalRelationships, "relationship"))
	for _, t := range store.EntityTypes {
		if n := g.Stats.ByType[t]; n > 0 {
			fmt.Fprintf(out, "  %-8s %d\n", t, n)
		}
	}

	names := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		names[n.ID] = n.Name
	}
	if len(g.Edges) > 0 {
		fmt.Fprintln(out, "Relationships:")
	}
	for _, e := range g.Edges {
		fmt.Fprintf(out, "  %s -[%s]-> %s\n", names[e.Source], e.RelationType, names[e.Target])
	}
}

func parseTypeFlag(raw string) (store.EntityType, error) {
	if raw == "" {
		return "", nil
	}
	t, ok := store.ParseEntityType(raw)
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", raw)
	}
	return t, nil
}

func writeJSON(out io.Writer, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(out, string(payload))
	return nil
}
