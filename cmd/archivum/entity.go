package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"archivum/internal/graph"
)

func entityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entity <project-id> <entity-id>",
		Short: "Display an entity with its relationships",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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
			detail, err := g.Detail(args[1])
			if err != nil {
				return err
			}
			printDetail(cmd.OutOrStdout(), detail)
			return nil
		},
	}
}

func printDetail(out io.Writer, d *graph.Detail) {
	fmt.Fprintf(out, "Name: %s\n", d.Node.Name)
	fmt.Fprintf(out, "Type: %s\n", d.Node.Type)
	if len(d.Node.Aliases) > 0 {
		fmt.Fprintf(out, "Aliases: %s\n", strings.Join(d.Node.Aliases, ", "))
	}
	if d.Node.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", d.Node.Description)
	}

	if len(d.Node.Properties) > 0 {
		keys := make([]string, 0, len(d.Node.Properties))
		for key := range d.Node.Properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintln(out, "Properties:")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s: %v\n", key, d.Node.Properties[key])
		}
	}

	if len(d.Outgoing) > 0 {
		fmt.Fprintln(out, "Outgoing:")
		for _, n := range d.Outgoing {
			fmt.Fprintf(out, "  -[%s]-> %s (%s)\n", n.RelationType, n.Name, n.Type)
		}
	}
	if len(d.Incoming) > 0 {
		fmt.Fprintln(out, "Incoming:")
		for _, n := range d.Incoming {
			fmt.Fprintf(out, "  <-[%s]- %s (%s)\n", n.RelationType, n.Name, n.Type)
		}
	}
}
