package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var entityType string
	cmd := &cobra.Command{
		Use:   "search <project-id> <text>",
		Short: "Full-text search over entity names, aliases and descriptions",
		Args:  cobra.MinimumNArgs(2),
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

			if _, err := db.GetProject(ctx, args[0]); err != nil {
				return err
			}
			results, err := db.Search(ctx, args[0], strings.Join(args[1:], " "), t)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches found.")
				return nil
			}

			for _, result := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s score=%.2f\n", result.Name, result.Type, result.ID, result.Score)
				if result.Snippet != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", result.Snippet)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "Entity type to filter")
	return cmd
}
