package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"archivum/internal/graph"
	"archivum/internal/graph/mirror"
	"archivum/internal/store"
)

func syncCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sync [project-id]",
		Short: "Mirror project graphs into Neo4j",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("pass either a project id or --all")
			}
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

			m, err := a.openMirror(ctx)
			if err != nil {
				return err
			}
			defer m.Close(ctx)

			if err := m.EnsureIndexes(ctx); err != nil {
				return err
			}

			projectIDs := args
			if all {
				if projectIDs, err = listProjectIDs(ctx, db); err != nil {
					return err
				}
			}

			for _, id := range projectIDs {
				result, err := syncProject(ctx, db, m, id, a.logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s and %s upserted, %s and %s removed\n", id,
					countOf(result.NodesUpserted, "node"), countOf(result.EdgesUpserted, "edge"),
					countOf(int(result.NodesRemoved), "node"), countOf(int(result.EdgesRemoved), "edge"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Sync every project")
	return cmd
}

func syncProject(ctx context.Context, db store.Store, m *mirror.Mirror, projectID string, logger *zap.Logger) (*mirror.SyncResult, error) {
	g, err := graph.NewAssembler(db, logger).Assemble(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return m.Sync(ctx, projectID, g)
}

func listProjectIDs(ctx context.Context, db store.Store) ([]string, error) {
	projects, err := db.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
