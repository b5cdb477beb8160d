package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"archivum/internal/ingest"
)

func extractCmd() *cobra.Command {
	var text string
	var excludes []string
	cmd := &cobra.Command{
		Use:   "extract <project-id> [paths...]",
		Short: "Extract entities and relationships from documents into a project",
		Long: "Reads .txt, .md and .pdf files (directories are walked) or, with --text or\n" +
			"no paths, a single text from the flag or stdin.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], args[1:], text, excludes)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Document text to extract from")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Path prefix to skip (repeatable)")
	return cmd
}

func runExtract(cmd *cobra.Command, projectID string, paths []string, text string, excludes []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

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

	orch, release, err := a.orchestrator(ctx, db)
	if err != nil {
		return err
	}
	defer release()

	if len(paths) == 0 {
		if text == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}
		result, err := orch.Extract(ctx, projectID, text)
		if err != nil {
			return err
		}
		printStats(out, result.Stats)
		printDropped(out, result.Dropped)
		if result.Metadata.Malformed {
			fmt.Fprintln(out, "The model reply could not be parsed; nothing was stored.")
		}
		return nil
	}

	batch, err := orch.ExtractPaths(ctx, projectID, paths, ingest.BatchOptions{Exclude: excludes})
	if err != nil {
		return err
	}

	for _, file := range batch.Files {
		fmt.Fprintf(out, "%s: %s, %s\n", file.Path,
			countOf(len(file.Result.Entities), "entity"),
			countOf(len(file.Result.Relationships), "relationship"))
		printDropped(out, file.Result.Dropped)
	}
	fmt.Fprintln(out, "Extraction complete.")
	fmt.Fprintf(out, "  Files processed: %d\n", len(batch.Files))
	fmt.Fprintf(out, "  Files skipped:   %d\n", batch.FilesSkipped)
	printStats(out, batch.Stats)

	if len(batch.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(batch.Errors))
		for _, item := range batch.Errors {
			fmt.Fprintf(out, "  - %v\n", item)
		}
		return fmt.Errorf("extraction completed with %s", countOf(len(batch.Errors), "error"))
	}
	return nil
}

func printStats(out io.Writer, s ingest.Stats) {
	fmt.Fprintf(out, "  Entities created:      %d\n", s.EntitiesCreated)
	fmt.Fprintf(out, "  Entities merged:       %d\n", s.EntitiesMerged)
	fmt.Fprintf(out, "  Relationships created: %d\n", s.RelationshipsCreated)
	fmt.Fprintf(out, "  Relationships dropped: %d\n", s.RelationshipsDropped)
}

func printDropped(out io.Writer, dropped []ingest.DroppedRelationship) {
	for _, d := range dropped {
		fmt.Fprintf(out, "  dropped %s -[%s]-> %s (%s)\n", d.Source, d.RelationType, d.Target, strings.ReplaceAll(d.Reason, "_", " "))
	}
}
