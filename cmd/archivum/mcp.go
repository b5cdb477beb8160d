package main

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"archivum/internal/graph"
	"archivum/internal/mcp"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	vocab, err := a.vocabulary()
	if err != nil {
		return err
	}

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

	server := mcp.NewServer(db, graph.NewAssembler(db, a.logger), orch, vocab, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
