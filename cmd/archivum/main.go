package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "archivum",
		Short:        "Knowledge graphs from heritage documents",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&rootOpts.configPath, "config", "archivum.yaml", "Path to the config file")
	root.PersistentFlags().StringVar(&rootOpts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log.level")

	root.AddCommand(initCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(projectCmd())
	root.AddCommand(extractCmd())
	root.AddCommand(graphCmd())
	root.AddCommand(entityCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(layoutCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(cypherCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(versionCmd())
	return root
}
