package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"archivum/internal/graph/mirror"
	"archivum/internal/server"
	"archivum/internal/store"
)

func serveCmd() *cobra.Command {
	var addr string
	var syncInterval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr, syncInterval)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")
	cmd.Flags().DurationVar(&syncInterval, "sync-interval", 0, "Mirror every project into Neo4j at this interval (0 disables)")
	return cmd
}

func runServe(cmd *cobra.Command, addr string, syncInterval time.Duration) error {
	ctx := cmd.Context()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	orch, release, err := a.orchestrator(ctx, db)
	if err != nil {
		return err
	}
	defer release()

	if !orch.Available() {
		a.logger.Warn("Entity extraction is disabled; set ARCHIVUM_LLM_API_KEY or llm.api_key")
	}

	srv := server.New(db, orch, server.Options{
		Layout:     a.layoutConfig(),
		StopRule:   a.cfg.Layout.StopRule,
		Epsilon:    a.cfg.Layout.Epsilon,
		QuietTicks: a.cfg.Layout.QuietTicks,
		Version:    version,
	}, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
	})

	if syncInterval > 0 {
		m, err := a.openMirror(ctx)
		if err != nil {
			return err
		}
		defer m.Close(context.Background())
		if err := m.EnsureIndexes(ctx); err != nil {
			return err
		}
		g.Go(func() error {
			return syncLoop(gctx, db, m, syncInterval, a.logger)
		})
	}

	return g.Wait()
}

// syncLoop mirrors every project on each tick until ctx is done. A failed
// project is logged and retried on the next tick.
func syncLoop(ctx context.Context, db store.Store, m *mirror.Mirror, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		ids, err := listProjectIDs(ctx, db)
		if err != nil {
			logger.Error("Listing projects for mirror sync", zap.Error(err))
			continue
		}
		for _, id := range ids {
			if _, err := syncProject(ctx, db, m, id, logger); err != nil {
				logger.Error("Mirror sync failed", zap.String("project_id", id), zap.Error(err))
			}
		}
	}
}
