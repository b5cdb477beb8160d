package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"archivum/internal/graph"
	"archivum/internal/layout"
)

type layoutOptions struct {
	output     string
	entityType string
	selected   string
	rule       string
	frames     string
	labels     bool
}

func layoutCmd() *cobra.Command {
	var opts layoutOptions
	cmd := &cobra.Command{
		Use:   "layout <project-id>",
		Short: "Render a force-directed layout of a project's graph to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "graph.png", "PNG file to write")
	cmd.Flags().StringVar(&opts.entityType, "type", "", "Dim every entity type except this one")
	cmd.Flags().StringVar(&opts.selected, "select", "", "Entity id to highlight")
	cmd.Flags().StringVar(&opts.rule, "rule", "", "Stop rule: duration or energy (default from config)")
	cmd.Flags().StringVar(&opts.frames, "frames", "", "Animate in real time and write every frame as JSON to this file")
	cmd.Flags().BoolVar(&opts.labels, "labels", true, "Draw entity names")
	return cmd
}

func runLayout(cmd *cobra.Command, projectID string, opts layoutOptions) error {
	ctx := cmd.Context()
	focus, err := parseTypeFlag(opts.entityType)
	if err != nil {
		return err
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.layoutConfig()
	rule, err := a.stopRule(opts.rule, cfg)
	if err != nil {
		return err
	}

	db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	g, err := graph.NewAssembler(db, a.logger).Assemble(ctx, projectID)
	if err != nil {
		return err
	}

	sim := layout.New(g.Nodes, g.Edges, cfg)
	sim.SetFocus(focus)
	if opts.selected != "" {
		if _, ok := g.Node(opts.selected); !ok {
			return fmt.Errorf("entity %s is not in project %s", opts.selected, projectID)
		}
		sim.Select(opts.selected)
	}

	png := layout.NewPNGSurface(opts.labels)
	var state layout.State
	if opts.frames != "" {
		recorder := &layout.FrameRecorder{}
		state, err = sim.Run(ctx, rule, teeSurface{png, recorder}, nil)
		if err != nil && ctx.Err() == nil {
			return err
		}
		if err := writeFrames(opts.frames, recorder.Frames()); err != nil {
			return err
		}
	} else {
		state = sim.Settle(rule)
		if err := png.Draw(sim.Frame()); err != nil {
			return err
		}
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", opts.output, err)
	}
	if err := png.WritePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", opts.output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %s after %s (energy %.3f)\n",
		opts.output, countOf(len(g.Nodes), "entity"), countOf(state.TickCount, "tick"), state.Energy)
	return nil
}

// teeSurface draws every frame on each of its surfaces in order.
type teeSurface []layout.Surface

func (t teeSurface) Draw(f layout.Frame) error {
	for _, s := range t {
		if err := s.Draw(f); err != nil {
			return err
		}
	}
	return nil
}

func writeFrames(path string, frames []layout.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return writeJSON(f, frames)
}
