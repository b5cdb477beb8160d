package layout

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"archivum/internal/store"
)

func TestApply_ClickSelectsWithoutMoving(t *testing.T) {
	nodes, edges := testGraph(4)
	sim := New(nodes, edges, DefaultConfig())
	before := sim.State()

	sim.Apply(Event{Kind: Click, At: before.Positions[2]})
	if sim.View().Selected != nodes[2].ID {
		t.Fatalf("expected %s selected, got %q", nodes[2].ID, sim.View().Selected)
	}
	after := sim.State()
	for i := range before.Positions {
		if before.Positions[i] != after.Positions[i] {
			t.Fatalf("selection moved node %d", i)
		}
	}

	sim.Apply(Event{Kind: Click, At: Vec{X: 400, Y: 300}})
	if sim.View().Selected != "" {
		t.Fatalf("click on empty canvas should clear selection")
	}
}

func TestApply_DragPinsNode(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := testGraph(6)
	sim := New(nodes, edges, cfg)
	start := sim.State().Positions[1]

	sim.Apply(Event{Kind: Press, At: start})
	target := Vec{X: 120, Y: 500}
	sim.Apply(Event{Kind: Move, At: target})
	for i := 0; i < 20; i++ {
		sim.Step()
	}
	if got, _ := sim.Position(nodes[1].ID); got != target {
		t.Fatalf("pinned node drifted to %v", got)
	}
	if v := sim.State().Velocities[1]; v != (Vec{}) {
		t.Fatalf("pinned node has velocity %v", v)
	}

	sim.Apply(Event{Kind: Move, At: Vec{X: -50, Y: 9000}})
	if got, _ := sim.Position(nodes[1].ID); got != (Vec{X: cfg.Margin, Y: cfg.Height - cfg.Margin}) {
		t.Fatalf("drag outside the canvas not clamped: %v", got)
	}

	sim.Apply(Event{Kind: Release})
	sim.Step()
	if got, _ := sim.Position(nodes[1].ID); got == (Vec{X: cfg.Margin, Y: cfg.Height - cfg.Margin}) {
		t.Fatalf("released node did not rejoin the simulation")
	}
}

func TestFrame_FocusDimsOtherTypes(t *testing.T) {
	nodes, edges := testGraph(5)
	sim := New(nodes, edges, DefaultConfig())
	sim.SetFocus(store.EntityPerson)

	f := sim.Frame()
	for _, n := range f.Nodes {
		if n.Dimmed != (n.Type != store.EntityPerson) {
			t.Fatalf("node %s of type %s dimmed=%v", n.ID, n.Type, n.Dimmed)
		}
	}
	for _, e := range f.Edges {
		if !e.Dimmed {
			t.Fatalf("edge %s touches a non-person node and should be dimmed", e.ID)
		}
	}

	sim.SetFocus("")
	for _, n := range sim.Frame().Nodes {
		if n.Dimmed {
			t.Fatalf("no focus should dim nothing")
		}
	}
}

func TestRun_DrawsEveryTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tick = time.Millisecond
	nodes, edges := testGraph(5)
	sim := New(nodes, edges, cfg)

	rec := &FrameRecorder{}
	state, err := sim.Run(context.Background(), FixedDuration{Duration: 20 * time.Millisecond}, rec, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	frames := rec.Frames()
	if len(frames) != state.TickCount+1 {
		t.Fatalf("expected %d frames, got %d", state.TickCount+1, len(frames))
	}
	if frames[0].Tick != 0 {
		t.Fatalf("first frame should be the initial layout")
	}
}

func TestRun_AppliesEventsAndStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tick = time.Millisecond
	nodes, edges := testGraph(3)
	sim := New(nodes, edges, cfg)
	at := sim.State().Positions[0]

	events := make(chan Event, 1)
	events <- Event{Kind: Click, At: at}
	close(events)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := sim.Run(ctx, FixedDuration{Duration: time.Hour}, &FrameRecorder{Limit: 1}, events)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if sim.View().Selected != nodes[0].ID {
		t.Fatalf("click event was not applied")
	}
}

type failingSurface struct{}

func (failingSurface) Draw(Frame) error { return errors.New("surface gone") }

func TestRun_SurfaceError(t *testing.T) {
	nodes, edges := testGraph(2)
	_, err := New(nodes, edges, DefaultConfig()).Run(context.Background(), FixedDuration{Duration: time.Second}, failingSurface{}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestPNGSurface(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := testGraph(5)
	sim := New(nodes, edges, cfg)
	sim.Select(nodes[0].ID)
	sim.Settle(FixedDuration{Duration: time.Second})

	surface := NewPNGSurface(true)
	var buf bytes.Buffer
	if err := surface.WritePNG(&buf); err == nil {
		t.Fatalf("expected error before any frame")
	}

	if err := surface.Draw(sim.Frame()); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if err := surface.WritePNG(&buf); err != nil {
		t.Fatalf("write png: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("unexpected image size %v", b)
	}
}

func TestFrameRecorder_Limit(t *testing.T) {
	rec := &FrameRecorder{Limit: 2}
	for i := 0; i < 5; i++ {
		_ = rec.Draw(Frame{Tick: i})
	}
	frames := rec.Frames()
	if len(frames) != 2 || frames[0].Tick != 3 {
		t.Fatalf("unexpected frames %+v", frames)
	}
	if last, ok := rec.Last(); !ok || last.Tick != 4 {
		t.Fatalf("unexpected last frame %+v", last)
	}
}
