package layout

import (
	"fmt"
	"math"
	"testing"
	"time"

	"archivum/internal/graph"
	"archivum/internal/store"
)

func testGraph(n int) ([]graph.Node, []graph.Edge) {
	nodes := make([]graph.Node, n)
	for i := range nodes {
		nodes[i] = graph.Node{
			ID:   fmt.Sprint("n", i),
			Name: fmt.Sprint("Node ", i),
			Type: store.EntityTypes[i%len(store.EntityTypes)],
		}
	}
	var edges []graph.Edge
	for i := 1; i < n; i++ {
		edges = append(edges, graph.Edge{ID: fmt.Sprint("e", i), Source: nodes[i/2].ID, Target: nodes[i].ID})
	}
	return nodes, edges
}

func TestNew_CircleInitialization(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := testGraph(8)

	a := New(nodes, edges, cfg).State()
	b := New(nodes, edges, cfg).State()

	radius := cfg.initRadius()
	for i, p := range a.Positions {
		angle := float64(i) * 2 * math.Pi / 8
		want := Vec{X: 400 + radius*math.Cos(angle), Y: 300 + radius*math.Sin(angle)}
		if p.Dist(want) > 1e-9 {
			t.Fatalf("node %d at %v, want %v", i, p, want)
		}
		if p != b.Positions[i] {
			t.Fatalf("initial positions differ between runs at node %d", i)
		}
		if a.Velocities[i] != (Vec{}) {
			t.Fatalf("node %d starts moving: %v", i, a.Velocities[i])
		}
	}
	if a.TickCount != 0 || a.Energy != 0 {
		t.Fatalf("unexpected initial state %+v", a)
	}
}

func TestStep_StaysInBounds(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*Config)
	}{
		{name: "defaults"},
		{name: "strong repulsion", cfg: func(c *Config) { c.Repulsion = 1e7 }},
		{name: "strong attraction", cfg: func(c *Config) { c.Attraction = 0.9; c.Gravity = 0 }},
		{name: "small canvas", cfg: func(c *Config) { c.Width, c.Height, c.Margin = 120, 90, 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			nodes, edges := testGraph(40)
			sim := New(nodes, edges, cfg)

			for tick := 0; tick < 300; tick++ {
				sim.Step()
				for i, p := range sim.State().Positions {
					if p.X < cfg.Margin || p.X > cfg.Width-cfg.Margin || p.Y < cfg.Margin || p.Y > cfg.Height-cfg.Margin {
						t.Fatalf("tick %d: node %d out of bounds at %v", tick, i, p)
					}
					if math.IsNaN(p.X) || math.IsNaN(p.Y) {
						t.Fatalf("tick %d: node %d has NaN position", tick, i)
					}
				}
			}
		})
	}
}

func TestStep_Deterministic(t *testing.T) {
	nodes, edges := testGraph(12)
	a := New(nodes, edges, DefaultConfig())
	b := New(nodes, edges, DefaultConfig())
	for i := 0; i < 50; i++ {
		a.Step()
		b.Step()
	}
	sa, sb := a.State(), b.State()
	for i := range sa.Positions {
		if sa.Positions[i] != sb.Positions[i] {
			t.Fatalf("runs diverged at node %d", i)
		}
	}
	if sa.TickCount != 50 {
		t.Fatalf("expected 50 ticks, got %d", sa.TickCount)
	}
}

func TestStep_SeparatesCoincidentNodes(t *testing.T) {
	nodes, _ := testGraph(2)
	sim := New(nodes, nil, DefaultConfig())
	sim.Pin(0, Vec{X: 400, Y: 300})
	sim.state.Positions[1] = Vec{X: 400, Y: 300}
	sim.Unpin(0)

	sim.Step()
	s := sim.State()
	if s.Positions[0] == s.Positions[1] {
		t.Fatalf("coincident nodes did not separate")
	}
}

func TestSettle_FixedDuration(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := testGraph(5)
	state := New(nodes, edges, cfg).Settle(FixedDuration{Duration: cfg.Duration})

	if want := int(cfg.Duration / cfg.Tick); state.TickCount != want {
		t.Fatalf("expected %d ticks, got %d", want, state.TickCount)
	}
}

func TestSettle_KineticEnergy(t *testing.T) {
	cfg := DefaultConfig()
	nodes, edges := testGraph(3)

	rule := &KineticEnergy{Epsilon: 0.5, QuietTicks: 10, Cap: 10 * cfg.Duration}
	state := New(nodes, edges, cfg).Settle(rule)
	if state.Energy >= 0.5 {
		t.Fatalf("stopped with energy %v", state.Energy)
	}
	if state.TickCount >= int(rule.Cap/cfg.Tick) {
		t.Fatalf("energy rule hit its cap after %d ticks", state.TickCount)
	}

	t.Run("cap", func(t *testing.T) {
		rule := &KineticEnergy{Epsilon: 0, QuietTicks: 1, Cap: time.Second}
		state := New(nodes, edges, cfg).Settle(rule)
		if state.TickCount != 20 {
			t.Fatalf("expected the cap to stop at 20 ticks, got %d", state.TickCount)
		}
	})
}

func TestParseStopRule(t *testing.T) {
	cfg := DefaultConfig()
	if rule, err := ParseStopRule("", cfg, 0.5, 10); err != nil || rule.(FixedDuration).Duration != cfg.Duration {
		t.Fatalf("unexpected default rule %v %v", rule, err)
	}
	rule, err := ParseStopRule(RuleEnergy, cfg, 0.5, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if energy := rule.(*KineticEnergy); energy.Cap != 30*time.Second || energy.QuietTicks != 10 {
		t.Fatalf("unexpected energy rule %+v", energy)
	}
	if _, err := ParseStopRule("forever", cfg, 0, 0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := DefaultConfig()
	bad.Margin = 300
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected margin error")
	}
	bad = DefaultConfig()
	bad.Damping = 1
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected damping error")
	}
}
