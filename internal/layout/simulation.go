// Package layout places graph nodes on a 2D canvas with a force-directed
// simulation and draws the result on a Surface.
package layout

import (
	"math"

	"archivum/internal/graph"
	"archivum/internal/store"
)

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64  { return v.Sub(o).Len() }
func (v Vec) squaredLen() float64 { return v.X*v.X + v.Y*v.Y }

// State is the mutable part of a simulation. Positions and Velocities are
// indexed like the node slice the simulation was built from. Energy is the
// total kinetic energy, sum of |v|^2, after the last tick.
type State struct {
	Positions  []Vec   `json:"positions"`
	Velocities []Vec   `json:"velocities"`
	TickCount  int     `json:"tickCount"`
	Energy     float64 `json:"energy"`
}

func (s State) clone() State {
	out := s
	out.Positions = append([]Vec(nil), s.Positions...)
	out.Velocities = append([]Vec(nil), s.Velocities...)
	return out
}

type Simulation struct {
	cfg   Config
	nodes []graph.Node
	edges []graph.Edge
	index map[string]int
	// neighbors[i] holds one entry per edge touching i.
	neighbors [][]int
	pinned    []bool
	state     State
	view      View
	dragging  int
}

// New places nodes on a circle around the canvas center, evenly spaced by
// angle in slice order, with zero velocity. Edges whose endpoints are not
// both in nodes are ignored.
func New(nodes []graph.Node, edges []graph.Edge, cfg Config) *Simulation {
	n := len(nodes)
	s := &Simulation{
		cfg:       cfg,
		nodes:     nodes,
		index:     make(map[string]int, n),
		neighbors: make([][]int, n),
		pinned:    make([]bool, n),
		dragging:  -1,
		state: State{
			Positions:  make([]Vec, n),
			Velocities: make([]Vec, n),
		},
	}

	for i, node := range nodes {
		s.index[node.ID] = i
	}
	for _, e := range edges {
		a, okA := s.index[e.Source]
		b, okB := s.index[e.Target]
		if !okA || !okB || a == b {
			continue
		}
		s.edges = append(s.edges, e)
		s.neighbors[a] = append(s.neighbors[a], b)
		s.neighbors[b] = append(s.neighbors[b], a)
	}

	center := cfg.center()
	radius := cfg.initRadius()
	for i := range nodes {
		angle := float64(i) * 2 * math.Pi / float64(n)
		s.state.Positions[i] = cfg.clamp(Vec{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		})
	}
	return s
}

func (s *Simulation) Config() Config { return s.cfg }

func (s *Simulation) Nodes() []graph.Node { return s.nodes }

// State returns a copy of the current state.
func (s *Simulation) State() State { return s.state.clone() }

// Position reports where the node with the given id currently is.
func (s *Simulation) Position(id string) (Vec, bool) {
	i, ok := s.index[id]
	if !ok {
		return Vec{}, false
	}
	return s.state.Positions[i], true
}

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	n := len(s.nodes)
	pos := s.state.Positions
	center := s.cfg.center()
	forces := make([]Vec, n)

	for i := 0; i < n; i++ {
		var f Vec

		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := pos[i].Sub(pos[j])
			length := d.Len()
			var dir Vec
			if length == 0 {
				dir = separation(i, j)
			} else {
				dir = d.Scale(1 / length)
			}
			dist := math.Max(length, 1)
			f = f.Add(dir.Scale(s.cfg.Repulsion / (dist * dist)))
		}

		for _, j := range s.neighbors[i] {
			f = f.Add(pos[j].Sub(pos[i]).Scale(s.cfg.Attraction))
		}

		f = f.Add(center.Sub(pos[i]).Scale(s.cfg.Gravity))
		forces[i] = f
	}

	energy := 0.0
	for i := 0; i < n; i++ {
		if s.pinned[i] {
			s.state.Velocities[i] = Vec{}
			continue
		}
		v := s.state.Velocities[i].Add(forces[i]).Scale(s.cfg.Damping)
		s.state.Velocities[i] = v
		s.state.Positions[i] = s.cfg.clamp(pos[i].Add(v))
		energy += v.squaredLen()
	}

	s.state.TickCount++
	s.state.Energy = energy
}

// separation gives coincident nodes a fixed, opposite push so they split
// the same way on every run.
func separation(i, j int) Vec {
	angle := float64(min(i, j)+max(i, j)) * math.Phi
	dir := Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	if i > j {
		return dir.Scale(-1)
	}
	return dir
}

// Pin fixes node i at p until Unpin.
func (s *Simulation) Pin(i int, p Vec) {
	if i < 0 || i >= len(s.nodes) {
		return
	}
	s.pinned[i] = true
	s.state.Positions[i] = s.cfg.clamp(p)
	s.state.Velocities[i] = Vec{}
}

func (s *Simulation) Unpin(i int) {
	if i < 0 || i >= len(s.nodes) {
		return
	}
	s.pinned[i] = false
}

// NodeAt returns the index of the topmost node whose hit area holds p.
func (s *Simulation) NodeAt(p Vec) (int, bool) {
	hit := math.Max(s.cfg.NodeRadius, 1)
	for i := len(s.nodes) - 1; i >= 0; i-- {
		if s.state.Positions[i].Dist(p) <= hit {
			return i, true
		}
	}
	return -1, false
}

func typeIndex(t store.EntityType) int {
	for i, known := range store.EntityTypes {
		if t == known {
			return i
		}
	}
	return len(store.EntityTypes) - 1
}
