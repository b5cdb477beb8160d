package layout

import (
	"sync"

	"archivum/internal/store"
)

type FrameNode struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Type     store.EntityType `json:"type"`
	At       Vec              `json:"at"`
	Pinned   bool             `json:"pinned,omitempty"`
	Selected bool             `json:"selected,omitempty"`
	Dimmed   bool             `json:"dimmed,omitempty"`
}

type FrameEdge struct {
	ID           string `json:"id"`
	RelationType string `json:"relationType"`
	From         Vec    `json:"from"`
	To           Vec    `json:"to"`
	Dimmed       bool   `json:"dimmed,omitempty"`
}

// Frame is the geometry of one tick, ready to draw.
type Frame struct {
	Tick   int         `json:"tick"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Radius float64     `json:"radius"`
	Nodes  []FrameNode `json:"nodes"`
	Edges  []FrameEdge `json:"edges"`
}

// Surface receives a frame per tick.
type Surface interface {
	Draw(f Frame) error
}

func (s *Simulation) Frame() Frame {
	f := Frame{
		Tick:   s.state.TickCount,
		Width:  s.cfg.Width,
		Height: s.cfg.Height,
		Radius: s.cfg.NodeRadius,
		Nodes:  make([]FrameNode, len(s.nodes)),
		Edges:  make([]FrameEdge, 0, len(s.edges)),
	}

	for i, n := range s.nodes {
		f.Nodes[i] = FrameNode{
			ID:       n.ID,
			Name:     n.Name,
			Type:     n.Type,
			At:       s.state.Positions[i],
			Pinned:   s.pinned[i],
			Selected: n.ID == s.view.Selected,
			Dimmed:   s.view.dimmed(n.Type),
		}
	}
	for _, e := range s.edges {
		a, b := s.index[e.Source], s.index[e.Target]
		f.Edges = append(f.Edges, FrameEdge{
			ID:           e.ID,
			RelationType: e.RelationType,
			From:         s.state.Positions[a],
			To:           s.state.Positions[b],
			Dimmed:       f.Nodes[a].Dimmed || f.Nodes[b].Dimmed,
		})
	}
	return f
}

// FrameRecorder keeps every frame it is given, or only the last Limit.
type FrameRecorder struct {
	Limit int

	mu     sync.Mutex
	frames []Frame
}

func (r *FrameRecorder) Draw(f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	if r.Limit > 0 && len(r.frames) > r.Limit {
		r.frames = r.frames[len(r.frames)-r.Limit:]
	}
	return nil
}

func (r *FrameRecorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func (r *FrameRecorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}
