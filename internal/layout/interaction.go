package layout

import "archivum/internal/store"

type EventKind int

const (
	// Click selects the node under the pointer, or clears the selection.
	Click EventKind = iota
	// Press on a node pins it under the pointer.
	Press
	// Move drags the pressed node.
	Move
	// Release lets the dragged node rejoin the simulation.
	Release
)

// Event is a pointer event in canvas coordinates.
type Event struct {
	Kind EventKind
	At   Vec
}

// View holds presentation state. It never feeds back into the forces.
type View struct {
	Selected string
	// Focus dims every node of another type, and every edge touching one.
	// Empty means no dimming.
	Focus store.EntityType
}

func (s *Simulation) View() View { return s.view }

func (s *Simulation) Select(id string) {
	if _, ok := s.index[id]; ok || id == "" {
		s.view.Selected = id
	}
}

func (s *Simulation) SetFocus(t store.EntityType) { s.view.Focus = t }

// Apply handles one pointer event.
func (s *Simulation) Apply(ev Event) {
	switch ev.Kind {
	case Click:
		if i, ok := s.NodeAt(ev.At); ok {
			s.view.Selected = s.nodes[i].ID
		} else {
			s.view.Selected = ""
		}
	case Press:
		if i, ok := s.NodeAt(ev.At); ok {
			s.dragging = i
			s.Pin(i, s.state.Positions[i])
		}
	case Move:
		if s.dragging >= 0 {
			s.Pin(s.dragging, ev.At)
		}
	case Release:
		if s.dragging >= 0 {
			s.Unpin(s.dragging)
			s.dragging = -1
		}
	}
}

func (v View) dimmed(t store.EntityType) bool {
	return v.Focus != "" && v.Focus != t
}
