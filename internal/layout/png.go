package layout

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
)

// typeColors follows store.EntityTypes order.
var typeColors = [][3]float64{
	{0.86, 0.34, 0.30}, // person
	{0.25, 0.55, 0.80}, // place
	{0.93, 0.65, 0.20}, // event
	{0.40, 0.70, 0.38}, // object
	{0.58, 0.45, 0.75}, // concept
}

const dimAlpha = 0.2

// PNGSurface keeps the latest frame and renders it to PNG on demand.
type PNGSurface struct {
	Labels bool

	mu    sync.Mutex
	frame *Frame
}

func NewPNGSurface(labels bool) *PNGSurface {
	return &PNGSurface{Labels: labels}
}

func (p *PNGSurface) Draw(f Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = &f
	return nil
}

// WritePNG encodes the last drawn frame.
func (p *PNGSurface) WritePNG(w io.Writer) error {
	p.mu.Lock()
	f := p.frame
	p.mu.Unlock()
	if f == nil {
		return errors.New("no frame drawn yet")
	}

	dc := Render(*f, p.Labels)
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// Render paints a frame: edges first, then nodes, dimmed items faded.
func Render(f Frame, labels bool) *gg.Context {
	dc := gg.NewContext(int(math.Ceil(f.Width)), int(math.Ceil(f.Height)))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	radius := math.Max(f.Radius, 2)

	dc.SetLineWidth(1.5)
	for _, e := range f.Edges {
		alpha := 0.7
		if e.Dimmed {
			alpha = dimAlpha
		}
		dc.SetRGBA(0.45, 0.45, 0.45, alpha)
		dc.DrawLine(e.From.X, e.From.Y, e.To.X, e.To.Y)
		dc.Stroke()
	}

	for _, n := range f.Nodes {
		c := typeColors[typeIndex(n.Type)]
		alpha := 1.0
		if n.Dimmed {
			alpha = dimAlpha
		}

		dc.SetRGBA(c[0], c[1], c[2], alpha)
		dc.DrawCircle(n.At.X, n.At.Y, radius)
		dc.Fill()

		if n.Selected || n.Pinned {
			dc.SetRGBA(0.1, 0.1, 0.1, alpha)
			dc.SetLineWidth(2.5)
			dc.DrawCircle(n.At.X, n.At.Y, radius+3)
			dc.Stroke()
			dc.SetLineWidth(1.5)
		}

		if labels {
			dc.SetRGBA(0.1, 0.1, 0.1, alpha)
			dc.DrawStringAnchored(n.Name, n.At.X, n.At.Y-radius-4, 0.5, 0)
		}
	}
	return dc
}
