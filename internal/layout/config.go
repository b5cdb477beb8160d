package layout

import (
	"fmt"
	"math"
	"time"
)

type Config struct {
	Width  float64
	Height float64
	// Margin keeps node centers this far from every canvas edge.
	Margin float64
	// InitRadius is the radius of the starting circle. Zero picks the
	// largest circle that fits inside the margins.
	InitRadius float64
	// NodeRadius is the drawn size of a node and its hit area.
	NodeRadius float64
	Repulsion  float64
	Attraction float64
	Gravity    float64
	Damping    float64
	Tick       time.Duration
	Duration   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Width:      800,
		Height:     600,
		Margin:     40,
		NodeRadius: 8,
		Repulsion:  5000,
		Attraction: 0.01,
		Gravity:    0.005,
		Damping:    0.9,
		Tick:       50 * time.Millisecond,
		Duration:   3 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas must have positive size, got %.0fx%.0f", c.Width, c.Height)
	}
	if c.Margin < 0 || 2*c.Margin >= c.Width || 2*c.Margin >= c.Height {
		return fmt.Errorf("margin %.0f does not fit a %.0fx%.0f canvas", c.Margin, c.Width, c.Height)
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		return fmt.Errorf("damping must be in (0,1), got %v", c.Damping)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("tick must be positive")
	}
	return nil
}

func (c Config) center() Vec {
	return Vec{X: c.Width / 2, Y: c.Height / 2}
}

func (c Config) initRadius() float64 {
	fit := math.Min(c.Width, c.Height)/2 - c.Margin
	if c.InitRadius <= 0 || c.InitRadius > fit {
		return fit
	}
	return c.InitRadius
}

func (c Config) clamp(p Vec) Vec {
	return Vec{
		X: math.Min(math.Max(p.X, c.Margin), c.Width-c.Margin),
		Y: math.Min(math.Max(p.Y, c.Margin), c.Height-c.Margin),
	}
}
