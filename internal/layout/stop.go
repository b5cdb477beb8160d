package layout

import (
	"fmt"
	"time"
)

// StopRule decides when a simulation has run long enough. elapsed is wall
// time for Run and simulated time (ticks times the tick length) for Settle.
type StopRule interface {
	Done(state *State, elapsed time.Duration) bool
	Reset()
}

// FixedDuration stops once the duration has elapsed, whatever the graph is
// doing.
type FixedDuration struct {
	Duration time.Duration
}

func (r FixedDuration) Done(_ *State, elapsed time.Duration) bool {
	return elapsed >= r.Duration
}

func (FixedDuration) Reset() {}

// KineticEnergy stops when the total kinetic energy has stayed below
// Epsilon for QuietTicks consecutive ticks, or when Cap has elapsed.
type KineticEnergy struct {
	Epsilon    float64
	QuietTicks int
	Cap        time.Duration

	quiet int
}

const DefaultEnergyCap = 30 * time.Second

func (r *KineticEnergy) Done(state *State, elapsed time.Duration) bool {
	limit := r.Cap
	if limit <= 0 {
		limit = DefaultEnergyCap
	}
	if elapsed >= limit {
		return true
	}
	if state.TickCount == 0 {
		return false
	}

	if state.Energy < r.Epsilon {
		r.quiet++
	} else {
		r.quiet = 0
	}
	return r.quiet >= max(r.QuietTicks, 1)
}

func (r *KineticEnergy) Reset() { r.quiet = 0 }

// Rule names accepted by ParseStopRule.
const (
	RuleDuration = "duration"
	RuleEnergy   = "energy"
)

// ParseStopRule builds a rule by name. The energy rule is capped at the
// configured duration times ten.
func ParseStopRule(name string, cfg Config, epsilon float64, quietTicks int) (StopRule, error) {
	switch name {
	case "", RuleDuration:
		return FixedDuration{Duration: cfg.Duration}, nil
	case RuleEnergy:
		return &KineticEnergy{Epsilon: epsilon, QuietTicks: quietTicks, Cap: 10 * cfg.Duration}, nil
	default:
		return nil, fmt.Errorf("unknown stop rule %q", name)
	}
}
