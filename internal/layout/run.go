package layout

import (
	"context"
	"fmt"
	"time"
)

// Run animates the simulation in real time: one Step per tick of a
// wall-clock ticker, each followed by a Draw, until rule is done or ctx is
// cancelled. Pointer events are applied as they arrive; events may be nil.
func (s *Simulation) Run(ctx context.Context, rule StopRule, surface Surface, events <-chan Event) (State, error) {
	rule.Reset()
	if err := surface.Draw(s.Frame()); err != nil {
		return s.State(), fmt.Errorf("drawing initial frame: %w", err)
	}

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return s.State(), ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.Apply(ev)
		case <-ticker.C:
			s.Step()
			if err := surface.Draw(s.Frame()); err != nil {
				return s.State(), fmt.Errorf("drawing tick %d: %w", s.state.TickCount, err)
			}
			if rule.Done(&s.state, time.Since(start)) {
				return s.State(), nil
			}
		}
	}
}

// Settle runs the simulation without a clock or surface, counting each
// tick as one tick length of simulated time.
func (s *Simulation) Settle(rule StopRule) State {
	rule.Reset()
	for {
		s.Step()
		elapsed := time.Duration(s.state.TickCount) * s.cfg.Tick
		if rule.Done(&s.state, elapsed) {
			return s.State()
		}
	}
}
