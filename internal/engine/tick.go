package engine

import (
	"context"
	"log/slog"
	"time"
)

// Engine drives a Simulation forward in real time: movement ticks at the base
// interval, a day boundary every TicksPerDay ticks, and periodic callbacks
// for the host (autosave, status).
type Engine struct {
	Sim      *Simulation
	Speed    float64       // multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // base tick interval

	// OnDay fires after each completed day, for autosave and reporting.
	OnDay func(day int32)

	ticksInDay int
}

// NewEngine wraps a simulation with default pacing.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim:      sim,
		Speed:    1.0,
		Interval: 50 * time.Millisecond,
	}
}

// Run blocks, advancing the simulation until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("engine started", "day", e.Sim.Day, "speed", e.Speed)
	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopped", "day", e.Sim.Day, "tick", e.Sim.Tick)
			return
		default:
		}

		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}
}

// step advances one tick, closing out the day when the tick budget is spent.
// Macro mode skips movement ticks entirely; each step is a day stride.
func (e *Engine) step() {
	if e.Sim.Pop.Macro {
		e.Sim.AdvanceDay()
		if e.OnDay != nil {
			e.OnDay(e.Sim.Day)
		}
		return
	}

	e.Sim.Step()
	e.ticksInDay++
	if e.ticksInDay >= e.Sim.Tuning.TicksPerDay {
		e.ticksInDay = 0
		e.Sim.AdvanceDay()
		if e.OnDay != nil {
			e.OnDay(e.Sim.Day)
		}
	}
}
