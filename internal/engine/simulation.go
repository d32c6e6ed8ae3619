// Package engine ties the world systems together and drives them through the
// tick and day schedule, including the automatic switch between per-agent and
// aggregate population resolution.
package engine

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/config"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/events"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
	"github.com/k7LqB9c2W/funsim-sub000/internal/settlements"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// Simulation holds the complete world state and wires the systems together.
type Simulation struct {
	WorldID string // stable identity for persistence
	Seed    int64

	Field    *terrain.Field
	Pop      *agents.Population
	Towns    *settlements.Manager
	Factions *factions.Manager
	Rand     *entropy.Source
	Events   *events.Log

	Day  int32
	Tick uint64

	Tuning config.Tuning
	Stats  DayReport
}

// DayReport aggregates one day's vital statistics.
type DayReport struct {
	Population  int `json:"population"`
	Births      int `json:"births"`
	Deaths      int `json:"deaths"`
	Starved     int `json:"starved"`
	Dehydrated  int `json:"dehydrated"`
	Burned      int `json:"burned"`
	Settlements int `json:"settlements"`
	Factions    int `json:"factions"`
	Wars        int `json:"wars"`
	Macro       bool `json:"macro"`
}

// NewSimulation builds a fresh world from tuning: generated terrain, seeded
// population, empty settlement and faction managers.
func NewSimulation(t config.Tuning) *Simulation {
	rng := entropy.NewSource(t.Seed)
	field := terrain.Generate(terrain.GenConfig{
		Width:        t.WorldWidth,
		Height:       t.WorldHeight,
		Seed:         t.Seed,
		SeaLevel:     t.SeaLevel,
		LakeMoisture: t.LakeMoisture,
	}, rng)

	pop := agents.NewPopulation()
	pop.Seed(field, rng, t.StartingAgents)

	sim := &Simulation{
		WorldID:  uuid.NewString(),
		Seed:     t.Seed,
		Field:    field,
		Pop:      pop,
		Towns:    settlements.NewManager(field),
		Factions: factions.NewManager(),
		Rand:     rng,
		Events:   &events.Log{},
		Tuning:   t,
	}
	slog.Info("world created",
		"world", sim.WorldID,
		"seed", t.Seed,
		"size", t.WorldWidth*t.WorldHeight,
		"land", terrain.LandCount(field),
		"agents", pop.AliveCount(),
	)
	return sim
}

// Restore rebuilds a Simulation around loaded state. The caller supplies the
// already-populated components; Restore only wires them.
func Restore(t config.Tuning, worldID string, day int32, field *terrain.Field, pop *agents.Population, towns *settlements.Manager, facs *factions.Manager, ev *events.Log) *Simulation {
	return &Simulation{
		WorldID:  worldID,
		Seed:     t.Seed,
		Field:    field,
		Pop:      pop,
		Towns:    towns,
		Factions: facs,
		Rand:     entropy.NewSource(t.Seed + int64(day)),
		Events:   ev,
		Day:      day,
		Tuning:   t,
	}
}

// Step advances one movement tick in micro mode. Macro mode has no per-tick
// work; days carry everything.
func (s *Simulation) Step() {
	s.Tick++
	s.Pop.Step(s.Field, s.Towns, s.Rand, s.Tick)
}

// AdvanceDay runs one simulated day (or a macro stride of days) through every
// system in order, then re-evaluates the resolution mode.
func (s *Simulation) AdvanceDay() {
	if s.Pop.Macro {
		s.advanceMacro()
	} else {
		s.advanceMicro()
	}
	s.Events.Trim(s.Tuning.EventKeep)
	s.report()
}

func (s *Simulation) advanceMicro() {
	s.Day++
	s.Field.UpdateDaily(s.Rand)
	day := s.Pop.ResolveDaily(s.Field, s.Towns, s.Rand)
	s.Towns.UpdateDaily(s.Pop, s.Factions, s.Rand, s.Day, s.Events)

	s.Stats = DayReport{
		Population:  s.Pop.AliveCount(),
		Births:      day.Births,
		Deaths:      day.Deaths,
		Starved:     day.Starved,
		Dehydrated:  day.Dehydrated,
		Burned:      day.Burned,
		Settlements: s.Towns.Count(),
		Factions:    s.Factions.Count(),
		Wars:        len(s.Factions.Wars),
	}

	if s.Stats.Population > s.Tuning.MacroEnterPop {
		slog.Info("entering macro resolution", "day", s.Day, "population", s.Stats.Population)
		s.Pop.EnterMacro(s.Towns)
		s.Events.Add(s.Day, "mode", "population aggregated into cohorts")
	}
}

func (s *Simulation) advanceMacro() {
	days := s.Tuning.MacroDayStride
	s.Day += int32(days)
	s.Field.UpdateDaily(s.Rand)
	s.Pop.AdvanceMacro(s.Towns, s.Rand, days)
	s.Towns.UpdateDailyMacro(s.Factions, s.Rand, s.Day, days, s.Events)

	s.Stats = DayReport{
		Population:  s.macroPopulation(),
		Settlements: s.Towns.Count(),
		Factions:    s.Factions.Count(),
		Wars:        len(s.Factions.Wars),
		Macro:       true,
	}

	if s.Stats.Population < s.Tuning.MacroExitPop {
		slog.Info("exiting macro resolution", "day", s.Day, "population", s.Stats.Population)
		s.Pop.ExitMacro(s.Field, s.Towns, s.Rand)
		s.Events.Add(s.Day, "mode", "population rematerialized")
	}
}

// macroPopulation totals the cohort bins plus the fallback pool.
func (s *Simulation) macroPopulation() int {
	total := s.Pop.FallbackBins.Total()
	for _, id := range s.Towns.SettlementIDs() {
		if b := s.Towns.Bins(id); b != nil {
			total += b.Total()
		}
	}
	return total
}

func (s *Simulation) report() {
	slog.Info("daily report",
		"day", s.Day,
		"population", s.Stats.Population,
		"births", s.Stats.Births,
		"deaths", s.Stats.Deaths,
		"settlements", s.Stats.Settlements,
		"factions", s.Stats.Factions,
		"wars", s.Stats.Wars,
		"macro", s.Stats.Macro,
	)
}
