package agents

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// Population owns every agent. It runs in exactly one of two resolution
// modes: micro (per-agent simulation over Agents) or macro (cohort bins held
// by settlements plus the fallback pool here).
type Population struct {
	Agents []Agent
	Macro  bool

	// FallbackBins aggregates agents with no settlement while in macro mode.
	FallbackBins CohortBins

	index  map[int32]int // agent ID → arena index
	nextID int32

	// thinkCursor round-robins the per-tick replanning budget.
	thinkCursor int

	// occupancy grids rebuilt each movement tick: all agents, and adult
	// males (mate-seek density sampling).
	occupancy []int16
	males     []int16
	gridW     int
}

// NewPopulation creates an empty micro-mode population.
func NewPopulation() *Population {
	return &Population{
		index:  make(map[int32]int),
		nextID: 1,
	}
}

// Add inserts an agent, assigning its id. Returns the assigned id.
func (p *Population) Add(a Agent) int32 {
	a.ID = p.nextID
	p.nextID++
	a.Alive = true
	p.index[a.ID] = len(p.Agents)
	p.Agents = append(p.Agents, a)
	return a.ID
}

// Get returns the agent with the given id, or nil for stale ids.
func (p *Population) Get(id int32) *Agent {
	i, ok := p.index[id]
	if !ok {
		return nil
	}
	return &p.Agents[i]
}

// AliveCount returns the live agent count in micro mode.
func (p *Population) AliveCount() int {
	n := 0
	for i := range p.Agents {
		if p.Agents[i].Alive {
			n++
		}
	}
	return n
}

// Compact removes dead agents in place and rebuilds the id index. Called
// after each daily pass; arena indices are invalidated, ids stay stable.
func (p *Population) Compact() {
	live := p.Agents[:0]
	for i := range p.Agents {
		if p.Agents[i].Alive {
			live = append(live, p.Agents[i])
		}
	}
	// Zero the tail so dropped agents don't pin anything.
	for i := len(live); i < len(p.Agents); i++ {
		p.Agents[i] = Agent{}
	}
	p.Agents = live
	p.rebuildIndex()
}

func (p *Population) rebuildIndex() {
	clear(p.index)
	for i := range p.Agents {
		p.index[p.Agents[i].ID] = i
	}
}

// rebuildOccupancy refreshes the per-tile agent and adult-male count grids.
func (p *Population) rebuildOccupancy(f *terrain.Field) {
	n := f.W * f.H
	if len(p.occupancy) != n {
		p.occupancy = make([]int16, n)
		p.males = make([]int16, n)
	} else {
		clear(p.occupancy)
		clear(p.males)
	}
	p.gridW = f.W
	for i := range p.Agents {
		a := &p.Agents[i]
		if !a.Alive {
			continue
		}
		idx := a.Y*f.W + a.X
		p.occupancy[idx]++
		if a.Sex == SexMale && a.Adult() {
			p.males[idx]++
		}
	}
}

// Seed scatters n starting agents over walkable tiles.
func (p *Population) Seed(f *terrain.Field, rng *entropy.Source, n int) {
	placed := 0
	for attempts := 0; placed < n && attempts < n*50; attempts++ {
		x := rng.IntN(f.W)
		y := rng.IntN(f.H)
		if !f.At(x, y).Walkable() {
			continue
		}
		p.Add(newAgent(rng, x, y))
		placed++
	}
}

// newAgent rolls a fresh adult-weighted agent at a location.
func newAgent(rng *entropy.Source, x, y int) Agent {
	return Agent{
		Sex:          Sex(rng.IntN(2)),
		AgeDays:      int32(rng.Range(10*DaysPerYear, 50*DaysPerYear)),
		X:            x,
		Y:            y,
		Goal:         GoalWander,
		Wanderlust:   float32(rng.Float()),
		SettlementID: -1,
		Role:         RoleIdle,
		WarID:        -1,
		WarTargetID:  -1,
		WaterX:       -1,
		WaterY:       -1,
		Alive:        true,
	}
}

// newborn creates an infant at the mother's position.
func newborn(rng *entropy.Source, mother *Agent) Agent {
	return Agent{
		Sex:          Sex(rng.IntN(2)),
		X:            mother.X,
		Y:            mother.Y,
		Goal:         GoalStayHome,
		Wanderlust:   float32(rng.Float() * 0.5),
		SettlementID: mother.SettlementID,
		Role:         RoleIdle,
		WarID:        -1,
		WarTargetID:  -1,
		WaterX:       mother.WaterX,
		WaterY:       mother.WaterY,
		Alive:        true,
	}
}

// NextID exposes the id counter for persistence.
func (p *Population) NextID() int32 { return p.nextID }

// RestorePopulation rebuilds a population from persisted agents.
func RestorePopulation(list []Agent, nextID int32, macro bool, fallback CohortBins) *Population {
	p := NewPopulation()
	p.Agents = list
	p.Macro = macro
	p.FallbackBins = fallback
	if nextID > 0 {
		p.nextID = nextID
	}
	p.rebuildIndex()
	return p
}
