package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// stubWorld is a minimal MacroWorld with one settlement.
type stubWorld struct {
	id   int32
	x, y int
	bins CohortBins
	cond MacroConditions
}

func (w *stubWorld) SettlementIDs() []int32            { return []int32{w.id} }
func (w *stubWorld) NearestSettlement(x, y int) int32  { return w.id }
func (w *stubWorld) Center(id int32) (int, int, bool)  { return w.x, w.y, id == w.id }
func (w *stubWorld) Conditions(id int32) MacroConditions { return w.cond }
func (w *stubWorld) Bins(id int32) *CohortBins {
	if id != w.id {
		return nil
	}
	return &w.bins
}

func landField(w, h int) *terrain.Field {
	f := terrain.New(w, h)
	for i := range f.Tiles {
		f.Tiles[i].Kind = terrain.KindLand
	}
	return f
}

func TestBinOfEdges(t *testing.T) {
	assert.Equal(t, 0, BinOf(0))
	assert.Equal(t, 0, BinOf(15*DaysPerYear-1))
	assert.Equal(t, 1, BinOf(15*DaysPerYear))
	assert.Equal(t, 4, BinOf(74*DaysPerYear))
	assert.Equal(t, 5, BinOf(80*DaysPerYear))
	assert.Equal(t, 5, BinOf(MaxAgeDays))
}

func TestEnterExitConservesPopulation(t *testing.T) {
	rng := entropy.NewSource(11)
	f := landField(32, 32)
	world := &stubWorld{id: 1, x: 16, y: 16, cond: MacroConditions{FoodSufficiency: 1, WaterSufficiency: 1}}

	p := NewPopulation()
	p.Seed(f, rng, 200)
	// Half the agents belong to the settlement, half are unassigned and will
	// be swept in by proximity.
	for i := range p.Agents {
		if i%2 == 0 {
			p.Agents[i].SettlementID = 1
		}
	}
	before := p.AliveCount()
	require.Equal(t, 200, before)

	p.EnterMacro(world)
	assert.True(t, p.Macro)
	assert.Empty(t, p.Agents)
	assert.Equal(t, before, world.bins.Total()+p.FallbackBins.Total())

	p.ExitMacro(f, world, rng)
	assert.False(t, p.Macro)
	assert.Equal(t, before, p.AliveCount(), "population changed across enter/exit")
	assert.Zero(t, world.bins.Total(), "bins not drained on exit")
	assert.Zero(t, p.FallbackBins.Total())

	// Everyone was binned under the settlement (the unassigned half by
	// proximity), so everyone materializes as a member with a valid age.
	for i := range p.Agents {
		a := &p.Agents[i]
		assert.GreaterOrEqual(t, a.AgeDays, int32(0))
		assert.Less(t, a.AgeDays, int32(MaxAgeDays))
		assert.Equal(t, int32(1), a.SettlementID)
	}
}

func TestEnterMacroUsesFallbackWithoutSettlements(t *testing.T) {
	rng := entropy.NewSource(5)
	f := landField(16, 16)
	world := &stubWorld{id: -1} // Bins returns nil for every id

	p := NewPopulation()
	p.Seed(f, rng, 50)
	p.EnterMacro(world)
	assert.Equal(t, 50, p.FallbackBins.Total())
}

func TestAdvanceMacroStarvationShrinksBins(t *testing.T) {
	rng := entropy.NewSource(23)
	world := &stubWorld{id: 1, x: 8, y: 8, cond: MacroConditions{FoodSufficiency: 0, WaterSufficiency: 0, FireThreat: true}}
	for s := 0; s < 2; s++ {
		for b := 0; b < NumAgeBins; b++ {
			world.bins[s][b] = 500
		}
	}
	start := world.bins.Total()

	p := NewPopulation()
	p.Macro = true
	p.AdvanceMacro(world, rng, 200)

	assert.Less(t, world.bins.Total(), start, "starving cohorts did not shrink")
	for s := 0; s < 2; s++ {
		for b := 0; b < NumAgeBins; b++ {
			assert.GreaterOrEqual(t, world.bins[s][b], int32(0), "bin went negative")
		}
	}
}

func TestAdvanceMacroHealthyGrowth(t *testing.T) {
	rng := entropy.NewSource(17)
	world := &stubWorld{id: 1, x: 8, y: 8, cond: MacroConditions{FoodSufficiency: 1, WaterSufficiency: 1}}
	// Plenty of fertile adults, nobody old.
	world.bins[SexFemale][1] = 2000
	world.bins[SexMale][1] = 2000
	start := world.bins.Total()

	p := NewPopulation()
	p.Macro = true
	p.AdvanceMacro(world, rng, 100)

	assert.Greater(t, world.bins.Total(), start, "well-fed cohorts did not grow")
	assert.Greater(t, world.bins[SexMale][0]+world.bins[SexFemale][0], int32(0), "no infants born")
}

func TestSampleCountMatchesExpectation(t *testing.T) {
	rng := entropy.NewSource(31)
	sum := 0
	for i := 0; i < 10000; i++ {
		sum += sampleCount(rng, 0.5)
	}
	assert.InDelta(t, 5000, sum, 400, "probabilistic rounding biased")
	assert.Zero(t, sampleCount(rng, 0))
	assert.Zero(t, sampleCount(rng, -3))
	assert.Equal(t, 3, sampleCount(rng, 3.0))
}
