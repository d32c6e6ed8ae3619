package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k7LqB9c2W/funsim-sub000/internal/config"
)

func smallTuning() config.Tuning {
	t := config.Default()
	t.WorldWidth = 64
	t.WorldHeight = 64
	t.StartingAgents = 30
	t.Seed = 5
	return t
}

func TestNewSimulationDeterministicWorld(t *testing.T) {
	a := NewSimulation(smallTuning())
	b := NewSimulation(smallTuning())

	assert.Equal(t, a.Field.Tiles, b.Field.Tiles, "same seed generated different terrain")
	require.Equal(t, len(a.Pop.Agents), len(b.Pop.Agents))
	for i := range a.Pop.Agents {
		assert.Equal(t, a.Pop.Agents[i].X, b.Pop.Agents[i].X)
		assert.Equal(t, a.Pop.Agents[i].Y, b.Pop.Agents[i].Y)
	}
	assert.NotEqual(t, a.WorldID, b.WorldID, "world identity must be unique per run")
}

func TestAdvanceDayProgresses(t *testing.T) {
	sim := NewSimulation(smallTuning())
	require.Equal(t, int32(0), sim.Day)

	sim.AdvanceDay()
	assert.Equal(t, int32(1), sim.Day)
	assert.Equal(t, sim.Pop.AliveCount(), sim.Stats.Population)
	assert.False(t, sim.Stats.Macro)

	for i := 0; i < 9; i++ {
		sim.AdvanceDay()
	}
	assert.Equal(t, int32(10), sim.Day)
}

func TestStepAdvancesTick(t *testing.T) {
	sim := NewSimulation(smallTuning())
	sim.Step()
	sim.Step()
	assert.Equal(t, uint64(2), sim.Tick)
}

func TestMacroTransitionThresholds(t *testing.T) {
	tn := smallTuning()
	tn.MacroEnterPop = 10 // 30 starting agents trip this immediately
	tn.MacroExitPop = 5
	sim := NewSimulation(tn)

	sim.AdvanceDay()
	assert.True(t, sim.Pop.Macro, "population above the threshold should enter macro resolution")
	assert.Empty(t, sim.Pop.Agents)

	// Each macro step covers a full stride of days.
	day := sim.Day
	sim.AdvanceDay()
	assert.Equal(t, day+int32(tn.MacroDayStride), sim.Day)
	assert.True(t, sim.Stats.Macro)
}

func TestEventLogTrimmed(t *testing.T) {
	tn := smallTuning()
	tn.EventKeep = 5
	sim := NewSimulation(tn)
	for i := int32(0); i < 50; i++ {
		sim.Events.Add(i, "founding", "e")
	}
	sim.AdvanceDay()
	assert.LessOrEqual(t, len(sim.Events.Events), 6, "event log not trimmed to its budget")
}
