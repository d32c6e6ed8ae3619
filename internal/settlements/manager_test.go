package settlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/events"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
)

func TestZoneQueriesColdCache(t *testing.T) {
	m := NewManager(testField(64, 64))
	assert.Equal(t, int32(-1), m.ZoneOwnerAt(10, 10))
	assert.Zero(t, m.ZonePopulationAt(10, 10))
	assert.Zero(t, m.ZoneConflictAt(10, 10))
	assert.Equal(t, int32(-1), m.ZoneOwnerAt(-5, 10))
	assert.Equal(t, int32(-1), m.ZoneOwnerAt(10, 9999))
}

func TestDenseCrowdFoundsSettlement(t *testing.T) {
	f := testField(64, 64)
	m := NewManager(f)
	facs := factions.NewManager()
	rng := entropy.NewSource(42)
	ev := &events.Log{}
	pop := agents.NewPopulation()

	// A crowd parked in one zone, dense enough to clear the founding bar.
	for i := 0; i < 30; i++ {
		pop.Add(agents.Agent{
			X: 20, Y: 20, AgeDays: 25 * agents.DaysPerYear,
			SettlementID: -1, WarID: -1, WarTargetID: -1,
			WaterX: -1, WaterY: -1,
		})
	}

	for day := int32(1); day <= 10; day++ {
		m.UpdateDaily(pop, facs, rng, day, ev)
	}

	require.GreaterOrEqual(t, m.Count(), 1, "dense crowd never founded a settlement")
	s := &m.Settlements[0]
	assert.NotEmpty(t, s.Name)
	assert.NotNil(t, facs.Get(s.FactionID), "settlement founded without a faction")
	assert.Greater(t, s.TerritoryZones, 0)

	// Founding events were recorded.
	found := false
	for _, e := range ev.Events {
		if e.Category == "founding" {
			found = true
		}
	}
	assert.True(t, found)

	// The crowd standing in the new territory was assimilated.
	joined := 0
	for i := range pop.Agents {
		if pop.Agents[i].SettlementID == s.ID {
			joined++
		}
	}
	assert.Greater(t, joined, 0)
	assert.Equal(t, joined, s.Population)
}

func TestReassignAgentsHealsStaleIDs(t *testing.T) {
	m := NewManager(testField(64, 64))
	pop := agents.NewPopulation()
	pop.Add(agents.Agent{
		X: 5, Y: 5, AgeDays: 30 * agents.DaysPerYear,
		SettlementID: 77, Role: agents.RoleFarmer,
		Task:   agents.Task{Kind: agents.TaskGatherFood},
		WarID:  -1, WarTargetID: -1, WaterX: -1, WaterY: -1,
	})

	m.reassignAgents(pop)

	a := &pop.Agents[0]
	assert.Equal(t, int32(-1), a.SettlementID, "stale settlement id not cleared")
	assert.Equal(t, agents.RoleIdle, a.Role)
	assert.Equal(t, agents.TaskNone, a.Task.Kind)
}

func TestGetStaleSettlementID(t *testing.T) {
	m := NewManager(testField(64, 64))
	assert.Nil(t, m.Get(1))
	assert.Nil(t, m.Get(-1))
	assert.Nil(t, m.Bins(99))
	_, _, ok := m.Center(99)
	assert.False(t, ok)
}

func TestNearestSettlement(t *testing.T) {
	m := NewManager(testField(64, 64))
	assert.Equal(t, int32(-1), m.NearestSettlement(10, 10))

	rng := entropy.NewSource(1)
	ev := &events.Log{}
	m.found(10, 10, 1, 0, rng, ev)
	m.found(50, 50, 1, 0, rng, ev)
	assert.Equal(t, m.Settlements[0].ID, m.NearestSettlement(12, 12))
	assert.Equal(t, m.Settlements[1].ID, m.NearestSettlement(48, 48))
}

func TestConsumeFoodShortfall(t *testing.T) {
	m := NewManager(testField(64, 64))
	rng := entropy.NewSource(1)
	ev := &events.Log{}
	s := m.found(10, 10, 1, 0, rng, ev)
	s.StockFood = 3

	assert.True(t, m.ConsumeFood(s.ID, 2))
	assert.False(t, m.ConsumeFood(s.ID, 2), "consumed more than stocked")
	assert.Equal(t, 1, s.StockFood)
	assert.False(t, m.ConsumeFood(999, 1))
}

func TestRestoreManagerRebuildsIndex(t *testing.T) {
	f := testField(64, 64)
	list := []Settlement{
		{ID: 3, Name: "Quarrow", X: 10, Y: 10, FactionID: 1, WaterX: -1, WaterY: -1, CaptureFactionID: -1, ArmyTargetID: -1},
		{ID: 8, Name: "Vexley", X: 40, Y: 40, FactionID: 2, WaterX: -1, WaterY: -1, CaptureFactionID: -1, ArmyTargetID: -1},
	}
	m := RestoreManager(f, list, 9)

	require.Equal(t, 2, m.Count())
	assert.Equal(t, "Quarrow", m.Get(3).Name)
	assert.Equal(t, "Vexley", m.Get(8).Name)
	assert.Nil(t, m.Get(5))
	assert.Equal(t, int32(9), m.NextID())
}
