package settlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

func testField(w, h int) *terrain.Field {
	f := terrain.New(w, h)
	for i := range f.Tiles {
		f.Tiles[i].Kind = terrain.KindLand
	}
	return f
}

func roleTotal(roles *[agents.NumRoles]int) int {
	n := 0
	for r := range roles {
		n += roles[r]
	}
	return n
}

func TestDesiredRolesSumToPopulation(t *testing.T) {
	m := NewManager(testField(64, 64))
	facs := factions.NewManager()

	for _, pop := range []int{0, 1, 3, 17, 60, 150, 1000} {
		s := &Settlement{X: 32, Y: 32, Population: pop, StockFood: pop * 10, Farms: pop}
		roles := m.desiredRoles(s, facs, 0)
		assert.Equal(t, pop, roleTotal(&roles), "roles do not sum to population %d", pop)
		for r := range roles {
			assert.GreaterOrEqual(t, roles[r], 0, "negative count for role %d at pop %d", r, pop)
		}
	}
}

func TestDesiredRolesWarFloor(t *testing.T) {
	m := NewManager(testField(64, 64))
	facs := factions.NewManager()
	rng := entropy.NewSource(4)
	att := facs.CreateFaction(rng, 0)
	def := facs.CreateFaction(rng, 0)
	facs.DeclareWar(att.ID, def.ID, 1)

	s := &Settlement{X: 32, Y: 32, FactionID: att.ID, Population: 100, StockFood: 1000, Farms: 100}
	roles := m.desiredRoles(s, facs, 0)
	assert.Equal(t, 100, roleTotal(&roles))
	assert.GreaterOrEqual(t, roles[agents.RoleSoldier], 25, "attacker below the war soldier share")

	d := &Settlement{X: 32, Y: 32, FactionID: def.ID, Population: 100, StockFood: 1000, Farms: 100}
	droles := m.desiredRoles(d, facs, 0)
	assert.GreaterOrEqual(t, droles[agents.RoleSoldier], 20, "defender below the war soldier share")
}

func TestDesiredRolesMobilizedNeverPlannedAway(t *testing.T) {
	m := NewManager(testField(64, 64))
	facs := factions.NewManager()
	rng := entropy.NewSource(4)
	att := facs.CreateFaction(rng, 0)
	def := facs.CreateFaction(rng, 0)
	facs.DeclareWar(att.ID, def.ID, 1)

	// 40 of 100 already marched out; the plan must keep all of them soldiers
	// even though the computed floor is lower.
	s := &Settlement{X: 32, Y: 32, FactionID: att.ID, Population: 100, StockFood: 1000, Farms: 100}
	roles := m.desiredRoles(s, facs, 40)
	assert.Equal(t, 100, roleTotal(&roles))
	assert.GreaterOrEqual(t, roles[agents.RoleSoldier], 40)
}

func TestEmergencyShiftPullsIdleBeforeSoldiers(t *testing.T) {
	m := NewManager(testField(64, 64))
	var roles [agents.NumRoles]int
	roles[agents.RoleFarmer] = 10
	roles[agents.RoleGatherer] = 5
	roles[agents.RoleSoldier] = 20
	roles[agents.RoleIdle] = 65
	pop := 100

	m.emergencyFoodShift(&roles, pop, 20)

	assert.Equal(t, 40, roles[agents.RoleFarmer])
	assert.Equal(t, 30, roles[agents.RoleGatherer])
	assert.Equal(t, 20, roles[agents.RoleSoldier], "soldiers dipped below their floor")
	assert.Equal(t, pop, roleTotal(&roles))
}

func TestEmergencyShiftDrainsSoldiersAboveFloor(t *testing.T) {
	m := NewManager(testField(64, 64))
	var roles [agents.NumRoles]int
	roles[agents.RoleSoldier] = 50
	roles[agents.RoleIdle] = 0
	pop := 50

	m.emergencyFoodShift(&roles, pop, 10)

	// Emergency targets are 40% farmers and 30% gatherers of population; with
	// nobody else available the shift drains soldiers down toward the floor.
	assert.Equal(t, 20, roles[agents.RoleFarmer])
	assert.Equal(t, 15, roles[agents.RoleGatherer])
	assert.Equal(t, 15, roles[agents.RoleSoldier])
	assert.GreaterOrEqual(t, roles[agents.RoleSoldier], 10, "soldiers dipped below their floor")
	assert.Equal(t, pop, roleTotal(&roles))
}

func TestApplyRolesLocksMobilizedSoldiers(t *testing.T) {
	m := NewManager(testField(64, 64))
	pop := agents.NewPopulation()
	var members []int32
	for i := 0; i < 10; i++ {
		a := agents.Agent{X: 32, Y: 32, AgeDays: 30 * agents.DaysPerYear, SettlementID: 1, WarID: -1, WarTargetID: -1, WaterX: -1, WaterY: -1}
		if i < 3 {
			a.Army = agents.ArmyMarching
			a.Role = agents.RoleSoldier
		}
		pop.Add(a)
		members = append(members, int32(i))
	}

	s := &Settlement{ID: 1, X: 32, Y: 32, Population: 10}
	s.Roles[agents.RoleSoldier] = 3
	s.Roles[agents.RoleFarmer] = 7
	m.applyRoles(s, pop, members, 5, true)

	soldiers, farmers := 0, 0
	for i := range pop.Agents {
		switch pop.Agents[i].Role {
		case agents.RoleSoldier:
			soldiers++
		case agents.RoleFarmer:
			farmers++
		}
	}
	assert.Equal(t, 3, soldiers)
	assert.Equal(t, 7, farmers)
	for i := 0; i < 3; i++ {
		assert.Equal(t, agents.RoleSoldier, pop.Agents[i].Role, "mobilized soldier reassigned")
	}
}

func TestRotationOffsetFreezesDuringWar(t *testing.T) {
	peace1 := rotationOffset(3, 100, false)
	peace2 := rotationOffset(3, 101, false)
	assert.NotEqual(t, peace1, peace2, "offset should drift day to day in peacetime")

	war1 := rotationOffset(3, 100, true)
	war2 := rotationOffset(3, 101, true)
	assert.Equal(t, war1, war2, "offset must freeze during a war")

	require.Equal(t, rotationOffset(3, 100, false), rotationOffset(3, 100, false))
}
