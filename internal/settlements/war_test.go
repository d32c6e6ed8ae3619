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

func TestSiegeClearedCoreForcesCapture(t *testing.T) {
	m := NewManager(testField(64, 64))
	s := &Settlement{ID: 1, Name: "Eastmoor", X: 32, Y: 32, FactionID: 1, FoodSufficiency: 1, CaptureFactionID: -1}

	// Ten attackers on an undefended core. The core-clear counter forces full
	// capture within its window regardless of the incremental rate.
	for day := 0; day < kCoreClearCapture; day++ {
		s.SiegeDays++
		m.resolveSiege(s, 10, 0, 10, 0, 2, 1)
	}
	assert.Equal(t, 100, s.CaptureProgress)
	assert.Equal(t, int32(2), s.CaptureFactionID)
}

func TestSiegeProgressCappedWhileDefended(t *testing.T) {
	m := NewManager(testField(64, 64))
	s := &Settlement{ID: 1, X: 32, Y: 32, FactionID: 1, FoodSufficiency: 1, CaptureFactionID: -1}

	for day := 0; day < 60; day++ {
		s.SiegeDays++
		m.resolveSiege(s, 10, 1, 10, 5, 2, 1)
		require.GreaterOrEqual(t, s.CaptureProgress, 0)
		require.LessOrEqual(t, s.CaptureProgress, 99, "progress passed 99 while defenders held the core")
	}

	// The moment the garrison abandons the core, occupation can finish.
	for day := 0; day < kCoreClearCapture; day++ {
		s.SiegeDays++
		m.resolveSiege(s, 10, 0, 10, 0, 2, 1)
	}
	assert.Equal(t, 100, s.CaptureProgress)
}

func TestSiegeDefenderAdvantageDecays(t *testing.T) {
	m := NewManager(testField(64, 64))
	s := &Settlement{ID: 1, X: 32, Y: 32, FoodSufficiency: 1, CaptureProgress: 50, CaptureFactionID: 2}

	// Defenders at double the attacker core strength push progress back down,
	// never below zero.
	for day := 0; day < 20; day++ {
		s.SiegeDays++
		m.resolveSiege(s, 2, 4, 5, 10, -1, 1)
	}
	assert.Zero(t, s.CaptureProgress)
}

func TestSiegeHungerAccelerates(t *testing.T) {
	m := NewManager(testField(64, 64))
	fed := &Settlement{ID: 1, X: 32, Y: 32, FoodSufficiency: 1, CaptureFactionID: -1}
	hungry := &Settlement{ID: 2, X: 32, Y: 32, FoodSufficiency: 0.2, CaptureFactionID: -1}

	fed.SiegeDays, hungry.SiegeDays = 1, 1
	m.resolveSiege(fed, 5, 1, 5, 1, 2, 1)
	m.resolveSiege(hungry, 5, 1, 5, 1, 2, 1)
	assert.Greater(t, hungry.CaptureProgress, fed.CaptureProgress)
}

func TestOverwhelmForcesCapture(t *testing.T) {
	m := NewManager(testField(64, 64))
	s := &Settlement{ID: 1, X: 32, Y: 32, FoodSufficiency: 1, CaptureFactionID: -1}

	// Attackers never reach the core but hold the countryside at three times
	// the garrison strength. Sustained occupation wins eventually.
	for day := 0; day < kOverwhelmCapture; day++ {
		s.SiegeDays++
		m.resolveSiege(s, 0, 3, 30, 10, 2, 1)
	}
	assert.Equal(t, 100, s.CaptureProgress)
}

func TestCaptureTransfersSettlement(t *testing.T) {
	m := NewManager(testField(64, 64))
	facs := factions.NewManager()
	rng := entropy.NewSource(9)
	att := facs.CreateFaction(rng, 0)
	def := facs.CreateFaction(rng, 0)
	facs.DeclareWar(att.ID, def.ID, 1)

	pop := agents.NewPopulation()
	ev := &events.Log{}
	s := &Settlement{
		ID: 1, Name: "Eastmoor", X: 32, Y: 32,
		FactionID:        def.ID,
		CaptureProgress:  100,
		CaptureFactionID: att.ID,
		SiegeDays:        12,
		WarPressure:      1,
		Stability:        0.8,
	}
	m.Settlements = append(m.Settlements, *s)
	m.index[1] = 0
	m.sites = append(m.sites, siteInfo{})
	got := &m.Settlements[0]

	m.capture(got, pop, facs, 30, ev)

	assert.Equal(t, att.ID, got.FactionID)
	assert.Zero(t, got.CaptureProgress)
	assert.Equal(t, int32(-1), got.CaptureFactionID)
	assert.Zero(t, got.SiegeDays)
	assert.Zero(t, got.WarPressure)
	assert.InDelta(t, 0.35, got.Stability, 1e-9)
	require.NotEmpty(t, ev.Events)
	assert.Equal(t, "capture", ev.Events[len(ev.Events)-1].Category)
}

func TestKillSoldiersBinsConservesConsistency(t *testing.T) {
	s := &Settlement{}
	s.Roles[agents.RoleSoldier] = 10
	s.Bins[0][1] = 4
	s.Bins[1][2] = 4
	s.Bins[0][3] = 2
	before := s.Bins.Total()

	killSoldiers(s, 6)
	assert.Equal(t, 4, s.Roles[agents.RoleSoldier])
	assert.Equal(t, before-6, s.Bins.Total())

	// Over-kill drains what exists and stops.
	killSoldiers(s, 100)
	assert.Zero(t, s.Roles[agents.RoleSoldier])
	assert.Zero(t, s.Bins.Total())
	for sex := 0; sex < 2; sex++ {
		for b := 0; b < agents.NumAgeBins; b++ {
			assert.GreaterOrEqual(t, s.Bins[sex][b], int32(0))
		}
	}
}

func TestNextTargetPrefersBigCloseCapitals(t *testing.T) {
	m := NewManager(testField(64, 64))
	facs := factions.NewManager()
	rng := entropy.NewSource(9)
	att := facs.CreateFaction(rng, 0)
	def := facs.CreateFaction(rng, 0)
	w := facs.DeclareWar(att.ID, def.ID, 1)

	m.Settlements = append(m.Settlements,
		Settlement{ID: 1, X: 10, Y: 10, FactionID: def.ID, Population: 20},
		Settlement{ID: 2, X: 12, Y: 10, FactionID: def.ID, Population: 80, Capital: true},
		Settlement{ID: 3, X: 11, Y: 10, FactionID: att.ID, Population: 500},
	)
	for i := range m.Settlements {
		m.index[m.Settlements[i].ID] = i
	}

	target := m.nextTarget(facs, w, att.ID, 10, 10)
	require.NotNil(t, target)
	assert.Equal(t, int32(2), target.ID, "should pick the populous capital, never a friendly settlement")
}
