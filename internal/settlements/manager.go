package settlements

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/events"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// Manager owns settlements, the zone caches, the task economy, and the
// siege resolution. It is the single writer for all of them; every mutation
// happens inside one daily pass.
type Manager struct {
	Settlements []Settlement

	index  map[int32]int // settlement ID → slice index
	nextID int32

	zones zoneGrid
	field *terrain.Field

	// sites holds the per-settlement building scratch rebuilt daily.
	sites []siteInfo

	// borderFriction accumulates hostile-border contact per faction pair for
	// the diplomacy drift. Keyed lo<<32|hi on slice-order faction ids.
	borderFriction map[uint64]int

	// topologyDirty forces a home-field restamp after founding or capture.
	topologyDirty bool
}

// NewManager creates an empty settlement manager over a terrain field.
func NewManager(f *terrain.Field) *Manager {
	m := &Manager{
		index:          make(map[int32]int),
		nextID:         1,
		field:          f,
		borderFriction: make(map[uint64]int),
	}
	m.zones.resize(f.W, f.H)
	return m
}

// Get returns the settlement with the given id, or nil for stale ids.
func (m *Manager) Get(id int32) *Settlement {
	i, ok := m.index[id]
	if !ok {
		return nil
	}
	return &m.Settlements[i]
}

// Count returns the number of settlements.
func (m *Manager) Count() int {
	return len(m.Settlements)
}

// UpdateDaily runs the full micro-mode daily pass in fixed order: zone
// upkeep, territory, density, founding, assignment, pressure, roles, sieges,
// evolution, consequences, then the task economy.
func (m *Manager) UpdateDaily(pop *agents.Population, facs *factions.Manager, rng *entropy.Source, day int32, ev *events.Log) {
	m.zones.resize(m.field.W, m.field.H)
	m.ensureFactions(facs, rng, day)
	facs.ResetAggregates()

	m.scanBuildingsAndOwnership(facs)
	m.computeDensity(pop)
	m.updateFounding(pop, facs, rng, day, ev)
	m.reassignAgents(pop)

	for i := range m.Settlements {
		m.computeWater(&m.Settlements[i], rng)
	}
	m.computeBorderPressure(facs)
	m.driftDiplomacy(facs, rng, day)

	m.RecomputeSettlementPopAndRoles(pop, facs, day)
	m.UpdateArmiesAndSieges(pop, facs, rng, day, ev)
	m.evolveSettlements(facs, day)
	m.applyConflictConsequences(pop, facs, rng, day, ev)

	for i := range m.Settlements {
		m.generateTasks(&m.Settlements[i], &m.sites[i], rng)
	}
	m.dispatchTasks(pop)
	for i := range m.Settlements {
		m.runSlowEconomy(&m.Settlements[i], &m.sites[i])
	}

	m.reportToFactions(facs)
	m.refreshHomeField()
	pop.Compact()
}

// UpdateDailyMacro is the aggregate counterpart covering a multi-day stretch.
// Founding and per-agent work are suspended; production, consumption, and
// warfare run on settlement aggregates.
func (m *Manager) UpdateDailyMacro(facs *factions.Manager, rng *entropy.Source, day int32, days int, ev *events.Log) {
	m.zones.resize(m.field.W, m.field.H)
	m.ensureFactions(facs, rng, day)
	facs.ResetAggregates()

	m.scanBuildingsAndOwnership(facs)
	m.computeDensityMacro()

	for i := range m.Settlements {
		m.computeWater(&m.Settlements[i], rng)
	}
	m.computeBorderPressure(facs)
	m.driftDiplomacy(facs, rng, day)

	m.RecomputeRolesMacro(facs)
	m.UpdateArmiesAndSiegesMacro(facs, rng, day, days, ev)
	m.evolveSettlements(facs, day)
	for i := range m.Settlements {
		m.checkRebellion(&m.Settlements[i], facs, rng, day, ev)
		m.runMacroEconomy(&m.Settlements[i], days)
	}

	m.reportToFactions(facs)
	m.refreshHomeField()
}

// ensureFactions gives every settlement with a dead or missing faction
// reference a fresh polity. Stale ids are normal after load or capture races,
// never an error.
func (m *Manager) ensureFactions(facs *factions.Manager, rng *entropy.Source, day int32) {
	for i := range m.Settlements {
		s := &m.Settlements[i]
		if s.FactionID < 0 || facs.Get(s.FactionID) == nil {
			s.FactionID = facs.CreateFaction(rng, day).ID
		}
	}
}

// reassignAgents repairs stale settlement references and assimilates
// unaffiliated agents standing in owned territory.
func (m *Manager) reassignAgents(pop *agents.Population) {
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive {
			continue
		}
		if a.SettlementID >= 0 && m.Get(a.SettlementID) == nil {
			a.SettlementID = -1
			a.Role = agents.RoleIdle
			a.Task = agents.Task{}
		}
		if a.SettlementID < 0 {
			if owner := m.zones.ownerOf(m.zones.tileZone(a.X, a.Y)); owner >= 0 {
				a.SettlementID = owner
				a.Role = agents.RoleIdle
			}
		}
	}
}

// computeBorderPressure scans touched zones for foreign neighbors, feeding
// each settlement's border pressure, the zone conflict cache, and the
// faction-pair friction counts used by diplomacy drift.
func (m *Manager) computeBorderPressure(facs *factions.Manager) {
	clear(m.borderFriction)
	contact := make([]int, len(m.Settlements))

	for _, zi32 := range m.zones.touched {
		zi := int(zi32)
		s := m.Get(m.zones.ownerOf(zi))
		if s == nil {
			continue
		}
		zx, zy := zi%m.zones.w, zi/m.zones.w
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			ni := m.zones.index(zx+d[0], zy+d[1])
			if ni < 0 {
				continue
			}
			n := m.Get(m.zones.ownerOf(ni))
			if n == nil || n.FactionID == s.FactionID {
				continue
			}
			rel := facs.RelationTypeOf(s.FactionID, n.FactionID)
			if rel == factions.RelationAlly {
				continue
			}
			si := m.index[s.ID]
			contact[si]++
			if rel == factions.RelationHostile || facs.AtWar(s.FactionID, n.FactionID) {
				m.zones.addConflict(zi, 1)
				m.borderFriction[frictionKey(s.FactionID, n.FactionID)]++
			}
		}
	}

	for i := range m.Settlements {
		s := &m.Settlements[i]
		if s.TerritoryZones > 0 {
			s.BorderPressure = float64(contact[i]) / float64(s.TerritoryZones)
			if s.BorderPressure > 1 {
				s.BorderPressure = 1
			}
		} else {
			s.BorderPressure = 0
		}
	}
}

func frictionKey(a, b int32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// driftDiplomacy erodes relations along hostile borders and lets warlike
// factions tip fully soured relations into open war. Friendly courts drift
// warmer slowly.
func (m *Manager) driftDiplomacy(facs *factions.Manager, rng *entropy.Source, day int32) {
	for key, friction := range m.borderFriction {
		a, b := int32(key>>32), int32(uint32(key))
		if friction > 0 && rng.Chance(0.3) {
			facs.AdjustRelation(a, b, -1)
		}
		if facs.AtWar(a, b) {
			continue
		}
		if facs.Relation(a, b) <= factions.RelationMin+10 {
			for _, id := range [2]int32{a, b} {
				f := facs.Get(id)
				if f == nil {
					continue
				}
				if f.Traits.Aggression*f.Influence.Aggression > 0.55 && rng.Chance(0.05) {
					other := a
					if id == a {
						other = b
					}
					facs.DeclareWar(id, other, day)
					break
				}
			}
		}
	}

	// Mutual-diplomat pairs mend fences even across borders.
	for i := range facs.Factions {
		for j := i + 1; j < len(facs.Factions); j++ {
			fa, fb := &facs.Factions[i], &facs.Factions[j]
			if facs.AtWar(fa.ID, fb.ID) {
				continue
			}
			if fa.Traits.Diplomacy+fb.Traits.Diplomacy > 1.3 && rng.Chance(0.1) {
				facs.AdjustRelation(fa.ID, fb.ID, 1)
			}
		}
	}
}

// runMacroEconomy applies aggregate production and consumption over a stretch
// of days: farmers and gatherers feed the stockpile, everyone eats from it.
func (m *Manager) runMacroEconomy(s *Settlement, days int) {
	produced := s.Roles[agents.RoleFarmer]*2 + s.Roles[agents.RoleGatherer]
	s.StockFood += produced * days
	eaten := s.Population * days
	if eaten > s.StockFood {
		eaten = s.StockFood
	}
	s.StockFood -= eaten

	s.StockWood += s.Roles[agents.RoleBuilder] * days / 2

	loss := s.StockFood * days / 50
	if loss > 0 {
		loss /= 1 + s.Granaries
		s.StockFood -= loss
	}
}

// reportToFactions pushes per-settlement aggregates into the faction stats
// and refreshes leader influence.
func (m *Manager) reportToFactions(facs *factions.Manager) {
	for i := range m.Settlements {
		s := &m.Settlements[i]
		facs.ReportSettlement(s.FactionID, s.Population, s.StockFood, s.StockWood, s.TechTier)
	}

	// Faction stability follows its settlements' average.
	for i := range facs.Factions {
		f := &facs.Factions[i]
		sum, n := 0.0, 0
		for j := range m.Settlements {
			if m.Settlements[j].FactionID == f.ID {
				sum += m.Settlements[j].Stability
				n++
			}
		}
		if n > 0 {
			f.Stability = sum / float64(n)
		}
	}
	facs.RecomputeInfluence()
}

// refreshHomeField restamps the home-affinity overlay when settlement
// topology or buildings changed.
func (m *Manager) refreshHomeField() {
	if !m.topologyDirty && !m.field.ConsumeBuildingDirty() {
		return
	}
	m.topologyDirty = false
	m.field.ResetHomeScent()
	for i := range m.Settlements {
		s := &m.Settlements[i]
		radius := 12
		switch s.Tier {
		case TierTown:
			radius = 18
		case TierCity:
			radius = 24
		}
		m.field.StampHomeScent(s.X, s.Y, radius, 1)
	}
}

// ZoneOwnerAt returns the owning settlement id for the zone containing a
// tile, -1 when unclaimed or the cache slot is stale.
func (m *Manager) ZoneOwnerAt(x, y int) int32 {
	return m.zones.ownerOf(m.zones.tileZone(x, y))
}

// ZonePopulationAt returns the zone population density at a tile, 0 when the
// cache slot is stale.
func (m *Manager) ZonePopulationAt(x, y int) int32 {
	return m.zones.popOf(m.zones.tileZone(x, y))
}

// ZoneConflictAt returns the zone conflict intensity at a tile, 0 when the
// cache slot is stale.
func (m *Manager) ZoneConflictAt(x, y int) float32 {
	return m.zones.conflictOf(m.zones.tileZone(x, y))
}

// --- TownServices (agent-facing) ---

// Center returns a settlement's town center.
func (m *Manager) Center(settlementID int32) (int, int, bool) {
	s := m.Get(settlementID)
	if s == nil {
		return 0, 0, false
	}
	return s.X, s.Y, true
}

// DepositFood adds hauled food to a settlement stockpile.
func (m *Manager) DepositFood(settlementID int32, n int) {
	if s := m.Get(settlementID); s != nil && n > 0 {
		s.StockFood += n
	}
}

// DepositWood adds hauled wood to a settlement stockpile.
func (m *Manager) DepositWood(settlementID int32, n int) {
	if s := m.Get(settlementID); s != nil && n > 0 {
		s.StockWood += n
	}
}

// ConsumeFood draws from a stockpile, reporting false when it runs short.
func (m *Manager) ConsumeFood(settlementID int32, n int) bool {
	s := m.Get(settlementID)
	if s == nil || s.StockFood < n {
		return false
	}
	s.StockFood -= n
	return true
}

// AdvanceBuilding progresses construction at a site by one stage, reporting
// whether the building is now complete.
func (m *Manager) AdvanceBuilding(x, y int) bool {
	if !m.field.InBounds(x, y) {
		return true
	}
	b := m.field.At(x, y).Building
	if b.Kind == terrain.BuildingNone {
		return true
	}
	if b.Complete() {
		return true
	}
	m.field.SetBuilding(x, y, b.Kind, b.SettlementID, b.Stage+1)
	return b.Stage+1 >= terrain.BuildStages
}

// --- MacroWorld (cohort-model facing) ---

// SettlementIDs lists every settlement id.
func (m *Manager) SettlementIDs() []int32 {
	ids := make([]int32, len(m.Settlements))
	for i := range m.Settlements {
		ids[i] = m.Settlements[i].ID
	}
	return ids
}

// NearestSettlement returns the closest settlement id to a tile, or -1.
func (m *Manager) NearestSettlement(x, y int) int32 {
	best, bestD2 := int32(-1), 0
	for i := range m.Settlements {
		s := &m.Settlements[i]
		dx, dy := s.X-x, s.Y-y
		d2 := dx*dx + dy*dy
		if best < 0 || d2 < bestD2 {
			best, bestD2 = s.ID, d2
		}
	}
	return best
}

// Bins returns a settlement's cohort bins, nil for stale ids.
func (m *Manager) Bins(settlementID int32) *agents.CohortBins {
	s := m.Get(settlementID)
	if s == nil {
		return nil
	}
	return &s.Bins
}

// Conditions exposes a settlement's demographic signals to the macro model.
func (m *Manager) Conditions(settlementID int32) agents.MacroConditions {
	s := m.Get(settlementID)
	if s == nil {
		return agents.MacroConditions{FoodSufficiency: 0.5, WaterSufficiency: 0.5}
	}
	_, _, fire, _ := m.field.ScentAt(s.X, s.Y)
	return agents.MacroConditions{
		FoodSufficiency:  s.FoodSufficiency,
		WaterSufficiency: s.WaterSufficiency,
		FireThreat:       fire > 0.3,
	}
}

// NextID exposes the id counter for persistence.
func (m *Manager) NextID() int32 { return m.nextID }

// RestoreManager rebuilds a manager around a terrain field from persisted
// settlements. Zone caches start cold; the first daily pass recomputes them.
func RestoreManager(f *terrain.Field, list []Settlement, nextID int32) *Manager {
	m := NewManager(f)
	m.Settlements = list
	m.nextID = nextID
	for i := range m.Settlements {
		m.index[m.Settlements[i].ID] = i
		m.sites = append(m.sites, siteInfo{})
	}
	m.topologyDirty = true
	return m
}
