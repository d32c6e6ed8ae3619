package settlements

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

const (
	// Stockpile targets per head.
	kFoodTargetPerPop = 3
	kWoodTargetPerPop = 2

	// One farm feeds roughly this many people.
	kPopPerFarm = 5

	// Haul distance from a farm to the center beyond which a granary is
	// worth building, and the granary coverage radius.
	kGranaryHaulDist = 12
	kGranaryCover    = 8

	// Water scent below which the center needs a well.
	kWellScentFloor = 0.25

	// Bounded candidate sampling for task and build sites.
	kTaskSamples      = 16
	kGatherNearRadius = 10
	kGatherFarRadius  = 25
	kWoodRadius       = 20
	kBuildRadius      = 14
)

// computeWater refreshes the settlement's water target and sufficiency from
// bounded sampling around the center.
func (m *Manager) computeWater(s *Settlement, rng *entropy.Source) {
	f := m.field
	_, best, _, _ := f.ScentAt(s.X, s.Y)
	bx, by := s.X, s.Y
	for i := 0; i < kTaskSamples; i++ {
		x := s.X + rng.Range(-16, 16)
		y := s.Y + rng.Range(-16, 16)
		if !f.InBounds(x, y) {
			continue
		}
		if _, w, _, _ := f.ScentAt(x, y); w > best {
			best, bx, by = w, x, y
		}
	}
	s.WaterSufficiency = float64(best)
	if s.WaterSufficiency > 1 {
		s.WaterSufficiency = 1
	}
	if best >= kWellScentFloor {
		s.WaterX, s.WaterY = bx, by
	} else {
		s.WaterX, s.WaterY = -1, -1
	}

	need := s.Population * kEmergencyFoodPerPop
	if need <= 0 {
		s.FoodSufficiency = 1
		return
	}
	s.FoodSufficiency = float64(s.StockFood) / float64(need)
	if s.FoodSufficiency > 1 {
		s.FoodSufficiency = 1
	}
}

// generateTasks fills the ring up to capacity following the priority ladder:
// harvests, stalled construction, granary, well, food gathering, planting,
// wood, new farms, housing, patrols. Producers stop silently when the ring
// saturates.
func (m *Manager) generateTasks(s *Settlement, si *siteInfo, rng *entropy.Source) {
	f := m.field

	// Ripe farms first; food on the ground beats everything.
	for _, ti := range si.farms {
		if s.Tasks.Free() == 0 {
			return
		}
		x, y := int(ti)%f.W, int(ti)/f.W
		if f.At(x, y).Building.HarvestReady() {
			s.Tasks.Push(agents.Task{Kind: agents.TaskHarvestFarm, X: x, Y: y})
		}
	}

	// Re-issue builds for sites whose builder never finished.
	for _, ti := range si.unfinished {
		if s.Tasks.Free() == 0 {
			return
		}
		x, y := int(ti)%f.W, int(ti)/f.W
		s.Tasks.Push(agents.Task{Kind: agents.TaskBuild, X: x, Y: y, Building: f.At(x, y).Building.Kind})
	}

	m.planGranary(s, si, rng)
	m.planWell(s, rng)

	// Food gathering, near then far, scaled to the deficit.
	deficit := s.Population*kFoodTargetPerPop - s.StockFood
	if deficit > 0 {
		m.pushGatherFood(s, rng, kGatherNearRadius, (deficit+3)/4)
		m.pushGatherFood(s, rng, kGatherFarRadius, (deficit+7)/8)
	}

	// Unplanted farms.
	for _, ti := range si.farms {
		if s.Tasks.Free() == 0 {
			return
		}
		x, y := int(ti)%f.W, int(ti)/f.W
		b := f.At(x, y).Building
		if b.Complete() && !b.Planted {
			s.Tasks.Push(agents.Task{Kind: agents.TaskPlantFarm, X: x, Y: y})
		}
	}

	if s.StockWood < s.Population*kWoodTargetPerPop {
		m.pushGatherWood(s, rng)
	}

	// New construction, wood permitting.
	farmTarget := s.Population/kPopPerFarm + 1
	if s.Farms+len(si.unfinished) < farmTarget && s.StockWood >= kFarmWoodCost {
		if m.startBuild(s, rng, terrain.BuildingFarm, kFarmWoodCost, scoreFarmSite) {
			return
		}
	}
	if s.HousingCap < s.Population && s.StockWood >= kHouseWoodCost {
		if m.startBuild(s, rng, terrain.BuildingHouse, kHouseWoodCost, scoreHouseSite) {
			return
		}
	}

	// Patrols keep idle guards and garrisoned soldiers moving the territory.
	patrols := s.Roles[agents.RoleGuard] + s.Roles[agents.RoleScout]
	for i := 0; i < patrols && s.Tasks.Free() > 0; i++ {
		x := s.X + rng.Range(-20, 20)
		y := s.Y + rng.Range(-20, 20)
		if f.InBounds(x, y) && f.At(x, y).Walkable() {
			s.Tasks.Push(agents.Task{Kind: agents.TaskPatrol, X: x, Y: y})
		}
	}
}

// planGranary pushes a granary build when some farm hauls too far from the
// center and no granary already covers it.
func (m *Manager) planGranary(s *Settlement, si *siteInfo, rng *entropy.Source) {
	if s.Tasks.Free() == 0 || s.StockWood < kGranaryWoodCost {
		return
	}
	f := m.field
	for _, ti := range si.farms {
		fx, fy := int(ti)%f.W, int(ti)/f.W
		dx, dy := fx-s.X, fy-s.Y
		if dx*dx+dy*dy <= kGranaryHaulDist*kGranaryHaulDist {
			continue
		}
		covered := false
		for _, gi := range si.granaries {
			gx, gy := int(gi)%f.W, int(gi)/f.W
			ddx, ddy := fx-gx, fy-gy
			if ddx*ddx+ddy*ddy <= kGranaryCover*kGranaryCover {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		if x, y, ok := m.sampleBuildSite(rng, fx, fy, 4, scoreHouseSite); ok {
			s.StockWood -= kGranaryWoodCost
			m.field.SetBuilding(x, y, terrain.BuildingGranary, s.ID, 0)
			s.Tasks.Push(agents.Task{Kind: agents.TaskBuild, X: x, Y: y, Building: terrain.BuildingGranary})
		}
		return
	}
}

// planWell pushes a well build when the center's water scent is unusable.
// Site choice chases the best nearby water signal, so wells cluster toward
// fresh water or extend chains off existing wells.
func (m *Manager) planWell(s *Settlement, rng *entropy.Source) {
	if s.Tasks.Free() == 0 || s.StockWood < kWellWoodCost {
		return
	}
	if _, w, _, _ := m.field.ScentAt(s.X, s.Y); w >= kWellScentFloor {
		return
	}
	if x, y, ok := m.sampleBuildSite(rng, s.X, s.Y, kBuildRadius, scoreWellSite); ok {
		s.StockWood -= kWellWoodCost
		m.field.SetBuilding(x, y, terrain.BuildingWell, s.ID, 0)
		s.Tasks.Push(agents.Task{Kind: agents.TaskBuild, X: x, Y: y, Building: terrain.BuildingWell})
	}
}

func (m *Manager) pushGatherFood(s *Settlement, rng *entropy.Source, radius, want int) {
	f := m.field
	for i := 0; i < kTaskSamples && want > 0 && s.Tasks.Free() > 0; i++ {
		x := s.X + rng.Range(-radius, radius)
		y := s.Y + rng.Range(-radius, radius)
		if !f.InBounds(x, y) || f.At(x, y).Food == 0 {
			continue
		}
		s.Tasks.Push(agents.Task{Kind: agents.TaskGatherFood, X: x, Y: y})
		want--
	}
}

func (m *Manager) pushGatherWood(s *Settlement, rng *entropy.Source) {
	f := m.field
	want := 3
	for i := 0; i < kTaskSamples && want > 0 && s.Tasks.Free() > 0; i++ {
		x := s.X + rng.Range(-kWoodRadius, kWoodRadius)
		y := s.Y + rng.Range(-kWoodRadius, kWoodRadius)
		if !f.InBounds(x, y) || f.At(x, y).Vegetation == 0 {
			continue
		}
		s.Tasks.Push(agents.Task{Kind: agents.TaskGatherWood, X: x, Y: y})
		want--
	}
}

// startBuild deducts wood, stakes out the site at stage zero, and queues the
// build. Returns false when no acceptable site was sampled.
func (m *Manager) startBuild(s *Settlement, rng *entropy.Source, kind terrain.BuildingKind, cost int, score siteScore) bool {
	x, y, ok := m.sampleBuildSite(rng, s.X, s.Y, kBuildRadius, score)
	if !ok {
		return false
	}
	s.StockWood -= cost
	m.field.SetBuilding(x, y, kind, s.ID, 0)
	s.Tasks.Push(agents.Task{Kind: agents.TaskBuild, X: x, Y: y, Building: kind})
	return true
}

type siteScore func(f *terrain.Field, x, y int) float32

func scoreFarmSite(f *terrain.Field, x, y int) float32 {
	food, water, fire, _ := f.ScentAt(x, y)
	return water*2 + food - fire*3
}

func scoreHouseSite(f *terrain.Field, x, y int) float32 {
	_, _, fire, home := f.ScentAt(x, y)
	return home*2 - fire*3
}

func scoreWellSite(f *terrain.Field, x, y int) float32 {
	_, water, fire, _ := f.ScentAt(x, y)
	return water*4 - fire
}

// sampleBuildSite draws bounded random candidates around a point and keeps
// the best-scoring empty land tile.
func (m *Manager) sampleBuildSite(rng *entropy.Source, cx, cy, radius int, score siteScore) (int, int, bool) {
	f := m.field
	bx, by := 0, 0
	bestScore := float32(0)
	found := false
	for i := 0; i < kTaskSamples; i++ {
		x := cx + rng.Range(-radius, radius)
		y := cy + rng.Range(-radius, radius)
		if !f.InBounds(x, y) {
			continue
		}
		t := f.At(x, y)
		if !t.Walkable() || t.Building.Kind != terrain.BuildingNone || t.Burning {
			continue
		}
		sc := score(f, x, y)
		if !found || sc > bestScore {
			bx, by, bestScore = x, y, sc
			found = true
		}
	}
	return bx, by, found
}

// dispatchTasks hands queued work to idle role-matching agents. Preferred
// roles get first pick, then the fallbacks, then idle hands.
func (m *Manager) dispatchTasks(pop *agents.Population) {
	// Bucket idle agents by settlement slice index and role.
	type bucket = [agents.NumRoles][]int32
	idle := make([]bucket, len(m.Settlements))
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive || a.SettlementID < 0 || a.Task.Kind != agents.TaskNone || !a.Adult() || a.WarLocked() {
			continue
		}
		si, ok := m.index[a.SettlementID]
		if !ok {
			continue
		}
		idle[si][a.Role] = append(idle[si][a.Role], int32(i))
	}

	for si := range m.Settlements {
		s := &m.Settlements[si]
		for s.Tasks.Len() > 0 {
			t, _ := s.Tasks.Pop()
			ai, ok := takeWorker(&idle[si], rolesForTask(t.Kind))
			if !ok {
				// Nobody free; drop the task, tomorrow regenerates it.
				continue
			}
			a := &pop.Agents[ai]
			a.Task = t
			a.Goal = agents.GoalWork
			a.TargetX, a.TargetY = t.X, t.Y
		}
	}
}

// rolesForTask returns the preference order of roles for a task kind.
func rolesForTask(k agents.TaskKind) []agents.Role {
	switch k {
	case agents.TaskHarvestFarm, agents.TaskPlantFarm:
		return []agents.Role{agents.RoleFarmer, agents.RoleGatherer, agents.RoleIdle}
	case agents.TaskGatherFood, agents.TaskHaulFood:
		return []agents.Role{agents.RoleGatherer, agents.RoleFarmer, agents.RoleIdle}
	case agents.TaskGatherWood, agents.TaskHaulWood:
		return []agents.Role{agents.RoleGatherer, agents.RoleBuilder, agents.RoleIdle}
	case agents.TaskBuild:
		return []agents.Role{agents.RoleBuilder, agents.RoleIdle}
	case agents.TaskPatrol:
		return []agents.Role{agents.RoleGuard, agents.RoleSoldier, agents.RoleScout}
	default:
		return nil
	}
}

func takeWorker(b *[agents.NumRoles][]int32, prefs []agents.Role) (int32, bool) {
	for _, r := range prefs {
		if n := len(b[r]); n > 0 {
			ai := b[r][n-1]
			b[r] = b[r][:n-1]
			return ai, true
		}
	}
	return 0, false
}

// runSlowEconomy applies the background drips: stock spoilage softened by
// granaries, and planted-farm growth.
func (m *Manager) runSlowEconomy(s *Settlement, si *siteInfo) {
	loss := s.StockFood / 50
	if loss > 0 {
		loss /= 1 + s.Granaries
		s.StockFood -= loss
	}

	f := m.field
	for _, ti := range si.farms {
		b := &f.Tiles[ti].Building
		if b.Planted && b.Growth < terrain.FarmGrowthDays {
			b.Growth++
		}
	}
}
