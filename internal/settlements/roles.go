package settlements

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
)

// Role allocation fractions and floors.
const (
	kFarmerFrac   = 0.30
	kGathererFrac = 0.20
	kBuilderFrac  = 0.10
	kGuardFrac    = 0.05
	kSoldierFrac  = 0.05
	kScoutFrac    = 0.05

	kFarmersPerFarm = 3

	// War floors as population fractions, attacker vs defender.
	kAttackerSoldierFrac = 0.25
	kDefenderSoldierFrac = 0.20

	// Emergency targets when the stockpile runs dry.
	kEmergencyFarmerFrac   = 0.40
	kEmergencyGathererFrac = 0.30
)

// Trim order when desired counts exceed population, and the pull order used
// to restore a violated war floor. Both are fixed policies; war-locked
// soldiers are never trimmed.
var (
	trimOrder    = []agents.Role{agents.RoleSoldier, agents.RoleGuard, agents.RoleScout, agents.RoleBuilder, agents.RoleFarmer, agents.RoleGatherer}
	restoreOrder = []agents.Role{agents.RoleIdle, agents.RoleScout, agents.RoleGuard, agents.RoleBuilder, agents.RoleGatherer, agents.RoleFarmer}
)

// RecomputeSettlementPopAndRoles refreshes every settlement's population from
// agent assignments and re-partitions it into roles. After this pass the role
// counts of any populated settlement sum exactly to its population.
func (m *Manager) RecomputeSettlementPopAndRoles(pop *agents.Population, facs *factions.Manager, day int32) {
	members := make([][]int32, len(m.Settlements))
	locked := make([]int, len(m.Settlements))
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive || a.SettlementID < 0 {
			continue
		}
		si, ok := m.index[a.SettlementID]
		if !ok {
			continue
		}
		members[si] = append(members[si], int32(i))
		if a.WarLocked() {
			locked[si]++
		}
	}

	for si := range m.Settlements {
		s := &m.Settlements[si]
		s.Population = len(members[si])
		atWar := len(facs.WarsOf(s.FactionID)) > 0
		s.Roles = m.desiredRoles(s, facs, locked[si])
		m.applyRoles(s, pop, members[si], day, atWar)
	}
}

// RecomputeRolesMacro is the aggregate counterpart: population comes from the
// cohort bins and the mobilized macro army stands in for war-locked soldiers.
// It applies the same war-floor protection as the micro path.
func (m *Manager) RecomputeRolesMacro(facs *factions.Manager) {
	for si := range m.Settlements {
		s := &m.Settlements[si]
		s.Population = s.Bins.Total()
		s.Roles = m.desiredRoles(s, facs, s.ArmySoldiers)
	}
}

// desiredRoles partitions a settlement's population into role counts. The
// base percentages are modulated by farm capacity, housing shortfall, fire
// proximity, border and war pressure, tier, and alliances; an active war
// imposes a soldier floor that already-mobilized troops can only raise.
func (m *Manager) desiredRoles(s *Settlement, facs *factions.Manager, warLocked int) [agents.NumRoles]int {
	var roles [agents.NumRoles]int
	pop := s.Population
	if pop == 0 {
		return roles
	}

	fac := facs.Get(s.FactionID)
	_, _, fireRisk, _ := m.field.ScentAt(s.X, s.Y)

	farmers := int(float64(pop) * kFarmerFrac)
	if cap := (s.Farms + 1) * kFarmersPerFarm; farmers > cap {
		farmers = cap
	}
	gatherers := int(float64(pop) * kGathererFrac)
	if fireRisk > 0.3 {
		// Fields near fire get abandoned for foraging.
		shift := farmers / 4
		farmers -= shift
		gatherers += shift
	}

	builders := int(float64(pop) * kBuilderFrac)
	if s.HousingCap < pop {
		builders += pop / 20
	}

	guards := int(float64(pop)*kGuardFrac + s.BorderPressure*float64(pop)*0.05)
	guards += int(s.Tier) // bigger places police more

	soldiers := int(float64(pop)*kSoldierFrac + s.WarPressure*float64(pop)*0.10)

	scouts := int(float64(pop) * kScoutFrac)
	if fac != nil {
		scouts = int(float64(scouts) * fac.Influence.Expansion)
	}

	// War floor: attackers field a larger share than defenders, allies soften
	// the requirement, and mobilized soldiers can never be planned away.
	floor := 0
	if wars := facs.WarsOf(s.FactionID); len(wars) > 0 {
		frac := kDefenderSoldierFrac
		for _, w := range wars {
			if w.Side(s.FactionID) > 0 {
				frac = kAttackerSoldierFrac
				break
			}
		}
		allies := 0
		for i := range facs.Factions {
			other := facs.Factions[i].ID
			if other != s.FactionID && facs.RelationTypeOf(s.FactionID, other) == factions.RelationAlly {
				allies++
			}
		}
		floor = int(float64(pop) * frac / (1 + 0.2*float64(allies)))
	}
	if floor < warLocked {
		floor = warLocked
	}
	if soldiers < floor {
		soldiers = floor
	}

	roles[agents.RoleFarmer] = farmers
	roles[agents.RoleGatherer] = gatherers
	roles[agents.RoleBuilder] = builders
	roles[agents.RoleGuard] = guards
	roles[agents.RoleSoldier] = soldiers
	roles[agents.RoleScout] = scouts
	roles[agents.RoleIdle] = 0

	assigned := pop - sumRoles(&roles)
	roles[agents.RoleIdle] = assigned // may be negative before trimming

	if s.StockFood < kEmergencyFoodPerPop*pop {
		m.emergencyFoodShift(&roles, pop, floor)
	}

	m.trimOverflow(&roles, pop, warLocked, floor)
	return roles
}

// emergencyFoodShift pushes labor into food production when reserves run
// critically low, draining idle hands first, then the other categories, while
// never dipping soldiers below the war floor.
func (m *Manager) emergencyFoodShift(roles *[agents.NumRoles]int, pop, floor int) {
	wantFarmers := int(float64(pop) * kEmergencyFarmerFrac)
	wantGatherers := int(float64(pop) * kEmergencyGathererFrac)

	pull := func(need int, into agents.Role) {
		sources := []agents.Role{agents.RoleIdle, agents.RoleBuilder, agents.RoleScout, agents.RoleGuard, agents.RoleSoldier}
		for _, src := range sources {
			for need > 0 {
				avail := roles[src]
				if src == agents.RoleSoldier {
					avail -= floor
				}
				if avail <= 0 {
					break
				}
				roles[src]--
				roles[into]++
				need--
			}
		}
	}
	pull(wantFarmers-roles[agents.RoleFarmer], agents.RoleFarmer)
	pull(wantGatherers-roles[agents.RoleGatherer], agents.RoleGatherer)
}

// trimOverflow shrinks over-assigned categories until the counts sum to the
// population, then restores a violated soldier floor by pulling from the
// civilian categories. Idle absorbs whatever remains.
func (m *Manager) trimOverflow(roles *[agents.NumRoles]int, pop, warLocked, floor int) {
	for sumRoles(roles)+roles[agents.RoleIdle] > pop || roles[agents.RoleIdle] < 0 {
		over := sumRoles(roles) + roles[agents.RoleIdle] - pop
		if roles[agents.RoleIdle] < 0 {
			over = -roles[agents.RoleIdle]
			roles[agents.RoleIdle] = 0
		}
		if over <= 0 {
			break
		}
		for _, r := range trimOrder {
			for over > 0 {
				low := 0
				if r == agents.RoleSoldier {
					low = warLocked
				}
				if roles[r] <= low {
					break
				}
				roles[r]--
				over--
			}
		}
		if over > 0 {
			// Nothing left to trim; population itself shrank. Give up and
			// let idle go to zero.
			break
		}
	}

	if roles[agents.RoleSoldier] < floor {
		need := floor - roles[agents.RoleSoldier]
		for _, r := range restoreOrder {
			for need > 0 && roles[r] > 0 {
				roles[r]--
				roles[agents.RoleSoldier]++
				need--
			}
		}
	}

	roles[agents.RoleIdle] = pop - sumRoles(roles)
	if roles[agents.RoleIdle] < 0 {
		roles[agents.RoleIdle] = 0
	}
}

func sumRoles(roles *[agents.NumRoles]int) int {
	n := 0
	for r := 0; r < agents.NumRoles; r++ {
		if agents.Role(r) == agents.RoleIdle {
			continue
		}
		n += roles[r]
	}
	return n
}

// applyRoles maps the settlement's members onto the planned role counts.
// War-locked agents keep their soldier role and consume soldier quota; the
// rest are laid out in a rotation whose offset is a stable per-day hash, so
// churn stays bounded. During a war the offset freezes entirely.
func (m *Manager) applyRoles(s *Settlement, pop *agents.Population, members []int32, day int32, atWar bool) {
	quota := s.Roles
	free := members[:0:0]
	for _, ai := range members {
		a := &pop.Agents[ai]
		if a.WarLocked() {
			a.Role = agents.RoleSoldier
			if quota[agents.RoleSoldier] > 0 {
				quota[agents.RoleSoldier]--
			}
			continue
		}
		free = append(free, ai)
	}
	if len(free) == 0 {
		return
	}

	offset := rotationOffset(s.ID, day, atWar) % len(free)
	order := []agents.Role{agents.RoleFarmer, agents.RoleGatherer, agents.RoleBuilder, agents.RoleGuard, agents.RoleSoldier, agents.RoleScout}
	ri := 0
	for k := 0; k < len(free); k++ {
		a := &pop.Agents[free[(offset+k)%len(free)]]
		for ri < len(order) && quota[order[ri]] == 0 {
			ri++
		}
		if ri < len(order) {
			newRole := order[ri]
			if a.Role != newRole && a.Task.Kind != agents.TaskNone {
				a.Task = agents.Task{}
			}
			a.Role = newRole
			quota[newRole]--
		} else {
			a.Role = agents.RoleIdle
		}
	}
}

// rotationOffset is a deterministic hash of settlement id and day; wars pin
// the offset so assignments stop rotating under fire.
func rotationOffset(id, day int32, atWar bool) int {
	d := uint64(uint32(day))
	if atWar {
		d = 0
	}
	h := uint64(uint32(id))*0x9E3779B97F4A7C15 ^ d*0xBF58476D1CE4E5B9
	h ^= h >> 31
	return int(h % 1_000_003)
}
