package settlements

import (
	"fmt"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/events"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
)

const (
	// Capture pacing.
	kCaptureBaseRate   = 2
	kCaptureSiegeBonus = 5 // siege days per extra point of rate
	kCaptureHungry     = 2 // bonus rate when the defender's supply is short
	kCaptureDecay      = 5
	kCoreClearCapture  = 7  // days with a cleared core forcing capture
	kOverwhelmCapture  = 14 // days of overwhelming force forcing capture
	kOverwhelmRatio    = 3

	// Macro march speed, tiles per day.
	kMarchSpeed = 8
)

// forces tallies the soldiers physically inside one settlement's territory
// for a single day.
type forces struct {
	defTerr int
	defCore int
	atkTerr map[int32]int // enemy faction id → soldiers in territory
	atkCore map[int32]int // enemy faction id → soldiers on the center tile
}

func (f *forces) atkTerrTotal() int {
	n := 0
	for _, v := range f.atkTerr {
		n += v
	}
	return n
}

func (f *forces) atkCoreTotal() int {
	n := 0
	for _, v := range f.atkCore {
		n += v
	}
	return n
}

// claimant returns the enemy faction with the largest force on the center
// tile, or -1.
func (f *forces) claimant() int32 {
	best, bestN := int32(-1), 0
	for fid, n := range f.atkCore {
		if n > bestN {
			best, bestN = fid, n
		}
	}
	return best
}

// UpdateArmiesAndSieges mobilizes soldiers for active wars, marches them at
// enemy settlements, and resolves siege and capture per settlement from the
// soldiers physically present in its territory.
func (m *Manager) UpdateArmiesAndSieges(pop *agents.Population, facs *factions.Manager, rng *entropy.Source, day int32, ev *events.Log) {
	m.mobilize(pop, facs)

	tallies := m.tallyForces(pop, facs)
	for si := range m.Settlements {
		s := &m.Settlements[si]
		f := tallies[si]
		if f == nil || f.atkTerrTotal() == 0 {
			// Peace, or the siege lifted. Pressure and progress bleed off.
			s.SiegeDays = 0
			s.CoreClearDays = 0
			s.OverwhelmDays = 0
			s.WarPressure *= 0.8
			if s.CaptureProgress > 0 {
				s.CaptureProgress -= kCaptureDecay
				if s.CaptureProgress <= 0 {
					s.CaptureProgress = 0
					s.CaptureFactionID = -1
				}
			}
			continue
		}

		s.SiegeDays++
		s.WarPressure = float64(f.atkTerrTotal()) * 2 / float64(max(1, s.Population))
		if s.WarPressure > 1 {
			s.WarPressure = 1
		}

		m.resolveSiege(s, f.atkCoreTotal(), f.defCore, f.atkTerrTotal(), f.defTerr, f.claimant(), 1)
		if s.CaptureProgress >= 100 && s.CaptureFactionID >= 0 {
			m.capture(s, pop, facs, day, ev)
		}
	}

	m.endDeadWars(facs, pop, day, ev)
}

// resolveSiege advances one settlement's capture progress by the shared rule,
// used by both the micro and macro paths. Progress stays capped below 100
// while defenders hold the core, unless sustained occupation forces it.
func (m *Manager) resolveSiege(s *Settlement, atkCore, defCore, atkTerr, defTerr int, claimant int32, days int) {
	switch {
	case atkCore > defCore:
		rate := kCaptureBaseRate + s.SiegeDays/kCaptureSiegeBonus
		if s.FoodSufficiency < 0.5 {
			rate += kCaptureHungry
		}
		s.CaptureProgress += rate * days
	case defCore >= 2*atkCore:
		s.CaptureProgress -= kCaptureDecay * days
	}

	if claimant >= 0 {
		s.CaptureFactionID = claimant
	}

	if atkCore > 0 && defCore == 0 {
		s.CoreClearDays += days
	} else {
		s.CoreClearDays = 0
	}
	if atkTerr >= kOverwhelmRatio*max(1, defTerr) {
		s.OverwhelmDays += days
	} else {
		s.OverwhelmDays = 0
	}

	if s.CaptureProgress < 0 {
		s.CaptureProgress = 0
	}
	if s.CaptureProgress > 100 {
		s.CaptureProgress = 100
	}
	if defCore > 0 && s.CaptureProgress > 99 {
		s.CaptureProgress = 99
	}
	if s.CaptureFactionID >= 0 &&
		(s.CoreClearDays >= kCoreClearCapture || s.OverwhelmDays >= kOverwhelmCapture) {
		s.CaptureProgress = 100
	}
}

// mobilize drafts unmobilized soldiers of warring factions into armies and
// keeps marching orders fresh. Arrival in the target's territory flips the
// army to besieging.
func (m *Manager) mobilize(pop *agents.Population, facs *factions.Manager) {
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive || a.Role != agents.RoleSoldier || a.SettlementID < 0 {
			continue
		}
		home := m.Get(a.SettlementID)
		if home == nil {
			continue
		}
		wars := facs.WarsOf(home.FactionID)
		if len(wars) == 0 {
			continue
		}

		if a.Army == agents.ArmyNone {
			w := wars[0]
			target := m.nextTarget(facs, w, home.FactionID, home.X, home.Y)
			if target == nil {
				continue
			}
			a.WarID = w.ID
			a.Army = agents.ArmyMarching
			a.WarTargetID = target.ID
		}

		target := m.Get(a.WarTargetID)
		if target == nil || !facs.AtWar(home.FactionID, target.FactionID) {
			// Target gone or flipped to our side mid-march; retarget.
			w := facs.WarByID(a.WarID)
			if w == nil {
				demobilizeAgent(a)
				continue
			}
			target = m.nextTarget(facs, w, home.FactionID, a.X, a.Y)
			if target == nil {
				demobilizeAgent(a)
				continue
			}
			a.WarTargetID = target.ID
		}

		// March order, re-issued daily so sieges survive task churn.
		a.Task = agents.Task{Kind: agents.TaskPatrol, X: target.X, Y: target.Y}
		a.Goal = agents.GoalWork
		a.TargetX, a.TargetY = target.X, target.Y
		if m.zones.ownerOf(m.zones.tileZone(a.X, a.Y)) == target.ID {
			a.Army = agents.ArmyBesieging
		} else {
			a.Army = agents.ArmyMarching
		}
	}
}

// tallyForces classifies every soldier by the settlement whose territory it
// stands in. Returns one tally per settlement slice index, nil when nothing
// relevant happened there.
func (m *Manager) tallyForces(pop *agents.Population, facs *factions.Manager) []*forces {
	tallies := make([]*forces, len(m.Settlements))
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive || a.Role != agents.RoleSoldier || a.SettlementID < 0 {
			continue
		}
		home := m.Get(a.SettlementID)
		if home == nil {
			continue
		}
		hereID := m.zones.ownerOf(m.zones.tileZone(a.X, a.Y))
		si, ok := m.index[hereID]
		if !ok {
			continue
		}
		here := &m.Settlements[si]

		f := tallies[si]
		if f == nil {
			f = &forces{atkTerr: map[int32]int{}, atkCore: map[int32]int{}}
			tallies[si] = f
		}
		core := a.X == here.X && a.Y == here.Y
		switch {
		case home.FactionID == here.FactionID:
			f.defTerr++
			if core {
				f.defCore++
			}
		case facs.AtWar(home.FactionID, here.FactionID):
			f.atkTerr[home.FactionID]++
			if core {
				f.atkCore[home.FactionID]++
			}
		}
	}
	return tallies
}

// capture transfers the settlement to the claimant faction, resets the siege
// state, demobilizes the fallen garrison, and retargets the winning side's
// armies at the next-best enemy settlement.
func (m *Manager) capture(s *Settlement, pop *agents.Population, facs *factions.Manager, day int32, ev *events.Log) {
	oldFaction := s.FactionID
	newFaction := s.CaptureFactionID
	war := facs.WarBetween(newFaction, oldFaction)

	s.FactionID = newFaction
	s.CaptureProgress = 0
	s.CaptureFactionID = -1
	s.SiegeDays = 0
	s.CoreClearDays = 0
	s.OverwhelmDays = 0
	s.WarPressure = 0
	s.Stability = 0.35
	s.Tasks.Clear()
	m.topologyDirty = true

	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive {
			continue
		}
		if a.SettlementID == s.ID && a.Army != agents.ArmyNone {
			demobilizeAgent(a)
			a.Role = agents.RoleIdle
			continue
		}
		// Winning armies pointed here pick a new target.
		if war != nil && a.WarTargetID == s.ID && a.Army != agents.ArmyNone && a.WarID == war.ID {
			home := m.Get(a.SettlementID)
			if home == nil {
				demobilizeAgent(a)
				continue
			}
			next := m.nextTarget(facs, war, home.FactionID, a.X, a.Y)
			if next == nil {
				demobilizeAgent(a)
				continue
			}
			a.WarTargetID = next.ID
			a.Army = agents.ArmyMarching
		}
	}

	name := fmt.Sprintf("faction %d", newFaction)
	if f := facs.Get(newFaction); f != nil {
		name = f.Name
	}
	ev.Add(day, "capture", fmt.Sprintf("%s captured by %s", s.Name, name))
}

// nextTarget scores the war's remaining enemy settlements from a position:
// population and prestige attract, distance repels.
func (m *Manager) nextTarget(facs *factions.Manager, w *factions.War, factionID int32, x, y int) *Settlement {
	side := w.Side(factionID)
	if side == 0 {
		return nil
	}
	var best *Settlement
	bestScore := 0.0
	for i := range m.Settlements {
		t := &m.Settlements[i]
		if w.Side(t.FactionID)*side != -1 {
			continue
		}
		dx, dy := float64(t.X-x), float64(t.Y-y)
		dist := dx*dx + dy*dy
		score := float64(t.Population) + float64(t.TechTier)*20 - dist*0.002
		if t.Capital {
			score += 50
		}
		if best == nil || score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

// endDeadWars closes out wars whose defender side holds no settlements and
// demobilizes the participants.
func (m *Manager) endDeadWars(facs *factions.Manager, pop *agents.Population, day int32, ev *events.Log) {
	var finished []int32
	for i := range facs.Wars {
		w := &facs.Wars[i]
		attackerHolds, defenderHolds := false, false
		for j := range m.Settlements {
			switch w.Side(m.Settlements[j].FactionID) {
			case 1:
				attackerHolds = true
			case -1:
				defenderHolds = true
			}
		}
		if !attackerHolds || !defenderHolds {
			finished = append(finished, w.ID)
		}
	}
	for _, id := range finished {
		for i := range pop.Agents {
			a := &pop.Agents[i]
			if a.Alive && a.WarID == id {
				demobilizeAgent(a)
				a.Role = agents.RoleIdle
			}
		}
		for i := range m.Settlements {
			if m.Settlements[i].ArmyTargetID >= 0 {
				// Macro armies fighting this war stand down via retarget checks;
				// clearing here keeps mixed-mode transitions clean.
				m.Settlements[i].ArmyTargetID = -1
				m.Settlements[i].ArmyETA = 0
				m.Settlements[i].ArmySoldiers = 0
			}
		}
		facs.EndWar(id)
		ev.Add(day, "war", "war ended")
	}
}

func demobilizeAgent(a *agents.Agent) {
	a.Army = agents.ArmyNone
	a.WarID = -1
	a.WarTargetID = -1
	a.Task = agents.Task{}
}

// UpdateArmiesAndSiegesMacro is the aggregate counterpart: armies are soldier
// counts that march on an ETA, trade attrition while besieging, and drive the
// same capture-progress rule.
func (m *Manager) UpdateArmiesAndSiegesMacro(facs *factions.Manager, rng *entropy.Source, day int32, days int, ev *events.Log) {
	for si := range m.Settlements {
		s := &m.Settlements[si]
		wars := facs.WarsOf(s.FactionID)
		if len(wars) == 0 {
			if s.ArmyTargetID >= 0 {
				s.ArmyTargetID = -1
				s.ArmySoldiers = 0
			}
			continue
		}

		if s.ArmyTargetID < 0 {
			target := m.nextTarget(facs, wars[0], s.FactionID, s.X, s.Y)
			if target == nil || s.Roles[agents.RoleSoldier] == 0 {
				continue
			}
			s.ArmyTargetID = target.ID
			s.ArmySoldiers = s.Roles[agents.RoleSoldier]
			dx, dy := target.X-s.X, target.Y-s.Y
			s.ArmyETA = (abs(dx) + abs(dy)) / kMarchSpeed
			continue
		}

		target := m.Get(s.ArmyTargetID)
		if target == nil || !facs.AtWar(s.FactionID, target.FactionID) {
			s.ArmyTargetID = -1
			s.ArmySoldiers = 0
			continue
		}

		if s.ArmyETA > 0 {
			s.ArmyETA -= days
			if s.ArmyETA < 0 {
				s.ArmyETA = 0
			}
			continue
		}

		// Besieging: simple attrition trade, scaled by elapsed days.
		defenders := target.Roles[agents.RoleSoldier]
		atkLoss := min(s.ArmySoldiers, sampleLoss(rng, defenders, days, 20))
		defLoss := min(defenders, sampleLoss(rng, s.ArmySoldiers, days, 15))
		s.ArmySoldiers -= atkLoss
		killSoldiers(s, atkLoss)
		target.Roles[agents.RoleSoldier] -= defLoss
		killSoldiersBins(target, defLoss)
		defenders -= defLoss

		target.SiegeDays += days
		m.resolveSiege(target, s.ArmySoldiers, defenders, s.ArmySoldiers, defenders, s.FactionID, days)
		if target.CaptureProgress >= 100 && target.CaptureFactionID >= 0 {
			m.captureMacro(target, s, facs, day, ev)
		}
	}
	m.endDeadWarsMacro(facs, day, ev)
}

// sampleLoss draws casualties inflicted by an opposing force over a stretch
// of days.
func sampleLoss(rng *entropy.Source, enemy, days, divisor int) int {
	expected := float64(enemy) * float64(days) / float64(divisor)
	n := int(expected)
	if rng.Chance(expected - float64(n)) {
		n++
	}
	return n
}

// killSoldiers removes army casualties from a settlement's role counts.
func killSoldiers(s *Settlement, n int) {
	s.Roles[agents.RoleSoldier] -= min(n, s.Roles[agents.RoleSoldier])
	killSoldiersBins(s, n)
}

// killSoldiersBins removes casualties from the adult cohort bins so macro
// population stays consistent with the role counts.
func killSoldiersBins(s *Settlement, n int) {
	for n > 0 {
		removed := false
		for sex := 0; sex < 2 && n > 0; sex++ {
			for bin := 1; bin <= 3 && n > 0; bin++ {
				if s.Bins[sex][bin] > 0 {
					s.Bins[sex][bin]--
					n--
					removed = true
				}
			}
		}
		if !removed {
			return
		}
	}
}

// captureMacro transfers a settlement between macro-mode armies.
func (m *Manager) captureMacro(target, attacker *Settlement, facs *factions.Manager, day int32, ev *events.Log) {
	oldFaction := target.FactionID
	target.FactionID = attacker.FactionID
	target.CaptureProgress = 0
	target.CaptureFactionID = -1
	target.SiegeDays = 0
	target.CoreClearDays = 0
	target.OverwhelmDays = 0
	target.WarPressure = 0
	target.Stability = 0.35
	// Surviving garrison lays down arms.
	target.Roles[agents.RoleIdle] += target.Roles[agents.RoleSoldier]
	target.Roles[agents.RoleSoldier] = 0
	m.topologyDirty = true

	war := facs.WarBetween(attacker.FactionID, oldFaction)
	if war != nil {
		if next := m.nextTarget(facs, war, attacker.FactionID, target.X, target.Y); next != nil {
			attacker.ArmyTargetID = next.ID
			dx, dy := next.X-target.X, next.Y-target.Y
			attacker.ArmyETA = (abs(dx) + abs(dy)) / kMarchSpeed
		} else {
			attacker.ArmyTargetID = -1
			attacker.ArmySoldiers = 0
		}
	}

	name := fmt.Sprintf("faction %d", target.FactionID)
	if f := facs.Get(target.FactionID); f != nil {
		name = f.Name
	}
	ev.Add(day, "capture", fmt.Sprintf("%s captured by %s", target.Name, name))
}

func (m *Manager) endDeadWarsMacro(facs *factions.Manager, day int32, ev *events.Log) {
	var finished []int32
	for i := range facs.Wars {
		w := &facs.Wars[i]
		attackerHolds, defenderHolds := false, false
		for j := range m.Settlements {
			switch w.Side(m.Settlements[j].FactionID) {
			case 1:
				attackerHolds = true
			case -1:
				defenderHolds = true
			}
		}
		if !attackerHolds || !defenderHolds {
			finished = append(finished, w.ID)
		}
	}
	for _, id := range finished {
		facs.EndWar(id)
		ev.Add(day, "war", "war ended")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
