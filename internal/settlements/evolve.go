package settlements

import (
	"fmt"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/events"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
)

const (
	// Tech progress requirement per current tier; crossing 1.0 advances.
	kTechBasePerDay = 0.002

	// Stability smoothing and rebellion triggers.
	kStabilitySmooth     = 0.1
	kRebellionThreshold  = 0.25
	kRebellionUnrestDays = 10
)

var techRequirement = [kMaxTech + 1]float64{1, 1.5, 2.5, 4, 6}

// evolveSettlements runs tech accumulation, tier promotion, stability
// smoothing, and capital marking for every settlement.
func (m *Manager) evolveSettlements(facs *factions.Manager, day int32) {
	for i := range m.Settlements {
		m.evolveOne(&m.Settlements[i], facs, day)
	}
	m.markCapitals(facs)
}

func (m *Manager) evolveOne(s *Settlement, facs *factions.Manager, day int32) {
	fac := facs.Get(s.FactionID)

	// Tech: population sufficiency plus food surplus, gated by a per-tier
	// requirement.
	if s.Population > 0 && s.TechTier < kMaxTech {
		gain := kTechBasePerDay * (0.5 + s.FoodSufficiency)
		if s.StockFood > s.Population*kFoodTargetPerPop {
			gain *= 1.5
		}
		if fac != nil {
			gain *= fac.Influence.Tech
		}
		s.TechProgress += gain / techRequirement[s.TechTier]
		if s.TechProgress >= 1 {
			s.TechProgress = 0
			s.TechTier++
		}
	}

	// Tier is a pure function of population, age, and (for cities) tech.
	age := day - s.FoundedDay
	switch {
	case s.Population >= kCityPop && age >= kCityAge && s.TechTier >= kCityTech:
		s.Tier = TierCity
	case s.Population >= kTownPop && age >= kTownAge:
		s.Tier = TierTown
	default:
		s.Tier = TierVillage
	}

	// Stability chases an exponentially smoothed target.
	housingRatio := 1.0
	if s.Population > 0 {
		housingRatio = float64(s.HousingCap) / float64(s.Population)
		if housingRatio > 1 {
			housingRatio = 1
		}
	}
	target := 0.45*s.FoodSufficiency + 0.25*housingRatio
	if fac != nil {
		target += 0.15 * (fac.Influence.Stability - 0.9) / 0.2
	}
	if s.Capital {
		target += 0.1
	}
	target -= 0.3*s.WarPressure + 0.1*s.BorderPressure
	if target < 0 {
		target = 0
	}
	if target > 1 {
		target = 1
	}
	s.Stability += (target - s.Stability) * kStabilitySmooth
}

// markCapitals flags each faction's most populous settlement.
func (m *Manager) markCapitals(facs *factions.Manager) {
	best := map[int32]int{} // faction id → settlement slice index
	for i := range m.Settlements {
		s := &m.Settlements[i]
		s.Capital = false
		if j, ok := best[s.FactionID]; !ok || s.Population > m.Settlements[j].Population {
			best[s.FactionID] = i
		}
	}
	for _, i := range best {
		m.Settlements[i].Capital = true
	}
}

// applyConflictConsequences runs the day's fallout: rebellion rolls on
// sustained unrest, and skirmish attrition where opposing soldiers share
// contested ground.
func (m *Manager) applyConflictConsequences(pop *agents.Population, facs *factions.Manager, rng *entropy.Source, day int32, ev *events.Log) {
	for i := range m.Settlements {
		m.checkRebellion(&m.Settlements[i], facs, rng, day, ev)
	}
	m.skirmishAttrition(pop, facs, rng)
}

// checkRebellion rolls for a breakaway faction once stability has sat at or
// below the threshold long enough. The roll scales with how far below the
// threshold stability fell.
func (m *Manager) checkRebellion(s *Settlement, facs *factions.Manager, rng *entropy.Source, day int32, ev *events.Log) {
	if s.Stability <= kRebellionThreshold {
		s.UnrestDays++
	} else {
		s.UnrestDays = 0
		return
	}
	if s.UnrestDays < kRebellionUnrestDays {
		return
	}
	if !rng.Chance((kRebellionThreshold - s.Stability) * 2) {
		return
	}

	parent := s.FactionID
	rebel := facs.CreateRebelFaction(rng, parent, day)
	s.FactionID = rebel.ID
	s.UnrestDays = 0
	s.Stability = 0.45
	s.Tasks.Clear()
	m.topologyDirty = true
	facs.DeclareWar(rebel.ID, parent, day)

	ev.Add(day, "rebellion", fmt.Sprintf("%s rebels, founding %s", s.Name, rebel.Name))
}

// skirmishAttrition kills a small share of soldiers standing in contested
// territory each day. Compaction happens in the daily close-out.
func (m *Manager) skirmishAttrition(pop *agents.Population, facs *factions.Manager, rng *entropy.Source) {
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive || a.Role != agents.RoleSoldier || a.SettlementID < 0 {
			continue
		}
		home := m.Get(a.SettlementID)
		if home == nil {
			continue
		}
		zi := m.zones.tileZone(a.X, a.Y)
		hereID := m.zones.ownerOf(zi)
		here := m.Get(hereID)
		if here == nil || here.FactionID == home.FactionID {
			continue
		}
		if !facs.AtWar(home.FactionID, here.FactionID) {
			continue
		}
		// Contested ground. Defenders fight from cover.
		risk := 0.02
		if a.Army == agents.ArmyNone {
			risk = 0.012
		}
		if rng.Chance(risk) {
			a.Alive = false
		}
		m.zones.addConflict(zi, 0.5)
	}
}
