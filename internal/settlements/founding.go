package settlements

import (
	"fmt"
	"log/slog"

	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/events"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

const (
	// Base population density a zone must sustain to found a settlement, and
	// for how many consecutive days. Both are modified by founder traits.
	kFoundDensity    = 10
	kFoundStreakDays = 5

	// Minimum distance from every existing settlement, in tiles.
	kMinSettlementDist = 24

	// Candidate tiles sampled inside a qualifying zone.
	kSiteSamples = 24
)

var settlementNames = []string{
	"Ashford", "Briarwell", "Coldmere", "Duskvale", "Eastreach", "Fenwick",
	"Greyhollow", "Harthome", "Ironbend", "Joriska", "Kestrel Rest",
	"Larkmoor", "Mossgate", "Northolt", "Oakhaven", "Pinewatch", "Quarrow",
	"Ravenshade", "Saltmarsh", "Thornfield", "Umberlea", "Vexley",
	"Westbrook", "Yarrowdene",
}

// updateFounding scans zone densities, maintains the consecutive-day streaks,
// and founds a settlement where density held above the trait-modified
// threshold long enough, far enough from every existing settlement.
func (m *Manager) updateFounding(pop *agents.Population, facs *factions.Manager, rng *entropy.Source, day int32, ev *events.Log) {
	for zi := 0; zi < m.zones.w*m.zones.h; zi++ {
		density := m.zones.popOf(zi)
		threshold, streakNeed := m.foundingBar(zi, facs)

		if density >= int32(threshold) {
			if m.zones.streak[zi] < 32000 {
				m.zones.streak[zi]++
			}
		} else {
			m.zones.streak[zi] = 0
			continue
		}
		if int(m.zones.streak[zi]) < streakNeed {
			continue
		}

		zx, zy := zi%m.zones.w, zi/m.zones.w
		cx := zx*ZoneSize + ZoneSize/2
		cy := zy*ZoneSize + ZoneSize/2
		if !m.farFromSettlements(cx, cy) {
			m.zones.streak[zi] = 0
			continue
		}

		founder := m.dominantFaction(pop, zx, zy)
		ownerFaction := int32(-1)
		if owner := m.Get(m.zones.ownerOf(zi)); owner != nil {
			ownerFaction = owner.FactionID
		}
		if founder >= 0 && ownerFaction >= 0 && founder != ownerFaction &&
			!facs.CanExpandInto(founder, ownerFaction, false) {
			// Capability check, not an error: the founders lack the nerve to
			// squat on hostile ground. Streak keeps running for later days.
			continue
		}
		if founder < 0 {
			founder = facs.CreateFaction(rng, day).ID
		}

		x, y, ok := m.pickSite(rng, zx, zy)
		if !ok {
			m.zones.streak[zi] = 0
			continue
		}
		m.found(x, y, founder, day, rng, ev)
		m.zones.streak[zi] = 0
	}
}

// foundingBar returns the density threshold and streak days for a zone,
// modified by the zone owner's expansion drive when owned.
func (m *Manager) foundingBar(zi int, facs *factions.Manager) (int, int) {
	threshold := kFoundDensity
	streak := kFoundStreakDays
	owner := m.Get(m.zones.ownerOf(zi))
	if owner == nil {
		return threshold, streak
	}
	if f := facs.Get(owner.FactionID); f != nil {
		drive := f.Traits.Expansion * f.Influence.Expansion
		threshold = int(float64(threshold) * (1.2 - 0.4*drive))
		if drive > 0.7 {
			streak--
		}
	}
	return threshold, streak
}

// farFromSettlements enforces the minimum founding distance.
func (m *Manager) farFromSettlements(x, y int) bool {
	min2 := kMinSettlementDist * kMinSettlementDist
	for i := range m.Settlements {
		s := &m.Settlements[i]
		dx, dy := s.X-x, s.Y-y
		if dx*dx+dy*dy < min2 {
			return false
		}
	}
	return true
}

// dominantFaction returns the most common faction among settled agents inside
// a zone, or -1 when the crowd is unaffiliated.
func (m *Manager) dominantFaction(pop *agents.Population, zx, zy int) int32 {
	x0, y0 := zx*ZoneSize, zy*ZoneSize
	counts := map[int32]int{}
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive || a.SettlementID < 0 {
			continue
		}
		if a.X < x0 || a.X >= x0+ZoneSize || a.Y < y0 || a.Y >= y0+ZoneSize {
			continue
		}
		if s := m.Get(a.SettlementID); s != nil {
			counts[s.FactionID]++
		}
	}
	best, bestN := int32(-1), 0
	for fid, n := range counts {
		if n > bestN {
			best, bestN = fid, n
		}
	}
	return best
}

// pickSite samples candidate tiles in a zone and keeps the best by water,
// food, and vegetation, penalized by fire risk. Bounded sampling, not
// exhaustive search.
func (m *Manager) pickSite(rng *entropy.Source, zx, zy int) (int, int, bool) {
	f := m.field
	x0, y0 := zx*ZoneSize, zy*ZoneSize
	bestX, bestY := 0, 0
	bestScore := float32(0)
	found := false
	for i := 0; i < kSiteSamples; i++ {
		x := x0 + rng.IntN(ZoneSize)
		y := y0 + rng.IntN(ZoneSize)
		if !f.InBounds(x, y) {
			continue
		}
		t := f.At(x, y)
		if !t.Walkable() || t.Building.Kind != terrain.BuildingNone {
			continue
		}
		food, water, fire, _ := f.ScentAt(x, y)
		score := water*2 + food*1.5 + float32(t.Vegetation)*0.5 - fire*2
		if !found || score > bestScore {
			bestX, bestY, bestScore = x, y, score
			found = true
		}
	}
	return bestX, bestY, found
}

// found creates a settlement with its town hall and marks topology dirty so
// the home field gets restamped.
func (m *Manager) found(x, y int, factionID, day int32, rng *entropy.Source, ev *events.Log) *Settlement {
	s := Settlement{
		ID:               m.nextID,
		Name:             settlementNames[rng.IntN(len(settlementNames))],
		X:                x,
		Y:                y,
		FactionID:        factionID,
		FoundedDay:       day,
		Stability:        0.6,
		WaterX:           -1,
		WaterY:           -1,
		CaptureFactionID: -1,
		ArmyTargetID:     -1,
	}
	m.nextID++
	m.index[s.ID] = len(m.Settlements)
	m.Settlements = append(m.Settlements, s)
	m.sites = append(m.sites, siteInfo{})

	m.field.SetBuilding(x, y, terrain.BuildingTownHall, s.ID, terrain.BuildStages)
	m.topologyDirty = true

	ev.Add(day, "founding", fmt.Sprintf("%s founded at (%d, %d)", s.Name, x, y))
	slog.Info("settlement founded", "name", s.Name, "x", x, "y", y, "faction", factionID)
	return &m.Settlements[len(m.Settlements)-1]
}
