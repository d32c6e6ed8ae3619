package settlements

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
	"github.com/k7LqB9c2W/funsim-sub000/internal/factions"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// Claim radii per building kind, in tiles. The town hall projects the
// dominant claim; support buildings extend the fringe.
func claimRadius(k terrain.BuildingKind) int {
	switch k {
	case terrain.BuildingTownHall:
		return 40
	case terrain.BuildingHouse:
		return 16
	case terrain.BuildingGranary:
		return 14
	case terrain.BuildingFarm, terrain.BuildingWell:
		return 12
	default:
		return 0
	}
}

// siteInfo is the per-settlement building site scratch rebuilt by the daily
// field scan. Tile indices, not coordinates.
type siteInfo struct {
	farms      []int32
	granaries  []int32
	wells      []int32
	unfinished []int32
}

func (si *siteInfo) reset() {
	si.farms = si.farms[:0]
	si.granaries = si.granaries[:0]
	si.wells = si.wells[:0]
	si.unfinished = si.unfinished[:0]
}

// scanBuildingsAndOwnership walks the field once, refreshing per-settlement
// building counts and site lists, projecting zone claims from every complete
// building, and reporting territory sizes to the faction aggregates.
func (m *Manager) scanBuildingsAndOwnership(facs *factions.Manager) {
	m.zones.nextGen()

	for len(m.sites) < len(m.Settlements) {
		m.sites = append(m.sites, siteInfo{})
	}
	for i := range m.Settlements {
		s := &m.Settlements[i]
		s.Houses, s.Farms, s.Granaries, s.Wells = 0, 0, 0, 0
		s.TerritoryZones = 0
		m.sites[i].reset()
	}

	f := m.field
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			b := &f.Tiles[f.Idx(x, y)].Building
			if b.Kind == terrain.BuildingNone {
				continue
			}
			si, ok := m.index[b.SettlementID]
			if !ok {
				// Orphaned by a settlement that never existed in this world;
				// leave the tile alone, ownership just ignores it.
				continue
			}
			s := &m.Settlements[si]
			ti := int32(f.Idx(x, y))

			if !b.Complete() {
				m.sites[si].unfinished = append(m.sites[si].unfinished, ti)
				continue
			}

			switch b.Kind {
			case terrain.BuildingHouse:
				s.Houses++
			case terrain.BuildingFarm:
				s.Farms++
				m.sites[si].farms = append(m.sites[si].farms, ti)
			case terrain.BuildingGranary:
				s.Granaries++
				m.sites[si].granaries = append(m.sites[si].granaries, ti)
			case terrain.BuildingWell:
				s.Wells++
				m.sites[si].wells = append(m.sites[si].wells, ti)
			}

			m.projectClaim(x, y, claimRadius(b.Kind), s.ID)
		}
	}

	for i := range m.Settlements {
		s := &m.Settlements[i]
		s.HousingCap = kBaseHousing + s.Houses*kHousingPerHouse
	}

	for _, zi := range m.zones.touched {
		owner := m.zones.ownerOf(int(zi))
		if owner < 0 {
			continue
		}
		if s := m.Get(owner); s != nil {
			s.TerritoryZones++
			facs.AddTerritory(s.FactionID, 1)
		}
	}
}

// projectClaim offers (x, y, radius) as a claim source to every zone whose
// center lies within the radius.
func (m *Manager) projectClaim(x, y, radius int, settlementID int32) {
	if radius <= 0 {
		return
	}
	r2 := int32(radius * radius)
	zx0 := (x - radius) / ZoneSize
	zy0 := (y - radius) / ZoneSize
	zx1 := (x + radius) / ZoneSize
	zy1 := (y + radius) / ZoneSize
	for zy := zy0; zy <= zy1; zy++ {
		for zx := zx0; zx <= zx1; zx++ {
			zi := m.zones.index(zx, zy)
			if zi < 0 {
				continue
			}
			cx := zx*ZoneSize + ZoneSize/2
			cy := zy*ZoneSize + ZoneSize/2
			dx, dy := int32(cx-x), int32(cy-y)
			d2 := dx*dx + dy*dy
			if d2 <= r2 {
				m.zones.claim(zi, settlementID, d2)
			}
		}
	}
}

// computeDensity accumulates live agents into the zone population cache.
func (m *Manager) computeDensity(pop *agents.Population) {
	for i := range pop.Agents {
		a := &pop.Agents[i]
		if !a.Alive {
			continue
		}
		m.zones.addPop(m.zones.tileZone(a.X, a.Y), 1)
	}
}

// computeDensityMacro projects each settlement's cohort total onto its
// center zone.
func (m *Manager) computeDensityMacro() {
	for i := range m.Settlements {
		s := &m.Settlements[i]
		m.zones.addPop(m.zones.tileZone(s.X, s.Y), int32(s.Bins.Total()))
	}
}
