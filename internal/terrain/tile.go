// Package terrain provides the tile grid, derived scent fields, and the daily
// per-tile update (vegetation, food, fire). Agents and settlements read tiles
// as fitness signals; the renderer reacts to dirty-region signals instead of
// rescanning the grid.
package terrain

// Kind classifies a tile's base terrain.
type Kind uint8

const (
	KindOcean Kind = iota
	KindLand
	KindFreshWater
)

// BuildingKind enumerates constructible structures.
type BuildingKind uint8

const (
	BuildingNone BuildingKind = iota
	BuildingTownHall
	BuildingHouse
	BuildingFarm
	BuildingGranary
	BuildingWell
)

// BuildStages is the number of construction steps before a building is usable.
const BuildStages = 3

// FarmGrowthDays is how many days a planted farm needs before harvest.
const FarmGrowthDays = 6

// Building occupies a tile and belongs to a settlement.
type Building struct {
	Kind         BuildingKind
	SettlementID int32 // -1 when unowned
	Stage        uint8 // 0..BuildStages; complete at BuildStages

	// Farm state. Only meaningful when Kind == BuildingFarm.
	Planted bool
	Growth  uint8
}

// Complete reports whether construction has finished.
func (b Building) Complete() bool {
	return b.Kind != BuildingNone && b.Stage >= BuildStages
}

// HarvestReady reports whether a farm has a crop ready to collect.
func (b Building) HarvestReady() bool {
	return b.Kind == BuildingFarm && b.Complete() && b.Planted && b.Growth >= FarmGrowthDays
}

// Resource caps per tile.
const (
	MaxVegetation = 5
	MaxFood       = 8
	BurnDuration  = 3 // days a tile burns before expiring
)

// Tile is a single cell of the world grid. Owned exclusively by the Field;
// mutation outside the Field goes through its bounded mutation methods.
type Tile struct {
	Kind       Kind
	Vegetation uint8
	Food       uint8
	Burning    bool
	BurnDays   uint8
	Building   Building
}

// Walkable reports whether agents can stand on the tile.
func (t Tile) Walkable() bool {
	return t.Kind == KindLand
}

// BuildingName returns a human-readable name for a building kind.
func BuildingName(k BuildingKind) string {
	switch k {
	case BuildingTownHall:
		return "town hall"
	case BuildingHouse:
		return "house"
	case BuildingFarm:
		return "farm"
	case BuildingGranary:
		return "granary"
	case BuildingWell:
		return "well"
	default:
		return "none"
	}
}
