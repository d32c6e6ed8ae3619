// Package settlements owns settlements, the zone grid used for territory and
// density bookkeeping, the daily task economy, role allocation, and the
// war/siege/capture resolution.
package settlements

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/agents"
)

// Tier is the settlement growth stage.
type Tier uint8

const (
	TierVillage Tier = iota
	TierTown
	TierCity
)

func (t Tier) String() string {
	switch t {
	case TierTown:
		return "town"
	case TierCity:
		return "city"
	default:
		return "village"
	}
}

const (
	// ZoneSize is the square zone edge in tiles.
	ZoneSize = 16

	// Tier thresholds.
	kTownPop  = 60
	kTownAge  = 120
	kCityPop  = 150
	kCityAge  = 360
	kCityTech = 2
	kMaxTech  = 4

	// Housing.
	kBaseHousing     = 10
	kHousingPerHouse = 5

	// Construction costs, in wood.
	kFarmWoodCost    = 5
	kHouseWoodCost   = 8
	kGranaryWoodCost = 10
	kWellWoodCost    = 6

	// kEmergencyFoodPerPop is the stockpile-per-head level under which the
	// role allocator shifts labor into food production.
	kEmergencyFoodPerPop = 2
)

// Settlement is a persistent population center. Settlements are never
// deleted; capture changes FactionID instead.
type Settlement struct {
	ID         int32
	Name       string
	X, Y       int
	FactionID  int32
	FoundedDay int32

	StockFood int
	StockWood int

	// Population and per-role counts. The role counts must sum exactly to
	// Population after every allocation pass.
	Population int
	Roles      [agents.NumRoles]int

	// Building counts refreshed by the daily field scan.
	Houses     int
	Farms      int
	Granaries  int
	Wells      int
	HousingCap int

	Tier         Tier
	TechTier     int
	TechProgress float64

	Stability  float64
	UnrestDays int
	Capital    bool

	// Pressure signals feeding role allocation, recomputed daily.
	BorderPressure float64
	WarPressure    float64

	// Capture state machine. Progress runs 0..100; CaptureFactionID is the
	// current claimant or -1.
	CaptureProgress  int
	CaptureFactionID int32
	SiegeDays        int
	CoreClearDays    int
	OverwhelmDays    int

	// Daily water-source target near the center; -1 when none found.
	WaterX, WaterY int

	// Daily sufficiency signals, also exported to the macro model.
	FoodSufficiency  float64
	WaterSufficiency float64

	Tasks TaskRing

	// Macro-mode state: cohort bins plus the aggregate army.
	Bins         agents.CohortBins
	ArmyTargetID int32 // settlement id the macro army marches on, -1 idle
	ArmyETA      int   // days until arrival; 0 while besieging
	ArmySoldiers int

	// Territory size in zones, refreshed by the ownership recompute.
	TerritoryZones int
}

// Soldiers returns the current soldier role count.
func (s *Settlement) Soldiers() int {
	return s.Roles[agents.RoleSoldier]
}

// UnderSiege reports whether enemy forces held territory here today.
func (s *Settlement) UnderSiege() bool {
	return s.SiegeDays > 0
}
