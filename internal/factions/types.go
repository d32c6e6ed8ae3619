// Package factions owns polities: identity, behavioral traits, the pairwise
// relation matrix, wars, and leader influence fed back into settlement
// behavior.
package factions

// Temperament colors a faction's reaction to pressure.
type Temperament uint8

const (
	TemperCalm Temperament = iota
	TemperBold
	TemperFierce
)

// Outlook colors a faction's posture toward the outside world.
type Outlook uint8

const (
	OutlookInsular Outlook = iota
	OutlookOpen
	OutlookExpansionist
)

// Traits are behavioral biases in [0, 1] rolled at faction creation.
type Traits struct {
	Temperament Temperament `json:"temperament"`
	Outlook     Outlook     `json:"outlook"`
	Expansion   float64     `json:"expansion"`
	Aggression  float64     `json:"aggression"`
	Diplomacy   float64     `json:"diplomacy"`
}

// LeaderInfluence holds multipliers applied wherever settlement and faction
// behavior keys off the leader: expansion streak thresholds, war posture,
// relation seeding, stability targets, tech accumulation.
type LeaderInfluence struct {
	Expansion float64 `json:"expansion"`
	Aggression float64 `json:"aggression"`
	Diplomacy float64 `json:"diplomacy"`
	Stability float64 `json:"stability"`
	Tech      float64 `json:"tech"`
}

// Faction is a polity. Factions are never deleted; settlements change hands
// between them via capture.
type Faction struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Color uint32 `json:"color"` // 0xRRGGBB for the external renderer

	LeaderName  string `json:"leader_name"`
	LeaderTitle string `json:"leader_title"`
	Ideology    string `json:"ideology"`

	Traits    Traits          `json:"traits"`
	Influence LeaderInfluence `json:"influence"`

	// Aggregate stats recomputed from settlements each day.
	Population      int `json:"population"`
	SettlementCount int `json:"settlement_count"`
	TerritoryZones  int `json:"territory_zones"`
	StockFood       int `json:"stock_food"`
	StockWood       int `json:"stock_wood"`

	TechTier  int     `json:"tech_tier"`
	Stability float64 `json:"stability"`

	CreatedDay int32 `json:"created_day"`
}

// War tracks an active conflict between two faction sets.
type War struct {
	ID        int32   `json:"id"`
	Attackers []int32 `json:"attackers"`
	Defenders []int32 `json:"defenders"`
	StartDay  int32   `json:"start_day"`
}

// Side reports which side of the war a faction is on: +1 attacker,
// -1 defender, 0 uninvolved.
func (w *War) Side(factionID int32) int {
	for _, id := range w.Attackers {
		if id == factionID {
			return 1
		}
	}
	for _, id := range w.Defenders {
		if id == factionID {
			return -1
		}
	}
	return 0
}

// RelationType is the threshold classification of a relation score.
type RelationType uint8

const (
	RelationNeutral RelationType = iota
	RelationAlly
	RelationHostile
)

// Relation score thresholds and bounds.
const (
	RelationMin      = -100
	RelationMax      = 100
	RelationSelf     = 100
	allyThreshold    = 40
	hostileThreshold = -40
)

// Classify maps a numeric relation score to its type.
func Classify(score int) RelationType {
	switch {
	case score >= allyThreshold:
		return RelationAlly
	case score <= hostileThreshold:
		return RelationHostile
	default:
		return RelationNeutral
	}
}
