package factions

import (
	"fmt"
	"log/slog"

	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
)

// Manager owns all factions, the relation matrix, and the war list.
type Manager struct {
	Factions []Faction
	Wars     []War

	index map[int32]int // faction ID → slice index

	// relations is a square symmetric matrix indexed by slice position.
	// It grows by copy when a faction is created; faction counts stay small
	// enough that copy-on-grow is cheap.
	relations [][]int

	nextFactionID int32
	nextWarID     int32
}

// NewManager creates an empty faction manager.
func NewManager() *Manager {
	return &Manager{
		index:         make(map[int32]int),
		nextFactionID: 1,
		nextWarID:     1,
	}
}

// Get returns the faction with the given id, or nil. A nil result is a normal
// outcome for stale ids, never an error.
func (m *Manager) Get(id int32) *Faction {
	i, ok := m.index[id]
	if !ok {
		return nil
	}
	return &m.Factions[i]
}

// Count returns the number of factions.
func (m *Manager) Count() int {
	return len(m.Factions)
}

// CreateFaction mints a new polity with rolled traits and seeds its relation
// row against every existing faction.
func (m *Manager) CreateFaction(rng *entropy.Source, day int32) *Faction {
	f := Faction{
		ID:         m.nextFactionID,
		Name:       factionName(rng),
		Color:      factionColor(rng),
		Ideology:   ideologies[rng.IntN(len(ideologies))],
		CreatedDay: day,
		Stability:  0.6,
	}
	m.nextFactionID++
	f.Traits = rollTraits(rng)
	f.LeaderName = leaderName(rng)
	f.LeaderTitle = leaderTitle(f.Ideology)
	f.Influence = deriveInfluence(f.Traits, f.Stability)

	m.appendFaction(f, rng)

	slog.Info("faction founded",
		"faction", f.Name,
		"leader", fmt.Sprintf("%s %s", f.LeaderTitle, f.LeaderName),
		"ideology", f.Ideology,
	)
	return &m.Factions[len(m.Factions)-1]
}

// CreateRebelFaction spins a new faction off a parent during a rebellion.
// Traits drift harder than a fresh roll and relations with the parent start
// deeply hostile.
func (m *Manager) CreateRebelFaction(rng *entropy.Source, parentID, day int32) *Faction {
	f := Faction{
		ID:         m.nextFactionID,
		Name:       rebelName(rng),
		Color:      factionColor(rng),
		Ideology:   ideologies[rng.IntN(len(ideologies))],
		CreatedDay: day,
		Stability:  0.5,
	}
	m.nextFactionID++
	f.Traits = rollTraits(rng)
	// Rebels run hot: aggression floor keeps the breakaway war credible.
	if f.Traits.Aggression < 0.5 {
		f.Traits.Aggression = 0.5 + f.Traits.Aggression/2
	}
	f.LeaderName = leaderName(rng)
	f.LeaderTitle = "Rebel " + leaderTitle(f.Ideology)
	f.Influence = deriveInfluence(f.Traits, f.Stability)

	m.appendFaction(f, rng)
	m.setRelation(f.ID, parentID, RelationMin)
	return &m.Factions[len(m.Factions)-1]
}

// appendFaction grows the relation matrix by one row/column, copies the old
// block, and seeds the new row symmetrically.
func (m *Manager) appendFaction(f Faction, rng *entropy.Source) {
	n := len(m.Factions)
	grown := make([][]int, n+1)
	for i := 0; i <= n; i++ {
		grown[i] = make([]int, n+1)
	}
	for i := 0; i < n; i++ {
		copy(grown[i], m.relations[i])
	}
	grown[n][n] = RelationSelf

	for i := 0; i < n; i++ {
		base := rng.Range(-30, 30)
		// Two diplomatic courts start warmer; two warlike ones colder.
		bias := int((f.Traits.Diplomacy + m.Factions[i].Traits.Diplomacy - 1.0) * 20)
		bias -= int((f.Traits.Aggression + m.Factions[i].Traits.Aggression - 1.0) * 15)
		score := clampRelation(base + bias)
		grown[i][n] = score
		grown[n][i] = score
	}

	m.relations = grown
	m.Factions = append(m.Factions, f)
	m.index[f.ID] = n
}

// Relation returns the symmetric relation score between two factions.
// Unknown ids read as neutral zero.
func (m *Manager) Relation(a, b int32) int {
	ia, ok := m.index[a]
	if !ok {
		return 0
	}
	ib, ok := m.index[b]
	if !ok {
		return 0
	}
	return m.relations[ia][ib]
}

// AdjustRelation shifts the score between two factions, symmetric and clamped.
func (m *Manager) AdjustRelation(a, b int32, delta int) {
	m.setRelation(a, b, m.Relation(a, b)+delta)
}

func (m *Manager) setRelation(a, b int32, score int) {
	ia, ok := m.index[a]
	if !ok {
		return
	}
	ib, ok := m.index[b]
	if !ok || ia == ib {
		return
	}
	score = clampRelation(score)
	m.relations[ia][ib] = score
	m.relations[ib][ia] = score
}

func clampRelation(score int) int {
	if score < RelationMin {
		return RelationMin
	}
	if score > RelationMax {
		return RelationMax
	}
	return score
}

// RelationTypeOf classifies the relation between two factions.
func (m *Manager) RelationTypeOf(a, b int32) RelationType {
	if a == b {
		return RelationAlly
	}
	return Classify(m.Relation(a, b))
}

// CanExpandInto is a capability predicate, not an error check: expansion into
// another faction's territory is always permitted except when the target is
// hostile and the expander lacks the aggression to provoke them. Resource
// stress lowers the bar, desperate factions push anyway.
func (m *Manager) CanExpandInto(src, dst int32, stressed bool) bool {
	if src == dst || dst < 0 {
		return true
	}
	if m.RelationTypeOf(src, dst) != RelationHostile {
		return true
	}
	f := m.Get(src)
	if f == nil {
		return false
	}
	threshold := 0.6
	if stressed {
		threshold = 0.4
	}
	return f.Traits.Aggression*f.Influence.Aggression >= threshold
}

// AtWar reports whether two factions are on opposite sides of any active war.
func (m *Manager) AtWar(a, b int32) bool {
	for i := range m.Wars {
		w := &m.Wars[i]
		if w.Side(a)*w.Side(b) == -1 {
			return true
		}
	}
	return false
}

// WarBetween returns the war opposing two factions, or nil.
func (m *Manager) WarBetween(a, b int32) *War {
	for i := range m.Wars {
		w := &m.Wars[i]
		if w.Side(a)*w.Side(b) == -1 {
			return w
		}
	}
	return nil
}

// WarByID returns the war with the given id, or nil.
func (m *Manager) WarByID(id int32) *War {
	for i := range m.Wars {
		if m.Wars[i].ID == id {
			return &m.Wars[i]
		}
	}
	return nil
}

// WarsOf returns the active wars a faction participates in.
func (m *Manager) WarsOf(factionID int32) []*War {
	var out []*War
	for i := range m.Wars {
		if m.Wars[i].Side(factionID) != 0 {
			out = append(out, &m.Wars[i])
		}
	}
	return out
}

// DeclareWar opens a war between two factions and collapses their relation.
// Declaring on an existing enemy is a no-op returning the running war.
func (m *Manager) DeclareWar(attacker, defender, day int32) *War {
	if w := m.WarBetween(attacker, defender); w != nil {
		return w
	}
	w := War{
		ID:        m.nextWarID,
		Attackers: []int32{attacker},
		Defenders: []int32{defender},
		StartDay:  day,
	}
	m.nextWarID++
	m.setRelation(attacker, defender, RelationMin)
	m.Wars = append(m.Wars, w)

	an, dn := "?", "?"
	if f := m.Get(attacker); f != nil {
		an = f.Name
	}
	if f := m.Get(defender); f != nil {
		dn = f.Name
	}
	slog.Info("war declared", "attacker", an, "defender", dn, "day", day)
	return &m.Wars[len(m.Wars)-1]
}

// EndWar removes a war from the active list.
func (m *Manager) EndWar(warID int32) {
	for i := range m.Wars {
		if m.Wars[i].ID == warID {
			m.Wars = append(m.Wars[:i], m.Wars[i+1:]...)
			return
		}
	}
}

// ResetAggregates zeroes the per-day derived stats before settlements
// re-report theirs.
func (m *Manager) ResetAggregates() {
	for i := range m.Factions {
		f := &m.Factions[i]
		f.Population = 0
		f.SettlementCount = 0
		f.TerritoryZones = 0
		f.StockFood = 0
		f.StockWood = 0
		f.TechTier = 0
	}
}

// ReportSettlement accumulates one settlement's contribution into its owning
// faction's aggregates.
func (m *Manager) ReportSettlement(factionID int32, population, stockFood, stockWood, techTier int) {
	f := m.Get(factionID)
	if f == nil {
		return
	}
	f.Population += population
	f.SettlementCount++
	f.StockFood += stockFood
	f.StockWood += stockWood
	if techTier > f.TechTier {
		f.TechTier = techTier
	}
}

// AddTerritory accumulates owned-zone counts during the ownership recompute.
func (m *Manager) AddTerritory(factionID int32, zones int) {
	if f := m.Get(factionID); f != nil {
		f.TerritoryZones += zones
	}
}

// RecomputeInfluence refreshes every faction's leader-influence multipliers
// from traits and current stability. Runs after aggregates are reported.
func (m *Manager) RecomputeInfluence() {
	for i := range m.Factions {
		f := &m.Factions[i]
		f.Influence = deriveInfluence(f.Traits, f.Stability)
	}
}

// deriveInfluence maps traits and stability into multipliers around 1.0.
func deriveInfluence(t Traits, stability float64) LeaderInfluence {
	inf := LeaderInfluence{
		Expansion:  0.8 + 0.4*t.Expansion,
		Aggression: 0.8 + 0.4*t.Aggression,
		Diplomacy:  0.8 + 0.4*t.Diplomacy,
		Stability:  0.9 + 0.2*stability,
		Tech:       1.0,
	}
	switch t.Temperament {
	case TemperCalm:
		inf.Stability += 0.05
		inf.Aggression -= 0.05
	case TemperFierce:
		inf.Aggression += 0.1
		inf.Stability -= 0.05
	}
	switch t.Outlook {
	case OutlookExpansionist:
		inf.Expansion += 0.1
	case OutlookInsular:
		inf.Expansion -= 0.1
		inf.Tech += 0.05
	}
	return inf
}

func rollTraits(rng *entropy.Source) Traits {
	return Traits{
		Temperament: Temperament(rng.IntN(3)),
		Outlook:     Outlook(rng.IntN(3)),
		Expansion:   rng.Float(),
		Aggression:  rng.Float(),
		Diplomacy:   rng.Float(),
	}
}

// Snapshot is the manager's full persistable state.
type Snapshot struct {
	Factions      []Faction
	Wars          []War
	Relations     [][]int
	NextFactionID int32
	NextWarID     int32
}

// Snapshot copies the manager state out for persistence.
func (m *Manager) Snapshot() Snapshot {
	s := Snapshot{
		Factions:      append([]Faction(nil), m.Factions...),
		Wars:          append([]War(nil), m.Wars...),
		Relations:     make([][]int, len(m.relations)),
		NextFactionID: m.nextFactionID,
		NextWarID:     m.nextWarID,
	}
	for i := range m.relations {
		s.Relations[i] = append([]int(nil), m.relations[i]...)
	}
	return s
}

// RestoreManager rebuilds a manager from a snapshot. A relation matrix whose
// size disagrees with the faction list is discarded and reseeded neutral.
func RestoreManager(s Snapshot) *Manager {
	m := NewManager()
	m.Factions = s.Factions
	m.Wars = s.Wars
	m.nextFactionID = s.NextFactionID
	m.nextWarID = s.NextWarID
	for i := range m.Factions {
		m.index[m.Factions[i].ID] = i
	}

	n := len(m.Factions)
	if len(s.Relations) == n {
		m.relations = s.Relations
		return m
	}
	m.relations = make([][]int, n)
	for i := 0; i < n; i++ {
		m.relations[i] = make([]int, n)
		m.relations[i][i] = RelationSelf
	}
	return m
}
