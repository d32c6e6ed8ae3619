package factions

import "github.com/k7LqB9c2W/funsim-sub000/internal/entropy"

var factionPrefixes = []string{
	"Amber", "Iron", "Verdant", "Ashen", "Golden", "Crimson", "Silver",
	"Storm", "River", "Hollow", "Bright", "Dusk", "North", "Salt",
}

var factionSuffixes = []string{
	"Compact", "Dominion", "League", "Clans", "Covenant", "Banner",
	"Union", "Circle", "Accord", "March",
}

var leaderNames = []string{
	"Maren", "Toril", "Eska", "Bryn", "Halvar", "Ysolde", "Caddoc",
	"Runa", "Oswin", "Thessa", "Varek", "Ila", "Dorn", "Seric", "Anwen",
}

var ideologies = []string{
	"agrarian", "mercantile", "martial", "mystic", "communal",
}

func factionName(rng *entropy.Source) string {
	return factionPrefixes[rng.IntN(len(factionPrefixes))] + " " +
		factionSuffixes[rng.IntN(len(factionSuffixes))]
}

func rebelName(rng *entropy.Source) string {
	return "Free " + factionSuffixes[rng.IntN(len(factionSuffixes))] + " of " +
		factionPrefixes[rng.IntN(len(factionPrefixes))]
}

func leaderName(rng *entropy.Source) string {
	return leaderNames[rng.IntN(len(leaderNames))]
}

func leaderTitle(ideology string) string {
	switch ideology {
	case "agrarian":
		return "Elder"
	case "mercantile":
		return "Magnate"
	case "martial":
		return "Warlord"
	case "mystic":
		return "Oracle"
	default:
		return "Speaker"
	}
}

// factionColor picks a saturated render color; channels stay off the extremes
// so factions remain distinguishable against terrain.
func factionColor(rng *entropy.Source) uint32 {
	r := uint32(rng.Range(60, 230))
	g := uint32(rng.Range(60, 230))
	b := uint32(rng.Range(60, 230))
	return r<<16 | g<<8 | b
}
