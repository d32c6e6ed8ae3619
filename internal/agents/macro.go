package agents

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// NumAgeBins is the number of fixed age ranges used by the macro model.
const NumAgeBins = 6

// binStartDays/binEndDays delimit each cohort bin, in age-days. The last bin
// runs to the maximum age.
var (
	binStartDays = [NumAgeBins]int32{0, 15 * DaysPerYear, 30 * DaysPerYear, 45 * DaysPerYear, 60 * DaysPerYear, 75 * DaysPerYear}
	binEndDays   = [NumAgeBins]int32{15 * DaysPerYear, 30 * DaysPerYear, 45 * DaysPerYear, 60 * DaysPerYear, 75 * DaysPerYear, MaxAgeDays}
)

// CohortBins aggregates a population as per-sex counts over the six age bins.
type CohortBins [2][NumAgeBins]int32

// Total returns the population held in the bins.
func (b *CohortBins) Total() int {
	n := int32(0)
	for s := 0; s < 2; s++ {
		for i := 0; i < NumAgeBins; i++ {
			n += b[s][i]
		}
	}
	return int(n)
}

// BinOf maps an age in days to its cohort bin index.
func BinOf(ageDays int32) int {
	for i := NumAgeBins - 1; i > 0; i-- {
		if ageDays >= binStartDays[i] {
			return i
		}
	}
	return 0
}

// MacroConditions are the settlement-level signals driving aggregate
// demographics.
type MacroConditions struct {
	FoodSufficiency  float64 // 0..1, stockpile vs need
	WaterSufficiency float64 // 0..1, water access at the settlement
	FireThreat       bool
}

// MacroWorld is the slice of the settlement manager the macro model needs.
type MacroWorld interface {
	SettlementIDs() []int32
	// NearestSettlement returns the closest settlement id to a point, or -1.
	NearestSettlement(x, y int) int32
	// Bins returns a settlement's cohort bins, nil for stale ids.
	Bins(settlementID int32) *CohortBins
	Center(settlementID int32) (x, y int, ok bool)
	Conditions(settlementID int32) MacroConditions
}

// Aggregate demographic rates, per day.
var macroDeathRate = [NumAgeBins]float64{0.00020, 0.00010, 0.00015, 0.00030, 0.00100, 0.00400}

const (
	kMacroBirthRate     = 0.0006 // per fertile pairing per day at full sufficiency
	kFallbackBirthScale = 0.5    // unsettled agents breed worse
	kFallbackDeathScale = 1.5    // and die faster
)

// EnterMacro dissolves every live agent into its settlement's cohort bins
// (nearest settlement when unassigned, the fallback pool when none exists)
// and discards individual records. Total population and the age-bin
// distribution are conserved exactly.
func (p *Population) EnterMacro(world MacroWorld) {
	for i := range p.Agents {
		a := &p.Agents[i]
		if !a.Alive {
			continue
		}
		sid := a.SettlementID
		if sid >= 0 && world.Bins(sid) == nil {
			sid = -1
		}
		if sid < 0 {
			sid = world.NearestSettlement(a.X, a.Y)
		}
		bin := BinOf(a.AgeDays)
		if b := world.Bins(sid); b != nil {
			b[a.Sex][bin]++
		} else {
			p.FallbackBins[a.Sex][bin]++
		}
	}

	p.Agents = p.Agents[:0]
	clear(p.index)
	p.thinkCursor = 0
	p.Macro = true
}

// AdvanceMacro applies aggregate births, deaths, and cohort aging for the
// given number of days across every settlement and the fallback pool.
func (p *Population) AdvanceMacro(world MacroWorld, rng *entropy.Source, days int) {
	for d := 0; d < days; d++ {
		for _, sid := range world.SettlementIDs() {
			b := world.Bins(sid)
			if b == nil {
				continue
			}
			cond := world.Conditions(sid)
			advanceBinsDay(b, rng, cond, 1, 1)
		}
		// Fallback pool: harsher, insensitive to water and fire.
		advanceBinsDay(&p.FallbackBins, rng,
			MacroConditions{FoodSufficiency: 0.7, WaterSufficiency: 1, FireThreat: false},
			kFallbackBirthScale, kFallbackDeathScale)
	}
}

// advanceBinsDay runs one day of aggregate demographics on one bin set.
func advanceBinsDay(b *CohortBins, rng *entropy.Source, cond MacroConditions, birthScale, deathScale float64) {
	// Births: fertile females paired against adult males, throttled by food
	// and water sufficiency.
	fertile := float64(b[SexFemale][1]) + float64(b[SexFemale][2])*0.5
	males := float64(b[SexMale][1] + b[SexMale][2] + b[SexMale][3])
	pairs := fertile
	if males < pairs {
		pairs = males
	}
	births := sampleCount(rng, kMacroBirthRate*birthScale*pairs*cond.FoodSufficiency*cond.WaterSufficiency)
	for i := 0; i < births; i++ {
		b[Sex(rng.IntN(2))][0]++
	}

	// Deaths: per-bin base rate amplified by starvation and fire.
	amp := deathScale * (1 + 2*(1-cond.FoodSufficiency))
	if cond.FireThreat {
		amp *= 2
	}
	for s := 0; s < 2; s++ {
		for i := 0; i < NumAgeBins; i++ {
			dead := sampleCount(rng, float64(b[s][i])*macroDeathRate[i]*amp)
			if int32(dead) > b[s][i] {
				dead = int(b[s][i])
			}
			b[s][i] -= int32(dead)
		}
	}

	// Aging: a 1/bin-width share of each bin advances daily.
	for s := 0; s < 2; s++ {
		for i := NumAgeBins - 2; i >= 0; i-- {
			width := float64(binEndDays[i] - binStartDays[i])
			moved := sampleCount(rng, float64(b[s][i])/width)
			if int32(moved) > b[s][i] {
				moved = int(b[s][i])
			}
			b[s][i] -= int32(moved)
			b[s][i+1] += int32(moved)
		}
	}
}

// sampleCount converts an expected value into an integer count with
// probabilistic rounding of the fractional part.
func sampleCount(rng *entropy.Source, expected float64) int {
	if expected <= 0 {
		return 0
	}
	n := int(expected)
	if rng.Chance(expected - float64(n)) {
		n++
	}
	return n
}

// ExitMacro materializes every cohort count back into individual agents with
// randomized in-bin ages, placed near their settlement center. Identity
// counters reset; total population matches the macro state exactly.
func (p *Population) ExitMacro(f *terrain.Field, world MacroWorld, rng *entropy.Source) {
	p.nextID = 1
	p.Macro = false

	for _, sid := range world.SettlementIDs() {
		b := world.Bins(sid)
		if b == nil {
			continue
		}
		cx, cy, ok := world.Center(sid)
		if !ok {
			continue
		}
		p.materializeBins(f, rng, b, sid, cx, cy)
	}

	// Fallback pool scatters over open land.
	for s := 0; s < 2; s++ {
		for bin := 0; bin < NumAgeBins; bin++ {
			for n := p.FallbackBins[s][bin]; n > 0; n-- {
				x, y := randomLand(f, rng)
				a := newAgent(rng, x, y)
				a.Sex = Sex(s)
				a.AgeDays = randomBinAge(rng, bin)
				p.Add(a)
			}
			p.FallbackBins[s][bin] = 0
		}
	}

	p.rebuildIndex()
}

// materializeBins drains one settlement's bins into live agents and zeroes
// the bins.
func (p *Population) materializeBins(f *terrain.Field, rng *entropy.Source, b *CohortBins, sid int32, cx, cy int) {
	for s := 0; s < 2; s++ {
		for bin := 0; bin < NumAgeBins; bin++ {
			for n := b[s][bin]; n > 0; n-- {
				x, y := nearbyLand(f, rng, cx, cy, 6)
				a := newAgent(rng, x, y)
				a.Sex = Sex(s)
				a.AgeDays = randomBinAge(rng, bin)
				a.SettlementID = sid
				a.Goal = GoalStayHome
				p.Add(a)
			}
			b[s][bin] = 0
		}
	}
}

func randomBinAge(rng *entropy.Source, bin int) int32 {
	return int32(rng.Range(int(binStartDays[bin]), int(binEndDays[bin])-1))
}

// nearbyLand finds a walkable tile near a point, falling back to the point.
func nearbyLand(f *terrain.Field, rng *entropy.Source, cx, cy, radius int) (int, int) {
	for attempt := 0; attempt < 12; attempt++ {
		x := cx + rng.Range(-radius, radius)
		y := cy + rng.Range(-radius, radius)
		if f.InBounds(x, y) && f.At(x, y).Walkable() {
			return x, y
		}
	}
	return cx, cy
}

// randomLand finds any walkable tile, falling back to the grid center.
func randomLand(f *terrain.Field, rng *entropy.Source) (int, int) {
	for attempt := 0; attempt < 200; attempt++ {
		x := rng.IntN(f.W)
		y := rng.IntN(f.H)
		if f.At(x, y).Walkable() {
			return x, y
		}
	}
	return f.W / 2, f.H / 2
}
