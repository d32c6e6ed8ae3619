package agents

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// Daily vital tuning.
const (
	kDrinkScent     = 0.55 // water scent at which a tile counts as a source
	kMateBaseChance = 0.02 // per eligible male nearby, capped
	kMateDensityCap = 8
	kFireDeathRisk  = 0.5 // daily death chance while standing in fire
)

// DayStats summarizes one daily resolution pass.
type DayStats struct {
	Births     int
	Deaths     int
	Starved    int
	Dehydrated int
	Burned     int
}

// ResolveDaily runs the coarse once-per-day pass in micro mode: aging,
// gestation, eating and drinking with stockpile fallback, conception,
// day-gated construction, and death checks. Dead agents are compacted out
// and the id index rebuilt before returning.
func (p *Population) ResolveDaily(f *terrain.Field, svc TownServices, rng *entropy.Source) DayStats {
	var stats DayStats
	var newborns []Agent

	for i := range p.Agents {
		a := &p.Agents[i]
		if !a.Alive {
			continue
		}

		a.AgeDays++
		if a.MateRest > 0 {
			a.MateRest--
		}

		// Builders advance construction one stage per day while on site.
		if a.Task.Kind == TaskBuild && a.X == a.Task.X && a.Y == a.Task.Y {
			if svc.AdvanceBuilding(a.Task.X, a.Task.Y) {
				a.Task = Task{}
			}
		}

		if a.Pregnant {
			a.GestationLeft--
			if a.GestationLeft <= 0 {
				a.Pregnant = false
				a.MateRest = MateCooldown
				newborns = append(newborns, newborn(rng, a))
				stats.Births++
			}
		}

		p.eat(a, f, svc)
		p.drink(a, f)

		// Conception chance scales with nearby eligible-male density.
		if a.Sex == SexFemale && a.Adult() && !a.Pregnant && a.MateRest == 0 &&
			a.DaysNoFood == 0 && a.DaysNoWater == 0 {
			density := p.eligibleMalesNear(f, a.X, a.Y)
			if density > kMateDensityCap {
				density = kMateDensityCap
			}
			if rng.Chance(kMateBaseChance * float64(density)) {
				a.Pregnant = true
				a.GestationLeft = GestationDays
			}
		}

		p.checkDeath(a, f, rng, &stats)
	}

	for i := range newborns {
		p.Add(newborns[i])
	}
	p.Compact()
	return stats
}

// eat resolves daily food: personal tile, then carried food, then the
// settlement stockpile.
func (p *Population) eat(a *Agent, f *terrain.Field, svc TownServices) {
	t := f.At(a.X, a.Y)
	switch {
	case t.Food > 0:
		f.AddFood(a.X, a.Y, -1)
		a.DaysNoFood = 0
	case a.CarryFood > 0:
		a.CarryFood--
		a.DaysNoFood = 0
	case a.SettlementID >= 0 && svc.ConsumeFood(a.SettlementID, 1):
		a.DaysNoFood = 0
	default:
		a.DaysNoFood++
	}
}

// drink resolves daily water. Standing where water scent is strong counts as
// reaching a source; the location is remembered as the fallback target.
func (p *Population) drink(a *Agent, f *terrain.Field) {
	_, water, _, _ := f.ScentAt(a.X, a.Y)
	if water >= kDrinkScent {
		a.DaysNoWater = 0
		a.WaterX, a.WaterY = a.X, a.Y
		return
	}
	a.DaysNoWater++
}

// checkDeath applies fire, starvation, dehydration, and old-age mortality.
// Deprivation deaths ramp linearly from the grace day to certainty at the
// max day.
func (p *Population) checkDeath(a *Agent, f *terrain.Field, rng *entropy.Source, stats *DayStats) {
	if f.At(a.X, a.Y).Burning && rng.Chance(kFireDeathRisk) {
		a.Alive = false
		stats.Deaths++
		stats.Burned++
		return
	}
	if rng.Chance(rampChance(a.DaysNoFood, FoodGraceDays, FoodMaxDays)) {
		a.Alive = false
		stats.Deaths++
		stats.Starved++
		return
	}
	if rng.Chance(rampChance(a.DaysNoWater, WaterGraceDays, WaterMaxDays)) {
		a.Alive = false
		stats.Deaths++
		stats.Dehydrated++
		return
	}
	if a.AgeDays > ElderAgeDays {
		span := float64(MaxAgeDays - ElderAgeDays)
		if rng.Chance(float64(a.AgeDays-ElderAgeDays) / span * 0.01) {
			a.Alive = false
			stats.Deaths++
		}
	}
}

// rampChance is the linear deprivation death ramp: zero through the grace
// period, certain at the max day.
func rampChance(days, grace, max int16) float64 {
	if days <= grace {
		return 0
	}
	if days >= max {
		return 1
	}
	return float64(days-grace) / float64(max-grace)
}
