package agents

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// TownServices is the narrow slice of the settlement manager agents need for
// task execution and homing. Defined here so agents never import settlements.
type TownServices interface {
	// Center returns a settlement's town center, ok=false for stale ids.
	Center(settlementID int32) (x, y int, ok bool)
	// DepositFood adds hauled food to a settlement stockpile.
	DepositFood(settlementID int32, n int)
	// DepositWood adds hauled wood to a settlement stockpile.
	DepositWood(settlementID int32, n int)
	// ConsumeFood draws n food from a stockpile; false when short.
	ConsumeFood(settlementID int32, n int) bool
	// AdvanceBuilding progresses construction at a site by one stage and
	// reports whether the building is now complete.
	AdvanceBuilding(x, y int) bool
}

const mateSearchRadius = 8

// Replan re-evaluates an agent's goal by fixed priority. Called on the
// amortized thinking cadence, not every tick.
func (p *Population) Replan(a *Agent, f *terrain.Field, rng *entropy.Source) {
	a.BlockedSteps = 0

	// Fire on or beside the agent preempts everything.
	if p.fireNearby(a, f) {
		a.Goal = GoalFleeFire
		return
	}

	if a.DaysNoWater >= 2 {
		a.Goal = GoalSeekWater
		if a.WaterX >= 0 {
			a.TargetX, a.TargetY = a.WaterX, a.WaterY
		}
		return
	}

	if a.DaysNoFood >= 2 {
		a.Goal = GoalSeekFood
		return
	}

	if a.Task.Kind != TaskNone {
		a.Goal = GoalWork
		a.TargetX, a.TargetY = a.Task.X, a.Task.Y
		return
	}

	// Mate seeking: adult females with full buffers look for a male-dense
	// cell nearby. Sampling is weighted by construction; cells without
	// eligible males can never be drawn.
	if a.Sex == SexFemale && a.Adult() && !a.Pregnant && a.MateRest == 0 &&
		a.DaysNoFood == 0 && a.DaysNoWater == 0 {
		if tx, ty, ok := p.sampleMateCell(f, rng, a.X, a.Y); ok {
			a.Goal = GoalSeekMate
			a.TargetX, a.TargetY = tx, ty
			return
		}
	}

	// Default: homebodies keep to their settlement, restless agents roam.
	if a.SettlementID >= 0 && !rng.Chance(float64(a.Wanderlust)*0.6) {
		a.Goal = GoalStayHome
		return
	}
	a.Goal = GoalWander
	a.TargetX = a.X + rng.Range(-12, 12)
	a.TargetY = a.Y + rng.Range(-12, 12)
}

// fireNearby reports burning on the agent's tile or any cardinal neighbor.
func (p *Population) fireNearby(a *Agent, f *terrain.Field) bool {
	if f.At(a.X, a.Y).Burning {
		return true
	}
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := a.X+d[0], a.Y+d[1]
		if f.InBounds(nx, ny) && f.At(nx, ny).Burning {
			return true
		}
	}
	return false
}

// sampleMateCell reservoir-samples a cell from the local window, weighted by
// its adult-male count. Returns ok=false when no eligible male is in range.
func (p *Population) sampleMateCell(f *terrain.Field, rng *entropy.Source, cx, cy int) (int, int, bool) {
	if len(p.males) != f.W*f.H {
		return 0, 0, false
	}
	total := 0
	bx, by := 0, 0
	found := false
	for y := cy - mateSearchRadius; y <= cy+mateSearchRadius; y++ {
		if y < 0 || y >= f.H {
			continue
		}
		for x := cx - mateSearchRadius; x <= cx+mateSearchRadius; x++ {
			if x < 0 || x >= f.W {
				continue
			}
			w := int(p.males[y*f.W+x])
			if w <= 0 {
				continue
			}
			total += w
			if rng.Float() < float64(w)/float64(total) {
				bx, by = x, y
				found = true
			}
		}
	}
	return bx, by, found
}

// eligibleMalesNear counts adult males within the mate radius, used as the
// density input for daily conception chance.
func (p *Population) eligibleMalesNear(f *terrain.Field, cx, cy int) int {
	if len(p.males) != f.W*f.H {
		return 0
	}
	n := 0
	for y := cy - mateSearchRadius; y <= cy+mateSearchRadius; y++ {
		if y < 0 || y >= f.H {
			continue
		}
		for x := cx - mateSearchRadius; x <= cx+mateSearchRadius; x++ {
			if x < 0 || x >= f.W {
				continue
			}
			n += int(p.males[y*f.W+x])
		}
	}
	return n
}
