package agents

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// kFarmYield is the food collected from one ripe farm harvest.
const kFarmYield = 4

// executeTask runs the on-arrival effect of the agent's task. Collection
// tasks chain into a haul back to the stockpile; hauls chain back to idle.
// Build progression is day-gated and handled in the daily pass instead.
func (p *Population) executeTask(a *Agent, f *terrain.Field, svc TownServices) {
	t := f.At(a.Task.X, a.Task.Y)

	switch a.Task.Kind {
	case TaskGatherFood:
		if t.Food > 0 {
			take := int(t.Food)
			if take > 2 {
				take = 2
			}
			f.AddFood(a.Task.X, a.Task.Y, -take)
			a.CarryFood += uint8(take)
		}
		p.startHaul(a, svc, TaskHaulFood)

	case TaskHarvestFarm:
		if t.Building.HarvestReady() {
			t.Building.Planted = false
			t.Building.Growth = 0
			a.CarryFood += kFarmYield
		}
		p.startHaul(a, svc, TaskHaulFood)

	case TaskPlantFarm:
		if t.Building.Kind == terrain.BuildingFarm && t.Building.Complete() && !t.Building.Planted {
			t.Building.Planted = true
			t.Building.Growth = 0
		}
		a.Task = Task{}

	case TaskGatherWood:
		if t.Vegetation > 0 {
			f.AddVegetation(a.Task.X, a.Task.Y, -1)
			a.CarryWood++
		}
		p.startHaul(a, svc, TaskHaulWood)

	case TaskHaulFood:
		if a.SettlementID >= 0 {
			svc.DepositFood(a.SettlementID, int(a.CarryFood))
		}
		a.CarryFood = 0
		a.Task = Task{}

	case TaskHaulWood:
		if a.SettlementID >= 0 {
			svc.DepositWood(a.SettlementID, int(a.CarryWood))
		}
		a.CarryWood = 0
		a.Task = Task{}

	case TaskPatrol:
		a.Task = Task{}

	case TaskBuild:
		// Construction advances in the daily pass while the builder holds
		// position at the site.

	case TaskNone:
	}

	if a.Task.Kind == TaskNone {
		a.Goal = GoalStayHome
	} else {
		a.TargetX, a.TargetY = a.Task.X, a.Task.Y
	}
}

// startHaul converts a collection task into the matching haul, or eats the
// gathered food directly when the agent has no settlement to haul to.
func (p *Population) startHaul(a *Agent, svc TownServices, haul TaskKind) {
	if a.SettlementID >= 0 {
		if cx, cy, ok := svc.Center(a.SettlementID); ok {
			a.Task = Task{Kind: haul, X: cx, Y: cy}
			return
		}
	}
	if haul == TaskHaulFood && a.CarryFood > 0 {
		a.DaysNoFood = 0
	}
	a.CarryFood = 0
	a.CarryWood = 0
	a.Task = Task{}
}
