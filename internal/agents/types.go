// Package agents owns the individual-agent population: goal planning,
// movement, task execution, daily vital resolution, and the aggregated macro
// cohort model used when the population grows past per-agent simulation.
package agents

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// Sex for demographic simulation.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// Goal is an agent's current behavioral objective. Goals are a closed
// enumeration dispatched exhaustively in planning and movement.
type Goal uint8

const (
	GoalWander Goal = iota
	GoalStayHome
	GoalSeekFood
	GoalSeekWater
	GoalFleeFire
	GoalSeekMate
	GoalWork // derived from the assigned task
)

// Role is an agent's economic/military assignment within its settlement.
type Role uint8

const (
	RoleFarmer Role = iota
	RoleGatherer
	RoleBuilder
	RoleGuard
	RoleSoldier
	RoleScout
	RoleIdle
)

// NumRoles is the number of role categories; settlement role counts are
// indexed by Role and must sum exactly to settlement population.
const NumRoles = 7

// RoleName returns a human-readable role name.
func RoleName(r Role) string {
	switch r {
	case RoleFarmer:
		return "farmer"
	case RoleGatherer:
		return "gatherer"
	case RoleBuilder:
		return "builder"
	case RoleGuard:
		return "guard"
	case RoleSoldier:
		return "soldier"
	case RoleScout:
		return "scout"
	default:
		return "idle"
	}
}

// TaskKind enumerates work the settlement economy can assign.
type TaskKind uint8

const (
	TaskNone TaskKind = iota
	TaskGatherFood
	TaskHaulFood
	TaskHarvestFarm
	TaskPlantFarm
	TaskGatherWood
	TaskHaulWood
	TaskBuild
	TaskPatrol
)

// Task is an in-progress work order. X, Y is the work site; Building carries
// the structure kind for TaskBuild.
type Task struct {
	Kind     TaskKind
	X, Y     int
	Building terrain.BuildingKind
}

// ArmyState tracks a mobilized soldier's posture.
type ArmyState uint8

const (
	ArmyNone ArmyState = iota
	ArmyMarching
	ArmyBesieging
)

// Age and vital thresholds, in days.
const (
	DaysPerYear   = 365
	AdultAgeDays  = 16 * DaysPerYear
	ElderAgeDays  = 70 * DaysPerYear
	MaxAgeDays    = 95 * DaysPerYear
	GestationDays = 270
	MateCooldown  = 200

	// Grace and guaranteed-death days for starvation and dehydration.
	// Between grace and max the daily death chance ramps linearly to 1.
	FoodGraceDays  = 5
	FoodMaxDays    = 15
	WaterGraceDays = 2
	WaterMaxDays   = 6
)

// Agent is a single simulated person. Agents are stored by value in a dense
// arena; cross-references use ids, never pointers.
type Agent struct {
	ID      int32
	Sex     Sex
	AgeDays int32
	X, Y    int

	DaysNoFood  int16
	DaysNoWater int16

	Pregnant      bool
	GestationLeft int16
	MateRest      int16 // days until mate-seeking is allowed again

	Goal             Goal
	TargetX, TargetY int
	Wanderlust       float32 // 0..1, biases wander vs stay-home
	BlockedSteps     uint8

	SettlementID int32 // -1 when unassigned
	Role         Role
	Task         Task

	// War assignment; meaningful only while Army != ArmyNone.
	WarID       int32
	Army        ArmyState
	WarTargetID int32

	CarryFood uint8
	CarryWood uint8

	// Remembered water source; -1 when none.
	WaterX, WaterY int

	Alive bool
}

// Adult reports whether the agent has reached working/mating age.
func (a *Agent) Adult() bool {
	return a.AgeDays >= AdultAgeDays
}

// WarLocked reports whether the agent is mobilized and must stay a soldier.
func (a *Agent) WarLocked() bool {
	return a.Army != ArmyNone
}
