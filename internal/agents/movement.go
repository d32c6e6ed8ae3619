package agents

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
	"github.com/k7LqB9c2W/funsim-sub000/internal/terrain"
)

// Movement scoring weights.
const (
	kCrowdPenalty   = 0.30
	kFirePenalty    = 2.0
	kFleeFireWeight = 6.0
	kHomeBias       = 0.20
	kStayHomeWeight = 2.0
	kJitterScale    = 0.05
	kWanderJitter   = 0.50
	kBlockedLimit   = 6
)

// steps: stay first, then the four cardinal moves.
var steps = [5][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Step advances every live agent by one movement tick. A bounded share of
// the population replans each tick via the round-robin cursor; everyone else
// keeps its goal and just moves.
func (p *Population) Step(f *terrain.Field, svc TownServices, rng *entropy.Source, tick uint64) {
	if p.Macro || len(p.Agents) == 0 {
		return
	}
	p.rebuildOccupancy(f)

	budget := len(p.Agents) / 10
	if budget < 32 {
		budget = 32
	}
	for i := 0; i < budget && i < len(p.Agents); i++ {
		idx := (p.thinkCursor + i) % len(p.Agents)
		a := &p.Agents[idx]
		if a.Alive {
			p.Replan(a, f, rng)
		}
	}
	p.thinkCursor = (p.thinkCursor + budget) % len(p.Agents)

	for i := range p.Agents {
		a := &p.Agents[i]
		if !a.Alive {
			continue
		}
		p.moveAgent(a, f, rng, tick)
		if a.Goal == GoalWork && a.X == a.Task.X && a.Y == a.Task.Y {
			p.executeTask(a, f, svc)
		}
	}
}

// moveAgent scores stay plus the four neighbors and takes the maximum.
func (p *Population) moveAgent(a *Agent, f *terrain.Field, rng *entropy.Source, tick uint64) {
	best := -1
	bestScore := float32(0)

	for s, d := range steps {
		nx, ny := a.X+d[0], a.Y+d[1]
		if s != 0 {
			if !f.InBounds(nx, ny) || !f.At(nx, ny).Walkable() {
				continue
			}
		}
		score := p.scoreCell(a, f, nx, ny, tick)
		if best < 0 || score > bestScore {
			best = s
			bestScore = score
		}
	}

	if best > 0 {
		a.X += steps[best][0]
		a.Y += steps[best][1]
		a.BlockedSteps = 0
		return
	}

	// Stayed put. A goal that wants motion but can't get it for a run of
	// steps forces a replan.
	if a.Goal != GoalStayHome && a.Goal != GoalWander {
		a.BlockedSteps++
		if a.BlockedSteps >= kBlockedLimit {
			p.Replan(a, f, rng)
		}
	}
}

// scoreCell combines goal-specific terms with the shared crowd, fire, home,
// and jitter terms.
func (p *Population) scoreCell(a *Agent, f *terrain.Field, x, y int, tick uint64) float32 {
	i := f.Idx(x, y)
	food, water, fire, home := f.ScentAt(x, y)

	score := -fire * kFirePenalty
	score -= float32(p.occupancy[i]) * kCrowdPenalty
	score += home * kHomeBias

	jitterW := float32(kJitterScale)

	switch a.Goal {
	case GoalSeekFood:
		score += food*2 + float32(f.Tiles[i].Food)*1.5
	case GoalSeekWater:
		score += water * 3
		if a.WaterX >= 0 {
			score -= 0.15 * float32(manhattan(x, y, a.WaterX, a.WaterY))
		}
	case GoalFleeFire:
		score -= fire * kFleeFireWeight
	case GoalWork, GoalSeekMate:
		score -= 0.5 * float32(manhattan(x, y, a.TargetX, a.TargetY))
	case GoalStayHome:
		score += home * kStayHomeWeight
	case GoalWander:
		score -= 0.1 * float32(manhattan(x, y, a.TargetX, a.TargetY))
		jitterW = kWanderJitter
		if x == a.X && y == a.Y {
			// Restlessness penalizes standing still while wandering.
			score -= a.Wanderlust * 0.3
		}
	}

	score += jitter(a.ID, x, y, tick) * jitterW
	return score
}

// jitter derives a small deterministic tie-breaker from agent identity,
// position, and tick, so equal-scored cells don't bias toward scan order.
func jitter(id int32, x, y int, tick uint64) float32 {
	h := uint64(uint32(id))*0x9E3779B97F4A7C15 ^ uint64(uint32(x))<<32 ^ uint64(uint32(y))<<16 ^ tick
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return float32(h&0xFFFF) / 65535.0
}

func manhattan(x0, y0, x1, y1 int) int {
	dx, dy := x1-x0, y1-y0
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
