package terrain

import (
	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
)

// Daily tile-update chances.
const (
	kVegGrowthChance  = 0.02 // bare regrowth on any land tile
	kFoodGrowthBase   = 0.01
	kFoodGrowthPerVeg = 0.012 // per vegetation unit in the 3x3 neighborhood
	kFoodWaterBoost   = 0.06  // adjacent fresh water
	kFireSpreadChance = 0.25  // per burning neighbor, per day
)

var cardinal = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// UpdateDaily applies one day of vegetation growth, food growth, and fire
// decay/spread, then refreshes the food-scent and fire-risk overlays.
func (f *Field) UpdateDaily(rng *entropy.Source) {
	var ignitions []int

	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			i := f.Idx(x, y)
			t := &f.Tiles[i]
			if t.Kind != KindLand {
				continue
			}

			if t.Burning {
				// Burning consumes vegetation and expires after a fixed run.
				if t.Vegetation > 0 {
					t.Vegetation--
				}
				if t.BurnDays > 0 {
					t.BurnDays--
				}
				if t.BurnDays == 0 {
					t.Burning = false
				}
				f.markTerrainDirty(x, y)

				// Spread to vegetated land neighbors.
				for _, d := range cardinal {
					nx, ny := x+d[0], y+d[1]
					if !f.InBounds(nx, ny) {
						continue
					}
					n := f.At(nx, ny)
					if n.Kind == KindLand && !n.Burning && n.Vegetation > 0 && rng.Chance(kFireSpreadChance) {
						ignitions = append(ignitions, f.Idx(nx, ny))
					}
				}
				continue
			}

			// Vegetation regrowth.
			if t.Vegetation < MaxVegetation && rng.Chance(kVegGrowthChance) {
				t.Vegetation++
				f.markTerrainDirty(x, y)
			}

			// Food growth, boosted by nearby vegetation and adjacent fresh water.
			if t.Food < MaxFood {
				chance := kFoodGrowthBase + kFoodGrowthPerVeg*float64(f.vegNear(x, y))
				if f.nearFreshWater(x, y) {
					chance += kFoodWaterBoost
				}
				if rng.Chance(chance) {
					t.Food++
					f.markTerrainDirty(x, y)
				}
			}
		}
	}

	// Apply ignitions after the scan so fire advances one ring per day.
	for _, i := range ignitions {
		t := &f.Tiles[i]
		if !t.Burning {
			t.Burning = true
			t.BurnDays = BurnDuration
			f.markTerrainDirty(i%f.W, i/f.W)
		}
	}

	f.refreshFoodScent()
	f.refreshFireRisk()
}

// vegNear counts vegetation units in the 3x3 neighborhood.
func (f *Field) vegNear(x, y int) int {
	total := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if f.InBounds(nx, ny) {
				total += int(f.At(nx, ny).Vegetation)
			}
		}
	}
	return total
}

// nearFreshWater reports whether any cardinal neighbor is fresh water.
func (f *Field) nearFreshWater(x, y int) bool {
	for _, d := range cardinal {
		nx, ny := x+d[0], y+d[1]
		if f.InBounds(nx, ny) && f.At(nx, ny).Kind == KindFreshWater {
			return true
		}
	}
	return false
}

// refreshFoodScent decays the overlay and restamps it from current food
// counts with a one-tile spill so gradients point at resources.
func (f *Field) refreshFoodScent() {
	for i := range f.FoodScent {
		f.FoodScent[i] *= 0.5
	}
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			food := f.Tiles[f.Idx(x, y)].Food
			if food == 0 {
				continue
			}
			f.FoodScent[f.Idx(x, y)] += float32(food) * 0.2
			for _, d := range cardinal {
				nx, ny := x+d[0], y+d[1]
				if f.InBounds(nx, ny) {
					f.FoodScent[f.Idx(nx, ny)] += float32(food) * 0.08
				}
			}
		}
	}
}

// refreshFireRisk decays the overlay and restamps danger around burning tiles.
func (f *Field) refreshFireRisk() {
	for i := range f.FireRisk {
		f.FireRisk[i] *= 0.6
	}
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			if !f.Tiles[f.Idx(x, y)].Burning {
				continue
			}
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					nx, ny := x+dx, y+dy
					if !f.InBounds(nx, ny) {
						continue
					}
					ad := dx
					if ad < 0 {
						ad = -ad
					}
					ady := dy
					if ady < 0 {
						ady = -ady
					}
					v := 1.0 - 0.3*float32(ad+ady)
					if v <= 0 {
						continue
					}
					i := f.Idx(nx, ny)
					if f.FireRisk[i] < v {
						f.FireRisk[i] = v
					}
				}
			}
		}
	}
}
