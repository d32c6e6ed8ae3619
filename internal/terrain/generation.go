// World generation using layered simplex noise: an elevation layer shapes the
// continent, a moisture layer places lakes and seeds vegetation.
package terrain

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width, Height int
	Seed          int64
	SeaLevel      float64 // elevation threshold for ocean
	LakeMoisture  float64 // moisture threshold for fresh-water pooling
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:        256,
		Height:       256,
		SeaLevel:     0.32,
		LakeMoisture: 0.74,
	}
}

// Generate creates a field with terrain, lakes, and initial vegetation.
func Generate(cfg GenConfig, rng *entropy.Source) *Field {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	moistNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	f := New(cfg.Width, cfg.Height)
	halfW := float64(cfg.Width) / 2
	halfH := float64(cfg.Height) / 2

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.02, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.03, 0.5)

			// Continental shaping: push elevation down toward the borders so
			// the landmass is ringed by ocean.
			nx := (fx - halfW) / halfW
			ny := (fy - halfH) / halfH
			dist := math.Sqrt(nx*nx + ny*ny)
			elev *= 1.0 - math.Pow(dist, 3)

			t := f.At(x, y)
			switch {
			case elev < cfg.SeaLevel:
				t.Kind = KindOcean
			case elev < cfg.SeaLevel+0.05 && moist > cfg.LakeMoisture:
				t.Kind = KindFreshWater
			default:
				t.Kind = KindLand
				// Moist land starts vegetated; a little jitter breaks up bands.
				veg := int(moist*float64(MaxVegetation)) + rng.Range(-1, 1)
				if veg < 0 {
					veg = 0
				}
				if veg > MaxVegetation {
					veg = MaxVegetation
				}
				t.Vegetation = uint8(veg)
				if veg >= 3 && rng.Chance(0.3) {
					t.Food = uint8(rng.Range(1, 3))
				}
			}
			t.Building.SettlementID = -1
		}
	}

	carveLakes(f, rng)
	f.RefreshWaterScent()
	return f
}

// carveLakes grows each fresh-water seed into a small pond so water reads as
// a destination rather than single-tile noise.
func carveLakes(f *Field, rng *entropy.Source) {
	var seeds [][2]int
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			if f.At(x, y).Kind == KindFreshWater {
				seeds = append(seeds, [2]int{x, y})
			}
		}
	}
	for _, s := range seeds {
		for _, d := range cardinal {
			nx, ny := s[0]+d[0], s[1]+d[1]
			if f.InBounds(nx, ny) && f.At(nx, ny).Kind == KindLand && rng.Chance(0.5) {
				f.SetKind(nx, ny, KindFreshWater)
			}
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

// LandCount returns the number of land tiles, for startup reporting.
func LandCount(f *Field) int {
	n := 0
	for i := range f.Tiles {
		if f.Tiles[i].Kind == KindLand {
			n++
		}
	}
	return n
}
