package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k7LqB9c2W/funsim-sub000/internal/entropy"
)

// lakeField builds a small all-land field with a single fresh-water tile in
// the middle.
func lakeField(w, h int) *Field {
	f := New(w, h)
	for i := range f.Tiles {
		f.Tiles[i].Kind = KindLand
	}
	f.Tiles[f.Idx(w/2, h/2)].Kind = KindFreshWater
	f.RefreshWaterScent()
	return f
}

func TestFoodAccumulatesNearFreshWater(t *testing.T) {
	f := lakeField(16, 16)
	rng := entropy.NewSource(3)

	for day := 0; day < 100; day++ {
		f.UpdateDaily(rng)
	}

	// The four tiles adjacent to the lake get the water growth boost every
	// day; after 100 days they should have accumulated real food.
	cx, cy := 8, 8
	total := 0
	for _, d := range cardinal {
		total += int(f.At(cx+d[0], cy+d[1]).Food)
	}
	assert.Greater(t, total, 4, "water-adjacent tiles grew almost no food in 100 days")

	// Nothing ever ignited: no ignition source exists.
	for i := range f.Tiles {
		assert.False(t, f.Tiles[i].Burning)
	}
}

func TestFireBurnsOutAndConsumesVegetation(t *testing.T) {
	f := New(8, 8)
	for i := range f.Tiles {
		f.Tiles[i].Kind = KindLand
	}
	f.At(4, 4).Vegetation = MaxVegetation
	f.Ignite(4, 4)
	require.True(t, f.At(4, 4).Burning)

	rng := entropy.NewSource(1)
	for day := 0; day < BurnDuration; day++ {
		f.UpdateDaily(rng)
	}
	assert.False(t, f.At(4, 4).Burning, "fire outlived its burn duration")
	assert.Less(t, int(f.At(4, 4).Vegetation), MaxVegetation)
}

func TestIgniteRefusesWater(t *testing.T) {
	f := New(4, 4)
	f.Ignite(1, 1) // ocean
	assert.False(t, f.At(1, 1).Burning)

	f.SetKind(2, 2, KindFreshWater)
	f.Ignite(2, 2)
	assert.False(t, f.At(2, 2).Burning)
}

func TestWaterScentGradient(t *testing.T) {
	f := lakeField(32, 32)
	cx, cy := 16, 16

	at := func(x, y int) float32 {
		_, w, _, _ := f.ScentAt(x, y)
		return w
	}
	assert.Equal(t, float32(1.0), at(cx, cy))
	assert.Greater(t, at(cx+1, cy), at(cx+5, cy), "scent does not fall off with distance")
	assert.Greater(t, at(cx+5, cy), float32(0))
}

func TestDirtyRectAccumulates(t *testing.T) {
	f := New(16, 16)
	_, any := f.ConsumeTerrainDirty()
	assert.False(t, any)

	f.SetKind(2, 3, KindLand)
	f.SetKind(10, 12, KindLand)
	r, any := f.ConsumeTerrainDirty()
	require.True(t, any)
	assert.Equal(t, Rect{X0: 2, Y0: 3, X1: 10, Y1: 12}, r)

	_, any = f.ConsumeTerrainDirty()
	assert.False(t, any, "dirty rect not cleared by consume")
}

func TestStampHomeScentKeepsMaximum(t *testing.T) {
	f := New(32, 32)
	f.StampHomeScent(10, 10, 6, 1)
	f.StampHomeScent(14, 10, 6, 1)

	_, _, _, center := f.ScentAt(12, 10)
	assert.Greater(t, center, float32(0))
	_, _, _, at10 := f.ScentAt(10, 10)
	assert.Equal(t, float32(1.0), at10, "stamp center should hold full weight")
}
