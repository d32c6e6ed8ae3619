package terrain

// Rect is an inclusive tile-coordinate rectangle used for dirty-region
// signaling to the external renderer.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// expand grows the rect to include (x, y).
func (r *Rect) expand(x, y int) {
	if x < r.X0 {
		r.X0 = x
	}
	if y < r.Y0 {
		r.Y0 = y
	}
	if x > r.X1 {
		r.X1 = x
	}
	if y > r.Y1 {
		r.Y1 = y
	}
}

// Field owns the tile grid and the derived scalar overlays. Out-of-bounds
// access is the caller's responsibility to avoid; accessors never clamp.
type Field struct {
	W, H  int
	Tiles []Tile

	// Scalar overlays consumed as movement/decision heuristics.
	FoodScent  []float32
	WaterScent []float32
	FireRisk   []float32
	HomeScent  []float32

	terrainDirty  bool
	dirty         Rect
	buildingDirty bool
}

// New creates an all-ocean field of the given dimensions.
func New(w, h int) *Field {
	n := w * h
	return &Field{
		W:          w,
		H:          h,
		Tiles:      make([]Tile, n),
		FoodScent:  make([]float32, n),
		WaterScent: make([]float32, n),
		FireRisk:   make([]float32, n),
		HomeScent:  make([]float32, n),
	}
}

// Idx converts tile coordinates to a flat index.
func (f *Field) Idx(x, y int) int {
	return y*f.W + x
}

// At returns the tile at (x, y) for reading or bounded mutation.
func (f *Field) At(x, y int) *Tile {
	return &f.Tiles[y*f.W+x]
}

// InBounds reports whether (x, y) lies on the grid.
func (f *Field) InBounds(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

// markTerrainDirty merges (x, y) into the pending dirty rect.
func (f *Field) markTerrainDirty(x, y int) {
	if !f.terrainDirty {
		f.terrainDirty = true
		f.dirty = Rect{X0: x, Y0: y, X1: x, Y1: y}
		return
	}
	f.dirty.expand(x, y)
}

// ConsumeTerrainDirty returns the accumulated dirty rect and clears it.
// The second return is false when nothing changed since the last call.
func (f *Field) ConsumeTerrainDirty() (Rect, bool) {
	if !f.terrainDirty {
		return Rect{}, false
	}
	r := f.dirty
	f.terrainDirty = false
	return r, true
}

// ConsumeBuildingDirty returns and clears the building-change flag.
func (f *Field) ConsumeBuildingDirty() bool {
	d := f.buildingDirty
	f.buildingDirty = false
	return d
}

// SetKind rewrites a tile's base terrain (brush edits, world setup).
func (f *Field) SetKind(x, y int, k Kind) {
	t := f.At(x, y)
	if t.Kind == k {
		return
	}
	t.Kind = k
	if k != KindLand {
		t.Vegetation = 0
		t.Food = 0
		t.Burning = false
		t.BurnDays = 0
	}
	f.markTerrainDirty(x, y)
}

// SetBuilding places or replaces a building on a tile.
func (f *Field) SetBuilding(x, y int, kind BuildingKind, owner int32, stage uint8) {
	t := f.At(x, y)
	t.Building = Building{Kind: kind, SettlementID: owner, Stage: stage}
	f.buildingDirty = true
	f.markTerrainDirty(x, y)
}

// ClearBuilding removes any building from a tile.
func (f *Field) ClearBuilding(x, y int) {
	t := f.At(x, y)
	if t.Building.Kind == BuildingNone {
		return
	}
	t.Building = Building{SettlementID: -1}
	f.buildingDirty = true
	f.markTerrainDirty(x, y)
}

// AddFood adjusts a tile's food count, clamped to [0, MaxFood].
func (f *Field) AddFood(x, y, delta int) {
	t := f.At(x, y)
	v := int(t.Food) + delta
	if v < 0 {
		v = 0
	}
	if v > MaxFood {
		v = MaxFood
	}
	t.Food = uint8(v)
	f.markTerrainDirty(x, y)
}

// AddVegetation adjusts a tile's vegetation count, clamped to [0, MaxVegetation].
func (f *Field) AddVegetation(x, y, delta int) {
	t := f.At(x, y)
	v := int(t.Vegetation) + delta
	if v < 0 {
		v = 0
	}
	if v > MaxVegetation {
		v = MaxVegetation
	}
	t.Vegetation = uint8(v)
	f.markTerrainDirty(x, y)
}

// Ignite sets a land tile burning for the standard duration.
func (f *Field) Ignite(x, y int) {
	t := f.At(x, y)
	if t.Kind != KindLand || t.Burning {
		return
	}
	t.Burning = true
	t.BurnDays = BurnDuration
	f.markTerrainDirty(x, y)
}

// RefreshWaterScent rebuilds the water overlay from fresh-water tiles by
// repeated neighbor relaxation. Called at world setup and after terrain edits
// that add or remove water; daily ticks never need it.
func (f *Field) RefreshWaterScent() {
	for i := range f.WaterScent {
		if f.Tiles[i].Kind == KindFreshWater {
			f.WaterScent[i] = 1.0
		} else {
			f.WaterScent[i] = 0
		}
	}
	const passes = 24
	const decay = 0.90
	for p := 0; p < passes; p++ {
		changed := false
		for y := 0; y < f.H; y++ {
			for x := 0; x < f.W; x++ {
				i := f.Idx(x, y)
				best := f.WaterScent[i]
				if x > 0 && f.WaterScent[i-1]*decay > best {
					best = f.WaterScent[i-1] * decay
				}
				if x < f.W-1 && f.WaterScent[i+1]*decay > best {
					best = f.WaterScent[i+1] * decay
				}
				if y > 0 && f.WaterScent[i-f.W]*decay > best {
					best = f.WaterScent[i-f.W] * decay
				}
				if y < f.H-1 && f.WaterScent[i+f.W]*decay > best {
					best = f.WaterScent[i+f.W] * decay
				}
				if best > f.WaterScent[i] {
					f.WaterScent[i] = best
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}

// ResetHomeScent clears the home-affinity overlay before a topology rebuild.
func (f *Field) ResetHomeScent() {
	for i := range f.HomeScent {
		f.HomeScent[i] = 0
	}
}

// StampHomeScent writes a radial falloff around a settlement center into the
// home-affinity overlay. Overlapping stamps keep the maximum.
func (f *Field) StampHomeScent(cx, cy, radius int, weight float32) {
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= f.H {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= f.W {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			d := dx + dy
			if d > radius {
				continue
			}
			v := weight * (1 - float32(d)/float32(radius+1))
			i := f.Idx(x, y)
			if v > f.HomeScent[i] {
				f.HomeScent[i] = v
			}
		}
	}
}

// ScentAt returns the four overlay values at a tile in one call.
func (f *Field) ScentAt(x, y int) (food, water, fire, home float32) {
	i := f.Idx(x, y)
	return f.FoodScent[i], f.WaterScent[i], f.FireRisk[i], f.HomeScent[i]
}
