package settlements

// zoneGrid holds the generation-stamped per-zone caches: territory owner,
// population density, and conflict intensity. A slot is valid only while its
// stamp equals the current generation, so advancing the generation invalidates
// everything in O(1) instead of clearing O(zones) memory each day. Touched
// zones are tracked in a list so consumers iterate O(touched).
type zoneGrid struct {
	w, h int // dimensions in zones
	gen  uint32

	owner    []int32
	ownerD2  []int32 // squared distance of the winning claim source
	ownerGen []uint32

	pop    []int32
	popGen []uint32

	conflict    []float32
	conflictGen []uint32

	// touched lists zone indices claimed this generation, for territory
	// accounting and border scans.
	touched []int32

	// streak counts consecutive days a zone's density stayed above the
	// founding threshold. Persistent across generations, not stamped.
	streak []int16
}

// resize reallocates the caches for a new world size and invalidates
// everything, including the founding streaks.
func (z *zoneGrid) resize(tilesW, tilesH int) {
	w := (tilesW + ZoneSize - 1) / ZoneSize
	h := (tilesH + ZoneSize - 1) / ZoneSize
	if w == z.w && h == z.h {
		return
	}
	n := w * h
	z.w, z.h = w, h
	z.owner = make([]int32, n)
	z.ownerD2 = make([]int32, n)
	z.ownerGen = make([]uint32, n)
	z.pop = make([]int32, n)
	z.popGen = make([]uint32, n)
	z.conflict = make([]float32, n)
	z.conflictGen = make([]uint32, n)
	z.streak = make([]int16, n)
	z.touched = z.touched[:0]
	z.gen = 1
}

// nextGen starts a fresh day: bump the generation and reset the touched list.
// On counter wrap, fall back to one real clear so stale stamps can never
// alias the new generation.
func (z *zoneGrid) nextGen() {
	z.gen++
	if z.gen == 0 {
		clear(z.ownerGen)
		clear(z.popGen)
		clear(z.conflictGen)
		z.gen = 1
	}
	z.touched = z.touched[:0]
}

// index converts zone coordinates to a flat index, -1 out of bounds.
func (z *zoneGrid) index(zx, zy int) int {
	if zx < 0 || zx >= z.w || zy < 0 || zy >= z.h {
		return -1
	}
	return zy*z.w + zx
}

// tileZone converts tile coordinates to a zone index, -1 out of bounds.
func (z *zoneGrid) tileZone(x, y int) int {
	return z.index(x/ZoneSize, y/ZoneSize)
}

// claim offers a claim source to a zone. The nearest source by squared
// distance wins; ties keep the first claimant.
func (z *zoneGrid) claim(zi int, settlementID int32, d2 int32) {
	if z.ownerGen[zi] != z.gen {
		z.ownerGen[zi] = z.gen
		z.owner[zi] = settlementID
		z.ownerD2[zi] = d2
		z.touched = append(z.touched, int32(zi))
		return
	}
	if d2 < z.ownerD2[zi] {
		z.owner[zi] = settlementID
		z.ownerD2[zi] = d2
	}
}

// ownerOf returns the zone's owner, -1 for unclaimed or stale slots.
func (z *zoneGrid) ownerOf(zi int) int32 {
	if zi < 0 || z.ownerGen[zi] != z.gen {
		return -1
	}
	return z.owner[zi]
}

// addPop accumulates population density into a zone.
func (z *zoneGrid) addPop(zi int, n int32) {
	if zi < 0 {
		return
	}
	if z.popGen[zi] != z.gen {
		z.popGen[zi] = z.gen
		z.pop[zi] = 0
	}
	z.pop[zi] += n
}

// popOf returns the zone's population density, 0 for stale slots.
func (z *zoneGrid) popOf(zi int) int32 {
	if zi < 0 || z.popGen[zi] != z.gen {
		return 0
	}
	return z.pop[zi]
}

// addConflict accumulates conflict intensity into a zone.
func (z *zoneGrid) addConflict(zi int, v float32) {
	if zi < 0 {
		return
	}
	if z.conflictGen[zi] != z.gen {
		z.conflictGen[zi] = z.gen
		z.conflict[zi] = 0
	}
	z.conflict[zi] += v
}

// conflictOf returns the zone's conflict intensity, 0 for stale slots.
func (z *zoneGrid) conflictOf(zi int) float32 {
	if zi < 0 || z.conflictGen[zi] != z.gen {
		return 0
	}
	return z.conflict[zi]
}
