package settlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneClaimNearestWins(t *testing.T) {
	var z zoneGrid
	z.resize(64, 64)
	z.nextGen()

	zi := z.tileZone(20, 20)
	require.GreaterOrEqual(t, zi, 0)

	z.claim(zi, 1, 100)
	assert.Equal(t, int32(1), z.ownerOf(zi))

	// Closer claimant takes over; farther one is ignored.
	z.claim(zi, 2, 50)
	assert.Equal(t, int32(2), z.ownerOf(zi))
	z.claim(zi, 3, 400)
	assert.Equal(t, int32(2), z.ownerOf(zi))

	// Equal distance keeps the incumbent.
	z.claim(zi, 4, 50)
	assert.Equal(t, int32(2), z.ownerOf(zi))
}

func TestZoneStaleSlotsReadEmpty(t *testing.T) {
	var z zoneGrid
	z.resize(64, 64)
	z.nextGen()

	zi := z.tileZone(5, 5)
	z.claim(zi, 7, 1)
	z.addPop(zi, 12)
	z.addConflict(zi, 2.5)
	require.Equal(t, int32(7), z.ownerOf(zi))
	require.Equal(t, int32(12), z.popOf(zi))

	// A new generation invalidates everything without touching memory.
	z.nextGen()
	assert.Equal(t, int32(-1), z.ownerOf(zi))
	assert.Zero(t, z.popOf(zi))
	assert.Zero(t, z.conflictOf(zi))
	assert.Empty(t, z.touched)

	// Writing into a stale slot resets it rather than accumulating.
	z.addPop(zi, 3)
	assert.Equal(t, int32(3), z.popOf(zi))
}

func TestZoneResizeInvalidates(t *testing.T) {
	var z zoneGrid
	z.resize(64, 64)
	z.nextGen()
	zi := z.tileZone(5, 5)
	z.claim(zi, 1, 1)
	z.streak[zi] = 4

	z.resize(128, 128)
	assert.Equal(t, int32(-1), z.ownerOf(z.tileZone(5, 5)))
	assert.Zero(t, z.streak[z.tileZone(5, 5)], "streaks survived a world resize")

	// Same-size resize is a no-op.
	z.nextGen()
	zi = z.tileZone(5, 5)
	z.claim(zi, 9, 1)
	z.resize(128, 128)
	assert.Equal(t, int32(9), z.ownerOf(zi))
}

func TestZoneBoundsSentinels(t *testing.T) {
	var z zoneGrid
	z.resize(64, 64)
	z.nextGen()

	assert.Equal(t, -1, z.tileZone(-1, 5))
	assert.Equal(t, -1, z.tileZone(5, 64))
	assert.Equal(t, int32(-1), z.ownerOf(-1))
	assert.Zero(t, z.popOf(-1))
	assert.Zero(t, z.conflictOf(-1))
}

func TestZoneGenerationWrapClears(t *testing.T) {
	var z zoneGrid
	z.resize(32, 32)
	z.gen = ^uint32(0) // one step before wrap
	zi := z.tileZone(0, 0)
	z.ownerGen[zi] = z.gen // forged stale stamp at the pre-wrap generation
	z.owner[zi] = 42

	z.nextGen()
	assert.Equal(t, uint32(1), z.gen)
	assert.Equal(t, int32(-1), z.ownerOf(zi), "stale stamp aliased the wrapped generation")
}
