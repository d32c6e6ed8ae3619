package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, a.Float(), b.Float(), "sequence diverged at draw %d", i)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := NewSource(1)
	b := NewSource(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float() == b.Float() {
			same++
		}
	}
	assert.Less(t, same, 5, "seeds 1 and 2 produced near-identical streams")
}

func TestRangeBounds(t *testing.T) {
	rng := NewSource(7)
	for i := 0; i < 1000; i++ {
		v := rng.Range(3, 9)
		assert.GreaterOrEqual(t, v, 3)
		assert.LessOrEqual(t, v, 9)
	}
	assert.Equal(t, 5, rng.Range(5, 5))
}

func TestChanceClamps(t *testing.T) {
	rng := NewSource(7)
	for i := 0; i < 100; i++ {
		assert.False(t, rng.Chance(0))
		assert.False(t, rng.Chance(-2.5))
		assert.True(t, rng.Chance(1))
		assert.True(t, rng.Chance(7.0))
	}
}

func TestIntNCoversRange(t *testing.T) {
	rng := NewSource(99)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := rng.IntN(4)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 4)
		seen[v] = true
	}
	assert.Len(t, seen, 4)
}
