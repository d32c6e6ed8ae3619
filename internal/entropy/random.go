// Package entropy provides the deterministic random source threaded through
// every simulation system. All randomness flows through one Source so a world
// is reproducible from its seed.
package entropy

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// Source wraps a seeded PCG generator. It is passed by pointer into every
// function that samples randomness, never held as package state.
type Source struct {
	rng *rand.Rand
}

// NewSource creates a deterministic source from a world seed.
func NewSource(seed int64) *Source {
	// Non-cryptographic PRNG is intentional for reproducible simulation.
	// #nosec G404
	return &Source{rng: rand.New(rand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b")))}
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d:%s", seed, salt)
	return h.Sum64()
}

// Float returns a uniform float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// IntN returns a uniform int in [0, n). n must be positive.
func (s *Source) IntN(n int) int {
	return s.rng.IntN(n)
}

// Range returns a uniform int in [lo, hi]. lo must not exceed hi.
func (s *Source) Range(lo, hi int) int {
	return lo + s.rng.IntN(hi-lo+1)
}

// Chance performs a Bernoulli trial. p is clamped to [0, 1] before sampling,
// so callers can pass raw modifier products without pre-checking.
func (s *Source) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rng.Float64() < p
}

// Shuffle permutes n elements using the provided swap function.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}
