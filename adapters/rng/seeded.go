// Package rng implements the seeded random source used by the ML engine.
package rng

import (
	"hash/fnv"
	"math/rand"

	"vendalytics/ports"
)

// SeededRNG derives independent deterministic streams per operation name
type SeededRNG struct{}

// New creates a SeededRNG
func New() *SeededRNG {
	return &SeededRNG{}
}

// Stream returns a generator seeded by the base seed mixed with the
// operation name, so distinct operations don't share a sequence
func (s *SeededRNG) Stream(name string, seed int64) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(seed ^ int64(h.Sum64())))
}

var _ ports.RNG = (*SeededRNG)(nil)
