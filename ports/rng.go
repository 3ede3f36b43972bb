// Package ports defines the interfaces the analytics core depends on.
package ports

import "math/rand"

// RNG provides seeded random number generation for deterministic
// operations. Injecting it keeps k-means initialization reproducible:
// the same dataset and seed always produce the same clusters.
type RNG interface {
	// Stream creates a deterministic generator for a named operation
	Stream(name string, seed int64) *rand.Rand
}
