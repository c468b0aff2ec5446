// Package random draws the numbers handed out to new matches. Match numbers
// are for reading aloud at the table, not secrets, so the non-cryptographic
// generator is enough.
package random

import "math/rand/v2"

// Random is a source of uniformly distributed ints
type Random interface {
	// Intn returns an int in [0, n)
	Intn(n int) int
}

// Source draws from the process-wide math/rand generator
type Source struct{}

// New returns the default source
func New() Source {
	return Source{}
}

// Intn returns an int in [0, n), or 0 when n is not positive
func (Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

// IntRange returns an int in [lo, hi]
func IntRange(r Random, lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}
