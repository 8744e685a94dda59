// Package rng defines the random source consumed by the lattice and the
// Metropolis stepper. Every run owns its own Source; sources are not safe for
// concurrent use.
package rng

import "math/rand"

// Source yields uniform floats in [0,1) and uniform integers in [0,n).
type Source interface {
	Float64() float64
	Intn(n int) int
}

// New returns a Source seeded deterministically from seed.
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Scripted replays fixed values. Once a slice is exhausted it wraps around,
// so short scripts can drive long loops in tests.
type Scripted struct {
	Floats []float64
	Ints   []int
	fi, ii int
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

func (s *Scripted) Intn(n int) int {
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	return ((v % n) + n) % n
}
