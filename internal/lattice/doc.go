// Package lattice holds the square toroidal grid of Ising spins.
//
// Sites are addressed as (row, column) and every coordinate wraps modulo the
// side length, so any integer pair is a valid address:
//
//	l, _ := lattice.New(16, rng.New(1))
//	l.Get(-1, 0) == l.Get(15, 0)
//
// # Ownership
//
// A [Lattice] has exactly one writer: the Metropolis stepper driven by the
// simulation loop. Everything else (observers, renderers, storage) receives
// the read-only [View].
package lattice
