// Package metropolis implements single-spin-flip Metropolis updates.
package metropolis

import (
	"fmt"
	"math"

	"github.com/san-kum/isingsim/internal/energy"
	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/rng"
)

// Selection decides which site a trial proposes to flip.
type Selection int

const (
	// SelectRandom draws each site uniformly with replacement, so a sweep may
	// visit some sites several times and skip others.
	SelectRandom Selection = iota
	// SelectRaster walks the lattice in row-major order, one site per trial.
	SelectRaster
)

func (s Selection) String() string {
	switch s {
	case SelectRandom:
		return "random"
	case SelectRaster:
		return "raster"
	default:
		return fmt.Sprintf("selection(%d)", int(s))
	}
}

// ParseSelection maps "random" (or "") and "raster" to a Selection.
func ParseSelection(name string) (Selection, error) {
	switch name {
	case "", "random":
		return SelectRandom, nil
	case "raster":
		return SelectRaster, nil
	default:
		return SelectRandom, fmt.Errorf("unknown selection policy: %s", name)
	}
}

// Outcome describes one trial.
type Outcome struct {
	I, J     int
	Delta    float64
	Accepted bool
}

type SweepStats struct {
	Trials   int
	Accepted int
}

func (s SweepStats) Rate() float64 {
	if s.Trials == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Trials)
}

// Stepper holds the immutable physical parameters of a run.
type Stepper struct {
	J, H      float64
	Beta      float64
	Selection Selection
}

// Accept applies the Metropolis criterion to an energy change. u is a
// uniform draw in [0,1) and is only consulted for unfavourable moves.
// exp(-beta*delta) underflows to 0 for large arguments, which rejects.
func Accept(delta, beta, u float64) bool {
	if delta <= 0 {
		return true
	}
	return u < math.Exp(-beta*delta)
}

// Trial proposes a single flip at a site chosen by the random policy and
// applies it if accepted.
func (s Stepper) Trial(l *lattice.Lattice, src rng.Source) Outcome {
	n := l.Size()
	return s.trialAt(l, src, src.Intn(n), src.Intn(n))
}

func (s Stepper) trialAt(l *lattice.Lattice, src rng.Source, i, j int) Outcome {
	out := Outcome{I: i, J: j, Delta: energy.LocalDelta(l, i, j, s.J, s.H)}
	if out.Delta <= 0 {
		out.Accepted = true
	} else {
		out.Accepted = Accept(out.Delta, s.Beta, src.Float64())
	}
	if out.Accepted {
		l.Flip(i, j)
	}
	return out
}

// Sweep performs size² trials.
func (s Stepper) Sweep(l *lattice.Lattice, src rng.Source) SweepStats {
	n := l.Size()
	stats := SweepStats{Trials: n * n}
	for k := 0; k < n*n; k++ {
		var out Outcome
		if s.Selection == SelectRaster {
			out = s.trialAt(l, src, k/n, k%n)
		} else {
			out = s.Trial(l, src)
		}
		if out.Accepted {
			stats.Accepted++
		}
	}
	return stats
}
