package sim

import (
	"fmt"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/metropolis"
)

// Params are fixed for the lifetime of a run.
type Params struct {
	Size           int
	J              float64
	H              float64
	Beta           float64
	Sweeps         int
	SampleInterval int
	Seed           int64
	Selection      metropolis.Selection
}

func (p Params) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", lattice.ErrInvalidParameter, p.Size)
	}
	if p.Beta < 0 {
		return fmt.Errorf("%w: beta must be non-negative, got %g", lattice.ErrInvalidParameter, p.Beta)
	}
	if p.Sweeps < 0 {
		return fmt.Errorf("%w: sweep count must be non-negative, got %d", lattice.ErrInvalidParameter, p.Sweeps)
	}
	if p.SampleInterval < 0 {
		return fmt.Errorf("%w: sample interval must be non-negative, got %d", lattice.ErrInvalidParameter, p.SampleInterval)
	}
	return nil
}

// Interval is the effective sample interval; zero means every sweep.
func (p Params) Interval() int {
	if p.SampleInterval <= 0 {
		return 1
	}
	return p.SampleInterval
}

// SampleCount is the number of samples a complete run yields.
func (p Params) SampleCount() int {
	k := p.Interval()
	n := p.Sweeps/k + 1
	if p.Sweeps%k != 0 {
		n++
	}
	return n
}

func (p Params) Stepper() metropolis.Stepper {
	return metropolis.Stepper{J: p.J, H: p.H, Beta: p.Beta, Selection: p.Selection}
}

// Sample is an observation taken before the updates of sweep Sweep.
type Sample struct {
	Sweep         int
	Magnetisation float64 // per site
	Energy        float64
	// Accepted and Trials count the moves made since the previous sample.
	Accepted int
	Trials   int
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(s Sample, v lattice.View)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Sample, v lattice.View)

func (f ObserverFunc) OnSample(s Sample, v lattice.View) { f(s, v) }

type State int

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Result struct {
	Params   Params
	Samples  []Sample
	Metrics  map[string]float64
	Trials   int
	Accepted int
	Final    [][]int8
}

func (r *Result) AcceptanceRate() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Trials)
}
