package sim

import (
	"context"
	"fmt"
	"iter"

	"github.com/san-kum/isingsim/internal/energy"
	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/metropolis"
	"github.com/san-kum/isingsim/internal/rng"
)

type Driver struct {
	lat       *lattice.Lattice
	params    Params
	src       rng.Source
	stepper   metropolis.Stepper
	metrics   []Metric
	observers []Observer
	state     State
	err       error
	trials    int
	accepted  int
}

// New takes ownership of l for the run. Parameter errors wrap
// lattice.ErrInvalidParameter.
func New(l *lattice.Lattice, p Params, src rng.Source) (*Driver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: nil lattice", lattice.ErrInvalidParameter)
	}
	if l.Size() != p.Size {
		return nil, fmt.Errorf("%w: lattice size %d does not match params size %d", lattice.ErrInvalidParameter, l.Size(), p.Size)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil random source", lattice.ErrInvalidParameter)
	}
	return &Driver{
		lat:       l,
		params:    p,
		src:       src,
		stepper:   p.Stepper(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

func (d *Driver) Params() Params        { return d.params }
func (d *Driver) State() State          { return d.state }
func (d *Driver) Lattice() lattice.View { return d.lat }

// Err reports why the last Run stopped early, if it did.
func (d *Driver) Err() error { return d.err }

// Run returns the lazy sample sequence. It can be ranged over once; breaking
// out of the loop ends the run.
func (d *Driver) Run(ctx context.Context) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		if d.state != NotStarted {
			if d.err == nil {
				d.err = ErrAlreadyRun
			}
			return
		}
		d.state = Running
		defer func() { d.state = Completed }()

		for _, m := range d.metrics {
			m.Reset()
		}

		n := d.params.Sweeps
		interval := d.params.Interval()
		var pendingTrials, pendingAccepted int

		for sweep := 0; sweep <= n; sweep++ {
			if err := ctx.Err(); err != nil {
				d.err = fmt.Errorf("%w at sweep %d: %w", ErrCanceled, sweep, err)
				return
			}

			if sweep%interval == 0 || sweep == n {
				s := d.sample(sweep)
				s.Trials, s.Accepted = pendingTrials, pendingAccepted
				pendingTrials, pendingAccepted = 0, 0

				for _, m := range d.metrics {
					m.Observe(s)
				}
				for _, o := range d.observers {
					o.OnSample(s, d.lat)
				}
				if !yield(s) {
					return
				}
			}

			if sweep == n {
				break
			}
			stats := d.stepper.Sweep(d.lat, d.src)
			pendingTrials += stats.Trials
			pendingAccepted += stats.Accepted
			d.trials += stats.Trials
			d.accepted += stats.Accepted
		}
	}
}

func (d *Driver) sample(sweep int) Sample {
	n := d.lat.Size()
	return Sample{
		Sweep:         sweep,
		Magnetisation: float64(d.lat.TotalMagnetisation()) / float64(n*n),
		Energy:        energy.Total(d.lat, d.params.J, d.params.H),
	}
}

// Collect drains Run into a Result. On cancellation the partial result is
// returned together with the error.
func (d *Driver) Collect(ctx context.Context) (*Result, error) {
	result := &Result{
		Params:  d.params,
		Samples: make([]Sample, 0, d.params.SampleCount()),
		Metrics: make(map[string]float64),
	}
	for s := range d.Run(ctx) {
		result.Samples = append(result.Samples, s)
	}

	result.Trials, result.Accepted = d.trials, d.accepted
	result.Final = d.lat.Spins()
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, d.err
}
