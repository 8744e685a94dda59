package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/rng"
)

// Ensemble runs independent replicas of the same parameters. Replica i uses
// seed seedStart+i for both its initial lattice and its Metropolis draws.
type Ensemble struct {
	params    Params
	numRuns   int
	seedStart int64
	metrics   func() []Metric
	limit     int
}

func NewEnsemble(p Params, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{params: p, numRuns: numRuns, seedStart: seedStart}
}

// WithMetrics attaches a fresh metric set, built by factory, to every replica.
func (e *Ensemble) WithMetrics(factory func() []Metric) *Ensemble {
	e.metrics = factory
	return e
}

// WithLimit caps the number of replicas running at once; n <= 0 is unlimited.
func (e *Ensemble) WithLimit(n int) *Ensemble {
	e.limit = n
	return e
}

func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			p := e.params
			p.Seed = e.seedStart + int64(i)

			res, err := RunSeeded(ctx, p, e.metricSet())
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Ensemble) metricSet() []Metric {
	if e.metrics == nil {
		return nil
	}
	return e.metrics()
}

// RunSeeded builds a random lattice and driver from p.Seed and collects the
// full run.
func RunSeeded(ctx context.Context, p Params, metrics []Metric, observers ...Observer) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	src := rng.New(p.Seed)
	l, err := lattice.New(p.Size, src)
	if err != nil {
		return nil, err
	}
	d, err := New(l, p, src)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics {
		d.AddMetric(m)
	}
	for _, o := range observers {
		d.AddObserver(o)
	}
	return d.Collect(ctx)
}
