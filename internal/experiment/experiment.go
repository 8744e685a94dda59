package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/rng"
	"github.com/san-kum/isingsim/internal/sim"
)

type Experiment struct {
	cfg      *config.Config
	params   sim.Params
	registry *Registry
	driver   *sim.Driver
	logger   *slog.Logger
	elapsed  time.Duration
}

func New(cfg *config.Config, registry *Registry, logger *slog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	return &Experiment{cfg: cfg, params: p, registry: registry, logger: logger}, nil
}

// Setup draws the initial lattice from the configured seed and attaches the
// default metrics plus the given observers.
func (e *Experiment) Setup(observers ...sim.Observer) error {
	src := rng.New(e.params.Seed)
	l, err := lattice.New(e.params.Size, src)
	if err != nil {
		return err
	}
	d, err := sim.New(l, e.params, src)
	if err != nil {
		return err
	}
	for _, m := range e.registry.DefaultMetrics(e.params, e.cfg.Burnin) {
		d.AddMetric(m)
	}
	for _, o := range observers {
		d.AddObserver(o)
	}
	e.driver = d
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.logger.Debug("starting run",
		slog.Int("size", e.params.Size),
		slog.Float64("j", e.params.J),
		slog.Float64("h", e.params.H),
		slog.Float64("beta", e.params.Beta),
		slog.Int("sweeps", e.params.Sweeps),
		slog.Int64("seed", e.params.Seed),
		slog.String("selection", e.params.Selection.String()))

	start := time.Now()
	result, err := e.driver.Collect(ctx)
	e.elapsed = time.Since(start)
	if err != nil {
		e.logger.Warn("run stopped early", slog.Int("samples", len(result.Samples)), slog.String("error", err.Error()))
		return result, err
	}

	e.logger.Debug("run completed",
		slog.Duration("elapsed", e.elapsed),
		slog.Float64("acceptance", result.AcceptanceRate()))
	return result, nil
}

func (e *Experiment) Params() sim.Params     { return e.params }
func (e *Experiment) Elapsed() time.Duration { return e.elapsed }

// Driver returns the underlying driver for adding observers after Setup.
func (e *Experiment) Driver() *sim.Driver {
	return e.driver
}
