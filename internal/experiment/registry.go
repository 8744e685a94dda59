package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/isingsim/internal/metrics"
	"github.com/san-kum/isingsim/internal/metropolis"
	"github.com/san-kum/isingsim/internal/sim"
)

type Registry struct {
	selections map[string]metropolis.Selection
	metrics    map[string]func(p sim.Params) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		selections: make(map[string]metropolis.Selection),
		metrics:    make(map[string]func(sim.Params) sim.Metric),
	}

	r.selections["random"] = metropolis.SelectRandom
	r.selections["raster"] = metropolis.SelectRaster

	r.metrics["mean_magnetisation"] = func(sim.Params) sim.Metric { return metrics.NewMeanMagnetisation() }
	r.metrics["mean_abs_magnetisation"] = func(sim.Params) sim.Metric { return metrics.NewMeanAbsMagnetisation() }
	r.metrics["susceptibility"] = func(p sim.Params) sim.Metric { return metrics.NewSusceptibility(p.Beta, p.Size*p.Size) }
	r.metrics["mean_energy"] = func(p sim.Params) sim.Metric { return metrics.NewMeanEnergy(p.Size * p.Size) }
	r.metrics["specific_heat"] = func(p sim.Params) sim.Metric { return metrics.NewSpecificHeat(p.Beta, p.Size*p.Size) }
	r.metrics["acceptance_rate"] = func(sim.Params) sim.Metric { return metrics.NewAcceptanceRate() }

	return r
}

func (r *Registry) GetSelection(name string) (metropolis.Selection, error) {
	sel, ok := r.selections[name]
	if !ok {
		return metropolis.SelectRandom, fmt.Errorf("unknown selection policy: %s", name)
	}
	return sel, nil
}

func (r *Registry) GetMetric(name string, p sim.Params) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSelections() []string {
	names := make([]string, 0, len(r.selections))
	for name := range r.selections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns every registered metric, ignoring samples taken
// before the burn-in sweep.
func (r *Registry) DefaultMetrics(p sim.Params, burnin int) []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, metrics.Burnin(r.metrics[name](p), burnin))
	}
	return out
}
