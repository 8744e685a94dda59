package experiment

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/isingsim/internal/analysis"
	"github.com/san-kum/isingsim/internal/metrics"
	"github.com/san-kum/isingsim/internal/sim"
)

// ScanPoint holds replica-averaged observables at one inverse temperature.
type ScanPoint struct {
	Beta             float64
	MeanAbsM         float64
	Susceptibility   float64
	MeanEnergy       float64
	SpecificHeat     float64
	Binder           float64
	AcceptanceRate   float64
	AutocorrelationT float64
}

// Scan runs replicas independent simulations at each beta. Every replica
// gets its own lattice and seed; nothing is shared between runs.
func Scan(ctx context.Context, base sim.Params, betas []float64, replicas, burnin int, logger *slog.Logger) ([]ScanPoint, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if replicas < 1 {
		replicas = 1
	}
	points := make([]ScanPoint, len(betas))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, beta := range betas {
		g.Go(func() error {
			p := base
			p.Beta = beta
			seedStart := base.Seed + int64(i*replicas)

			results, err := sim.NewEnsemble(p, replicas, seedStart).
				WithMetrics(func() []sim.Metric { return scanMetrics(p, burnin) }).
				Run(ctx)
			if err != nil {
				return err
			}
			points[i] = summarise(beta, results, burnin)
			logger.Debug("scan point done", slog.Float64("beta", beta), slog.Float64("abs_m", points[i].MeanAbsM))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func scanMetrics(p sim.Params, burnin int) []sim.Metric {
	sites := p.Size * p.Size
	return []sim.Metric{
		metrics.Burnin(metrics.NewMeanAbsMagnetisation(), burnin),
		metrics.Burnin(metrics.NewSusceptibility(p.Beta, sites), burnin),
		metrics.Burnin(metrics.NewMeanEnergy(sites), burnin),
		metrics.Burnin(metrics.NewSpecificHeat(p.Beta, sites), burnin),
		metrics.Burnin(metrics.NewAcceptanceRate(), burnin),
	}
}

// summarise averages the per-replica metrics. U4 is formed once from the
// post burn-in magnetisation of all replicas pooled together.
func summarise(beta float64, results []*sim.Result, burnin int) ScanPoint {
	pt := ScanPoint{Beta: beta}
	n := float64(len(results))
	var pooled []float64
	for _, r := range results {
		pt.MeanAbsM += r.Metrics["mean_abs_magnetisation"] / n
		pt.Susceptibility += r.Metrics["susceptibility"] / n
		pt.MeanEnergy += r.Metrics["mean_energy"] / n
		pt.SpecificHeat += r.Metrics["specific_heat"] / n
		pt.AcceptanceRate += r.Metrics["acceptance_rate"] / n

		series := make([]float64, 0, len(r.Samples))
		for _, s := range r.Samples {
			if s.Sweep >= burnin {
				series = append(series, s.Magnetisation)
			}
		}
		pooled = append(pooled, series...)
		pt.AutocorrelationT += analysis.IntegratedTime(analysis.Autocorrelation(series, len(series)/2)) / n
	}
	pt.Binder = analysis.BinderCumulant(pooled)
	return pt
}
