package metrics

import "github.com/san-kum/isingsim/internal/sim"

type AcceptanceRate struct {
	trials   int
	accepted int
}

func NewAcceptanceRate() *AcceptanceRate { return &AcceptanceRate{} }

func (a *AcceptanceRate) Name() string { return "acceptance_rate" }

func (a *AcceptanceRate) Observe(s sim.Sample) {
	a.trials += s.Trials
	a.accepted += s.Accepted
}

func (a *AcceptanceRate) Value() float64 {
	if a.trials == 0 {
		return 0
	}
	return float64(a.accepted) / float64(a.trials)
}

func (a *AcceptanceRate) Reset() {
	a.trials = 0
	a.accepted = 0
}

type burnin struct {
	sim.Metric
	sweeps int
}

// Burnin discards samples taken before the given sweep so that equilibration
// does not bias m.
func Burnin(m sim.Metric, sweeps int) sim.Metric {
	if sweeps <= 0 {
		return m
	}
	return &burnin{Metric: m, sweeps: sweeps}
}

func (b *burnin) Observe(s sim.Sample) {
	if s.Sweep < b.sweeps {
		return
	}
	b.Metric.Observe(s)
}
