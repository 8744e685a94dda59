package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/rng"
	"github.com/san-kum/isingsim/internal/sim"
)

type countingMetric struct {
	observed int
	resets   int
}

func (c *countingMetric) Name() string         { return "count" }
func (c *countingMetric) Observe(s sim.Sample) { c.observed++ }
func (c *countingMetric) Value() float64       { return float64(c.observed) }
func (c *countingMetric) Reset()               { c.resets++; c.observed = 0 }

func newDriver(p sim.Params, seed int64) *sim.Driver {
	src := rng.New(seed)
	l, err := lattice.New(p.Size, src)
	Expect(err).NotTo(HaveOccurred())
	d, err := sim.New(l, p, src)
	Expect(err).NotTo(HaveOccurred())
	return d
}

func collect(d *sim.Driver, ctx context.Context) []sim.Sample {
	var out []sim.Sample
	for s := range d.Run(ctx) {
		out = append(out, s)
	}
	return out
}

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		params sim.Params
	)

	BeforeEach(func() {
		ctx = context.Background()
		params = sim.Params{Size: 12, J: 0.7, H: 2.5, Beta: 0.45, Sweeps: 11}
	})

	Describe("construction", func() {
		It("rejects invalid parameters", func() {
			l, _ := lattice.Uniform(4, lattice.Up)
			for _, p := range []sim.Params{
				{Size: 0, Sweeps: 1},
				{Size: 4, Beta: -0.1, Sweeps: 1},
				{Size: 4, Sweeps: -1},
				{Size: 4, Sweeps: 1, SampleInterval: -2},
				{Size: 5, Sweeps: 1},
			} {
				_, err := sim.New(l, p, rng.New(1))
				Expect(err).To(MatchError(lattice.ErrInvalidParameter))
			}
		})

		It("rejects a missing lattice or source", func() {
			_, err := sim.New(nil, sim.Params{Size: 2}, rng.New(1))
			Expect(err).To(MatchError(lattice.ErrInvalidParameter))

			l, _ := lattice.Uniform(2, lattice.Up)
			_, err = sim.New(l, sim.Params{Size: 2}, nil)
			Expect(err).To(MatchError(lattice.ErrInvalidParameter))
		})

		It("starts in NotStarted", func() {
			Expect(newDriver(params, 1).State()).To(Equal(sim.NotStarted))
		})
	})

	Describe("Run", func() {
		It("yields N+1 samples with sweep indices 0..N", func() {
			for _, n := range []int{0, 1, 11, 40} {
				params.Sweeps = n
				samples := collect(newDriver(params, 2), ctx)
				Expect(samples).To(HaveLen(n + 1))
				for i, s := range samples {
					Expect(s.Sweep).To(Equal(i))
				}
			}
		})

		It("samples the initial state before any update", func() {
			src := rng.New(3)
			l, _ := lattice.New(params.Size, src)
			initial := float64(l.TotalMagnetisation()) / float64(params.Size*params.Size)

			d, err := sim.New(l, params, src)
			Expect(err).NotTo(HaveOccurred())
			samples := collect(d, ctx)
			Expect(samples[0].Magnetisation).To(Equal(initial))
			Expect(samples[0].Trials).To(BeZero())
			Expect(samples[1].Trials).To(Equal(144))
		})

		It("keeps magnetisation per site within [-1, 1]", func() {
			params.Sweeps = 60
			params.Beta = 0.2
			for _, s := range collect(newDriver(params, 4), ctx) {
				Expect(s.Magnetisation).To(BeNumerically(">=", -1))
				Expect(s.Magnetisation).To(BeNumerically("<=", 1))
			}
		})

		It("is deterministic for a fixed seed", func() {
			a := collect(newDriver(params, 5), ctx)
			b := collect(newDriver(params, 5), ctx)
			Expect(a).To(Equal(b))
		})

		It("moves through NotStarted, Running and Completed", func() {
			d := newDriver(params, 6)
			for range d.Run(ctx) {
				Expect(d.State()).To(Equal(sim.Running))
			}
			Expect(d.State()).To(Equal(sim.Completed))
			Expect(d.Err()).NotTo(HaveOccurred())
		})

		It("cannot be restarted", func() {
			d := newDriver(params, 7)
			Expect(collect(d, ctx)).To(HaveLen(12))
			Expect(collect(d, ctx)).To(BeEmpty())
			Expect(d.Err()).To(MatchError(sim.ErrAlreadyRun))
		})

		It("stops when the consumer breaks out", func() {
			d := newDriver(params, 8)
			seen := 0
			for range d.Run(ctx) {
				seen++
				if seen == 3 {
					break
				}
			}
			Expect(seen).To(Equal(3))
			Expect(d.State()).To(Equal(sim.Completed))
			Expect(d.Err()).NotTo(HaveOccurred())
		})

		It("stops at a sweep boundary when the context is canceled", func() {
			params.Sweeps = 1000
			d := newDriver(params, 9)
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			seen := 0
			for range d.Run(cctx) {
				seen++
				if seen == 5 {
					cancel()
				}
			}
			Expect(seen).To(Equal(5))
			Expect(d.Err()).To(MatchError(sim.ErrCanceled))
			Expect(d.Err()).To(MatchError(context.Canceled))
		})

		It("thins samples by the interval and keeps the final sweep", func() {
			params.Sweeps = 10
			params.SampleInterval = 4
			samples := collect(newDriver(params, 10), ctx)

			sweeps := make([]int, len(samples))
			trials := 0
			for i, s := range samples {
				sweeps[i] = s.Sweep
				trials += s.Trials
			}
			Expect(sweeps).To(Equal([]int{0, 4, 8, 10}))
			Expect(params.SampleCount()).To(Equal(4))
			Expect(trials).To(Equal(10 * 144))
		})

		It("never accepts an uphill flip from the all-up 2x2 ground state", func() {
			l, _ := lattice.Uniform(2, lattice.Up)
			d, err := sim.New(l, sim.Params{Size: 2, J: 1, H: 0, Beta: 100, Sweeps: 500}, rng.New(11))
			Expect(err).NotTo(HaveOccurred())
			for s := range d.Run(ctx) {
				Expect(s.Magnetisation).To(Equal(1.0))
				Expect(s.Energy).To(Equal(-16.0))
				Expect(s.Accepted).To(BeZero())
			}
		})

		It("accepts every proposal at beta zero", func() {
			params.Beta = 0
			params.Sweeps = 5
			for _, s := range collect(newDriver(params, 12), ctx)[1:] {
				Expect(s.Accepted).To(Equal(s.Trials))
			}
		})
	})

	Describe("metrics and observers", func() {
		It("resets metrics and feeds every sample", func() {
			d := newDriver(params, 13)
			m := &countingMetric{}
			d.AddMetric(m)

			var views []int
			d.AddObserver(sim.ObserverFunc(func(s sim.Sample, v lattice.View) {
				views = append(views, v.Size())
			}))

			res, err := d.Collect(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.resets).To(Equal(1))
			Expect(res.Metrics).To(HaveKeyWithValue("count", 12.0))
			Expect(views).To(HaveLen(12))
			Expect(res.Trials).To(Equal(11 * 144))
			Expect(res.AcceptanceRate()).To(BeNumerically(">", 0))
			Expect(res.Final).To(HaveLen(12))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent seeded replicas", func() {
		p := sim.Params{Size: 8, J: 1, Beta: 0.3, Sweeps: 5}
		results, err := sim.NewEnsemble(p, 4, 100).
			WithLimit(2).
			WithMetrics(func() []sim.Metric { return []sim.Metric{&countingMetric{}} }).
			Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))

		for i, r := range results {
			Expect(r.Params.Seed).To(Equal(int64(100 + i)))
			Expect(r.Samples).To(HaveLen(6))
			Expect(r.Metrics["count"]).To(Equal(6.0))

			p.Seed = int64(100 + i)
			solo, err := sim.RunSeeded(context.Background(), p, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(solo.Samples).To(Equal(r.Samples))
		}
		Expect(results[0].Samples).NotTo(Equal(results[1].Samples))
	})

	It("fails fast on invalid parameters", func() {
		_, err := sim.NewEnsemble(sim.Params{Size: -1}, 2, 0).Run(context.Background())
		Expect(err).To(MatchError(lattice.ErrInvalidParameter))
	})
})
