// Package telemetry exposes a running simulation as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/sim"
)

const namespace = "isingsim"

// Observer records every sample into its own registry. Label run_id
// separates concurrent runs scraped from one endpoint.
type Observer struct {
	registry      *prometheus.Registry
	samples       prometheus.Counter
	trials        prometheus.Counter
	accepted      prometheus.Counter
	sweep         prometheus.Gauge
	magnetisation prometheus.Gauge
	energy        prometheus.Gauge
	absM          prometheus.Histogram
}

func NewObserver(runID string, p sim.Params) *Observer {
	labels := prometheus.Labels{"run_id": runID}
	o := &Observer{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "samples_total",
			Help: "Samples emitted by the driver.", ConstLabels: labels,
		}),
		trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "trials_total",
			Help: "Metropolis trials attempted.", ConstLabels: labels,
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "accepted_total",
			Help: "Metropolis trials accepted.", ConstLabels: labels,
		}),
		sweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sweep",
			Help: "Sweep index of the latest sample.", ConstLabels: labels,
		}),
		magnetisation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "magnetisation",
			Help: "Magnetisation per site of the latest sample.", ConstLabels: labels,
		}),
		energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "energy",
			Help: "Total energy of the latest sample.", ConstLabels: labels,
		}),
		absM: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "abs_magnetisation",
			Help:        "Distribution of |M| over samples.",
			ConstLabels: labels,
			Buckets:     prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
	o.registry.MustRegister(o.samples, o.trials, o.accepted, o.sweep, o.magnetisation, o.energy, o.absM)

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "run_info",
		Help: "Run parameters as labels; always 1.",
		ConstLabels: prometheus.Labels{
			"run_id":    runID,
			"selection": p.Selection.String(),
		},
	})
	info.Set(1)
	o.registry.MustRegister(info)
	return o
}

func (o *Observer) OnSample(s sim.Sample, _ lattice.View) {
	o.samples.Inc()
	o.trials.Add(float64(s.Trials))
	o.accepted.Add(float64(s.Accepted))
	o.sweep.Set(float64(s.Sweep))
	o.magnetisation.Set(s.Magnetisation)
	o.energy.Set(s.Energy)
	if s.Magnetisation < 0 {
		o.absM.Observe(-s.Magnetisation)
	} else {
		o.absM.Observe(s.Magnetisation)
	}
}

func (o *Observer) Registry() *prometheus.Registry { return o.registry }

func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (o *Observer) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
