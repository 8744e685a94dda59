package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/isingsim/internal/sim"
)

func TestObserverCountsRun(t *testing.T) {
	p := sim.Params{Size: 4, J: 1, Beta: 0.3, Sweeps: 10, Seed: 5}
	o := NewObserver("run-1", p)

	res, err := sim.RunSeeded(context.Background(), p, nil, o)
	require.NoError(t, err)

	assert.Equal(t, float64(len(res.Samples)), testutil.ToFloat64(o.samples))
	assert.Equal(t, float64(res.Trials), testutil.ToFloat64(o.trials))
	assert.Equal(t, float64(res.Accepted), testutil.ToFloat64(o.accepted))
	assert.Equal(t, 10.0, testutil.ToFloat64(o.sweep))

	last := res.Samples[len(res.Samples)-1]
	assert.Equal(t, last.Magnetisation, testutil.ToFloat64(o.magnetisation))
	assert.Equal(t, last.Energy, testutil.ToFloat64(o.energy))
}

func TestHandlerExposesMetrics(t *testing.T) {
	o := NewObserver("run-2", sim.Params{Size: 2, Sweeps: 1})
	o.OnSample(sim.Sample{Sweep: 1, Magnetisation: -0.5, Energy: -4, Trials: 4, Accepted: 1}, nil)

	srv := httptest.NewServer(o.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `isingsim_magnetisation{run_id="run-2"} -0.5`)
	assert.Contains(t, text, `isingsim_accepted_total{run_id="run-2"} 1`)
	assert.Contains(t, text, `isingsim_run_info{run_id="run-2",selection="random"} 1`)
	assert.Contains(t, text, `isingsim_abs_magnetisation_count{run_id="run-2"} 1`)
}

func TestServeStopsOnCancel(t *testing.T) {
	o := NewObserver("run-3", sim.Params{Size: 2, Sweeps: 1})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Serve(ctx, "127.0.0.1:0", testLogger()) }()
	cancel()
	assert.NoError(t, <-done)
}
