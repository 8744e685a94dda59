package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/metropolis"
	"github.com/san-kum/isingsim/internal/sim"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	sel, err := r.GetSelection("raster")
	require.NoError(t, err)
	assert.Equal(t, metropolis.SelectRaster, sel)
	_, err = r.GetSelection("checkerboard")
	assert.Error(t, err)

	p := sim.Params{Size: 4, J: 1, Beta: 0.5, Sweeps: 1}
	m, err := r.GetMetric("susceptibility", p)
	require.NoError(t, err)
	assert.Equal(t, "susceptibility", m.Name())
	_, err = r.GetMetric("entropy", p)
	assert.Error(t, err)

	assert.Equal(t, []string{"random", "raster"}, r.ListSelections())
	names := r.ListMetrics()
	assert.Len(t, names, 6)
	assert.IsIncreasing(t, names)
}

func TestDefaultMetricsCoverRegistry(t *testing.T) {
	r := NewRegistry()
	ms := r.DefaultMetrics(sim.Params{Size: 4, Beta: 1, Sweeps: 1}, 10)
	got := make([]string, len(ms))
	for i, m := range ms {
		got[i] = m.Name()
	}
	assert.Equal(t, r.ListMetrics(), got)
}

func TestExperimentRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Seed = 7

	exp, err := New(cfg, NewRegistry(), nil)
	require.NoError(t, err)

	_, err = exp.Run(context.Background())
	assert.Error(t, err, "run before setup")

	require.NoError(t, exp.Setup())
	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Samples, cfg.Sweeps+1)
	assert.Contains(t, res.Metrics, "mean_abs_magnetisation")
	assert.Equal(t, sim.Completed, exp.Driver().State())
}

func TestExperimentDeterministic(t *testing.T) {
	run := func() *sim.Result {
		cfg := config.GetPreset("lab07")
		cfg.Seed = 42
		exp, err := New(cfg, NewRegistry(), nil)
		require.NoError(t, err)
		require.NoError(t, exp.Setup())
		res, err := exp.Run(context.Background())
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run().Samples, run().Samples)
}

func TestExperimentRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Beta = -1
	_, err := New(cfg, NewRegistry(), nil)
	assert.Error(t, err)
}

func TestScanOrdersByBeta(t *testing.T) {
	base := sim.Params{Size: 8, J: 1, Sweeps: 200, SampleInterval: 1, Seed: 1}
	betas := []float64{0.02, 1.0}

	points, err := Scan(context.Background(), base, betas, 2, 50, nil)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 0.02, points[0].Beta)
	assert.Equal(t, 1.0, points[1].Beta)
	assert.Greater(t, points[0].AcceptanceRate, 0.8)
	assert.Greater(t, points[0].AcceptanceRate, points[1].AcceptanceRate)
	for _, pt := range points {
		assert.GreaterOrEqual(t, pt.MeanAbsM, 0.0)
		assert.LessOrEqual(t, pt.MeanAbsM, 1.0)
	}
}

func TestScanFieldAligns(t *testing.T) {
	base := sim.Params{Size: 6, J: 0, H: 2, Sweeps: 50, Seed: 9}
	points, err := Scan(context.Background(), base, []float64{2}, 3, 10, nil)
	require.NoError(t, err)
	assert.Greater(t, points[0].MeanAbsM, 0.95)
}

func TestScanCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, sim.Params{Size: 4, J: 1, Sweeps: 10}, []float64{0.3}, 1, 0, nil)
	assert.ErrorIs(t, err, sim.ErrCanceled)
}

func TestSummarisePoolsBinderMoments(t *testing.T) {
	replica := func(ms ...float64) *sim.Result {
		r := &sim.Result{Metrics: map[string]float64{}}
		for i, m := range ms {
			r.Samples = append(r.Samples, sim.Sample{Sweep: i + 1, Magnetisation: m})
		}
		return r
	}
	// Separately these give U4 = 1/3 and 2/3; pooled <m²> = <m⁴> = 3/4.
	pt := summarise(0.5, []*sim.Result{replica(1, 0), replica(1, 1)}, 0)

	assert.InDelta(t, 1-0.75/(3*0.75*0.75), pt.Binder, 1e-12)
	assert.NotEqual(t, 0.5, pt.Binder)
}
