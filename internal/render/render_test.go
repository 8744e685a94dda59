package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/sim"
)

func checker(t *testing.T) *lattice.Lattice {
	t.Helper()
	l, err := lattice.FromSpins([][]int8{{1, -1}, {-1, 1}})
	require.NoError(t, err)
	return l
}

func TestSpinPoints(t *testing.T) {
	l := checker(t)
	up := spinPoints(l, lattice.Up)
	down := spinPoints(l, lattice.Down)

	require.Len(t, up, 2)
	require.Len(t, down, 2)
	// (0,0) is drawn at the top-left: x=0, y=1.
	assert.Equal(t, 0.0, up[0].X)
	assert.Equal(t, 1.0, up[0].Y)
}

func TestGlyphs(t *testing.T) {
	l := checker(t)
	assert.Equal(t, "+-\n-+\n", Glyphs(l, "+", "-", 0))

	big, _ := lattice.Uniform(5, lattice.Down)
	assert.Equal(t, "..\n..\n", Glyphs(big, "#", ".", 2))
}

func TestSnapshotWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewSnapshotWriter(dir)

	up, _ := lattice.Uniform(6, lattice.Up)
	w.OnSample(sim.Sample{Sweep: 0, Magnetisation: 1}, up)
	w.OnSample(sim.Sample{Sweep: 1, Magnetisation: 0}, checker(t))
	require.NoError(t, w.Err())

	for _, name := range []string{"step_0.png", "step_1.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestSnapshotWriterReportsErrors(t *testing.T) {
	w := NewSnapshotWriter(filepath.Join(t.TempDir(), "missing", "dir"))
	w.OnSample(sim.Sample{}, checker(t))
	assert.Error(t, w.Err())
}
