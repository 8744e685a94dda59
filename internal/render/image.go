package render

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/sim"
)

var (
	upColor   = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	downColor = color.RGBA{R: 40, G: 80, B: 220, A: 255}
)

// spinPoints lists the sites holding spin s, with row 0 drawn at the top.
func spinPoints(v lattice.View, s int8) plotter.XYs {
	n := v.Size()
	pts := make(plotter.XYs, 0, n*n/2)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v.Get(i, j) == s {
				pts = append(pts, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			}
		}
	}
	return pts
}

// Plot builds a scatter plot with one glyph per site.
func Plot(v lattice.View, title string) (*plot.Plot, error) {
	n := v.Size()
	p := plot.New()
	p.Title.Text = title
	p.X.Min, p.X.Max = -1, float64(n)
	p.Y.Min, p.Y.Max = -1, float64(n)
	p.HideAxes()

	radius := vg.Points(120 / float64(n+1))
	if radius > vg.Points(6) {
		radius = vg.Points(6)
	}

	for _, layer := range []struct {
		spin  int8
		col   color.Color
		shape draw.GlyphDrawer
	}{
		{lattice.Up, upColor, draw.PyramidGlyph{}},
		{lattice.Down, downColor, draw.BoxGlyph{}},
	} {
		pts := spinPoints(v, layer.spin)
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = layer.col
		sc.GlyphStyle.Shape = layer.shape
		sc.GlyphStyle.Radius = radius
		p.Add(sc)
	}
	return p, nil
}

// Save writes the lattice to path; the format follows the extension
// (.png, .svg, .pdf, ...).
func Save(v lattice.View, title, path string, side vg.Length) error {
	p, err := Plot(v, title)
	if err != nil {
		return err
	}
	return p.Save(side, side, path)
}

// SnapshotWriter saves step_<sweep>.png into Dir for every sample.
type SnapshotWriter struct {
	Dir  string
	Side vg.Length
	err  error
}

func NewSnapshotWriter(dir string) *SnapshotWriter {
	return &SnapshotWriter{Dir: dir, Side: 4 * vg.Inch}
}

func (w *SnapshotWriter) OnSample(s sim.Sample, v lattice.View) {
	if w.err != nil {
		return
	}
	path := filepath.Join(w.Dir, fmt.Sprintf("step_%d.png", s.Sweep))
	title := fmt.Sprintf("sweep %d  m=%.3f", s.Sweep, s.Magnetisation)
	if err := Save(v, title, path, w.Side); err != nil {
		w.err = fmt.Errorf("snapshot sweep %d: %w", s.Sweep, err)
	}
}

func (w *SnapshotWriter) Err() error { return w.err }
