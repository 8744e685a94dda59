package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/render"
	"github.com/san-kum/isingsim/internal/sim"
)

const (
	maxCols     = 60
	barWidth    = 40
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the lattice in place on every sample. Samples that
// arrive faster than frameRate are skipped, except the last one of a run.
type LiveRenderer struct {
	w         io.Writer
	total     int
	frameRate int
	lastFrame time.Time
	frames    int
}

func NewLiveRenderer(w io.Writer, p sim.Params, frameRate int) *LiveRenderer {
	return &LiveRenderer{w: w, total: p.Sweeps, frameRate: frameRate}
}

func (r *LiveRenderer) OnSample(s sim.Sample, v lattice.View) {
	if r.frameRate > 0 && s.Sweep != r.total {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
	}
	r.lastFrame = time.Now()
	r.frames++
	r.render(s, v)
}

func (r *LiveRenderer) render(s sim.Sample, v lattice.View) {
	var b strings.Builder
	b.WriteString(clearScreen)
	fmt.Fprintf(&b, "  sweep %d/%d  M=%+.4f  E=%.2f\n", s.Sweep, r.total, s.Magnetisation, s.Energy)
	b.WriteString("  " + magnetisationBar(s.Magnetisation) + "\n")
	b.WriteString("  " + strings.Repeat("-", min(v.Size(), maxCols)) + "\n")

	for _, row := range strings.SplitAfter(render.Glyphs(v, "#", ".", maxCols), "\n") {
		if row == "" {
			continue
		}
		b.WriteString("  " + row)
	}
	b.WriteString("  " + strings.Repeat("-", min(v.Size(), maxCols)) + "\n")

	fmt.Fprint(r.w, b.String())
}

// magnetisationBar places a marker on a [-1, 1] scale.
func magnetisationBar(m float64) string {
	pos := int((m + 1) / 2 * float64(barWidth-1))
	pos = max(0, min(pos, barWidth-1))
	bar := []byte(strings.Repeat("-", barWidth))
	bar[barWidth/2] = '|'
	bar[pos] = '*'
	return "-1 [" + string(bar) + "] +1"
}

// Frames reports how many frames were drawn.
func (r *LiveRenderer) Frames() int { return r.frames }

func (r *LiveRenderer) Start() { fmt.Fprint(r.w, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.w, showCursor) }
