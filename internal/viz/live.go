package viz

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"iter"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/render"
	"github.com/san-kum/isingsim/internal/rng"
	"github.com/san-kum/isingsim/internal/sim"
)

const (
	historyCapacity = 600
	maxCols         = 40
	gifScale        = 6
	betaStep        = 0.01
	fieldStep       = 0.1
)

// Snapshot stores the lattice at one sweep for replay.
type Snapshot struct {
	Sample sim.Sample
	Spins  [][]int8
}

var (
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	gridStyle        = lipgloss.NewStyle().Padding(1, 2)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

type TickMsg time.Time

var tunables = []string{"beta", "h"}

// Model holds the running driver, the lattice it mutates and the display
// buffers.
type Model struct {
	ctx           context.Context
	params        sim.Params
	initialParams sim.Params
	lat           *lattice.Lattice
	src           rng.Source
	next          func() (sim.Sample, bool)
	stop          func()
	offset        int
	last          sim.Sample
	running       bool
	done          bool
	magHistory    []float64
	energyHistory []float64
	history       []Snapshot
	playHead      int
	selected      int
	recording     bool
	frames        []*image.Paletted
	gifPath       string
	showHelp      bool
	frameRate     int
	message       string
	err           error
}

// NewModel draws the initial lattice from p.Seed and starts a driver on it,
// continuing the same random stream the way a saved run does. Sweeps in p
// bounds the whole session; samples are always taken every sweep.
func NewModel(ctx context.Context, p sim.Params) (Model, error) {
	p.SampleInterval = 1
	if err := p.Validate(); err != nil {
		return Model{}, err
	}
	m := Model{
		ctx:           ctx,
		params:        p,
		initialParams: p,
		running:       true,
		magHistory:    make([]float64, 0, historyCapacity),
		energyHistory: make([]float64, 0, historyCapacity),
		history:       make([]Snapshot, 0, historyCapacity),
		playHead:      -1,
		gifPath:       "ising.gif",
		frameRate:     30,
	}
	if err := m.seed(); err != nil {
		return Model{}, err
	}
	if err := m.start(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// seed rebuilds the random source and the lattice from the seed, in that
// order.
func (m *Model) seed() error {
	src := rng.New(m.initialParams.Seed)
	l, err := lattice.New(m.initialParams.Size, src)
	if err != nil {
		return err
	}
	m.src, m.lat = src, l
	return nil
}

// WithFrameRate sets the number of sweeps attempted per second.
func (m Model) WithFrameRate(fps int) Model {
	if fps > 0 {
		m.frameRate = fps
	}
	return m
}

// WithGIFPath sets where recordings are written.
func (m Model) WithGIFPath(path string) Model {
	m.gifPath = path
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Close()
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.selected = (m.selected + 1) % len(tunables)
		case "up", "k":
			m.tune(1)
		case "down", "j":
			m.tune(-1)
		case "t":
			nextTheme()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		if m.recording {
			m.captureFrame()
		}
		return m, m.tick()
	}
	return m, nil
}

// Close stops the current driver.
func (m *Model) Close() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

// start builds a driver for the sweeps still remaining. Its sweep 0 sample
// is recorded only for a fresh session; after a restart that state is
// already the last entry of the history.
func (m *Model) start() error {
	p := m.params
	p.Sweeps = max(m.initialParams.Sweeps-m.last.Sweep, 0)
	d, err := sim.New(m.lat, p, m.src)
	if err != nil {
		return err
	}
	m.Close()
	m.offset = m.last.Sweep
	m.next, m.stop = iter.Pull(d.Run(m.ctx))
	m.done = false

	s, ok := m.next()
	if !ok {
		m.done = true
		return d.Err()
	}
	if len(m.history) == 0 {
		m.record(s)
	}
	return nil
}

func (m *Model) step() {
	if m.done {
		return
	}
	s, ok := m.next()
	if !ok {
		m.done = true
		m.running = false
		return
	}
	m.record(s)
}

func (m *Model) record(s sim.Sample) {
	s.Sweep += m.offset
	m.last = s

	m.magHistory = appendCapped(m.magHistory, s.Magnetisation)
	m.energyHistory = appendCapped(m.energyHistory, s.Energy)

	m.history = append(m.history, Snapshot{Sample: s, Spins: m.lat.Spins()})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// tune nudges the selected parameter and restarts the driver on the
// current lattice.
func (m *Model) tune(dir float64) {
	switch tunables[m.selected] {
	case "beta":
		m.params.Beta = max(m.params.Beta+dir*betaStep, 0)
	case "h":
		m.params.H += dir * fieldStep
	}
	m.playHead = -1
	if err := m.start(); err != nil {
		m.err = err
	}
}

// reset restores the initial lattice, seed and parameters.
func (m *Model) reset() {
	m.Close()
	m.params = m.initialParams
	m.last = sim.Sample{}
	m.magHistory = m.magHistory[:0]
	m.energyHistory = m.energyHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.running = true
	if m.err = m.seed(); m.err != nil {
		return
	}
	m.err = m.start()
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0)
		return
	}
	m.recording = false
	if err := m.saveGIF(); err != nil {
		m.err = err
	} else if len(m.frames) > 0 {
		m.message = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.gifPath)
	}
	m.frames = nil
}

func (m *Model) captureFrame() {
	n := m.lat.Size()
	up := lipglossRGBA(CurrentTheme.Up)
	down := lipglossRGBA(CurrentTheme.Down)
	img := image.NewPaletted(image.Rect(0, 0, n*gifScale, n*gifScale), color.Palette{down, up})
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if m.lat.Get(i, j) != lattice.Up {
				continue
			}
			for py := 0; py < gifScale; py++ {
				for px := 0; px < gifScale; px++ {
					img.SetColorIndex(j*gifScale+px, i*gifScale+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 100/m.frameRate)
	}
	f, err := os.Create(m.gifPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

func lipglossRGBA(c lipgloss.Color) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(string(c), "#%2x%2x%2x", &r, &g, &b); err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// View renders the lattice and the stats panel.
func (m Model) View() string {
	var view lattice.View = m.lat
	s := m.last
	status := StatusRunning.Render("RUNNING")
	switch {
	case m.playHead >= 0 && m.playHead < len(m.history):
		snap := m.history[m.playHead]
		if l, err := lattice.FromSpins(snap.Spins); err == nil {
			view = l
		}
		s = snap.Sample
		status = StatusPaused.Render(fmt.Sprintf("REPLAY (sweep %d)", s.Sweep))
	case m.done:
		status = StatusPaused.Render("DONE")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	if m.recording {
		status += " " + StatusRecording.Render("● REC")
	}

	up := lipgloss.NewStyle().Foreground(CurrentTheme.Up).Render("██")
	down := lipgloss.NewStyle().Foreground(CurrentTheme.Down).Render("░░")
	gridView := gridStyle.Render(render.Glyphs(view, up, down, maxCols))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("ISING %dx%d", m.params.Size, m.params.Size)) + "\n")
	b.WriteString(status + "\n\n")

	if len(m.magHistory) > 1 {
		chart := asciigraph.Plot(m.magHistory, asciigraph.Height(6), asciigraph.Width(30),
			asciigraph.LowerBound(-1), asciigraph.UpperBound(1), asciigraph.Caption("Magnetisation"))
		b.WriteString(graphStyle.Render(chart) + "\n")
		b.WriteString(SparklineChart(m.energyHistory, 30) + "\n\n")
	}

	total := m.initialParams.Sweeps
	progress := 0.0
	if total > 0 {
		progress = float64(s.Sweep) / float64(total)
	}
	b.WriteString(labelStyle.Render("Sweep") + valueStyle.Render(fmt.Sprintf("%d/%d", s.Sweep, total)) + "\n")
	b.WriteString(labelStyle.Render("") + ProgressBar(progress, 20) + "\n")
	b.WriteString(labelStyle.Render("M") + valueStyle.Render(fmt.Sprintf("%+.4f", s.Magnetisation)) + "\n")
	b.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.2f", s.Energy)) + "\n")
	if s.Trials > 0 {
		b.WriteString(labelStyle.Render("Accepted") + valueStyle.Render(fmt.Sprintf("%.1f%%", 100*float64(s.Accepted)/float64(s.Trials))) + "\n")
	}
	b.WriteString(labelStyle.Render("J") + valueStyle.Render(fmt.Sprintf("%g", m.params.J)) + "\n")

	b.WriteString("\nPARAMETERS\n")
	values := map[string]float64{"beta": m.params.Beta, "h": m.params.H}
	for i, k := range tunables {
		line := fmt.Sprintf("%-6s %.3f", k, values[k])
		if i == m.selected {
			b.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	} else if m.message != "" {
		b.WriteString("\n" + valueStyle.Render(m.message) + "\n")
	}

	b.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nT:Theme  G:Record ?:Help\n[ ]:Replay ↑↓:Tune"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, gridView, statsStyle.Render(b.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  Tab      - Select beta or h         ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  [ ]      - Replay recent sweeps     ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Sweep reports the sweep of the most recent sample.
func (m Model) Sweep() int { return m.last.Sweep }

func (m Model) Params() sim.Params { return m.params }

func (m Model) Done() bool { return m.done }
