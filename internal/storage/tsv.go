package storage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/sim"
)

// Column selects the observable a TSVWriter emits.
type Column int

const (
	ColumnMagnetisation Column = iota
	ColumnEnergy
)

func (c Column) title() string {
	if c == ColumnEnergy {
		return "Energy"
	}
	return "Magnetisation"
}

// TSVWriter streams samples as "step<TAB>value" lines beneath a two-line
// header describing the run. It implements sim.Observer so it can be attached
// to a driver and write while the run progresses.
type TSVWriter struct {
	w       *bufio.Writer
	column  Column
	wrote   bool
	params  sim.Params
	lastErr error
}

func NewTSVWriter(w io.Writer, p sim.Params, column Column) *TSVWriter {
	return &TSVWriter{w: bufio.NewWriter(w), column: column, params: p}
}

func (t *TSVWriter) header() error {
	p := t.params
	if _, err := fmt.Fprintf(t.w, "Frame: %dx%d,\tJ = %s,\tBeta = %s,\tH = %s\n",
		p.Size, p.Size, formatFloat(p.J), formatFloat(p.Beta), formatFloat(p.H)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(t.w, "STEP\t%s\n", t.column.title())
	return err
}

func (t *TSVWriter) Write(s sim.Sample) error {
	if !t.wrote {
		t.wrote = true
		if err := t.header(); err != nil {
			return err
		}
	}
	v := s.Magnetisation
	if t.column == ColumnEnergy {
		v = s.Energy
	}
	_, err := fmt.Fprintf(t.w, "%d\t%s\n", s.Sweep, formatFloat(v))
	return err
}

// OnSample records the first write error; see Err.
func (t *TSVWriter) OnSample(s sim.Sample, _ lattice.View) {
	if t.lastErr != nil {
		return
	}
	if err := t.Write(s); err != nil {
		t.lastErr = err
		return
	}
	t.lastErr = t.w.Flush()
}

func (t *TSVWriter) Err() error { return t.lastErr }

func (t *TSVWriter) Flush() error {
	if !t.wrote {
		t.wrote = true
		if err := t.header(); err != nil {
			return err
		}
	}
	return t.w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type point struct {
	sweep int
	value float64
}

// readTSV parses the rows following the STEP header line.
func readTSV(r io.Reader) ([]point, error) {
	sc := bufio.NewScanner(r)
	inBody := false
	points := make([]point, 0)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if !inBody {
			inBody = strings.HasPrefix(text, "STEP\t")
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(fields))
		}
		step, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, point{sweep: step, value: v})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !inBody {
		return nil, fmt.Errorf("missing STEP header")
	}
	return points, nil
}

// WriteSpins prints one row per line as signed integers ("+1 -1 ...").
func WriteSpins(w io.Writer, rows [][]int8) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		for j, s := range row {
			if j > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%+d", s)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func ReadSpins(r io.Reader) ([][]int8, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	rows := make([][]int8, 0)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]int8, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseInt(f, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", len(rows), err)
			}
			row[j] = int8(v)
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}
