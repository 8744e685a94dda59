package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/metropolis"
	"github.com/san-kum/isingsim/internal/sim"
)

const (
	metadataFile      = "metadata.json"
	magnetisationFile = "magnetisation.tsv"
	energyFile        = "energy.tsv"
	latticeFile       = "lattice.txt"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Size           int                `json:"size"`
	J              float64            `json:"j"`
	H              float64            `json:"h"`
	Beta           float64            `json:"beta"`
	Sweeps         int                `json:"sweeps"`
	SampleInterval int                `json:"sample_interval"`
	Selection      string             `json:"selection"`
	Samples        int                `json:"samples"`
	Trials         int                `json:"trials"`
	Accepted       int                `json:"accepted"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Params rebuilds the run parameters recorded in the metadata.
func (m *RunMetadata) Params() (sim.Params, error) {
	sel, err := metropolis.ParseSelection(m.Selection)
	if err != nil {
		return sim.Params{}, err
	}
	return sim.Params{
		Size:           m.Size,
		J:              m.J,
		H:              m.H,
		Beta:           m.Beta,
		Sweeps:         m.Sweeps,
		SampleInterval: m.SampleInterval,
		Seed:           m.Seed,
		Selection:      sel,
	}, nil
}

// CreateRun reserves a run directory so that snapshots can be written into
// it while the simulation is still running.
func (s *Store) CreateRun() (string, error) {
	runID := fmt.Sprintf("ising_%s_%s", time.Now().Format("20060102T150405"), uuid.NewString()[:8])
	if err := os.MkdirAll(s.RunDir(runID), 0755); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Save writes metadata, both observable series and the final lattice of a
// completed run into the directory reserved by CreateRun.
func (s *Store) Save(runID string, result *sim.Result, elapsed time.Duration) error {
	runDir := s.RunDir(runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	p := result.Params
	meta := RunMetadata{
		ID:             runID,
		Timestamp:      time.Now(),
		Seed:           p.Seed,
		Size:           p.Size,
		J:              p.J,
		H:              p.H,
		Beta:           p.Beta,
		Sweeps:         p.Sweeps,
		SampleInterval: p.Interval(),
		Selection:      p.Selection.String(),
		Samples:        len(result.Samples),
		Trials:         result.Trials,
		Accepted:       result.Accepted,
		ElapsedSeconds: elapsed.Seconds(),
		Metrics:        result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}

	for name, column := range map[string]Column{magnetisationFile: ColumnMagnetisation, energyFile: ColumnEnergy} {
		if err := writeSeries(filepath.Join(runDir, name), p, column, result.Samples); err != nil {
			return err
		}
	}

	if result.Final == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(runDir, latticeFile))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteSpins(f, result.Final); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeSeries(path string, p sim.Params, column Column, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := NewTSVWriter(f, p, column)
	for _, smp := range samples {
		if err := w.Write(smp); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// List returns stored runs ordered by timestamp.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples rebuilds the sample series from the stored TSV files. Trial
// counts are not persisted per sample.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	mag, err := s.loadSeries(runID, magnetisationFile)
	if err != nil {
		return nil, err
	}
	en, err := s.loadSeries(runID, energyFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	samples := make([]sim.Sample, len(mag))
	for i, pt := range mag {
		samples[i] = sim.Sample{Sweep: pt.sweep, Magnetisation: pt.value}
		if i < len(en) && en[i].sweep == pt.sweep {
			samples[i].Energy = en[i].value
		}
	}
	return samples, nil
}

func (s *Store) loadSeries(runID, name string) ([]point, error) {
	f, err := os.Open(filepath.Join(s.RunDir(runID), name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	points, err := readTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return points, nil
}

func (s *Store) LoadLattice(runID string) (*lattice.Lattice, error) {
	f, err := os.Open(filepath.Join(s.RunDir(runID), latticeFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadSpins(f)
	if err != nil {
		return nil, err
	}
	return lattice.FromSpins(rows)
}
