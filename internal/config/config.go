package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/isingsim/internal/metropolis"
	"github.com/san-kum/isingsim/internal/sim"
)

// Defaults reproduce the parameters of the magnetisation lab (lab02).
const (
	DefaultSize           = 12
	DefaultJ              = 0.7
	DefaultBeta           = 0.45
	DefaultH              = 2.5
	DefaultSweeps         = 11
	DefaultSampleInterval = 1
	DefaultSelection      = "random"
)

type Config struct {
	Size           int        `yaml:"size"`
	J              float64    `yaml:"j"`
	H              float64    `yaml:"h"`
	Beta           float64    `yaml:"beta"`
	Sweeps         int        `yaml:"sweeps"`
	SampleInterval int        `yaml:"sample_interval"`
	Burnin         int        `yaml:"burnin"`
	Seed           int64      `yaml:"seed"`
	Selection      string     `yaml:"selection"`
	Snapshots      bool       `yaml:"snapshots"`
	Scan           ScanConfig `yaml:"scan"`
}

// ScanConfig describes a sweep over inverse temperatures.
type ScanConfig struct {
	BetaMin  float64 `yaml:"beta_min"`
	BetaMax  float64 `yaml:"beta_max"`
	Steps    int     `yaml:"steps"`
	Replicas int     `yaml:"replicas"`
}

func DefaultConfig() *Config {
	return &Config{
		Size:           DefaultSize,
		J:              DefaultJ,
		H:              DefaultH,
		Beta:           DefaultBeta,
		Sweeps:         DefaultSweeps,
		SampleInterval: DefaultSampleInterval,
		Selection:      DefaultSelection,
		Scan: ScanConfig{
			BetaMin:  0.05,
			BetaMax:  0.5,
			Steps:    10,
			Replicas: 1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the config into validated simulation parameters.
func (c *Config) Params() (sim.Params, error) {
	sel, err := metropolis.ParseSelection(c.Selection)
	if err != nil {
		return sim.Params{}, err
	}
	p := sim.Params{
		Size:           c.Size,
		J:              c.J,
		H:              c.H,
		Beta:           c.Beta,
		Sweeps:         c.Sweeps,
		SampleInterval: c.SampleInterval,
		Seed:           c.Seed,
		Selection:      sel,
	}
	if err := p.Validate(); err != nil {
		return sim.Params{}, err
	}
	return p, nil
}

// Betas lists the scan temperatures, evenly spaced and inclusive.
func (s ScanConfig) Betas() []float64 {
	if s.Steps <= 1 {
		return []float64{s.BetaMin}
	}
	step := (s.BetaMax - s.BetaMin) / float64(s.Steps-1)
	betas := make([]float64, s.Steps)
	for i := range betas {
		betas[i] = s.BetaMin + float64(i)*step
	}
	return betas
}
