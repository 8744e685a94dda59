package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/experiment"
	"github.com/san-kum/isingsim/internal/sim"
	"github.com/san-kum/isingsim/internal/storage"
)

// Scenario is a batch of runs executed in order.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and applies any
// non-nil overrides.
type ScenarioStep struct {
	Preset    string   `yaml:"preset"`
	Size      *int     `yaml:"size"`
	J         *float64 `yaml:"j"`
	H         *float64 `yaml:"h"`
	Beta      *float64 `yaml:"beta"`
	Sweeps    *int     `yaml:"sweeps"`
	Interval  *int     `yaml:"sample_interval"`
	Burnin    *int     `yaml:"burnin"`
	Seed      *int64   `yaml:"seed"`
	Selection *string  `yaml:"selection"`
}

type StepResult struct {
	RunID  string
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step into a full run configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Size != nil {
		cfg.Size = *s.Size
	}
	if s.J != nil {
		cfg.J = *s.J
	}
	if s.H != nil {
		cfg.H = *s.H
	}
	if s.Beta != nil {
		cfg.Beta = *s.Beta
	}
	if s.Sweeps != nil {
		cfg.Sweeps = *s.Sweeps
	}
	if s.Interval != nil {
		cfg.SampleInterval = *s.Interval
	}
	if s.Burnin != nil {
		cfg.Burnin = *s.Burnin
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if s.Selection != nil {
		cfg.Selection = *s.Selection
	}
	return cfg, nil
}

// RunScenario executes every step and saves each run to store. On failure
// the runs completed so far are returned along with the error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store, logger *slog.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("running step", slog.Int("step", i+1), slog.Int("of", len(scenario.Steps)), slog.String("preset", step.Preset))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, registry, logger)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		runID, err := store.CreateRun()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := store.Save(runID, result, exp.Elapsed()); err != nil {
			return results, fmt.Errorf("step %d save: %w", i+1, err)
		}

		results = append(results, StepResult{RunID: runID, Result: result})
	}

	return results, nil
}
