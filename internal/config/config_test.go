package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/isingsim/internal/lattice"
	"github.com/san-kum/isingsim/internal/metropolis"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Size != 12 || cfg.J != 0.7 || cfg.Beta != 0.45 || cfg.H != 2.5 || cfg.Sweeps != 11 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("default params invalid: %v", err)
	}
	if p.Selection != metropolis.SelectRandom {
		t.Errorf("expected random selection, got %s", p.Selection)
	}
}

func TestParamsValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero size", func(c *Config) { c.Size = 0 }},
		{"negative beta", func(c *Config) { c.Beta = -1 }},
		{"negative sweeps", func(c *Config) { c.Sweeps = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			_, err := cfg.Params()
			if !errors.Is(err, lattice.ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Selection = "spiral"
	if _, err := cfg.Params(); err == nil {
		t.Error("expected error for unknown selection")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Size = 20
	cfg.Beta = 0.3
	cfg.Selection = "raster"
	cfg.Seed = 7
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Size != 20 || loaded.Beta != 0.3 || loaded.Selection != "raster" || loaded.Seed != 7 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := writeFile(path, "size: 30\nbeta: 0.2\n"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Size != 30 || cfg.Beta != 0.2 {
		t.Errorf("explicit keys not applied: %+v", cfg)
	}
	if cfg.J != DefaultJ || cfg.Sweeps != DefaultSweeps {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := writeFile(path, "size: [1, 2\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("lab07")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Size != 18 || cfg.Beta != 0.1 || cfg.Sweeps != 50 {
		t.Errorf("unexpected lab07 preset: %+v", cfg)
	}

	cfg.Size = 99
	if Presets["lab07"].Size != 18 {
		t.Error("GetPreset must return a copy")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for _, name := range names {
		if _, err := GetPreset(name).Params(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}

func TestScanBetas(t *testing.T) {
	betas := ScanConfig{BetaMin: 0.1, BetaMax: 0.5, Steps: 5}.Betas()
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	if len(betas) != len(want) {
		t.Fatalf("expected %d betas, got %d", len(want), len(betas))
	}
	for i := range want {
		if d := betas[i] - want[i]; d > 1e-12 || d < -1e-12 {
			t.Errorf("beta[%d] = %f, want %f", i, betas[i], want[i])
		}
	}

	single := ScanConfig{BetaMin: 0.3, Steps: 1}.Betas()
	if len(single) != 1 || single[0] != 0.3 {
		t.Errorf("single-step scan = %v", single)
	}
}
