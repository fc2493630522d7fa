package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dmp.Tau <= 0 {
		t.Error("tau should be positive")
	}
	if cfg.Solver.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Optimization.NUpdates <= 0 {
		t.Error("n_updates should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Dmp.Goal = []float64{2.5}
	cfg.Optimization.NUpdates = 42
	cfg.Seed = 7

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Dmp.Goal[0] != 2.5 {
		t.Errorf("goal %v, want [2.5]", loaded.Dmp.Goal)
	}
	if loaded.Optimization.NUpdates != 42 {
		t.Errorf("n_updates %d, want 42", loaded.Optimization.NUpdates)
	}
	if loaded.Seed != 7 {
		t.Errorf("seed %d, want 7", loaded.Seed)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "dmp:\n  tau: 2.0\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Dmp.Tau != 2.0 {
		t.Errorf("tau %g, want 2.0", loaded.Dmp.Tau)
	}
	// fields absent from the file keep their defaults
	if loaded.Solver.Dt != DefaultDt {
		t.Errorf("dt %g, want default %g", loaded.Solver.Dt, DefaultDt)
	}
	if loaded.Optimization.NUpdates != DefaultNUpdates {
		t.Errorf("n_updates %d, want default %d", loaded.Optimization.NUpdates, DefaultNUpdates)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no dofs", func(c *Config) { c.Dmp.Y0 = nil }},
		{"goal mismatch", func(c *Config) { c.Dmp.Goal = []float64{1, 2} }},
		{"bad tau", func(c *Config) { c.Dmp.Tau = 0 }},
		{"bad n_basis", func(c *Config) { c.Dmp.NBasis = 0 }},
		{"bad dt", func(c *Config) { c.Solver.Dt = -1 }},
		{"viapoint mismatch", func(c *Config) { c.Task.Viapoint = []float64{1, 2} }},
		{"bad variance", func(c *Config) { c.Optimization.Variance = 0 }},
	}
	for _, tt := range cases {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation failure", tt.name)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("viapoint", "one_dof")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Task.ViapointTime != 0.3 {
		t.Errorf("expected viapoint time 0.3, got %f", cfg.Task.ViapointTime)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset should validate: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("viapoint", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "one_dof"); cfg != nil {
		t.Error("expected nil for nonexistent experiment")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("viapoint", "one_dof")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	cfg.Optimization.NUpdates = 999
	cfg.Task.Viapoint[0] = -1
	cfg.Dmp.Goal[0] = -1

	again := GetPreset("viapoint", "one_dof")
	if again.Optimization.NUpdates == 999 {
		t.Error("mutating a preset copy changed the table")
	}
	if again.Task.Viapoint[0] == -1 || again.Dmp.Goal[0] == -1 {
		t.Error("preset copy shares slices with the table")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("viapoint")
	if len(presets) == 0 {
		t.Fatal("expected presets for viapoint")
	}
	if !sort.StringsAreSorted(presets) {
		t.Errorf("presets not sorted: %v", presets)
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent experiment")
	}
}

func TestAllPresetsValidate(t *testing.T) {
	for experiment, variants := range Presets {
		for name, cfg := range variants {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", experiment, name, err)
			}
		}
	}
}
