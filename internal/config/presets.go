package config

import "sort"

// Presets are ready-to-run experiment setups, keyed by experiment then
// variant name.
var Presets = map[string]map[string]*Config{
	"viapoint": {
		"one_dof": {
			Dmp:    DmpConfig{Tau: 1.0, Y0: []float64{0}, Goal: []float64{1}, NBasis: 10, Selected: []string{"weights"}},
			Solver: SolverConfig{Dt: 0.01, ExtendFactor: 1.2, Normalized: true},
			Optimization: OptimizationConfig{
				NUpdates: 20, NSamplesPerUpdate: 15,
				Eliteness: 10, DecayFactor: 0.9, Variance: 100,
			},
			Task: TaskConfig{Viapoint: []float64{0.5}, ViapointTime: 0.3, ViapointWeight: 1, AccelerationWeight: 0.0001},
		},
		"two_dof": {
			Dmp:    DmpConfig{Tau: 1.0, Y0: []float64{0, 0}, Goal: []float64{1, 1}, NBasis: 10, Selected: []string{"weights"}},
			Solver: SolverConfig{Dt: 0.01, ExtendFactor: 1.2, Normalized: true},
			Optimization: OptimizationConfig{
				NUpdates: 30, NSamplesPerUpdate: 20,
				Eliteness: 10, DecayFactor: 0.9, Variance: 100,
			},
			Task: TaskConfig{Viapoint: []float64{0.3, 0.8}, ViapointTime: 0.4, ViapointWeight: 1, AccelerationWeight: 0.0001},
		},
		"slow_reach": {
			Dmp:    DmpConfig{Tau: 3.0, Y0: []float64{0}, Goal: []float64{2}, NBasis: 15, Selected: []string{"weights"}},
			Solver: SolverConfig{Dt: 0.02, ExtendFactor: 1.25, Normalized: true},
			Optimization: OptimizationConfig{
				NUpdates: 25, NSamplesPerUpdate: 15,
				Eliteness: 10, DecayFactor: 0.95, Variance: 50,
			},
			Task: TaskConfig{Viapoint: []float64{1.5}, ViapointTime: 1.0, ViapointWeight: 1, AccelerationWeight: 0.0001},
		},
	},
}

// GetPreset returns a copy of the named preset, so callers can layer flag
// overrides on top without mutating the table.
func GetPreset(experiment, preset string) *Config {
	experimentPresets, ok := Presets[experiment]
	if !ok {
		return nil
	}
	cfg, ok := experimentPresets[preset]
	if !ok {
		return nil
	}
	out := *cfg
	out.Dmp.Y0 = append([]float64(nil), cfg.Dmp.Y0...)
	out.Dmp.Goal = append([]float64(nil), cfg.Dmp.Goal...)
	out.Dmp.Selected = append([]string(nil), cfg.Dmp.Selected...)
	out.Task.Viapoint = append([]float64(nil), cfg.Task.Viapoint...)
	return &out
}

func ListPresets(experiment string) []string {
	experimentPresets, ok := Presets[experiment]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(experimentPresets))
	for name := range experimentPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
