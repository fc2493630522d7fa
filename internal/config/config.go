package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTau          = 1.0
	DefaultNBasis       = 10
	DefaultDt           = 0.01
	DefaultExtendFactor = 1.2
	DefaultNUpdates     = 20
	DefaultNSamples     = 15
	DefaultEliteness    = 10.0
	DefaultDecayFactor  = 0.9
	DefaultVariance     = 25.0
	DefaultViapointTime = 0.5
)

type Config struct {
	Dmp          DmpConfig          `yaml:"dmp"`
	Solver       SolverConfig       `yaml:"solver"`
	Optimization OptimizationConfig `yaml:"optimization"`
	Task         TaskConfig         `yaml:"task"`
	Seed         int64              `yaml:"seed"`
}

type DmpConfig struct {
	Tau      float64   `yaml:"tau"`
	Y0       []float64 `yaml:"y0"`
	Goal     []float64 `yaml:"goal"`
	NBasis   int       `yaml:"n_basis"`
	Selected []string  `yaml:"selected_parameters"`
}

type SolverConfig struct {
	Dt           float64 `yaml:"dt"`
	ExtendFactor float64 `yaml:"extend_factor"`
	Normalized   bool    `yaml:"normalized"`
}

type OptimizationConfig struct {
	NUpdates          int     `yaml:"n_updates"`
	NSamplesPerUpdate int     `yaml:"n_samples_per_update"`
	Eliteness         float64 `yaml:"eliteness"`
	DecayFactor       float64 `yaml:"decay_factor"`
	Variance          float64 `yaml:"variance"`
	SaveDirectory     string  `yaml:"save_directory"`
	Overwrite         bool    `yaml:"overwrite"`
}

type TaskConfig struct {
	Viapoint           []float64 `yaml:"viapoint"`
	ViapointTime       float64   `yaml:"viapoint_time"`
	ViapointWeight     float64   `yaml:"viapoint_weight"`
	AccelerationWeight float64   `yaml:"acceleration_weight"`
}

func DefaultConfig() *Config {
	return &Config{
		Dmp: DmpConfig{
			Tau:      DefaultTau,
			Y0:       []float64{0},
			Goal:     []float64{1},
			NBasis:   DefaultNBasis,
			Selected: []string{"weights"},
		},
		Solver: SolverConfig{
			Dt:           DefaultDt,
			ExtendFactor: DefaultExtendFactor,
			Normalized:   true,
		},
		Optimization: OptimizationConfig{
			NUpdates:          DefaultNUpdates,
			NSamplesPerUpdate: DefaultNSamples,
			Eliteness:         DefaultEliteness,
			DecayFactor:       DefaultDecayFactor,
			Variance:          DefaultVariance,
		},
		Task: TaskConfig{
			Viapoint:           []float64{0.5},
			ViapointTime:       DefaultViapointTime,
			ViapointWeight:     1.0,
			AccelerationWeight: 0.0001,
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
		return nil, err
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

// Validate checks cross-field consistency before any component is built
// from the config.
func (c *Config) Validate() error {
	if len(c.Dmp.Y0) == 0 {
		return fmt.Errorf("dmp.y0 must have at least one degree of freedom")
	}
	if len(c.Dmp.Goal) != len(c.Dmp.Y0) {
		return fmt.Errorf("dmp.goal has %d dims, dmp.y0 has %d", len(c.Dmp.Goal), len(c.Dmp.Y0))
	}
	if c.Dmp.Tau <= 0 {
		return fmt.Errorf("dmp.tau must be positive, got %g", c.Dmp.Tau)
	}
	if c.Dmp.NBasis <= 0 {
		return fmt.Errorf("dmp.n_basis must be positive, got %d", c.Dmp.NBasis)
	}
	if c.Solver.Dt <= 0 {
		return fmt.Errorf("solver.dt must be positive, got %g", c.Solver.Dt)
	}
	if len(c.Task.Viapoint) != len(c.Dmp.Y0) {
		return fmt.Errorf("task.viapoint has %d dims, dmp has %d dofs", len(c.Task.Viapoint), len(c.Dmp.Y0))
	}
	if c.Optimization.Variance <= 0 {
		return fmt.Errorf("optimization.variance must be positive, got %g", c.Optimization.Variance)
	}
	return nil
}
