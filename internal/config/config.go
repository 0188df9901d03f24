// Package config provides unified configuration loading for gram.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gramlab/gram/internal/comparison"
	"github.com/gramlab/gram/internal/condition"
	"github.com/gramlab/gram/internal/models"
	"github.com/gramlab/gram/internal/ssa"
)

// Config contains all settings of one conditioned simulation.
type Config struct {
	// Model selects and parameterizes the gene expression model.
	Model ModelConfig `yaml:"model"`

	// Pulse defines the input signal.
	Pulse PulseConfig `yaml:"pulse"`

	// Simulation controls the stochastic simulation engine.
	Simulation SimulationConfig `yaml:"simulation"`

	// Comparison controls how perturbed dynamics are scored against
	// unperturbed dynamics.
	Comparison ComparisonConfig `yaml:"comparison"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig selects a model family and its rate constants.
type ModelConfig struct {
	// Type identifies the model family: "linear", "simple", "hill", or
	// "twostate".
	Type string `yaml:"type"`

	// Synthesis rate constants. K0 is activation, K1 transcription, K2
	// translation. Unset values default to one.
	K0 *float64 `yaml:"k0,omitempty"`
	K1 *float64 `yaml:"k1,omitempty"`
	K2 *float64 `yaml:"k2,omitempty"`

	// Decay rate constants. G0 is deactivation, G1 mRNA decay, G2
	// protein decay.
	G0 *float64 `yaml:"g0,omitempty"`
	G1 float64  `yaml:"g1"`
	G2 float64  `yaml:"g2"`

	// KM and N parameterize Hill repression. Only used by the hill family.
	KM float64 `yaml:"km,omitempty"`
	N  float64 `yaml:"n,omitempty"`

	// Feedback lists the repressor pathways added to the model.
	Feedback []models.FeedbackPathway `yaml:"feedback"`
}

// PulseConfig defines the input pulse.
type PulseConfig struct {
	Start     float64 `yaml:"start"`
	Duration  float64 `yaml:"duration"`
	Baseline  float64 `yaml:"baseline"`
	Magnitude float64 `yaml:"magnitude"`

	// Sensitive extends the pulse duration under reduced metabolism.
	Sensitive bool `yaml:"sensitive"`
}

// SimulationConfig controls the stochastic simulation engine.
type SimulationConfig struct {
	Duration     float64 `yaml:"duration"`
	Dt           float64 `yaml:"dt"`
	Timescale    float64 `yaml:"timescale"`
	Trajectories int     `yaml:"trajectories"`
	Seed         uint64  `yaml:"seed"`
	Workers      int     `yaml:"workers"`

	// Conditions names the metabolic conditions to simulate. Empty means
	// all registered conditions.
	Conditions []string `yaml:"conditions,omitempty"`
}

// ComparisonConfig controls error metric evaluation.
type ComparisonConfig struct {
	// Mode selects the error estimator: "empirical", "area", "cdf", or
	// "threshold".
	Mode string `yaml:"mode"`

	// Bandwidth is the acceptance band half-width in reference standard
	// deviations.
	Bandwidth float64 `yaml:"bandwidth"`

	// FractionOfMax positions the comparison point on the decaying edge
	// of the reference mean.
	FractionOfMax float64 `yaml:"fraction_of_max"`

	// Deviations compares trajectories relative to their initial values.
	Deviations bool `yaml:"deviations"`
}

// LoggingConfig configures gram's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "debug", "info" (default), "warn",
	// or "error".
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults: the linear repressed
// pulse model under all conditions.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Type: "linear",
			G1:   0.01,
			G2:   0.001,
			Feedback: []models.FeedbackPathway{
				{EtaGene: 5e-4, EtaRNA: 1e-4, EtaProtein: 5e-4, Perturbed: true},
				{EtaGene: 5e-4, EtaRNA: 1e-4, EtaProtein: 5e-4, Perturbed: true},
			},
		},
		Pulse: PulseConfig{
			Start:     50,
			Duration:  3,
			Magnitude: 1,
			Sensitive: true,
		},
		Simulation: SimulationConfig{
			Duration:     2500,
			Dt:           1,
			Timescale:    1,
			Trajectories: 5000,
			Seed:         0,
			Workers:      0,
		},
		Comparison: ComparisonConfig{
			Mode:          string(comparison.ModeThreshold),
			Bandwidth:     comparison.DefaultBandwidth,
			FractionOfMax: comparison.DefaultFractionOfMax,
			Deviations:    false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path and applies environment variable
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileConfig, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	validTypes := map[string]bool{"linear": true, "simple": true, "hill": true, "twostate": true}
	if !validTypes[c.Model.Type] {
		return fmt.Errorf("invalid model type: %s (valid: linear, simple, hill, twostate)", c.Model.Type)
	}

	if c.Pulse.Duration < 0 {
		return fmt.Errorf("pulse duration must be non-negative, got %v", c.Pulse.Duration)
	}
	if c.Pulse.Start < 0 {
		return fmt.Errorf("pulse start must be non-negative, got %v", c.Pulse.Start)
	}

	if c.Simulation.Duration <= 0 {
		return fmt.Errorf("simulation duration must be positive, got %v", c.Simulation.Duration)
	}
	if c.Simulation.Dt <= 0 {
		return fmt.Errorf("simulation dt must be positive, got %v", c.Simulation.Dt)
	}
	if c.Simulation.Trajectories <= 0 {
		return fmt.Errorf("trajectory count must be positive, got %d", c.Simulation.Trajectories)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("worker count must be non-negative, got %d", c.Simulation.Workers)
	}
	for _, name := range c.Simulation.Conditions {
		if _, err := condition.Lookup(name); err != nil {
			return err
		}
	}

	if c.Comparison.Mode != "" && !comparison.Mode(c.Comparison.Mode).Valid() {
		return fmt.Errorf("invalid comparison mode: %s (valid: empirical, area, cdf, threshold)", c.Comparison.Mode)
	}
	if c.Comparison.Bandwidth < 0 {
		return fmt.Errorf("bandwidth must be non-negative, got %v", c.Comparison.Bandwidth)
	}
	if c.Comparison.FractionOfMax < 0 || c.Comparison.FractionOfMax > 1 {
		return fmt.Errorf("fraction_of_max must be between 0 and 1, got %v", c.Comparison.FractionOfMax)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error, or empty for default)", c.Logging.Level)
	}

	return nil
}

// orOne returns *v, defaulting to one when unset.
func orOne(v *float64) float64 {
	if v == nil {
		return 1
	}
	return *v
}

// BuildModel constructs the configured model with its feedback pathways.
func (c *Config) BuildModel() (models.Model, error) {
	switch c.Model.Type {
	case "linear":
		m := models.NewLinearModel(c.Model.G1, c.Model.G2)
		m.K0 = orOne(c.Model.K0)
		m.K1 = orOne(c.Model.K1)
		m.K2 = orOne(c.Model.K2)
		m.G0 = orOne(c.Model.G0)
		for _, fb := range c.Model.Feedback {
			m.AddFeedback(fb.EtaGene, fb.EtaRNA, fb.EtaProtein, fb.Perturbed)
		}
		return m, nil

	case "simple":
		m := models.NewSimpleModel(orOne(c.Model.K1), c.Model.G1)
		for _, fb := range c.Model.Feedback {
			m.AddFeedback(fb.EtaProtein, fb.Perturbed)
		}
		return m, nil

	case "hill":
		m := models.NewHillModel(orOne(c.Model.K1), orOne(c.Model.K2), c.Model.G1, c.Model.G2)
		for _, fb := range c.Model.Feedback {
			m.AddFeedback(c.Model.KM, c.Model.N, fb.EtaRNA, fb.EtaProtein, fb.Perturbed)
		}
		return m, nil

	case "twostate":
		m := models.NewTwoStateModel(
			orOne(c.Model.K0), orOne(c.Model.K1), orOne(c.Model.K2),
			orOne(c.Model.G0), c.Model.G1, c.Model.G2)
		for _, fb := range c.Model.Feedback {
			m.AddFeedback(fb.EtaGene, fb.EtaRNA, fb.EtaProtein, fb.Perturbed)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("invalid model type: %s", c.Model.Type)
	}
}

// BuildPulse constructs the configured input pulse.
func (c *Config) BuildPulse() ssa.Pulse {
	return ssa.Pulse{
		Start:     c.Pulse.Start,
		Duration:  c.Pulse.Duration,
		Baseline:  c.Pulse.Baseline,
		Magnitude: c.Pulse.Magnitude,
		Sensitive: c.Pulse.Sensitive,
	}
}

// BuildEngine constructs the configured simulation engine settings.
func (c *Config) BuildEngine() ssa.Config {
	return ssa.Config{
		Duration:  c.Simulation.Duration,
		Dt:        c.Simulation.Dt,
		Timescale: c.Simulation.Timescale,
		Seed:      c.Simulation.Seed,
		Workers:   c.Simulation.Workers,
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("GRAM_TRAJECTORIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Trajectories = n
		}
	}

	if v := os.Getenv("GRAM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := os.Getenv("GRAM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
		}
	}

	if v := os.Getenv("GRAM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
