package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gramlab/gram/internal/models"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Model.Type != "linear" {
		t.Errorf("default model type %q, want linear", cfg.Model.Type)
	}
	if len(cfg.Model.Feedback) != 2 {
		t.Errorf("default model has %d feedback pathways, want 2", len(cfg.Model.Feedback))
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Type != "linear" || cfg.Simulation.Trajectories != 5000 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
model:
  type: simple
  g1: 0.002
  feedback:
    - eta3: 0.0001
      perturbed: true
pulse:
  start: 25
  duration: 5
  magnitude: 2
simulation:
  duration: 800
  dt: 0.5
  trajectories: 100
  seed: 9
  conditions: [normal, minute]
comparison:
  mode: cdf
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config invalid: %v", err)
	}
	if cfg.Model.Type != "simple" || cfg.Model.G1 != 0.002 {
		t.Errorf("model not loaded: %+v", cfg.Model)
	}
	if cfg.Pulse.Start != 25 || cfg.Pulse.Magnitude != 2 {
		t.Errorf("pulse not loaded: %+v", cfg.Pulse)
	}
	if cfg.Simulation.Trajectories != 100 || cfg.Simulation.Seed != 9 {
		t.Errorf("simulation not loaded: %+v", cfg.Simulation)
	}
	if len(cfg.Simulation.Conditions) != 2 {
		t.Errorf("conditions not loaded: %v", cfg.Simulation.Conditions)
	}
	if cfg.Comparison.Mode != "cdf" {
		t.Errorf("comparison mode %q, want cdf", cfg.Comparison.Mode)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level %q, want debug", cfg.Logging.Level)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Model.G1 = 0.05
	cfg.Simulation.Trajectories = 250

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if loaded.Model.G1 != 0.05 || loaded.Simulation.Trajectories != 250 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"model type", func(c *Config) { c.Model.Type = "cubic" }},
		{"negative pulse duration", func(c *Config) { c.Pulse.Duration = -1 }},
		{"zero dt", func(c *Config) { c.Simulation.Dt = 0 }},
		{"zero trajectories", func(c *Config) { c.Simulation.Trajectories = 0 }},
		{"unknown condition", func(c *Config) { c.Simulation.Conditions = []string{"martian"} }},
		{"comparison mode", func(c *Config) { c.Comparison.Mode = "fuzzy" }},
		{"fraction of max", func(c *Config) { c.Comparison.FractionOfMax = 1.5 }},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBuildModelFamilies(t *testing.T) {
	cases := []struct {
		modelType string
		prepare   func(*Config)
	}{
		{"linear", func(c *Config) {}},
		{"simple", func(c *Config) {}},
		{"hill", func(c *Config) {
			c.Model.KM = 100
			c.Model.N = 2
		}},
		{"twostate", func(c *Config) {}},
	}
	for _, tc := range cases {
		t.Run(tc.modelType, func(t *testing.T) {
			cfg := Default()
			cfg.Model.Type = tc.modelType
			tc.prepare(cfg)

			model, err := cfg.BuildModel()
			if err != nil {
				t.Fatalf("BuildModel: %v", err)
			}
			if model.Name() != tc.modelType {
				t.Errorf("model name %q, want %q", model.Name(), tc.modelType)
			}
			if len(model.Feedback()) != len(cfg.Model.Feedback) {
				t.Errorf("got %d pathways, want %d", len(model.Feedback()), len(cfg.Model.Feedback))
			}
			if _, _, err := model.Compile(); err != nil {
				t.Fatalf("Compile: %v", err)
			}
		})
	}
}

func TestBuildModelRateOverrides(t *testing.T) {
	cfg := Default()
	k1 := 2.5
	cfg.Model.K1 = &k1

	model, err := cfg.BuildModel()
	if err != nil {
		t.Fatalf("BuildModel: %v", err)
	}
	lm, ok := model.(*models.LinearModel)
	if !ok {
		t.Fatalf("expected *models.LinearModel, got %T", model)
	}
	if lm.K1 != 2.5 {
		t.Errorf("K1 = %v, want 2.5", lm.K1)
	}
	if lm.K0 != 1 || lm.G0 != 1 {
		t.Errorf("unset rates should default to one: K0=%v G0=%v", lm.K0, lm.G0)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRAM_TRAJECTORIES", "123")
	t.Setenv("GRAM_SEED", "77")
	t.Setenv("GRAM_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Trajectories != 123 {
		t.Errorf("trajectories %d, want 123", cfg.Simulation.Trajectories)
	}
	if cfg.Simulation.Seed != 77 {
		t.Errorf("seed %d, want 77", cfg.Simulation.Seed)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level %q, want warn", cfg.Logging.Level)
	}
}

func TestBuildPulseAndEngine(t *testing.T) {
	cfg := Default()
	cfg.Pulse.Start = 40
	cfg.Simulation.Dt = 0.25

	pulse := cfg.BuildPulse()
	if pulse.Start != 40 || !pulse.Sensitive {
		t.Errorf("unexpected pulse: %+v", pulse)
	}

	engine := cfg.BuildEngine()
	if engine.Dt != 0.25 || engine.Duration != cfg.Simulation.Duration {
		t.Errorf("unexpected engine config: %+v", engine)
	}
}
