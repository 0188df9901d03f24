package simulation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gramlab/gram/internal/timeseries"
)

// Trajectory file names within a condition subdirectory.
const (
	controlFile      = "control.arrow"
	perturbationFile = "perturbation.arrow"
	resultsFile      = "results.yaml"
)

// ConditionMetrics is the serialized summary of one condition's comparison.
type ConditionMetrics struct {
	Condition         string  `yaml:"condition"`
	Mode              string  `yaml:"mode"`
	Above             float64 `yaml:"above"`
	Below             float64 `yaml:"below"`
	Error             float64 `yaml:"error"`
	AboveThreshold    float64 `yaml:"above_threshold"`
	BelowThreshold    float64 `yaml:"below_threshold"`
	ThresholdError    float64 `yaml:"threshold_error"`
	ReachedComparison bool    `yaml:"reached_comparison"`
}

// Metrics returns the per-condition summaries in condition run order.
func (cs *ConditionSimulation) Metrics() []ConditionMetrics {
	out := make([]ConditionMetrics, 0, len(cs.Comparisons))
	for _, cond := range cs.Conditions {
		cmp, ok := cs.Comparisons[cond.Name]
		if !ok {
			continue
		}
		out = append(out, ConditionMetrics{
			Condition:         cond.Name,
			Mode:              string(cmp.Mode),
			Above:             cmp.Above,
			Below:             cmp.Below,
			Error:             cmp.Error,
			AboveThreshold:    cmp.AboveThreshold,
			BelowThreshold:    cmp.BelowThreshold,
			ThresholdError:    cmp.ThresholdError,
			ReachedComparison: cmp.ReachedComparison,
		})
	}
	return out
}

// Save writes per-condition metrics to dir/results.yaml. When saveall is
// set, raw trajectory sets are written to dir/<condition>/ as Arrow files.
func (cs *ConditionSimulation) Save(dir string, saveall bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("saving simulation: %w", err)
	}

	data, err := yaml.Marshal(cs.Metrics())
	if err != nil {
		return fmt.Errorf("saving simulation: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, resultsFile), data, 0644); err != nil {
		return fmt.Errorf("saving simulation: %w", err)
	}

	if !saveall {
		return nil
	}

	for name, dyn := range cs.Dynamics {
		subdir := filepath.Join(dir, name)
		if err := os.MkdirAll(subdir, 0755); err != nil {
			return fmt.Errorf("saving simulation: %w", err)
		}
		if err := dyn.Before.Save(filepath.Join(subdir, controlFile)); err != nil {
			return fmt.Errorf("saving simulation: condition %s: %w", name, err)
		}
		if err := dyn.After.Save(filepath.Join(subdir, perturbationFile)); err != nil {
			return fmt.Errorf("saving simulation: condition %s: %w", name, err)
		}
	}
	return nil
}

// LoadMetrics reads the per-condition summaries written by Save.
func LoadMetrics(dir string) ([]ConditionMetrics, error) {
	data, err := os.ReadFile(filepath.Join(dir, resultsFile))
	if err != nil {
		return nil, fmt.Errorf("loading simulation metrics: %w", err)
	}
	var out []ConditionMetrics
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("loading simulation metrics: %w", err)
	}
	return out, nil
}

// LoadDynamics reads trajectory sets saved with saveall. Conditions without
// a trajectory subdirectory are skipped.
func LoadDynamics(dir string) (map[string]Dynamics, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading simulation dynamics: %w", err)
	}

	out := make(map[string]Dynamics)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		subdir := filepath.Join(dir, e.Name())
		controlPath := filepath.Join(subdir, controlFile)
		if _, err := os.Stat(controlPath); err != nil {
			continue
		}

		before, err := timeseries.Load(controlPath)
		if err != nil {
			return nil, fmt.Errorf("loading simulation dynamics: condition %s: %w", e.Name(), err)
		}
		after, err := timeseries.Load(filepath.Join(subdir, perturbationFile))
		if err != nil {
			return nil, fmt.Errorf("loading simulation dynamics: condition %s: %w", e.Name(), err)
		}
		out[e.Name()] = Dynamics{Before: before, After: after}
	}
	return out, nil
}
