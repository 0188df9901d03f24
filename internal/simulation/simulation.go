// Package simulation orchestrates conditioned perturbation runs: for each
// metabolic condition it simulates the intact cell and the perturbed mutant,
// then compares the two trajectory sets. The run is synchronous; internal
// parallelism across trajectories is handled by the engine.
package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gramlab/gram/internal/comparison"
	"github.com/gramlab/gram/internal/condition"
	"github.com/gramlab/gram/internal/models"
	"github.com/gramlab/gram/internal/ssa"
	"github.com/gramlab/gram/internal/timeseries"
)

// Dynamics pairs the trajectory sets of one condition: before (feedback
// intact) and after (feedback removed).
type Dynamics struct {
	Before *timeseries.TimeSeries
	After  *timeseries.TimeSeries
}

// ConditionSimulation runs a gene-expression pulse before and after a
// genetic perturbation under a range of metabolic conditions.
type ConditionSimulation struct {
	Model      models.Model
	Pulse      ssa.Pulse
	Engine     ssa.Config
	Conditions []condition.Condition

	// Populated by Run, keyed by condition name; read-only afterwards.
	Dynamics    map[string]Dynamics
	Comparisons map[string]*comparison.Comparison
}

// New creates a conditioned simulation over the default condition set.
func New(model models.Model, pulse ssa.Pulse, engine ssa.Config) *ConditionSimulation {
	return &ConditionSimulation{
		Model:      model,
		Pulse:      pulse,
		Engine:     engine,
		Conditions: condition.Default(),
	}
}

// RunOptions configure a conditioned run.
type RunOptions struct {
	// N is the number of independent trajectories per simulation.
	N int

	// Comparison estimator settings.
	Mode          comparison.Mode
	Bandwidth     float64
	FractionOfMax float64
	Deviations    bool

	// Logger, when non-nil, receives per-condition progress.
	Logger *slog.Logger
}

// Run executes before/after simulations for every condition and populates
// Dynamics and Comparisons: exactly one entry per condition name, each with
// reference and compared sets sharing one time axis.
func (cs *ConditionSimulation) Run(ctx context.Context, opts RunOptions) error {
	if opts.N <= 0 {
		return fmt.Errorf("running conditioned simulation: non-positive trajectory count %d", opts.N)
	}
	if len(cs.Conditions) == 0 {
		return fmt.Errorf("running conditioned simulation: no conditions")
	}

	cell, mutant, err := cs.Model.Compile()
	if err != nil {
		return fmt.Errorf("running conditioned simulation: compiling model: %w", err)
	}

	dynamics := make(map[string]Dynamics, len(cs.Conditions))
	comparisons := make(map[string]*comparison.Comparison, len(cs.Conditions))

	for i, cond := range cs.Conditions {
		start := time.Now()

		pulse := cs.Pulse.Scaled(cond.Metabolic)
		scaledCell := cell.Scaled(cond.Metabolic, cond.Translational)
		scaledMutant := mutant.Scaled(cond.Metabolic, cond.Translational)

		// Independent RNG streams per condition and per arm.
		beforeCfg := cs.Engine
		beforeCfg.Seed = cs.Engine.Seed + uint64(2*i)
		afterCfg := cs.Engine
		afterCfg.Seed = cs.Engine.Seed + uint64(2*i+1)

		before, err := ssa.RunMany(ctx, scaledCell, pulse, opts.N, beforeCfg)
		if err != nil {
			return fmt.Errorf("running conditioned simulation: condition %s: %w", cond.Name, err)
		}
		after, err := ssa.RunMany(ctx, scaledMutant, pulse, opts.N, afterCfg)
		if err != nil {
			return fmt.Errorf("running conditioned simulation: condition %s: %w", cond.Name, err)
		}

		cmp, err := comparison.Compare(before, after, cell.Output, comparison.Options{
			Mode:          opts.Mode,
			Bandwidth:     opts.Bandwidth,
			FractionOfMax: opts.FractionOfMax,
			Deviations:    opts.Deviations,
		})
		if err != nil {
			return fmt.Errorf("running conditioned simulation: condition %s: %w", cond.Name, err)
		}

		dynamics[cond.Name] = Dynamics{Before: before, After: after}
		comparisons[cond.Name] = cmp

		if opts.Logger != nil {
			opts.Logger.Info("condition complete",
				"condition", cond.Name,
				"trajectories", opts.N,
				"threshold_error", cmp.ThresholdError,
				"reached", cmp.ReachedComparison,
				"elapsed", time.Since(start).Round(time.Millisecond))
		}
	}

	cs.Dynamics = dynamics
	cs.Comparisons = comparisons
	return nil
}

// NumConditions returns the number of populated comparisons.
func (cs *ConditionSimulation) NumConditions() int { return len(cs.Comparisons) }
