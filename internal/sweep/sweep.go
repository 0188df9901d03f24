// Package sweep explores model parameter space with low-discrepancy
// sampling and aggregates robustness metrics across samples.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gramlab/gram/internal/models"
	"github.com/gramlab/gram/internal/simulation"
	"github.com/gramlab/gram/internal/ssa"
	"github.com/gramlab/gram/internal/store"
)

// Defaults for sweep construction.
const (
	DefaultDelta   = 0.5
	DefaultPad     = 0.1
	DefaultLogBase = 10
)

// Builder constructs a model from one sampled parameter vector. Parameters
// arrive in linear units.
type Builder func(parameters []float64) (models.Model, error)

// Sweep is a sampled region of parameter space together with the model
// family it parameterizes.
type Sweep struct {
	Name    string
	Base    []float64 // base parameter values, in log units
	Delta   float64   // log-deviation about base
	Pad     float64   // extra padding added to delta
	Labels  []string
	Samples [][]float64
	Build   Builder
}

// New samples num parameter vectors around base. Bounds in each dimension
// are base +/- (delta + pad) in log units.
func New(name string, base []float64, delta, pad float64, num int, labels []string, build Builder) (*Sweep, error) {
	if name == "" {
		return nil, fmt.Errorf("sweep requires a name")
	}
	if num <= 0 {
		return nil, fmt.Errorf("sweep requires a positive sample count, got %d", num)
	}
	if labels != nil && len(labels) != len(base) {
		return nil, fmt.Errorf("sweep has %d labels for %d parameters", len(labels), len(base))
	}
	if build == nil {
		return nil, fmt.Errorf("sweep requires a model builder")
	}

	low := make([]float64, len(base))
	high := make([]float64, len(base))
	for d, b := range base {
		low[d] = b - delta - pad
		high[d] = b + delta + pad
	}
	sampler, err := NewLogSampler(low, high, DefaultLogBase)
	if err != nil {
		return nil, fmt.Errorf("building sweep %s: %w", name, err)
	}

	return &Sweep{
		Name:    name,
		Base:    base,
		Delta:   delta,
		Pad:     pad,
		Labels:  labels,
		Samples: sampler.Sample(num),
		Build:   build,
	}, nil
}

// N returns the number of samples in parameter space.
func (s *Sweep) N() int { return len(s.Samples) }

// RunOptions configure sweep execution.
type RunOptions struct {
	Pulse      ssa.Pulse
	Engine     ssa.Config
	Simulation simulation.RunOptions
	Logger     *slog.Logger
}

// Run simulates every sample and records parameters and metrics in st.
// Samples whose simulations fail to reach the comparison point in any
// condition are recorded as incomplete. The returned count is the number of
// completed samples.
func (s *Sweep) Run(ctx context.Context, st *store.Store, opts RunOptions) (int, error) {
	completed := 0
	for i, params := range s.Samples {
		if err := ctx.Err(); err != nil {
			return completed, err
		}

		metrics, err := s.runSample(ctx, params, opts)
		if err != nil {
			if ctx.Err() != nil {
				return completed, ctx.Err()
			}
			if opts.Logger != nil {
				opts.Logger.Warn("sweep sample failed",
					"sweep", s.Name, "index", i, "error", err)
			}
			metrics = nil
		}

		if err := st.RecordSweepSample(ctx, s.Name, i, params, metrics); err != nil {
			return completed, fmt.Errorf("running sweep %s: %w", s.Name, err)
		}
		if len(metrics) > 0 {
			completed++
		}
		if opts.Logger != nil {
			opts.Logger.Info("sweep sample done",
				"sweep", s.Name, "index", i, "completed", len(metrics) > 0)
		}
	}
	return completed, nil
}

// runSample simulates one parameter vector and returns metrics for the
// conditions that reached their comparison point.
func (s *Sweep) runSample(ctx context.Context, params []float64, opts RunOptions) ([]simulation.ConditionMetrics, error) {
	model, err := s.Build(params)
	if err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}

	cs := simulation.New(model, opts.Pulse, opts.Engine)
	if err := cs.Run(ctx, opts.Simulation); err != nil {
		return nil, err
	}

	var out []simulation.ConditionMetrics
	for _, m := range cs.Metrics() {
		if m.ReachedComparison {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no condition reached its comparison point")
	}
	return out, nil
}
