// Package ssa implements exact stochastic simulation of reaction networks
// using the Gillespie direct method. Trajectories are sampled onto a uniform
// time grid, and independent trajectories of one run execute concurrently on
// a worker pool.
package ssa

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"github.com/gramlab/gram/internal/network"
	"github.com/gramlab/gram/internal/timeseries"
)

// Pulse is the rectangular input signal driving the network: Baseline
// outside the pulse window and Baseline+Magnitude inside it.
type Pulse struct {
	Start     float64 `yaml:"start"`
	Duration  float64 `yaml:"duration"`
	Baseline  float64 `yaml:"baseline"`
	Magnitude float64 `yaml:"magnitude"`

	// Sensitive marks the pulse duration as metabolism-dependent: reduced
	// metabolism stretches the pulse proportionally.
	Sensitive bool `yaml:"sensitive"`
}

// At returns the signal level at time t.
func (p Pulse) At(t float64) float64 {
	if t >= p.Start && t < p.Start+p.Duration {
		return p.Baseline + p.Magnitude
	}
	return p.Baseline
}

// Scaled returns the pulse adjusted for a metabolic rate multiplier. A
// sensitive pulse lasts longer when metabolism slows.
func (p Pulse) Scaled(metabolic float64) Pulse {
	if !p.Sensitive || metabolic <= 0 {
		return p
	}
	out := p
	out.Duration = p.Duration / metabolic
	return out
}

// nextBoundary returns the earliest pulse edge strictly after t, or +Inf.
func (p Pulse) nextBoundary(t float64) float64 {
	if t < p.Start {
		return p.Start
	}
	if end := p.Start + p.Duration; t < end {
		return end
	}
	return math.Inf(1)
}

// Config controls a simulation run.
type Config struct {
	// Duration is the simulated time span.
	Duration float64 `yaml:"duration"`

	// Dt is the sampling interval of the output grid.
	Dt float64 `yaml:"dt"`

	// Timescale multiplies the reported time axis (simulation units to
	// display units). Zero means one.
	Timescale float64 `yaml:"timescale"`

	// Seed initializes the trajectory RNG streams. Each trajectory uses an
	// independent stream derived from (Seed, index).
	Seed uint64 `yaml:"seed"`

	// Workers bounds concurrent trajectories. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

func (c Config) validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("non-positive duration %g", c.Duration)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("non-positive sampling interval %g", c.Dt)
	}
	return nil
}

// grid returns the uniform sampling grid in simulation units.
func (c Config) grid() []float64 {
	n := int(math.Floor(c.Duration/c.Dt)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * c.Dt
	}
	return out
}

// RunMany simulates n independent trajectories of the network under the
// given pulse and returns them as a TimeSeries. Deterministic for a fixed
// seed regardless of worker count.
func RunMany(ctx context.Context, net *network.Network, pulse Pulse, n int, cfg Config) (*timeseries.TimeSeries, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("running simulation: %w", err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("running simulation: non-positive trajectory count %d", n)
	}
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("running simulation: %w", err)
	}

	grid := cfg.grid()

	timescale := cfg.Timescale
	if timescale == 0 {
		timescale = 1
	}
	axis := make([]float64, len(grid))
	for i, t := range grid {
		axis[i] = t * timescale
	}

	ts := timeseries.New(axis, n, len(net.Species))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
				simulate(net, pulse, grid, rng, ts.States[i])
			}
		}()
	}

	var err error
feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("running simulation: %w", err)
	}
	return ts, nil
}

// simulate runs one Gillespie trajectory, writing sampled states into out
// (channel x timepoint). The input signal is piecewise constant, so jumps
// that would cross a pulse edge are truncated at the edge and redrawn.
func simulate(net *network.Network, pulse Pulse, grid []float64, rng *rand.Rand, out [][]float64) {
	state := append([]int(nil), net.InitialState...)
	end := grid[len(grid)-1]

	t := 0.0
	next := 0 // next grid index to fill

	record := func(until float64) {
		for next < len(grid) && grid[next] <= until {
			for c := range state {
				out[c][next] = float64(state[c])
			}
			next++
		}
	}

	for t < end && next < len(grid) {
		input := pulse.At(t)

		total := 0.0
		for i := range net.Reactions {
			total += net.Propensity(i, state, input)
		}

		boundary := pulse.nextBoundary(t)

		if total <= 0 {
			// Nothing can fire until the input changes.
			t = math.Min(boundary, end)
			record(t)
			continue
		}

		tau := rng.ExpFloat64() / total
		if t+tau >= boundary {
			// The drawn jump is invalid past the edge; advance and
			// redraw with the new input level.
			record(math.Nextafter(boundary, 0))
			t = boundary
			continue
		}

		// State is constant over (t, t+tau); sample it onto the grid
		// before firing.
		record(math.Nextafter(t+tau, 0))
		t += tau

		// Select the firing reaction by cumulative propensity.
		r := rng.Float64() * total
		acc := 0.0
		for i := range net.Reactions {
			acc += net.Propensity(i, state, input)
			if r < acc || i == len(net.Reactions)-1 {
				for s, d := range net.Reactions[i].Stoichiometry {
					state[s] += d
					if state[s] < 0 {
						state[s] = 0
					}
				}
				break
			}
		}
	}

	// Fill any remaining grid points with the final state.
	record(end)
}
