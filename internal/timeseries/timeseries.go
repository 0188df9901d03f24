// Package timeseries provides the trajectory-set container produced by
// stochastic simulations: N independent trajectories over C channels sampled
// on a shared time axis, with summary statistics and Arrow IPC persistence.
package timeseries

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TimeSeries holds N simulated trajectories over C channels sampled at the
// shared time axis T. States is indexed sample x channel x timepoint.
type TimeSeries struct {
	T      []float64
	States [][][]float64
}

// New allocates a TimeSeries with n zeroed trajectories over channels
// channels on the given time axis.
func New(t []float64, n, channels int) *TimeSeries {
	states := make([][][]float64, n)
	for i := range states {
		states[i] = make([][]float64, channels)
		for c := range states[i] {
			states[i][c] = make([]float64, len(t))
		}
	}
	return &TimeSeries{T: append([]float64(nil), t...), States: states}
}

// N returns the number of trajectories.
func (ts *TimeSeries) N() int { return len(ts.States) }

// Channels returns the number of channels per trajectory.
func (ts *TimeSeries) Channels() int {
	if len(ts.States) == 0 {
		return 0
	}
	return len(ts.States[0])
}

// Len returns the number of timepoints.
func (ts *TimeSeries) Len() int { return len(ts.T) }

// Validate checks that all trajectories share the time axis length and
// channel count.
func (ts *TimeSeries) Validate() error {
	channels := ts.Channels()
	for i, traj := range ts.States {
		if len(traj) != channels {
			return fmt.Errorf("trajectory %d has %d channels, want %d", i, len(traj), channels)
		}
		for c, series := range traj {
			if len(series) != len(ts.T) {
				return fmt.Errorf("trajectory %d channel %d has %d points, want %d", i, c, len(series), len(ts.T))
			}
		}
	}
	return nil
}

// Series returns the time series of one channel of one trajectory.
func (ts *TimeSeries) Series(sample, channel int) []float64 {
	return ts.States[sample][channel]
}

// Mean returns the per-timepoint mean of a channel across trajectories.
func (ts *TimeSeries) Mean(channel int) []float64 {
	return ts.reduce(channel, func(vals []float64) float64 {
		return stat.Mean(vals, nil)
	})
}

// Std returns the per-timepoint sample standard deviation of a channel
// across trajectories.
func (ts *TimeSeries) Std(channel int) []float64 {
	return ts.reduce(channel, func(vals []float64) float64 {
		if len(vals) < 2 {
			return 0
		}
		return stat.StdDev(vals, nil)
	})
}

// Quantile returns the per-timepoint empirical quantile q of a channel
// across trajectories.
func (ts *TimeSeries) Quantile(channel int, q float64) []float64 {
	return ts.reduce(channel, func(vals []float64) float64 {
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		return stat.Quantile(q, stat.Empirical, sorted, nil)
	})
}

// reduce applies f across trajectories at every timepoint of a channel.
func (ts *TimeSeries) reduce(channel int, f func([]float64) float64) []float64 {
	out := make([]float64, ts.Len())
	vals := make([]float64, ts.N())
	for t := range out {
		for i := range ts.States {
			vals[i] = ts.States[i][channel][t]
		}
		out[t] = f(vals)
	}
	return out
}

// Deviations returns a copy with each trajectory shifted by its initial
// value, so all series start at zero.
func (ts *TimeSeries) Deviations() *TimeSeries {
	out := New(ts.T, ts.N(), ts.Channels())
	for i, traj := range ts.States {
		for c, series := range traj {
			if len(series) == 0 {
				continue
			}
			base := series[0]
			for t, v := range series {
				out.States[i][c][t] = v - base
			}
		}
	}
	return out
}

// Crop returns a view restricted to timepoints in [lo, hi).
func (ts *TimeSeries) Crop(lo, hi int) *TimeSeries {
	if lo < 0 {
		lo = 0
	}
	if hi > ts.Len() {
		hi = ts.Len()
	}
	out := &TimeSeries{T: ts.T[lo:hi], States: make([][][]float64, ts.N())}
	for i, traj := range ts.States {
		out.States[i] = make([][]float64, len(traj))
		for c, series := range traj {
			out.States[i][c] = series[lo:hi]
		}
	}
	return out
}
