// Package comparison quantifies how far perturbed dynamics stray from a
// reference trajectory set. A Comparison holds the reference (feedback
// intact) and compared (feedback removed) trajectory sets for one condition,
// plus derived error metrics, including the threshold error read by sweeps
// and reports.
package comparison

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gramlab/gram/internal/timeseries"
)

// Mode selects the error estimator applied over the comparison window.
type Mode string

const (
	// ModeEmpirical counts the fraction of compared trajectories outside
	// the reference band.
	ModeEmpirical Mode = "empirical"

	// ModeArea measures the fraction of the compared confidence band's
	// area lying outside the reference band.
	ModeArea Mode = "area"

	// ModeCDF measures the Gaussian probability mass of the compared set
	// outside the reference band.
	ModeCDF Mode = "cdf"

	// ModeThreshold measures Gaussian mass outside the reference band at
	// the single timepoint where the reference pulse has decayed.
	ModeThreshold Mode = "threshold"
)

// Valid reports whether m names a known estimator.
func (m Mode) Valid() bool {
	switch m {
	case ModeEmpirical, ModeArea, ModeCDF, ModeThreshold:
		return true
	}
	return false
}

// Options tune a comparison.
type Options struct {
	Mode Mode

	// Bandwidth is the z-score half-width of the reference acceptance
	// band. Zero means DefaultBandwidth.
	Bandwidth float64

	// FractionOfMax positions the comparison window: it opens once the
	// reference mean has decayed below this fraction of its peak. Zero
	// means DefaultFractionOfMax.
	FractionOfMax float64

	// Deviations compares deviations from initial values instead of
	// absolute levels.
	Deviations bool
}

// Default comparison parameters.
const (
	DefaultBandwidth     = 1.96
	DefaultFractionOfMax = 0.3
)

// Comparison holds the trajectory sets for one condition and the error
// metrics derived from them. Produced by Compare; read-only afterwards.
type Comparison struct {
	Reference *timeseries.TimeSeries
	Compared  *timeseries.TimeSeries

	// Channel is the monitored species index (the terminal channel).
	Channel int

	Mode          Mode
	Bandwidth     float64
	FractionOfMax float64

	// CompareIndex is the grid index where the reference pulse has
	// decayed below FractionOfMax of its peak. ReachedComparison is false
	// when the reference never decays within the simulated span, in which
	// case all metrics are zero.
	CompareIndex      int
	ReachedComparison bool

	// Window metrics for the selected mode.
	Above float64
	Below float64
	Error float64

	// Threshold metrics at CompareIndex. ThresholdError is the value
	// reported by sweeps and run reports; always in [0, 1].
	AboveThreshold float64
	BelowThreshold float64
	ThresholdError float64
}

// Compare builds a Comparison between a reference and a perturbed trajectory
// set on the given channel.
func Compare(ref, comp *timeseries.TimeSeries, channel int, opts Options) (*Comparison, error) {
	if ref == nil || comp == nil {
		return nil, fmt.Errorf("comparing trajectories: nil trajectory set")
	}
	if ref.N() == 0 || comp.N() == 0 {
		return nil, fmt.Errorf("comparing trajectories: empty trajectory set")
	}
	if ref.Len() != comp.Len() {
		return nil, fmt.Errorf("comparing trajectories: time axes differ (%d vs %d points)", ref.Len(), comp.Len())
	}
	if ref.N() != comp.N() {
		return nil, fmt.Errorf("comparing trajectories: sample counts differ (%d vs %d)", ref.N(), comp.N())
	}
	if channel < 0 || channel >= ref.Channels() {
		return nil, fmt.Errorf("comparing trajectories: channel %d out of range", channel)
	}

	mode := opts.Mode
	if mode == "" {
		mode = ModeThreshold
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("comparing trajectories: unknown mode %q", opts.Mode)
	}

	if opts.Deviations {
		ref = ref.Deviations()
		comp = comp.Deviations()
	}

	c := &Comparison{
		Reference:     ref,
		Compared:      comp,
		Channel:       channel,
		Mode:          mode,
		Bandwidth:     opts.Bandwidth,
		FractionOfMax: opts.FractionOfMax,
	}
	if c.Bandwidth == 0 {
		c.Bandwidth = DefaultBandwidth
	}
	if c.FractionOfMax == 0 {
		c.FractionOfMax = DefaultFractionOfMax
	}

	c.evaluate()
	return c, nil
}

// evaluate locates the comparison window and computes all metrics.
func (c *Comparison) evaluate() {
	refMean := c.Reference.Mean(c.Channel)
	refStd := c.Reference.Std(c.Channel)

	idx, ok := decayIndex(refMean, c.FractionOfMax)
	if !ok {
		return
	}
	c.CompareIndex = idx
	c.ReachedComparison = true

	lower := make([]float64, len(refMean))
	upper := make([]float64, len(refMean))
	for k := range refMean {
		lower[k] = math.Max(0, refMean[k]-c.Bandwidth*refStd[k])
		upper[k] = refMean[k] + c.Bandwidth*refStd[k]
	}

	// Window metrics over [CompareIndex, end) for the selected mode.
	var above, below float64
	count := 0
	for k := idx; k < c.Reference.Len(); k++ {
		a, b := c.pointError(k, lower[k], upper[k], c.Mode)
		above += a
		below += b
		count++
	}
	if count > 0 {
		c.Above = above / float64(count)
		c.Below = below / float64(count)
	}
	c.Error = clamp01(c.Above + c.Below)

	// Threshold metrics at the single decay timepoint.
	a, b := c.pointError(idx, lower[idx], upper[idx], ModeThreshold)
	c.AboveThreshold = a
	c.BelowThreshold = b
	c.ThresholdError = clamp01(a + b)
}

// pointError computes the above/below error contributions at timepoint k
// against the reference band [lower, upper].
func (c *Comparison) pointError(k int, lower, upper float64, mode Mode) (above, below float64) {
	vals := make([]float64, c.Compared.N())
	for i := range c.Compared.States {
		vals[i] = c.Compared.States[i][c.Channel][k]
	}

	switch mode {
	case ModeEmpirical:
		for _, v := range vals {
			if v > upper {
				above++
			} else if v < lower {
				below++
			}
		}
		n := float64(len(vals))
		return above / n, below / n

	case ModeArea:
		mean := stat.Mean(vals, nil)
		std := sampleStd(vals)
		cLower := math.Max(0, mean-c.Bandwidth*std)
		cUpper := mean + c.Bandwidth*std
		width := cUpper - cLower
		if width <= 0 {
			// Degenerate band collapses to the mean.
			if mean > upper {
				return 1, 0
			}
			if mean < lower {
				return 0, 1
			}
			return 0, 0
		}
		above = math.Max(0, cUpper-math.Max(cLower, upper)) / width
		below = math.Max(0, math.Min(cUpper, lower)-cLower) / width
		return above, below

	default: // ModeCDF and ModeThreshold share the Gaussian estimator.
		mean := stat.Mean(vals, nil)
		std := sampleStd(vals)
		if std == 0 {
			if mean > upper {
				return 1, 0
			}
			if mean < lower {
				return 0, 1
			}
			return 0, 0
		}
		dist := distuv.Normal{Mu: mean, Sigma: std}
		return 1 - dist.CDF(upper), dist.CDF(lower)
	}
}

// decayIndex returns the first index after the peak of mean where it falls
// below fraction*peak, or false if it never decays.
func decayIndex(mean []float64, fraction float64) (int, bool) {
	peak := 0
	for k, v := range mean {
		if v > mean[peak] {
			peak = k
		}
	}
	if mean[peak] <= 0 {
		return 0, false
	}
	threshold := fraction * mean[peak]
	for k := peak + 1; k < len(mean); k++ {
		if mean[k] <= threshold {
			return k, true
		}
	}
	return 0, false
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TrajectorySample holds index-aligned trajectory draws from a comparison's
// reference and compared sets on the monitored channel.
type TrajectorySample struct {
	Indices   []int
	T         []float64
	Reference [][]float64
	Compared  [][]float64
}

// SampleTrajectories draws n trajectory indices uniformly with replacement,
// shared between the reference and compared sets, and returns the
// corresponding monitored-channel series.
func (c *Comparison) SampleTrajectories(n int, rng *rand.Rand) (*TrajectorySample, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sampling trajectories: non-positive count %d", n)
	}
	avail := c.Reference.N()
	if avail == 0 {
		return nil, fmt.Errorf("sampling trajectories: empty trajectory set")
	}

	s := &TrajectorySample{
		Indices:   make([]int, n),
		T:         c.Reference.T,
		Reference: make([][]float64, n),
		Compared:  make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		idx := rng.IntN(avail)
		s.Indices[i] = idx
		s.Reference[i] = c.Reference.Series(idx, c.Channel)
		s.Compared[i] = c.Compared.Series(idx, c.Channel)
	}
	return s, nil
}

// FormatPercent renders an error fraction as a percentage string, e.g.
// "99.00%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", 100*v)
}
