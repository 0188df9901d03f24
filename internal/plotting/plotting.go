// Package plotting renders simulation results as PNG charts: sampled
// trajectory overlays for one condition's comparison, and histograms for
// sweep results.
package plotting

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/gramlab/gram/internal/comparison"
)

// DefaultTrajectories is the number of trajectories sampled for an overlay.
const DefaultTrajectories = 20

var (
	referenceColor = chart.ColorAlternateGray
	comparedColor  = drawing.Color{R: 178, G: 34, B: 34, A: 255}
)

// TrajectoryOverlay draws n randomly sampled trajectory pairs from the
// comparison onto one chart: reference series in gray, compared series in
// color. The sampled indices are shared between the two sets. The rendered
// PNG is written to w.
func TrajectoryOverlay(w io.Writer, cmp *comparison.Comparison, title string, n int, rng *rand.Rand) error {
	if n <= 0 {
		n = DefaultTrajectories
	}
	sample, err := cmp.SampleTrajectories(n, rng)
	if err != nil {
		return fmt.Errorf("rendering trajectory overlay: %w", err)
	}

	var series []chart.Series
	var yMax float64
	addSeries := func(values [][]float64, color drawing.Color) {
		style := chart.Style{
			StrokeColor: color,
			StrokeWidth: 1.0,
		}
		for _, ys := range values {
			for _, y := range ys {
				yMax = math.Max(yMax, y)
			}
			series = append(series, chart.ContinuousSeries{
				XValues: sample.T,
				YValues: ys,
				Style:   style,
			})
		}
	}
	addSeries(sample.Reference, referenceColor)
	addSeries(sample.Compared, comparedColor)

	if yMax == 0 {
		yMax = 1
	}

	graph := chart.Chart{
		Title:  title,
		Width:  640,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "Time",
			Range: &chart.ContinuousRange{Min: sample.T[0], Max: sample.T[len(sample.T)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "Protein level",
			Range: &chart.ContinuousRange{Min: 0, Max: yMax * 1.05},
		},
		Series: series,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering trajectory overlay: %w", err)
	}
	return nil
}

// Histogram renders a fixed-bin histogram of values (typically sweep error
// fractions) to w.
func Histogram(w io.Writer, values []float64, title string, bins int) error {
	if len(values) == 0 {
		return fmt.Errorf("rendering histogram: no values")
	}
	if bins <= 0 {
		bins = 20
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(bins)

	counts := make([]float64, bins)
	centers := make([]float64, bins)
	for i := range centers {
		centers[i] = lo + (float64(i)+0.5)*width
	}
	for _, v := range values {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}

	graph := chart.Chart{
		Title:  title,
		Width:  640,
		Height: 400,
		XAxis:  chart.XAxis{Name: "Error"},
		YAxis:  chart.YAxis{Name: "Count"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: centers,
				YValues: counts,
				Style: chart.Style{
					StrokeColor: comparedColor,
					StrokeWidth: 2.0,
				},
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering histogram: %w", err)
	}
	return nil
}
