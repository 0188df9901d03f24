package plotting

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/gramlab/gram/internal/comparison"
	"github.com/gramlab/gram/internal/timeseries"
)

// flatComparison is a test helper building a small comparison with distinct
// reference and compared levels.
func flatComparison(t *testing.T) *comparison.Comparison {
	t.Helper()

	axis := make([]float64, 30)
	for k := range axis {
		axis[k] = float64(k)
	}
	ref := timeseries.New(axis, 8, 1)
	comp := timeseries.New(axis, 8, 1)
	for i := 0; i < 8; i++ {
		for k := range axis {
			// A pulse that decays for the reference and persists for
			// the compared set.
			level := 50.0 - 2*float64(k) + float64(i)
			if level < 0 {
				level = 0
			}
			ref.States[i][0][k] = level
			comp.States[i][0][k] = 50 + float64(i)
		}
	}

	c, err := comparison.Compare(ref, comp, 0, comparison.Options{})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	return c
}

func TestTrajectoryOverlayProducesPNG(t *testing.T) {
	cmp := flatComparison(t)
	rng := rand.New(rand.NewPCG(1, 2))

	var buf bytes.Buffer
	if err := TrajectoryOverlay(&buf, cmp, "Normal", 5, rng); err != nil {
		t.Fatalf("TrajectoryOverlay: %v", err)
	}

	// PNG magic bytes.
	if buf.Len() < 8 || !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestTrajectoryOverlayDefaultCount(t *testing.T) {
	cmp := flatComparison(t)
	rng := rand.New(rand.NewPCG(3, 4))

	var buf bytes.Buffer
	if err := TrajectoryOverlay(&buf, cmp, "Normal", 0, rng); err != nil {
		t.Fatalf("TrajectoryOverlay with default count: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("no output produced")
	}
}

func TestHistogram(t *testing.T) {
	values := []float64{0.1, 0.2, 0.2, 0.3, 0.9, 0.95, 1.0}

	var buf bytes.Buffer
	if err := Histogram(&buf, values, "threshold error", 10); err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}

	if err := Histogram(&buf, nil, "empty", 10); err == nil {
		t.Error("expected error for empty values")
	}
}
