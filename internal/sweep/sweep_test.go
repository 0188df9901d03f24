package sweep

import (
	"context"
	"math"
	"testing"

	"github.com/gramlab/gram/internal/simulation"
	"github.com/gramlab/gram/internal/ssa"
	"github.com/gramlab/gram/internal/store"
)

func TestLogSamplerBounds(t *testing.T) {
	s, err := NewLogSampler([]float64{-1, -3}, []float64{1, -2}, 10)
	if err != nil {
		t.Fatalf("NewLogSampler: %v", err)
	}

	samples := s.Sample(100)
	if len(samples) != 100 {
		t.Fatalf("got %d samples, want 100", len(samples))
	}
	for i, p := range samples {
		if len(p) != 2 {
			t.Fatalf("sample %d has %d dimensions, want 2", i, len(p))
		}
		if p[0] < 0.1 || p[0] > 10 {
			t.Errorf("sample %d dimension 0 out of range: %v", i, p[0])
		}
		if p[1] < 1e-3 || p[1] > 1e-2 {
			t.Errorf("sample %d dimension 1 out of range: %v", i, p[1])
		}
	}
}

func TestLogSamplerDeterministic(t *testing.T) {
	low, high := []float64{-1, -1, -1}, []float64{1, 1, 1}
	a, err := NewLogSampler(low, high, 10)
	if err != nil {
		t.Fatalf("NewLogSampler: %v", err)
	}
	b, err := NewLogSampler(low, high, 10)
	if err != nil {
		t.Fatalf("NewLogSampler: %v", err)
	}

	sa, sb := a.Sample(50), b.Sample(50)
	for i := range sa {
		for d := range sa[i] {
			if sa[i][d] != sb[i][d] {
				t.Fatalf("sample %d dimension %d differs: %v vs %v", i, d, sa[i][d], sb[i][d])
			}
		}
	}
}

func TestLogSamplerSpread(t *testing.T) {
	s, err := NewLogSampler([]float64{0}, []float64{1}, 10)
	if err != nil {
		t.Fatalf("NewLogSampler: %v", err)
	}

	// Low-discrepancy points should cover the range evenly: the mean of
	// log10 values over many samples approaches the midpoint.
	samples := s.Sample(512)
	sum := 0.0
	for _, p := range samples {
		sum += math.Log10(p[0])
	}
	mean := sum / float64(len(samples))
	if math.Abs(mean-0.5) > 0.02 {
		t.Errorf("mean log value %v, want near 0.5", mean)
	}
}

func TestSamplerValidation(t *testing.T) {
	if _, err := NewLogSampler([]float64{0}, []float64{0, 1}, 10); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
	if _, err := NewLogSampler(nil, nil, 10); err == nil {
		t.Error("expected error for zero dimensions")
	}
	if _, err := NewLogSampler([]float64{1}, []float64{0}, 10); err == nil {
		t.Error("expected error for inverted bounds")
	}
	if _, err := NewLogSampler([]float64{0}, []float64{1}, 1); err == nil {
		t.Error("expected error for unit logarithm base")
	}
}

func TestFamilySweeps(t *testing.T) {
	cases := []struct {
		family string
		dims   int
	}{
		{"simple", 3},
		{"linear", 9},
		{"hill", 8},
		{"twostate", 9},
	}
	for _, tc := range cases {
		t.Run(tc.family, func(t *testing.T) {
			s, err := ByName(tc.family, 16)
			if err != nil {
				t.Fatalf("ByName: %v", err)
			}
			if s.N() != 16 {
				t.Fatalf("got %d samples, want 16", s.N())
			}
			if len(s.Labels) != tc.dims {
				t.Fatalf("got %d labels, want %d", len(s.Labels), tc.dims)
			}
			for i, p := range s.Samples {
				if len(p) != tc.dims {
					t.Fatalf("sample %d has %d parameters, want %d", i, len(p), tc.dims)
				}
				model, err := s.Build(p)
				if err != nil {
					t.Fatalf("Build sample %d: %v", i, err)
				}
				if _, _, err := model.Compile(); err != nil {
					t.Fatalf("Compile sample %d: %v", i, err)
				}
			}
		})
	}

	if _, err := ByName("cubic", 4); err == nil {
		t.Error("expected error for unknown family")
	}
}

func TestSweepBuilderArity(t *testing.T) {
	s, err := NewLinearSweep(4)
	if err != nil {
		t.Fatalf("NewLinearSweep: %v", err)
	}
	if _, err := s.Build([]float64{1, 2, 3}); err == nil {
		t.Error("expected arity error")
	}
}

func TestSweepRunRecordsSamples(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping sweep execution in short mode")
	}

	s, err := NewSimpleSweep(3)
	if err != nil {
		t.Fatalf("NewSimpleSweep: %v", err)
	}

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	opts := RunOptions{
		Pulse:  ssa.Pulse{Start: 10, Duration: 5, Magnitude: 1},
		Engine: ssa.Config{Duration: 200, Dt: 2, Seed: 7, Workers: 2},
		Simulation: simulation.RunOptions{
			N: 30,
		},
	}
	completed, err := s.Run(context.Background(), st, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	samples, err := st.SweepSamples(context.Background(), "simple")
	if err != nil {
		t.Fatalf("SweepSamples: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d recorded samples, want 3", len(samples))
	}

	got := 0
	for _, sample := range samples {
		if sample.Completed {
			got++
		}
	}
	if got != completed {
		t.Errorf("completed count %d disagrees with store %d", completed, got)
	}
}

func TestSweepRunCancelled(t *testing.T) {
	s, err := NewSimpleSweep(2)
	if err != nil {
		t.Fatalf("NewSimpleSweep: %v", err)
	}

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Run(ctx, st, RunOptions{
		Pulse:      ssa.Pulse{Start: 10, Duration: 5, Magnitude: 1},
		Engine:     ssa.Config{Duration: 100, Dt: 2},
		Simulation: simulation.RunOptions{N: 10},
	}); err == nil {
		t.Error("expected cancellation error")
	}
}
