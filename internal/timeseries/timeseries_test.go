package timeseries

import (
	"math"
	"path/filepath"
	"testing"
)

// rampSeries is a test helper building a 3-trajectory, 2-channel set where
// channel values are sample+t and 10*(sample+1) respectively.
func rampSeries(t *testing.T) *TimeSeries {
	t.Helper()
	axis := []float64{0, 1, 2, 3}
	ts := New(axis, 3, 2)
	for i := 0; i < 3; i++ {
		for k := range axis {
			ts.States[i][0][k] = float64(i + k)
			ts.States[i][1][k] = 10 * float64(i+1)
		}
	}
	if err := ts.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return ts
}

func TestDimensions(t *testing.T) {
	ts := rampSeries(t)
	if ts.N() != 3 || ts.Channels() != 2 || ts.Len() != 4 {
		t.Errorf("got N=%d C=%d T=%d, want 3/2/4", ts.N(), ts.Channels(), ts.Len())
	}
}

func TestMeanStd(t *testing.T) {
	ts := rampSeries(t)

	mean := ts.Mean(0)
	// Channel 0 values at timepoint k are {k, k+1, k+2}, mean k+1.
	for k, m := range mean {
		if math.Abs(m-float64(k+1)) > 1e-12 {
			t.Errorf("mean[%d] = %f, want %d", k, m, k+1)
		}
	}

	std := ts.Std(1)
	// Channel 1 values are {10, 20, 30} at every timepoint; sample std 10.
	for k, s := range std {
		if math.Abs(s-10) > 1e-12 {
			t.Errorf("std[%d] = %f, want 10", k, s)
		}
	}
}

func TestDeviations(t *testing.T) {
	ts := rampSeries(t)
	dev := ts.Deviations()

	for i := 0; i < dev.N(); i++ {
		for c := 0; c < dev.Channels(); c++ {
			if dev.States[i][c][0] != 0 {
				t.Errorf("deviation trajectory %d channel %d does not start at 0", i, c)
			}
		}
	}
	// Channel 0 grows by one per step regardless of sample.
	if dev.States[2][0][3] != 3 {
		t.Errorf("deviation end value = %f, want 3", dev.States[2][0][3])
	}
	// The original is unchanged.
	if ts.States[2][0][0] != 2 {
		t.Error("Deviations mutated the receiver")
	}
}

func TestCrop(t *testing.T) {
	ts := rampSeries(t)
	cropped := ts.Crop(1, 3)
	if cropped.Len() != 2 {
		t.Fatalf("cropped length = %d, want 2", cropped.Len())
	}
	if cropped.T[0] != 1 || cropped.T[1] != 2 {
		t.Errorf("cropped axis = %v", cropped.T)
	}
	if cropped.States[0][0][0] != ts.States[0][0][1] {
		t.Error("cropped values misaligned")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ts := rampSeries(t)
	path := filepath.Join(t.TempDir(), "trajectories.arrow")

	if err := ts.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.N() != ts.N() || loaded.Channels() != ts.Channels() || loaded.Len() != ts.Len() {
		t.Fatalf("loaded dimensions %d/%d/%d, want %d/%d/%d",
			loaded.N(), loaded.Channels(), loaded.Len(), ts.N(), ts.Channels(), ts.Len())
	}
	for k, v := range ts.T {
		if loaded.T[k] != v {
			t.Errorf("time axis mismatch at %d: %f vs %f", k, loaded.T[k], v)
		}
	}
	for i := range ts.States {
		for c := range ts.States[i] {
			for k := range ts.States[i][c] {
				if loaded.States[i][c][k] != ts.States[i][c][k] {
					t.Fatalf("value mismatch at [%d][%d][%d]", i, c, k)
				}
			}
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.arrow")); err == nil {
		t.Error("expected error loading missing file")
	}
}
