package ssa

import (
	"context"
	"math"
	"testing"

	"github.com/gramlab/gram/internal/network"
)

// birthDeathNet is a test helper building a pulsed birth/death process.
func birthDeathNet(t *testing.T, k, g float64) *network.Network {
	t.Helper()
	n := &network.Network{
		Species: []string{"x"},
		Reactions: []network.Reaction{
			{Name: "birth", Rate: k, Stoichiometry: map[int]int{0: 1}, InputDriven: true},
			{Name: "death", Rate: g, Reactants: []int{0}, Stoichiometry: map[int]int{0: -1}},
		},
		InitialState: []int{0},
		Output:       0,
	}
	if err := n.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return n
}

func TestPulseAt(t *testing.T) {
	p := Pulse{Start: 10, Duration: 5, Baseline: 0.1, Magnitude: 2}

	cases := []struct {
		t    float64
		want float64
	}{
		{0, 0.1},
		{9.99, 0.1},
		{10, 2.1},
		{14.99, 2.1},
		{15, 0.1},
		{100, 0.1},
	}
	for _, tc := range cases {
		if got := p.At(tc.t); got != tc.want {
			t.Errorf("At(%f) = %f, want %f", tc.t, got, tc.want)
		}
	}
}

func TestPulseScaled(t *testing.T) {
	p := Pulse{Start: 10, Duration: 5, Magnitude: 1, Sensitive: true}
	if got := p.Scaled(0.5).Duration; got != 10 {
		t.Errorf("sensitive pulse duration at half metabolism = %f, want 10", got)
	}

	insensitive := Pulse{Start: 10, Duration: 5, Magnitude: 1}
	if got := insensitive.Scaled(0.5).Duration; got != 5 {
		t.Errorf("insensitive pulse duration changed: %f", got)
	}
}

func TestRunManyDimensions(t *testing.T) {
	net := birthDeathNet(t, 5, 0.5)
	pulse := Pulse{Start: 2, Duration: 4, Magnitude: 1}
	cfg := Config{Duration: 10, Dt: 0.5, Seed: 7}

	ts, err := RunMany(context.Background(), net, pulse, 20, cfg)
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}

	if ts.N() != 20 {
		t.Errorf("got %d trajectories, want 20", ts.N())
	}
	if ts.Channels() != 1 {
		t.Errorf("got %d channels, want 1", ts.Channels())
	}
	if ts.Len() != 21 {
		t.Errorf("got %d timepoints, want 21", ts.Len())
	}
	if ts.T[0] != 0 || math.Abs(ts.T[20]-10) > 1e-12 {
		t.Errorf("time axis spans [%f, %f], want [0, 10]", ts.T[0], ts.T[20])
	}
}

func TestRunManyDeterministic(t *testing.T) {
	net := birthDeathNet(t, 5, 0.5)
	pulse := Pulse{Start: 2, Duration: 4, Magnitude: 1}

	a, err := RunMany(context.Background(), net, pulse, 10, Config{Duration: 10, Dt: 0.5, Seed: 42, Workers: 1})
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}
	b, err := RunMany(context.Background(), net, pulse, 10, Config{Duration: 10, Dt: 0.5, Seed: 42, Workers: 4})
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}

	for i := range a.States {
		for k := range a.States[i][0] {
			if a.States[i][0][k] != b.States[i][0][k] {
				t.Fatalf("trajectory %d diverges at %d despite fixed seed", i, k)
			}
		}
	}
}

func TestRunManyQuiescentBeforePulse(t *testing.T) {
	// With zero baseline, nothing is synthesized before the pulse starts.
	net := birthDeathNet(t, 5, 0.5)
	pulse := Pulse{Start: 5, Duration: 5, Baseline: 0, Magnitude: 1}
	cfg := Config{Duration: 20, Dt: 1, Seed: 3}

	ts, err := RunMany(context.Background(), net, pulse, 10, cfg)
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}

	for i := range ts.States {
		for k := 0; k < 5; k++ {
			if ts.States[i][0][k] != 0 {
				t.Fatalf("trajectory %d nonzero at t=%f before pulse", i, ts.T[k])
			}
		}
	}

	// The pulse should produce responses in at least most trajectories.
	responded := 0
	for i := range ts.States {
		for k := 5; k < ts.Len(); k++ {
			if ts.States[i][0][k] > 0 {
				responded++
				break
			}
		}
	}
	if responded < 8 {
		t.Errorf("only %d/10 trajectories responded to the pulse", responded)
	}
}

func TestRunManyTimescale(t *testing.T) {
	net := birthDeathNet(t, 1, 1)
	cfg := Config{Duration: 10, Dt: 1, Timescale: 60, Seed: 1}

	ts, err := RunMany(context.Background(), net, Pulse{Magnitude: 1, Duration: 1}, 2, cfg)
	if err != nil {
		t.Fatalf("RunMany: %v", err)
	}
	if got := ts.T[ts.Len()-1]; math.Abs(got-600) > 1e-9 {
		t.Errorf("scaled axis ends at %f, want 600", got)
	}
}

func TestRunManyCancellation(t *testing.T) {
	net := birthDeathNet(t, 5, 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunMany(ctx, net, Pulse{Magnitude: 1, Duration: 50, Baseline: 1}, 1000, Config{Duration: 100, Dt: 1, Workers: 1})
	if err == nil {
		t.Error("expected cancellation error")
	}
}

func TestRunManyInvalidConfig(t *testing.T) {
	net := birthDeathNet(t, 1, 1)
	if _, err := RunMany(context.Background(), net, Pulse{}, 10, Config{Duration: 0, Dt: 1}); err == nil {
		t.Error("expected error for zero duration")
	}
	if _, err := RunMany(context.Background(), net, Pulse{}, 0, Config{Duration: 1, Dt: 1}); err == nil {
		t.Error("expected error for zero trajectories")
	}
}
