// Package network provides the reaction-network representation used by the
// stochastic simulation engine. A network is a set of discrete species and
// reactions with mass-action or Hill-type propensities. Networks are built
// once by the model layer and are immutable during simulation.
package network

import (
	"fmt"
	"math"
)

// Sensitivity tags a reaction with the cellular resource its rate depends on.
// Metabolic conditions rescale reactions by their sensitivity class.
type Sensitivity int

const (
	// SensitivityNone marks rates that are unaffected by condition changes.
	SensitivityNone Sensitivity = iota

	// SensitivityMetabolic marks ATP-dependent rates (degradation,
	// deactivation, repressor-mediated decay).
	SensitivityMetabolic

	// SensitivityTranslational marks ribosome-dependent rates (translation).
	SensitivityTranslational
)

// Hill describes optional Hill-type kinetics for a reaction. When Repressive
// is false the factor is x^n / (K^n + x^n); when true it is K^n / (K^n + x^n).
type Hill struct {
	Species    int     // index of the regulating species
	K          float64 // half-maximal concentration (Michaelis constant)
	N          float64 // Hill coefficient
	Repressive bool
}

// Reaction is a single stochastic transition. Its propensity is the rate
// constant times the product of reactant copy numbers, optionally modulated
// by an input signal and/or a Hill factor.
type Reaction struct {
	Name string

	// Rate is the stochastic rate constant.
	Rate float64

	// Reactants lists species indices whose copy numbers multiply the
	// propensity. Repeated indices contribute combinatorial factors
	// (x choose 2 for a doubled index).
	Reactants []int

	// Stoichiometry maps species index to copy-number change on firing.
	Stoichiometry map[int]int

	// InputDriven scales the propensity by the instantaneous input signal.
	InputDriven bool

	// Hill, when non-nil, multiplies the propensity by a Hill factor.
	Hill *Hill

	Sensitivity Sensitivity
}

// Network is a complete reaction system with an initial state and a declared
// output channel (the monitored species).
type Network struct {
	Species      []string
	Reactions    []Reaction
	InitialState []int

	// Output is the index of the monitored species (the terminal channel
	// in trajectory arrays).
	Output int
}

// Validate checks internal consistency of the network definition.
func (n *Network) Validate() error {
	ns := len(n.Species)
	if ns == 0 {
		return fmt.Errorf("network has no species")
	}
	if len(n.InitialState) != ns {
		return fmt.Errorf("initial state has %d entries for %d species", len(n.InitialState), ns)
	}
	if n.Output < 0 || n.Output >= ns {
		return fmt.Errorf("output channel %d out of range", n.Output)
	}
	for i, r := range n.Reactions {
		if r.Rate < 0 {
			return fmt.Errorf("reaction %d (%s): negative rate", i, r.Name)
		}
		for _, s := range r.Reactants {
			if s < 0 || s >= ns {
				return fmt.Errorf("reaction %d (%s): reactant %d out of range", i, r.Name, s)
			}
		}
		for s := range r.Stoichiometry {
			if s < 0 || s >= ns {
				return fmt.Errorf("reaction %d (%s): stoichiometry species %d out of range", i, r.Name, s)
			}
		}
		if r.Hill != nil && (r.Hill.Species < 0 || r.Hill.Species >= ns) {
			return fmt.Errorf("reaction %d (%s): hill species %d out of range", i, r.Name, r.Hill.Species)
		}
	}
	return nil
}

// Propensity returns the instantaneous firing rate of reaction i for the
// given state and input signal level.
func (n *Network) Propensity(i int, state []int, input float64) float64 {
	r := &n.Reactions[i]
	a := r.Rate
	if a == 0 {
		return 0
	}

	// Combinatorial mass-action factor. Repeated reactants contribute
	// x*(x-1)/2-style terms.
	seen := make(map[int]int, len(r.Reactants))
	for _, s := range r.Reactants {
		x := float64(state[s] - seen[s])
		if x <= 0 {
			return 0
		}
		a *= x
		seen[s]++
		if seen[s] == 2 {
			a /= 2
		}
	}

	if r.InputDriven {
		a *= input
	}

	if h := r.Hill; h != nil {
		x := float64(state[h.Species])
		kn := math.Pow(h.K, h.N)
		xn := math.Pow(x, h.N)
		if h.Repressive {
			a *= kn / (kn + xn)
		} else {
			if kn+xn == 0 {
				return 0
			}
			a *= xn / (kn + xn)
		}
	}

	return a
}

// Scaled returns a copy of the network with metabolism-sensitive rates
// multiplied by metabolic and translation-sensitive rates by translational.
// The receiver is not modified.
func (n *Network) Scaled(metabolic, translational float64) *Network {
	out := &Network{
		Species:      n.Species,
		Reactions:    make([]Reaction, len(n.Reactions)),
		InitialState: append([]int(nil), n.InitialState...),
		Output:       n.Output,
	}
	copy(out.Reactions, n.Reactions)
	for i := range out.Reactions {
		switch out.Reactions[i].Sensitivity {
		case SensitivityMetabolic:
			out.Reactions[i].Rate *= metabolic
		case SensitivityTranslational:
			out.Reactions[i].Rate *= translational
		}
	}
	return out
}
