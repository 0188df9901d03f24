package models

import "github.com/gramlab/gram/internal/network"

// SimpleModel is a one-species birth/death model: an input pulse drives
// synthesis of the output protein directly, the protein decays at a
// first-order rate, and feedback adds second-order self-repression.
type SimpleModel struct {
	K float64 // synthesis rate constant
	G float64 // decay rate constant

	feedback []FeedbackPathway
}

// NewSimpleModel constructs a simple model with the given synthesis and
// decay constants.
func NewSimpleModel(k, g float64) *SimpleModel {
	return &SimpleModel{K: k, G: g}
}

// AddFeedback appends one self-repression pathway of the given strength.
func (m *SimpleModel) AddFeedback(eta float64, perturbed bool) {
	m.feedback = append(m.feedback, FeedbackPathway{EtaProtein: eta, Perturbed: perturbed})
}

// Name implements Model.
func (m *SimpleModel) Name() string { return "simple" }

// Feedback implements Model.
func (m *SimpleModel) Feedback() []FeedbackPathway { return m.feedback }

// Compile implements Model.
func (m *SimpleModel) Compile() (*network.Network, *network.Network, error) {
	cell, err := m.compile(false)
	if err != nil {
		return nil, nil, err
	}
	mutant, err := m.compile(true)
	if err != nil {
		return nil, nil, err
	}
	return cell, mutant, nil
}

func (m *SimpleModel) compile(perturbed bool) (*network.Network, error) {
	n := &network.Network{
		Species:      []string{"protein"},
		InitialState: []int{0},
		Output:       0,
	}
	n.Reactions = []network.Reaction{
		{
			Name:          "synthesis",
			Rate:          m.K,
			Stoichiometry: map[int]int{0: 1},
			InputDriven:   true,
		},
		{
			Name:          "decay",
			Rate:          m.G,
			Reactants:     []int{0},
			Stoichiometry: map[int]int{0: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
	}

	// SimpleModel pathways carry a protein strength only, so the gene and
	// transcript terms never fire.
	appendLinearFeedback(n, m.feedback, perturbed, -1, 0, 0)

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}
