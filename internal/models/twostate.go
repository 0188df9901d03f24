package models

import "github.com/gramlab/gram/internal/network"

// Species indices for the two-state model networks.
const (
	tsGeneOff = iota
	tsGeneOn
	tsRNA
	tsProtein
)

// tsGeneCopies is the number of gene copies in the two-state model.
const tsGeneCopies = 2

// TwoStateModel extends the linear model with a discrete promoter: gene
// copies switch between off and on states, and only the on state is
// transcribed. The input pulse drives the off-to-on transition.
type TwoStateModel struct {
	// Synthesis rate constants: activation, transcription, translation.
	K0, K1, K2 float64

	// Decay rate constants: deactivation, mRNA decay, protein decay.
	G0, G1, G2 float64

	feedback []FeedbackPathway
}

// NewTwoStateModel constructs a two-state model with the given rate
// constants.
func NewTwoStateModel(k0, k1, k2, g0, g1, g2 float64) *TwoStateModel {
	return &TwoStateModel{K0: k0, K1: k1, K2: k2, G0: g0, G1: g1, G2: g2}
}

// AddFeedback appends one repressor pathway with transcriptional,
// post-transcriptional, and post-translational strengths.
func (m *TwoStateModel) AddFeedback(eta1, eta2, eta3 float64, perturbed bool) {
	m.feedback = append(m.feedback, FeedbackPathway{
		EtaGene:    eta1,
		EtaRNA:     eta2,
		EtaProtein: eta3,
		Perturbed:  perturbed,
	})
}

// Name implements Model.
func (m *TwoStateModel) Name() string { return "twostate" }

// Feedback implements Model.
func (m *TwoStateModel) Feedback() []FeedbackPathway { return m.feedback }

// Compile implements Model.
func (m *TwoStateModel) Compile() (*network.Network, *network.Network, error) {
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

func (m *TwoStateModel) compile(perturbed bool) (*network.Network, error) {
	n := &network.Network{
		Species:      []string{"gene off", "gene on", "mrna", "protein"},
		InitialState: []int{tsGeneCopies, 0, 0, 0},
		Output:       tsProtein,
	}

	n.Reactions = []network.Reaction{
		{
			Name:          "activation",
			Rate:          m.K0,
			Reactants:     []int{tsGeneOff},
			Stoichiometry: map[int]int{tsGeneOff: -1, tsGeneOn: 1},
			InputDriven:   true,
		},
		{
			Name:          "deactivation",
			Rate:          m.G0,
			Reactants:     []int{tsGeneOn},
			Stoichiometry: map[int]int{tsGeneOn: -1, tsGeneOff: 1},
			Sensitivity:   network.SensitivityMetabolic,
		},
		{
			Name:          "transcription",
			Rate:          m.K1,
			Reactants:     []int{tsGeneOn},
			Stoichiometry: map[int]int{tsRNA: 1},
		},
		{
			Name:          "translation",
			Rate:          m.K2,
			Reactants:     []int{tsRNA},
			Stoichiometry: map[int]int{tsProtein: 1},
			Sensitivity:   network.SensitivityTranslational,
		},
		{
			Name:          "mrna decay",
			Rate:          m.G1,
			Reactants:     []int{tsRNA},
			Stoichiometry: map[int]int{tsRNA: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
		{
			Name:          "protein decay",
			Rate:          m.G2,
			Reactants:     []int{tsProtein},
			Stoichiometry: map[int]int{tsProtein: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
	}

	// Transcriptional feedback silences an active gene copy; the off copy
	// is recovered so the total stays at tsGeneCopies.
	for _, fb := range m.feedback {
		if perturbed && fb.Perturbed {
			continue
		}
		if fb.EtaGene > 0 {
			n.Reactions = append(n.Reactions, network.Reaction{
				Name:          "transcriptional feedback",
				Rate:          fb.EtaGene,
				Reactants:     []int{tsGeneOn, tsProtein},
				Stoichiometry: map[int]int{tsGeneOn: -1, tsGeneOff: 1},
				Sensitivity:   network.SensitivityMetabolic,
			})
		}
	}
	appendLinearFeedback(n, stripGeneTerms(m.feedback), perturbed, -1, tsRNA, tsProtein)

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// stripGeneTerms zeroes the gene-level strength of each pathway so the
// shared helper only appends transcript- and protein-level reactions.
func stripGeneTerms(feedback []FeedbackPathway) []FeedbackPathway {
	out := append([]FeedbackPathway(nil), feedback...)
	for i := range out {
		out[i].EtaGene = 0
	}
	return out
}
