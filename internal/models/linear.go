package models

import "github.com/gramlab/gram/internal/network"

// Species indices shared by the linear model networks.
const (
	linGene = iota
	linRNA
	linProtein
)

// LinearModel is a three-stage gene expression model with first-order
// kinetics: an input pulse drives gene activation, active gene drives
// transcription, transcript drives translation. Each stage decays at a
// first-order rate, and repressor feedback adds protein-dependent decay at
// any of the three stages.
type LinearModel struct {
	// Synthesis rate constants: activation, transcription, translation.
	K0, K1, K2 float64

	// Decay rate constants: deactivation, mRNA decay, protein decay.
	G0, G1, G2 float64

	feedback []FeedbackPathway
}

// NewLinearModel constructs a linear model with the given mRNA and protein
// degradation constants. Synthesis constants and the deactivation constant
// default to one.
func NewLinearModel(g1, g2 float64) *LinearModel {
	return &LinearModel{K0: 1, K1: 1, K2: 1, G0: 1, G1: g1, G2: g2}
}

// AddFeedback appends one repressor pathway with transcriptional,
// post-transcriptional, and post-translational strengths.
func (m *LinearModel) AddFeedback(eta1, eta2, eta3 float64, perturbed bool) {
	m.feedback = append(m.feedback, FeedbackPathway{
		EtaGene:    eta1,
		EtaRNA:     eta2,
		EtaProtein: eta3,
		Perturbed:  perturbed,
	})
}

// Name implements Model.
func (m *LinearModel) Name() string { return "linear" }

// Feedback implements Model.
func (m *LinearModel) Feedback() []FeedbackPathway { return m.feedback }

// Compile implements Model.
func (m *LinearModel) Compile() (*network.Network, *network.Network, error) {
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

func (m *LinearModel) compile(perturbed bool) (*network.Network, error) {
	n := &network.Network{
		Species:      []string{"gene", "mrna", "protein"},
		InitialState: []int{0, 0, 0},
		Output:       linProtein,
	}

	n.Reactions = []network.Reaction{
		{
			Name:          "activation",
			Rate:          m.K0,
			Stoichiometry: map[int]int{linGene: 1},
			InputDriven:   true,
		},
		{
			Name:          "transcription",
			Rate:          m.K1,
			Reactants:     []int{linGene},
			Stoichiometry: map[int]int{linRNA: 1},
		},
		{
			Name:          "translation",
			Rate:          m.K2,
			Reactants:     []int{linRNA},
			Stoichiometry: map[int]int{linProtein: 1},
			Sensitivity:   network.SensitivityTranslational,
		},
		{
			Name:          "deactivation",
			Rate:          m.G0,
			Reactants:     []int{linGene},
			Stoichiometry: map[int]int{linGene: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
		{
			Name:          "mrna decay",
			Rate:          m.G1,
			Reactants:     []int{linRNA},
			Stoichiometry: map[int]int{linRNA: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
		{
			Name:          "protein decay",
			Rate:          m.G2,
			Reactants:     []int{linProtein},
			Stoichiometry: map[int]int{linProtein: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
	}

	appendLinearFeedback(n, m.feedback, perturbed, linGene, linRNA, linProtein)

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// appendLinearFeedback adds protein-mediated decay reactions for each
// retained feedback pathway. When perturbed is true, pathways flagged as
// perturbed are omitted (the mutant network).
func appendLinearFeedback(n *network.Network, feedback []FeedbackPathway, perturbed bool, gene, rna, protein int) {
	for _, fb := range feedback {
		if perturbed && fb.Perturbed {
			continue
		}
		if fb.EtaGene > 0 && gene >= 0 {
			n.Reactions = append(n.Reactions, network.Reaction{
				Name:          "transcriptional feedback",
				Rate:          fb.EtaGene,
				Reactants:     []int{gene, protein},
				Stoichiometry: map[int]int{gene: -1},
				Sensitivity:   network.SensitivityMetabolic,
			})
		}
		if fb.EtaRNA > 0 {
			n.Reactions = append(n.Reactions, network.Reaction{
				Name:          "post-transcriptional feedback",
				Rate:          fb.EtaRNA,
				Reactants:     []int{rna, protein},
				Stoichiometry: map[int]int{rna: -1},
				Sensitivity:   network.SensitivityMetabolic,
			})
		}
		if fb.EtaProtein > 0 {
			n.Reactions = append(n.Reactions, network.Reaction{
				Name:          "post-translational feedback",
				Rate:          fb.EtaProtein,
				Reactants:     []int{protein, protein},
				Stoichiometry: map[int]int{protein: -1},
				Sensitivity:   network.SensitivityMetabolic,
			})
		}
	}
}
