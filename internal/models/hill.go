package models

import "github.com/gramlab/gram/internal/network"

// Species indices for the Hill model networks.
const (
	hillRNA = iota
	hillProtein
)

// HillFeedback is a repressor pathway for the Hill model: transcription is
// repressed through a Hill function of the protein level, and transcript and
// protein gain protein-dependent decay terms.
type HillFeedback struct {
	KM        float64 // repressor Michaelis constant
	N         float64 // repressor Hill coefficient
	EtaRNA    float64
	EtaP      float64
	Perturbed bool
}

// HillModel is a two-stage model in which the input pulse drives
// transcription directly and repressor feedback acts on transcription
// through Hill kinetics.
type HillModel struct {
	K1 float64 // transcription rate constant
	K2 float64 // translation rate constant
	G1 float64 // mRNA decay rate constant
	G2 float64 // protein decay rate constant

	feedback []HillFeedback
}

// NewHillModel constructs a Hill model with the given rate constants.
func NewHillModel(k1, k2, g1, g2 float64) *HillModel {
	return &HillModel{K1: k1, K2: k2, G1: g1, G2: g2}
}

// AddFeedback appends one repressor pathway. km and n parameterize the Hill
// repression of transcription; eta1 and eta2 are transcript- and
// protein-level decay strengths.
func (m *HillModel) AddFeedback(km, n, eta1, eta2 float64, perturbed bool) {
	m.feedback = append(m.feedback, HillFeedback{
		KM:        km,
		N:         n,
		EtaRNA:    eta1,
		EtaP:      eta2,
		Perturbed: perturbed,
	})
}

// Name implements Model.
func (m *HillModel) Name() string { return "hill" }

// Feedback implements Model. Hill pathways are reported with their linear
// strengths; the Hill repression itself has no linear equivalent.
func (m *HillModel) Feedback() []FeedbackPathway {
	out := make([]FeedbackPathway, len(m.feedback))
	for i, fb := range m.feedback {
		out[i] = FeedbackPathway{EtaRNA: fb.EtaRNA, EtaProtein: fb.EtaP, Perturbed: fb.Perturbed}
	}
	return out
}

// Compile implements Model.
func (m *HillModel) Compile() (*network.Network, *network.Network, error) {
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

func (m *HillModel) compile(perturbed bool) (*network.Network, error) {
	n := &network.Network{
		Species:      []string{"mrna", "protein"},
		InitialState: []int{0, 0},
		Output:       hillProtein,
	}

	transcription := network.Reaction{
		Name:          "transcription",
		Rate:          m.K1,
		Stoichiometry: map[int]int{hillRNA: 1},
		InputDriven:   true,
	}

	// The first retained pathway gates transcription through Hill
	// repression by the protein.
	for _, fb := range m.feedback {
		if perturbed && fb.Perturbed {
			continue
		}
		if fb.KM > 0 && fb.N > 0 {
			transcription.Hill = &network.Hill{
				Species:    hillProtein,
				K:          fb.KM,
				N:          fb.N,
				Repressive: true,
			}
			break
		}
	}

	n.Reactions = []network.Reaction{
		transcription,
		{
			Name:          "translation",
			Rate:          m.K2,
			Reactants:     []int{hillRNA},
			Stoichiometry: map[int]int{hillProtein: 1},
			Sensitivity:   network.SensitivityTranslational,
		},
		{
			Name:          "mrna decay",
			Rate:          m.G1,
			Reactants:     []int{hillRNA},
			Stoichiometry: map[int]int{hillRNA: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
		{
			Name:          "protein decay",
			Rate:          m.G2,
			Reactants:     []int{hillProtein},
			Stoichiometry: map[int]int{hillProtein: -1},
			Sensitivity:   network.SensitivityMetabolic,
		},
	}

	appendLinearFeedback(n, m.Feedback(), perturbed, -1, hillRNA, hillProtein)

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}
