// Package models builds gene-expression models and compiles them into
// reaction networks. A model is configured once (rate constants at
// construction, repressor feedback pathways appended afterwards) and then
// compiled into two networks: the intact cell and a mutant with all
// perturbation-flagged feedback pathways removed.
package models

import "github.com/gramlab/gram/internal/network"

// FeedbackPathway is one repressor pathway acting at up to three levels of
// gene expression. Strengths are stochastic rate constants for
// protein-mediated decay of gene activity, transcript, and protein.
type FeedbackPathway struct {
	EtaGene    float64 `yaml:"eta1"`
	EtaRNA     float64 `yaml:"eta2"`
	EtaProtein float64 `yaml:"eta3"`

	// Perturbed pathways are present in the intact cell but removed from
	// the mutant.
	Perturbed bool `yaml:"perturbed"`
}

// Model is a configured gene-expression model that can be compiled into
// intact and perturbed reaction networks.
type Model interface {
	// Name identifies the model family ("simple", "linear", ...).
	Name() string

	// Feedback returns the appended pathways in call order.
	Feedback() []FeedbackPathway

	// Compile builds the intact cell network and the mutant network with
	// perturbation-flagged pathways removed.
	Compile() (cell, mutant *network.Network, err error)
}
