package models

import (
	"testing"
)

func TestLinearModelFeedbackOrder(t *testing.T) {
	m := NewLinearModel(0.01, 0.001)

	triples := []struct {
		eta1, eta2, eta3 float64
		perturbed        bool
	}{
		{5e-4, 1e-4, 5e-4, true},
		{5e-4, 1e-4, 5e-4, true},
		{1e-5, 2e-5, 3e-5, false},
	}
	for _, tr := range triples {
		m.AddFeedback(tr.eta1, tr.eta2, tr.eta3, tr.perturbed)
	}

	fb := m.Feedback()
	if len(fb) != len(triples) {
		t.Fatalf("got %d pathways, want %d", len(fb), len(triples))
	}
	for i, tr := range triples {
		got := fb[i]
		if got.EtaGene != tr.eta1 || got.EtaRNA != tr.eta2 || got.EtaProtein != tr.eta3 {
			t.Errorf("pathway %d = %+v, want (%g, %g, %g)", i, got, tr.eta1, tr.eta2, tr.eta3)
		}
		if got.Perturbed != tr.perturbed {
			t.Errorf("pathway %d perturbed = %v, want %v", i, got.Perturbed, tr.perturbed)
		}
	}
}

func TestLinearModelCompile(t *testing.T) {
	m := NewLinearModel(0.01, 0.001)
	m.AddFeedback(5e-4, 1e-4, 5e-4, true)
	m.AddFeedback(5e-4, 1e-4, 5e-4, false)

	cell, mutant, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// Base network has 6 reactions; each retained pathway adds 3.
	if got := len(cell.Reactions); got != 12 {
		t.Errorf("cell has %d reactions, want 12", got)
	}
	// The mutant keeps only the unperturbed pathway.
	if got := len(mutant.Reactions); got != 9 {
		t.Errorf("mutant has %d reactions, want 9", got)
	}

	if cell.Output != linProtein {
		t.Errorf("output channel = %d, want %d", cell.Output, linProtein)
	}
	if len(cell.Species) != 3 {
		t.Errorf("cell has %d species, want 3", len(cell.Species))
	}
}

func TestLinearModelZeroStrengthSkipped(t *testing.T) {
	m := NewLinearModel(0.01, 0.001)
	m.AddFeedback(0, 1e-4, 0, true)

	cell, _, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// Only the transcript-level reaction should have been appended.
	if got := len(cell.Reactions); got != 7 {
		t.Errorf("cell has %d reactions, want 7", got)
	}
}

func TestSimpleModelCompile(t *testing.T) {
	m := NewSimpleModel(1.0, 1e-3)
	m.AddFeedback(1e-3, true)

	cell, mutant, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := len(cell.Reactions); got != 3 {
		t.Errorf("cell has %d reactions, want 3", got)
	}
	if got := len(mutant.Reactions); got != 2 {
		t.Errorf("mutant has %d reactions, want 2", got)
	}
	if len(cell.Species) != 1 || cell.Output != 0 {
		t.Errorf("unexpected species/output: %v, %d", cell.Species, cell.Output)
	}
}

func TestTwoStateModelCompile(t *testing.T) {
	m := NewTwoStateModel(1, 1, 1, 0.1, 0.01, 0.001)
	m.AddFeedback(5e-4, 1e-4, 5e-4, true)

	cell, mutant, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// Gene copies start in the off state.
	if cell.InitialState[tsGeneOff] != tsGeneCopies {
		t.Errorf("initial off copies = %d, want %d", cell.InitialState[tsGeneOff], tsGeneCopies)
	}

	// Base network has 6 reactions; the pathway adds gene, rna, and
	// protein terms.
	if got := len(cell.Reactions); got != 9 {
		t.Errorf("cell has %d reactions, want 9", got)
	}
	if got := len(mutant.Reactions); got != 6 {
		t.Errorf("mutant has %d reactions, want 6", got)
	}

	// Transcriptional feedback conserves gene copy number.
	for _, r := range cell.Reactions {
		if r.Name != "transcriptional feedback" {
			continue
		}
		if r.Stoichiometry[tsGeneOn] != -1 || r.Stoichiometry[tsGeneOff] != 1 {
			t.Errorf("transcriptional feedback stoichiometry = %v", r.Stoichiometry)
		}
	}
}

func TestHillModelCompile(t *testing.T) {
	m := NewHillModel(1, 1, 0.01, 0.001)
	m.AddFeedback(100, 2, 1e-5, 1e-4, true)

	cell, mutant, err := m.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// Intact transcription is Hill-repressed by the protein.
	if cell.Reactions[0].Hill == nil {
		t.Fatal("cell transcription is not Hill-repressed")
	}
	if cell.Reactions[0].Hill.Species != hillProtein || !cell.Reactions[0].Hill.Repressive {
		t.Errorf("unexpected hill term: %+v", cell.Reactions[0].Hill)
	}

	// The mutant loses the repression along with the decay terms.
	if mutant.Reactions[0].Hill != nil {
		t.Error("mutant transcription still Hill-repressed")
	}
	if got := len(mutant.Reactions); got != 4 {
		t.Errorf("mutant has %d reactions, want 4", got)
	}
}
