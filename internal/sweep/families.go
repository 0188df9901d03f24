package sweep

import (
	"fmt"

	"github.com/gramlab/gram/internal/models"
)

func checkArity(params []float64, want int) error {
	if len(params) != want {
		return fmt.Errorf("expected %d parameters, got %d", want, len(params))
	}
	return nil
}

// NewSimpleSweep sweeps the one-stage model: synthesis rate, decay rate,
// and feedback strength.
func NewSimpleSweep(num int) (*Sweep, error) {
	base := []float64{0, -3, -3}
	labels := []string{"k", "gamma", "eta"}
	return New("simple", base, DefaultDelta, DefaultPad, num, labels, func(p []float64) (models.Model, error) {
		if err := checkArity(p, 3); err != nil {
			return nil, err
		}
		m := models.NewSimpleModel(p[0], p[1])
		m.AddFeedback(p[2], true)
		return m, nil
	})
}

// NewLinearSweep sweeps the three-stage linear model: activation,
// transcription, translation, and deactivation rates, the two decay rates,
// and three feedback strengths.
func NewLinearSweep(num int) (*Sweep, error) {
	base := []float64{0, 0, 0, 0, -2, -3, -4, -4, -4}
	labels := []string{"k_0", "k_1", "k_2", "gamma_0", "gamma_1", "gamma_2", "eta_0", "eta_1", "eta_2"}
	return New("linear", base, DefaultDelta, DefaultPad, num, labels, func(p []float64) (models.Model, error) {
		if err := checkArity(p, 9); err != nil {
			return nil, err
		}
		m := &models.LinearModel{K0: p[0], K1: p[1], K2: p[2], G0: p[3], G1: p[4], G2: p[5]}
		m.AddFeedback(p[6], p[7], p[8], false)
		m.AddFeedback(p[6], p[7], p[8], true)
		return m, nil
	})
}

// NewHillSweep sweeps the two-stage Hill model: transcription and
// translation rates, two decay rates, the repressor Michaelis constant and
// Hill coefficient, and two feedback strengths.
func NewHillSweep(num int) (*Sweep, error) {
	base := []float64{0, 0, -2, -3, 4, 0, -5, -4}
	labels := []string{"k_R", "k_P", "gamma_R", "gamma_P", "K_r", "H_r", "eta_R", "eta_P"}
	return New("hill", base, DefaultDelta, DefaultPad, num, labels, func(p []float64) (models.Model, error) {
		if err := checkArity(p, 8); err != nil {
			return nil, err
		}
		m := models.NewHillModel(p[0], p[1], p[2], p[3])
		m.AddFeedback(p[4], p[5], p[6], p[7], false)
		m.AddFeedback(p[4], p[5], p[6], p[7], true)
		return m, nil
	})
}

// NewTwoStateSweep sweeps the two-state promoter model with the same rate
// structure as the linear sweep.
func NewTwoStateSweep(num int) (*Sweep, error) {
	base := []float64{0, 0, 0, -1, -2, -3, -4, -4.5, -4}
	labels := []string{"k_G", "k_R", "k_P", "gamma_G", "gamma_R", "gamma_P", "eta_G", "eta_R", "eta_P"}
	return New("twostate", base, DefaultDelta, DefaultPad, num, labels, func(p []float64) (models.Model, error) {
		if err := checkArity(p, 9); err != nil {
			return nil, err
		}
		m := models.NewTwoStateModel(p[0], p[1], p[2], p[3], p[4], p[5])
		m.AddFeedback(p[6], p[7], p[8], false)
		m.AddFeedback(p[6], p[7], p[8], true)
		return m, nil
	})
}

// ByName returns the sweep of the named model family.
func ByName(name string, num int) (*Sweep, error) {
	switch name {
	case "simple":
		return NewSimpleSweep(num)
	case "linear":
		return NewLinearSweep(num)
	case "hill":
		return NewHillSweep(num)
	case "twostate":
		return NewTwoStateSweep(num)
	default:
		return nil, fmt.Errorf("unknown model family %q", name)
	}
}
