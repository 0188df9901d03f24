// Package condition defines the metabolic regimes a simulation is run under.
// A condition rescales ATP-dependent and ribosome-dependent reaction rates
// by fixed multipliers and, for metabolism-sensitive pulses, stretches the
// input pulse.
package condition

import "fmt"

// Condition is a named simulation regime.
type Condition struct {
	Name        string
	DisplayName string

	// Metabolic multiplies ATP-dependent rates (degradation, deactivation,
	// repressor-mediated decay).
	Metabolic float64

	// Translational multiplies ribosome-dependent rates (translation).
	Translational float64
}

// The fixed default condition set, in run order.
const (
	Normal   = "normal"
	Diabetic = "diabetic"
	Minute   = "minute"
)

var registry = map[string]Condition{
	Normal:   {Name: Normal, DisplayName: "Normal", Metabolic: 1, Translational: 1},
	Diabetic: {Name: Diabetic, DisplayName: "Reduced Metabolism", Metabolic: 0.5, Translational: 0.5},
	Minute:   {Name: Minute, DisplayName: "Reduced Translation", Metabolic: 1, Translational: 0.5},
}

// Default returns the default condition set in run order.
func Default() []Condition {
	return []Condition{registry[Normal], registry[Diabetic], registry[Minute]}
}

// Lookup resolves a condition by name.
func Lookup(name string) (Condition, error) {
	c, ok := registry[name]
	if !ok {
		return Condition{}, fmt.Errorf("unknown condition %q", name)
	}
	return c, nil
}

// Resolve maps a list of condition names to conditions, preserving order.
// An empty list resolves to the default set.
func Resolve(names []string) ([]Condition, error) {
	if len(names) == 0 {
		return Default(), nil
	}
	out := make([]Condition, len(names))
	for i, name := range names {
		c, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
