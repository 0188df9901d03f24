package sweep

import (
	"fmt"
	"math"
)

// haltonPrimes are the per-dimension bases of the Halton sequence. Sweeps
// are limited to this many dimensions.
var haltonPrimes = []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}

// radicalInverse returns the base-b radical inverse of i, the i-th element
// of the one-dimensional van der Corput sequence.
func radicalInverse(i, b int) float64 {
	f := 1.0
	r := 0.0
	for i > 0 {
		f /= float64(b)
		r += f * float64(i%b)
		i /= b
	}
	return r
}

// haltonPoint fills u with the i-th point of the Halton sequence on the
// unit hypercube. The index is offset by one so the first point is not the
// origin.
func haltonPoint(i int, u []float64) {
	for d := range u {
		u[d] = radicalInverse(i+1, haltonPrimes[d])
	}
}

// LogSampler draws low-discrepancy samples whose logarithms are spread
// uniformly between per-dimension bounds.
type LogSampler struct {
	Low  []float64 // lower bounds, in log units
	High []float64 // upper bounds, in log units
	Base float64   // logarithm base
}

// NewLogSampler constructs a sampler over [low, high] in log units.
func NewLogSampler(low, high []float64, base float64) (*LogSampler, error) {
	if len(low) != len(high) {
		return nil, fmt.Errorf("sampler bounds have mismatched dimensions: %d vs %d", len(low), len(high))
	}
	if len(low) == 0 {
		return nil, fmt.Errorf("sampler requires at least one dimension")
	}
	if len(low) > len(haltonPrimes) {
		return nil, fmt.Errorf("sampler limited to %d dimensions, got %d", len(haltonPrimes), len(low))
	}
	for d := range low {
		if low[d] > high[d] {
			return nil, fmt.Errorf("dimension %d: lower bound %v exceeds upper bound %v", d, low[d], high[d])
		}
	}
	if base <= 0 || base == 1 {
		return nil, fmt.Errorf("invalid logarithm base %v", base)
	}
	return &LogSampler{Low: low, High: high, Base: base}, nil
}

// Sample returns n parameter vectors in linear units.
func (s *LogSampler) Sample(n int) [][]float64 {
	dims := len(s.Low)
	out := make([][]float64, n)
	u := make([]float64, dims)
	for i := 0; i < n; i++ {
		haltonPoint(i, u)
		p := make([]float64, dims)
		for d := 0; d < dims; d++ {
			exponent := s.Low[d] + u[d]*(s.High[d]-s.Low[d])
			p[d] = math.Pow(s.Base, exponent)
		}
		out[i] = p
	}
	return out
}
