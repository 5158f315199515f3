package visualizer

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Engine computes the magnitude spectrum of a real-valued window. The result
// has one non-negative entry per input sample. Implementations must be safe
// for concurrent use.
type Engine interface {
	Magnitudes(window []float64) []float64
}

// Engine names accepted by NewEngine.
const (
	EngineDSP   = "dsp"
	EngineGonum = "gonum"
)

// NewEngine returns the FFT engine registered under name.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", EngineDSP:
		return DSPEngine{}, nil
	case EngineGonum:
		return GonumEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown FFT engine %q", name)
	}
}

// DSPEngine uses go-dsp, which handles any length (Bluestein for non powers
// of two) and spreads radix-2 work over its own goroutine pool.
type DSPEngine struct{}

func (DSPEngine) Magnitudes(window []float64) []float64 {
	if out, ok := degenerate(window); ok {
		return out
	}
	coeffs := fft.FFTReal(window)
	out := make([]float64, len(coeffs))
	for k, c := range coeffs {
		out[k] = cmplx.Abs(c)
	}
	return out
}

// GonumEngine uses gonum's real FFT, which yields only the n/2+1
// non-redundant coefficients. The upper half is mirrored from conjugate
// symmetry.
type GonumEngine struct{}

func (GonumEngine) Magnitudes(window []float64) []float64 {
	if out, ok := degenerate(window); ok {
		return out
	}
	n := len(window)
	coeffs := fourier.NewFFT(n).Coefficients(nil, window)
	out := make([]float64, n)
	for k, c := range coeffs {
		out[k] = cmplx.Abs(c)
	}
	for k := len(coeffs); k < n; k++ {
		out[k] = out[n-k]
	}
	return out
}

// degenerate handles windows too short to transform.
func degenerate(window []float64) ([]float64, bool) {
	switch len(window) {
	case 0:
		return []float64{}, true
	case 1:
		return []float64{math.Abs(window[0])}, true
	}
	return nil, false
}
