package result

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-smallsignal/dsp/core"
	"github.com/cwbudde/algo-smallsignal/dsp/spectrum"
	"github.com/cwbudde/algo-smallsignal/stats/frequency"
)

// Compact is a bundle summed over its inputs.
type Compact struct {
	Freqs    []float64
	VarNames []string
	Power    [][]float64 // Power[variable][bin]
}

// SumOverInputs adds the output power of every input per variable and bin.
// Failed bins stay NaN.
func (b *Bundle) SumOverInputs() *Compact {
	nin, nf, nv := b.Shape[0], b.Shape[1], b.Shape[2]

	out := &Compact{
		Freqs:    append([]float64(nil), b.Freqs...),
		VarNames: append([]string(nil), b.VarNames...),
		Power:    make([][]float64, nv),
	}

	for v := range nv {
		out.Power[v] = make([]float64, nf)
	}

	for k := range nin {
		for i := range nf {
			for v := range nv {
				out.Power[v][i] += b.PowerAt(k, i, v)
			}
		}
	}

	return out
}

// Describe returns spectrum descriptors of variable v: peak, band power,
// centroid and half-power bandwidth. Failed bins are ignored.
func (c *Compact) Describe(v int) (frequency.Stats, error) {
	if v < 0 || v >= len(c.Power) {
		return frequency.Stats{}, fmt.Errorf("%w: variable %d of %d", ErrShape, v, len(c.Power))
	}

	return frequency.Describe(c.Freqs, c.Power[v])
}

// PowerDB returns 10*log10 of the output power of every entry, in the
// bundle's (input, bin, variable) layout.
func (b *Bundle) PowerDB() []float64 {
	nin, nf, nv := b.Shape[0], b.Shape[1], b.Shape[2]
	out := make([]float64, nin*nf*nv)

	for k := range nin {
		for i := range nf {
			off := b.offset(k, i)
			for v := range nv {
				out[off+v] = core.LinearPowerToDB(b.PowerAt(k, i, v))
			}
		}
	}

	return out
}

// MagnitudeDB returns 20*log10|H| of every entry of a transfer bundle.
func (b *Bundle) MagnitudeDB() ([]float64, error) {
	if !b.Transfer() {
		return nil, fmt.Errorf("%w: magnitude of a %s bundle", ErrModeMismatch, b.Mode)
	}

	out := make([]float64, len(b.Real))
	for n := range out {
		out[n] = core.LinearToDB(math.Hypot(b.Real[n], b.Imag[n]))
	}

	return out, nil
}

// Phase returns the unwrapped phase in radians of input k and variable v
// over the frequency axis of a transfer bundle.
func (b *Bundle) Phase(k, v int) ([]float64, error) {
	if !b.Transfer() {
		return nil, fmt.Errorf("%w: phase of a %s bundle", ErrModeMismatch, b.Mode)
	}

	col := make([]complex128, b.Shape[1])
	for i := range col {
		col[i] = b.At(k, i, v)
	}

	return spectrum.UnwrapPhase(spectrum.Phase(col)), nil
}
