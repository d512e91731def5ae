package spectrum

import (
	"errors"
	"fmt"
)

// ErrInvalidBand is returned for bands that are not 0 <= fmin < fmax.
var ErrInvalidBand = errors.New("spectrum: band must satisfy 0 <= fmin < fmax")

// ErrEmptyBand is returned when no bin falls inside the requested band.
var ErrEmptyBand = errors.New("spectrum: no bins inside band")

// Estimate is a set of one-sided PSDs on a shared frequency axis.
type Estimate struct {
	Freqs []float64   // Hz, ascending
	PSD   [][]float64 // PSD[trace][bin], units^2/Hz
}

// Band returns a copy restricted to fmin <= f < fmax.
func (e *Estimate) Band(fmin, fmax float64) (*Estimate, error) {
	if !(fmin >= 0 && fmin < fmax) {
		return nil, fmt.Errorf("%w: [%g, %g)", ErrInvalidBand, fmin, fmax)
	}

	lo, hi := BandIndices(e.Freqs, fmin, fmax)
	if lo == hi {
		return nil, fmt.Errorf("%w: [%g, %g)", ErrEmptyBand, fmin, fmax)
	}

	out := &Estimate{
		Freqs: append([]float64(nil), e.Freqs[lo:hi]...),
		PSD:   make([][]float64, len(e.PSD)),
	}

	for i, p := range e.PSD {
		out.PSD[i] = append([]float64(nil), p[lo:hi]...)
	}

	return out, nil
}

// BandIndices returns the half-open index range [lo, hi) of the ascending
// freqs that satisfy fmin <= f < fmax.
func BandIndices(freqs []float64, fmin, fmax float64) (lo, hi int) {
	lo = len(freqs)
	for i, f := range freqs {
		if f >= fmin {
			lo = i
			break
		}
	}

	hi = lo
	for hi < len(freqs) && freqs[hi] < fmax {
		hi++
	}

	return lo, hi
}
