package freqresp

import (
	"fmt"
	"math"
	"strings"
)

// Spacing selects how grid points are distributed between two frequencies.
type Spacing int

const (
	SpacingDecade Spacing = iota // equal ratios, log10 axis
	SpacingOctave                // equal ratios, log2 axis
	SpacingLinear                // equal differences
)

func (s Spacing) String() string {
	switch s {
	case SpacingDecade:
		return "dec"
	case SpacingOctave:
		return "oct"
	case SpacingLinear:
		return "lin"
	default:
		return fmt.Sprintf("Spacing(%d)", int(s))
	}
}

// ParseSpacing accepts "dec", "oct" and "lin" in any case.
func ParseSpacing(name string) (Spacing, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dec", "decade":
		return SpacingDecade, nil
	case "oct", "octave":
		return SpacingOctave, nil
	case "lin", "linear":
		return SpacingLinear, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSpacing, name)
	}
}

// DecadeGrid returns N = round((emax-emin)*stepsPerDecade)+1 frequencies
// spaced evenly in log10 between 10^emin and 10^emax Hz inclusive.
func DecadeGrid(emin, emax float64, stepsPerDecade int) ([]float64, error) {
	if stepsPerDecade <= 0 {
		return nil, fmt.Errorf("%w: %d steps per decade", ErrInvalidGrid, stepsPerDecade)
	}

	if !(emin < emax) || math.IsInf(emin, 0) || math.IsInf(emax, 0) {
		return nil, fmt.Errorf("%w: exponents [%g, %g]", ErrInvalidGrid, emin, emax)
	}

	n := max(int(math.Round((emax-emin)*float64(stepsPerDecade)))+1, 2)

	return logSpace(10, emin, emax, n), nil
}

// SpacedGrid returns n frequencies from fstart to fstop inclusive. Decade
// and octave spacing need fstart > 0.
func SpacedGrid(s Spacing, fstart, fstop float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: %d points", ErrInvalidGrid, n)
	}

	if !(fstart >= 0 && fstart < fstop) || math.IsInf(fstop, 0) {
		return nil, fmt.Errorf("%w: [%g, %g] Hz", ErrInvalidGrid, fstart, fstop)
	}

	switch s {
	case SpacingDecade, SpacingOctave:
		if fstart == 0 {
			return nil, fmt.Errorf("%w: %v spacing needs fstart > 0", ErrInvalidGrid, s)
		}

		if s == SpacingDecade {
			return logSpace(10, math.Log10(fstart), math.Log10(fstop), n), nil
		}

		return logSpace(2, math.Log2(fstart), math.Log2(fstop), n), nil

	case SpacingLinear:
		out := make([]float64, n)
		step := (fstop - fstart) / float64(n-1)

		for i := range out {
			out[i] = fstart + float64(i)*step
		}

		out[n-1] = fstop

		return out, nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownSpacing, s)
	}
}

func logSpace(base, e0, e1 float64, n int) []float64 {
	out := make([]float64, n)
	step := (e1 - e0) / float64(n-1)

	for i := range out {
		out[i] = math.Pow(base, e0+float64(i)*step)
	}

	out[n-1] = math.Pow(base, e1)

	return out
}
