package spectrum

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"
)

// periodogram computes |DFT(seg)|^2 over the non-negative bins of a fixed
// length real segment. It prefers an algo-fft plan and falls back to the
// gonum mixed-radix transform for lengths the plan constructor rejects.
// A periodogram is not safe for concurrent use.
type periodogram struct {
	n    int
	plan *algofft.Plan[complex128]
	fft  *fourier.FFT

	in, out []complex128
	re, im  []float64
}

func newPeriodogram(n int) *periodogram {
	bins := n/2 + 1
	p := &periodogram{
		n:  n,
		re: make([]float64, bins),
		im: make([]float64, bins),
	}

	plan, err := algofft.NewPlan64(n)
	if err == nil {
		p.plan = plan
		p.in = make([]complex128, n)
		p.out = make([]complex128, n)

		return p
	}

	p.fft = fourier.NewFFT(n)
	p.out = make([]complex128, bins)

	return p
}

// power writes |X[k]|^2 for k = 0..n/2 into dst.
func (p *periodogram) power(dst, seg []float64) error {
	var bins []complex128

	if p.plan != nil {
		for i, v := range seg {
			p.in[i] = complex(v, 0)
		}

		if err := p.plan.Forward(p.out, p.in); err != nil {
			return fmt.Errorf("spectrum: forward FFT failed: %w", err)
		}

		bins = p.out[:len(dst)]
	} else {
		bins = p.fft.Coefficients(p.out, seg)
	}

	for k, c := range bins {
		p.re[k] = real(c)
		p.im[k] = imag(c)
	}

	vecmath.Power(dst, p.re, p.im)

	return nil
}
