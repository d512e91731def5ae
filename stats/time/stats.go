// Package time computes time-domain diagnostics of sampled traces, used to
// check that synthesised noise matches its target statistics.
package time

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLag is returned when an autocorrelation lag is out of range.
var ErrInvalidLag = errors.New("time: lag out of range")

// Stats holds single-pass statistics of a trace.
type Stats struct {
	Length   int
	Mean     float64
	Variance float64 // population variance
	StdDev   float64
	RMS      float64
	Min      float64
	Max      float64
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for the variance.
func Calculate(signal []float64) Stats {
	n := len(signal)
	if n == 0 {
		return Stats{}
	}

	var (
		mean, m2 float64
		sumSq    float64
		minVal   = signal[0]
		maxVal   = signal[0]
	)

	for i, x := range signal {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)

		sumSq += x * x

		if x > maxVal {
			maxVal = x
		}

		if x < minVal {
			minVal = x
		}
	}

	nf := float64(n)
	variance := m2 / nf

	return Stats{
		Length:   n,
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		RMS:      math.Sqrt(sumSq / nf),
		Min:      minVal,
		Max:      maxVal,
	}
}

// Autocorrelation returns the normalised autocorrelation of signal at lags
// 0..maxLag (in samples), using the biased estimator
//
//	r[k] = sum((x[i]-m)*(x[i+k]-m)) / sum((x[i]-m)^2)
//
// so r[0] = 1. A constant signal yields all zeros after lag 0.
func Autocorrelation(signal []float64, maxLag int) ([]float64, error) {
	if maxLag < 0 || maxLag >= len(signal) {
		return nil, fmt.Errorf("%w: %d for length %d", ErrInvalidLag, maxLag, len(signal))
	}

	mean := Calculate(signal).Mean

	den := 0.0
	for _, x := range signal {
		d := x - mean
		den += d * d
	}

	out := make([]float64, maxLag+1)
	out[0] = 1

	if den == 0 {
		return out, nil
	}

	for k := 1; k <= maxLag; k++ {
		num := 0.0
		for i := 0; i+k < len(signal); i++ {
			num += (signal[i] - mean) * (signal[i+k] - mean)
		}

		out[k] = num / den
	}

	return out, nil
}
