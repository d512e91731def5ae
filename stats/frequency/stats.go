// Package frequency describes the shape of a power spectrum sampled on an
// explicit, ascending frequency axis.
//
// The axis need not be uniform, so the same descriptors apply to Welch band
// estimates and to logarithmic transfer-function grids. NaN bins (failed
// frequencies) are ignored throughout.
package frequency

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by Describe.
var (
	ErrLength    = errors.New("frequency: frequency and power lengths differ")
	ErrNoBins    = errors.New("frequency: no finite bins")
	ErrUnordered = errors.New("frequency: frequencies must be strictly ascending")
)

// RolloffFraction is the power fraction used for Stats.Rolloff.
const RolloffFraction = 0.85

// Stats holds descriptors of a power spectrum.
type Stats struct {
	Bins     int // finite bins used
	Peak     float64
	PeakFreq float64 // Hz
	Min      float64
	MinFreq  float64
	Peak_dB  float64 // 10*log10(Peak)
	Range_dB float64 // 10*log10(Peak/Min)

	// Power is the trapezoidal integral of the spectrum over the axis. For a
	// one-sided PSD it is the variance contributed by the band.
	Power float64

	Centroid  float64 // Hz, power weighted
	Spread    float64 // Hz, power weighted
	Flatness  float64 // geometric over arithmetic mean, 0..1
	Rolloff   float64 // Hz below which RolloffFraction of Power lies
	Bandwidth float64 // Hz between the half-power points around the peak
}

// toDB converts a linear power to decibels.
// Returns -Inf for zero values.
func toDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(v)
}

// Describe computes Stats from power values p sampled at freqs.
func Describe(freqs, p []float64) (Stats, error) {
	if len(freqs) != len(p) {
		return Stats{}, fmt.Errorf("%w: %d != %d", ErrLength, len(freqs), len(p))
	}

	for i := 1; i < len(freqs); i++ {
		if !(freqs[i] > freqs[i-1]) {
			return Stats{}, fmt.Errorf("%w: f[%d]=%g after %g", ErrUnordered, i, freqs[i], freqs[i-1])
		}
	}

	f, v := finite(freqs, p)
	if len(v) == 0 {
		return Stats{}, ErrNoBins
	}

	var s Stats
	s.Bins = len(v)
	s.Peak, s.Min = v[0], v[0]
	s.PeakFreq, s.MinFreq = f[0], f[0]

	for i, x := range v {
		if x > s.Peak {
			s.Peak, s.PeakFreq = x, f[i]
		}

		if x < s.Min {
			s.Min, s.MinFreq = x, f[i]
		}
	}

	s.Peak_dB = toDB(s.Peak)
	s.Range_dB = s.Peak_dB - toDB(s.Min)

	cum := cumulative(f, v)
	s.Power = cum[len(cum)-1]

	s.Centroid = Centroid(f, v)
	s.Spread = spread(f, v, s.Centroid)
	s.Flatness = Flatness(v)
	s.Rolloff = rolloff(f, cum, RolloffFraction)
	s.Bandwidth = Bandwidth(f, v)

	return s, nil
}

// finite drops NaN and infinite bins.
func finite(freqs, p []float64) (f, v []float64) {
	f = make([]float64, 0, len(p))
	v = make([]float64, 0, len(p))

	for i, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}

		f = append(f, freqs[i])
		v = append(v, x)
	}

	return f, v
}

// cumulative returns the running trapezoidal integral, cum[0] = 0.
func cumulative(f, v []float64) []float64 {
	cum := make([]float64, len(v))
	for i := 1; i < len(v); i++ {
		cum[i] = cum[i-1] + 0.5*(v[i]+v[i-1])*(f[i]-f[i-1])
	}

	return cum
}

// Centroid returns the power-weighted mean frequency.
//
//	centroid = sum(f_i * p_i) / sum(p_i)
func Centroid(f, v []float64) float64 {
	sum, weighted := 0.0, 0.0
	for i, x := range v {
		sum += x
		weighted += f[i] * x
	}

	if sum == 0 {
		return 0
	}

	return weighted / sum
}

func spread(f, v []float64, cent float64) float64 {
	sum, weighted := 0.0, 0.0
	for i, x := range v {
		d := f[i] - cent
		sum += x
		weighted += d * d * x
	}

	if sum == 0 {
		return 0
	}

	return math.Sqrt(weighted / sum)
}

// Flatness returns exp(mean(log p)) / mean(p). A flat spectrum gives 1, any
// zero bin gives 0.
func Flatness(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}

	sumLin, sumLog := 0.0, 0.0
	for _, x := range v {
		if x <= 0 {
			return 0
		}

		sumLin += x
		sumLog += math.Log(x)
	}

	n := float64(len(v))

	return math.Exp(sumLog/n) / (sumLin / n)
}

func rolloff(f, cum []float64, fraction float64) float64 {
	total := cum[len(cum)-1]
	if total <= 0 {
		return f[0]
	}

	threshold := fraction * total
	for i := 1; i < len(cum); i++ {
		if cum[i] >= threshold {
			return interp(f[i-1], f[i], cum[i-1], cum[i], threshold)
		}
	}

	return f[len(f)-1]
}

// Bandwidth returns the width between the half-power (-3 dB) points around
// the peak, interpolated linearly between bins. A side without a crossing
// extends to the axis end.
func Bandwidth(f, v []float64) float64 {
	if len(v) < 2 {
		return 0
	}

	peak := 0
	for i, x := range v {
		if x > v[peak] {
			peak = i
		}
	}

	if v[peak] <= 0 {
		return 0
	}

	threshold := v[peak] / 2

	lower := f[0]
	for i := peak; i >= 1; i-- {
		if v[i-1] <= threshold {
			lower = interp(f[i-1], f[i], v[i-1], v[i], threshold)
			break
		}
	}

	upper := f[len(f)-1]
	for i := peak; i < len(v)-1; i++ {
		if v[i+1] <= threshold {
			upper = interp(f[i], f[i+1], v[i], v[i+1], threshold)
			break
		}
	}

	return upper - lower
}

// interp returns the frequency between fLow and fHigh where the value
// crosses threshold.
func interp(fLow, fHigh, vLow, vHigh, threshold float64) float64 {
	d := vHigh - vLow
	if d == 0 {
		return (fLow + fHigh) / 2
	}

	return fLow + (threshold-vLow)/d*(fHigh-fLow)
}
