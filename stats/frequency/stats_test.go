package frequency

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// lorentzian returns 1/(1+((f-f0)/g)^2), whose half-power width is 2g.
func lorentzian(freqs []float64, f0, g float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		x := (f - f0) / g
		out[i] = 1 / (1 + x*x)
	}

	return out
}

func axis(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}

	return out
}

func TestDescribeFlatSpectrum(t *testing.T) {
	f := axis(0.01, 0.01, 100)
	p := make([]float64, len(f))
	for i := range p {
		p[i] = 2
	}

	s, err := Describe(f, p)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	if s.Bins != 100 || s.Range_dB != 0 {
		t.Fatalf("stats = %+v", s)
	}

	if !almostEqual(s.Flatness, 1, tolerance) {
		t.Fatalf("flatness = %v, want 1", s.Flatness)
	}

	// 2 * (1.00 - 0.01)
	if !almostEqual(s.Power, 1.98, tolerance) {
		t.Fatalf("power = %v, want 1.98", s.Power)
	}

	if !almostEqual(s.Centroid, 0.505, tolerance) {
		t.Fatalf("centroid = %v, want 0.505", s.Centroid)
	}

	// 85 % of a uniform integral over [0.01, 1].
	if want := 0.01 + 0.85*0.99; !almostEqual(s.Rolloff, want, 1e-9) {
		t.Fatalf("rolloff = %v, want %v", s.Rolloff, want)
	}

	// No half-power crossing: the whole axis.
	if !almostEqual(s.Bandwidth, 0.99, tolerance) {
		t.Fatalf("bandwidth = %v, want 0.99", s.Bandwidth)
	}
}

func TestDescribeResonance(t *testing.T) {
	f := axis(0, 0.001, 2001)
	p := lorentzian(f, 0.8, 0.05)

	s, err := Describe(f, p)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	if !almostEqual(s.PeakFreq, 0.8, 1e-12) || s.Peak != 1 || s.Peak_dB != 0 {
		t.Fatalf("peak = %v at %v", s.Peak, s.PeakFreq)
	}

	if !almostEqual(s.Bandwidth, 0.1, 1e-4) {
		t.Fatalf("bandwidth = %v, want 0.1", s.Bandwidth)
	}

	if !almostEqual(s.Centroid, 0.8, 0.05) {
		t.Fatalf("centroid = %v, want near 0.8", s.Centroid)
	}

	if s.Flatness <= 0 || s.Flatness >= 0.5 {
		t.Fatalf("flatness = %v, want a peaky spectrum", s.Flatness)
	}
}

func TestDescribeLogAxis(t *testing.T) {
	f := []float64{0.01, 0.1, 1, 10}
	p := []float64{1, 1, 0, 0}

	s, err := Describe(f, p)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	// Trapezoids on a non-uniform axis: 0.09 + 0.45.
	if !almostEqual(s.Power, 0.54, tolerance) {
		t.Fatalf("power = %v, want 0.54", s.Power)
	}

	if s.Flatness != 0 {
		t.Fatalf("flatness = %v, want 0 with zero bins", s.Flatness)
	}

	if !math.IsInf(s.Range_dB, 1) {
		t.Fatalf("range = %v, want +Inf", s.Range_dB)
	}
}

func TestDescribeSkipsFailedBins(t *testing.T) {
	f := []float64{1, 2, 3, 4}
	p := []float64{1, math.NaN(), 3, 1}

	s, err := Describe(f, p)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	if s.Bins != 3 || s.PeakFreq != 3 {
		t.Fatalf("stats = %+v", s)
	}

	// 0.5*(1+3)*2 + 0.5*(3+1)*1
	if !almostEqual(s.Power, 6, tolerance) {
		t.Fatalf("power = %v, want 6", s.Power)
	}
}

func TestDescribeErrors(t *testing.T) {
	tests := []struct {
		name string
		f, p []float64
		want error
	}{
		{"length", []float64{1, 2}, []float64{1}, ErrLength},
		{"order", []float64{1, 1}, []float64{1, 1}, ErrUnordered},
		{"all failed", []float64{1, 2}, []float64{math.NaN(), math.NaN()}, ErrNoBins},
		{"empty", nil, nil, ErrNoBins},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Describe(tt.f, tt.p); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
