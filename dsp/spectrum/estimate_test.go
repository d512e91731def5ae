package spectrum

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-smallsignal/internal/testutil"
)

func TestBandIsHalfOpen(t *testing.T) {
	e := &Estimate{
		Freqs: []float64{0, 0.1, 0.2, 0.3, 0.4},
		PSD:   [][]float64{{1, 2, 3, 4, 5}, {5, 4, 3, 2, 1}},
	}

	b, err := e.Band(0.1, 0.3)
	if err != nil {
		t.Fatalf("Band: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, b.Freqs, []float64{0.1, 0.2}, 0)
	testutil.RequireSliceNearlyEqual(t, b.PSD[0], []float64{2, 3}, 0)
	testutil.RequireSliceNearlyEqual(t, b.PSD[1], []float64{4, 3}, 0)

	// The band is a copy.
	b.PSD[0][0] = -1
	if e.PSD[0][1] != 2 {
		t.Fatal("Band aliases the source estimate")
	}
}

func TestBandErrors(t *testing.T) {
	e := &Estimate{Freqs: []float64{0, 1, 2}, PSD: [][]float64{{1, 1, 1}}}

	if _, err := e.Band(1, 1); !errors.Is(err, ErrInvalidBand) {
		t.Fatalf("err = %v, want ErrInvalidBand", err)
	}

	if _, err := e.Band(1.2, 1.8); !errors.Is(err, ErrEmptyBand) {
		t.Fatalf("err = %v, want ErrEmptyBand", err)
	}
}

func TestBandIndices(t *testing.T) {
	freqs := []float64{0, 1, 2, 3}

	tests := []struct {
		fmin, fmax float64
		lo, hi     int
	}{
		{0, 10, 0, 4},
		{1, 3, 1, 3},
		{0.5, 0.7, 1, 1},
		{5, 6, 4, 4},
	}

	for _, tt := range tests {
		lo, hi := BandIndices(freqs, tt.fmin, tt.fmax)
		if lo != tt.lo || hi != tt.hi {
			t.Fatalf("BandIndices(%g,%g) = %d,%d want %d,%d", tt.fmin, tt.fmax, lo, hi, tt.lo, tt.hi)
		}
	}
}
