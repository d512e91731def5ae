package freqresp

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-smallsignal/internal/testutil"
)

func TestDecadeGrid(t *testing.T) {
	f, err := DecadeGrid(-2, 0, 100)
	if err != nil {
		t.Fatalf("DecadeGrid: %v", err)
	}

	if len(f) != 201 {
		t.Fatalf("len = %d, want 201", len(f))
	}

	if math.Abs(f[0]-0.01) > 1e-15 || f[200] != 1 {
		t.Fatalf("endpoints %v, %v", f[0], f[200])
	}

	if math.Abs(f[100]-0.1) > 1e-15 {
		t.Fatalf("midpoint %v, want 0.1", f[100])
	}

	ratio := f[1] / f[0]
	for i := 2; i < len(f); i++ {
		if math.Abs(f[i]/f[i-1]-ratio) > 1e-12 {
			t.Fatalf("ratio at %d = %v, want %v", i, f[i]/f[i-1], ratio)
		}
	}
}

func TestSpacedGrid(t *testing.T) {
	oct, err := SpacedGrid(SpacingOctave, 1, 8, 4)
	if err != nil {
		t.Fatalf("octave: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, oct, []float64{1, 2, 4, 8}, 1e-12)

	lin, err := SpacedGrid(SpacingLinear, 0, 1, 5)
	if err != nil {
		t.Fatalf("linear: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, lin, []float64{0, 0.25, 0.5, 0.75, 1}, 0)

	dec, err := SpacedGrid(SpacingDecade, 0.1, 10, 3)
	if err != nil {
		t.Fatalf("decade: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, dec, []float64{0.1, 1, 10}, 1e-12)
}

func TestGridErrors(t *testing.T) {
	if _, err := DecadeGrid(0, 0, 10); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("err = %v, want ErrInvalidGrid", err)
	}

	if _, err := DecadeGrid(-2, 0, 0); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("err = %v, want ErrInvalidGrid", err)
	}

	if _, err := SpacedGrid(SpacingDecade, 0, 1, 10); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("err = %v, want ErrInvalidGrid", err)
	}

	if _, err := SpacedGrid(SpacingLinear, 1, 1, 10); !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("err = %v, want ErrInvalidGrid", err)
	}

	if _, err := SpacedGrid(Spacing(7), 1, 2, 10); !errors.Is(err, ErrUnknownSpacing) {
		t.Fatalf("err = %v, want ErrUnknownSpacing", err)
	}
}

func TestParseModeAndSpacing(t *testing.T) {
	if m, err := ParseMode("PSD"); err != nil || m != ModePSD {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}

	if m, err := ParseMode("tf"); err != nil || m != ModeTransfer {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}

	if _, err := ParseMode("bode"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("err = %v, want ErrUnknownMode", err)
	}

	for _, s := range []Spacing{SpacingDecade, SpacingOctave, SpacingLinear} {
		got, err := ParseSpacing(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseSpacing(%q) = %v, %v", s.String(), got, err)
		}
	}
}
