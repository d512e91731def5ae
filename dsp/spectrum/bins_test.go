package spectrum

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-smallsignal/internal/testutil"
)

func TestMagnitudePhasePower(t *testing.T) {
	bins := []complex128{3 + 4i, -1 - 1i, 0}

	testutil.RequireSliceNearlyEqual(t, Magnitude(bins), []float64{5, math.Sqrt2, 0}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, Power(bins), []float64{25, 2, 0}, 1e-12)

	if got := Phase(bins)[0]; math.Abs(got-math.Atan2(4, 3)) > 1e-12 {
		t.Fatalf("Phase[0] = %v", got)
	}

	if Power(nil) != nil || Magnitude(nil) != nil || Phase(nil) != nil {
		t.Fatal("empty input must give nil")
	}
}

func TestUnwrapPhase(t *testing.T) {
	out := UnwrapPhase([]float64{2.8, -2.7, -2.6})

	if math.Abs((out[1]-out[0])-(2*math.Pi-5.5)) > 1e-12 {
		t.Fatalf("unexpected unwrap delta: %v", out[1]-out[0])
	}

	if math.Abs(out[2]-out[1]-0.1) > 1e-12 {
		t.Fatalf("unexpected second delta: %v", out[2]-out[1])
	}
}

func TestInterpolateLinear(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{0, 10, 30}

	got, err := InterpolateLinear(x, y, []float64{-1, 0.5, 1, 1.5, 5})
	if err != nil {
		t.Fatalf("InterpolateLinear: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, got, []float64{0, 5, 10, 20, 30}, 1e-12)

	if _, err := InterpolateLinear([]float64{0, 0}, []float64{1, 2}, nil); err == nil {
		t.Fatal("expected error for non-increasing x")
	}

	if _, err := InterpolateLinear([]float64{0}, nil, nil); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}
