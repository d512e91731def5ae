package core

import "math"

// ZeroFloor replaces exact zeros in computed spectra so that log-scale
// consumers never see -Inf.
const ZeroFloor = 1e-20

// ComplexZeroFloor is the complex counterpart of ZeroFloor.
const ComplexZeroFloor = complex(ZeroFloor, ZeroFloor)

// FloorZeros replaces every exact 0 in v with ZeroFloor and returns the
// number of replacements. Applying it twice is the same as applying it once.
func FloorZeros(v []float64) int {
	n := 0
	for i, x := range v {
		if x == 0 {
			v[i] = ZeroFloor
			n++
		}
	}

	return n
}

// FloorZerosComplex replaces every exact 0+0i in v with ComplexZeroFloor.
func FloorZerosComplex(v []complex128) int {
	n := 0
	for i, x := range v {
		if x == 0 {
			v[i] = ComplexZeroFloor
			n++
		}
	}

	return n
}

// NearlyEqual reports whether a and b agree within eps, absolutely or
// relative to the larger magnitude.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = 1e-12
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return false
	}

	return diff/largest <= eps
}
