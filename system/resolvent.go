package system

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Resolvent solves (-A + j*2*pi*f*I) X = rhs for the complex X and returns
// its real and imaginary parts. rhs is real with Ns rows.
//
// The complex system is solved through its real embedding
//
//	[ -A  -wI ] [Xr]   [rhs]
//	[ wI  -A  ] [Xi] = [ 0 ]
//
// with an LU factorisation. A singular or numerically singular matrix yields
// [ErrSingularResolvent].
func (r *Reduction) Resolvent(f float64, rhs mat.Matrix) (re, im *mat.Dense, err error) {
	n := r.NumState

	rr, cols := rhs.Dims()
	if rr != n {
		return nil, nil, fmt.Errorf("%w: rhs has %d rows, want %d", ErrDimensionMismatch, rr, n)
	}

	w := 2 * math.Pi * f

	m := mat.NewDense(2*n, 2*n, nil)
	for i := range n {
		for j := range n {
			a := -r.A.At(i, j)
			m.Set(i, j, a)
			m.Set(n+i, n+j, a)
		}

		m.Set(i, n+i, -w)
		m.Set(n+i, i, w)
	}

	b := mat.NewDense(2*n, cols, nil)
	b.Slice(0, n, 0, cols).(*mat.Dense).Copy(rhs)

	var lu mat.LU
	lu.Factorize(m)

	var x mat.Dense
	if err := lu.SolveTo(&x, false, b); err != nil {
		return nil, nil, fmt.Errorf("%w: f=%g Hz: %v", ErrSingularResolvent, f, err)
	}

	re = mat.DenseCopyOf(x.Slice(0, n, 0, cols))
	im = mat.DenseCopyOf(x.Slice(n, 2*n, 0, cols))

	return re, im, nil
}

// ResolventMatrix returns M(f) = (-A + j*2*pi*f*I)^-1.
func (r *Reduction) ResolventMatrix(f float64) (*mat.CDense, error) {
	n := r.NumState

	eye := mat.NewDiagDense(n, nil)
	for i := range n {
		eye.SetDiag(i, 1)
	}

	re, im, err := r.Resolvent(f, eye)
	if err != nil {
		return nil, err
	}

	out := mat.NewCDense(n, n, nil)
	for i := range n {
		for j := range n {
			out.Set(i, j, complex(re.At(i, j), im.At(i, j)))
		}
	}

	return out, nil
}
