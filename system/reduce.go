package system

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ReferenceTolerance is the absolute elementwise tolerance used by
// [Reduction.Validate].
const ReferenceTolerance = 1e-8

// Reduction is the Schur-complement reduction of a partitioned Jacobian.
//
// All matrices are owned by the Reduction and must be treated as read-only;
// the frequency sweep shares them across worker goroutines.
type Reduction struct {
	NumState     int
	NumAlgebraic int

	A      *mat.Dense // Ns x Ns reduced state matrix
	B      *mat.Dense // Ns x Na, -Jfy * Jgy^-1
	C      *mat.Dense // Na x Ns, -Jgy^-1 * Jgx
	JgyInv *mat.Dense // Na x Na
}

// Blocks holds the four Jacobian partitions.
type Blocks struct {
	Jfx, Jfy, Jgx, Jgy *mat.Dense
}

// Partition slices j into its four blocks using the split at nState.
// The returned blocks are copies and do not alias j.
func Partition(j mat.Matrix, nState int) (Blocks, error) {
	r, c := j.Dims()
	if r != c {
		return Blocks{}, fmt.Errorf("%w: %dx%d", ErrNotSquare, r, c)
	}

	if nState <= 0 || nState >= r {
		return Blocks{}, fmt.Errorf("%w: Ns=%d with N=%d", ErrPartition, nState, r)
	}

	n := r

	return Blocks{
		Jfx: block(j, 0, nState, 0, nState),
		Jfy: block(j, 0, nState, nState, n),
		Jgx: block(j, nState, n, 0, nState),
		Jgy: block(j, nState, n, nState, n),
	}, nil
}

// Reduce partitions j at nState, inverts Jgy and forms A, B and C.
//
// It fails with [ErrSingularAlgebraicBlock] when Jgy cannot be inverted or
// its condition number exceeds the gonum conditioning tolerance.
func Reduce(j mat.Matrix, nState int) (*Reduction, error) {
	b, err := Partition(j, nState)
	if err != nil {
		return nil, err
	}

	var inv mat.Dense

	err = inv.Inverse(b.Jgy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularAlgebraicBlock, err)
	}

	return fromInverse(b, &inv), nil
}

// fromInverse completes the reduction once Jgy^-1 is known.
func fromInverse(b Blocks, jgyInv *mat.Dense) *Reduction {
	ns, na := b.Jfy.Dims()

	bm := mat.NewDense(ns, na, nil)
	bm.Mul(b.Jfy, jgyInv)
	bm.Scale(-1, bm)

	cm := mat.NewDense(na, ns, nil)
	cm.Mul(jgyInv, b.Jgx)
	cm.Scale(-1, cm)

	// A = Jfx - Jfy*Jgy^-1*Jgx = Jfx + B*Jgx
	am := mat.NewDense(ns, ns, nil)
	am.Mul(bm, b.Jgx)
	am.Add(b.Jfx, am)

	return &Reduction{
		NumState:     ns,
		NumAlgebraic: na,
		A:            am,
		B:            bm,
		C:            cm,
		JgyInv:       jgyInv,
	}
}

// Validate compares A against an independently supplied reference matrix and
// fails with [ErrInconsistentReduction] if any element differs by
// [ReferenceTolerance] or more.
func (r *Reduction) Validate(ref mat.Matrix) error {
	rr, rc := ref.Dims()
	if rr != r.NumState || rc != r.NumState {
		return fmt.Errorf("%w: reference is %dx%d, reduced matrix is %dx%d",
			ErrDimensionMismatch, rr, rc, r.NumState, r.NumState)
	}

	d, i, j := MaxAbsDiff(r.A, ref)
	if !(d < ReferenceTolerance) {
		return fmt.Errorf("%w: |A-Aref| = %g at (%d,%d)", ErrInconsistentReduction, d, i, j)
	}

	return nil
}

// MaxAbsDiff returns the largest elementwise |a-b| and where it occurs.
// NaN differences are reported as +Inf. a and b must have equal dimensions.
func MaxAbsDiff(a, b mat.Matrix) (d float64, row, col int) {
	r, c := a.Dims()
	for i := range r {
		for j := range c {
			v := math.Abs(a.At(i, j) - b.At(i, j))
			if math.IsNaN(v) {
				v = math.Inf(1)
			}

			if v > d {
				d, row, col = v, i, j
			}
		}
	}

	return d, row, col
}

func block(j mat.Matrix, r0, r1, c0, c1 int) *mat.Dense {
	out := mat.NewDense(r1-r0, c1-c0, nil)
	for i := r0; i < r1; i++ {
		for k := c0; k < c1; k++ {
			out.Set(i-r0, k-c0, j.At(i, k))
		}
	}

	return out
}
