package system

import (
	"fmt"
	"math"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"
)

// Entry is one non-zero element of a sparse Jacobian in coordinate form.
type Entry struct {
	Row, Col int
	Value    float64
}

// SparseJacobian is a square Jacobian given in coordinate (triplet) form.
// Duplicate coordinates are summed.
type SparseJacobian struct {
	N       int
	Entries []Entry
}

// Dense expands s into a dense matrix.
func (s *SparseJacobian) Dense() (*mat.Dense, error) {
	if s.N <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrPartition, s.N)
	}

	d := mat.NewDense(s.N, s.N, nil)
	for _, e := range s.Entries {
		if e.Row < 0 || e.Row >= s.N || e.Col < 0 || e.Col >= s.N {
			return nil, fmt.Errorf("%w: entry (%d,%d) in %dx%d jacobian", ErrRowOutOfRange, e.Row, e.Col, s.N, s.N)
		}

		d.Set(e.Row, e.Col, d.At(e.Row, e.Col)+e.Value)
	}

	return d, nil
}

// ReduceSparse performs the same reduction as [Reduce] but factors Jgy with a
// sparse LU decomposition, which keeps the elimination tractable for grids
// with thousands of algebraic variables. Jgy^-1 is still materialised
// densely because the sweep needs every column of it.
func ReduceSparse(s *SparseJacobian, nState int) (*Reduction, error) {
	dense, err := s.Dense()
	if err != nil {
		return nil, err
	}

	b, err := Partition(dense, nState)
	if err != nil {
		return nil, err
	}

	na := s.N - nState

	lu, err := sparse.Create(int64(na), &sparse.Configuration{
		Real:       true,
		Expandable: true,
		Translate:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("system: create sparse matrix: %w", err)
	}
	defer lu.Destroy()

	for _, e := range s.Entries {
		if e.Row < nState || e.Col < nState || e.Value == 0 {
			continue
		}

		// Sparse uses 1-based indices.
		lu.GetElement(int64(e.Row-nState+1), int64(e.Col-nState+1)).Real += e.Value
	}

	err = lu.Factor()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularAlgebraicBlock, err)
	}

	inv := mat.NewDense(na, na, nil)
	rhs := make([]float64, na+1)

	for col := range na {
		clear(rhs)
		rhs[col+1] = 1

		x, err := lu.Solve(rhs)
		if err != nil {
			return nil, fmt.Errorf("%w: solve column %d: %v", ErrSingularAlgebraicBlock, col, err)
		}

		for row := range na {
			v := x[row+1]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite inverse at (%d,%d)", ErrSingularAlgebraicBlock, row, col)
			}

			inv.Set(row, col, v)
		}
	}

	return fromInverse(b, inv), nil
}
