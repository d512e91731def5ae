package testutil

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// RandomJacobian returns a reproducible (ns+na) x (ns+na) Jacobian whose
// state block is strongly damped and whose algebraic block Jgy is strictly
// diagonally dominant, hence well-conditioned.
func RandomJacobian(seed uint64, ns, na int) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	n := ns + na
	j := mat.NewDense(n, n, nil)

	for i := range n {
		for k := range n {
			j.Set(i, k, 0.2*(2*rng.Float64()-1))
		}
	}

	for i := range ns {
		j.Set(i, i, -1-float64(i)-rng.Float64())
	}

	for i := ns; i < n; i++ {
		j.Set(i, i, float64(na)+1+rng.Float64())
	}

	return j
}

// ReferenceReduction computes A = Jfx - Jfy*Jgy^-1*Jgx by solving with an
// LU factorisation instead of forming the inverse, as an independent check.
func ReferenceReduction(j mat.Matrix, ns int) *mat.Dense {
	n, _ := j.Dims()
	jfx := mat.DenseCopyOf(j).Slice(0, ns, 0, ns)
	jfy := mat.DenseCopyOf(j).Slice(0, ns, ns, n)
	jgx := mat.DenseCopyOf(j).Slice(ns, n, 0, ns)
	jgy := mat.DenseCopyOf(j).Slice(ns, n, ns, n)

	var lu mat.LU
	lu.Factorize(jgy)

	var x mat.Dense
	if err := lu.SolveTo(&x, false, jgx); err != nil {
		panic(err)
	}

	var prod mat.Dense
	prod.Mul(jfy, &x)

	out := mat.NewDense(ns, ns, nil)
	out.Sub(jfx, &prod)

	return out
}

// Embed assembles a Jacobian from the four blocks; used to build systems
// with a known reduction.
func Embed(jfx, jfy, jgx, jgy *mat.Dense) *mat.Dense {
	ns, _ := jfx.Dims()
	na, _ := jgy.Dims()
	n := ns + na
	j := mat.NewDense(n, n, nil)
	j.Slice(0, ns, 0, ns).(*mat.Dense).Copy(jfx)
	j.Slice(0, ns, ns, n).(*mat.Dense).Copy(jfy)
	j.Slice(ns, n, 0, ns).(*mat.Dense).Copy(jgx)
	j.Slice(ns, n, ns, n).(*mat.Dense).Copy(jgy)

	return j
}
