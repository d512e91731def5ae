// Package system holds the linearized description of a power-grid model:
// the variable catalogue that maps named variables onto Jacobian rows, and
// the Schur-complement reduction that eliminates algebraic variables.
//
// A Jacobian of size N = Ns + Na is partitioned as
//
//	J = | Jfx  Jfy |   (Ns rows: differential equations)
//	    | Jgx  Jgy |   (Na rows: algebraic equations)
//
// and reduced to the state matrix
//
//	A = Jfx - Jfy * Jgy^-1 * Jgx
//
// together with the couplings B = -Jfy * Jgy^-1 and C = -Jgy^-1 * Jgx that
// the frequency sweep reuses for every frequency bin.
//
// # Usage
//
//	ix, _ := system.NewIndex(vars)
//	red, _ := system.Reduce(jac, ix.NumState())
//	if err := red.Validate(aRef); err != nil {
//	    // ErrInconsistentReduction: snapshot is not self-consistent
//	}
//
// Large, sparse algebraic blocks can be factored with [ReduceSparse] instead.
package system
