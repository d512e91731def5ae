// Package inject resolves disturbance injection points.
//
// A Config names loads (exactly or by glob pattern), the perturbed electrical
// quantities and their amplitude settings. Resolve binds every load to
// the algebraic voltage variable of its bus in a system.Index, falling back to
// an electrically equivalent bus when the connected one is not part of the
// linearised model, and derives the noise standard deviation of every point.
//
// Active power perturbations drive the real voltage component "ur" of the bus,
// reactive ones the imaginary component "ui".
package inject
