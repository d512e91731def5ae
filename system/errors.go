package system

import "errors"

// Errors returned by index construction and reduction.
var (
	ErrEmptyIndex             = errors.New("system: variable index is empty")
	ErrDuplicateVariable      = errors.New("system: duplicate variable")
	ErrDuplicateRow           = errors.New("system: duplicate row")
	ErrRowOutOfRange          = errors.New("system: row out of range")
	ErrStateOrder             = errors.New("system: state variables must precede algebraic variables")
	ErrUnknownVariable        = errors.New("system: unknown variable")
	ErrNotSquare              = errors.New("system: jacobian must be square")
	ErrPartition              = errors.New("system: invalid state/algebraic partition")
	ErrDimensionMismatch      = errors.New("system: dimension mismatch")
	ErrSingularAlgebraicBlock = errors.New("system: algebraic block Jgy is singular")
	ErrInconsistentReduction  = errors.New("system: reduced matrix does not match reference")
	ErrSingularResolvent      = errors.New("system: resolvent is singular")
)
