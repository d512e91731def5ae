package window

import "errors"

// ErrUnknownType is returned by ParseType for unrecognised window names.
var ErrUnknownType = errors.New("window: unknown window type")

var (
	errEmptyCoeffs      = errors.New("window coefficients must not be empty")
	errZeroCoherentGain = errors.New("window coherent gain is zero")
	errMismatchedLength = errors.New("samples and coefficients must have same length")
)
