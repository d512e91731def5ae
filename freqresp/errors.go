package freqresp

import (
	"errors"
	"fmt"
)

// Errors returned by grid construction and sweeps.
var (
	ErrInvalidGrid      = errors.New("freqresp: invalid frequency grid")
	ErrNoFrequencies    = errors.New("freqresp: no frequencies")
	ErrNoInputs         = errors.New("freqresp: no injection points")
	ErrInputIndex       = errors.New("freqresp: algebraic index out of range")
	ErrNilReduction     = errors.New("freqresp: nil reduction")
	ErrNilDrive         = errors.New("freqresp: nil drive")
	ErrDriveShape       = errors.New("freqresp: drive does not cover the sweep")
	ErrInvalidDrive     = errors.New("freqresp: PSD drive level must be real and non-negative")
	ErrUnknownMode      = errors.New("freqresp: unknown propagation mode")
	ErrUnknownSpacing   = errors.New("freqresp: unknown grid spacing")
	ErrAllBinsFailed    = errors.New("freqresp: every frequency bin failed")
	ErrInvalidFrequency = errors.New("freqresp: frequency must be finite and non-negative")
)

// FrequencyError reports the bin that failed.
type FrequencyError struct {
	Frequency float64
	Index     int
	Err       error
}

func (e *FrequencyError) Error() string {
	return fmt.Sprintf("frequency %g Hz (bin %d): %v", e.Frequency, e.Index, e.Err)
}

func (e *FrequencyError) Unwrap() error { return e.Err }
