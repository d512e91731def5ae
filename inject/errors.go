package inject

import (
	"errors"
	"fmt"
)

// Configuration errors reported by Validate and Resolve.
var (
	ErrNoQuantity            = errors.New("inject: at least one of P and Q must be perturbed")
	ErrAmbiguousAmplitude    = errors.New("inject: both relative and absolute amplitude given")
	ErrMissingAmplitude      = errors.New("inject: neither relative nor absolute amplitude given")
	ErrAmplitudeLength       = errors.New("inject: amplitude list length must be 0, 1 or the number of loads")
	ErrInvalidAmplitude      = errors.New("inject: amplitude must be finite and non-negative")
	ErrInvalidTau            = errors.New("inject: correlation time must be positive")
	ErrNoLoads               = errors.New("inject: no load names given")
	ErrNoInjectionPoints     = errors.New("inject: no injection points resolved")
	ErrUnknownLoad           = errors.New("inject: unknown load")
	ErrDuplicateLoad         = errors.New("inject: load selected more than once")
	ErrUnresolvableBus       = errors.New("inject: no bus of the equivalence class is in the index")
	ErrMissingOperatingPoint = errors.New("inject: load has no operating point")
)

// LoadError attaches the offending load name or pattern to an error.
type LoadError struct {
	Load string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Load, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
