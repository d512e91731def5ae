package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-smallsignal/dsp/spectrum"
	"github.com/cwbudde/algo-smallsignal/dsp/window"
	"github.com/cwbudde/algo-smallsignal/freqresp"
	"github.com/cwbudde/algo-smallsignal/inject"
	"github.com/cwbudde/algo-smallsignal/noise"
	"github.com/cwbudde/algo-smallsignal/result"
	"github.com/cwbudde/algo-smallsignal/system"
)

// Error classes. Every error returned by a Runner belongs to exactly one of
// them, see Classify.
var (
	// ErrConfiguration marks invalid or unsatisfiable settings. It is
	// reported before any computation starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrConsistency marks snapshot data that cannot be processed: a
	// singular algebraic block, a reduced matrix that does not match the
	// reference, or malformed exported data.
	ErrConsistency = errors.New("consistency error")

	// ErrNumerical marks failures inside the frequency sweep.
	ErrNumerical = errors.New("numerical error")
)

// Errors returned by configuration checks and snapshot decoding.
var (
	ErrInvalidBand      = errors.New("pipeline: band must satisfy 0 <= fmin < fmax")
	ErrInvalidTiming    = errors.New("pipeline: T and dt must be positive with T >= dt")
	ErrInvalidWindow    = errors.New("pipeline: window length must be positive")
	ErrInvalidOverlap   = errors.New("pipeline: overlap fraction must be in [0, 1)")
	ErrInvalidDiscard   = errors.New("pipeline: discard must be non-negative and shorter than T")
	ErrInvalidWorkers   = errors.New("pipeline: worker count must be non-negative")
	ErrUnknownDrive     = errors.New("pipeline: unknown drive")
	ErrSnapshot         = errors.New("pipeline: malformed snapshot")
	ErrMissingReference = errors.New("pipeline: snapshot has no reference matrix")
)

var classes = []struct {
	class error
	errs  []error
}{
	{ErrConfiguration, []error{
		ErrInvalidBand, ErrInvalidTiming, ErrInvalidWindow, ErrInvalidOverlap,
		ErrInvalidDiscard, ErrInvalidWorkers, ErrUnknownDrive,
		inject.ErrNoQuantity, inject.ErrAmbiguousAmplitude, inject.ErrMissingAmplitude,
		inject.ErrAmplitudeLength, inject.ErrInvalidAmplitude, inject.ErrInvalidTau,
		inject.ErrNoLoads, inject.ErrNoInjectionPoints, inject.ErrUnknownLoad,
		inject.ErrDuplicateLoad,
		window.ErrUnknownType,
		spectrum.ErrInvalidSampleRate, spectrum.ErrInvalidSegment, spectrum.ErrInvalidOverlap,
		spectrum.ErrInvalidDiscard, spectrum.ErrTooShort, spectrum.ErrUnknownAverage,
		spectrum.ErrInvalidBand, spectrum.ErrEmptyBand,
		freqresp.ErrInvalidGrid, freqresp.ErrUnknownMode, freqresp.ErrUnknownSpacing,
		noise.ErrInvalidTau, noise.ErrInvalidStep, noise.ErrInvalidDuration, noise.ErrInvalidStdDev,
		system.ErrUnknownVariable,
	}},
	{ErrConsistency, []error{
		ErrSnapshot, ErrMissingReference,
		system.ErrEmptyIndex, system.ErrDuplicateVariable, system.ErrDuplicateRow,
		system.ErrRowOutOfRange, system.ErrStateOrder, system.ErrNotSquare,
		system.ErrPartition, system.ErrDimensionMismatch,
		system.ErrSingularAlgebraicBlock, system.ErrInconsistentReduction,
		inject.ErrUnresolvableBus, inject.ErrMissingOperatingPoint,
		result.ErrShape, result.ErrUnknownGen, result.ErrNoGenDispatch,
		freqresp.ErrInputIndex, freqresp.ErrDriveShape,
	}},
	{ErrNumerical, []error{
		system.ErrSingularResolvent, freqresp.ErrAllBinsFailed, freqresp.ErrInvalidDrive,
	}},
}

// Classify returns ErrConfiguration, ErrConsistency or ErrNumerical for err,
// or nil when err belongs to none of them (cancellation, I/O).
func Classify(err error) error {
	if err == nil {
		return nil
	}

	for _, c := range classes {
		if errors.Is(err, c.class) {
			return c.class
		}
	}

	for _, c := range classes {
		for _, e := range c.errs {
			if errors.Is(err, e) {
				return c.class
			}
		}
	}

	return nil
}

// SnapshotError attaches the snapshot identifier to a failure. It matches
// its error class with errors.Is.
type SnapshotError struct {
	ID  string
	Err error
}

func (e *SnapshotError) Error() string {
	if class := Classify(e.Err); class != nil {
		return fmt.Sprintf("snapshot %q: %v: %v", e.ID, class, e.Err)
	}

	return fmt.Sprintf("snapshot %q: %v", e.ID, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }

// Is reports whether target is the class of the wrapped error.
func (e *SnapshotError) Is(target error) bool {
	switch target {
	case ErrConfiguration, ErrConsistency, ErrNumerical:
		return Classify(e.Err) == target
	}

	return false
}
