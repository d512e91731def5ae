package freqresp

import (
	"fmt"

	"github.com/cwbudde/algo-smallsignal/noise"
)

// Drive supplies the input level of injection point k at frequency bin i
// (frequency f). In ModeTransfer the level is a complex amplitude, in ModePSD
// it must be a real non-negative density.
//
// Implementations are called from several goroutines at once.
type Drive interface {
	Level(k, i int, f float64) complex128
}

// DriveFunc adapts a function to the Drive interface.
type DriveFunc func(k, i int, f float64) complex128

// Level calls fn.
func (fn DriveFunc) Level(k, i int, f float64) complex128 { return fn(k, i, f) }

// shaped is implemented by drives that only cover a fixed number of points
// and bins.
type shaped interface {
	checkShape(points, bins int) error
}

// UnitDrive injects a unit level everywhere. With ModeTransfer the result is
// the plain transfer function.
type UnitDrive struct{}

// Level returns 1.
func (UnitDrive) Level(int, int, float64) complex128 { return 1 }

// AnalyticOUDrive evaluates the theoretical spectrum of one OU process per
// point. With Density unset it yields the spectral amplitude
// sqrt(S(f)/2), suited to ModeTransfer; with Density set it yields S(f) for
// ModePSD.
type AnalyticOUDrive struct {
	Processes []noise.OU
	Density   bool
}

// Level evaluates process k at f.
func (d AnalyticOUDrive) Level(k, _ int, f float64) complex128 {
	p := d.Processes[k]
	if d.Density {
		return complex(p.PSD(f), 0)
	}

	return complex(p.Amplitude(f), 0)
}

func (d AnalyticOUDrive) checkShape(points, _ int) error {
	if len(d.Processes) != points {
		return fmt.Errorf("%w: %d processes for %d points", ErrDriveShape, len(d.Processes), points)
	}

	return nil
}

// TabulatedDrive holds one level per point and frequency bin, typically an
// estimated PSD restricted to the sweep band: PSD[k][i].
type TabulatedDrive struct {
	PSD [][]float64
}

// Level returns PSD[k][i].
func (d TabulatedDrive) Level(k, i int, _ float64) complex128 {
	return complex(d.PSD[k][i], 0)
}

func (d TabulatedDrive) checkShape(points, bins int) error {
	if len(d.PSD) != points {
		return fmt.Errorf("%w: %d rows for %d points", ErrDriveShape, len(d.PSD), points)
	}

	for k, row := range d.PSD {
		if len(row) != bins {
			return fmt.Errorf("%w: row %d has %d bins, want %d", ErrDriveShape, k, len(row), bins)
		}
	}

	return nil
}

// ScaledDrive multiplies another drive by a constant.
type ScaledDrive struct {
	Drive Drive
	Scale complex128
}

// Level returns Scale times the wrapped level.
func (d ScaledDrive) Level(k, i int, f float64) complex128 {
	return d.Scale * d.Drive.Level(k, i, f)
}

func (d ScaledDrive) checkShape(points, bins int) error {
	if d.Drive == nil {
		return ErrNilDrive
	}

	if s, ok := d.Drive.(shaped); ok {
		return s.checkShape(points, bins)
	}

	return nil
}
