package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/cwbudde/algo-smallsignal/dsp/spectrum"
	"github.com/cwbudde/algo-smallsignal/dsp/window"
	"github.com/cwbudde/algo-smallsignal/freqresp"
	"github.com/cwbudde/algo-smallsignal/inject"
)

// Drive names for transfer mode.
const (
	DriveOU   = "ou"   // analytic OU amplitude spectrum of each point
	DriveUnit = "unit" // unit input, the plain transfer function
)

// GridConfig is the transfer-mode frequency grid. For decade spacing Start
// and Stop are base-10 exponents and Steps counts points per decade. For
// octave and linear spacing they are frequencies in Hz and Steps is the
// total number of points.
type GridConfig struct {
	Spacing string  `json:"spacing"`
	Start   float64 `json:"start"`
	Stop    float64 `json:"stop"`
	Steps   int     `json:"steps"`
}

// Config holds every setting of a run.
type Config struct {
	Inject inject.Config `json:"inject"`

	Duration float64 `json:"T"`  // simulated noise duration, s
	Step     float64 `json:"dt"` // noise sampling step, s
	Seed     *uint64 `json:"seed,omitempty"`

	FMin float64 `json:"fmin"` // Hz, inclusive
	FMax float64 `json:"fmax"` // Hz, exclusive

	Window          string  `json:"window"`
	WindowSeconds   float64 `json:"window_seconds"`
	OverlapFraction float64 `json:"overlap"`
	Average         string  `json:"average"`
	Discard         float64 `json:"discard"` // initial transient dropped before estimation, s

	Mode  string     `json:"mode"`  // psd or transfer
	Drive string     `json:"drive"` // transfer mode only
	Grid  GridConfig `json:"grid"`  // transfer mode only

	// Select lists the variables kept in the bundle, as full names or glob
	// patterns. Empty keeps every variable.
	Select []string `json:"select,omitempty"`

	Workers          int  `json:"workers,omitempty"`
	SkipSingular     bool `json:"skip_singular,omitempty"`
	SkipInconsistent bool `json:"skip_inconsistent,omitempty"`
}

// DefaultConfig returns the standard study: 1 % active-power noise with a
// 20 ms correlation time, 450 s sampled every 5 ms, Hamming-windowed 100 s
// Welch segments with 50 % overlap, band [0.01, 1) Hz.
func DefaultConfig() Config {
	return Config{
		Inject: inject.Config{
			UseP: true,
			DP:   []float64{0.01},
			Tau:  0.02,
		},
		Duration:        450,
		Step:            0.005,
		FMin:            0.01,
		FMax:            1,
		Window:          "hamming",
		WindowSeconds:   100,
		OverlapFraction: 0.5,
		Average:         "mean",
		Discard:         0.25,
		Mode:            "psd",
		Drive:           DriveOU,
		Grid:            GridConfig{Spacing: "dec", Start: -3, Stop: 2, Steps: 100},
	}
}

// LoadConfig reads a JSON config file. Fields absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("pipeline: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrConfiguration, path, err)
	}

	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error

	if err := c.Inject.Validate(); err != nil {
		errs = append(errs, err)
	}

	if !(c.Step > 0) || !(c.Duration >= c.Step) || math.IsInf(c.Duration, 0) {
		errs = append(errs, fmt.Errorf("%w: T=%g dt=%g", ErrInvalidTiming, c.Duration, c.Step))
	}

	mode, err := freqresp.ParseMode(c.Mode)

	switch {
	case err != nil:
		errs = append(errs, err)
	case mode == freqresp.ModePSD:
		errs = append(errs, c.validateEstimator()...)
	default:
		if c.Drive != DriveOU && c.Drive != DriveUnit {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDrive, c.Drive))
		}

		if _, err := c.grid(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers))
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
}

func (c Config) validateEstimator() []error {
	var errs []error

	if !(c.FMin >= 0) || !(c.FMax > c.FMin) || math.IsInf(c.FMax, 0) {
		errs = append(errs, fmt.Errorf("%w: [%g, %g)", ErrInvalidBand, c.FMin, c.FMax))
	}

	if _, err := window.ParseType(c.Window); err != nil {
		errs = append(errs, err)
	}

	if _, err := spectrum.ParseAverage(c.Average); err != nil {
		errs = append(errs, err)
	}

	if !(c.WindowSeconds > 0) || math.IsInf(c.WindowSeconds, 0) {
		errs = append(errs, fmt.Errorf("%w: %g s", ErrInvalidWindow, c.WindowSeconds))
	}

	if !(c.OverlapFraction >= 0 && c.OverlapFraction < 1) {
		errs = append(errs, fmt.Errorf("%w: %g", ErrInvalidOverlap, c.OverlapFraction))
	}

	if !(c.Discard >= 0) || c.Discard >= c.Duration {
		errs = append(errs, fmt.Errorf("%w: %g s of %g s", ErrInvalidDiscard, c.Discard, c.Duration))
	}

	if len(errs) > 0 || !(c.Step > 0) || c.Duration < c.Step {
		return errs
	}

	if c.WindowSeconds > c.Duration-c.Discard {
		return []error{fmt.Errorf("%w: %g s window, %g s after discard",
			spectrum.ErrTooShort, c.WindowSeconds, c.Duration-c.Discard)}
	}

	w, err := spectrum.NewWelch(c.welchOptions()...)
	if err != nil {
		return []error{err}
	}

	if lo, hi := spectrum.BandIndices(w.Frequencies(), c.FMin, c.FMax); lo == hi {
		return []error{fmt.Errorf("%w: [%g, %g) with %g Hz resolution",
			spectrum.ErrEmptyBand, c.FMin, c.FMax, 1/c.WindowSeconds)}
	}

	return nil
}

// Estimator returns the Welch estimator used in psd mode.
func (c Config) Estimator() (*spectrum.Welch, error) {
	if !(c.Step > 0) || !(c.Duration >= c.Step) {
		return nil, fmt.Errorf("%w: %w: T=%g dt=%g", ErrConfiguration, ErrInvalidTiming, c.Duration, c.Step)
	}

	if errs := c.validateEstimator(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(errs...))
	}

	return spectrum.NewWelch(c.welchOptions()...)
}

// grid returns the transfer-mode frequency grid.
func (c Config) grid() ([]float64, error) {
	s, err := freqresp.ParseSpacing(c.Grid.Spacing)
	if err != nil {
		return nil, err
	}

	if s == freqresp.SpacingDecade {
		return freqresp.DecadeGrid(c.Grid.Start, c.Grid.Stop, c.Grid.Steps)
	}

	return freqresp.SpacedGrid(s, c.Grid.Start, c.Grid.Stop, c.Grid.Steps)
}

// welchOptions converts the estimator settings. The config must be valid.
func (c Config) welchOptions() []spectrum.WelchOption {
	wt, _ := window.ParseType(c.Window)
	avg, _ := spectrum.ParseAverage(c.Average)

	return []spectrum.WelchOption{
		spectrum.WithSampleRate(1 / c.Step),
		spectrum.WithSegmentDuration(c.WindowSeconds),
		spectrum.WithOverlapFraction(c.OverlapFraction),
		spectrum.WithWindow(wt),
		spectrum.WithAverage(avg),
		spectrum.WithDiscard(int(math.Round(c.Discard / c.Step))),
	}
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.Inject.Loads = slices.Clone(c.Inject.Loads)
	out.Inject.DP = slices.Clone(c.Inject.DP)
	out.Inject.SigmaP = slices.Clone(c.Inject.SigmaP)
	out.Inject.DQ = slices.Clone(c.Inject.DQ)
	out.Inject.SigmaQ = slices.Clone(c.Inject.SigmaQ)
	out.Select = slices.Clone(c.Select)

	if c.Seed != nil {
		seed := *c.Seed
		out.Seed = &seed
	}

	return out
}

// Override is one change to a Config.
type Override func(*Config)

// Overrides is an ordered set of changes applied as a unit.
type Overrides []Override

// Apply applies every override to cfg and returns a function restoring the
// previous settings. Callers defer the restore so it runs on every exit
// path.
//
//	restore := Overrides{WithMode("transfer")}.Apply(&cfg)
//	defer restore()
func (o Overrides) Apply(cfg *Config) (restore func()) {
	saved := cfg.Clone()

	for _, fn := range o {
		if fn != nil {
			fn(cfg)
		}
	}

	return func() { *cfg = saved }
}

// WithMode overrides the propagation mode.
func WithMode(mode string) Override {
	return func(c *Config) { c.Mode = mode }
}

// WithLoads overrides the injection loads.
func WithLoads(loads ...string) Override {
	return func(c *Config) { c.Inject.Loads = slices.Clone(loads) }
}

// WithSeed fixes the noise seed.
func WithSeed(seed uint64) Override {
	return func(c *Config) { c.Seed = &seed }
}

// WithBand overrides the frequency band.
func WithBand(fmin, fmax float64) Override {
	return func(c *Config) { c.FMin, c.FMax = fmin, fmax }
}
