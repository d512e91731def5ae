// Package noise generates mean-reverting coloured noise used to model
// stochastic load fluctuations.
//
// The process is a discretised Ornstein-Uhlenbeck (OU) process:
//
//	x[0] = mean
//	x[i] = mean + mu*(x[i-1]-mean) + coeff*n[i],  n[i] ~ N(0,1)
//	mu    = exp(-dt/tau)
//	coeff = stddev * sqrt(1-mu^2)
//
// In the stationary regime x has the configured mean and standard deviation
// and autocorrelation exp(-|lag|/tau).
package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Errors returned by OU parameter validation.
var (
	ErrInvalidTau      = errors.New("noise: correlation time must be positive")
	ErrInvalidStep     = errors.New("noise: time step must be positive")
	ErrInvalidStdDev   = errors.New("noise: standard deviation must be non-negative")
	ErrInvalidLength   = errors.New("noise: sample count must be positive")
	ErrInvalidDuration = errors.New("noise: duration must cover at least one step")
)

// OU describes an Ornstein-Uhlenbeck process sampled every Dt seconds.
type OU struct {
	Mean   float64
	StdDev float64
	Tau    float64 // correlation time in seconds
	Dt     float64 // sampling step in seconds
}

// Validate checks the process parameters.
func (p OU) Validate() error {
	if !(p.Tau > 0) {
		return fmt.Errorf("%w: %g", ErrInvalidTau, p.Tau)
	}

	if !(p.Dt > 0) {
		return fmt.Errorf("%w: %g", ErrInvalidStep, p.Dt)
	}

	if !(p.StdDev >= 0) {
		return fmt.Errorf("%w: %g", ErrInvalidStdDev, p.StdDev)
	}

	return nil
}

// Coefficients returns the recursion constants mu and coeff.
//
//	coeff = sqrt((2*stddev^2/tau) * tau/2 * (1-mu^2))
func (p OU) Coefficients() (mu, coeff float64) {
	mu = math.Exp(-p.Dt / p.Tau)
	c := 2 * p.StdDev * p.StdDev / p.Tau
	coeff = math.Sqrt(c * p.Tau / 2 * (1 - mu*mu))

	return mu, coeff
}

// Generate returns n samples of the process drawn from src.
// A nil src uses a generator seeded from system entropy.
func (p OU) Generate(n int, src rand.Source) ([]float64, error) {
	err := p.Validate()
	if err != nil {
		return nil, err
	}

	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	mu, coeff := p.Coefficients()

	out := make([]float64, n)
	out[0] = p.Mean

	for i := 1; i < n; i++ {
		out[i] = p.Mean + mu*(out[i-1]-p.Mean) + coeff*normal.Rand()
	}

	return out, nil
}

// Samples returns round(duration/dt), the trace length for a simulation of
// the given duration.
func (p OU) Samples(duration float64) (int, error) {
	if !(p.Dt > 0) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidStep, p.Dt)
	}

	n := int(math.Round(duration / p.Dt))
	if n <= 0 {
		return 0, fmt.Errorf("%w: T=%g dt=%g", ErrInvalidDuration, duration, p.Dt)
	}

	return n, nil
}

// Intensity returns c = stddev*sqrt(2/tau), the white-noise intensity that
// drives the continuous-time process.
func (p OU) Intensity() float64 {
	return p.StdDev * math.Sqrt(2/p.Tau)
}

// PSD returns the theoretical one-sided power spectral density at f Hz:
//
//	S(f) = 2*(c/alpha)^2 / (1 + (2*pi*f/alpha)^2),  alpha = 1/tau
//
// which equals 4*stddev^2*tau / (1 + (2*pi*f*tau)^2). It is a cross-check for
// estimated spectra; the continuous-time form ignores aliasing.
func (p OU) PSD(f float64) float64 {
	alpha := 1 / p.Tau
	r := p.Intensity() / alpha
	w := 2 * math.Pi * f / alpha

	return 2 * r * r / (1 + w*w)
}

// Amplitude returns sqrt((c/alpha)^2 / (1 + (2*pi*f/alpha)^2)), the spectral
// amplitude used to drive deterministic transfer-function sweeps.
func (p OU) Amplitude(f float64) float64 {
	return math.Sqrt(p.PSD(f) / 2)
}
