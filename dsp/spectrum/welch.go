package spectrum

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cwbudde/algo-smallsignal/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by the Welch estimator.
var (
	ErrInvalidSampleRate = errors.New("spectrum: sample rate must be positive")
	ErrInvalidSegment    = errors.New("spectrum: segment length must be at least 2 samples")
	ErrInvalidOverlap    = errors.New("spectrum: overlap must be in [0, segment length)")
	ErrInvalidDiscard    = errors.New("spectrum: discard must be non-negative")
	ErrTooShort          = errors.New("spectrum: trace shorter than one segment")
	ErrNoTraces          = errors.New("spectrum: no traces")
	ErrUnknownAverage    = errors.New("spectrum: unknown averaging statistic")
)

// Average selects how segment periodograms are combined.
type Average int

const (
	// AverageMean is the arithmetic mean across segments.
	AverageMean Average = iota
	// AverageMedian is the per-bin median, divided by the median bias of
	// an exponential distribution so that it estimates the same density
	// as the mean.
	AverageMedian
)

func (a Average) String() string {
	switch a {
	case AverageMean:
		return "mean"
	case AverageMedian:
		return "median"
	default:
		return fmt.Sprintf("Average(%d)", int(a))
	}
}

// ParseAverage maps "mean" or "median" to an Average.
func ParseAverage(name string) (Average, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean":
		return AverageMean, nil
	case "median":
		return AverageMedian, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAverage, name)
	}
}

// Welch is a configured averaged-periodogram estimator. It is immutable after
// construction and safe for concurrent use.
type Welch struct {
	sampleRate float64
	segment    int
	overlap    int
	window     window.Type
	average    Average
	discard    int

	coeffs []float64
	scale  float64
}

// WelchOption configures a Welch estimator.
type WelchOption func(*welchConfig)

type welchConfig struct {
	sampleRate      float64
	segment         int
	segmentSeconds  float64
	overlap         int
	overlapFraction float64
	overlapSet      bool
	window          window.Type
	average         Average
	discard         int
}

// WithSampleRate sets the sampling frequency in Hz (default 1).
func WithSampleRate(fs float64) WelchOption {
	return func(c *welchConfig) { c.sampleRate = fs }
}

// WithSegment sets the segment length in samples (default 256).
func WithSegment(n int) WelchOption {
	return func(c *welchConfig) {
		c.segment = n
		c.segmentSeconds = 0
	}
}

// WithSegmentDuration sets the segment length in seconds; it is converted to
// round(seconds*fs) samples.
func WithSegmentDuration(seconds float64) WelchOption {
	return func(c *welchConfig) { c.segmentSeconds = seconds }
}

// WithOverlap sets the overlap between consecutive segments in samples.
func WithOverlap(n int) WelchOption {
	return func(c *welchConfig) {
		c.overlap = n
		c.overlapSet = true
	}
}

// WithOverlapFraction sets the overlap as a fraction of the segment length
// (default 0.5).
func WithOverlapFraction(f float64) WelchOption {
	return func(c *welchConfig) {
		c.overlapFraction = f
		c.overlapSet = false
	}
}

// WithWindow sets the segment taper (default Hann). The periodic form of the
// window is used.
func WithWindow(t window.Type) WelchOption {
	return func(c *welchConfig) { c.window = t }
}

// WithAverage sets the averaging statistic (default mean).
func WithAverage(a Average) WelchOption {
	return func(c *welchConfig) { c.average = a }
}

// WithDiscard drops the first n samples of every trace before estimation.
func WithDiscard(n int) WelchOption {
	return func(c *welchConfig) { c.discard = n }
}

// NewWelch validates the options and precomputes the window.
func NewWelch(opts ...WelchOption) (*Welch, error) {
	cfg := welchConfig{
		sampleRate:      1,
		segment:         256,
		overlapFraction: 0.5,
		window:          window.TypeHann,
		average:         AverageMean,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !(cfg.sampleRate > 0) || math.IsInf(cfg.sampleRate, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSampleRate, cfg.sampleRate)
	}

	if cfg.segmentSeconds > 0 {
		cfg.segment = int(math.Round(cfg.segmentSeconds * cfg.sampleRate))
	}

	if cfg.segment < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegment, cfg.segment)
	}

	if !cfg.overlapSet {
		if !(cfg.overlapFraction >= 0 && cfg.overlapFraction < 1) {
			return nil, fmt.Errorf("%w: fraction %g", ErrInvalidOverlap, cfg.overlapFraction)
		}

		cfg.overlap = int(math.Round(cfg.overlapFraction * float64(cfg.segment)))
	}

	if cfg.overlap < 0 || cfg.overlap >= cfg.segment {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidOverlap, cfg.overlap, cfg.segment)
	}

	if cfg.discard < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDiscard, cfg.discard)
	}

	if cfg.average != AverageMean && cfg.average != AverageMedian {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAverage, cfg.average)
	}

	w := &Welch{
		sampleRate: cfg.sampleRate,
		segment:    cfg.segment,
		overlap:    cfg.overlap,
		window:     cfg.window,
		average:    cfg.average,
		discard:    cfg.discard,
		coeffs:     window.Generate(cfg.window, cfg.segment, window.WithPeriodic()),
	}

	_, sumSquares := window.Sums(w.coeffs)
	if sumSquares == 0 {
		return nil, fmt.Errorf("%w: %v window has zero energy", ErrInvalidSegment, cfg.window)
	}

	w.scale = 1 / (w.sampleRate * sumSquares)

	return w, nil
}

// SampleRate returns the sampling frequency in Hz.
func (w *Welch) SampleRate() float64 { return w.sampleRate }

// Segment returns the segment length in samples.
func (w *Welch) Segment() int { return w.segment }

// Overlap returns the segment overlap in samples.
func (w *Welch) Overlap() int { return w.overlap }

// Window returns the segment taper.
func (w *Welch) Window() window.Type { return w.window }

// Average returns the averaging statistic.
func (w *Welch) Average() Average { return w.average }

// Discard returns the number of leading samples dropped per trace.
func (w *Welch) Discard() int { return w.discard }

// Frequencies returns the one-sided bin frequencies k*fs/segment for
// k = 0..segment/2.
func (w *Welch) Frequencies() []float64 {
	out := make([]float64, w.segment/2+1)
	df := w.sampleRate / float64(w.segment)

	for k := range out {
		out[k] = float64(k) * df
	}

	return out
}

// SegmentCount returns how many segments a trace of n samples yields after the
// discard, or 0 when it is too short.
func (w *Welch) SegmentCount(n int) int {
	n -= w.discard
	if n < w.segment {
		return 0
	}

	return (n-w.segment)/(w.segment-w.overlap) + 1
}

// Estimate returns the one-sided PSD of every trace. All traces share the
// frequency axis; PSD[i] belongs to traces[i].
func (w *Welch) Estimate(traces ...[]float64) (*Estimate, error) {
	if len(traces) == 0 {
		return nil, ErrNoTraces
	}

	pg := newPeriodogram(w.segment)
	est := &Estimate{
		Freqs: w.Frequencies(),
		PSD:   make([][]float64, len(traces)),
	}

	for i, tr := range traces {
		psd, err := w.density(pg, tr)
		if err != nil {
			return nil, fmt.Errorf("spectrum: trace %d: %w", i, err)
		}

		est.PSD[i] = psd
	}

	return est, nil
}

func (w *Welch) density(pg *periodogram, trace []float64) ([]float64, error) {
	nseg := w.SegmentCount(len(trace))
	if nseg == 0 {
		return nil, fmt.Errorf("%w: %d samples after discarding %d, segment %d",
			ErrTooShort, max(len(trace)-w.discard, 0), w.discard, w.segment)
	}

	x := trace[w.discard:]
	step := w.segment - w.overlap
	bins := w.segment/2 + 1
	buf := make([]float64, w.segment)

	var (
		acc  []float64
		pers [][]float64
	)

	if w.average == AverageMean {
		acc = make([]float64, bins)
	} else {
		pers = make([][]float64, nseg)
	}

	p := make([]float64, bins)

	for s := range nseg {
		seg := x[s*step : s*step+w.segment]

		mean := 0.0
		for _, v := range seg {
			mean += v
		}

		mean /= float64(len(seg))

		for i, v := range seg {
			buf[i] = v - mean
		}

		vecmath.MulBlockInPlace(buf, w.coeffs)

		if err := pg.power(p, buf); err != nil {
			return nil, err
		}

		if w.average == AverageMean {
			vecmath.AddBlockInPlace(acc, p)
		} else {
			pers[s] = slices.Clone(p)
		}
	}

	out := make([]float64, bins)

	if w.average == AverageMean {
		vecmath.ScaleBlock(out, acc, w.scale/float64(nseg))
	} else {
		col := make([]float64, nseg)
		norm := w.scale / medianBias(nseg)

		for k := range bins {
			for s := range nseg {
				col[s] = pers[s][k]
			}

			out[k] = median(col) * norm
		}
	}

	// One-sided: fold negative frequencies onto positive ones. DC and, for
	// even segment lengths, the Nyquist bin have no mirror.
	last := bins
	if w.segment%2 == 0 {
		last--
	}

	for k := 1; k < last; k++ {
		out[k] *= 2
	}

	return out, nil
}

// median sorts v in place.
func median(v []float64) float64 {
	slices.Sort(v)

	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}

	return (v[n/2-1] + v[n/2]) / 2
}

// medianBias is the ratio of median to mean of an exponential distribution
// estimated from n samples: 1 + sum_{k=1}^{(n-1)/2} (1/(2k+1) - 1/(2k)).
func medianBias(n int) float64 {
	b := 1.0
	for k := 1; k <= (n-1)/2; k++ {
		b += 1/float64(2*k+1) - 1/float64(2*k)
	}

	return b
}
