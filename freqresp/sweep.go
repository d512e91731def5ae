package freqresp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/cwbudde/algo-smallsignal/dsp/core"
	"github.com/cwbudde/algo-smallsignal/system"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// ProgressFunc is called once per finished bin with the number of finished
// bins and the total. Calls are serialised.
type ProgressFunc func(done, total int)

// Sweep evaluates a Reduction over a frequency grid.
type Sweep struct {
	red          *system.Reduction
	mode         Mode
	workers      int
	progress     ProgressFunc
	skipSingular bool
}

// Option configures a Sweep.
type Option func(*Sweep)

// WithMode selects the propagation law (default ModeTransfer).
func WithMode(m Mode) Option {
	return func(s *Sweep) { s.mode = m }
}

// WithWorkers bounds the number of bins evaluated concurrently (default
// GOMAXPROCS). One worker evaluates bins sequentially.
func WithWorkers(n int) Option {
	return func(s *Sweep) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithProgress installs a per-bin progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Sweep) { s.progress = fn }
}

// WithSkipSingular records bins with a singular resolvent in
// Response.Failed and fills them with NaN instead of aborting the sweep.
func WithSkipSingular() Option {
	return func(s *Sweep) { s.skipSingular = true }
}

// NewSweep prepares a sweep over red. The reduction is shared read-only by
// all workers.
func NewSweep(red *system.Reduction, opts ...Option) (*Sweep, error) {
	if red == nil || red.A == nil || red.B == nil || red.C == nil || red.JgyInv == nil {
		return nil, ErrNilReduction
	}

	s := &Sweep{
		red:     red,
		mode:    ModeTransfer,
		workers: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.mode != ModeTransfer && s.mode != ModePSD {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, s.mode)
	}

	return s, nil
}

// Mode returns the propagation law.
func (s *Sweep) Mode() Mode { return s.mode }

// Run evaluates every frequency in freqs for the injection points whose
// algebraic indices are alg, with input levels from drive.
//
// A failing bin aborts the sweep with a *FrequencyError unless
// WithSkipSingular is set and the failure is a singular resolvent. Run
// returns ctx.Err() when the context is cancelled.
func (s *Sweep) Run(ctx context.Context, freqs []float64, alg []int, drive Drive) (*Response, error) {
	if err := s.check(freqs, alg, drive); err != nil {
		return nil, err
	}

	ns, na := s.red.NumState, s.red.NumAlgebraic

	// Column k of rhs is B[:, alg[k]].
	rhs := mat.NewDense(ns, len(alg), nil)
	for k, a := range alg {
		for r := range ns {
			rhs.Set(r, k, s.red.B.At(r, a))
		}
	}

	resp := newResponse(s.mode, freqs, len(alg), ns, ns+na)
	failed := make([]bool, len(freqs))

	var (
		mu   sync.Mutex
		done int
	)

	report := func() {
		if s.progress == nil {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		done++
		s.progress(done, len(freqs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, f := range freqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			err := s.bin(resp, rhs, alg, drive, i, f)
			if err == nil {
				report()
				return nil
			}

			if s.skipSingular && errors.Is(err, system.ErrSingularResolvent) {
				failed[i] = true
				resp.fillNaN(i)
				report()

				return nil
			}

			return &FrequencyError{Frequency: f, Index: i, Err: err}
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, err
	}

	for i, bad := range failed {
		if bad {
			resp.Failed = append(resp.Failed, i)
		}
	}

	if len(resp.Failed) == len(freqs) {
		return nil, fmt.Errorf("%w: %d bins", ErrAllBinsFailed, len(freqs))
	}

	return resp, nil
}

func (s *Sweep) check(freqs []float64, alg []int, drive Drive) error {
	if len(freqs) == 0 {
		return ErrNoFrequencies
	}

	for i, f := range freqs {
		if !(f >= 0) || math.IsInf(f, 0) {
			return &FrequencyError{Frequency: f, Index: i, Err: ErrInvalidFrequency}
		}
	}

	if len(alg) == 0 {
		return ErrNoInputs
	}

	for k, a := range alg {
		if a < 0 || a >= s.red.NumAlgebraic {
			return fmt.Errorf("%w: point %d has index %d, Na=%d", ErrInputIndex, k, a, s.red.NumAlgebraic)
		}
	}

	if drive == nil {
		return ErrNilDrive
	}

	if sh, ok := drive.(shaped); ok {
		if err := sh.checkShape(len(alg), len(freqs)); err != nil {
			return err
		}
	}

	return nil
}

// bin fills the rows of bin i for every input. Rows of different bins are
// disjoint, so bins may run concurrently.
func (s *Sweep) bin(resp *Response, rhs *mat.Dense, alg []int, drive Drive, i int, f float64) error {
	sr, si, err := s.red.Resolvent(f, rhs)
	if err != nil {
		return err
	}

	// g = C*s - Jgy^-1[:, a]; the Jgy^-1 term is real.
	var gr, gi mat.Dense
	gr.Mul(s.red.C, sr)
	gi.Mul(s.red.C, si)

	ns, na := s.red.NumState, s.red.NumAlgebraic

	for k, a := range alg {
		v := drive.Level(k, i, f)

		switch s.mode {
		case ModeTransfer:
			row := resp.ComplexRow(k, i)
			for r := range ns {
				row[r] = complex(sr.At(r, k), si.At(r, k)) * v
			}

			for r := range na {
				row[ns+r] = complex(gr.At(r, k)-s.red.JgyInv.At(r, a), gi.At(r, k)) * v
			}

			core.FloorZerosComplex(row)

		case ModePSD:
			p := real(v)
			if imag(v) != 0 || !(p >= 0) || math.IsInf(p, 0) {
				return fmt.Errorf("%w: point %d level %v", ErrInvalidDrive, k, v)
			}

			row := resp.PowerRow(k, i)
			for r := range ns {
				re, im := sr.At(r, k), si.At(r, k)
				row[r] = (re*re + im*im) * p
			}

			for r := range na {
				re, im := gr.At(r, k)-s.red.JgyInv.At(r, a), gi.At(r, k)
				row[ns+r] = (re*re + im*im) * p
			}

			core.FloorZeros(row)
		}
	}

	return nil
}
