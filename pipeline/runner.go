package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cwbudde/algo-smallsignal/dsp/spectrum"
	"github.com/cwbudde/algo-smallsignal/freqresp"
	"github.com/cwbudde/algo-smallsignal/inject"
	"github.com/cwbudde/algo-smallsignal/internal/logging"
	"github.com/cwbudde/algo-smallsignal/internal/observability"
	"github.com/cwbudde/algo-smallsignal/noise"
	"github.com/cwbudde/algo-smallsignal/result"
	"github.com/cwbudde/algo-smallsignal/system"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Runner processes snapshots with one validated configuration. It is safe
// for sequential reuse; Run calls do not share state.
type Runner struct {
	cfg      Config
	mode     freqresp.Mode
	log      logging.Logger
	metrics  *observability.SweepCollector
	tracer   trace.Tracer
	progress freqresp.ProgressFunc
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger (default no-op).
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics records sweep and snapshot metrics.
func WithMetrics(c *observability.SweepCollector) RunnerOption {
	return func(r *Runner) { r.metrics = c }
}

// WithTracer sets the tracer (default: the global provider).
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithProgress receives per-bin sweep progress.
func WithProgress(fn freqresp.ProgressFunc) RunnerOption {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner validates cfg. Configuration errors surface here, before any
// snapshot is touched.
func NewRunner(cfg Config, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mode, _ := freqresp.ParseMode(cfg.Mode)

	r := &Runner{
		cfg:    cfg.Clone(),
		mode:   mode,
		log:    logging.Noop(),
		tracer: observability.Tracer(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r, nil
}

// Config returns a copy of the run configuration.
func (r *Runner) Config() Config { return r.cfg.Clone() }

// Run analyses one snapshot. Failures are returned as *SnapshotError.
func (r *Runner) Run(ctx context.Context, snap *Snapshot) (*result.Bundle, error) {
	ctx, span := r.tracer.Start(ctx, "snapshot", trace.WithAttributes(
		attribute.String("snapshot.id", snap.ID),
		attribute.String("mode", r.mode.String()),
	))
	defer span.End()

	log := r.log.With(logging.String("snapshot", snap.ID))

	b, err := r.run(ctx, snap, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, &SnapshotError{ID: snap.ID, Err: err}
	}

	return b, nil
}

// run resolves the injection points first so that configuration errors
// surface before any numerical work on the snapshot.
func (r *Runner) run(ctx context.Context, snap *Snapshot, log logging.Logger) (*result.Bundle, error) {
	if snap.Index == nil {
		return nil, fmt.Errorf("%w: no variable index", ErrSnapshot)
	}

	points, err := r.resolve(ctx, snap, log)
	if err != nil {
		return nil, err
	}

	red, err := r.reduce(ctx, snap, log)
	if err != nil {
		return nil, err
	}

	freqs, drive, err := r.drive(ctx, points, log)
	if err != nil {
		return nil, err
	}

	resp, err := r.sweep(ctx, red, freqs, points, drive, log)
	if err != nil {
		return nil, err
	}

	_, span := r.tracer.Start(ctx, "assemble")
	defer span.End()

	gens, err := result.Generators(snap.Generators, snap.H, snap.S, snap.OperatingPoint)
	if err != nil {
		return nil, err
	}

	b, err := result.Assemble(resp, snap.Index, result.Spec{
		ID:     snap.ID,
		Select: r.cfg.Select,
		Points: points,
		A:      red.A,
		Meta: result.Metadata{
			Generators:     gens,
			Buses:          snap.Buses,
			Htot:           snap.Htot,
			Etot:           snap.Etot,
			Mtot:           snap.Mtot,
			OperatingPoint: snap.OperatingPoint,
			BusEquiv:       snap.Topology.BusEquiv,
			Config:         snap.Config,
		},
	})
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "snapshot analysed",
		logging.Int("inputs", b.Shape[0]),
		logging.Int("bins", b.Shape[1]),
		logging.Int("variables", b.Shape[2]),
		logging.Int("failed_bins", len(b.Failed)),
	)

	return b, nil
}

func (r *Runner) reduce(ctx context.Context, snap *Snapshot, log logging.Logger) (*system.Reduction, error) {
	_, span := r.tracer.Start(ctx, "reduce")
	defer span.End()

	if snap.Reference == nil {
		return nil, ErrMissingReference
	}

	ns := snap.Index.NumState()

	var (
		red *system.Reduction
		err error
	)

	switch {
	case snap.Sparse != nil:
		red, err = system.ReduceSparse(snap.Sparse, ns)
	case snap.Jacobian != nil:
		red, err = system.Reduce(snap.Jacobian, ns)
	default:
		err = fmt.Errorf("%w: no jacobian", ErrSnapshot)
	}

	if err != nil {
		return nil, err
	}

	if err := red.Validate(snap.Reference); err != nil {
		return nil, err
	}

	d, _, _ := system.MaxAbsDiff(red.A, snap.Reference)
	span.SetAttributes(attribute.Int("states", red.NumState), attribute.Int("algebraic", red.NumAlgebraic))
	log.Debug(ctx, "reduction matches reference",
		logging.Int("states", red.NumState),
		logging.Int("algebraic", red.NumAlgebraic),
		logging.Float("max_abs_diff", d),
	)

	return red, nil
}

func (r *Runner) resolve(ctx context.Context, snap *Snapshot, log logging.Logger) ([]inject.Point, error) {
	_, span := r.tracer.Start(ctx, "resolve")
	defer span.End()

	points, err := inject.Resolve(r.cfg.Inject, snap.Topology, snap.Index)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("points", len(points)))

	for _, p := range points {
		if p.Substituted() {
			log.Warn(ctx, "load bus not in jacobian, using equivalent bus",
				logging.String("load", p.Load),
				logging.String("connected_bus", p.ConnectedBus),
				logging.String("bus", p.Bus),
			)
		}

		log.Debug(ctx, "injection point",
			logging.String("name", p.Name()),
			logging.String("bus", p.Bus),
			logging.Int("alg_index", p.AlgIndex),
			logging.Float("stddev", p.StdDev),
		)
	}

	return points, nil
}

// drive returns the sweep grid and input levels for the configured mode.
func (r *Runner) drive(ctx context.Context, points []inject.Point, log logging.Logger) ([]float64, freqresp.Drive, error) {
	procs := make([]noise.OU, len(points))
	for k, p := range points {
		procs[k] = p.Process(r.cfg.Step)
	}

	if r.mode == freqresp.ModeTransfer {
		freqs, err := r.cfg.grid()
		if err != nil {
			return nil, nil, err
		}

		if r.cfg.Drive == DriveUnit {
			return freqs, freqresp.UnitDrive{}, nil
		}

		return freqs, freqresp.AnalyticOUDrive{Processes: procs}, nil
	}

	traces, err := r.noise(ctx, procs, log)
	if err != nil {
		return nil, nil, err
	}

	_, span := r.tracer.Start(ctx, "welch")
	defer span.End()

	w, err := spectrum.NewWelch(r.cfg.welchOptions()...)
	if err != nil {
		return nil, nil, err
	}

	est, err := w.Estimate(traces...)
	if err != nil {
		return nil, nil, err
	}

	band, err := est.Band(r.cfg.FMin, r.cfg.FMax)
	if err != nil {
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int("segment", w.Segment()), attribute.Int("bins", len(band.Freqs)))

	return band.Freqs, freqresp.TabulatedDrive{PSD: band.PSD}, nil
}

func (r *Runner) noise(ctx context.Context, procs []noise.OU, log logging.Logger) ([][]float64, error) {
	_, span := r.tracer.Start(ctx, "noise")
	defer span.End()

	opts := []noise.BankOption{noise.WithDuration(r.cfg.Duration)}
	if r.cfg.Seed != nil {
		opts = append(opts, noise.WithSeed(*r.cfg.Seed))
	}

	bank := noise.NewBank(opts...)
	log.Debug(ctx, "generating noise", logging.Any("seed", bank.Seed()), logging.Int("traces", len(procs)))

	return bank.Generate(procs)
}

func (r *Runner) sweep(ctx context.Context, red *system.Reduction, freqs []float64, points []inject.Point,
	drive freqresp.Drive, log logging.Logger,
) (*freqresp.Response, error) {
	ctx, span := r.tracer.Start(ctx, "sweep", trace.WithAttributes(attribute.Int("bins", len(freqs))))
	defer span.End()

	step := max(len(freqs)/10, 1)
	progress := func(done, total int) {
		if done%step == 0 || done == total {
			log.Debug(ctx, "sweep progress", logging.Int("done", done), logging.Int("total", total))
		}

		if r.progress != nil {
			r.progress(done, total)
		}
	}

	opts := []freqresp.Option{
		freqresp.WithMode(r.mode),
		freqresp.WithWorkers(r.cfg.Workers),
		freqresp.WithProgress(progress),
	}
	if r.cfg.SkipSingular {
		opts = append(opts, freqresp.WithSkipSingular())
	}

	s, err := freqresp.NewSweep(red, opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := s.Run(ctx, freqs, inject.AlgIndices(points), drive)
	if err != nil {
		return nil, err
	}

	r.metrics.ObserveSweep(len(freqs), len(resp.Failed), time.Since(start))

	if !resp.Complete() {
		failed := make([]float64, len(resp.Failed))
		for n, i := range resp.Failed {
			failed[n] = freqs[i]
		}

		log.Warn(ctx, "singular resolvent, bins left as NaN", logging.Any("frequencies", failed))
	}

	return resp, nil
}

// Summary reports a batch run.
type Summary struct {
	Processed int
	Skipped   []string // IDs of snapshots skipped as inconsistent
}

// RunAll processes every snapshot of src and hands each bundle to sink.
// With SkipInconsistent, snapshots failing with ErrConsistency are logged
// and skipped; any other failure stops the batch.
func (r *Runner) RunAll(ctx context.Context, src Source, sink func(*result.Bundle) error) (Summary, error) {
	var sum Summary

	for {
		snap, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return sum, nil
		}

		if err == nil {
			var b *result.Bundle
			if b, err = r.Run(ctx, snap); err == nil {
				if err = sink(b); err != nil {
					r.metrics.ObserveSnapshot(observability.OutcomeFailed)
					return sum, fmt.Errorf("pipeline: store %q: %w", snap.ID, err)
				}

				r.metrics.ObserveSnapshot(observability.OutcomeOK)
				sum.Processed++

				continue
			}
		}

		var se *SnapshotError
		if r.cfg.SkipInconsistent && errors.Is(err, ErrConsistency) && errors.As(err, &se) {
			r.log.Warn(ctx, "skipping inconsistent snapshot", logging.String("snapshot", se.ID), logging.Err(se.Err))
			r.metrics.ObserveSnapshot(observability.OutcomeSkipped)
			sum.Skipped = append(sum.Skipped, se.ID)

			continue
		}

		r.metrics.ObserveSnapshot(observability.OutcomeFailed)

		return sum, err
	}
}
