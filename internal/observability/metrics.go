// Package observability wires Prometheus metrics and OpenTelemetry tracing
// into snapshot processing.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Snapshot outcomes used as the outcome label.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// SweepCollector bundles the Prometheus metrics of frequency sweeps.
type SweepCollector struct {
	gatherer prometheus.Gatherer

	Bins          prometheus.Counter
	FailedBins    prometheus.Counter
	SweepDuration prometheus.Histogram
	Snapshots     *prometheus.CounterVec
}

// NewSweepCollector registers sweep metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice on the same
// registry returns the existing collectors.
func NewSweepCollector(reg prometheus.Registerer) (*SweepCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	bins, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ssfreq_frequency_bins_total",
		Help: "Frequency bins evaluated across all sweeps.",
	}), "ssfreq_frequency_bins_total")
	if err != nil {
		return nil, err
	}

	failed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ssfreq_frequency_bins_failed_total",
		Help: "Frequency bins skipped because the resolvent was singular.",
	}), "ssfreq_frequency_bins_failed_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ssfreq_sweep_duration_seconds",
		Help:    "Wall time of one frequency sweep.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}), "ssfreq_sweep_duration_seconds")
	if err != nil {
		return nil, err
	}

	snapshots, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ssfreq_snapshots_total",
		Help: "Processed snapshots, labeled by outcome.",
	}, []string{"outcome"}), "ssfreq_snapshots_total")
	if err != nil {
		return nil, err
	}

	return &SweepCollector{
		gatherer:      gatherer,
		Bins:          bins,
		FailedBins:    failed,
		SweepDuration: duration,
		Snapshots:     snapshots,
	}, nil
}

// ObserveSweep records one finished sweep. It is safe on a nil collector.
func (c *SweepCollector) ObserveSweep(bins, failed int, elapsed time.Duration) {
	if c == nil {
		return
	}

	c.Bins.Add(float64(bins))
	c.FailedBins.Add(float64(failed))
	c.SweepDuration.Observe(elapsed.Seconds())
}

// ObserveSnapshot counts one snapshot outcome. It is safe on a nil collector.
func (c *SweepCollector) ObserveSnapshot(outcome string) {
	if c == nil {
		return
	}

	c.Snapshots.WithLabelValues(outcome).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SweepCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}

	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}

			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}

		return nil, err
	}

	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}

			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}

		return nil, err
	}

	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}

			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}

		return nil, err
	}

	return h, nil
}
