// Command ssfreq computes small-signal frequency responses of grid snapshots.
//
// Usage:
//
//	ssfreq -in <snapshot-dir> -out <bundle-dir> [flags]
//
// Every .json or .json.zst snapshot in the input directory is reduced,
// checked against its reference matrix and swept over the configured band.
// One compressed result bundle per snapshot is written to the output
// directory.
//
// Examples:
//
//	ssfreq -in jaco -out spectra -loads 'Load 03,Load 21' -dP 0.01
//	ssfreq -in jaco -out tf -mode transfer -loads 'Load *' -grid-steps 50
//	ssfreq -config study.json -in jaco -out spectra -seed 7 -skip-inconsistent
//	ssfreq -config study.json -print-config
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cwbudde/algo-smallsignal/internal/logging"
	"github.com/cwbudde/algo-smallsignal/internal/observability"
	"github.com/cwbudde/algo-smallsignal/pipeline"
	"github.com/cwbudde/algo-smallsignal/result"
	"github.com/prometheus/client_golang/prometheus"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("ssfreq", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ssfreq -in <snapshot-dir> -out <bundle-dir> [flags]\n\n")
		fmt.Fprintf(fs.Output(), "Computes small-signal frequency responses of grid snapshots.\n")
		fmt.Fprintf(fs.Output(), "Logging follows LOG_LEVEL and LOG_FORMAT, tracing SSFREQ_TRACING_*.\n\n")
		fmt.Fprintf(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
	}

	opts, overrides, err := parseFlags(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}

		return exitConfig
	}

	log := logging.NewFromEnv()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		log.Error(ctx, "cannot load config", logging.Err(err))
		return exitConfig
	}

	restore := overrides.Apply(&cfg)
	defer restore()

	if opts.printConfig {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(cfg); err != nil {
			return exitFailure
		}

		return exitOK
	}

	if opts.in == "" || opts.out == "" {
		fs.Usage()
		return exitConfig
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "cannot initialise tracing", logging.Err(err))
		return exitFailure
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	reg := prometheus.NewRegistry()

	metrics, err := observability.NewSweepCollector(reg)
	if err != nil {
		log.Error(ctx, "cannot register metrics", logging.Err(err))
		return exitFailure
	}

	if opts.metricsAddr != "" {
		srv := serveMetrics(ctx, opts.metricsAddr, metrics, log)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	ctx, log = logging.WithRunLogger(ctx, log)

	runner, err := pipeline.NewRunner(cfg, pipeline.WithLogger(log), pipeline.WithMetrics(metrics))
	if err != nil {
		log.Error(ctx, "invalid configuration", logging.Err(err))
		return exitConfig
	}

	src, err := pipeline.NewDirSource(opts.in)
	if err != nil {
		log.Error(ctx, "cannot list snapshots", logging.Err(err))
		return exitFailure
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		log.Error(ctx, "cannot create output directory", logging.Err(err))
		return exitFailure
	}

	log.Info(ctx, "starting", logging.Int("snapshots", src.Len()), logging.String("mode", cfg.Mode))

	sink := func(b *result.Bundle) error {
		path := filepath.Join(opts.out, b.ID+pipeline.ExtZstd)
		if err := result.WriteFile(path, b); err != nil {
			return err
		}

		log.Info(ctx, "bundle written", logging.String("path", path))

		return nil
	}

	sum, err := runner.RunAll(ctx, src, sink)
	if err != nil {
		log.Error(ctx, "run failed", logging.Err(err), logging.Int("processed", sum.Processed))

		if errors.Is(err, pipeline.ErrConfiguration) {
			return exitConfig
		}

		return exitFailure
	}

	log.Info(ctx, "done", logging.Int("processed", sum.Processed), logging.Strings("skipped", sum.Skipped))

	return exitOK
}

func loadConfig(path string) (pipeline.Config, error) {
	if path == "" {
		return pipeline.DefaultConfig(), nil
	}

	return pipeline.LoadConfig(path)
}

func serveMetrics(ctx context.Context, addr string, c *observability.SweepCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server stopped", logging.Err(err))
		}
	}()

	log.Info(ctx, "serving metrics", logging.String("addr", addr))

	return srv
}
