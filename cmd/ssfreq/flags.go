package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-smallsignal/pipeline"
)

// options holds the flags that are not part of pipeline.Config.
type options struct {
	in, out     string
	configPath  string
	metricsAddr string
	printConfig bool
}

// overrideFlags registers one flag per config setting on fs. Only flags
// that are set on the command line become overrides, so values from a
// config file survive unless explicitly replaced.
type overrideFlags struct {
	fs  *flag.FlagSet
	set map[string]pipeline.Override
}

func newOverrideFlags(fs *flag.FlagSet) *overrideFlags {
	return &overrideFlags{fs: fs, set: make(map[string]pipeline.Override)}
}

func (o *overrideFlags) str(name, usage string, apply func(*pipeline.Config, string)) {
	o.fs.Func(name, usage, func(v string) error {
		o.set[name] = func(c *pipeline.Config) { apply(c, v) }
		return nil
	})
}

func (o *overrideFlags) float(name, usage string, apply func(*pipeline.Config, float64)) {
	o.fs.Func(name, usage, func(v string) error {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}

		o.set[name] = func(c *pipeline.Config) { apply(c, x) }

		return nil
	})
}

func (o *overrideFlags) integer(name, usage string, apply func(*pipeline.Config, int)) {
	o.fs.Func(name, usage, func(v string) error {
		x, err := strconv.Atoi(v)
		if err != nil {
			return err
		}

		o.set[name] = func(c *pipeline.Config) { apply(c, x) }

		return nil
	})
}

func (o *overrideFlags) boolean(name, usage string, apply func(*pipeline.Config, bool)) {
	o.fs.BoolFunc(name, usage, func(v string) error {
		x, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}

		o.set[name] = func(c *pipeline.Config) { apply(c, x) }

		return nil
	})
}

func (o *overrideFlags) floats(name, usage string, apply func(*pipeline.Config, []float64)) {
	o.fs.Func(name, usage, func(v string) error {
		xs, err := parseFloats(v)
		if err != nil {
			return err
		}

		o.set[name] = func(c *pipeline.Config) { apply(c, xs) }

		return nil
	})
}

// overrides returns the collected overrides in flag-name order.
func (o *overrideFlags) overrides() pipeline.Overrides {
	var out pipeline.Overrides

	o.fs.VisitAll(func(f *flag.Flag) {
		if fn, ok := o.set[f.Name]; ok {
			out = append(out, fn)
		}
	})

	return out
}

func parseFlags(fs *flag.FlagSet, args []string) (options, pipeline.Overrides, error) {
	var opts options

	fs.StringVar(&opts.in, "in", "", "directory of snapshot files (.json, .json.zst)")
	fs.StringVar(&opts.out, "out", "", "directory for result bundles")
	fs.StringVar(&opts.configPath, "config", "", "JSON config file (defaults apply to missing fields)")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.BoolVar(&opts.printConfig, "print-config", false, "print the effective config as JSON and exit")

	o := newOverrideFlags(fs)

	o.str("mode", "propagation mode: psd or transfer", func(c *pipeline.Config, v string) { c.Mode = v })
	o.str("loads", "comma-separated load names or glob patterns", func(c *pipeline.Config, v string) {
		c.Inject.Loads = splitList(v)
	})
	o.boolean("P", "perturb active power", func(c *pipeline.Config, v bool) { c.Inject.UseP = v })
	o.boolean("Q", "perturb reactive power", func(c *pipeline.Config, v bool) { c.Inject.UseQ = v })
	o.floats("dP", "relative P amplitude, one value or one per load", func(c *pipeline.Config, v []float64) {
		c.Inject.DP, c.Inject.SigmaP = v, nil
	})
	o.floats("sigmaP", "absolute P standard deviation, one value or one per load", func(c *pipeline.Config, v []float64) {
		c.Inject.SigmaP, c.Inject.DP = v, nil
	})
	o.floats("dQ", "relative Q amplitude, one value or one per load", func(c *pipeline.Config, v []float64) {
		c.Inject.DQ, c.Inject.SigmaQ = v, nil
	})
	o.floats("sigmaQ", "absolute Q standard deviation, one value or one per load", func(c *pipeline.Config, v []float64) {
		c.Inject.SigmaQ, c.Inject.DQ = v, nil
	})
	o.float("tau", "OU correlation time in seconds", func(c *pipeline.Config, v float64) { c.Inject.Tau = v })
	o.float("T", "noise duration in seconds", func(c *pipeline.Config, v float64) { c.Duration = v })
	o.float("dt", "noise sampling step in seconds", func(c *pipeline.Config, v float64) { c.Step = v })
	o.fs.Func("seed", "noise seed (default: random)", func(v string) error {
		x, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}

		o.set["seed"] = pipeline.WithSeed(x)

		return nil
	})
	o.float("fmin", "lower band edge in Hz (inclusive)", func(c *pipeline.Config, v float64) { c.FMin = v })
	o.float("fmax", "upper band edge in Hz (exclusive)", func(c *pipeline.Config, v float64) { c.FMax = v })
	o.str("window", "Welch window type", func(c *pipeline.Config, v string) { c.Window = v })
	o.float("window-seconds", "Welch segment length in seconds", func(c *pipeline.Config, v float64) { c.WindowSeconds = v })
	o.float("overlap", "Welch overlap fraction", func(c *pipeline.Config, v float64) { c.OverlapFraction = v })
	o.str("average", "Welch averaging: mean or median", func(c *pipeline.Config, v string) { c.Average = v })
	o.float("discard", "initial transient dropped before estimation, seconds", func(c *pipeline.Config, v float64) { c.Discard = v })
	o.str("drive", "transfer-mode input: ou or unit", func(c *pipeline.Config, v string) { c.Drive = v })
	o.str("grid-spacing", "transfer-mode grid spacing: dec, oct or lin", func(c *pipeline.Config, v string) { c.Grid.Spacing = v })
	o.float("grid-start", "grid start (exponent for dec, Hz otherwise)", func(c *pipeline.Config, v float64) { c.Grid.Start = v })
	o.float("grid-stop", "grid stop (exponent for dec, Hz otherwise)", func(c *pipeline.Config, v float64) { c.Grid.Stop = v })
	o.integer("grid-steps", "points per decade for dec, total points otherwise", func(c *pipeline.Config, v int) { c.Grid.Steps = v })
	o.str("select", "comma-separated variables or glob patterns to keep", func(c *pipeline.Config, v string) {
		c.Select = splitList(v)
	})
	o.integer("workers", "sweep workers (0: GOMAXPROCS)", func(c *pipeline.Config, v int) { c.Workers = v })
	o.boolean("skip-singular", "NaN-fill singular frequency bins instead of failing", func(c *pipeline.Config, v bool) {
		c.SkipSingular = v
	})
	o.boolean("skip-inconsistent", "skip snapshots failing consistency checks", func(c *pipeline.Config, v bool) {
		c.SkipInconsistent = v
	})

	if err := fs.Parse(args); err != nil {
		return opts, nil, err
	}

	return opts, o.overrides(), nil
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func parseFloats(s string) ([]float64, error) {
	parts := splitList(s)
	out := make([]float64, len(parts))

	for i, p := range parts {
		x, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}

		out[i] = x
	}

	return out, nil
}
