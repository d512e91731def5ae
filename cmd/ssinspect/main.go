// Command ssinspect summarises result bundles and estimator settings.
//
// Usage:
//
//	ssinspect [flags] bundle.json.zst ...
//	ssinspect -estimator [-config study.json]
//
// For each bundle the output power is summed over all inputs and every
// variable gets one table row: peak frequency and level, band power,
// centroid, half-power bandwidth and 85 % rolloff. With -estimator it
// prints the Welch geometry a config implies instead.
//
// Examples:
//
//	ssinspect spectra/snap_001.json.zst
//	ssinspect -select 'G *.speed' spectra/*.json.zst
//	ssinspect -estimator -config study.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-smallsignal/dsp/spectrum"
	"github.com/cwbudde/algo-smallsignal/dsp/window"
	"github.com/cwbudde/algo-smallsignal/pipeline"
	"github.com/cwbudde/algo-smallsignal/result"
	"github.com/cwbudde/algo-smallsignal/stats/frequency"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ssinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	selectFlag := fs.String("select", "", "comma-separated variable names or glob patterns")
	estimator := fs.Bool("estimator", false, "print the Welch estimator geometry and exit")
	configPath := fs.String("config", "", "JSON config file for -estimator (default settings otherwise)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ssinspect [flags] bundle.json.zst ...\n")
		fmt.Fprintf(stderr, "       ssinspect -estimator [-config file]\n\n")
		fmt.Fprintf(stderr, "Summarises frequency-response bundles.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}

		return 2
	}

	if *estimator {
		if err := printEstimator(stdout, *configPath); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}

		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	var patterns []string
	for _, p := range strings.Split(*selectFlag, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	code := 0

	for _, name := range fs.Args() {
		b, err := result.ReadFile(name)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			code = 1

			continue
		}

		if err := printBundle(stdout, name, b, patterns); err != nil {
			fmt.Fprintf(stderr, "error: %s: %v\n", name, err)
			code = 1
		}
	}

	return code
}

func matches(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}

	return false
}

func printBundle(w io.Writer, name string, b *result.Bundle, patterns []string) error {
	if len(b.Freqs) == 0 {
		return errors.New("bundle has no frequency bins")
	}

	fmt.Fprintf(w, "%s: id %q, %s mode, %d inputs, %d bins [%g, %g] Hz, %d failed\n",
		name, b.ID, b.Mode, len(b.Inputs), len(b.Freqs), b.Freqs[0], b.Freqs[len(b.Freqs)-1], len(b.Failed))

	c := b.SumOverInputs()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Variable\tPeak [Hz]\tPeak [dB]\tBand power\tCentroid [Hz]\tBW 3dB [Hz]\tRolloff [Hz]\n")
	fmt.Fprintf(tw, "--------\t---------\t---------\t----------\t-------------\t-----------\t------------\n")

	for v, vn := range c.VarNames {
		if !matches(vn, patterns) {
			continue
		}

		s, err := c.Describe(v)
		if errors.Is(err, frequency.ErrNoBins) {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\n", vn)
			continue
		}

		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "%s\t%.4f\t%.2f\t%.4g\t%.4f\t%.4f\t%.4f\n",
			vn, s.PeakFreq, s.Peak_dB, s.Power, s.Centroid, s.Bandwidth, s.Rolloff)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	fmt.Fprintln(w)

	return nil
}

func printEstimator(w io.Writer, configPath string) error {
	cfg := pipeline.DefaultConfig()

	if configPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(configPath); err != nil {
			return err
		}
	}

	est, err := cfg.Estimator()
	if err != nil {
		return err
	}

	coeffs := window.Generate(est.Window(), est.Segment(), window.WithPeriodic())
	sum, _ := window.Sums(coeffs)

	enbw, err := window.EquivalentNoiseBandwidth(coeffs)
	if err != nil {
		return err
	}

	n := int(math.Round(cfg.Duration / cfg.Step))
	df := est.SampleRate() / float64(est.Segment())
	lo, hi := spectrum.BandIndices(est.Frequencies(), cfg.FMin, cfg.FMax)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Window", fmt.Sprintf("%v (periodic)", est.Window())},
		{"Sample rate [Hz]", fmt.Sprintf("%g", est.SampleRate())},
		{"Trace [samples]", fmt.Sprintf("%d", n)},
		{"Discard [samples]", fmt.Sprintf("%d", est.Discard())},
		{"Segment [samples]", fmt.Sprintf("%d", est.Segment())},
		{"Overlap [samples]", fmt.Sprintf("%d", est.Overlap())},
		{"Segments averaged", fmt.Sprintf("%d (%v)", est.SegmentCount(n), est.Average())},
		{"Resolution [Hz]", fmt.Sprintf("%g", df)},
		{"Coherent gain", fmt.Sprintf("%.6f", sum/float64(len(coeffs)))},
		{"ENBW [bins]", fmt.Sprintf("%.4f", enbw)},
		{"ENBW [Hz]", fmt.Sprintf("%.6g", enbw*df)},
		{"Band [Hz]", fmt.Sprintf("[%g, %g)", cfg.FMin, cfg.FMax)},
		{"Bins in band", fmt.Sprintf("%d", hi-lo)},
	}

	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}

	return tw.Flush()
}
