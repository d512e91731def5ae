package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-smallsignal/dsp/spectrum"
	"github.com/cwbudde/algo-smallsignal/dsp/window"
	"github.com/cwbudde/algo-smallsignal/freqresp"
	"github.com/cwbudde/algo-smallsignal/inject"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); !errors.Is(err, inject.ErrNoLoads) {
		t.Fatalf("err = %v, want ErrNoLoads", err)
	}

	cfg.Inject.Loads = []string{"Load 03", "Load 21"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	w, err := cfg.Estimator()
	if err != nil {
		t.Fatalf("Estimator: %v", err)
	}

	if w.Segment() != 20000 || w.Overlap() != 10000 || w.Discard() != 50 || w.Window() != window.TypeHamming {
		t.Fatalf("welch = %d/%d/%d/%v", w.Segment(), w.Overlap(), w.Discard(), w.Window())
	}
}

func TestEstimatorRejectsBadSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Step = 0

	if _, err := cfg.Estimator(); !errors.Is(err, ErrInvalidTiming) || !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidTiming", err)
	}

	cfg = DefaultConfig()
	cfg.WindowSeconds = 1000

	if _, err := cfg.Estimator(); !errors.Is(err, spectrum.ErrTooShort) {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"band order", func(c *Config) { c.FMin, c.FMax = 1, 0.5 }, ErrInvalidBand},
		{"negative fmin", func(c *Config) { c.FMin = -1 }, ErrInvalidBand},
		{"timing", func(c *Config) { c.Step = 0 }, ErrInvalidTiming},
		{"short run", func(c *Config) { c.Duration = 0.01 }, ErrInvalidTiming},
		{"window name", func(c *Config) { c.Window = "parzen-ish" }, window.ErrUnknownType},
		{"window length", func(c *Config) { c.WindowSeconds = 0 }, ErrInvalidWindow},
		{"window too long", func(c *Config) { c.WindowSeconds = 60 }, spectrum.ErrTooShort},
		{"overlap", func(c *Config) { c.OverlapFraction = 1 }, ErrInvalidOverlap},
		{"average", func(c *Config) { c.Average = "mode" }, spectrum.ErrUnknownAverage},
		{"discard", func(c *Config) { c.Discard = -1 }, ErrInvalidDiscard},
		{"empty band", func(c *Config) { c.FMin, c.FMax = 0.11, 0.19 }, spectrum.ErrEmptyBand},
		{"mode", func(c *Config) { c.Mode = "bode" }, freqresp.ErrUnknownMode},
		{"drive", func(c *Config) { c.Mode, c.Drive = "transfer", "step" }, ErrUnknownDrive},
		{"grid", func(c *Config) { c.Mode, c.Grid.Spacing = "transfer", "log2" }, freqresp.ErrUnknownSpacing},
		{"grid range", func(c *Config) { c.Mode, c.Grid.Start, c.Grid.Stop = "transfer", 2, -3 }, freqresp.ErrInvalidGrid},
		{"workers", func(c *Config) { c.Workers = -2 }, ErrInvalidWorkers},
		{"amplitude", func(c *Config) { c.Inject.SigmaP = []float64{1} }, inject.ErrAmbiguousAmplitude},
		{"quantity", func(c *Config) { c.Inject.UseP = false }, inject.ErrNoQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fastConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("err = %v, not a configuration error", err)
			}

			if _, err := NewRunner(cfg); !errors.Is(err, tt.want) {
				t.Fatalf("NewRunner err = %v", err)
			}
		})
	}
}

func TestConfigValidateReportsAll(t *testing.T) {
	cfg := fastConfig()
	cfg.FMin, cfg.FMax = 2, 1
	cfg.Window = "nope"
	cfg.Workers = -1

	err := cfg.Validate()
	for _, want := range []error{ErrInvalidBand, window.ErrUnknownType, ErrInvalidWorkers} {
		if !errors.Is(err, want) {
			t.Fatalf("err = %v, missing %v", err, want)
		}
	}
}

func TestTransferModeIgnoresEstimator(t *testing.T) {
	cfg := fastConfig()
	cfg.Mode = "transfer"
	cfg.WindowSeconds = 0
	cfg.FMin, cfg.FMax = 3, 1

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	freqs, err := cfg.grid()
	if err != nil {
		t.Fatalf("grid: %v", err)
	}

	if len(freqs) != 501 || freqs[0] != 1e-3 || freqs[500] != 100 {
		t.Fatalf("grid = %d points [%v, %v]", len(freqs), freqs[0], freqs[len(freqs)-1])
	}
}

func TestOverridesRestore(t *testing.T) {
	cfg := fastConfig()
	cfg.Inject.Loads = []string{"Load 1"}

	restore := Overrides{
		WithMode("transfer"),
		WithLoads("Load 2", "Load 3"),
		WithSeed(99),
		WithBand(0.2, 0.4),
		func(c *Config) { c.Inject.DP[0] = 0.5 },
	}.Apply(&cfg)

	if cfg.Mode != "transfer" || len(cfg.Inject.Loads) != 2 || *cfg.Seed != 99 || cfg.FMax != 0.4 || cfg.Inject.DP[0] != 0.5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	restore()

	if cfg.Mode != "psd" || cfg.Inject.Loads[0] != "Load 1" || *cfg.Seed != 3 || cfg.FMax != 0.95 || cfg.Inject.DP[0] != 0.01 {
		t.Fatalf("not restored: %+v", cfg)
	}
}

func TestOverridesRestoreOnPanic(t *testing.T) {
	cfg := fastConfig()

	func() {
		defer func() { _ = recover() }()

		restore := Overrides{WithMode("transfer")}.Apply(&cfg)
		defer restore()

		panic("run aborted")
	}()

	if cfg.Mode != "psd" {
		t.Fatalf("mode = %q after panic", cfg.Mode)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	data := `{"inject": {"loads": ["Load 03"], "use_q": true, "sigmaQ": [0.2], "tau": 0.05}, "fmax": 2, "average": "median"}`

	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.FMax != 2 || cfg.Average != "median" || cfg.Inject.Tau != 0.05 || !cfg.Inject.UseQ {
		t.Fatalf("cfg = %+v", cfg)
	}

	// Nested fields merge into the defaults.
	if !cfg.Inject.UseP || len(cfg.Inject.DP) != 1 || cfg.Inject.SigmaQ[0] != 0.2 {
		t.Fatalf("inject = %+v", cfg.Inject)
	}

	if cfg.Duration != 450 || cfg.Window != "hamming" {
		t.Fatalf("defaults lost: %+v", cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
