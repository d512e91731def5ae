package main

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-smallsignal/result"
)

func writeBundle(t *testing.T) string {
	t.Helper()

	b := &result.Bundle{
		Version:  result.Version,
		ID:       "snap 1",
		Mode:     "psd",
		Freqs:    []float64{0.1, 0.2, 0.3, 0.4},
		VarNames: []string{"G 1.speed", "Bus 1.ur"},
		Inputs:   []result.Input{{Name: "L1:P"}},
		Shape:    [3]int{1, 4, 2},
		Power: result.Float64s{
			1, math.NaN(),
			4, math.NaN(),
			2, math.NaN(),
			1, math.NaN(),
		},
	}

	name := filepath.Join(t.TempDir(), "snap 1.json.zst")
	if err := result.WriteFile(name, b); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return name
}

func TestInspectBundle(t *testing.T) {
	name := writeBundle(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{name}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, stderr.String())
	}

	out := stdout.String()

	if !strings.Contains(out, `id "snap 1", psd mode, 1 inputs, 4 bins`) {
		t.Fatalf("missing header:\n%s", out)
	}

	var speed, bus string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "G 1.speed"):
			speed = line
		case strings.HasPrefix(line, "Bus 1.ur"):
			bus = line
		}
	}

	if fields := strings.Fields(speed); len(fields) < 4 || fields[2] != "0.2000" || fields[3] != "6.02" {
		t.Fatalf("speed row = %q", speed)
	}

	if fields := strings.Fields(bus); len(fields) != 8 || fields[2] != "-" {
		t.Fatalf("all-NaN row = %q", bus)
	}
}

func TestInspectSelect(t *testing.T) {
	name := writeBundle(t)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-select", "Bus *", name}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d", code)
	}

	if strings.Contains(stdout.String(), "G 1.speed") {
		t.Fatalf("unselected variable printed:\n%s", stdout.String())
	}
}

func TestInspectErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("no args exit = %d", code)
	}

	if code := run([]string{filepath.Join(t.TempDir(), "missing.json.zst")}, &stdout, &stderr); code != 1 {
		t.Fatalf("missing file exit = %d", code)
	}
}

func TestInspectEstimator(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-estimator"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"hamming", "20000", "10000", "90000", "0.01", "Bins in band"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
}
