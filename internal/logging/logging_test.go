package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Writer: &buf})

	log.With(String("snapshot", "s1")).Info(context.Background(), "sweep done",
		Int("bins", 42), Float("seconds", 1.5), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}

	if rec["msg"] != "sweep done" || rec["snapshot"] != "s1" || rec["bins"] != float64(42) || rec["error"] != "boom" {
		t.Fatalf("record = %v", rec)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Writer: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
}

func TestRunLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Writer: &buf})

	ctx, log := WithRunLogger(context.Background(), base)

	id := RunIDFromContext(ctx)
	if id == "" {
		t.Fatal("no run id")
	}

	again, same := EnsureRunID(ctx)
	if same != id || RunIDFromContext(again) != id {
		t.Fatal("run id replaced")
	}

	log.Info(ctx, "x")
	FromContext(ctx).Info(ctx, "y")

	if n := strings.Count(buf.String(), id); n != 2 {
		t.Fatalf("run id appears %d times in %q", n, buf.String())
	}
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	log := FromContext(context.Background())
	log.With(String("a", "b")).Error(context.Background(), "dropped")

	if _, ok := log.(noopLogger); !ok {
		t.Fatalf("logger = %T, want noop", log)
	}
}
