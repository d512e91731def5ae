package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-smallsignal/internal/testutil"
	"github.com/cwbudde/algo-smallsignal/result"
	"github.com/cwbudde/algo-smallsignal/system"
)

func TestSnapshotRoundTrip(t *testing.T) {
	want := testSnapshot(t, "s")

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, want); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, err := ReadSnapshot("s", &buf)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	testutil.RequireMatrixNearlyEqual(t, got.Jacobian, want.Jacobian, 0)
	testutil.RequireMatrixNearlyEqual(t, got.Reference, want.Reference, 0)

	if got.Index.NumState() != 2 || got.Index.Len() != 4 {
		t.Fatalf("index = %d/%d", got.Index.NumState(), got.Index.Len())
	}

	for row := range 4 {
		if got.Index.At(row) != want.Index.At(row) {
			t.Fatalf("row %d = %+v, want %+v", row, got.Index.At(row), want.Index.At(row))
		}
	}

	if got.Topology.LoadBus["Load 2"] != "Bus 1x" || got.Topology.LoadPower["Load 1"].Q != 2 {
		t.Fatalf("topology = %+v", got.Topology)
	}

	if got.OperatingPoint.Generators["G 1____GEN_____"].P != 80 || got.Etot != 500 || string(got.Config) != `{"grid":"test"}` {
		t.Fatalf("metadata lost")
	}
}

func TestDecodeSnapshotErrors(t *testing.T) {
	snap := testSnapshot(t, "s")

	encode := func(s *Snapshot) []byte {
		var buf bytes.Buffer
		if err := EncodeSnapshot(&buf, s); err != nil {
			t.Fatalf("EncodeSnapshot: %v", err)
		}

		return buf.Bytes()
	}

	noRef := *snap
	noRef.Reference = nil

	both := *snap
	both.Sparse = &system.SparseJacobian{N: 4}

	ix, err := system.NewIndex([]system.Variable{{Component: "G 1", Name: "delta", State: true}})
	if err != nil {
		t.Fatal(err)
	}

	small := *snap
	small.Index = ix

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"syntax", []byte("{"), ErrSnapshot},
		{"no reference", encode(&noRef), ErrMissingReference},
		{"two jacobians", encode(&both), ErrSnapshot},
		{"size", encode(&small), ErrSnapshot},
		{"state order", []byte(`{"J":{"rows":1,"cols":1,"data":"AAAAAAAA8D8="},"A":{"rows":1,"cols":1,"data":"AAAAAAAA8D8="},
			"vars_idx":{"B":{"ur":0},"G":{"w":1}},"state_vars":{"G":["w"]}}`), system.ErrStateOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot("s", bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}

			if Classify(err) != ErrConsistency {
				t.Fatalf("class = %v, want ErrConsistency", Classify(err))
			}
		})
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, fn func(io.Writer, *Snapshot) error, s *Snapshot) {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		if err := fn(f, s); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write("a.json.zst", WriteSnapshot, testSnapshot(t, "ignored"))
	write("b.json", EncodeSnapshot, inconsistent(t, "ignored"))
	write("c.json", EncodeSnapshot, testSnapshot(t, "ignored"))

	if err := os.WriteFile(filepath.Join(dir, "d.json"), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o600); err != nil {
		t.Fatal(err)
	}

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}

	if src.Len() != 4 {
		t.Fatalf("files = %d, want 4", src.Len())
	}

	cfg := fastConfig()
	cfg.SkipInconsistent = true

	out := t.TempDir()
	sink := func(b *result.Bundle) error {
		return result.WriteFile(filepath.Join(out, b.ID+ExtZstd), b)
	}

	sum, err := mustRunner(t, cfg).RunAll(context.Background(), src, sink)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}

	if sum.Processed != 2 || len(sum.Skipped) != 2 || sum.Skipped[0] != "b" || sum.Skipped[1] != "d" {
		t.Fatalf("summary = %+v", sum)
	}

	b, err := result.ReadFile(filepath.Join(out, "a"+ExtZstd))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if b.ID != "a" || b.Shape != [3]int{2, 9, 4} {
		t.Fatalf("bundle = %s %v", b.ID, b.Shape)
	}
}

func TestSnapshotID(t *testing.T) {
	for path, want := range map[string]string{
		"/x/y/run_01.json.zst": "run_01",
		"run_02.json":          "run_02",
		"z/run.3.json":         "run.3",
	} {
		if got := SnapshotID(path); got != want {
			t.Fatalf("SnapshotID(%q) = %q, want %q", path, got, want)
		}
	}
}
