package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source yields snapshots one at a time. Next returns io.EOF when the source
// is exhausted.
type Source interface {
	Next(ctx context.Context) (*Snapshot, error)
}

// Snapshot file extensions recognised by DirSource.
const (
	ExtJSON = ".json"
	ExtZstd = ".json.zst"
)

// DirSource reads the snapshot files of a directory in lexical order. The
// snapshot ID is the file name without extension.
type DirSource struct {
	files []string
	next  int
}

// NewDirSource lists the .json and .json.zst files of dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	var files []string

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		if name := e.Name(); strings.HasSuffix(name, ExtJSON) || strings.HasSuffix(name, ExtZstd) {
			files = append(files, filepath.Join(dir, name))
		}
	}

	sort.Strings(files)

	return &DirSource{files: files}, nil
}

// Len returns the number of snapshot files.
func (d *DirSource) Len() int { return len(d.files) }

// Next decodes the next file. Decoding failures are returned as
// SnapshotErrors so that batch runs can skip them.
func (d *DirSource) Next(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d.next >= len(d.files) {
		return nil, io.EOF
	}

	path := d.files[d.next]
	d.next++

	id := SnapshotID(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, &SnapshotError{ID: id, Err: err}
	}
	defer f.Close()

	var snap *Snapshot
	if strings.HasSuffix(path, ExtZstd) {
		snap, err = ReadSnapshot(id, f)
	} else {
		snap, err = DecodeSnapshot(id, f)
	}

	if err != nil {
		return nil, &SnapshotError{ID: id, Err: err}
	}

	return snap, nil
}

// SnapshotID strips the directory and snapshot extension from path.
func SnapshotID(path string) string {
	base := filepath.Base(path)
	if s, ok := strings.CutSuffix(base, ExtZstd); ok {
		return s
	}

	return strings.TrimSuffix(base, ExtJSON)
}

// SliceSource yields in-memory snapshots.
type SliceSource struct {
	snaps []*Snapshot
}

// Snapshots returns a Source over snaps.
func Snapshots(snaps ...*Snapshot) *SliceSource {
	return &SliceSource{snaps: snaps}
}

func (s *SliceSource) Next(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(s.snaps) == 0 {
		return nil, io.EOF
	}

	snap := s.snaps[0]
	s.snaps = s.snaps[1:]

	return snap, nil
}
