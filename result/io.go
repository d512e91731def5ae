package result

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// Write encodes b as zstd-compressed JSON.
func Write(w io.Writer, b *Bundle) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("result: zstd writer: %w", err)
	}

	if err := json.NewEncoder(zw).Encode(b); err != nil {
		_ = zw.Close()
		return fmt.Errorf("result: encode bundle %q: %w", b.ID, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("result: flush bundle %q: %w", b.ID, err)
	}

	return nil
}

// Read decodes and validates a bundle written by Write.
func Read(r io.Reader) (*Bundle, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("result: zstd reader: %w", err)
	}
	defer zr.Close()

	var b Bundle
	if err := json.NewDecoder(zr).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &b, nil
}

// WriteFile writes b to path, replacing any existing file.
func WriteFile(path string, b *Bundle) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("result: %w", cerr)
		}
	}()

	return Write(f, b)
}

// ReadFile reads a bundle from path.
func ReadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	defer f.Close()

	return Read(f)
}
