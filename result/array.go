package result

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Float64s is a float64 slice encoded in JSON as base64 little-endian bytes.
type Float64s []float64

// MarshalJSON implements json.Marshaler.
func (f Float64s) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}

	buf := make([]byte, 8*len(f))
	for i, v := range f {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}

	return json.Marshal(buf)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float64s) UnmarshalJSON(data []byte) error {
	var buf []byte
	if err := json.Unmarshal(data, &buf); err != nil {
		return err
	}

	if buf == nil {
		*f = nil
		return nil
	}

	if len(buf)%8 != 0 {
		return fmt.Errorf("%w: %d bytes is not a float64 block", ErrCorrupt, len(buf))
	}

	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}

	*f = out

	return nil
}

// Matrix is a dense row-major matrix.
type Matrix struct {
	Rows int      `json:"rows"`
	Cols int      `json:"cols"`
	Data Float64s `json:"data"`
}

// NewMatrix copies m.
func NewMatrix(m mat.Matrix) *Matrix {
	if m == nil {
		return nil
	}

	r, c := m.Dims()

	return &Matrix{Rows: r, Cols: c, Data: mat.DenseCopyOf(m).RawMatrix().Data}
}

// Dense returns m as a gonum matrix.
func (m *Matrix) Dense() (*mat.Dense, error) {
	if m.Rows <= 0 || m.Cols <= 0 || len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("%w: %dx%d matrix with %d values", ErrCorrupt, m.Rows, m.Cols, len(m.Data))
	}

	return mat.NewDense(m.Rows, m.Cols, append([]float64(nil), m.Data...)), nil
}
