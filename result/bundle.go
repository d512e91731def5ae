package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-smallsignal/freqresp"
	"github.com/cwbudde/algo-smallsignal/inject"
)

// Errors returned by assembly, views and decoding.
var (
	ErrShape          = errors.New("result: response does not match the index")
	ErrModeMismatch   = errors.New("result: view not available for this mode")
	ErrCorrupt        = errors.New("result: corrupt bundle")
	ErrUnknownGen     = errors.New("result: generator missing from metadata")
	ErrNoGenDispatch  = errors.New("result: generator missing from power flow")
	ErrInvalidVersion = errors.New("result: unsupported bundle version")
)

// generatorSuffix marks generator entries that the power-flow export renamed.
const generatorSuffix = "____GEN_____"

// Version is the current bundle layout version.
const Version = 1

// Input describes one injection point of a bundle.
type Input struct {
	Name         string  `json:"name"`
	Load         string  `json:"load"`
	Bus          string  `json:"bus"`
	ConnectedBus string  `json:"connected_bus"`
	Quantity     string  `json:"quantity"`
	AlgIndex     int     `json:"alg_index"`
	StdDev       float64 `json:"stddev"`
	Tau          float64 `json:"tau"`
}

// InputsFrom converts resolved injection points.
func InputsFrom(points []inject.Point) []Input {
	out := make([]Input, len(points))
	for i, p := range points {
		out[i] = Input{
			Name:         p.Name(),
			Load:         p.Load,
			Bus:          p.Bus,
			ConnectedBus: p.ConnectedBus,
			Quantity:     p.Quantity.String(),
			AlgIndex:     p.AlgIndex,
			StdDev:       p.StdDev,
			Tau:          p.Tau,
		}
	}

	return out
}

// Generator carries per-machine metadata.
type Generator struct {
	Name string  `json:"name"`
	H    float64 `json:"H"` // inertia constant, s
	S    float64 `json:"S"` // rating, MVA
	P    float64 `json:"P"` // dispatched active power
	Q    float64 `json:"Q"` // dispatched reactive power
}

// OperatingPoint is the power-flow solution echoed into a bundle.
type OperatingPoint struct {
	Loads      map[string]inject.LoadPower `json:"loads,omitempty"`
	Generators map[string]inject.LoadPower `json:"SMs,omitempty"`
}

// Generators builds generator metadata in the order of names. Dispatch is
// looked up under the plain name first and then under the name with the
// power-flow generator suffix.
func Generators(names []string, h, s map[string]float64, op *OperatingPoint) ([]Generator, error) {
	out := make([]Generator, len(names))

	for i, name := range names {
		hv, okH := h[name]
		sv, okS := s[name]

		if !okH || !okS {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGen, name)
		}

		g := Generator{Name: name, H: hv, S: sv}

		if op != nil {
			pq, ok := op.Generators[name]
			if !ok {
				pq, ok = op.Generators[name+generatorSuffix]
			}

			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrNoGenDispatch, name)
			}

			g.P, g.Q = pq.P, pq.Q
		}

		out[i] = g
	}

	return out, nil
}

// Metadata is echoed snapshot information.
type Metadata struct {
	Generators     []Generator         `json:"generators,omitempty"`
	Buses          []string            `json:"bus_names,omitempty"`
	Htot           float64             `json:"Htot"`
	Etot           float64             `json:"Etot"`
	Mtot           float64             `json:"Mtot"`
	OperatingPoint *OperatingPoint     `json:"PF,omitempty"`
	BusEquiv       map[string][]string `json:"bus_equiv_terms,omitempty"`
	Config         json.RawMessage     `json:"config,omitempty"`
}

// Bundle is the persisted result of one snapshot.
//
// The response tensor is indexed (input, frequency, variable) and stored
// row-major: as Power in PSD mode, as Real and Imag in transfer mode.
type Bundle struct {
	Version  int       `json:"version"`
	ID       string    `json:"id"`
	Mode     string    `json:"mode"`
	Freqs    []float64 `json:"F"`
	VarNames []string  `json:"var_names"`
	Inputs   []Input   `json:"inputs"`
	Shape    [3]int    `json:"shape"`

	Power Float64s `json:"psd,omitempty"`
	Real  Float64s `json:"tf_re,omitempty"`
	Imag  Float64s `json:"tf_im,omitempty"`

	// Failed lists frequency bins whose rows are NaN.
	Failed []int `json:"failed,omitempty"`

	A    *Matrix  `json:"A,omitempty"`
	Meta Metadata `json:"meta"`
}

// Transfer reports whether the bundle holds complex transfer functions.
func (b *Bundle) Transfer() bool {
	return b.Mode == freqresp.ModeTransfer.String()
}

func (b *Bundle) offset(k, i int) int {
	return (k*b.Shape[1] + i) * b.Shape[2]
}

// At returns entry (input k, bin i, variable v).
func (b *Bundle) At(k, i, v int) complex128 {
	off := b.offset(k, i) + v
	if b.Transfer() {
		return complex(b.Real[off], b.Imag[off])
	}

	return complex(b.Power[off], 0)
}

// PowerAt returns the output power of entry (k, i, v): the PSD in PSD mode
// and |H|^2 in transfer mode.
func (b *Bundle) PowerAt(k, i, v int) float64 {
	off := b.offset(k, i) + v
	if b.Transfer() {
		re, im := b.Real[off], b.Imag[off]
		return re*re + im*im
	}

	return b.Power[off]
}

// Variable returns the column of name, or -1.
func (b *Bundle) Variable(name string) int {
	for i, n := range b.VarNames {
		if n == name {
			return i
		}
	}

	return -1
}

// Validate checks internal consistency after decoding.
func (b *Bundle) Validate() error {
	if b.Version != Version {
		return fmt.Errorf("%w: %d", ErrInvalidVersion, b.Version)
	}

	if _, err := freqresp.ParseMode(b.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	in, nf, nv := b.Shape[0], b.Shape[1], b.Shape[2]
	if in != len(b.Inputs) || nf != len(b.Freqs) || nv != len(b.VarNames) {
		return fmt.Errorf("%w: shape %v for %d inputs, %d freqs, %d vars",
			ErrCorrupt, b.Shape, len(b.Inputs), len(b.Freqs), len(b.VarNames))
	}

	size := in * nf * nv
	if b.Transfer() {
		if len(b.Real) != size || len(b.Imag) != size {
			return fmt.Errorf("%w: %d/%d complex values for shape %v", ErrCorrupt, len(b.Real), len(b.Imag), b.Shape)
		}
	} else if len(b.Power) != size {
		return fmt.Errorf("%w: %d values for shape %v", ErrCorrupt, len(b.Power), b.Shape)
	}

	if !sort.IntsAreSorted(b.Failed) {
		return fmt.Errorf("%w: failed bins not sorted", ErrCorrupt)
	}

	for _, i := range b.Failed {
		if i < 0 || i >= nf {
			return fmt.Errorf("%w: failed bin %d out of range", ErrCorrupt, i)
		}
	}

	return nil
}
