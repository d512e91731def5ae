package result

import (
	"fmt"

	"github.com/cwbudde/algo-smallsignal/freqresp"
	"github.com/cwbudde/algo-smallsignal/inject"
	"github.com/cwbudde/algo-smallsignal/system"
	"gonum.org/v1/gonum/mat"
)

// Spec carries everything Assemble attaches to a response.
type Spec struct {
	ID string

	// Select lists full variable names or glob patterns ("G *.speed"). An
	// empty list keeps every variable.
	Select []string

	Points []inject.Point
	A      mat.Matrix
	Meta   Metadata
}

// Assemble keeps the selected output variables of resp, in index order, and
// packages them with the grid, injection points, reduced matrix and
// metadata. Input and frequency axes are preserved.
func Assemble(resp *freqresp.Response, ix *system.Index, spec Spec) (*Bundle, error) {
	if resp.Outputs != ix.Len() || resp.NumState != ix.NumState() {
		return nil, fmt.Errorf("%w: %d outputs (%d states) for %d variables (%d states)",
			ErrShape, resp.Outputs, resp.NumState, ix.Len(), ix.NumState())
	}

	if spec.Points != nil && len(spec.Points) != resp.Inputs {
		return nil, fmt.Errorf("%w: %d points for %d inputs", ErrShape, len(spec.Points), resp.Inputs)
	}

	cols, err := ix.Select(spec.Select)
	if err != nil {
		return nil, err
	}

	inputs := InputsFrom(spec.Points)
	if spec.Points == nil {
		inputs = make([]Input, resp.Inputs)
		for k := range inputs {
			inputs[k] = Input{Name: fmt.Sprintf("input %d", k), AlgIndex: -1}
		}
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = ix.At(c).FullName()
	}

	nin, nf, nv := resp.Inputs, len(resp.Freqs), len(cols)

	b := &Bundle{
		Version:  Version,
		ID:       spec.ID,
		Mode:     resp.Mode.String(),
		Freqs:    append([]float64(nil), resp.Freqs...),
		VarNames: names,
		Inputs:   inputs,
		Shape:    [3]int{nin, nf, nv},
		Failed:   append([]int(nil), resp.Failed...),
		A:        NewMatrix(spec.A),
		Meta:     spec.Meta,
	}

	size := nin * nf * nv

	if resp.Mode == freqresp.ModeTransfer {
		b.Real = make(Float64s, size)
		b.Imag = make(Float64s, size)
	} else {
		b.Power = make(Float64s, size)
	}

	for k := range nin {
		for i := range nf {
			off := b.offset(k, i)

			if resp.Mode == freqresp.ModeTransfer {
				row := resp.ComplexRow(k, i)
				for v, c := range cols {
					b.Real[off+v] = real(row[c])
					b.Imag[off+v] = imag(row[c])
				}
			} else {
				row := resp.PowerRow(k, i)
				for v, c := range cols {
					b.Power[off+v] = row[c]
				}
			}
		}
	}

	return b, nil
}
