package freqresp

import "math"

// Response holds the sweep output indexed by (input k, frequency bin i,
// output variable v), stored row-major in Complex (ModeTransfer) or Power
// (ModePSD). Output variables follow the index order: Ns states then Na
// algebraic variables.
type Response struct {
	Mode     Mode
	Freqs    []float64
	Inputs   int
	Outputs  int
	NumState int

	Complex []complex128
	Power   []float64

	// Failed lists bins that could not be evaluated. Their rows are NaN.
	Failed []int
}

func newResponse(mode Mode, freqs []float64, inputs, numState, outputs int) *Response {
	r := &Response{
		Mode:     mode,
		Freqs:    append([]float64(nil), freqs...),
		Inputs:   inputs,
		Outputs:  outputs,
		NumState: numState,
	}

	size := inputs * len(freqs) * outputs
	if mode == ModeTransfer {
		r.Complex = make([]complex128, size)
	} else {
		r.Power = make([]float64, size)
	}

	return r
}

func (r *Response) offset(k, i int) int {
	return (k*len(r.Freqs) + i) * r.Outputs
}

// Shape returns the tensor dimensions.
func (r *Response) Shape() (inputs, freqs, outputs int) {
	return r.Inputs, len(r.Freqs), r.Outputs
}

// At returns entry (k, i, v). PSD values are returned as real complex
// numbers.
func (r *Response) At(k, i, v int) complex128 {
	off := r.offset(k, i) + v
	if r.Mode == ModeTransfer {
		return r.Complex[off]
	}

	return complex(r.Power[off], 0)
}

// ComplexRow returns the output vector of input k at bin i without copying.
// It is nil in ModePSD.
func (r *Response) ComplexRow(k, i int) []complex128 {
	if r.Complex == nil {
		return nil
	}

	off := r.offset(k, i)

	return r.Complex[off : off+r.Outputs : off+r.Outputs]
}

// PowerRow returns the output vector of input k at bin i without copying.
// It is nil in ModeTransfer.
func (r *Response) PowerRow(k, i int) []float64 {
	if r.Power == nil {
		return nil
	}

	off := r.offset(k, i)

	return r.Power[off : off+r.Outputs : off+r.Outputs]
}

// Complete reports whether every bin was evaluated.
func (r *Response) Complete() bool { return len(r.Failed) == 0 }

func (r *Response) fillNaN(i int) {
	nan := math.NaN()

	for k := range r.Inputs {
		if r.Mode == ModeTransfer {
			row := r.ComplexRow(k, i)
			for v := range row {
				row[v] = complex(nan, nan)
			}
		} else {
			row := r.PowerRow(k, i)
			for v := range row {
				row[v] = nan
			}
		}
	}
}
