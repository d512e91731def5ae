package spectrum

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSegmentPlan is returned for segment plans with non-positive
// duration or count, or a negative start.
var ErrInvalidSegmentPlan = errors.New("spectrum: invalid segment plan")

// SegmentPlan slices a recording into Count consecutive pieces of Duration
// seconds, starting Start seconds into the recording.
type SegmentPlan struct {
	Start    float64
	Duration float64
	Count    int
}

// Segments runs the estimator on every piece described by plan. Each
// element of channels is one recorded channel sampled at the estimator's
// rate; the estimator's discard applies inside every piece.
func (w *Welch) Segments(channels [][]float64, plan SegmentPlan) ([]*Estimate, error) {
	if plan.Count <= 0 || !(plan.Duration > 0) || plan.Start < 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidSegmentPlan, plan)
	}

	if len(channels) == 0 {
		return nil, ErrNoTraces
	}

	start := int(math.Round(plan.Start * w.sampleRate))
	length := int(math.Round(plan.Duration * w.sampleRate))
	end := start + plan.Count*length

	for i, ch := range channels {
		if len(ch) < end {
			return nil, fmt.Errorf("%w: channel %d has %d samples, plan needs %d", ErrTooShort, i, len(ch), end)
		}
	}

	out := make([]*Estimate, plan.Count)
	piece := make([][]float64, len(channels))

	for s := range plan.Count {
		lo := start + s*length
		for i, ch := range channels {
			piece[i] = ch[lo : lo+length]
		}

		est, err := w.Estimate(piece...)
		if err != nil {
			return nil, fmt.Errorf("spectrum: segment %d: %w", s, err)
		}

		out[s] = est
	}

	return out, nil
}
