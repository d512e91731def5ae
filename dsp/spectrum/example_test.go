package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-smallsignal/dsp/spectrum"
	"github.com/cwbudde/algo-smallsignal/dsp/window"
	"github.com/cwbudde/algo-smallsignal/internal/testutil"
)

func ExampleWelch_Estimate() {
	w, _ := spectrum.NewWelch(
		spectrum.WithSampleRate(64),
		spectrum.WithSegment(64),
		spectrum.WithOverlap(0),
		spectrum.WithWindow(window.TypeRectangular),
	)

	x := testutil.DeterministicSine(8, 64, 2, 640)
	est, _ := w.Estimate(x)

	band, _ := est.Band(7, 10)
	for i, f := range band.Freqs {
		fmt.Printf("%.0f Hz: %.3f\n", f, band.PSD[0][i])
	}
	// Output:
	// 7 Hz: 0.000
	// 8 Hz: 2.000
	// 9 Hz: 0.000
}
