package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-smallsignal/dsp/core"
)

func ExampleFloorZeros() {
	psd := []float64{0, 0.5, 0}
	n := core.FloorZeros(psd)

	fmt.Println(n, psd)
	// Output:
	// 2 [1e-20 0.5 1e-20]
}
