//go:build fastmath

package core

import "github.com/meko-christian/algo-approx"

// ln10 is the natural logarithm of 10.
const ln10 = 2.30258509299404568401799145468436421

// log10 uses the fast natural-log approximation; views built on it are for
// display, not for further computation.
func log10(x float64) float64 {
	return approx.FastLog(x) / ln10
}
