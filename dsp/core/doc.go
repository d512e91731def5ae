// Package core holds numeric helpers shared by the spectral and
// frequency-response packages: the zero-floor sentinel that keeps
// logarithmic views finite, and decibel conversions.
package core
