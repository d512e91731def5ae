// Package spectrum estimates power spectral densities of sampled signals.
//
// [Welch] implements the averaged modified periodogram: traces are split into
// overlapping segments, each segment is mean-detrended and windowed, and the
// segment periodograms are combined by mean or bias-corrected median into a
// one-sided density in units^2/Hz. [Estimate.Band] restricts the result to a
// half-open frequency band and [Welch.Segments] produces one estimate per
// consecutive slice of a longer recording.
//
// The bin helpers ([Power], [Magnitude], [Phase], [UnwrapPhase],
// [InterpolateLinear]) operate on spectra produced elsewhere, such as complex
// transfer functions.
package spectrum
