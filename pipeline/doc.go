// Package pipeline runs the frequency-response analysis of grid snapshots.
//
// A [Snapshot] is the immutable data exported by the upstream solver: the
// Jacobian, the reference reduced matrix, the variable index, the load and
// bus topology and the operating point. A [Runner] turns one snapshot into a
// [result.Bundle]:
//
//  1. reduce the Jacobian and check it against the reference matrix
//  2. resolve the configured loads to injection points
//  3. build the input drive: Welch spectra of synthesised OU traces in PSD
//     mode, the analytic OU amplitude (or a unit input) in transfer mode
//  4. sweep the frequency grid
//  5. select the variables of interest and package the result
//
// [Runner.RunAll] pulls snapshots from a [Source] and can skip snapshots
// that fail their consistency checks.
package pipeline
