// Package result packages sweep outputs for persistence.
//
// Assemble narrows a freqresp.Response to the variables of interest and
// attaches the frequency grid, the injection points, the reduced state matrix
// and the snapshot metadata. Bundles are written as zstd-compressed JSON;
// numeric arrays are stored as base64 little-endian float64 blocks so that
// NaN rows of failed bins survive the round trip.
package result
