// Package freqresp evaluates the small-signal frequency response of a
// reduced linear system to disturbances injected on algebraic variables.
//
// For every frequency f the state response to a unit injection on algebraic
// variable a is s = M(f)*B[:,a] with M(f) = (-A + j*2*pi*f*I)^-1, and the
// algebraic response is g = C*s - Jgy^-1[:,a]. Two propagation laws are
// supported:
//
//   - ModeTransfer: the complex responses scaled by a complex drive level v,
//     s*v and g*v (Bode-style transfer functions).
//   - ModePSD: the squared magnitudes scaled by an input PSD value v,
//     |s|^2*v and |g|^2*v (output PSD of a stochastic input).
//
// Frequency bins are independent and are evaluated in parallel.
package freqresp
