// Package analysis post-processes stored runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: oscillation of a metric
//     series, e.g. the cloud breathing in mean_radius after an impulse
//   - [Project] and [ScatterToASCII]: a flat view of a position snapshot
//
// Spectra use go-dsp, so series need not be a power of two long.
package analysis
