package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first len(data)/2 frequency
// bins of data after removing its mean. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}

	var mean float64
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantFrequency returns the frequency of the strongest non-DC bin of a
// spectrum computed from n samples taken interval apart, and its power.
func DominantFrequency(ps []float64, n int, interval float64) (freq, power float64) {
	if n <= 0 || interval <= 0 {
		return 0, 0
	}
	maxIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			power = ps[i]
			maxIdx = i
		}
	}
	return float64(maxIdx) / (float64(n) * interval), power
}
