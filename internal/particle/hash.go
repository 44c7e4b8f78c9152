package particle

// Hash maps seed to a value in [0, 1) using a PCG-derived integer hash.
// It is a pure function, so kernels may call it from any lane.
func Hash(seed uint32) float64 {
	state := seed*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return float64((word>>22)^word) / (1 << 32)
}
