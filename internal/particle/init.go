package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultCloudRadius = 30.0
	DefaultInnerRadius = 20.0
)

// InitKernel places particle i on a hollow spherical shell and assigns it a
// color. The result depends only on i and the kernel fields.
type InitKernel struct {
	CloudRadius float64
	InnerRadius float64
	Seed        uint32
}

func NewInitKernel() InitKernel {
	return InitKernel{CloudRadius: DefaultCloudRadius, InnerRadius: DefaultInnerRadius}
}

func (InitKernel) Name() string { return "init" }

func (k InitKernel) Apply(s *Store, _ *Params, i int) {
	idx := uint32(i) + k.Seed

	randX := Hash(idx)
	randY := Hash(idx + 2)
	randZ := Hash(idx + 3)
	inclination := Hash(idx*100) * math.Pi
	azimuth := Hash(idx*200) * 2 * math.Pi

	sinInc, cosInc := math.Sincos(inclination)
	sinAz, cosAz := math.Sincos(azimuth)

	pos := r3.Vec{
		X: randX * k.CloudRadius * sinInc * cosAz,
		Y: randY * k.CloudRadius * sinInc * sinAz,
		Z: randZ * k.CloudRadius * cosInc,
	}
	if r3.Norm(pos) < k.InnerRadius {
		pos = r3.Add(pos, r3.Scale(k.InnerRadius, Normalize(pos)))
	}

	s.pos[i] = pos
	s.col[i] = r3.Vec{X: randX, Y: randY, Z: randZ}
}
