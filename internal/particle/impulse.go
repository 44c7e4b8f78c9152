package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	impulseRadius = 6.0
	impulseScale  = 0.01
)

// ImpulseKernel pushes particles radially away from p.ImpactPoint with a
// linear falloff that reaches zero at impulseRadius.
type ImpulseKernel struct{}

func (ImpulseKernel) Name() string { return "impulse" }

func (ImpulseKernel) Apply(s *Store, p *Params, i int) {
	offset := r3.Sub(s.pos[i], p.ImpactPoint)
	power := math.Max(impulseRadius-r3.Norm(offset), 0) * impulseScale
	// per-particle attenuation in [0.5, 1)
	relative := power * (Hash(uint32(i))*0.5 + 0.5)
	s.vel[i] = r3.Add(s.vel[i], r3.Scale(relative, Normalize(offset)))
}
