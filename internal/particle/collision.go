package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	collisionPush     = 2.0
	minCollisionSpeed = 2.0
)

// CollisionKernel scans every other particle and pushes overlapping pairs
// apart, correcting both positions and velocities.
//
// The scan writes the partner index j as well as i, and the pair is visited
// again from j's side. With more than one lane these writes race; the
// correction is best-effort and only converges over repeated ticks.
type CollisionKernel struct{}

func (CollisionKernel) Name() string { return "collision" }

func (CollisionKernel) Apply(s *Store, p *Params, i int) {
	size := p.ParticleSize
	for j := range s.pos {
		if j == i {
			continue
		}
		dv := r3.Sub(s.pos[j], s.pos[i])
		dist := r3.Norm(dv)
		if dist >= size {
			continue
		}

		correction := r3.Scale((size-dist)*p.Bounce, Normalize(dv))
		velI := r3.Scale(math.Max(r3.Norm(s.vel[i]), minCollisionSpeed), correction)
		velJ := r3.Scale(math.Max(r3.Norm(s.vel[j]), minCollisionSpeed), correction)
		push := r3.Scale(collisionPush, correction)

		s.pos[i] = r3.Sub(s.pos[i], push)
		s.vel[i] = r3.Sub(s.vel[i], velI)
		s.pos[j] = r3.Add(s.pos[j], push)
		s.vel[j] = r3.Add(s.vel[j], velJ)
	}
}
