package particle

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MaxSpeed caps the velocity magnitude at the end of every tick.
	MaxSpeed = 0.1

	minAttractionDist = 0.1
	minAttraction     = 0.001
)

// surfaceFallback is the outward direction used for a particle sitting
// exactly on the planet center, where no normal exists.
var surfaceFallback = r3.Vec{Y: 1}

// GravityKernel advances one particle by one tick: semi-implicit Euler
// step, planet surface reflection, inverse-distance attraction toward
// p.Center, speed clamp and friction damping.
type GravityKernel struct{}

func (GravityKernel) Name() string { return "gravity" }

func (GravityKernel) Apply(s *Store, p *Params, i int) {
	vel := s.vel[i]
	pos := r3.Add(s.pos[i], vel)

	dv := r3.Sub(pos, p.Center)
	dist := r3.Norm(dv)
	normal := Normalize(dv)
	radius := p.PlanetRadius()

	if dist < radius {
		if dist == 0 {
			pos = r3.Add(p.Center, r3.Scale(radius, surfaceFallback))
		} else {
			vel = r3.Scale(p.Bounce, Reflect(vel, normal))
			pos = r3.Add(p.Center, r3.Scale(radius, normal))
		}
	}

	accel := -math.Max(p.Gravity/math.Max(dist, minAttractionDist), minAttraction)
	vel = r3.Add(vel, r3.Scale(accel, normal))

	speed := math.Min(MaxSpeed, r3.Norm(vel))
	vel = r3.Scale(speed*p.Friction, Normalize(vel))

	s.pos[i] = pos
	s.vel[i] = vel
}
