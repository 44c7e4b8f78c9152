package particle

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultGravity      = -0.00098
	DefaultBounce       = 0.9
	DefaultFriction     = 0.5
	DefaultParticleSize = 0.32
	DefaultPlanetSize   = 10.0
)

// Params are the uniforms every kernel reads. A driver may change them
// between ticks; the simulator hands kernels a copy taken at tick start.
type Params struct {
	Gravity      float64 // signed, negative pulls toward Center
	Bounce       float64 // restitution on planet and particle collisions
	Friction     float64 // velocity multiplier applied after the speed clamp
	ParticleSize float64 // minimum center-to-center separation
	PlanetSize   float64 // planet diameter
	Center       r3.Vec
	ImpactPoint  r3.Vec
	Time         float64
}

func DefaultParams() Params {
	return Params{
		Gravity:      DefaultGravity,
		Bounce:       DefaultBounce,
		Friction:     DefaultFriction,
		ParticleSize: DefaultParticleSize,
		PlanetSize:   DefaultPlanetSize,
	}
}

// PlanetRadius is the collision radius of the planet.
func (p *Params) PlanetRadius() float64 { return p.PlanetSize / 2 }

type bounds struct{ min, max float64 }

var paramBounds = map[string]bounds{
	"gravity":       {-1, 1},
	"bounce":        {0, 1},
	"friction":      {0, 1},
	"particle_size": {0, 5},
	"planet_size":   {0, 100},
	"center_x":      {-1000, 1000},
	"center_y":      {-1000, 1000},
	"center_z":      {-1000, 1000},
}

// ParamNames lists the tunable parameter names in a stable order.
func ParamNames() []string {
	names := make([]string, 0, len(paramBounds))
	for name := range paramBounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParamBounds returns the accepted range for name.
func ParamBounds(name string) (lo, hi float64, ok bool) {
	b, ok := paramBounds[name]
	return b.min, b.max, ok
}

func (p *Params) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":       p.Gravity,
		"bounce":        p.Bounce,
		"friction":      p.Friction,
		"particle_size": p.ParticleSize,
		"planet_size":   p.PlanetSize,
		"center_x":      p.Center.X,
		"center_y":      p.Center.Y,
		"center_z":      p.Center.Z,
	}
}

func (p *Params) SetParam(name string, value float64) error {
	b, ok := paramBounds[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	if err := checkBounds(name, value, b); err != nil {
		return err
	}
	switch name {
	case "gravity":
		p.Gravity = value
	case "bounce":
		p.Bounce = value
	case "friction":
		p.Friction = value
	case "particle_size":
		p.ParticleSize = value
	case "planet_size":
		p.PlanetSize = value
	case "center_x":
		p.Center.X = value
	case "center_y":
		p.Center.Y = value
	case "center_z":
		p.Center.Z = value
	}
	return nil
}

// Validate checks every tunable against its bounds.
func (p *Params) Validate() error {
	for name, v := range p.GetParams() {
		if err := checkBounds(name, v, paramBounds[name]); err != nil {
			return err
		}
	}
	if !IsFinite(p.ImpactPoint) {
		return fmt.Errorf("%w: impact point %v", ErrParameterBounds, p.ImpactPoint)
	}
	if math.IsNaN(p.Time) || math.IsInf(p.Time, 0) {
		return fmt.Errorf("%w: time %v", ErrParameterBounds, p.Time)
	}
	return nil
}

func checkBounds(name string, v float64, b bounds) error {
	if math.IsNaN(v) || v < b.min || v > b.max {
		return fmt.Errorf("%w: %s=%g (want %g..%g)", ErrParameterBounds, name, v, b.min, b.max)
	}
	return nil
}
