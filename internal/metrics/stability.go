package metrics

import (
	"github.com/san-kum/planetsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// SurfaceViolations is the fraction of ticks in which at least one particle
// ended up closer to the planet center than the planet radius.
type SurfaceViolations struct {
	name       string
	tolerance  float64
	violations int
	samples    int
}

func NewSurfaceViolations(tolerance float64) *SurfaceViolations {
	return &SurfaceViolations{
		name:      "surface_violations",
		tolerance: tolerance,
	}
}

func (s *SurfaceViolations) Name() string {
	return s.name
}

func (s *SurfaceViolations) Observe(o *sim.Observation) {
	s.samples++
	limit := o.PlanetRadius - s.tolerance
	for _, p := range o.Positions {
		if r3.Norm(r3.Sub(p, o.Center)) < limit {
			s.violations++
			break
		}
	}
}

func (s *SurfaceViolations) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.violations) / float64(s.samples)
}

func (s *SurfaceViolations) Reset() {
	s.violations = 0
	s.samples = 0
}
