package metrics

import (
	"github.com/san-kum/planetsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// MeanRadius is the mean particle distance to the planet center in the most
// recent tick. Its series shows how the cloud settles onto the surface.
type MeanRadius struct {
	name  string
	value float64
}

func NewMeanRadius() *MeanRadius {
	return &MeanRadius{name: "mean_radius"}
}

func (m *MeanRadius) Name() string { return m.name }

func (m *MeanRadius) Observe(o *sim.Observation) {
	if len(o.Positions) == 0 {
		m.value = 0
		return
	}
	var sum float64
	for _, p := range o.Positions {
		sum += r3.Norm(r3.Sub(p, o.Center))
	}
	m.value = sum / float64(len(o.Positions))
}

func (m *MeanRadius) Value() float64 { return m.value }
func (m *MeanRadius) Reset()         { m.value = 0 }

// Overlaps counts particle pairs closer than the particle size in the most
// recent tick. It is O(N²) like the collision pass it measures.
type Overlaps struct {
	name  string
	count int
}

func NewOverlaps() *Overlaps {
	return &Overlaps{name: "overlaps"}
}

func (m *Overlaps) Name() string { return m.name }

func (m *Overlaps) Observe(o *sim.Observation) {
	m.count = 0
	size := o.ParticleSize
	for i := range o.Positions {
		for j := i + 1; j < len(o.Positions); j++ {
			if r3.Norm(r3.Sub(o.Positions[j], o.Positions[i])) < size {
				m.count++
			}
		}
	}
}

func (m *Overlaps) Value() float64 { return float64(m.count) }
func (m *Overlaps) Reset()         { m.count = 0 }
