package metrics

import "github.com/san-kum/planetsim/internal/sim"

// KineticEnergy is the per-particle mean of ½|v|², averaged over ticks.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(o *sim.Observation) {
	if len(o.Speeds) == 0 {
		return
	}
	var sum float64
	for _, v := range o.Speeds {
		sum += 0.5 * v * v
	}
	e.total += sum / float64(len(o.Speeds))
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// MaxSpeed tracks the largest particle speed seen since the last Reset.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(o *sim.Observation) {
	for _, v := range o.Speeds {
		if v > m.max {
			m.max = v
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }
