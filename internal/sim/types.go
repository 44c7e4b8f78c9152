package sim

import (
	"time"

	"github.com/san-kum/planetsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// Observation is what metrics and observers see after each tick. Positions
// aliases the live buffer and is only valid during the callback.
type Observation struct {
	Step         int
	Time         float64
	Positions    []r3.Vec
	Speeds       []float64
	Center       r3.Vec
	PlanetRadius float64
	ParticleSize float64
}

type Metric interface {
	Name() string
	Observe(o *Observation)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(o *Observation)
}

type InitConfig struct {
	CloudRadius float64
	InnerRadius float64
	Seed        uint32
}

func DefaultInitConfig() InitConfig {
	return InitConfig{
		CloudRadius: particle.DefaultCloudRadius,
		InnerRadius: particle.DefaultInnerRadius,
	}
}

type RunConfig struct {
	Steps         int
	TimeStep      float64
	Orbit         bool // move the planet along particle.OrbitCenter each tick
	ValidateState bool
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Steps:         1000,
		TimeStep:      0.45,
		ValidateState: true,
	}
}

type Result struct {
	Particles  int
	StepsTaken int
	Times      []float64
	Samples    map[string][]float64
	Metrics    map[string]float64
	Elapsed    time.Duration
	Errors     []error
}
