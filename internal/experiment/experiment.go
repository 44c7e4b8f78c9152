package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/particle"
	"github.com/san-kum/planetsim/internal/sim"
)

// Experiment is one headless run described by a config.Config.
type Experiment struct {
	cfg       *config.Config
	params    particle.Params
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:    cfg,
		params: cfg.ToParams(),
	}
}

// Setup validates the config, builds the simulator on a backend sized by
// the config and seeds the particle cloud.
func (e *Experiment) Setup(metrics []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	backend, err := e.cfg.NewBackend()
	if err != nil {
		return err
	}
	e.simulator = sim.New(backend)
	e.simulator.EnableCollisions(e.cfg.Run.Collisions)
	e.simulator.EnableMovement(e.cfg.Run.Movement)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}

	return e.simulator.Initialize(e.cfg.Particles, e.cfg.ToInitConfig())
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, &e.params, e.cfg.ToRunConfig())
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Params returns the parameters as they stand after Run.
func (e *Experiment) Params() particle.Params {
	return e.params
}
