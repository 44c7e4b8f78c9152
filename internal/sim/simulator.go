package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

type Simulator struct {
	backend    compute.Backend
	store      *particle.Store
	collisions bool
	movement   bool
	metrics    []Metric
	observers  []Observer
	steps      int
	speeds     []float64
}

// New returns a simulator dispatching on backend, or on the package default
// backend when backend is nil.
func New(backend compute.Backend) *Simulator {
	if backend == nil {
		backend = compute.GetBackend()
	}
	return &Simulator{
		backend:   backend,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// EnableCollisions turns the pairwise collision pass on or off for later ticks.
func (s *Simulator) EnableCollisions(on bool) { s.collisions = on }

// EnableMovement turns the movement pass on or off for later ticks.
func (s *Simulator) EnableMovement(on bool) { s.movement = on }

func (s *Simulator) Collisions() bool         { return s.collisions }
func (s *Simulator) Movement() bool           { return s.movement }
func (s *Simulator) Backend() compute.Backend { return s.backend }

// Initialize allocates n particles and seeds them with the init kernel.
// Any previous buffers are dropped.
func (s *Simulator) Initialize(n int, cfg InitConfig) error {
	if cfg.CloudRadius < 0 || cfg.InnerRadius < 0 {
		return fmt.Errorf("%w: negative radius (cloud=%g inner=%g)", ErrInvalidConfig, cfg.CloudRadius, cfg.InnerRadius)
	}
	store, err := particle.NewStore(n)
	if err != nil {
		return err
	}
	s.store = store
	s.steps = 0
	s.speeds = make([]float64, n)

	k := particle.InitKernel{CloudRadius: cfg.CloudRadius, InnerRadius: cfg.InnerRadius, Seed: cfg.Seed}
	return s.dispatch(k, nil)
}

// Tick advances every particle by one step. Parameters are copied before
// the first kernel runs, so p may be changed by the caller between ticks.
// The kernel order is movement, collision, gravity; gravity runs last so
// the speed cap and surface containment hold when Tick returns.
func (s *Simulator) Tick(p *particle.Params) error {
	if s.store == nil {
		return ErrNotInitialized
	}
	snap := *p
	if err := snap.Validate(); err != nil {
		return err
	}

	if s.movement {
		if err := s.dispatch(particle.MovementKernel{}, &snap); err != nil {
			return err
		}
	}
	if s.collisions {
		if err := s.dispatch(particle.CollisionKernel{}, &snap); err != nil {
			return err
		}
	}
	if err := s.dispatch(particle.GravityKernel{}, &snap); err != nil {
		return err
	}

	s.steps++
	s.observe(&snap)
	return nil
}

// ApplyImpulse pushes every particle away from point.
func (s *Simulator) ApplyImpulse(point r3.Vec) error {
	if s.store == nil {
		return ErrNotInitialized
	}
	if !particle.IsFinite(point) {
		return fmt.Errorf("%w: impact point %v", particle.ErrParameterBounds, point)
	}
	p := particle.Params{ImpactPoint: point}
	return s.dispatch(particle.ImpulseKernel{}, &p)
}

func (s *Simulator) Len() int {
	if s.store == nil {
		return 0
	}
	return s.store.Len()
}

// Positions returns the live position buffer, nil before Initialize.
func (s *Simulator) Positions() []r3.Vec {
	if s.store == nil {
		return nil
	}
	return s.store.Positions()
}

// Colors returns the live color buffer, nil before Initialize.
func (s *Simulator) Colors() []r3.Vec {
	if s.store == nil {
		return nil
	}
	return s.store.Colors()
}

// Steps returns the number of ticks since Initialize.
func (s *Simulator) Steps() int { return s.steps }

// Place overrides one particle, for scripted scenarios.
func (s *Simulator) Place(i int, pos, vel r3.Vec) error {
	if s.store == nil {
		return ErrNotInitialized
	}
	s.store.Place(i, pos, vel)
	return nil
}

// Valid reports whether the particle buffers are free of NaN/Inf.
func (s *Simulator) Valid() bool {
	return s.store != nil && s.store.Finite()
}

func (s *Simulator) dispatch(k particle.Kernel, p *particle.Params) error {
	store := s.store
	if runner, ok := s.backend.(compute.KernelRunner); ok {
		handled, err := runner.RunKernel(k, store, p)
		if err != nil {
			return fmt.Errorf("%s kernel: %w", k.Name(), err)
		}
		if handled {
			return nil
		}
	}
	if err := s.backend.Dispatch(store.Len(), func(i int) { k.Apply(store, p, i) }); err != nil {
		return fmt.Errorf("%s kernel: %w", k.Name(), err)
	}
	return nil
}

func (s *Simulator) observe(p *particle.Params) {
	if len(s.metrics) == 0 && len(s.observers) == 0 {
		return
	}
	for i := range s.speeds {
		s.speeds[i] = s.store.Speed(i)
	}
	o := &Observation{
		Step:         s.steps,
		Time:         p.Time,
		Positions:    s.store.Positions(),
		Speeds:       s.speeds,
		Center:       p.Center,
		PlanetRadius: p.PlanetRadius(),
		ParticleSize: p.ParticleSize,
	}
	for _, m := range s.metrics {
		m.Observe(o)
	}
	for _, obs := range s.observers {
		obs.OnTick(o)
	}
}

// Run ticks the simulation headless for cfg.Steps, advancing p.Time by
// cfg.TimeStep before each tick. The context is checked between ticks only.
// p holds the final time and center when Run returns.
func (s *Simulator) Run(ctx context.Context, p *particle.Params, cfg RunConfig) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, ErrNotInitialized
	}

	result := &Result{
		Particles: s.store.Len(),
		Times:     make([]float64, 0, cfg.Steps),
		Samples:   make(map[string][]float64),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
		result.Samples[m.Name()] = make([]float64, 0, cfg.Steps)
	}

	start := time.Now()
	defer func() { result.Elapsed = time.Since(start) }()

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		p.Time += cfg.TimeStep
		if cfg.Orbit {
			p.Center = particle.OrbitCenter(p.PlanetSize, p.Time)
		}
		if err := s.Tick(p); err != nil {
			return result, &SimError{Step: i, Time: p.Time, Wrapped: err}
		}

		if cfg.ValidateState && !s.store.Finite() {
			result.Errors = append(result.Errors, &SimError{Step: i, Time: p.Time, Wrapped: ErrInvalidState})
			break
		}

		result.StepsTaken++
		result.Times = append(result.Times, p.Time)
		for _, m := range s.metrics {
			result.Samples[m.Name()] = append(result.Samples[m.Name()], m.Value())
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(cfg RunConfig) error {
	if cfg.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, cfg.Steps)
	}
	if cfg.TimeStep < 0 {
		return fmt.Errorf("%w: time step must not be negative, got %f", ErrInvalidConfig, cfg.TimeStep)
	}
	return nil
}
