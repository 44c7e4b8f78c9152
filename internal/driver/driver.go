// Package driver owns a simulator for interactive front ends. It holds the
// pause state, the frame clock and the pending impulse, and serialises
// parameter changes from input handlers against running ticks.
package driver

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/particle"
	"github.com/san-kum/planetsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTimeStep is how far the clock advances per unpaused frame.
const DefaultTimeStep = 0.45

type Options struct {
	Particles   int
	Init        sim.InitConfig
	Params      particle.Params
	TimeStep    float64
	Collisions  bool
	Movement    bool
	Orbit       bool
	StartPaused bool
	Backend     compute.Backend
}

func DefaultOptions() Options {
	return Options{
		Particles:   config.DefaultParticles,
		Init:        sim.DefaultInitConfig(),
		Params:      particle.DefaultParams(),
		TimeStep:    DefaultTimeStep,
		StartPaused: true,
	}
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	backend, err := cfg.NewBackend()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Particles:   cfg.Particles,
		Init:        cfg.ToInitConfig(),
		Params:      cfg.ToParams(),
		TimeStep:    cfg.Run.TimeStep,
		Collisions:  cfg.Run.Collisions,
		Movement:    cfg.Run.Movement,
		Orbit:       cfg.Run.Orbit,
		StartPaused: cfg.Run.StartPaused,
		Backend:     backend,
	}, nil
}

type FrameStats struct {
	Frame   int
	Time    float64
	Paused  bool
	Ticked  bool
	Impulse bool
	Elapsed time.Duration
}

type Driver struct {
	mu      sync.Mutex
	opts    Options
	sim     *sim.Simulator
	params  particle.Params
	paused  bool
	orbit   bool
	pending *r3.Vec
	frames  int
	pool    *sim.SnapshotPool
}

func New(opts Options) (*Driver, error) {
	if opts.TimeStep < 0 {
		return nil, fmt.Errorf("%w: time step must not be negative", sim.ErrInvalidConfig)
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		opts: opts,
		sim:  sim.New(opts.Backend),
	}
	d.sim.EnableCollisions(opts.Collisions)
	d.sim.EnableMovement(opts.Movement)
	if err := d.reset(); err != nil {
		return nil, err
	}
	d.pool = sim.NewSnapshotPool(d.sim.Len())
	return d, nil
}

func (d *Driver) reset() error {
	if err := d.sim.Initialize(d.opts.Particles, d.opts.Init); err != nil {
		return err
	}
	d.params = d.opts.Params
	d.paused = d.opts.StartPaused
	d.orbit = d.opts.Orbit
	d.pending = nil
	d.frames = 0
	return nil
}

// Frame runs one display frame. A queued impulse is applied even while
// paused; the clock, the orbit and the tick only advance when running.
func (d *Driver) Frame() (FrameStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	stats := FrameStats{Paused: d.paused}

	if d.pending != nil {
		point := *d.pending
		d.pending = nil
		if err := d.sim.ApplyImpulse(point); err != nil {
			return stats, err
		}
		stats.Impulse = true
	}

	if !d.paused {
		d.params.Time += d.opts.TimeStep
		if d.orbit {
			d.params.Center = particle.OrbitCenter(d.params.PlanetSize, d.params.Time)
		}
		if err := d.sim.Tick(&d.params); err != nil {
			return stats, err
		}
		d.frames++
		stats.Ticked = true
	}

	stats.Frame = d.frames
	stats.Time = d.params.Time
	stats.Elapsed = time.Since(start)
	return stats, nil
}

func (d *Driver) TogglePause() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = !d.paused
	return d.paused
}

func (d *Driver) SetPaused(paused bool) {
	d.mu.Lock()
	d.paused = paused
	d.mu.Unlock()
}

func (d *Driver) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// QueueImpulse schedules an impulse at point for the next frame. A newer
// point replaces one not yet applied.
func (d *Driver) QueueImpulse(point r3.Vec) error {
	if !particle.IsFinite(point) {
		return fmt.Errorf("%w: impact point %v", particle.ErrParameterBounds, point)
	}
	d.mu.Lock()
	d.pending = &point
	d.mu.Unlock()
	return nil
}

func (d *Driver) SetParam(name string, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params.SetParam(name, value)
}

// NudgeParam steps a parameter up (dir > 0) or down. Center coordinates
// move in unit steps; everything else scales by 10% away from or toward
// zero, starting from a small fraction of its range when it is zero.
func (d *Driver) NudgeParam(name string, dir float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	val, ok := d.params.GetParams()[name]
	if !ok {
		return fmt.Errorf("%w: %s", particle.ErrUnknownParam, name)
	}

	var next float64
	switch {
	case strings.HasPrefix(name, "center_"):
		next = val + dir
	case val == 0:
		lo, hi, _ := particle.ParamBounds(name)
		next = dir * (hi - lo) * 1e-4
	case dir > 0:
		next = val * 1.1
	default:
		next = val / 1.1
	}
	return d.params.SetParam(name, next)
}

// SetCenter moves the planet. It is overwritten every frame while the
// orbit is on.
func (d *Driver) SetCenter(c r3.Vec) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	next := d.params
	next.Center = c
	if err := next.Validate(); err != nil {
		return err
	}
	d.params = next
	return nil
}

func (d *Driver) Params() particle.Params {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params
}

func (d *Driver) ToggleCollisions() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sim.EnableCollisions(!d.sim.Collisions())
	return d.sim.Collisions()
}

func (d *Driver) Collisions() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sim.Collisions()
}

func (d *Driver) ToggleOrbit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.orbit = !d.orbit
	return d.orbit
}

func (d *Driver) Orbit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orbit
}

// Reset reseeds the cloud and restores the starting parameters.
func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reset()
}

func (d *Driver) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sim.Len()
}

func (d *Driver) Backend() compute.Backend { return d.sim.Backend() }

// AddObserver registers o for every tick. Observers run with the driver
// lock held and must not call back into the driver.
func (d *Driver) AddObserver(o sim.Observer) {
	d.mu.Lock()
	d.sim.AddObserver(o)
	d.mu.Unlock()
}

// Snapshot copies the current positions into a pooled buffer. Hand it back
// with Release once drawn or sent.
func (d *Driver) Snapshot() []r3.Vec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pool.GetAndCopy(d.sim.Positions())
}

func (d *Driver) Release(snapshot []r3.Vec) {
	d.pool.Put(snapshot)
}

// Colors returns a copy of the particle colors. They only change on Reset.
func (d *Driver) Colors() []r3.Vec {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]r3.Vec(nil), d.sim.Colors()...)
}
