package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/particle"
	"github.com/san-kum/planetsim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultParticles = 2000
	DefaultSteps     = 1000
	DefaultTimeStep  = 0.45
	DefaultBackend   = "cpu"
)

type Config struct {
	Particles int          `yaml:"particles"`
	Backend   string       `yaml:"backend"`
	Init      InitConfig   `yaml:"init"`
	Params    ParamsConfig `yaml:"params"`
	Run       RunConfig    `yaml:"run"`
}

type InitConfig struct {
	CloudRadius float64 `yaml:"cloud_radius"`
	InnerRadius float64 `yaml:"inner_radius"`
	Seed        uint32  `yaml:"seed"`
}

type ParamsConfig struct {
	Gravity      float64    `yaml:"gravity"`
	Bounce       float64    `yaml:"bounce"`
	Friction     float64    `yaml:"friction"`
	ParticleSize float64    `yaml:"particle_size"`
	PlanetSize   float64    `yaml:"planet_size"`
	Center       [3]float64 `yaml:"center,flow"`
}

type RunConfig struct {
	Steps         int     `yaml:"steps"`
	TimeStep      float64 `yaml:"time_step"`
	Collisions    bool    `yaml:"collisions"`
	Movement      bool    `yaml:"movement"`
	Orbit         bool    `yaml:"orbit"`
	StartPaused   bool    `yaml:"start_paused"`
	ValidateState bool    `yaml:"validate_state"`
	Workers       int     `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles: DefaultParticles,
		Backend:   DefaultBackend,
		Init: InitConfig{
			CloudRadius: particle.DefaultCloudRadius,
			InnerRadius: particle.DefaultInnerRadius,
		},
		Params: ParamsConfig{
			Gravity:      particle.DefaultGravity,
			Bounce:       particle.DefaultBounce,
			Friction:     particle.DefaultFriction,
			ParticleSize: particle.DefaultParticleSize,
			PlanetSize:   particle.DefaultPlanetSize,
		},
		Run: RunConfig{
			Steps:         DefaultSteps,
			TimeStep:      DefaultTimeStep,
			StartPaused:   true,
			ValidateState: true,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig, so omitted keys keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Particles <= 0 {
		return fmt.Errorf("%w: particles must be positive, got %d", sim.ErrInvalidConfig, c.Particles)
	}
	if !slices.Contains(compute.BackendNames(), c.Backend) {
		return fmt.Errorf("%w: unknown backend %q", sim.ErrInvalidConfig, c.Backend)
	}
	if c.Init.CloudRadius < 0 || c.Init.InnerRadius < 0 {
		return fmt.Errorf("%w: init radii must not be negative", sim.ErrInvalidConfig)
	}
	if c.Run.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", sim.ErrInvalidConfig, c.Run.Steps)
	}
	if c.Run.TimeStep < 0 {
		return fmt.Errorf("%w: time step must not be negative", sim.ErrInvalidConfig)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", sim.ErrInvalidConfig)
	}
	p := c.ToParams()
	return p.Validate()
}

func (c *Config) ToParams() particle.Params {
	p := particle.DefaultParams()
	p.Gravity = c.Params.Gravity
	p.Bounce = c.Params.Bounce
	p.Friction = c.Params.Friction
	p.ParticleSize = c.Params.ParticleSize
	p.PlanetSize = c.Params.PlanetSize
	p.Center.X = c.Params.Center[0]
	p.Center.Y = c.Params.Center[1]
	p.Center.Z = c.Params.Center[2]
	return p
}

func (c *Config) ToInitConfig() sim.InitConfig {
	return sim.InitConfig{
		CloudRadius: c.Init.CloudRadius,
		InnerRadius: c.Init.InnerRadius,
		Seed:        c.Init.Seed,
	}
}

func (c *Config) ToRunConfig() sim.RunConfig {
	return sim.RunConfig{
		Steps:         c.Run.Steps,
		TimeStep:      c.Run.TimeStep,
		Orbit:         c.Run.Orbit,
		ValidateState: c.Run.ValidateState,
	}
}

// NewBackend builds the compute backend named by Backend.
func (c *Config) NewBackend() (compute.Backend, error) {
	return compute.SelectBackend(c.Backend, c.Workers())
}

// Workers returns the CPU lane count for the configured backend.
func (c *Config) Workers() int {
	if c.Backend == "serial" {
		return 1
	}
	return c.Run.Workers
}

// SetParam sets a physics parameter by its particle.ParamNames name,
// with the same bounds checking as particle.Params.SetParam.
func (c *Config) SetParam(name string, value float64) error {
	p := c.ToParams()
	if err := p.SetParam(name, value); err != nil {
		return err
	}
	c.Params.Gravity = p.Gravity
	c.Params.Bounce = p.Bounce
	c.Params.Friction = p.Friction
	c.Params.ParticleSize = p.ParticleSize
	c.Params.PlanetSize = p.PlanetSize
	c.Params.Center = [3]float64{p.Center.X, p.Center.Y, p.Center.Z}
	return nil
}
