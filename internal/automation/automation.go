package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/experiment"
	"github.com/san-kum/planetsim/internal/particle"
	"github.com/san-kum/planetsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted session on one particle cloud: each step changes
// the setup and then runs for a number of ticks.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Particles   int            `yaml:"particles"`
	Seed        uint32         `yaml:"seed"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario. Unset fields leave the
// previous step's setting alone.
type ScenarioStep struct {
	Ticks      int                `yaml:"ticks"`
	Params     map[string]float64 `yaml:"params"`
	Impulse    *[3]float64        `yaml:"impulse,flow"`
	Center     *[3]float64        `yaml:"center,flow"`
	Collisions *bool              `yaml:"collisions"`
	Orbit      *bool              `yaml:"orbit"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

func (sc *Scenario) config() (*config.Config, error) {
	name := sc.Preset
	if name == "" {
		name = "default"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	if sc.Particles > 0 {
		cfg.Particles = sc.Particles
	}
	cfg.Init.Seed = sc.Seed
	return cfg, nil
}

// RunScenario executes all steps in a scenario on a single simulator and
// returns one result per step. Metrics come from the registry defaults.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]*sim.Result, error) {
	cfg, err := scenario.config()
	if err != nil {
		return nil, err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(registry.DefaultMetrics()); err != nil {
		return nil, err
	}
	s := exp.GetSimulator()
	p := exp.Params()
	run := cfg.ToRunConfig()

	results := make([]*sim.Result, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		fmt.Printf("Running step %d/%d: %d ticks\n", i+1, len(scenario.Steps), step.Ticks)

		names := make([]string, 0, len(step.Params))
		for k := range step.Params {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if err := p.SetParam(k, step.Params[k]); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if step.Center != nil {
			p.Center = r3.Vec{X: step.Center[0], Y: step.Center[1], Z: step.Center[2]}
			if err := p.Validate(); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if step.Collisions != nil {
			s.EnableCollisions(*step.Collisions)
		}
		if step.Orbit != nil {
			run.Orbit = *step.Orbit
		}
		if step.Impulse != nil {
			point := r3.Vec{X: step.Impulse[0], Y: step.Impulse[1], Z: step.Impulse[2]}
			if err := s.ApplyImpulse(point); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}

		run.Steps = step.Ticks
		result, err := s.Run(ctx, &p, run)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds the final metric values for one parameter value.
type SweepResult struct {
	ParamValue float64
	Metrics    map[string]float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	lo, hi, ok := particle.ParamBounds(sweep.ParamName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", particle.ErrUnknownParam, sweep.ParamName)
	}
	if sweep.ParamMin < lo || sweep.ParamMax > hi {
		return nil, fmt.Errorf("%w: %s sweep [%g, %g] outside [%g, %g]",
			particle.ErrParameterBounds, sweep.ParamName, sweep.ParamMin, sweep.ParamMax, lo, hi)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := *sweep.Base
		if err := cfg.SetParam(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		exp := experiment.New(&cfg)
		if err := exp.Setup(registry.DefaultMetrics()); err != nil {
			return nil, err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Metrics:    result.Metrics,
		})

		fmt.Printf("Sweep %d/%d: %s=%.4f\n", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters. Every
// physics parameter is perturbed by up to Perturbation of its value, and
// every trial gets its own init seed.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID int
	Params  map[string]float64
	Metrics map[string]float64
	Stable  bool // no NaN, speed within the cap, nothing inside the planet
}

// RunMonteCarlo executes multiple trials with random perturbations
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	base := cfg.Base.ToParams()
	names := particle.ParamNames()

	for trial := 0; trial < cfg.NumTrials; trial++ {
		expCfg := *cfg.Base
		expCfg.Init.Seed = uint32(rng.Int63())
		perturbed := make(map[string]float64, len(names))
		values := base.GetParams()
		for _, name := range names {
			v := values[name]
			lo, hi, _ := particle.ParamBounds(name)
			next := v * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
			next = math.Max(lo, math.Min(hi, next))
			if err := expCfg.SetParam(name, next); err != nil {
				return nil, err
			}
			perturbed[name] = next
		}

		exp := experiment.New(&expCfg)
		if err := exp.Setup(registry.DefaultMetrics()); err != nil {
			return nil, err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		stable := len(result.Errors) == 0 &&
			exp.GetSimulator().Valid() &&
			result.Metrics["max_speed"] <= particle.MaxSpeed+1e-12 &&
			result.Metrics["surface_violations"] == 0

		results = append(results, MonteCarloResult{
			TrialID: trial,
			Params:  perturbed,
			Metrics: result.Metrics,
			Stable:  stable,
		})

		if (trial+1)%10 == 0 {
			fmt.Printf("Monte Carlo: %d/%d trials complete\n", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
