package sim

import (
	"context"
	"sync"

	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/particle"
)

// Ensemble runs the same scenario from several init seeds concurrently.
// Each run gets its own simulator and fresh metrics from newMetrics.
type Ensemble struct {
	backend    compute.Backend
	particles  int
	numRuns    int
	collisions bool
	movement   bool
	newMetrics func() []Metric
}

func NewEnsemble(backend compute.Backend, particles, numRuns int, newMetrics func() []Metric) *Ensemble {
	return &Ensemble{
		backend:    backend,
		particles:  particles,
		numRuns:    numRuns,
		newMetrics: newMetrics,
	}
}

func (e *Ensemble) EnableCollisions(on bool) { e.collisions = on }
func (e *Ensemble) EnableMovement(on bool)   { e.movement = on }

func (e *Ensemble) Run(ctx context.Context, base InitConfig, p particle.Params, cfg RunConfig) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			initCopy := base
			initCopy.Seed = base.Seed + uint32(idx)
			params := p

			s := New(e.backend)
			s.EnableCollisions(e.collisions)
			s.EnableMovement(e.movement)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}
			if err := s.Initialize(e.particles, initCopy); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, &params, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
