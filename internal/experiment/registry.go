package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/planetsim/internal/metrics"
	"github.com/san-kum/planetsim/internal/sim"
)

// surfaceTolerance absorbs rounding in the clamp to the planet surface.
const surfaceTolerance = 1e-9

type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() sim.Metric),
	}

	r.metrics["max_speed"] = func() sim.Metric { return metrics.NewMaxSpeed() }
	r.metrics["kinetic_energy"] = func() sim.Metric { return metrics.NewKineticEnergy() }
	r.metrics["surface_violations"] = func() sim.Metric { return metrics.NewSurfaceViolations(surfaceTolerance) }
	r.metrics["mean_radius"] = func() sim.Metric { return metrics.NewMeanRadius() }
	r.metrics["overlaps"] = func() sim.Metric { return metrics.NewOverlaps() }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s (available: %v)", name, r.ListMetrics())
	}
	return fn(), nil
}

// GetMetrics resolves names in order, failing on the first unknown one.
func (r *Registry) GetMetrics(names []string) ([]sim.Metric, error) {
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics is every metric except overlaps, which costs as much as
// the collision pass.
func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewMaxSpeed(),
		metrics.NewKineticEnergy(),
		metrics.NewSurfaceViolations(surfaceTolerance),
		metrics.NewMeanRadius(),
	}
}
