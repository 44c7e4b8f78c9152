package sim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

type testMetric struct {
	count int
	last  float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(o *Observation) {
	m.count++
	m.last = float64(len(o.Positions))
}
func (m *testMetric) Value() float64 { return m.last }
func (m *testMetric) Reset() {
	m.count = 0
	m.last = 0
}

type countingObserver struct{ steps []int }

func (c *countingObserver) OnTick(o *Observation) { c.steps = append(c.steps, o.Step) }

type observerFunc func(o *Observation)

func (f observerFunc) OnTick(o *Observation) { f(o) }

// kernelRecorder counts kernel launches and claims the kernel named claim.
type kernelRecorder struct {
	compute.Backend
	claim string
	err   error

	mu    sync.Mutex
	calls map[string]int
}

func newKernelRecorder(claim string) *kernelRecorder {
	return &kernelRecorder{Backend: compute.NewSerialBackend(), claim: claim, calls: map[string]int{}}
}

func (r *kernelRecorder) RunKernel(k particle.Kernel, _ *particle.Store, _ *particle.Params) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[k.Name()]++
	if k.Name() != r.claim {
		return false, nil
	}
	return true, r.err
}

func newSim(t *testing.T, backend compute.Backend, n int) *Simulator {
	t.Helper()
	s := New(backend)
	if err := s.Initialize(n, DefaultInitConfig()); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return s
}

func TestSimulatorInitialize(t *testing.T) {
	s := newSim(t, compute.NewCPUBackend(4), 2000)

	if s.Len() != 2000 || len(s.Positions()) != 2000 || len(s.Colors()) != 2000 {
		t.Fatalf("expected 2000 aligned particles, got %d/%d/%d", s.Len(), len(s.Positions()), len(s.Colors()))
	}
	if !s.Valid() {
		t.Error("initialized state not finite")
	}
	for i, p := range s.Positions() {
		if r3.Norm(p) < particle.DefaultInnerRadius-1e-9 {
			t.Fatalf("particle %d inside inner radius", i)
		}
	}
}

func TestSimulatorInitialize_Deterministic(t *testing.T) {
	a := newSim(t, compute.NewCPUBackend(8), 1000)
	b := newSim(t, compute.NewSerialBackend(), 1000)

	pa := particle.DefaultParams()
	pb := particle.DefaultParams()
	for i := 0; i < 10; i++ {
		if err := a.Tick(&pa); err != nil {
			t.Fatal(err)
		}
		if err := b.Tick(&pb); err != nil {
			t.Fatal(err)
		}
	}

	for i := range a.Positions() {
		if a.Positions()[i] != b.Positions()[i] || a.Colors()[i] != b.Colors()[i] {
			t.Fatalf("particle %d differs between backends", i)
		}
	}
}

func TestSimulatorInitialize_Invalid(t *testing.T) {
	s := New(compute.NewSerialBackend())

	if err := s.Initialize(0, DefaultInitConfig()); !errors.Is(err, particle.ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
	if err := s.Initialize(10, InitConfig{CloudRadius: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSimulatorNotInitialized(t *testing.T) {
	s := New(nil)
	p := particle.DefaultParams()

	if err := s.Tick(&p); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Tick: expected ErrNotInitialized, got %v", err)
	}
	if err := s.ApplyImpulse(r3.Vec{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ApplyImpulse: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.Run(context.Background(), &p, DefaultRunConfig()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Run: expected ErrNotInitialized, got %v", err)
	}
	if s.Positions() != nil || s.Colors() != nil || s.Len() != 0 {
		t.Error("accessors should be empty before Initialize")
	}
}

func TestSimulatorTick_RejectsBadParams(t *testing.T) {
	s := newSim(t, nil, 10)
	p := particle.DefaultParams()
	p.Bounce = 3

	if err := s.Tick(&p); !errors.Is(err, particle.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if s.Steps() != 0 {
		t.Error("rejected tick should not count")
	}
}

func TestSimulatorTick_Invariants(t *testing.T) {
	s := newSim(t, compute.NewCPUBackend(0), 2000)
	p := particle.DefaultParams()
	p.Friction = 0.98
	colors := append([]r3.Vec(nil), s.Colors()...)

	for tick := 0; tick < 200; tick++ {
		p.Center = r3.Vec{X: 20 * math.Sin(float64(tick)*0.02)}
		if tick%40 == 0 {
			if err := s.ApplyImpulse(s.Positions()[tick]); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Tick(&p); err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		for i, pos := range s.Positions() {
			if d := r3.Norm(r3.Sub(pos, p.Center)); d < p.PlanetRadius()-1e-9 {
				t.Fatalf("tick %d particle %d inside planet (%f)", tick, i, d)
			}
		}
	}

	for i := range colors {
		if colors[i] != s.Colors()[i] {
			t.Fatalf("color %d changed", i)
		}
	}
}

func TestSimulatorTick_ConcurrentCollisions(t *testing.T) {
	s := New(compute.NewCPUBackend(8))
	s.EnableCollisions(true)
	if err := s.Initialize(1500, InitConfig{CloudRadius: 8, InnerRadius: 6}); err != nil {
		t.Fatal(err)
	}

	var maxSpeed float64
	s.AddObserver(observerFunc(func(o *Observation) {
		for _, v := range o.Speeds {
			maxSpeed = math.Max(maxSpeed, v)
		}
	}))

	p := particle.DefaultParams()
	for tick := 0; tick < 60; tick++ {
		if err := s.Tick(&p); err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if !s.Valid() {
			t.Fatalf("tick %d: state not finite", tick)
		}
		if maxSpeed > particle.MaxSpeed+1e-9 {
			t.Fatalf("tick %d: speed %f exceeds cap", tick, maxSpeed)
		}
		for i, pos := range s.Positions() {
			if d := r3.Norm(r3.Sub(pos, p.Center)); d < p.PlanetRadius()-1e-9 {
				t.Fatalf("tick %d particle %d inside planet (%f)", tick, i, d)
			}
		}
	}
}

func TestSimulatorDispatch_KernelRunner(t *testing.T) {
	rec := newKernelRecorder("gravity")
	s := newSim(t, rec, 4)
	_ = s.Place(0, r3.Vec{X: 10}, r3.Vec{X: -0.05})

	p := particle.DefaultParams()
	if err := s.Tick(&p); err != nil {
		t.Fatal(err)
	}
	if got := s.Positions()[0]; got != (r3.Vec{X: 10}) {
		t.Errorf("claimed gravity kernel still ran through Dispatch: %v", got)
	}
	if rec.calls["init"] != 1 || rec.calls["gravity"] != 1 {
		t.Errorf("unexpected launches: %v", rec.calls)
	}

	rec.err = errors.New("device lost")
	if err := s.Tick(&p); !errors.Is(err, rec.err) {
		t.Errorf("expected runner error, got %v", err)
	}
}

func TestSimulatorTick_Collisions(t *testing.T) {
	s := newSim(t, compute.NewSerialBackend(), 2)
	s.EnableCollisions(true)
	s.EnableMovement(true)

	_ = s.Place(0, r3.Vec{}, r3.Vec{})
	_ = s.Place(1, r3.Vec{X: 0.1}, r3.Vec{})

	p := particle.DefaultParams()
	p.PlanetSize = 0.1
	p.Center = r3.Vec{Y: 500}

	if err := s.Tick(&p); err != nil {
		t.Fatal(err)
	}

	pos := s.Positions()
	if sep := r3.Norm(r3.Sub(pos[1], pos[0])); sep <= 0.1 {
		t.Errorf("separation did not increase: %f", sep)
	}
}

func TestSimulatorApplyImpulse_InvalidPoint(t *testing.T) {
	s := newSim(t, nil, 4)
	if err := s.ApplyImpulse(r3.Vec{X: math.NaN()}); !errors.Is(err, particle.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestSimulatorRun(t *testing.T) {
	s := newSim(t, compute.NewCPUBackend(2), 100)
	metric := &testMetric{}
	obs := &countingObserver{}
	s.AddMetric(metric)
	s.AddObserver(obs)

	p := particle.DefaultParams()
	cfg := RunConfig{Steps: 10, TimeStep: 0.45, ValidateState: true}

	result, err := s.Run(context.Background(), &p, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 10 || len(result.Times) != 10 {
		t.Errorf("expected 10 steps, got %d (%d times)", result.StepsTaken, len(result.Times))
	}
	if math.Abs(p.Time-4.5) > 1e-9 {
		t.Errorf("expected accumulated time 4.5, got %f", p.Time)
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
	if len(result.Samples["test"]) != 10 {
		t.Errorf("expected 10 samples, got %d", len(result.Samples["test"]))
	}
	if result.Metrics["test"] != 100 {
		t.Errorf("expected metric 100, got %f", result.Metrics["test"])
	}
	if len(obs.steps) != 10 || obs.steps[9] != 10 {
		t.Errorf("observer saw steps %v", obs.steps)
	}
}

func TestSimulatorRun_InvalidConfig(t *testing.T) {
	s := newSim(t, nil, 10)
	p := particle.DefaultParams()

	tests := []struct {
		name string
		cfg  RunConfig
	}{
		{"zero steps", RunConfig{Steps: 0, TimeStep: 0.45}},
		{"negative steps", RunConfig{Steps: -5, TimeStep: 0.45}},
		{"negative time step", RunConfig{Steps: 5, TimeStep: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), &p, tt.cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorRun_Canceled(t *testing.T) {
	s := newSim(t, nil, 10)
	p := particle.DefaultParams()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, &p, DefaultRunConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.StepsTaken != 0 {
		t.Errorf("expected no steps after cancel, got %d", result.StepsTaken)
	}
}

func TestSimulatorRun_WrapsTickError(t *testing.T) {
	s := newSim(t, nil, 10)
	p := particle.DefaultParams()
	p.Friction = 2

	_, err := s.Run(context.Background(), &p, RunConfig{Steps: 3, TimeStep: 1})
	var simErr *SimError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimError, got %v", err)
	}
	if simErr.Step != 0 || !errors.Is(err, particle.ErrParameterBounds) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestEnsembleRun(t *testing.T) {
	e := NewEnsemble(compute.NewCPUBackend(2), 200, 3, func() []Metric { return []Metric{&testMetric{}} })

	results, err := e.Run(context.Background(), DefaultInitConfig(), particle.DefaultParams(), RunConfig{Steps: 5, TimeStep: 0.45})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.StepsTaken != 5 || r.Metrics["test"] != 200 {
			t.Errorf("run %d: steps=%d metric=%f", i, r.StepsTaken, r.Metrics["test"])
		}
	}
}

func TestEnsembleRun_ForwardsPasses(t *testing.T) {
	rec := newKernelRecorder("")
	e := NewEnsemble(rec, 50, 2, nil)
	e.EnableMovement(true)

	if _, err := e.Run(context.Background(), DefaultInitConfig(), particle.DefaultParams(), RunConfig{Steps: 3, TimeStep: 0.45}); err != nil {
		t.Fatal(err)
	}
	if rec.calls["movement"] != 6 {
		t.Errorf("movement ran %d times, want 6", rec.calls["movement"])
	}
	if rec.calls["collision"] != 0 {
		t.Errorf("collision ran %d times with collisions off", rec.calls["collision"])
	}
}

func BenchmarkTick2000(b *testing.B) {
	s := New(compute.NewCPUBackend(0))
	if err := s.Initialize(2000, DefaultInitConfig()); err != nil {
		b.Fatal(err)
	}
	p := particle.DefaultParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Tick(&p)
	}
}

func TestSimulatorRun_Orbit(t *testing.T) {
	s := newSim(t, nil, 200)
	p := particle.DefaultParams()

	if _, err := s.Run(context.Background(), &p, RunConfig{Steps: 7, TimeStep: 0.45, Orbit: true}); err != nil {
		t.Fatal(err)
	}

	want := particle.OrbitCenter(p.PlanetSize, p.Time)
	if r3.Norm(r3.Sub(p.Center, want)) > 1e-12 {
		t.Errorf("center %v not on orbit, want %v", p.Center, want)
	}
	for i, pos := range s.Positions() {
		if d := r3.Norm(r3.Sub(pos, p.Center)); d < p.PlanetRadius()-1e-9 {
			t.Fatalf("particle %d inside the moved planet", i)
		}
	}
}
