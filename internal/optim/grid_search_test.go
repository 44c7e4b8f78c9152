package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/particle"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Particles = 150
	cfg.Run.Steps = 30
	return cfg
}

func TestLinspace(t *testing.T) {
	got := Linspace(0.1, 0.5, 5)
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("Linspace = %v, want %v", got, want)
		}
	}
	if got := Linspace(3, 9, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("single point Linspace = %v", got)
	}
}

func TestNewGridSearch_Invalid(t *testing.T) {
	if _, err := NewGridSearch([]string{"bounce"}, nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err := NewGridSearch([]string{"spin"}, [][]float64{{1}}); !errors.Is(err, particle.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	if _, err := NewGridSearch([]string{"bounce"}, [][]float64{{0.5, 3}}); !errors.Is(err, particle.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestGridSearch_FindsLowestKineticEnergy(t *testing.T) {
	g, err := NewGridSearch([]string{"friction"}, [][]float64{{0.2, 0.9}})
	if err != nil {
		t.Fatal(err)
	}
	if g.Size() != 2 {
		t.Errorf("expected grid size 2, got %d", g.Size())
	}

	base := smallConfig()
	params, val, err := g.Search(context.Background(), base, "kinetic_energy")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if params["friction"] != 0.2 {
		t.Errorf("expected heavier friction to win, got %v (value %g)", params, val)
	}
	if base.Params.Friction != particle.DefaultFriction {
		t.Error("search mutated the base config")
	}
}

func TestGridSearch_UnknownMetric(t *testing.T) {
	g, _ := NewGridSearch([]string{"bounce"}, [][]float64{{0.5}})
	if _, _, err := g.Search(context.Background(), smallConfig(), "nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestGridSearch_Canceled(t *testing.T) {
	g, _ := NewGridSearch([]string{"bounce", "friction"}, [][]float64{{0.2, 0.8}, {0.5, 0.9}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := g.Search(ctx, smallConfig(), "max_speed"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
