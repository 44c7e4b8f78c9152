package particle

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   r3.Vec
		want r3.Vec
	}{
		{"zero", r3.Vec{}, r3.Vec{}},
		{"axis", r3.Vec{X: 3}, r3.Vec{X: 1}},
		{"negative", r3.Vec{Y: -2}, r3.Vec{Y: -1}},
		{"diagonal", r3.Vec{X: 3, Y: 4}, r3.Vec{X: 0.6, Y: 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if r3.Norm(r3.Sub(got, tt.want)) > 1e-12 {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !IsFinite(got) {
				t.Errorf("Normalize(%v) produced non-finite %v", tt.in, got)
			}
		})
	}
}

func TestReflect(t *testing.T) {
	v := r3.Vec{X: -1, Y: 1}
	n := r3.Vec{X: 1}

	got := Reflect(v, n)
	want := r3.Vec{X: 1, Y: 1}
	if got != want {
		t.Errorf("Reflect(%v, %v) = %v, want %v", v, n, got, want)
	}

	if got := Reflect(v, r3.Vec{}); got != v {
		t.Errorf("reflect about zero normal should be identity, got %v", got)
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		v    r3.Vec
		want bool
	}{
		{r3.Vec{X: 1, Y: 2, Z: 3}, true},
		{r3.Vec{X: math.NaN()}, false},
		{r3.Vec{Y: math.Inf(1)}, false},
		{r3.Vec{Z: math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		if got := IsFinite(tt.v); got != tt.want {
			t.Errorf("IsFinite(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestHashRange(t *testing.T) {
	for seed := uint32(0); seed < 10000; seed++ {
		h := Hash(seed)
		if h < 0 || h >= 1 {
			t.Fatalf("Hash(%d) = %v, want [0,1)", seed, h)
		}
	}
	if Hash(7) != Hash(7) {
		t.Error("Hash is not deterministic")
	}
	if Hash(1) == Hash(2) {
		t.Error("adjacent seeds should not collide")
	}
}

func TestOrbitCenter(t *testing.T) {
	c := OrbitCenter(10, 0)
	if c != (r3.Vec{Z: 20}) {
		t.Errorf("expected (0,0,20) at t=0, got %v", c)
	}
	for _, tm := range []float64{0.45, 1, 7.2} {
		c := OrbitCenter(10, tm)
		if math.Abs(r3.Norm(c)-20) > 1e-9 || c.Y != 0 {
			t.Errorf("t=%f: center %v off the orbit", tm, c)
		}
	}
}
