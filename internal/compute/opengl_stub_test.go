//go:build !opengl43

package compute

import (
	"sync/atomic"
	"testing"

	"github.com/san-kum/planetsim/internal/particle"
)

func TestOpenGLStubFallsBackToCPU(t *testing.T) {
	b, err := SelectBackend("opengl", 2)
	if err != nil {
		t.Fatal(err)
	}
	gl, ok := b.(*OpenGLBackend)
	if !ok {
		t.Fatalf("expected *OpenGLBackend, got %T", b)
	}
	if gl.Available() || gl.Lanes() != 2 {
		t.Errorf("stub should be unavailable with 2 lanes, got %v/%d", gl.Available(), gl.Lanes())
	}

	s, _ := particle.NewStore(4)
	p := particle.DefaultParams()
	if handled, err := gl.RunKernel(particle.GravityKernel{}, s, &p); handled || err != nil {
		t.Errorf("stub must leave kernels to Dispatch, got %v, %v", handled, err)
	}

	var hits int64
	if err := gl.Dispatch(1000, func(int) { atomic.AddInt64(&hits, 1) }); err != nil {
		t.Fatal(err)
	}
	if hits != 1000 {
		t.Errorf("dispatch ran %d of 1000 units", hits)
	}
	if err := Shutdown(); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
