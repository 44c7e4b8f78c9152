//go:build !opengl43

package compute

import "github.com/san-kum/planetsim/internal/particle"

// OpenGLBackend without the opengl43 build tag runs everything on CPU lanes.
type OpenGLBackend struct {
	cpu *CPUBackend
}

func NewOpenGLBackend(workers int) (*OpenGLBackend, error) {
	return &OpenGLBackend{cpu: NewCPUBackend(workers)}, nil
}

func (b *OpenGLBackend) Name() string    { return "opengl (not available, cpu fallback)" }
func (b *OpenGLBackend) Lanes() int      { return b.cpu.Lanes() }
func (b *OpenGLBackend) Available() bool { return false }
func (b *OpenGLBackend) Close() error    { return nil }

func (b *OpenGLBackend) Dispatch(n int, fn func(i int)) error {
	return b.cpu.Dispatch(n, fn)
}

func (b *OpenGLBackend) RunKernel(particle.Kernel, *particle.Store, *particle.Params) (bool, error) {
	return false, nil
}
