package compute

import (
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/planetsim/internal/particle"
)

var (
	// ErrKernelPanic indicates a unit of work panicked during Dispatch.
	ErrKernelPanic = errors.New("compute: kernel panicked")

	ErrUnknownBackend    = errors.New("compute: unknown backend")
	ErrOpenGLUnavailable = errors.New("compute: opengl compute unavailable")
	ErrBackendClosed     = errors.New("compute: backend closed")
)

type Backend interface {
	Name() string
	Lanes() int
	Dispatch(n int, fn func(i int)) error
}

// KernelRunner is implemented by backends that execute some kernels as a
// whole instead of one Dispatch unit per particle. RunKernel reports false
// for kernels it leaves to Dispatch.
type KernelRunner interface {
	RunKernel(k particle.Kernel, s *particle.Store, p *particle.Params) (bool, error)
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelectBackend(0)
}

func SetBackend(b Backend) {
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// AutoSelectBackend returns a serial backend for a single worker and a CPU
// backend otherwise. workers <= 0 means one lane per CPU.
func AutoSelectBackend(workers int) Backend {
	if workers == 1 {
		return NewSerialBackend()
	}
	return NewCPUBackend(workers)
}

// BackendNames lists the names SelectBackend accepts.
func BackendNames() []string { return []string{"cpu", "serial", "opengl"} }

// SelectBackend builds the backend called name. All opengl callers share
// one GL context; release it with Shutdown.
func SelectBackend(name string, workers int) (Backend, error) {
	switch name {
	case "", "cpu":
		return AutoSelectBackend(workers), nil
	case "serial":
		return NewSerialBackend(), nil
	case "opengl":
		return sharedOpenGL(workers)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

var (
	glOnce   sync.Once
	glShared *OpenGLBackend
	glErr    error
)

func sharedOpenGL(workers int) (Backend, error) {
	glOnce.Do(func() { glShared, glErr = NewOpenGLBackend(workers) })
	if glErr != nil {
		return nil, glErr
	}
	return glShared, nil
}

// Shutdown releases the shared opengl backend if one was created.
func Shutdown() error {
	if glShared == nil {
		return nil
	}
	return glShared.Close()
}

func runChunk(start, end int, fn func(i int)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: index range [%d,%d): %v", ErrKernelPanic, start, end, r)
		}
	}()
	for i := start; i < end; i++ {
		fn(i)
	}
	return nil
}
