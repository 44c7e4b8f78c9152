//go:build opengl43

package compute

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/gl/v4.3-core/gl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/planetsim/internal/particle"
)

// OpenGLBackend runs the init and gravity kernels as GLSL compute shaders
// on a hidden GL 4.3 context. Dispatch and every other kernel run on CPU
// lanes. All GL calls happen on one locked OS thread owned by the backend,
// so it may be used from any goroutine. The context comes from a hidden
// raylib window, which raylib builds as GL 4.3 under the same opengl43 tag;
// raylib allows one window per process, so the GUI cannot run alongside.
type OpenGLBackend struct {
	cpu      *CPUBackend
	renderer string

	mu     sync.Mutex
	closed bool
	jobs   chan func()
	done   chan struct{}

	// owned by the GL thread
	window      bool
	gravityProg uint32
	initProg    uint32
	ssbo        [3]uint32
	capacity    int
	staging     []float32
}

func NewOpenGLBackend(workers int) (*OpenGLBackend, error) {
	b := &OpenGLBackend{
		cpu:  NewCPUBackend(workers),
		jobs: make(chan func()),
		done: make(chan struct{}),
	}
	ready := make(chan error, 1)
	go b.loop(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return b, nil
}

func (b *OpenGLBackend) Name() string    { return fmt.Sprintf("opengl (%s)", b.renderer) }
func (b *OpenGLBackend) Lanes() int      { return b.cpu.Lanes() }
func (b *OpenGLBackend) Available() bool { return true }

func (b *OpenGLBackend) Dispatch(n int, fn func(i int)) error {
	return b.cpu.Dispatch(n, fn)
}

func (b *OpenGLBackend) RunKernel(k particle.Kernel, s *particle.Store, p *particle.Params) (bool, error) {
	switch k := k.(type) {
	case particle.GravityKernel:
		return true, b.do(func() error { return b.runGravity(s, p) })
	case particle.InitKernel:
		return true, b.do(func() error { return b.runInit(s, k) })
	}
	return false, nil
}

// Close destroys the context. Later kernel calls return ErrBackendClosed.
func (b *OpenGLBackend) Close() error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.jobs)
	}
	b.mu.Unlock()
	<-b.done
	return nil
}

func (b *OpenGLBackend) do(fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBackendClosed
	}
	errc := make(chan error, 1)
	b.jobs <- func() { errc <- fn() }
	return <-errc
}

func (b *OpenGLBackend) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(b.done)

	if err := b.setup(); err != nil {
		ready <- err
		return
	}
	ready <- nil

	for job := range b.jobs {
		job()
	}
	b.teardown()
}

func (b *OpenGLBackend) setup() error {
	if rl.IsWindowReady() {
		return fmt.Errorf("%w: the raylib window already owns the context", ErrOpenGLUnavailable)
	}
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(1, 1, "planetsim compute")
	if !rl.IsWindowReady() {
		return fmt.Errorf("%w: no window for a GL context", ErrOpenGLUnavailable)
	}
	b.window = true

	if err := gl.Init(); err != nil {
		b.teardown()
		return fmt.Errorf("%w: %v", ErrOpenGLUnavailable, err)
	}
	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || major == 4 && minor < 3 {
		b.teardown()
		return fmt.Errorf("%w: context is GL %d.%d, compute needs 4.3", ErrOpenGLUnavailable, major, minor)
	}
	b.renderer = gl.GoStr(gl.GetString(gl.RENDERER))

	var err error
	if b.gravityProg, err = compileComputeShader(gravityShader); err != nil {
		b.teardown()
		return err
	}
	if b.initProg, err = compileComputeShader(initShader); err != nil {
		b.teardown()
		return err
	}
	gl.GenBuffers(int32(len(b.ssbo)), &b.ssbo[0])
	return nil
}

func (b *OpenGLBackend) teardown() {
	if b.ssbo[0] != 0 {
		gl.DeleteBuffers(int32(len(b.ssbo)), &b.ssbo[0])
	}
	if b.gravityProg != 0 {
		gl.DeleteProgram(b.gravityProg)
	}
	if b.initProg != 0 {
		gl.DeleteProgram(b.initProg)
	}
	if b.window {
		rl.CloseWindow()
		b.window = false
	}
}

func (b *OpenGLBackend) runInit(s *particle.Store, k particle.InitKernel) error {
	pos, _, col := s.Buffers()
	b.reserve(len(pos))

	gl.UseProgram(b.initProg)
	gl.Uniform1ui(uniform(b.initProg, "count"), uint32(len(pos)))
	gl.Uniform1ui(uniform(b.initProg, "seed"), k.Seed)
	gl.Uniform1f(uniform(b.initProg, "cloudRadius"), float32(k.CloudRadius))
	gl.Uniform1f(uniform(b.initProg, "innerRadius"), float32(k.InnerRadius))
	b.dispatch(len(pos))

	b.download(bindPositions, pos)
	b.download(bindColors, col)
	return glError("init")
}

func (b *OpenGLBackend) runGravity(s *particle.Store, p *particle.Params) error {
	pos, vel, _ := s.Buffers()
	b.reserve(len(pos))
	b.upload(bindPositions, pos)
	b.upload(bindVelocities, vel)

	gl.UseProgram(b.gravityProg)
	gl.Uniform1ui(uniform(b.gravityProg, "count"), uint32(len(pos)))
	gl.Uniform3f(uniform(b.gravityProg, "center"), float32(p.Center.X), float32(p.Center.Y), float32(p.Center.Z))
	gl.Uniform1f(uniform(b.gravityProg, "gravity"), float32(p.Gravity))
	gl.Uniform1f(uniform(b.gravityProg, "bounce"), float32(p.Bounce))
	gl.Uniform1f(uniform(b.gravityProg, "friction"), float32(p.Friction))
	gl.Uniform1f(uniform(b.gravityProg, "planetRadius"), float32(p.PlanetRadius()))
	b.dispatch(len(pos))

	b.download(bindPositions, pos)
	b.download(bindVelocities, vel)
	return glError("gravity")
}

// reserve grows every SSBO to hold n vec4s.
func (b *OpenGLBackend) reserve(n int) {
	if n <= b.capacity {
		return
	}
	for slot, buf := range b.ssbo {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf)
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, n*16, nil, gl.DYNAMIC_COPY)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(slot), buf)
	}
	b.staging = make([]float32, 4*n)
	b.capacity = n
}

func (b *OpenGLBackend) upload(slot int, src []r3.Vec) {
	packVec4(b.staging, src)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[slot])
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(src)*16, gl.Ptr(b.staging))
}

func (b *OpenGLBackend) download(slot int, dst []r3.Vec) {
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.ssbo[slot])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(dst)*16, gl.Ptr(b.staging))
	unpackVec4(dst, b.staging)
}

func (b *OpenGLBackend) dispatch(n int) {
	gl.DispatchCompute(workGroups(n), 1, 1)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func glError(kernel string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("compute: opengl %s kernel: error 0x%x", kernel, code)
	}
	return nil
}

func compileComputeShader(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: compile compute shader: %v", ErrOpenGLUnavailable, log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)
	gl.DeleteShader(shader)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: link compute program", ErrOpenGLUnavailable)
	}
	return program, nil
}
