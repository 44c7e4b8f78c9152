package gui

import (
	"fmt"
	"log"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/planetsim/internal/config"
	"github.com/san-kum/planetsim/internal/driver"
	"github.com/san-kum/planetsim/internal/particle"
	"gonum.org/v1/gonum/spatial/r3"
)

// Theme Colors (Monochrome Hyper-Minimalist)
var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
	ColPlanet  = rl.NewColor(70, 90, 140, 255)
)

const (
	screenW = 1280
	screenH = 720
	// groundY is the picking plane used when a click misses the planet.
	groundY = -1.0
)

type App struct {
	Drv       *driver.Driver
	Log       *log.Logger
	Preset    string
	Camera    rl.Camera3D
	Colors    []rl.Color
	InMenu    bool
	Presets   []string
	Selected  int
	ParamKeys []string
	ParamSel  int
	Workers   int
	Telemetry []float64
	Cursor    rl.Vector3
	CursorOn  bool
	Err       error

	// orbit camera around the planet
	yaw, pitch, dist float64
	yawT, pitchT     float64
	distT            float64
}

func initWindow() {
	rl.InitWindow(screenW, screenH, "planetsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp creates the window state. With a nil driver the app starts in
// the preset menu.
func NewApp(d *driver.Driver, preset string, workers int, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	a := &App{
		Log:       logger,
		Presets:   config.ListPresets(),
		ParamKeys: particle.ParamNames(),
		Workers:   workers,
		Telemetry: make([]float64, 0, 200),
		Camera: rl.NewCamera3D(
			rl.NewVector3(0, 20, 60),
			rl.NewVector3(0, 0, 0),
			rl.NewVector3(0, 1, 0),
			45.0,
			rl.CameraPerspective,
		),
		yaw: 0, pitch: 0.3, dist: 70,
	}
	a.yawT, a.pitchT, a.distT = a.yaw, a.pitch, a.dist
	if d == nil {
		a.InMenu = true
	} else {
		a.attach(d, preset)
	}
	return a
}

// RunInteractive opens the window on the preset menu.
func RunInteractive(workers int, logger *log.Logger) {
	initWindow()
	defer rl.CloseWindow()
	NewApp(nil, "", workers, logger).RunLoop()
}

// Run opens the window on an existing driver.
func Run(d *driver.Driver, preset string, logger *log.Logger) {
	initWindow()
	defer rl.CloseWindow()
	NewApp(d, preset, 0, logger).RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) attach(d *driver.Driver, preset string) {
	a.Drv = d
	a.Preset = preset
	a.InMenu = false
	a.Telemetry = a.Telemetry[:0]
	a.loadColors()
	a.Log.Printf("gui: %s with %d particles on %s", preset, d.Len(), d.Backend().Name())
}

func (a *App) loadColors() {
	cols := a.Drv.Colors()
	a.Colors = make([]rl.Color, len(cols))
	for i, c := range cols {
		a.Colors[i] = rl.NewColor(uint8(c.X*255), uint8(c.Y*255), uint8(c.Z*255), 255)
	}
}

func (a *App) loadPreset(name string) {
	cfg := config.GetPreset(name)
	if a.Workers != 0 {
		cfg.Run.Workers = a.Workers
	}
	opts, err := driver.OptionsFromConfig(cfg)
	if err != nil {
		a.fail(err)
		return
	}
	d, err := driver.New(opts)
	if err != nil {
		a.fail(err)
		return
	}
	a.attach(d, name)
}

func (a *App) fail(err error) {
	a.Err = err
	if err != nil {
		a.Log.Println("gui:", err)
	}
}

// Update handles input and runs one driver frame. It returns false when
// the user quits.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if a.InMenu {
		if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
			a.Selected = (a.Selected + 1) % len(a.Presets)
		}
		if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
			a.Selected = (a.Selected + len(a.Presets) - 1) % len(a.Presets)
		}
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
			a.loadPreset(a.Presets[a.Selected])
		}
		return true
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu = true
		return true
	}

	a.handleCamera()
	a.handleKeys()
	a.handleMouse()

	stats, err := a.Drv.Frame()
	if err != nil {
		a.fail(err)
		a.Drv.SetPaused(true)
	}
	if stats.Ticked {
		a.record()
	}
	return true
}

func (a *App) handleKeys() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Drv.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.fail(a.Drv.Reset())
		a.loadColors()
		a.Telemetry = a.Telemetry[:0]
	}
	if rl.IsKeyPressed(rl.KeyC) {
		a.Drv.ToggleCollisions()
	}
	if rl.IsKeyPressed(rl.KeyO) {
		a.Drv.ToggleOrbit()
	}
	if rl.IsKeyPressed(rl.KeyI) {
		p := a.Drv.Params()
		facing := r3.Sub(fromRL(a.Camera.Position), p.Center)
		point := r3.Add(p.Center, r3.Scale(p.PlanetRadius()*1.5, particle.Normalize(facing)))
		a.fail(a.Drv.QueueImpulse(point))
	}

	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) || rl.IsKeyPressed(rl.KeyTab) {
		a.ParamSel = (a.ParamSel + 1) % len(a.ParamKeys)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.ParamSel = (a.ParamSel + len(a.ParamKeys) - 1) % len(a.ParamKeys)
	}
	if rl.IsKeyPressed(rl.KeyRight) || rl.IsKeyPressed(rl.KeyL) {
		a.fail(a.Drv.NudgeParam(a.ParamKeys[a.ParamSel], 1))
	}
	if rl.IsKeyPressed(rl.KeyLeft) || rl.IsKeyPressed(rl.KeyH) {
		a.fail(a.Drv.NudgeParam(a.ParamKeys[a.ParamSel], -1))
	}
}

func (a *App) handleCamera() {
	if rl.IsKeyDown(rl.KeyA) {
		a.yawT -= 0.03
	}
	if rl.IsKeyDown(rl.KeyD) {
		a.yawT += 0.03
	}
	if rl.IsKeyDown(rl.KeyW) {
		a.pitchT += 0.02
	}
	if rl.IsKeyDown(rl.KeyS) {
		a.pitchT -= 0.02
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		a.yawT -= float64(delta.X) * 0.005
		a.pitchT += float64(delta.Y) * 0.005
	}
	a.pitchT = math.Max(-1.5, math.Min(1.5, a.pitchT))

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.distT = math.Max(10, math.Min(500, a.distT-float64(wheel)*5))
	}

	// Apply Inertia (Lerp)
	lerp := math.Min(1, 5*float64(rl.GetFrameTime()))
	a.yaw += (a.yawT - a.yaw) * lerp
	a.pitch += (a.pitchT - a.pitch) * lerp
	a.dist += (a.distT - a.dist) * lerp

	center := a.Drv.Params().Center
	offset := r3.Vec{
		X: a.dist * math.Cos(a.pitch) * math.Sin(a.yaw),
		Y: a.dist * math.Sin(a.pitch),
		Z: a.dist * math.Cos(a.pitch) * math.Cos(a.yaw),
	}
	a.Camera.Target = toRL(center)
	a.Camera.Position = toRL(r3.Add(center, offset))
}

// handleMouse ray-picks a left click against the planet, falling back to
// the ground plane, and queues an impulse there.
func (a *App) handleMouse() {
	a.CursorOn = false
	ray := rl.GetMouseRay(rl.GetMousePosition(), a.Camera)
	p := a.Drv.Params()

	point, ok := pick(fromRL(ray.Position), fromRL(ray.Direction), p.Center, p.PlanetRadius())
	if !ok {
		return
	}
	a.Cursor, a.CursorOn = toRL(point), true
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		a.fail(a.Drv.QueueImpulse(point))
	}
}

// pick intersects a ray with the planet sphere, or with the plane y=-1
// when it misses the sphere.
func pick(origin, dir, center r3.Vec, radius float64) (r3.Vec, bool) {
	dir = particle.Normalize(dir)
	oc := r3.Sub(origin, center)
	b := r3.Dot(oc, dir)
	c := r3.Dot(oc, oc) - radius*radius
	if disc := b*b - c; disc >= 0 {
		if t := -b - math.Sqrt(disc); t > 0 {
			return r3.Add(origin, r3.Scale(t, dir)), true
		}
	}
	if dir.Y == 0 {
		return r3.Vec{}, false
	}
	t := (groundY - origin.Y) / dir.Y
	if t <= 0 {
		return r3.Vec{}, false
	}
	return r3.Add(origin, r3.Scale(t, dir)), true
}

func (a *App) record() {
	if len(a.Telemetry) == cap(a.Telemetry) {
		copy(a.Telemetry, a.Telemetry[1:])
		a.Telemetry = a.Telemetry[:len(a.Telemetry)-1]
	}
	pos := a.Drv.Snapshot()
	defer a.Drv.Release(pos)
	center := a.Drv.Params().Center
	sum := 0.0
	for _, p := range pos {
		sum += r3.Norm(r3.Sub(p, center))
	}
	a.Telemetry = append(a.Telemetry, sum/float64(max(1, len(pos))))
}

func toRL(v r3.Vec) rl.Vector3 { return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z)) }

func fromRL(v rl.Vector3) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func formatParam(v float64) string {
	if v != 0 && math.Abs(v) < 0.01 {
		return fmt.Sprintf("%.2e", v)
	}
	return fmt.Sprintf("%.3f", v)
}
