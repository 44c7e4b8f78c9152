package viz

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/planetsim/internal/driver"
	"github.com/san-kum/planetsim/internal/metrics"
	"github.com/san-kum/planetsim/internal/particle"
	"github.com/san-kum/planetsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300

	// canvasTop and canvasLeft locate the canvas inside the rendered view:
	// header plus padding rows, and padding columns.
	canvasTop  = 3
	canvasLeft = 2
)

type TickMsg time.Time

// seriesRecorder feeds driver ticks into metrics and keeps a bounded
// history of their values. It runs on the driver's goroutine.
type seriesRecorder struct {
	mu       sync.Mutex
	radius   *metrics.MeanRadius
	energy   *metrics.KineticEnergy
	speed    *metrics.MaxSpeed
	radii    []float64
	energies []float64
}

func newSeriesRecorder() *seriesRecorder {
	return &seriesRecorder{
		radius: metrics.NewMeanRadius(),
		energy: metrics.NewKineticEnergy(),
		speed:  metrics.NewMaxSpeed(),
	}
}

func (r *seriesRecorder) OnTick(o *sim.Observation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.radius.Observe(o)
	r.energy.Reset()
	r.energy.Observe(o)
	r.speed.Observe(o)

	r.radii = appendBounded(r.radii, r.radius.Value())
	r.energies = appendBounded(r.energies, r.energy.Value())
}

func (r *seriesRecorder) snapshot() (radii, energies []float64, maxSpeed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.radii...), append([]float64(nil), r.energies...), r.speed.Value()
}

func (r *seriesRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.radius.Reset()
	r.energy.Reset()
	r.speed.Reset()
	r.radii = r.radii[:0]
	r.energies = r.energies[:0]
}

func appendBounded(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// Model is the bubbletea front end of a driver.Driver.
type Model struct {
	drv       *driver.Driver
	name      string
	fps       int
	canvas    *Canvas
	camera    *Camera
	colors    []r3.Vec
	series    *seriesRecorder
	paramKeys []string
	selected  int
	stats     driver.FrameStats
	frameRate float64
	lastFrame time.Time
	recorder  *Recorder
	showHelp  bool
	err       error
}

// NewModel wraps d for display at fps frames per second. name labels the
// header, usually the preset.
func NewModel(d *driver.Driver, name string, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	series := newSeriesRecorder()
	d.AddObserver(series)

	return Model{
		drv:       d,
		name:      name,
		fps:       fps,
		canvas:    NewCanvas(width, height),
		camera:    NewCamera(),
		colors:    d.Colors(),
		series:    series,
		paramKeys: particle.ParamNames(),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and runs driver frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.err = m.impulseAtCell(msg.X-canvasLeft, msg.Y-canvasTop)
		}
	case TickMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
				m.frameRate = 0.9*m.frameRate + 0.1/dt
			}
		}
		m.lastFrame = now

		stats, err := m.drv.Frame()
		m.stats = stats
		if err != nil {
			m.err = err
			m.drv.SetPaused(true)
		}
		m.draw()
		if m.recorder != nil {
			m.recorder.Capture(m.canvas)
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.drv.TogglePause()
	case "r":
		m.err = m.drv.Reset()
		m.colors = m.drv.Colors()
		m.series.reset()
	case "i":
		m.err = m.impulseFacingCamera()
	case "c":
		m.drv.ToggleCollisions()
	case "o":
		m.drv.ToggleOrbit()
	case "a":
		m.camera.RotateYaw(-0.1)
	case "d":
		m.camera.RotateYaw(0.1)
	case "w":
		m.camera.RotatePitch(0.1)
	case "s":
		m.camera.RotatePitch(-0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "up", "k":
		m.selected = (m.selected + len(m.paramKeys) - 1) % len(m.paramKeys)
	case "down", "j", "tab":
		m.selected = (m.selected + 1) % len(m.paramKeys)
	case "right", "l":
		m.err = m.adjustParam(1)
	case "left", "h":
		m.err = m.adjustParam(-1)
	case "g":
		m.toggleRecording()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) adjustParam(dir float64) error {
	return m.drv.NudgeParam(m.paramKeys[m.selected], dir)
}

// impulseFacingCamera strikes the planet on the side the camera sees,
// just outside its surface.
func (m *Model) impulseFacingCamera() error {
	p := m.drv.Params()
	point := r3.Add(p.Center, r3.Scale(p.PlanetRadius()*1.5, m.camera.Facing()))
	return m.drv.QueueImpulse(point)
}

// impulseAtCell queues an impulse where a click lands on the plane through
// the planet center facing the camera.
func (m *Model) impulseAtCell(col, row int) error {
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return nil
	}
	sw, sh := m.canvas.Width*2, m.canvas.Height*4
	center := m.drv.Params().Center
	_, _, depth, _ := m.camera.Project(center, sw, sh)
	point := m.camera.Unproject(col*2+1, row*4+2, sw, sh, depth)
	return m.drv.QueueImpulse(point)
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.recorder = NewRecorder(fmt.Sprintf("planetsim_%d.gif", time.Now().Unix()), m.fps)
		return
	}
	m.err = m.recorder.Save()
	m.recorder = nil
}

func (m *Model) draw() {
	m.canvas.Clear()
	pos := m.drv.Snapshot()
	defer m.drv.Release(pos)

	p := m.drv.Params()
	DrawCloud(m.canvas, m.camera, pos, m.colors, p.Center, p.PlanetRadius())
}

// View renders the canvas beside the status panel.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render())

	var s strings.Builder
	status := StatusRunning.Render("RUNNING")
	if m.drv.Paused() {
		status = StatusPaused.Render("PAUSED")
	}
	if m.recorder != nil {
		status += "  " + StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Frames()))
	}
	s.WriteString(status + "\n\n")

	radii, energies, maxSpeed := m.series.snapshot()
	if len(radii) > 1 {
		chart := asciigraph.Plot(radii, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("mean radius"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(MetricLabel.Render("energy") + SparklineChart(energies, 28) + "\n\n")

	backend := m.drv.Backend()
	p := m.drv.Params()
	rows := [][2]string{
		{"time", fmt.Sprintf("%.2f", p.Time)},
		{"frame", fmt.Sprintf("%d", m.stats.Frame)},
		{"particles", fmt.Sprintf("%d", m.drv.Len())},
		{"fps", fmt.Sprintf("%.0f", m.frameRate)},
		{"frame time", m.stats.Elapsed.Round(time.Microsecond).String()},
		{"backend", fmt.Sprintf("%s x%d", backend.Name(), backend.Lanes())},
		{"max speed", fmt.Sprintf("%.4f", maxSpeed)},
		{"collisions", onOff(m.drv.Collisions())},
		{"orbit", onOff(m.drv.Orbit())},
	}
	for _, r := range rows {
		s.WriteString(MetricLabel.Render(r[0]) + MetricValue.Render(r[1]) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	values := p.GetParams()
	for i, k := range m.paramKeys {
		lo, hi, _ := particle.ParamBounds(k)
		line := fmt.Sprintf("%-13s %s %s", k, PositionBar(values[k], lo, hi, 8), formatParam(values[k]))
		if i == m.selected {
			s.WriteString(ActiveParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + KeyHint.Render(line) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + ErrorText.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + Separator(40) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause I:Impulse C:Collide O:Orbit\nWASD:Rotate +/-:Zoom ↑↓←→:Tune\nR:Reset G:Record ?:Help Q:Quit"))

	header := HeaderStyle.Render(strings.ToUpper("planetsim · " + m.name))
	mainView := lipgloss.JoinVertical(lipgloss.Left, header,
		lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle.Render(s.String())))

	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  I/Click  - Impulse at the planet    ║
║  C        - Toggle collisions        ║
║  O        - Toggle planet orbit      ║
║  W/A/S/D  - Rotate camera            ║
║  +/-      - Zoom                     ║
║  Up/Down  - Select parameter         ║
║  Lft/Rgt  - Adjust parameter         ║
║  R        - Reset cloud              ║
║  G        - Toggle GIF recording     ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatParam(v float64) string {
	if v != 0 && math.Abs(v) < 0.01 {
		return fmt.Sprintf("%.2e", v)
	}
	return fmt.Sprintf("%.3f", v)
}

// RunLive runs the terminal view until the user quits.
func RunLive(d *driver.Driver, name string, fps int) error {
	_, err := tea.NewProgram(NewModel(d, name, fps), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
