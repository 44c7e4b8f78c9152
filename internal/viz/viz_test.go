package viz

import (
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/planetsim/internal/compute"
	"github.com/san-kum/planetsim/internal/driver"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	c.Set(1, 3)
	c.Set(100, 100)
	c.Set(-1, 0)

	if got := c.Grid[0][0]; got != brailleBase|0x1|0x80 {
		t.Errorf("cell (0,0) = %U, want %U", got, brailleBase|0x1|0x80)
	}
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 4 {
			t.Errorf("expected 4 cells per row, got %d", n)
		}
	}

	c.Clear()
	if c.Grid[0][0] != brailleBase {
		t.Error("Clear left dots behind")
	}
}

func TestCanvasColorBlend(t *testing.T) {
	c := NewCanvas(2, 1)
	c.SetColor(0, 0, r3.Vec{X: 1})
	c.SetColor(1, 0, r3.Vec{Z: 1})

	if c.hits[0][0] != 2 {
		t.Fatalf("expected 2 hits, got %d", c.hits[0][0])
	}
	if got := rgbHex(r3.Scale(0.5, c.tint[0][0])); got != "#7f007f" {
		t.Errorf("blended color = %s, want #7f007f", got)
	}
	if !strings.Contains(c.Render(), string(c.Grid[0][0])) {
		t.Error("Render dropped the colored cell")
	}
}

func TestDrawCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(20, 20, 8)

	for _, p := range [][2]int{{28, 20}, {12, 20}, {20, 28}, {20, 12}} {
		row, col, mask, _ := c.cell(p[0], p[1])
		if c.Grid[row][col]&mask == 0 {
			t.Errorf("circle missing point %v", p)
		}
	}
	row, col, mask, _ := c.cell(20, 20)
	if c.Grid[row][col]&mask != 0 {
		t.Error("circle outline filled its center")
	}
}

func TestCameraRoundTrip(t *testing.T) {
	cam := NewCamera()
	cam.RotateYaw(0.7)
	cam.RotatePitch(-0.2)
	sw, sh := 2000, 2000

	for _, p := range []r3.Vec{{X: 10, Y: 5, Z: -3}, {}, {X: -20, Y: -8, Z: 15}} {
		x, y, depth, ok := cam.Project(p, sw, sh)
		if !ok {
			t.Fatalf("%v not visible", p)
		}
		back := cam.Unproject(x, y, sw, sh, depth)
		if d := r3.Norm(r3.Sub(back, p)); d > 0.1 {
			t.Errorf("round trip of %v gave %v (off by %f)", p, back, d)
		}
	}
}

func TestCameraPitchClamp(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 100; i++ {
		cam.RotatePitch(0.1)
	}
	if cam.Pitch > math.Pi/2 {
		t.Errorf("pitch %f not clamped", cam.Pitch)
	}
	if f := cam.Facing(); math.Abs(r3.Norm(f)-1) > 1e-9 {
		t.Errorf("facing %v not a unit vector", f)
	}
}

func newTestModel(t *testing.T) (Model, *driver.Driver) {
	t.Helper()
	opts := driver.DefaultOptions()
	opts.Particles = 64
	opts.Backend = compute.NewSerialBackend()
	d, err := driver.New(opts)
	if err != nil {
		t.Fatalf("driver.New failed: %v", err)
	}
	return NewModel(d, "test", 30), d
}

func TestModelPauseToggle(t *testing.T) {
	m, d := newTestModel(t)
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("new model should show PAUSED")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = next.(Model)
	if d.Paused() {
		t.Fatal("space did not resume")
	}

	next, cmd := m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if cmd == nil {
		t.Error("tick should schedule the next frame")
	}
	if m.stats.Frame != 1 {
		t.Errorf("expected one frame, got %d", m.stats.Frame)
	}
	if !strings.Contains(m.View(), "RUNNING") {
		t.Error("view should show RUNNING")
	}
}

func TestModelAdjustParam(t *testing.T) {
	m, d := newTestModel(t)
	for i, k := range m.paramKeys {
		if k == "friction" {
			m.selected = i
		}
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(Model)
	if got := d.Params().Friction; math.Abs(got-0.55) > 1e-12 {
		t.Errorf("friction = %f, want 0.55", got)
	}
	if m.err != nil {
		t.Errorf("unexpected error: %v", m.err)
	}
}

func TestModelImpulseKey(t *testing.T) {
	m, d := newTestModel(t)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})
	m = next.(Model)
	if m.err != nil {
		t.Fatalf("impulse failed: %v", m.err)
	}
	stats, err := d.Frame()
	if err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if !stats.Impulse || stats.Ticked {
		t.Errorf("expected impulse without tick while paused, got %+v", stats)
	}
}

func TestRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	r := NewRecorder(path, 30)
	if err := r.Save(); err == nil {
		t.Error("saving zero frames should fail")
	}

	c := NewCanvas(10, 5)
	c.SetColor(3, 3, r3.Vec{X: 1, Y: 0.5})
	r.Capture(c)
	c.DrawLine(0, 0, 19, 19)
	r.Capture(c)
	if r.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", r.Frames())
	}
	if err := r.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(g.Image) != 2 || g.Image[0].Bounds().Dx() != 10*gifCharW {
		t.Errorf("unexpected gif: %d frames, width %d", len(g.Image), g.Image[0].Bounds().Dx())
	}

	// dot (3,3) lands in cell (0,1), sub-pixel (1,3): a 4x4 block at (12,12)
	if r, gr, b, _ := g.Image[0].At(0, 0).RGBA(); r|gr|b != 0 {
		t.Errorf("empty cell not black: %x %x %x", r, gr, b)
	}
	if r, _, b, _ := g.Image[0].At(13, 13).RGBA(); r < 0x8000 || b >= r {
		t.Errorf("dot lost its orange tint: r=%x b=%x", r, b)
	}

	bad := NewRecorder(filepath.Join(t.TempDir(), "missing", "out.gif"), 30)
	bad.Capture(c)
	if err := bad.Save(); err == nil {
		t.Error("saving into a missing directory should fail")
	}
}

func TestInteractiveMenu(t *testing.T) {
	var m tea.Model = NewInteractiveApp(30, 1)
	if !strings.Contains(m.View(), "PLANETSIM") {
		t.Fatal("menu missing title")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.View(), "particles") {
		t.Fatal("setup screen missing fields")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("starting should show the live view")
	}
}
