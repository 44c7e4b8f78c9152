package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const cubeSize = 0.3

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawSim()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawText(text, int32(x), int32(y), int32(size), color)
}

func (a *App) CustomGrid(slices int, spacing float32) {
	halfSize := float32(slices) * spacing / 2
	y := float32(groundY)
	for i := -slices / 2; i <= slices/2; i++ {
		pos := float32(i) * spacing
		rl.DrawLine3D(rl.NewVector3(pos, y, -halfSize), rl.NewVector3(pos, y, halfSize), ColGrid)
		rl.DrawLine3D(rl.NewVector3(-halfSize, y, pos), rl.NewVector3(halfSize, y, pos), ColGrid)
	}
}

func (a *App) drawSim() {
	pos := a.Drv.Snapshot()
	defer a.Drv.Release(pos)
	p := a.Drv.Params()

	rl.BeginMode3D(a.Camera)
	a.CustomGrid(60, 5.0)

	rl.DrawSphere(toRL(p.Center), float32(p.PlanetRadius()), ColPlanet)
	rl.DrawSphereWires(toRL(p.Center), float32(p.PlanetRadius())*1.001, 16, 16, rl.ColorAlpha(ColAccent, 0.2))

	for i, q := range pos {
		col := ColSelect
		if i < len(a.Colors) {
			col = a.Colors[i]
		}
		rl.DrawCube(toRL(q), cubeSize, cubeSize, cubeSize, col)
	}

	// Draw Interaction Cursor
	if a.CursorOn {
		rl.DrawSphereWires(a.Cursor, 0.5, 6, 6, rl.NewColor(255, 255, 255, 100))
		rl.DrawSphereWires(a.Cursor, 5.0, 8, 8, rl.NewColor(255, 255, 255, 30))
	}

	rl.EndMode3D()
}

func (a *App) DrawHUD() {
	a.drawText("planetsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Preset), 170, 34, 16, ColText)

	a.DrawTelemetry()

	status, col := "RUNNING", ColSelect
	if a.Drv.Paused() {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	p := a.Drv.Params()
	a.drawText(fmt.Sprintf("t=%.2f  n=%d  collisions %s  orbit %s", p.Time, a.Drv.Len(), onOff(a.Drv.Collisions()), onOff(a.Drv.Orbit())), 30, 70, 14, ColText)

	values := p.GetParams()
	y := 110
	for i, k := range a.ParamKeys {
		line := fmt.Sprintf("  %-13s %s", k, formatParam(values[k]))
		c := ColText
		if i == a.ParamSel {
			line, c = ">"+line[1:], ColSelect
		}
		a.drawText(line, 30, y, 14, c)
		y += 20
	}

	if a.Err != nil {
		a.drawText(a.Err.Error(), 30, y+10, 14, rl.NewColor(255, 80, 80, 255))
	}

	a.drawText("[SPACE] PAUSE  [CLICK/I] IMPULSE  [C] COLLIDE  [O] ORBIT  [R] RESET  [ESC] MENU  [Q] QUIT", 480, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("R: %.2f", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}

func (a *App) drawMenu() {
	a.drawText("planetsim", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %s", name), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %s", name), 50, y, 20, ColText)
		}
		y += 28
	}
	if a.Err != nil {
		a.drawText(a.Err.Error(), 50, y+20, 14, rl.NewColor(255, 80, 80, 255))
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 850, 680, 14, ColTextDim)
}
