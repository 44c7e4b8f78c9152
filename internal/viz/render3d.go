package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	axisX = r3.Vec{X: 1}
	axisY = r3.Vec{Y: 1}
)

// Camera orbits the origin and projects world points onto a braille canvas.
// Extent is the world distance that fills half the shorter screen side at
// zoom 1.
type Camera struct {
	Yaw, Pitch float64
	Zoom       float64
	Extent     float64
	Distance   float64
	Near       float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.35, Zoom: 1, Extent: 60, Distance: 3, Near: 0.1}
}

func (c *Camera) RotateYaw(a float64)   { c.Yaw += a }
func (c *Camera) RotatePitch(a float64) { c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+a)) }
func (c *Camera) ZoomIn()               { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()              { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) view(p r3.Vec) r3.Vec {
	p = r3.NewRotation(c.Yaw, axisY).Rotate(p)
	return r3.NewRotation(c.Pitch, axisX).Rotate(p)
}

func (c *Camera) unview(p r3.Vec) r3.Vec {
	p = r3.NewRotation(-c.Pitch, axisX).Rotate(p)
	return r3.NewRotation(-c.Yaw, axisY).Rotate(p)
}

func (c *Camera) unitsPerWorld() float64 { return c.Zoom / c.Extent }

func pixelsPerUnit(sw, sh int) float64 { return float64(min(sw, sh)) / 2 }

// Project converts world coordinates to sub-pixel screen coordinates.
// Returns x, y, depth (larger is nearer), and visibility.
func (c *Camera) Project(p r3.Vec, sw, sh int) (int, int, float64, bool) {
	rot := r3.Scale(c.unitsPerWorld(), c.view(p))
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z) * pixelsPerUnit(sw, sh)
	sx := int(math.Round(rot.X*scale)) + sw/2
	sy := int(math.Round(-rot.Y*scale)) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// ScaleAt is the size in sub-pixels of one world unit at depth.
func (c *Camera) ScaleAt(depth float64, sw, sh int) float64 {
	if depth >= c.Distance-c.Near {
		return 0
	}
	return c.Distance / (c.Distance - depth) * pixelsPerUnit(sw, sh) * c.unitsPerWorld()
}

// Unproject inverts Project for a screen point at the given depth.
func (c *Camera) Unproject(sx, sy, sw, sh int, depth float64) r3.Vec {
	scale := c.Distance / (c.Distance - depth) * pixelsPerUnit(sw, sh)
	rot := r3.Vec{
		X: float64(sx-sw/2) / scale,
		Y: -float64(sy-sh/2) / scale,
		Z: depth,
	}
	return c.unview(r3.Scale(1/c.unitsPerWorld(), rot))
}

// Facing is the unit vector from the origin toward the camera.
func (c *Camera) Facing() r3.Vec {
	return c.unview(r3.Vec{Z: 1})
}

// DrawCloud projects particles onto the canvas in their own colors and
// outlines the planet.
func DrawCloud(cv *Canvas, cam *Camera, pos, col []r3.Vec, center r3.Vec, radius float64) {
	sw, sh := cv.Width*2, cv.Height*4
	white := r3.Vec{X: 1, Y: 1, Z: 1}
	for i, p := range pos {
		x, y, _, ok := cam.Project(p, sw, sh)
		if !ok {
			continue
		}
		c := white
		if i < len(col) {
			c = col[i]
		}
		cv.SetColor(x, y, c)
	}

	if cx, cy, d, ok := cam.Project(center, sw, sh); ok {
		cv.DrawCircle(cx, cy, int(radius*cam.ScaleAt(d, sw, sh)))
	}
}
