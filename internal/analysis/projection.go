package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

type Point2 struct{ X, Y float64 }

// Projection is a particle snapshot flattened onto two world axes.
type Projection struct {
	XAxis, YAxis string
	Points       []Point2
}

func component(v r3.Vec, axis string) float64 {
	switch axis {
	case "x":
		return v.X
	case "y":
		return v.Y
	default:
		return v.Z
	}
}

// Project flattens positions onto the plane spanned by two of "x", "y", "z".
func Project(positions []r3.Vec, xAxis, yAxis string) (*Projection, error) {
	for _, a := range []string{xAxis, yAxis} {
		if a != "x" && a != "y" && a != "z" {
			return nil, fmt.Errorf("analysis: unknown axis %q", a)
		}
	}
	if xAxis == yAxis {
		return nil, fmt.Errorf("analysis: axes must differ, got %q twice", xAxis)
	}

	proj := &Projection{
		XAxis:  xAxis,
		YAxis:  yAxis,
		Points: make([]Point2, len(positions)),
	}
	for i, p := range positions {
		proj.Points[i] = Point2{X: component(p, xAxis), Y: component(p, yAxis)}
	}
	return proj, nil
}

// ScatterToASCII draws a projection as ASCII art. Cells are shaded by how
// many points land in them; axes are drawn where they cross the view.
func ScatterToASCII(proj *Projection, width, height int) string {
	if proj == nil || len(proj.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := proj.Points[0].X, proj.Points[0].X
	minY, maxY := proj.Points[0].Y, proj.Points[0].Y
	for _, p := range proj.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.05
	rangeX *= 1.1
	rangeY *= 1.1

	counts := make([][]int, height)
	for i := range counts {
		counts[i] = make([]int, width)
	}
	peak := 0
	for _, p := range proj.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		counts[row][col]++
		peak = max(peak, counts[row][col])
	}

	axisCol := -1
	if minX <= 0 && minX+rangeX >= 0 {
		axisCol = int(-minX / rangeX * float64(width-1))
	}
	axisRow := -1
	if minY <= 0 && minY+rangeY >= 0 {
		axisRow = height - 1 - int(-minY/rangeY*float64(height-1))
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			n := counts[row][col]
			switch {
			case n > 0:
				sb.WriteRune(densityRamp[shade(n, peak)])
			case row == axisRow && col == axisCol:
				sb.WriteRune('┼')
			case row == axisRow:
				sb.WriteRune('─')
			case col == axisCol:
				sb.WriteRune('│')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

var densityRamp = []rune{'·', '∘', '•', '●'}

func shade(n, peak int) int {
	return min((n*len(densityRamp)-1)/peak, len(densityRamp)-1)
}
