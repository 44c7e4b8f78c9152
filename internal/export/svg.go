package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/planetsim/internal/analysis"
	"github.com/san-kum/planetsim/internal/viz"
	"gonum.org/v1/gonum/spatial/r3"
)

const defaultFill = "#00ff00"

// CanvasToSVG converts a Braille canvas to SVG format. Dots take the color
// blended into their cell.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	writeHeader(&sb, width, height)

	// Braille dot-to-bit mapping
	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			fill := defaultFill
			if rgb, ok := canvas.CellColor(row, col); ok {
				fill = hexRGB(rgb)
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, dotRadius, fill)
					}
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ProjectionToSVG draws a projected snapshot as a scatter plot. colors is
// index-aligned with the projection points; missing colors use the default.
func ProjectionToSVG(proj *analysis.Projection, colors []r3.Vec, width, height int) string {
	if proj == nil || len(proj.Points) == 0 {
		return ""
	}

	xs := make([]float64, len(proj.Points))
	ys := make([]float64, len(proj.Points))
	for i, p := range proj.Points {
		xs[i], ys[i] = p.X, p.Y
	}
	fx := fit(xs, float64(width), false)
	fy := fit(ys, float64(height), true)

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<text x=\"8\" y=\"16\" fill=\"#666688\" font-size=\"12\">%s vs %s</text>\n", proj.YAxis, proj.XAxis)
	for i, p := range proj.Points {
		fill := defaultFill
		if i < len(colors) {
			fill = hexRGB(colors[i])
		}
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.2\" fill=\"%s\"/>\n", fx(p.X), fy(p.Y), fill)
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG draws a metric series against time as a polyline.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	if len(times) < 2 || len(times) != len(values) {
		return ""
	}
	fx := fit(times, float64(width), false)
	fy := fit(values, float64(height), true)

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, "<path fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" d=\"M", strokeColor)
	for i := range times {
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", fx(times[i]), fy(values[i]))
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", fx(times[i]), fy(values[i]))
		}
	}
	sb.WriteString("\"/>\n</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// fit maps values onto [0, size] with 10% padding. flip puts larger values
// at the top.
func fit(values []float64, size float64, flip bool) func(float64) float64 {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2
	return func(v float64) float64 {
		t := (v - lo) / span * size
		if flip {
			return size - t
		}
		return t
	}
}

func hexRGB(c r3.Vec) string {
	b := func(v float64) int { return int(max(0, min(255, v*255))) }
	return fmt.Sprintf("#%02x%02x%02x", b(c.X), b(c.Y), b(c.Z))
}
