package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBase = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel grid with an optional color per cell. A cell's
// color is the mean of the colors of the pixels set in it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	tint          [][]r3.Vec
	hits          [][]int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		tint:   make([][]r3.Vec, h),
		hits:   make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.tint[i] = make([]r3.Vec, w)
		c.hits[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// cell maps sub-pixel coordinates to a cell and its dot mask. The canvas
// is (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) cell(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, rune(pixelMap[y%4][x%2]), true
}

func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= mask
	}
}

// SetColor sets a pixel and blends rgb (components in [0,1]) into its cell.
func (c *Canvas) SetColor(x, y int, rgb r3.Vec) {
	row, col, mask, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= mask
	c.tint[row][col] = r3.Add(c.tint[row][col], rgb)
	c.hits[row][col]++
}

// CellColor is the mean color blended into a cell, if any was.
func (c *Canvas) CellColor(row, col int) (r3.Vec, bool) {
	n := c.hits[row][col]
	if n == 0 {
		return r3.Vec{}, false
	}
	return r3.Scale(1/float64(n), c.tint[row][col]), true
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
			c.tint[i][j] = r3.Vec{}
			c.hits[i][j] = 0
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle draws an outline with the midpoint circle algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range [8][2]int{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			c.Set(cx+p[0], cy+p[1])
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// String renders the grid without color.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Render renders the grid with cell colors. Runs of cells sharing a color
// are styled together to keep the escape sequences short.
func (c *Canvas) Render() string {
	var b strings.Builder
	for row := range c.Grid {
		var run strings.Builder
		var runColor string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runColor == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(run.String()))
			}
			run.Reset()
		}
		for col, r := range c.Grid[row] {
			color := ""
			if rgb, ok := c.CellColor(row, col); ok {
				color = rgbHex(rgb)
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run.WriteRune(r)
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}

func rgbHex(v r3.Vec) string {
	return hexColor(int(v.X*255), int(v.Y*255), int(v.Z*255))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
