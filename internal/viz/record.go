package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	gifCharW = 8
	gifCharH = 16
)

// Recorder turns canvas frames into an animated GIF, one braille dot per
// 4x4 pixel block in the cell's color.
type Recorder struct {
	path   string
	delay  int
	frames []*image.Paletted
}

func NewRecorder(path string, fps int) *Recorder {
	delay := 100 / max(1, fps)
	return &Recorder{path: path, delay: max(2, delay)}
}

func (r *Recorder) Frames() int { return len(r.frames) }

func (r *Recorder) Capture(c *Canvas) {
	pal := color.Palette(palette.Plan9)
	img := image.NewPaletted(image.Rect(0, 0, c.Width*gifCharW, c.Height*gifCharH), pal)
	black := uint8(pal.Index(color.Black))
	for i := range img.Pix {
		img.Pix[i] = black
	}

	dotW, dotH := gifCharW/2, gifCharH/4
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			pattern := c.Grid[row][col] - brailleBase
			if pattern <= 0 {
				continue
			}
			idx := uint8(pal.Index(cellColor(c, row, col)))
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&rune(pixelMap[dy][dx]) == 0 {
						continue
					}
					baseX, baseY := col*gifCharW+dx*dotW, row*gifCharH+dy*dotH
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+px, baseY+py, idx)
						}
					}
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

func cellColor(c *Canvas, row, col int) color.Color {
	rgb, ok := c.CellColor(row, col)
	if !ok {
		return color.White
	}
	v := r3.Scale(255, rgb)
	return color.RGBA{R: clampByte(v.X), G: clampByte(v.Y), B: clampByte(v.Z), A: 255}
}

func clampByte(v float64) uint8 {
	return uint8(max(0, min(255, v)))
}

// Save writes the captured frames. It is an error to save no frames.
func (r *Recorder) Save() error {
	if len(r.frames) == 0 {
		return fmt.Errorf("viz: no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}
	f, err := os.Create(r.path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, &anim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
