package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	uv "github.com/charmbracelet/ultraviolet"
)

// PixelBuffer is an image-backed Buffer. It presents as PNG, converts to a
// standard Go image, and can draw itself onto an ultraviolet screen using
// half-block characters for double vertical resolution.
type PixelBuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA // Row-major pixel data
	depth  []float64
	bg     color.RGBA
}

// NewPixelBuffer creates an image-backed render target. For terminal
// display via Draw, height should be 2x the terminal rows.
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if err := checkDims(width, height); err != nil {
		return nil, fmt.Errorf("pixel buffer: %w", err)
	}
	fb := &PixelBuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
		depth:  make([]float64, width*height),
		bg:     ColorBlack,
	}
	fb.Clear()
	return fb, nil
}

// SetBackground sets the color used by Clear.
func (fb *PixelBuffer) SetBackground(c color.RGBA) {
	fb.bg = c
}

// Size returns the target dimensions.
func (fb *PixelBuffer) Size() (int, int) {
	return fb.Width, fb.Height
}

// Clear fills the buffer with the background color and resets depth to +Inf.
func (fb *PixelBuffer) Clear() {
	for i := range fb.Pixels {
		fb.Pixels[i] = fb.bg
	}

	if len(fb.depth) == 0 {
		return
	}
	fb.depth[0] = math.Inf(1)
	for filled := 1; filled < len(fb.depth); filled *= 2 {
		copy(fb.depth[filled:], fb.depth[:filled])
	}
}

// CreatePixel returns a pixel of the given color. Image targets have no
// glyphs; the rune is kept for interface symmetry.
func (fb *PixelBuffer) CreatePixel(c Color) Pixel {
	return Pixel{Glyph: '█', Color: c}
}

// SetPixel writes p at (x, y) when depth passes a strictly-less test.
func (fb *PixelBuffer) SetPixel(x, y int, depth float64, p Pixel) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	idx := y*fb.Width + x
	if depth < fb.depth[idx] {
		fb.depth[idx] = depth
		fb.Pixels[idx] = p.Color
	}
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *PixelBuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's
// algorithm, ignoring depth.
func (fb *PixelBuffer) DrawLine(x0, y0, x1, y1 int, p Pixel) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		if x0 >= 0 && x0 < fb.Width && y0 >= 0 && y0 < fb.Height {
			idx := y0*fb.Width + x0
			fb.depth[idx] = math.Inf(-1)
			fb.Pixels[idx] = p.Color
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Present encodes the buffer as PNG.
func (fb *PixelBuffer) Present(w io.Writer) error {
	return png.Encode(w, fb.ToImage())
}

// ToImage converts the buffer to a standard Go image.RGBA.
func (fb *PixelBuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the buffer as a PNG file.
func (fb *PixelBuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return fb.Present(f)
}

// Draw converts the buffer to terminal cells and draws them on the screen.
// Each terminal row shows two pixel rows using ▀ (upper half block) with
// fg=top color and bg=bottom color.
func (fb *PixelBuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			topColor := fb.GetPixel(col, topY)
			botColor := fb.GetPixel(col, botY)

			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(topColor),
					Bg: rgbaToColor(botColor),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}
