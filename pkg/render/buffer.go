// Package render implements the Prism rasterization pipeline: clipping,
// triangle rasterization, depth-buffered compositing, and presentation to
// double-buffered render targets.
package render

import (
	"fmt"
	"image/color"
	"io"
)

// Maximum render target dimensions. Larger targets are rejected at
// construction time.
const (
	MaxWidth  = 1920
	MaxHeight = 1080
)

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack   = color.RGBA{0, 0, 0, 255}
	ColorWhite   = color.RGBA{255, 255, 255, 255}
	ColorRed     = color.RGBA{255, 0, 0, 255}
	ColorGreen   = color.RGBA{0, 255, 0, 255}
	ColorBlue    = color.RGBA{0, 0, 255, 255}
	ColorYellow  = color.RGBA{255, 255, 0, 255}
	ColorCyan    = color.RGBA{0, 255, 255, 255}
	ColorMagenta = color.RGBA{255, 0, 255, 255}
	ColorGray    = color.RGBA{128, 128, 128, 255}
	ColorSky     = color.RGBA{135, 206, 235, 255}
	ColorGrass   = color.RGBA{34, 139, 34, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// RGBA creates a color from RGBA values.
func RGBA(r, g, b, a uint8) color.RGBA {
	return color.RGBA{r, g, b, a}
}

// lerpColor linearly interpolates between two colors.
func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t),
	}
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Pixel is a single drawable cell of a render target: a glyph and its color.
// Image-backed targets ignore the glyph; terminal targets render it.
type Pixel struct {
	Glyph rune
	Color Color
}

// Buffer is a depth-aware 2D render target. The pipeline owns two of them
// and swaps which one is presented each frame.
type Buffer interface {
	// Size returns the target dimensions in pixels.
	Size() (width, height int)

	// Clear resets every pixel to the background and every depth to the
	// far value.
	Clear()

	// CreatePixel builds a Pixel with the target's preferred glyph.
	CreatePixel(c Color) Pixel

	// SetPixel writes p at (x, y) if depth is strictly less than the
	// stored depth there. Out-of-bounds writes are ignored.
	SetPixel(x, y int, depth float64, p Pixel)

	// DrawLine draws a straight line between two points, ignoring depth.
	DrawLine(x0, y0, x1, y1 int, p Pixel)

	// Present writes the buffer contents to w in the target's native
	// format (ANSI escapes, PNG, etc).
	Present(w io.Writer) error
}

// checkDims validates render target dimensions at construction time.
func checkDims(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("render target dimensions %dx%d must be positive", width, height)
	}
	if width > MaxWidth || height > MaxHeight {
		return fmt.Errorf("render target dimensions %dx%d exceed maximum %dx%d", width, height, MaxWidth, MaxHeight)
	}
	return nil
}
