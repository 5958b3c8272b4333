package render

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// TermBuffer is a Buffer that presents as a raw ANSI escape stream, one
// glyph per pixel. Runs of same-colored pixels share a single color escape,
// and the whole frame goes out in one write to avoid tearing.
type TermBuffer struct {
	width  int
	height int
	cells  []Pixel
	depth  []float64
	bg     Color
}

// NewTermBuffer creates a terminal-backed render target.
func NewTermBuffer(width, height int) (*TermBuffer, error) {
	if err := checkDims(width, height); err != nil {
		return nil, fmt.Errorf("term buffer: %w", err)
	}
	t := &TermBuffer{
		width:  width,
		height: height,
		cells:  make([]Pixel, width*height),
		depth:  make([]float64, width*height),
		bg:     ColorBlack,
	}
	t.Clear()
	return t, nil
}

// SetBackground sets the color used by Clear.
func (t *TermBuffer) SetBackground(c Color) {
	t.bg = c
}

// Size returns the target dimensions.
func (t *TermBuffer) Size() (int, int) {
	return t.width, t.height
}

// Clear resets every cell to a background space and every depth to +Inf.
func (t *TermBuffer) Clear() {
	blank := Pixel{Glyph: ' ', Color: t.bg}
	for i := range t.cells {
		t.cells[i] = blank
	}

	if len(t.depth) == 0 {
		return
	}
	t.depth[0] = math.Inf(1)
	for filled := 1; filled < len(t.depth); filled *= 2 {
		copy(t.depth[filled:], t.depth[:filled])
	}
}

// CreatePixel returns a full-block pixel in the given color.
func (t *TermBuffer) CreatePixel(c Color) Pixel {
	return Pixel{Glyph: '█', Color: c}
}

// SetPixel writes p at (x, y) when depth passes a strictly-less test.
func (t *TermBuffer) SetPixel(x, y int, depth float64, p Pixel) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	idx := y*t.width + x
	if depth < t.depth[idx] {
		t.depth[idx] = depth
		t.cells[idx] = p
	}
}

// DrawLine draws a straight line between two points using Bresenham's
// algorithm, ignoring depth.
func (t *TermBuffer) DrawLine(x0, y0, x1, y1 int, p Pixel) {
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
		if x0 >= 0 && x0 < t.width && y0 >= 0 && y0 < t.height {
			idx := y0*t.width + x0
			t.depth[idx] = math.Inf(-1)
			t.cells[idx] = p
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

// Present writes the frame as ANSI escapes: cursor home, then each row with
// run-length-encoded truecolor sequences. Only color changes emit escapes.
func (t *TermBuffer) Present(w io.Writer) error {
	var sb strings.Builder
	// Rough estimate: glyph plus occasional escape per cell.
	sb.Grow(t.width*t.height*4 + t.height*8)

	sb.WriteString("\x1b[H")

	var cur Color
	haveColor := false

	for y := 0; y < t.height; y++ {
		fmt.Fprintf(&sb, "\x1b[%d;1H", y+1)
		for x := 0; x < t.width; x++ {
			cell := t.cells[y*t.width+x]
			if !haveColor || cell.Color != cur {
				fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm", cell.Color.R, cell.Color.G, cell.Color.B)
				cur = cell.Color
				haveColor = true
			}
			sb.WriteRune(cell.Glyph)
		}
	}
	sb.WriteString("\x1b[0m")

	_, err := io.WriteString(w, sb.String())
	return err
}

// HideCursor returns the escape sequence that hides the terminal cursor and
// clears the screen, written once before the first frame.
func HideCursor() string {
	return "\x1b[?25l\x1b[2J"
}

// ShowCursor returns the escape sequence restoring the cursor, written once
// after the last frame.
func ShowCursor() string {
	return "\x1b[0m\x1b[?25h"
}
