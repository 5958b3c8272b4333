package render

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/taigrr/prism/pkg/math3d"
)

func TestGBufferApplyDepthTest(t *testing.T) {
	g, err := NewGBuffer(10, 10)
	if err != nil {
		t.Fatalf("NewGBuffer: %v", err)
	}

	g.Apply([]Fragment{
		{X: 5, Y: 5, Depth: 0.8, Color: ColorRed},
		{X: 5, Y: 5, Depth: 0.3, Color: ColorGreen},
		{X: 5, Y: 5, Depth: 0.5, Color: ColorBlue},
	})

	idx := 5*10 + 5
	if g.Albedo[idx] != ColorGreen {
		t.Errorf("pixel color = %v, want the closest fragment's green", g.Albedo[idx])
	}
	if g.Depth[idx] != 0.3 {
		t.Errorf("pixel depth = %v, want 0.3", g.Depth[idx])
	}
}

func TestGBufferEqualDepthKeepsFirst(t *testing.T) {
	g, err := NewGBuffer(4, 4)
	if err != nil {
		t.Fatalf("NewGBuffer: %v", err)
	}

	g.Apply([]Fragment{
		{X: 1, Y: 1, Depth: 0.5, Color: ColorRed},
		{X: 1, Y: 1, Depth: 0.5, Color: ColorBlue},
	})

	if got := g.Albedo[1*4+1]; got != ColorRed {
		t.Errorf("equal-depth pixel = %v, want the first fragment's red", got)
	}
}

func TestGBufferOrderIndependence(t *testing.T) {
	// Fragments with distinct depths must composite to the same image in
	// any order.
	frags := make([]Fragment, 0, 100)
	rng := rand.New(rand.NewSource(42))
	for i := range 100 {
		frags = append(frags, Fragment{
			X:     i % 8,
			Y:     (i / 8) % 8,
			Depth: float64(i+1) / 101, // distinct depths
			Color: RGB(uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))),
		})
	}

	apply := func(fs []Fragment) *GBuffer {
		g, err := NewGBuffer(8, 8)
		if err != nil {
			t.Fatalf("NewGBuffer: %v", err)
		}
		g.Apply(fs)
		return g
	}

	want := apply(frags)

	for trial := range 5 {
		shuffled := make([]Fragment, len(frags))
		copy(shuffled, frags)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := apply(shuffled)
		for i := range want.Albedo {
			if got.Albedo[i] != want.Albedo[i] || got.Depth[i] != want.Depth[i] {
				t.Fatalf("trial %d: pixel %d differs after shuffle", trial, i)
			}
		}
	}
}

func TestGBufferOutOfBoundsDropped(t *testing.T) {
	g, err := NewGBuffer(4, 4)
	if err != nil {
		t.Fatalf("NewGBuffer: %v", err)
	}

	g.Apply([]Fragment{
		{X: -1, Y: 0, Depth: 0.1, Color: ColorRed},
		{X: 0, Y: -1, Depth: 0.1, Color: ColorRed},
		{X: 4, Y: 0, Depth: 0.1, Color: ColorRed},
		{X: 0, Y: 4, Depth: 0.1, Color: ColorRed},
	})

	for i, d := range g.Depth {
		if !math.IsInf(d, 1) {
			t.Fatalf("pixel %d written by out-of-bounds fragment", i)
		}
	}
}

func TestGBufferClear(t *testing.T) {
	g, err := NewGBuffer(8, 8)
	if err != nil {
		t.Fatalf("NewGBuffer: %v", err)
	}

	g.Apply([]Fragment{{X: 3, Y: 3, Depth: 0.5, Color: ColorRed, Normal: math3d.V3(0, 0, 1)}})
	if !g.Covered(3, 3) {
		t.Fatal("pixel should be covered after Apply")
	}

	g.Clear(ColorSky)
	if g.Covered(3, 3) {
		t.Error("pixel should not be covered after Clear")
	}
	for i := range g.Depth {
		if !math.IsInf(g.Depth[i], 1) {
			t.Fatalf("depth %d not reset to +Inf", i)
		}
		if g.Albedo[i] != ColorSky {
			t.Fatalf("albedo %d not reset to background", i)
		}
	}
}

func TestBufferConstructionLimits(t *testing.T) {
	if _, err := NewTermBuffer(MaxWidth+1, 10); err == nil {
		t.Error("oversized term buffer should be rejected")
	}
	if _, err := NewPixelBuffer(10, MaxHeight+1); err == nil {
		t.Error("oversized pixel buffer should be rejected")
	}
	if _, err := NewGBuffer(0, 10); err == nil {
		t.Error("zero-width gbuffer should be rejected")
	}
	if _, err := NewTermBuffer(80, 24); err != nil {
		t.Errorf("valid term buffer rejected: %v", err)
	}
}

func TestTermBufferDepthTest(t *testing.T) {
	tb, err := NewTermBuffer(10, 10)
	if err != nil {
		t.Fatalf("NewTermBuffer: %v", err)
	}

	near := tb.CreatePixel(ColorRed)
	far := tb.CreatePixel(ColorBlue)

	tb.SetPixel(2, 2, 0.9, far)
	tb.SetPixel(2, 2, 0.1, near)
	tb.SetPixel(2, 2, 0.5, far) // behind the red pixel, must not win

	if got := tb.cells[2*10+2].Color; got != ColorRed {
		t.Errorf("cell color = %v, want red", got)
	}

	// Out of bounds is a no-op.
	tb.SetPixel(-1, 0, 0, near)
	tb.SetPixel(10, 0, 0, near)
}

func TestTermBufferPresentFormat(t *testing.T) {
	tb, err := NewTermBuffer(4, 2)
	if err != nil {
		t.Fatalf("NewTermBuffer: %v", err)
	}
	tb.SetPixel(0, 0, 0.5, tb.CreatePixel(ColorRed))
	tb.SetPixel(1, 0, 0.5, tb.CreatePixel(ColorRed))

	var buf bytes.Buffer
	if err := tb.Present(&buf); err != nil {
		t.Fatalf("Present: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "\x1b[H") {
		t.Error("frame should start with a cursor home escape")
	}
	if !strings.HasSuffix(out, "\x1b[0m") {
		t.Error("frame should end with a reset escape")
	}
	if !strings.Contains(out, "\x1b[38;2;255;0;0m") {
		t.Error("frame should contain a truecolor escape for red")
	}
	// Two adjacent red cells share one color escape.
	if n := strings.Count(out, "\x1b[38;2;255;0;0m"); n != 1 {
		t.Errorf("red escape emitted %d times, want 1 (run-length encoding)", n)
	}
	// One row-positioning escape per row.
	if !strings.Contains(out, "\x1b[1;1H") || !strings.Contains(out, "\x1b[2;1H") {
		t.Error("frame should position each row explicitly")
	}
}

func TestPixelBufferDepthAndPresent(t *testing.T) {
	fb, err := NewPixelBuffer(8, 8)
	if err != nil {
		t.Fatalf("NewPixelBuffer: %v", err)
	}

	fb.SetPixel(3, 3, 0.9, fb.CreatePixel(ColorBlue))
	fb.SetPixel(3, 3, 0.2, fb.CreatePixel(ColorRed))
	fb.SetPixel(3, 3, 0.5, fb.CreatePixel(ColorGreen))

	if got := fb.GetPixel(3, 3); got != ColorRed {
		t.Errorf("pixel = %v, want red", got)
	}

	var buf bytes.Buffer
	if err := fb.Present(&buf); err != nil {
		t.Fatalf("Present: %v", err)
	}
	// PNG signature.
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("Present output is not a PNG stream")
	}
}

func TestPixelBufferDrawLineIgnoresDepth(t *testing.T) {
	fb, err := NewPixelBuffer(16, 16)
	if err != nil {
		t.Fatalf("NewPixelBuffer: %v", err)
	}

	// Fill a pixel at the nearest possible depth, then draw a line over it.
	fb.SetPixel(5, 5, 0, fb.CreatePixel(ColorBlue))
	fb.DrawLine(0, 5, 15, 5, fb.CreatePixel(ColorWhite))

	for x := 0; x < 16; x++ {
		if got := fb.GetPixel(x, 5); got != ColorWhite {
			t.Fatalf("line pixel (%d, 5) = %v, want white", x, got)
		}
	}
}
