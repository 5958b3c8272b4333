package render

import (
	"fmt"
	"math"

	"github.com/taigrr/prism/pkg/math3d"
)

// GBuffer accumulates the frame's surviving fragments: albedo, normal, and
// depth per pixel. It is the single point where fragment ordering is
// resolved, so Apply is intentionally serial.
type GBuffer struct {
	Width  int
	Height int
	Albedo []Color
	Normal []math3d.Vec3
	Depth  []float64
}

// NewGBuffer creates a G-buffer for the given dimensions.
func NewGBuffer(width, height int) (*GBuffer, error) {
	if err := checkDims(width, height); err != nil {
		return nil, fmt.Errorf("gbuffer: %w", err)
	}
	g := &GBuffer{
		Width:  width,
		Height: height,
		Albedo: make([]Color, width*height),
		Normal: make([]math3d.Vec3, width*height),
		Depth:  make([]float64, width*height),
	}
	g.Clear(ColorBlack)
	return g, nil
}

// Clear resets albedo to the background color, normals to zero, and depth
// to +Inf. Depth uses copy-doubling, which is faster than an element loop.
func (g *GBuffer) Clear(background Color) {
	for i := range g.Albedo {
		g.Albedo[i] = background
		g.Normal[i] = math3d.Vec3{}
	}

	if len(g.Depth) == 0 {
		return
	}
	g.Depth[0] = math.Inf(1)
	for filled := 1; filled < len(g.Depth); filled *= 2 {
		copy(g.Depth[filled:], g.Depth[:filled])
	}
}

// Apply composites fragments with a strictly-less depth test. Equal depths
// keep the earlier fragment, so a stable input order gives a stable image.
// Out-of-bounds fragments are dropped.
func (g *GBuffer) Apply(frags []Fragment) {
	for _, f := range frags {
		if f.X < 0 || f.X >= g.Width || f.Y < 0 || f.Y >= g.Height {
			continue
		}
		idx := f.Y*g.Width + f.X
		if f.Depth < g.Depth[idx] {
			g.Depth[idx] = f.Depth
			g.Albedo[idx] = f.Color
			g.Normal[idx] = f.Normal
		}
	}
}

// Covered reports whether any fragment landed on (x, y) this frame.
func (g *GBuffer) Covered(x, y int) bool {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return false
	}
	return !math.IsInf(g.Depth[y*g.Width+x], 1)
}
