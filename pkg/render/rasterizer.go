package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/taigrr/prism/pkg/math3d"
	"github.com/taigrr/prism/pkg/scene"
)

// EnvironmentDepth is the fixed depth assigned to environment geometry so
// that backgrounds always sit behind regular entities but in front of the
// cleared far plane.
const EnvironmentDepth = 0.99

// Fragment is one candidate pixel produced by rasterization, carrying the
// attributes the lighting pass needs.
type Fragment struct {
	X, Y   int
	Depth  float64 // In [0, 1], smaller is closer
	Color  Color
	Normal math3d.Vec3
}

// screenVertex is a clip-space vertex after perspective divide and screen
// mapping.
type screenVertex struct {
	X, Y   float64 // Screen coordinates (pixels)
	Z      float64 // NDC depth in [-1, 1]
	W      float64 // Original clip-space w, kept for perspective correction
	Color  Color
	Normal math3d.Vec3
}

// Rasterizer converts clipped triangles to fragments for a fixed target
// size. It holds no pixel storage; the compositor owns depth.
type Rasterizer struct {
	width  int
	height int
}

// NewRasterizer creates a rasterizer for the given target dimensions.
func NewRasterizer(width, height int) (*Rasterizer, error) {
	if err := checkDims(width, height); err != nil {
		return nil, fmt.Errorf("rasterizer: %w", err)
	}
	return &Rasterizer{width: width, height: height}, nil
}

// Width returns the target width in pixels.
func (r *Rasterizer) Width() int { return r.width }

// Height returns the target height in pixels.
func (r *Rasterizer) Height() int { return r.height }

// Rasterize converts the triangle stream to fragments. Triangles are
// processed in parallel; each goroutine fills only its own result slot and
// the slots are flattened in input order, so the output is deterministic.
func (r *Rasterizer) Rasterize(geo []ProcessedGeometry) []Fragment {
	results := make([][]Fragment, len(geo))

	var wg sync.WaitGroup
	for i := range geo {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			results[slot] = r.rasterizeTriangle(geo[slot])
		}(i)
	}
	wg.Wait()

	total := 0
	for _, frags := range results {
		total += len(frags)
	}
	out := make([]Fragment, 0, total)
	for _, frags := range results {
		out = append(out, frags...)
	}
	return out
}

// rasterizeTriangle dispatches on the triangle's render mode.
func (r *Rasterizer) rasterizeTriangle(g ProcessedGeometry) []Fragment {
	sv := r.toScreen(g.Vertices)

	switch g.Mode {
	case scene.RenderWireframe:
		return r.rasterizeWireframe(sv)
	case scene.RenderFixedPoint:
		return r.rasterizeFixed(sv, g.EntityID == EnvironmentID)
	default:
		return r.rasterizeSolid(sv, g.EntityID == EnvironmentID)
	}
}

// toScreen performs the perspective divide and maps NDC to pixel
// coordinates. Y is flipped: NDC +Y is up, screen +Y is down.
func (r *Rasterizer) toScreen(tri ClipTriangle) [3]screenVertex {
	var sv [3]screenVertex
	for i := range 3 {
		p := tri[i].Position
		invW := 1.0
		if p.W != 0 {
			invW = 1.0 / p.W
		}
		ndcX := p.X * invW
		ndcY := p.Y * invW

		sv[i].X = (ndcX + 1) * 0.5 * float64(r.width)
		sv[i].Y = (1 - ndcY) * 0.5 * float64(r.height)
		sv[i].Z = p.Z * invW
		sv[i].W = p.W
		sv[i].Color = tri[i].Color
		sv[i].Normal = tri[i].Normal
	}
	return sv
}

// rasterizeSolid fills the triangle using incremental edge functions with
// perspective-correct attribute interpolation.
func (r *Rasterizer) rasterizeSolid(sv [3]screenVertex, environment bool) []Fragment {
	// Bounding box (clamped to screen)
	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.width-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.height-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	if minX > maxX || minY > maxY {
		return nil
	}

	// Edge function coefficients.
	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	A1, B1, C1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	A2, B2, C2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)

	area2 := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if area2 == 0 {
		return nil
	}
	// Orientation can go either way once backface culling is disabled;
	// normalize so inside means all edge functions >= 0.
	if area2 < 0 {
		A0, B0, C0 = -A0, -B0, -C0
		A1, B1, C1 = -A1, -B1, -C1
		A2, B2, C2 = -A2, -B2, -C2
		area2 = -area2
	}
	invArea := 1.0 / area2

	// Perspective-correct interpolation: precompute 1/W
	var invW [3]float64
	for i := range 3 {
		if sv[i].W != 0 {
			invW[i] = 1.0 / sv[i].W
		}
	}

	// Evaluate edge functions at the center of the top-left pixel.
	px := float64(minX) + 0.5
	py := float64(minY) + 0.5
	w0Row := edgeFunc(A0, B0, C0, px, py)
	w1Row := edgeFunc(A1, B1, C1, px, py)
	w2Row := edgeFunc(A2, B2, C2, px, py)

	var frags []Fragment
	for y := minY; y <= maxY; y++ {
		w0 := w0Row
		w1 := w1Row
		w2 := w2Row

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0 := w0 * invArea
				bc1 := w1 * invArea
				bc2 := w2 * invArea

				depth := EnvironmentDepth
				if !environment {
					// NDC z interpolates linearly in screen space.
					z := bc0*sv[0].Z + bc1*sv[1].Z + bc2*sv[2].Z
					depth = clampDepth(z*0.5 + 0.5)
				}

				pw0 := bc0 * invW[0]
				pw1 := bc1 * invW[1]
				pw2 := bc2 * invW[2]
				oneOverW := pw0 + pw1 + pw2
				if oneOverW != 0 {
					invOneOverW := 1.0 / oneOverW
					pw0 *= invOneOverW
					pw1 *= invOneOverW
					pw2 *= invOneOverW

					// Round so flat-colored triangles stay exact.
					cr := uint8(float64(sv[0].Color.R)*pw0 + float64(sv[1].Color.R)*pw1 + float64(sv[2].Color.R)*pw2 + 0.5)
					cg := uint8(float64(sv[0].Color.G)*pw0 + float64(sv[1].Color.G)*pw1 + float64(sv[2].Color.G)*pw2 + 0.5)
					cb := uint8(float64(sv[0].Color.B)*pw0 + float64(sv[1].Color.B)*pw1 + float64(sv[2].Color.B)*pw2 + 0.5)

					normal := sv[0].Normal.Scale(pw0).
						Add(sv[1].Normal.Scale(pw1)).
						Add(sv[2].Normal.Scale(pw2)).
						Normalize()

					frags = append(frags, Fragment{
						X: x, Y: y,
						Depth:  depth,
						Color:  RGB(cr, cg, cb),
						Normal: normal,
					})
				}
			}

			// Step in X direction
			w0 += A0
			w1 += A1
			w2 += A2
		}

		// Step in Y direction
		w0Row += B0
		w1Row += B1
		w2Row += B2
	}
	return frags
}

// rasterizeWireframe emits the triangle's three edges as depth-less lines
// with linearly interpolated colors.
func (r *Rasterizer) rasterizeWireframe(sv [3]screenVertex) []Fragment {
	var frags []Fragment
	edges := [3][2]int{{0, 1}, {1, 2}, {2, 0}}
	for _, e := range edges {
		frags = r.appendLine(frags, sv[e[0]], sv[e[1]])
	}
	return frags
}

// appendLine walks the pixels of a line with Bresenham's algorithm,
// interpolating attributes by fractional distance along the line.
// Wireframe fragments carry depth 0 so they always pass the depth test.
func (r *Rasterizer) appendLine(frags []Fragment, a, b screenVertex) []Fragment {
	x0, y0 := int(a.X), int(a.Y)
	x1, y1 := int(b.X), int(b.Y)

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

	steps := dx - dy // dy is non-positive
	if steps == 0 {
		steps = 1
	}
	total := float64(steps)
	startX, startY := x0, y0

	for {
		if x0 >= 0 && x0 < r.width && y0 >= 0 && y0 < r.height {
			t := float64(absInt(x0-startX)+absInt(y0-startY)) / total
			frags = append(frags, Fragment{
				X: x0, Y: y0,
				Depth:  0,
				Color:  lerpColor(a.Color, b.Color, t),
				Normal: a.Normal.Lerp(b.Normal, t).Normalize(),
			})
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
	return frags
}

// edgeCoeffs returns the coefficients of the edge function
// edge(x, y) = A*x + B*y + C for the directed edge (x0,y0) -> (x1,y1).
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1 // dy
	B = x1 - x0 // -dx
	C = x0*y1 - x1*y0
	return
}

// edgeFunc evaluates an edge function at point (x, y).
func edgeFunc(A, B, C, x, y float64) float64 {
	return A*x + B*y + C
}

func clampDepth(d float64) float64 {
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
