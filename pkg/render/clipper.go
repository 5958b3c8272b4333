package render

import (
	"image/color"

	"github.com/taigrr/prism/pkg/math3d"
)

// ClipVertex is a vertex in homogeneous clip space with its interpolated
// attributes.
type ClipVertex struct {
	Position math3d.Vec4
	Color    color.RGBA
	Normal   math3d.Vec3
}

// ClipTriangle is a triangle of clip-space vertices.
type ClipTriangle [3]ClipVertex

// Triangles whose clip-space vertices are closer together than this
// (squared distance) are discarded as degenerate.
const degenerateEpsSq = 1e-6

// Clipper clips triangles against the view frustum in homogeneous clip
// space using the Sutherland-Hodgman algorithm, one plane at a time.
// It also rejects degenerate and (optionally) back-facing triangles.
//
// A Clipper is safe for concurrent use once configured: ClipTriangle only
// reads the plane set and culling flag.
type Clipper struct {
	planes          [6]math3d.Vec4
	backfaceCulling bool
}

// NewClipper creates a clipper with backface culling enabled and no planes.
// Call UpdateFrustumPlanes before clipping.
func NewClipper() *Clipper {
	return &Clipper{backfaceCulling: true}
}

// SetBackfaceCulling enables or disables back-facing triangle rejection.
func (c *Clipper) SetBackfaceCulling(enabled bool) {
	c.backfaceCulling = enabled
}

// BackfaceCulling reports whether back-facing triangles are rejected.
func (c *Clipper) BackfaceCulling() bool {
	return c.backfaceCulling
}

// UpdateFrustumPlanes replaces the clip planes. Planes are applied in the
// given order; each (a, b, c, d) keeps points with a*x + b*y + c*z + d*w >= 0.
func (c *Clipper) UpdateFrustumPlanes(planes [6]math3d.Vec4) {
	c.planes = planes
}

// ClipTriangle clips one triangle against all planes and returns the
// resulting triangles (fan-triangulated). Returns an empty slice when the
// triangle is degenerate, back-facing, or fully outside the frustum. A
// triangle fully inside comes back unchanged as a single element.
func (c *Clipper) ClipTriangle(tri ClipTriangle) []ClipTriangle {
	if isDegenerate(tri) {
		return nil
	}
	if c.backfaceCulling && isBackFacing(tri) {
		return nil
	}

	poly := []ClipVertex{tri[0], tri[1], tri[2]}
	for _, plane := range c.planes {
		poly = clipAgainstPlane(poly, plane)
		if len(poly) == 0 {
			return nil
		}
	}

	// Fan triangulation from the first vertex.
	out := make([]ClipTriangle, 0, len(poly)-2)
	for i := 1; i+1 < len(poly); i++ {
		out = append(out, ClipTriangle{poly[0], poly[i], poly[i+1]})
	}
	return out
}

// isDegenerate reports whether any two vertices are nearly coincident in
// clip space.
func isDegenerate(tri ClipTriangle) bool {
	for i := range 3 {
		for j := i + 1; j < 3; j++ {
			if tri[i].Position.Sub(tri[j].Position).LenSq() < degenerateEpsSq {
				return true
			}
		}
	}
	return false
}

// isBackFacing tests triangle orientation in NDC. Front faces wind
// clockwise after the perspective divide (the screen mapping flips Y, so
// clockwise NDC becomes counter-clockwise on screen). Triangles with a
// vertex at or behind the eye plane (w near zero) are kept for the clipper
// to sort out.
func isBackFacing(tri ClipTriangle) bool {
	const wEps = 1e-9
	for i := range 3 {
		if tri[i].Position.W < wEps {
			return false
		}
	}

	ax := tri[0].Position.X / tri[0].Position.W
	ay := tri[0].Position.Y / tri[0].Position.W
	bx := tri[1].Position.X / tri[1].Position.W
	by := tri[1].Position.Y / tri[1].Position.W
	cx := tri[2].Position.X / tri[2].Position.W
	cy := tri[2].Position.Y / tri[2].Position.W

	cross := (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
	return cross >= 0
}

// clipAgainstPlane runs one Sutherland-Hodgman pass over the polygon.
func clipAgainstPlane(poly []ClipVertex, plane math3d.Vec4) []ClipVertex {
	dists := make([]float64, len(poly))
	inside := 0
	for i, v := range poly {
		dists[i] = plane.Dot(v.Position)
		if dists[i] >= 0 {
			inside++
		}
	}

	switch inside {
	case 0:
		return nil
	case len(poly):
		return poly
	}

	out := make([]ClipVertex, 0, len(poly)+1)
	for i := range poly {
		j := (i + 1) % len(poly)
		di, dj := dists[i], dists[j]

		if di >= 0 {
			out = append(out, poly[i])
		}

		// Edge crosses the plane: emit the intersection point.
		if (di >= 0) != (dj >= 0) {
			denom := di - dj
			if denom > -1e-12 && denom < 1e-12 {
				continue
			}
			t := di / denom
			out = append(out, lerpClipVertex(poly[i], poly[j], t))
		}
	}
	return out
}

// lerpClipVertex interpolates position and attributes between two vertices.
func lerpClipVertex(a, b ClipVertex, t float64) ClipVertex {
	return ClipVertex{
		Position: a.Position.Lerp(b.Position, t),
		Color:    lerpColor(a.Color, b.Color, t),
		Normal:   a.Normal.Lerp(b.Normal, t).Normalize(),
	}
}
