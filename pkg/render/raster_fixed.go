package render

import "math"

// Fixed-point rasterization uses 24.8 integer coordinates so edge tests are
// exact and watertight between adjacent triangles, at the cost of attribute
// precision: colors interpolate linearly in screen space and are quantized
// to 32 levels per channel for a retro look.
const (
	fixedShift = 8
	fixedOne   = 1 << fixedShift
	fixedHalf  = fixedOne >> 1
)

// toFixed converts a float coordinate to 24.8 fixed point.
func toFixed(f float64) int64 {
	return int64(math.Round(f * fixedOne))
}

// fixedFloor returns the integer pixel at or below the fixed-point value.
func fixedFloor(v int64) int {
	return int(v >> fixedShift)
}

// fixedCeil returns the integer pixel at or above the fixed-point value.
func fixedCeil(v int64) int {
	return int((v + fixedOne - 1) >> fixedShift)
}

// quantizeColor drops each channel to 32 levels.
func quantizeColor(c Color) Color {
	return Color{R: c.R & 0xF8, G: c.G & 0xF8, B: c.B & 0xF8, A: c.A}
}

// rasterizeFixed fills the triangle with integer edge functions. The edge
// coefficients are 24.8 and pixel centers are sampled at +128, so the
// accumulated edge values carry 16 fractional bits.
func (r *Rasterizer) rasterizeFixed(sv [3]screenVertex, environment bool) []Fragment {
	var fx, fy [3]int64
	for i := range 3 {
		fx[i] = toFixed(sv[i].X)
		fy[i] = toFixed(sv[i].Y)
	}

	minX := fixedFloor(min3i(fx[0], fx[1], fx[2]))
	maxX := fixedCeil(max3i(fx[0], fx[1], fx[2]))
	minY := fixedFloor(min3i(fy[0], fy[1], fy[2]))
	maxY := fixedCeil(max3i(fy[0], fy[1], fy[2]))

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > r.width-1 {
		maxX = r.width - 1
	}
	if maxY > r.height-1 {
		maxY = r.height - 1
	}
	if minX > maxX || minY > maxY {
		return nil
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := fixedEdgeCoeffs(fx[1], fy[1], fx[2], fy[2])
	A1, B1, C1 := fixedEdgeCoeffs(fx[2], fy[2], fx[0], fy[0])
	A2, B2, C2 := fixedEdgeCoeffs(fx[0], fy[0], fx[1], fy[1])

	area2 := (fx[1]-fx[0])*(fy[2]-fy[0]) - (fy[1]-fy[0])*(fx[2]-fx[0])
	if area2 == 0 {
		return nil
	}
	if area2 < 0 {
		A0, B0, C0 = -A0, -B0, -C0
		A1, B1, C1 = -A1, -B1, -C1
		A2, B2, C2 = -A2, -B2, -C2
		area2 = -area2
	}
	invArea := 1.0 / float64(area2)

	// Edge values at the center of the top-left pixel.
	px := int64(minX)<<fixedShift + fixedHalf
	py := int64(minY)<<fixedShift + fixedHalf
	w0Row := A0*px + B0*py + C0
	w1Row := A1*px + B1*py + C1
	w2Row := A2*px + B2*py + C2

	// Per-x steps are one full pixel in fixed units.
	stepX0, stepX1, stepX2 := A0<<fixedShift, A1<<fixedShift, A2<<fixedShift
	stepY0, stepY1, stepY2 := B0<<fixedShift, B1<<fixedShift, B2<<fixedShift

	var frags []Fragment
	for y := minY; y <= maxY; y++ {
		w0 := w0Row
		w1 := w1Row
		w2 := w2Row

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0 := float64(w0) * invArea
				bc1 := float64(w1) * invArea
				bc2 := float64(w2) * invArea

				depth := EnvironmentDepth
				if !environment {
					z := bc0*sv[0].Z + bc1*sv[1].Z + bc2*sv[2].Z
					depth = clampDepth(z*0.5 + 0.5)
				}

				// Screen-linear interpolation, then quantize.
				cr := uint8(float64(sv[0].Color.R)*bc0 + float64(sv[1].Color.R)*bc1 + float64(sv[2].Color.R)*bc2 + 0.5)
				cg := uint8(float64(sv[0].Color.G)*bc0 + float64(sv[1].Color.G)*bc1 + float64(sv[2].Color.G)*bc2 + 0.5)
				cb := uint8(float64(sv[0].Color.B)*bc0 + float64(sv[1].Color.B)*bc1 + float64(sv[2].Color.B)*bc2 + 0.5)

				normal := sv[0].Normal.Scale(bc0).
					Add(sv[1].Normal.Scale(bc1)).
					Add(sv[2].Normal.Scale(bc2)).
					Normalize()

				frags = append(frags, Fragment{
					X: x, Y: y,
					Depth:  depth,
					Color:  quantizeColor(RGB(cr, cg, cb)),
					Normal: normal,
				})
			}

			w0 += stepX0
			w1 += stepX1
			w2 += stepX2
		}

		w0Row += stepY0
		w1Row += stepY1
		w2Row += stepY2
	}
	return frags
}

// fixedEdgeCoeffs mirrors edgeCoeffs in 24.8 fixed point. A and B carry 8
// fractional bits; C carries 16.
func fixedEdgeCoeffs(x0, y0, x1, y1 int64) (A, B, C int64) {
	A = y0 - y1
	B = x1 - x0
	C = x0*y1 - x1*y0
	return
}

func min3i(a, b, c int64) int64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3i(a, b, c int64) int64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
