package render

import (
	"math"

	"github.com/taigrr/prism/pkg/math3d"
	"github.com/taigrr/prism/pkg/scene"
)

// lightingPass shades the G-buffer into the target buffer. LightNone copies
// albedo through; the lit modes reconstruct each pixel's world position from
// its depth and apply the scene's point lights.
func lightingPass(g *GBuffer, target Buffer, s *scene.Scene, mode scene.LightMode) {
	if mode == scene.LightNone || len(s.Lights) == 0 {
		copyAlbedo(g, target)
		return
	}

	invVP := s.Camera.ViewProjectionMatrix().Inverse()
	camPos := s.Camera.Position

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := y*g.Width + x
			depth := g.Depth[idx]
			if math.IsInf(depth, 1) {
				// Background: the target's own clear color shows through.
				continue
			}

			albedo := g.Albedo[idx]
			normal := g.Normal[idx]
			if normal.LenSq() < 1e-12 {
				// Wireframe fragments carry no usable normal; leave unlit.
				target.SetPixel(x, y, depth, target.CreatePixel(albedo))
				continue
			}

			world := reconstructWorld(invVP, x, y, depth, g.Width, g.Height)
			lit := shadePixel(albedo, normal, world, camPos, s, mode)
			target.SetPixel(x, y, depth, target.CreatePixel(lit))
		}
	}
}

// copyAlbedo moves the G-buffer image to the target unchanged.
func copyAlbedo(g *GBuffer, target Buffer) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := y*g.Width + x
			depth := g.Depth[idx]
			if math.IsInf(depth, 1) {
				continue
			}
			target.SetPixel(x, y, depth, target.CreatePixel(g.Albedo[idx]))
		}
	}
}

// reconstructWorld inverts the screen mapping and perspective projection to
// recover the world position of a shaded pixel.
func reconstructWorld(invVP math3d.Mat4, x, y int, depth float64, width, height int) math3d.Vec3 {
	ndcX := (float64(x)+0.5)/float64(width)*2 - 1
	ndcY := 1 - (float64(y)+0.5)/float64(height)*2
	ndcZ := depth*2 - 1

	clip := invVP.MulVec4(math3d.V4(ndcX, ndcY, ndcZ, 1))
	return clip.PerspectiveDivide()
}

// shadePixel applies ambient plus per-light diffuse (and, for Blinn-Phong,
// specular) terms.
func shadePixel(albedo Color, normal, world, camPos math3d.Vec3, s *scene.Scene, mode scene.LightMode) Color {
	const shininess = 32.0

	rAcc := float64(albedo.R) * s.Ambient
	gAcc := float64(albedo.G) * s.Ambient
	bAcc := float64(albedo.B) * s.Ambient

	viewDir := camPos.Sub(world).Normalize()

	for _, light := range s.Lights {
		lightVec := light.Position.Sub(world)
		dist := lightVec.Len()
		if dist == 0 {
			continue
		}
		lightDir := lightVec.Scale(1 / dist)

		diffuse := math.Max(0, normal.Dot(lightDir)) * light.Intensity

		specular := 0.0
		if mode == scene.LightBlinnPhong && diffuse > 0 {
			halfway := lightDir.Add(viewDir).Normalize()
			specular = math.Pow(math.Max(0, normal.Dot(halfway)), shininess) * light.Intensity
		}

		lr := float64(light.Color.R) / 255
		lg := float64(light.Color.G) / 255
		lb := float64(light.Color.B) / 255

		rAcc += float64(albedo.R)*diffuse*lr + 255*specular*lr
		gAcc += float64(albedo.G)*diffuse*lg + 255*specular*lg
		bAcc += float64(albedo.B)*diffuse*lb + 255*specular*lb
	}

	return Color{
		R: clampChannel(rAcc),
		G: clampChannel(gAcc),
		B: clampChannel(bAcc),
		A: albedo.A,
	}
}
