package render

import (
	"image/color"
	"sync"

	"github.com/taigrr/prism/pkg/math3d"
	"github.com/taigrr/prism/pkg/models"
	"github.com/taigrr/prism/pkg/scene"
)

// EnvironmentID marks geometry belonging to environment entities
// (backgrounds), which rasterize at a fixed far depth.
const EnvironmentID = -1

// ProcessedGeometry is one clipped triangle ready for rasterization,
// tagged with its source entity and render mode.
type ProcessedGeometry struct {
	Transform math3d.Mat4 // Model-view-projection used to produce the vertices
	EntityID  int         // Index into the scene's entity list, or EnvironmentID
	Mode      scene.RenderMode
	Vertices  ClipTriangle
}

// processGeometry transforms, culls, and clips every entity in the scene,
// producing the triangle stream for the rasterizer. Entities are processed
// in parallel; each goroutine writes only its own result slot, and results
// are flattened in entity order so output is deterministic.
func processGeometry(s *scene.Scene, clipper *Clipper) []ProcessedGeometry {
	viewProj := s.Camera.ViewProjectionMatrix()
	frustum := NewFrustumFromMatrix(viewProj)

	results := make([][]ProcessedGeometry, len(s.Entities))

	var wg sync.WaitGroup
	for i, e := range s.Entities {
		if e.Mesh == nil || len(e.Mesh.Faces) == 0 {
			continue
		}
		wg.Add(1)
		go func(slot int, e *scene.Entity) {
			defer wg.Done()
			results[slot] = processEntity(e, slot, viewProj, frustum, clipper)
		}(i, e)
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]ProcessedGeometry, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// processEntity culls and clips one entity's mesh. The mesh's face caches
// are refreshed here; each mesh must belong to a single entity.
func processEntity(e *scene.Entity, id int, viewProj math3d.Mat4, frustum Frustum, clipper *Clipper) []ProcessedGeometry {
	mesh := e.Mesh
	model := e.Transform.Matrix()
	mvp := viewProj.Mul(model)

	// Whole-entity cull against the world-space frustum.
	boundsMin, boundsMax := mesh.GetBounds()
	worldBox := NewAABB(boundsMin, boundsMax).Transform(model)
	if !frustum.IntersectAABB(worldBox) {
		return nil
	}

	// When the entity is fully inside the frustum, per-face culling
	// cannot reject anything and is skipped.
	fullyInside := frustum.ContainsAABB(worldBox)

	mesh.UpdateFaceCaches(model)

	if e.Environment {
		id = EnvironmentID
	}

	var out []ProcessedGeometry
	for fi := range mesh.Faces {
		f := &mesh.Faces[fi]

		if !fullyInside && !frustum.IntersectAABB(NewAABB(f.BoundsMin, f.BoundsMax)) {
			continue
		}

		var tri ClipTriangle
		for vi, idx := range f.V {
			v := mesh.Vertices[idx]
			tri[vi] = ClipVertex{
				Position: mvp.MulVec4(math3d.V4FromV3(v.Position, 1)),
				Color:    vertexColor(v.Color, mesh.GetMaterial(f.Material)),
				Normal:   vertexNormal(v.Normal, f.Normal, model),
			}
		}

		for _, clipped := range clipper.ClipTriangle(tri) {
			out = append(out, ProcessedGeometry{
				Transform: mvp,
				EntityID:  id,
				Mode:      e.Mode,
				Vertices:  clipped,
			})
		}
	}
	return out
}

// vertexColor resolves the color fallback chain: authored vertex color,
// then the face material's base color, then white.
func vertexColor(c color.RGBA, mat *models.Material) color.RGBA {
	if c.A > 0 {
		return c
	}
	if mat != nil {
		return color.RGBA{
			R: uint8(mat.BaseColor[0] * 255),
			G: uint8(mat.BaseColor[1] * 255),
			B: uint8(mat.BaseColor[2] * 255),
			A: uint8(mat.BaseColor[3] * 255),
		}
	}
	return ColorWhite
}

// vertexNormal returns the world-space vertex normal, falling back to the
// cached face normal when the mesh carries none.
func vertexNormal(n, faceNormal math3d.Vec3, model math3d.Mat4) math3d.Vec3 {
	if n.LenSq() < 1e-12 {
		return faceNormal
	}
	return model.MulVec3Dir(n).Normalize()
}
