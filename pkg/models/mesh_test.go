package models

import (
	"math"
	"testing"

	"github.com/taigrr/prism/pkg/math3d"
)

// quadMesh builds two triangles sharing an edge in the XY plane.
func quadMesh() *Mesh {
	m := NewMesh("quad")
	m.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(1, 1, 0)},
		{Position: math3d.V3(0, 1, 0)},
	}
	m.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: -1},
		{V: [3]int{0, 2, 3}, Material: -1},
	}
	m.CalculateBounds()
	return m
}

func TestFaceCacheLifecycle(t *testing.T) {
	m := quadMesh()

	for i := range m.Faces {
		if m.FaceCacheValid(i) {
			t.Fatalf("face %d cache valid before UpdateFaceCaches", i)
		}
	}

	model := math3d.Translate(math3d.V3(0, 0, 5))
	m.UpdateFaceCaches(model)

	f := m.Faces[0]
	if !m.FaceCacheValid(0) {
		t.Fatal("face cache should be valid after UpdateFaceCaches")
	}
	if math.Abs(f.Centroid.Z-5) > 1e-9 {
		t.Errorf("centroid Z = %v, want 5 (translated)", f.Centroid.Z)
	}
	if f.BoundsMin.Z != 5 || f.BoundsMax.Z != 5 {
		t.Errorf("face bounds Z = [%v, %v], want [5, 5]", f.BoundsMin.Z, f.BoundsMax.Z)
	}
	if math.Abs(f.Normal.Len()-1) > 1e-9 {
		t.Errorf("cached normal length = %v, want 1", f.Normal.Len())
	}

	m.InvalidateFaceCaches()
	if m.FaceCacheValid(0) || m.FaceCacheValid(1) {
		t.Error("caches should be stale after InvalidateFaceCaches")
	}
}

func TestUpdateFaceCachesIdempotent(t *testing.T) {
	m := quadMesh()
	m.UpdateFaceCaches(math3d.Identity())
	first := m.Faces[0].Centroid

	// A second update under a different matrix must not touch valid caches.
	m.UpdateFaceCaches(math3d.Translate(math3d.V3(10, 0, 0)))
	if m.Faces[0].Centroid != first {
		t.Error("valid cache recomputed by second UpdateFaceCaches")
	}
}

func TestTransformInvalidatesCachesAndBounds(t *testing.T) {
	m := quadMesh()
	m.UpdateFaceCaches(math3d.Identity())

	m.Transform(math3d.Translate(math3d.V3(0, 0, 3)))

	if m.FaceCacheValid(0) {
		t.Error("Transform should invalidate face caches")
	}
	if m.BoundsMin.Z != 3 || m.BoundsMax.Z != 3 {
		t.Errorf("bounds Z = [%v, %v], want [3, 3] after transform", m.BoundsMin.Z, m.BoundsMax.Z)
	}
}

func TestVertexColorZeroAlphaMeansUnset(t *testing.T) {
	var v MeshVertex
	if v.Color.A != 0 {
		t.Error("zero-value vertex color should have alpha 0 (no authored color)")
	}
}

func TestFaceMaterialLookup(t *testing.T) {
	m := quadMesh()
	m.Materials = []Material{
		{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}},
		{Name: "green", BaseColor: [4]float64{0, 1, 0, 1}},
	}
	m.Faces[0].Material = 1

	if got := m.GetFaceMaterial(0); got != 1 {
		t.Errorf("face 0 material = %d, want 1", got)
	}
	if got := m.GetFaceMaterial(1); got != -1 {
		t.Errorf("face 1 material = %d, want -1", got)
	}

	if mat := m.GetMaterial(1); mat == nil || mat.Name != "green" {
		t.Error("GetMaterial(1) should return the green material")
	}
	if m.GetMaterial(-1) != nil || m.GetMaterial(99) != nil {
		t.Error("GetMaterial should return nil for -1 and out-of-bounds indices")
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := quadMesh()
	m.Materials = []Material{{Name: "mat", BaseColor: [4]float64{1, 1, 1, 1}}}

	clone := m.Clone()
	clone.Vertices[0].Position = math3d.V3(9, 9, 9)
	clone.Materials[0].Name = "modified"
	clone.Faces[0].Material = 0

	if m.Vertices[0].Position == clone.Vertices[0].Position {
		t.Error("clone shares vertex storage with the original")
	}
	if m.Materials[0].Name == "modified" {
		t.Error("clone shares material storage with the original")
	}
	if m.Faces[0].Material == 0 {
		t.Error("clone shares face storage with the original")
	}
}

func TestCalculateSmoothNormalsUnitLength(t *testing.T) {
	m := quadMesh()
	m.CalculateSmoothNormals()
	for i, v := range m.Vertices {
		if math.Abs(v.Normal.Len()-1) > 1e-9 {
			t.Errorf("vertex %d normal length = %v, want 1", i, v.Normal.Len())
		}
	}
}
