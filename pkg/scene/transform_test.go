package scene

import (
	"math"
	"testing"

	"github.com/taigrr/prism/pkg/math3d"
	"github.com/taigrr/prism/pkg/models"
)

func TestTransformIdentity(t *testing.T) {
	tr := NewTransform()
	if got := tr.Matrix(); got != math3d.Identity() {
		t.Errorf("identity transform matrix = %v, want identity", got)
	}
}

func TestTransformTRSOrder(t *testing.T) {
	// Scale applies first, then rotation, then translation.
	tr := NewTransform()
	tr.SetScale(math3d.V3(2, 2, 2))
	tr.SetRotation(math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), math.Pi/2))
	tr.SetPosition(math3d.V3(10, 0, 0))

	// (1,0,0) -> scale (2,0,0) -> rotate 90deg Y (0,0,-2) -> translate (10,0,-2)
	got := tr.Matrix().MulVec3(math3d.V3(1, 0, 0))
	want := math3d.V3(10, 0, -2)
	if !vec3Near(got, want, 1e-9) {
		t.Errorf("transformed point = %v, want %v", got, want)
	}
}

func TestTransformMatrixCaching(t *testing.T) {
	tr := NewTransform()
	tr.SetPosition(math3d.V3(1, 2, 3))

	m1 := tr.Matrix()
	m2 := tr.Matrix()
	if m1 != m2 {
		t.Error("repeated Matrix calls should return the cached matrix")
	}

	tr.SetPosition(math3d.V3(4, 5, 6))
	if tr.Matrix() == m1 {
		t.Error("Matrix should change after SetPosition")
	}
}

func TestTransformRotateComposes(t *testing.T) {
	tr := NewTransform()
	quarter := math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), math.Pi/2)
	tr.Rotate(quarter)
	tr.Rotate(quarter)

	// Two quarter turns around Y send (1,0,0) to (-1,0,0).
	got := tr.Matrix().MulVec3(math3d.V3(1, 0, 0))
	if !vec3Near(got, math3d.V3(-1, 0, 0), 1e-9) {
		t.Errorf("after two quarter turns: %v, want (-1, 0, 0)", got)
	}
}

func TestEntityMutationInvalidatesFaceCaches(t *testing.T) {
	mesh := models.NewMesh("tri")
	mesh.Vertices = []models.MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(0, 1, 0)},
	}
	mesh.Faces = []models.Face{{V: [3]int{0, 1, 2}, Material: -1}}

	e := NewEntity("tri", mesh)
	mesh.UpdateFaceCaches(e.Transform.Matrix())
	if !mesh.FaceCacheValid(0) {
		t.Fatal("face cache should be valid after UpdateFaceCaches")
	}

	e.SetPosition(math3d.V3(5, 0, 0))
	if mesh.FaceCacheValid(0) {
		t.Error("moving the entity should invalidate face caches")
	}

	mesh.UpdateFaceCaches(e.Transform.Matrix())
	if !vec3Near(mesh.Faces[0].Centroid, math3d.V3(5+1.0/3, 1.0/3, 0), 1e-9) {
		t.Errorf("centroid after move = %v", mesh.Faces[0].Centroid)
	}
}

func vec3Near(a, b math3d.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}
