package scene

import "github.com/taigrr/prism/pkg/math3d"

// Transform holds an entity's position, rotation, and scale, with a cached
// model matrix. Mutate through the setters so the cache stays coherent.
type Transform struct {
	Position math3d.Vec3
	Rotation math3d.Quat
	Scale    math3d.Vec3

	matrix math3d.Mat4
	dirty  bool
}

// NewTransform creates an identity transform.
func NewTransform() Transform {
	return Transform{
		Rotation: math3d.QuatIdentity(),
		Scale:    math3d.V3(1, 1, 1),
		dirty:    true,
	}
}

// SetPosition sets the world position.
func (t *Transform) SetPosition(pos math3d.Vec3) {
	t.Position = pos
	t.dirty = true
}

// SetRotation sets the rotation quaternion.
func (t *Transform) SetRotation(q math3d.Quat) {
	t.Rotation = q
	t.dirty = true
}

// SetEuler sets the rotation from pitch, yaw, roll angles in radians.
func (t *Transform) SetEuler(pitch, yaw, roll float64) {
	t.Rotation = math3d.QuatFromEuler(pitch, yaw, roll)
	t.dirty = true
}

// SetScale sets the per-axis scale.
func (t *Transform) SetScale(s math3d.Vec3) {
	t.Scale = s
	t.dirty = true
}

// Rotate composes an additional rotation onto the current one.
func (t *Transform) Rotate(q math3d.Quat) {
	t.Rotation = q.Mul(t.Rotation).Normalize()
	t.dirty = true
}

// Matrix returns the model matrix (translate * rotate * scale),
// recomputing it only when the transform has changed.
func (t *Transform) Matrix() math3d.Mat4 {
	if t.dirty {
		t.matrix = math3d.Translate(t.Position).
			Mul(t.Rotation.Mat4()).
			Mul(math3d.Scale(t.Scale))
		t.dirty = false
	}
	return t.matrix
}
