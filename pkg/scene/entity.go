package scene

import (
	"github.com/taigrr/prism/pkg/math3d"
	"github.com/taigrr/prism/pkg/models"
)

// RenderMode selects how an entity's triangles are drawn. The mode travels
// with each entity through the pipeline; there is no global mode switch.
type RenderMode int

const (
	// RenderWireframe draws triangle edges as depth-less colored lines.
	RenderWireframe RenderMode = iota
	// RenderSolid fills triangles with perspective-correct interpolation.
	RenderSolid
	// RenderFixedPoint fills triangles using integer edge functions and
	// quantized colors, trading precision for a retro look.
	RenderFixedPoint
)

// String returns the mode name for logs and flags.
func (m RenderMode) String() string {
	switch m {
	case RenderWireframe:
		return "wireframe"
	case RenderSolid:
		return "solid"
	case RenderFixedPoint:
		return "fixed"
	default:
		return "unknown"
	}
}

// Entity is a renderable object in the scene: a mesh plus a transform,
// a render mode, and an environment flag. Environment entities draw behind
// regular geometry at a fixed far depth.
type Entity struct {
	Name      string
	Mesh      *models.Mesh
	Transform Transform
	Mode      RenderMode

	// Environment marks background geometry (skyboxes, ground planes)
	// that should never occlude foreground entities.
	Environment bool
}

// NewEntity creates an entity with an identity transform and solid rendering.
func NewEntity(name string, mesh *models.Mesh) *Entity {
	return &Entity{
		Name:      name,
		Mesh:      mesh,
		Transform: NewTransform(),
		Mode:      RenderSolid,
	}
}

// SetPosition moves the entity and invalidates cached face data.
func (e *Entity) SetPosition(pos math3d.Vec3) {
	e.Transform.SetPosition(pos)
	e.invalidate()
}

// SetRotation sets the entity rotation and invalidates cached face data.
func (e *Entity) SetRotation(q math3d.Quat) {
	e.Transform.SetRotation(q)
	e.invalidate()
}

// SetEuler sets the rotation from Euler angles and invalidates cached face data.
func (e *Entity) SetEuler(pitch, yaw, roll float64) {
	e.Transform.SetEuler(pitch, yaw, roll)
	e.invalidate()
}

// SetScale scales the entity and invalidates cached face data.
func (e *Entity) SetScale(s math3d.Vec3) {
	e.Transform.SetScale(s)
	e.invalidate()
}

// Rotate composes an additional rotation and invalidates cached face data.
func (e *Entity) Rotate(q math3d.Quat) {
	e.Transform.Rotate(q)
	e.invalidate()
}

func (e *Entity) invalidate() {
	if e.Mesh != nil {
		e.Mesh.InvalidateFaceCaches()
	}
}
