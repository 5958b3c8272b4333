// Package scene holds the world description fed to the render pipeline:
// a camera, a set of entities, and the lights that shade them.
package scene

import (
	"image/color"

	"github.com/taigrr/prism/pkg/math3d"
)

// LightMode selects the deferred lighting model applied after rasterization.
type LightMode int

const (
	// LightNone copies surface colors through unlit.
	LightNone LightMode = iota
	// LightFlat applies Lambertian diffuse shading only.
	LightFlat
	// LightBlinnPhong adds a Blinn-Phong specular term on top of diffuse.
	LightBlinnPhong
)

// String returns the mode name for logs and flags.
func (m LightMode) String() string {
	switch m {
	case LightNone:
		return "none"
	case LightFlat:
		return "flat"
	case LightBlinnPhong:
		return "blinn-phong"
	default:
		return "unknown"
	}
}

// Light is a point light source.
type Light struct {
	Position  math3d.Vec3
	Color     color.RGBA
	Intensity float64
}

// Scene is everything needed to render one frame.
type Scene struct {
	Camera   *Camera
	Entities []*Entity
	Lights   []Light
	Ambient  float64 // Base light level in [0, 1] applied by lit modes
}

// NewScene creates an empty scene with a default camera.
func NewScene() *Scene {
	return &Scene{
		Camera:  NewCamera(),
		Ambient: 0.15,
	}
}

// Add appends an entity to the scene.
func (s *Scene) Add(e *Entity) {
	s.Entities = append(s.Entities, e)
}

// AddLight appends a light to the scene.
func (s *Scene) AddLight(l Light) {
	s.Lights = append(s.Lights, l)
}
