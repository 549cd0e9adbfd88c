// Package viz hosts the demo globe visualization: the parameter schema, the
// per-frame value tree, an orbit camera, JSON presets and the window loop
// that drives the renderer.
package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/entmonk/globe-viz/uniform"
)

// MaxLights is the declared length of the lights array in the schema;
// FrameValues clamps the scene's light list to it.
const MaxLights = 4

// Shader feature flags, mirrored by the constants in globe.wgsl.
const (
	FlagSurfaceTexture uint32 = 1 << 0
	FlagLatLongGrid    uint32 = 1 << 1
)

// GlobeSchema declares the uniform parameter block the globe shader reads.
// The resolution field is reserved; the packer fills it from the surface
// size every frame.
func GlobeSchema() uniform.Schema {
	return uniform.Schema{
		{Name: "resolution", Type: uniform.Vec2()},
		{Name: "time", Type: uniform.F32()},
		{Name: "spin_speed", Type: uniform.F32()},
		{Name: "flags", Type: uniform.U32()},
		{Name: "light_count", Type: uniform.I32()},
		{Name: "camera", Type: uniform.StructOf(uniform.Schema{
			{Name: "position", Type: uniform.Vec3()},
			{Name: "target", Type: uniform.Vec3()},
			{Name: "fov", Type: uniform.F32()},
		})},
		{Name: "atmosphere", Type: uniform.StructOf(uniform.Schema{
			{Name: "color", Type: uniform.Vec3()},
			{Name: "density", Type: uniform.F32()},
		})},
		{Name: "lights", Type: uniform.ArrayOf(uniform.StructOf(uniform.Schema{
			{Name: "direction", Type: uniform.Vec3()},
			{Name: "color", Type: uniform.Vec3()},
			{Name: "intensity", Type: uniform.F32()},
		}), MaxLights)},
	}
}

// OrbitCamera circles the target at a fixed distance.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Yaw      float32 // radians around Y
	Pitch    float32 // radians above the equator
	Distance float32
	Fov      float32 // vertical, radians
}

// Position derives the eye point from the orbit parameters.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		cp * float32(math.Cos(float64(c.Yaw))),
	}.Mul(c.Distance)
	return c.Target.Add(offset)
}

type Light struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

type Atmosphere struct {
	Color   mgl32.Vec3
	Density float32
}

// Scene is the host-side state the per-frame value tree is built from.
type Scene struct {
	Camera     OrbitCamera
	Lights     []Light
	Atmosphere Atmosphere
	SpinSpeed  float32
	Flags      uint32
}

func DefaultScene() *Scene {
	return &Scene{
		Camera: OrbitCamera{
			Distance: 3,
			Pitch:    0.35,
			Fov:      mgl32.DegToRad(50),
		},
		Lights: []Light{
			{Direction: mgl32.Vec3{-1, -0.4, -0.5}.Normalize(), Color: mgl32.Vec3{1, 0.96, 0.9}, Intensity: 1.2},
			{Direction: mgl32.Vec3{1, 0.2, 0.8}.Normalize(), Color: mgl32.Vec3{0.2, 0.3, 0.5}, Intensity: 0.25},
		},
		Atmosphere: Atmosphere{Color: mgl32.Vec3{0.3, 0.5, 0.9}, Density: 0.6},
		SpinSpeed:  0.1,
	}
}

// FrameValues builds the value tree for one frame. Its shape mirrors
// GlobeSchema exactly; the renderer's packer rejects any drift.
func (s *Scene) FrameValues(elapsed float32) uniform.Values {
	lights := s.Lights
	if len(lights) > MaxLights {
		lights = lights[:MaxLights]
	}
	lightVals := make([]uniform.Value, len(lights))
	for i, l := range lights {
		lightVals[i] = uniform.Struct(uniform.Values{
			"direction": uniform.Vec(l.Direction.X(), l.Direction.Y(), l.Direction.Z()),
			"color":     uniform.Vec(l.Color.X(), l.Color.Y(), l.Color.Z()),
			"intensity": uniform.Float(l.Intensity),
		})
	}

	pos := s.Camera.Position()
	return uniform.Values{
		"time":        uniform.Float(elapsed),
		"spin_speed":  uniform.Float(s.SpinSpeed),
		"flags":       uniform.Uint(s.Flags),
		"light_count": uniform.Int(int32(len(lights))),
		"camera": uniform.Struct(uniform.Values{
			"position": uniform.Vec(pos.X(), pos.Y(), pos.Z()),
			"target":   uniform.Vec(s.Camera.Target.X(), s.Camera.Target.Y(), s.Camera.Target.Z()),
			"fov":      uniform.Float(s.Camera.Fov),
		}),
		"atmosphere": uniform.Struct(uniform.Values{
			"color":   uniform.Vec(s.Atmosphere.Color.X(), s.Atmosphere.Color.Y(), s.Atmosphere.Color.Z()),
			"density": uniform.Float(s.Atmosphere.Density),
		}),
		"lights": uniform.Array(lightVals...),
	}
}
