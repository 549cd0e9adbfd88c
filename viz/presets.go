package viz

import (
	"encoding/json"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Preset is the serializable form of a Scene plus camera pose. IDs are
// assigned on capture so presets can be referenced across files.
type Preset struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	CameraTarget   mgl32.Vec3 `json:"camera_target"`
	CameraYaw      float32    `json:"camera_yaw"`
	CameraPitch    float32    `json:"camera_pitch"`
	CameraDistance float32    `json:"camera_distance"`
	CameraFov      float32    `json:"camera_fov"`

	Lights []Light `json:"lights,omitempty"`

	AtmosphereColor   mgl32.Vec3 `json:"atmosphere_color"`
	AtmosphereDensity float32    `json:"atmosphere_density"`

	SpinSpeed float32 `json:"spin_speed"`
	Flags     uint32  `json:"flags"`
}

// CapturePreset snapshots the scene under a fresh ID.
func CapturePreset(name string, s *Scene) Preset {
	return Preset{
		ID:                uuid.NewString(),
		Name:              name,
		CameraTarget:      s.Camera.Target,
		CameraYaw:         s.Camera.Yaw,
		CameraPitch:       s.Camera.Pitch,
		CameraDistance:    s.Camera.Distance,
		CameraFov:         s.Camera.Fov,
		Lights:            append([]Light(nil), s.Lights...),
		AtmosphereColor:   s.Atmosphere.Color,
		AtmosphereDensity: s.Atmosphere.Density,
		SpinSpeed:         s.SpinSpeed,
		Flags:             s.Flags,
	}
}

// Apply writes the preset back into a scene.
func (p Preset) Apply(s *Scene) {
	s.Camera.Target = p.CameraTarget
	s.Camera.Yaw = p.CameraYaw
	s.Camera.Pitch = p.CameraPitch
	s.Camera.Distance = p.CameraDistance
	s.Camera.Fov = p.CameraFov
	s.Lights = append([]Light(nil), p.Lights...)
	s.Atmosphere.Color = p.AtmosphereColor
	s.Atmosphere.Density = p.AtmosphereDensity
	s.SpinSpeed = p.SpinSpeed
	s.Flags = p.Flags
}

func SavePreset(p Preset, filename string) error {
	bytes, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytes, 0644)
}

func LoadPreset(filename string) (Preset, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return Preset{}, err
	}
	var p Preset
	if err := json.Unmarshal(bytes, &p); err != nil {
		return Preset{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p, nil
}
