package viz

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entmonk/globe-viz/uniform"
)

func TestFrameValuesPackAgainstSchema(t *testing.T) {
	layout := uniform.Compile(GlobeSchema())
	buf := make([]byte, layout.TotalSize)

	scene := DefaultScene()
	err := layout.Pack(scene.FrameValues(1.5), buf, uniform.FrameContext{Width: 800, Height: 600})
	require.NoError(t, err)

	fl, ok := layout.FieldByName("resolution")
	require.True(t, ok)
	assert.Equal(t, float32(800), math.Float32frombits(leU32(buf[fl.ByteOffset:])))
}

func TestFrameValuesClampLights(t *testing.T) {
	scene := DefaultScene()
	for len(scene.Lights) <= MaxLights {
		scene.Lights = append(scene.Lights, Light{Direction: mgl32.Vec3{0, -1, 0}, Intensity: 1})
	}

	vals := scene.FrameValues(0)

	layout := uniform.Compile(GlobeSchema())
	buf := make([]byte, layout.TotalSize)
	require.NoError(t, layout.Pack(vals, buf, uniform.FrameContext{Width: 1, Height: 1}))

	fl, ok := layout.FieldByName("light_count")
	require.True(t, ok)
	assert.Equal(t, int32(MaxLights), int32(leU32(buf[fl.ByteOffset:])))
}

func TestOrbitCameraPosition(t *testing.T) {
	c := OrbitCamera{Distance: 3}
	pos := c.Position()
	assert.InDelta(t, 0, pos.X(), 1e-6)
	assert.InDelta(t, 0, pos.Y(), 1e-6)
	assert.InDelta(t, 3, pos.Z(), 1e-6)

	c.Yaw = float32(math.Pi / 2)
	pos = c.Position()
	assert.InDelta(t, 3, pos.X(), 1e-5)
	assert.InDelta(t, 0, pos.Z(), 1e-5)

	c.Target = mgl32.Vec3{1, 2, 3}
	c.Yaw = 0
	pos = c.Position()
	assert.InDelta(t, 1, pos.X(), 1e-6)
	assert.InDelta(t, 2, pos.Y(), 1e-6)
	assert.InDelta(t, 6, pos.Z(), 1e-6)
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
