package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entmonk/globe-viz/uniform"
)

func testSchema() uniform.Schema {
	return uniform.Schema{
		{Name: "resolution", Type: uniform.Vec2()},
		{Name: "time", Type: uniform.F32()},
	}
}

func TestDispatchSize(t *testing.T) {
	cases := []struct {
		w, h, wgX, wgY uint32
		wantX, wantY   uint32
	}{
		{640, 480, 8, 8, 80, 60},
		{641, 481, 8, 8, 81, 61},
		{1, 1, 8, 8, 1, 1},
		{1280, 720, 16, 8, 80, 90},
		// After a resize the dispatch covers the new dimensions, not the
		// old ones: 1920x1080 at 8x8 tiles.
		{1920, 1080, 8, 8, 240, 135},
	}
	for _, c := range cases {
		gotX, gotY := dispatchSize(c.w, c.h, c.wgX, c.wgY)
		assert.Equal(t, c.wantX, gotX)
		assert.Equal(t, c.wantY, gotY)
	}
}

func TestNewDefaults(t *testing.T) {
	r := New(Config{Schema: testSchema()})
	assert.Equal(t, [2]uint32{8, 8}, r.cfg.WorkgroupSize)
	assert.NotNil(t, r.log, "nil logger is replaced, never dereferenced")
	require.NotNil(t, r.layout)
	assert.Equal(t, 16, r.layout.TotalSize)
}

func TestOperationsBeforeInit(t *testing.T) {
	r := New(Config{Schema: testSchema(), MaxTextures: 1})

	assert.ErrorIs(t, r.Draw(uniform.Values{"time": uniform.Float(0)}), ErrNotReady)
	assert.ErrorIs(t, r.Resize(100, 100), ErrNotReady)

	slot, err := r.LoadTexture("irrelevant.png")
	assert.Equal(t, -1, slot)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestOperationsAfterDestroy(t *testing.T) {
	r := New(Config{Schema: testSchema()})
	r.Destroy()
	r.Destroy() // idempotent

	assert.ErrorIs(t, r.Draw(uniform.Values{"time": uniform.Float(0)}), ErrDestroyed)
	assert.ErrorIs(t, r.Resize(100, 100), ErrDestroyed)

	slot, err := r.LoadTexture("irrelevant.png")
	assert.Equal(t, -1, slot)
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestLoadTextureDisabled(t *testing.T) {
	r := New(Config{Schema: testSchema()})
	r.state = stateReady

	slot, err := r.LoadTexture("any.png")
	assert.Equal(t, -1, slot)
	assert.ErrorIs(t, err, ErrTexturesDisabled)
}
