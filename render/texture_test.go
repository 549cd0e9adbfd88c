package render

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entmonk/globe-viz/uniform"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 200, 100, 50},   // already fits
		{4096, 2048, 2048, 2048, 1024},
		{1000, 4000, 2000, 500, 2000},
		{8192, 8192, 1024, 1024, 1024},
		{8192, 1, 1024, 1024, 1},  // never collapses to zero
		{100, 50, 0, 100, 50},     // zero limit means unknown, pass through
	}
	for _, c := range cases {
		gotW, gotH := fitWithin(c.w, c.h, c.max)
		assert.Equal(t, c.wantW, gotW, "%dx%d within %d", c.w, c.h, c.max)
		assert.Equal(t, c.wantH, gotH, "%dx%d within %d", c.w, c.h, c.max)
	}
}

func TestDownsampleToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 32))

	same := downsampleToFit(src, 64)
	assert.Equal(t, src.Bounds(), same.Bounds())

	scaled := downsampleToFit(src, 16)
	assert.Equal(t, 16, scaled.Bounds().Dx())
	assert.Equal(t, 8, scaled.Bounds().Dy())
}

func TestEnsureRGBA(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, rgba, ensureRGBA(rgba), "tight RGBA passes through")

	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	converted := ensureRGBA(gray)
	assert.Equal(t, 4*4, converted.Stride)
}

func TestFetchImageHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/ok.png":
			_, _ = w.Write(encodePNG(t, 8, 8))
		case "/garbage":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	img, err := fetchImage(srv.URL + "/ok.png")
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, err = fetchImage(srv.URL + "/garbage")
	assert.Error(t, err, "decode failure")

	_, err = fetchImage(srv.URL + "/missing.png")
	assert.Error(t, err, "http error status")
}

func TestFetchImageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 4, 2), 0o644))

	img, err := fetchImage(path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = fetchImage(filepath.Join(t.TempDir(), "absent.png"))
	assert.Error(t, err)
}

func readyRenderer(maxTextures int) *Renderer {
	r := New(Config{
		Schema:      uniform.Schema{{Name: "time", Type: uniform.F32()}},
		MaxTextures: maxTextures,
	})
	r.state = stateReady
	return r
}

func TestLoadTextureCachedSlotSkipsFetch(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fetches++
		_, _ = w.Write(encodePNG(t, 8, 8))
	}))
	defer srv.Close()

	url := srv.URL + "/earth.png"
	r := readyRenderer(2)
	r.textures = []textureSlot{{url: url}}
	r.textureCache[url] = 0

	// A second request for a loaded URL resolves from the cache before any
	// network or GPU work happens.
	slot, err := r.LoadTexture(url)
	require.NoError(t, err)
	assert.Equal(t, 0, slot)

	slot, err = r.LoadTexture(url)
	require.NoError(t, err)
	assert.Equal(t, 0, slot)

	assert.Zero(t, fetches)
}

func TestLoadTextureBudgetExhausted(t *testing.T) {
	r := readyRenderer(1)
	r.textures = []textureSlot{{url: "first.png"}}
	r.textureCache["first.png"] = 0

	slot, err := r.LoadTexture("second.png")
	assert.Equal(t, -1, slot)
	assert.ErrorIs(t, err, ErrTextureBudget)

	// The loaded slot is still reachable.
	slot, err = r.LoadTexture("first.png")
	require.NoError(t, err)
	assert.Equal(t, 0, slot)
}

func TestLoadTextureFetchFailureLeavesStateUntouched(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := readyRenderer(2)
	slot, err := r.LoadTexture(srv.URL + "/missing.png")
	assert.Equal(t, -1, slot)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTextureBudget)

	assert.Empty(t, r.textures)
	assert.Empty(t, r.textureCache)
}
