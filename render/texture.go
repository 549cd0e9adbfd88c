package render

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
	xdraw "golang.org/x/image/draw"
)

type textureSlot struct {
	url  string
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

// LoadTexture fetches, decodes and uploads an image, binds it into the next
// free slot and returns the slot index. Requests are cached by URL: a repeat
// call returns the original slot without fetching or decoding again.
//
// Calling before Init or past the slot budget is a caller error and returns
// ErrNotReady / ErrTextureBudget. A fetch or decode failure is logged and
// returned with slot -1; the renderer's prior state, including whatever is
// bound in every slot, is left untouched.
func (r *Renderer) LoadTexture(url string) (int, error) {
	if err := r.mustBeReady(); err != nil {
		return -1, err
	}
	if r.cfg.MaxTextures == 0 {
		return -1, ErrTexturesDisabled
	}
	if slot, ok := r.textureCache[url]; ok {
		return slot, nil
	}
	if len(r.textures) >= r.cfg.MaxTextures {
		return -1, ErrTextureBudget
	}

	img, err := fetchImage(url)
	if err != nil {
		r.log.Errorf("texture %s: %v", url, err)
		return -1, fmt.Errorf("render: load texture %s: %w", url, err)
	}

	rgba := ensureRGBA(downsampleToFit(img, int(r.maxTexDim)))
	tex, view, err := r.uploadTexture(url, rgba)
	if err != nil {
		r.log.Errorf("texture %s: %v", url, err)
		return -1, fmt.Errorf("render: load texture %s: %w", url, err)
	}

	slot := len(r.textures)
	r.textures = append(r.textures, textureSlot{url: url, tex: tex, view: view})
	r.textureCache[url] = slot

	if err := r.rebuildComputeBindGroup(); err != nil {
		return -1, err
	}
	r.log.Infof("texture %s bound to slot %d (%dx%d)", url, slot, rgba.Rect.Dx(), rgba.Rect.Dy())
	return slot, nil
}

func (r *Renderer) uploadTexture(label string, rgba *image.RGBA) (*wgpu.Texture, *wgpu.TextureView, error) {
	width := uint32(rgba.Rect.Dx())
	height := uint32(rgba.Rect.Dy())
	extent := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	tex, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, err
	}

	err = r.queue.WriteTexture(
		tex.AsImageCopy(),
		rgba.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * width,
			RowsPerImage: height,
		},
		&extent,
	)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

func (r *Renderer) createPlaceholder() error {
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(white.Pix, []byte{0xFF, 0xFF, 0xFF, 0xFF})

	tex, view, err := r.uploadTexture("Placeholder Tex", white)
	if err != nil {
		return fmt.Errorf("render: placeholder texture: %w", err)
	}
	r.placeholderTex = tex
	r.placeholderView = view
	return nil
}

func fetchImage(url string) (image.Image, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		resp, err := http.Get(url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch: %s", resp.Status)
		}
		img, _, err := image.Decode(resp.Body)
		return img, err
	}

	// Anything without a scheme is a local path.
	file, err := os.Open(url)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	return img, err
}

// downsampleToFit scales img down, preserving aspect ratio, so that neither
// dimension exceeds maxDim. Images already inside the limit pass through.
func downsampleToFit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	nw, nh := fitWithin(w, h, maxDim)
	if nw == w && nh == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

func fitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

// ensureRGBA returns img as a tightly packed RGBA image, converting or
// copying only when necessary (WriteTexture assumes a 4*width row pitch).
func ensureRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return dst
}
