// Package render owns the GPU side of a visualization: the device, the
// offscreen image the compute shader writes, the blit pipeline presenting it,
// and the persistent uniform buffer packed fresh every frame.
package render

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/entmonk/globe-viz/shaders"
	"github.com/entmonk/globe-viz/uniform"
	"github.com/entmonk/globe-viz/wgsl"
)

var (
	// ErrNotReady is returned by operations invoked before Init.
	ErrNotReady = errors.New("render: renderer not initialized")
	// ErrDestroyed is returned by operations invoked after Destroy.
	ErrDestroyed = errors.New("render: renderer destroyed")
	// ErrTexturesDisabled is returned by LoadTexture when MaxTextures is 0.
	ErrTexturesDisabled = errors.New("render: texture slots not enabled")
	// ErrTextureBudget is returned when every configured slot is taken.
	ErrTextureBudget = errors.New("render: texture slot budget exhausted")
)

// Config describes one renderer instance.
type Config struct {
	// Schema declares the uniform parameter block. The compiled layout is
	// shared by the packer and the generated shader bindings.
	Schema uniform.Schema

	// ShaderSource is the caller's compute program body. It must define the
	// entry point "main" and reference parameters through the generated
	// "params" uniform and the "output" storage texture; the source is not
	// validated here, so mistakes surface as backend compilation errors.
	ShaderSource string

	// WorkgroupSize is the compute workgroup tile, defaulting to 8x8. It
	// must match the @workgroup_size declared by ShaderSource.
	WorkgroupSize [2]uint32

	// MaxTextures is the texture slot budget. Zero disables texture
	// bindings entirely.
	MaxTextures int

	Logger Logger
}

type rendererState uint8

const (
	stateUninit rendererState = iota
	stateReady
	stateDestroyed
)

// Renderer drives the two-pass compute-then-present frame loop. It is not
// safe for concurrent use; the single animation-loop driver is expected to
// serialize Draw calls.
type Renderer struct {
	cfg    Config
	log    Logger
	layout *uniform.StructLayout
	state  rendererState

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	config   *wgpu.SurfaceConfiguration

	computePipeline *wgpu.ComputePipeline
	blitPipeline    *wgpu.RenderPipeline

	quadBuf    *wgpu.Buffer
	uniformBuf *wgpu.Buffer
	packed     []byte

	storageTex  *wgpu.Texture
	storageView *wgpu.TextureView
	sampler     *wgpu.Sampler

	computeBG *wgpu.BindGroup
	blitBG    *wgpu.BindGroup

	textures        []textureSlot
	textureCache    map[string]int
	placeholderTex  *wgpu.Texture
	placeholderView *wgpu.TextureView
	maxTexDim       uint32
}

// Two triangles covering the surface in clip space.
var quadVertices = []float32{
	-1, -1, 1, -1, 1, 1,
	-1, -1, 1, 1, -1, 1,
}

func New(cfg Config) *Renderer {
	if cfg.WorkgroupSize[0] == 0 {
		cfg.WorkgroupSize[0] = 8
	}
	if cfg.WorkgroupSize[1] == 0 {
		cfg.WorkgroupSize[1] = 8
	}
	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}
	return &Renderer{
		cfg:          cfg,
		log:          log,
		layout:       uniform.Compile(cfg.Schema),
		textureCache: make(map[string]int),
	}
}

// Init acquires the GPU device and builds every long-lived resource. A
// missing compatible adapter or device is fatal: the error is returned once
// and never retried, since no workaround exists for absent driver support.
// Init must be called exactly once per Renderer.
func (r *Renderer) Init(window *glfw.Window) error {
	r.instance = wgpu.CreateInstance(nil)
	r.surface = r.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: r.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("render: no compatible GPU adapter: %w", err)
	}
	r.adapter = adapter

	r.device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("render: device acquisition failed: %w", err)
	}
	r.queue = r.device.GetQueue()
	r.maxTexDim = r.adapter.GetLimits().Limits.MaxTextureDimension2D

	width, height := window.GetFramebufferSize()
	caps := r.surface.GetCapabilities(adapter)
	r.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	r.surface.Configure(adapter, r.device, r.config)

	// The generated bindings and the caller's body compile as one module,
	// so buffer layout and shader layout cannot drift apart.
	bindings := wgsl.Generate(r.cfg.Schema, wgsl.Options{TextureSlots: r.cfg.MaxTextures})
	csModule, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Visualization CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: bindings + "\n" + r.cfg.ShaderSource},
	})
	if err != nil {
		return fmt.Errorf("render: compute shader: %w", err)
	}

	blitModule, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Blit VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BlitWGSL},
	})
	if err != nil {
		return fmt.Errorf("render: blit shader: %w", err)
	}

	r.computePipeline, err = r.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Visualization Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     csModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("render: compute pipeline: %w", err)
	}

	r.blitPipeline, err = r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Blit Pipeline",
		Vertex: wgpu.VertexState{
			Module:     blitModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 8,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     blitModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    r.config.Format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("render: blit pipeline: %w", err)
	}

	r.quadBuf, err = r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Fullscreen Quad",
		Contents: wgpu.ToBytes(quadVertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return err
	}

	r.uniformBuf, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Params UB",
		Size:  uint64(r.layout.TotalSize),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	r.packed = make([]byte, r.layout.TotalSize)

	r.sampler, err = r.device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return err
	}

	if err := r.createOffscreen(width, height); err != nil {
		return err
	}

	// The bind group layout always carries every texture slot; unused
	// slots point at a 1x1 placeholder so the group stays complete no
	// matter how many textures are actually loaded.
	if r.cfg.MaxTextures > 0 {
		if err := r.createPlaceholder(); err != nil {
			return err
		}
	}

	if err := r.rebuildBindGroups(); err != nil {
		return err
	}

	r.state = stateReady
	r.log.Infof("renderer ready: %dx%d, %d bytes of params, %d texture slots",
		width, height, r.layout.TotalSize, r.cfg.MaxTextures)
	return nil
}

// Draw packs values into the persistent uniform buffer, runs one compute
// dispatch covering the surface and one present pass, in a single command
// submission.
func (r *Renderer) Draw(values uniform.Values) error {
	if err := r.mustBeReady(); err != nil {
		return err
	}

	ctx := uniform.FrameContext{Width: r.config.Width, Height: r.config.Height}
	if err := r.layout.Pack(values, r.packed, ctx); err != nil {
		return err
	}
	if err := r.queue.WriteBuffer(r.uniformBuf, 0, r.packed); err != nil {
		return fmt.Errorf("render: uniform upload: %w", err)
	}

	nextTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("render: surface texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	cPass := encoder.BeginComputePass(nil)
	cPass.SetPipeline(r.computePipeline)
	cPass.SetBindGroup(0, r.computeBG, nil)
	wgX, wgY := dispatchSize(r.config.Width, r.config.Height, r.cfg.WorkgroupSize[0], r.cfg.WorkgroupSize[1])
	cPass.DispatchWorkgroups(wgX, wgY, 1)
	if err := cPass.End(); err != nil {
		return err
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rPass.SetPipeline(r.blitPipeline)
	rPass.SetBindGroup(0, r.blitBG, nil)
	rPass.SetVertexBuffer(0, r.quadBuf, 0, r.quadBuf.GetSize())
	rPass.Draw(6, 1, 0, 0)
	if err := rPass.End(); err != nil {
		return err
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	r.queue.Submit(cmd)
	r.surface.Present()
	return nil
}

// Resize reconfigures the surface and recreates the offscreen image and the
// bind groups that reference it. Pipelines carry no width or height and are
// never recreated.
func (r *Renderer) Resize(width, height int) error {
	if err := r.mustBeReady(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return nil
	}

	r.config.Width = uint32(width)
	r.config.Height = uint32(height)
	r.surface.Configure(r.adapter, r.device, r.config)

	if err := r.createOffscreen(width, height); err != nil {
		return err
	}
	if err := r.rebuildBindGroups(); err != nil {
		return err
	}
	r.log.Debugf("resized to %dx%d", width, height)
	return nil
}

// Destroy releases every owned GPU resource. It is idempotent; Draw and
// Resize afterwards return ErrDestroyed.
func (r *Renderer) Destroy() {
	if r.state == stateDestroyed {
		return
	}
	r.state = stateDestroyed

	release := func(res interface{ Release() }) {
		if res != nil {
			res.Release()
		}
	}

	releaseBG := func(bg **wgpu.BindGroup) {
		if *bg != nil {
			(*bg).Release()
			*bg = nil
		}
	}
	releaseBG(&r.computeBG)
	releaseBG(&r.blitBG)

	for _, slot := range r.textures {
		slot.view.Release()
		slot.tex.Release()
	}
	r.textures = nil
	if r.placeholderView != nil {
		release(r.placeholderView)
		release(r.placeholderTex)
	}
	if r.storageView != nil {
		release(r.storageView)
		release(r.storageTex)
	}
	if r.sampler != nil {
		release(r.sampler)
	}
	if r.quadBuf != nil {
		release(r.quadBuf)
	}
	if r.uniformBuf != nil {
		release(r.uniformBuf)
	}
	if r.blitPipeline != nil {
		release(r.blitPipeline)
	}
	if r.computePipeline != nil {
		release(r.computePipeline)
	}
	if r.device != nil {
		release(r.device)
	}
	if r.adapter != nil {
		release(r.adapter)
	}
	if r.surface != nil {
		release(r.surface)
	}
	if r.instance != nil {
		release(r.instance)
	}
	r.log.Infof("renderer destroyed")
}

// Layout exposes the compiled parameter layout, mostly for hosts that want
// to report sizes or build debug views.
func (r *Renderer) Layout() *uniform.StructLayout { return r.layout }

func (r *Renderer) mustBeReady() error {
	switch r.state {
	case stateDestroyed:
		return ErrDestroyed
	case stateUninit:
		return ErrNotReady
	}
	return nil
}

func (r *Renderer) createOffscreen(width, height int) error {
	if r.storageView != nil {
		r.storageView.Release()
		r.storageTex.Release()
	}
	var err error
	r.storageTex, err = r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Offscreen Tex",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("render: offscreen texture: %w", err)
	}
	r.storageView, err = r.storageTex.CreateView(nil)
	if err != nil {
		return err
	}
	return nil
}

func (r *Renderer) rebuildBindGroups() error {
	if err := r.rebuildComputeBindGroup(); err != nil {
		return err
	}
	return r.rebuildBlitBindGroup()
}

// Bind groups are immutable: any change to the bound resource set means
// building a fresh group.
func (r *Renderer) rebuildComputeBindGroup() error {
	if r.computeBG != nil {
		r.computeBG.Release()
		r.computeBG = nil
	}

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: r.uniformBuf, Size: wgpu.WholeSize},
		{Binding: 1, TextureView: r.storageView},
	}
	if r.cfg.MaxTextures > 0 {
		entries = append(entries, wgpu.BindGroupEntry{Binding: 2, Sampler: r.sampler})
		for i := 0; i < r.cfg.MaxTextures; i++ {
			view := r.placeholderView
			if i < len(r.textures) {
				view = r.textures[i].view
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(3 + i), TextureView: view})
		}
	}

	bg, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  r.computePipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("render: compute bind group: %w", err)
	}
	r.computeBG = bg
	return nil
}

func (r *Renderer) rebuildBlitBindGroup() error {
	if r.blitBG != nil {
		r.blitBG.Release()
		r.blitBG = nil
	}
	bg, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: r.blitPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: r.storageView},
			{Binding: 1, Sampler: r.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("render: blit bind group: %w", err)
	}
	r.blitBG = bg
	return nil
}

func dispatchSize(width, height, wgX, wgY uint32) (uint32, uint32) {
	return (width + wgX - 1) / wgX, (height + wgY - 1) / wgY
}
