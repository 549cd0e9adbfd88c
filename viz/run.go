package viz

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/entmonk/globe-viz/render"
	"github.com/entmonk/globe-viz/shaders"
)

type RunOptions struct {
	Width      int
	Height     int
	Title      string
	TextureURL string // optional surface texture, file path or http(s) URL
	PresetPath string // optional preset to load on startup
	Debug      bool
}

const (
	minDistance = 1.2
	maxDistance = 12
	maxPitch    = 1.5 // just short of the poles
)

// Run opens a window, drives the renderer until it is closed and tears
// everything down. Must be called from the main goroutine with the OS
// thread locked.
func Run(opts RunOptions) error {
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}
	if opts.Title == "" {
		opts.Title = "Globe"
	}
	logger := render.NewDefaultLogger("viz", opts.Debug)

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("viz: glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("viz: create window: %w", err)
	}
	defer window.Destroy()

	scene := DefaultScene()
	if opts.PresetPath != "" {
		preset, err := LoadPreset(opts.PresetPath)
		if err != nil {
			return fmt.Errorf("viz: preset %s: %w", opts.PresetPath, err)
		}
		preset.Apply(scene)
		logger.Infof("loaded preset %q (%s)", preset.Name, preset.ID)
	}

	r := render.New(render.Config{
		Schema:       GlobeSchema(),
		ShaderSource: shaders.GlobeWGSL,
		MaxTextures:  2,
		Logger:       logger,
	})
	if err := r.Init(window); err != nil {
		return err
	}
	defer r.Destroy()

	if opts.TextureURL != "" {
		if _, err := r.LoadTexture(opts.TextureURL); err != nil {
			logger.Warnf("surface texture unavailable, rendering procedurally: %v", err)
		} else {
			scene.Flags |= FlagSurfaceTexture
		}
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if err := r.Resize(width, height); err != nil {
			logger.Errorf("resize: %v", err)
		}
	})

	var dragging bool
	var lastX, lastY float64
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft {
			dragging = action == glfw.Press
			lastX, lastY = w.GetCursorPos()
		}
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !dragging {
			return
		}
		dx := float32(xpos - lastX)
		dy := float32(ypos - lastY)
		lastX, lastY = xpos, ypos

		scene.Camera.Yaw -= dx * 0.005
		scene.Camera.Pitch += dy * 0.005
		scene.Camera.Pitch = clamp(scene.Camera.Pitch, -maxPitch, maxPitch)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		scene.Camera.Distance = clamp(scene.Camera.Distance-float32(yoff)*0.25, minDistance, maxDistance)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyG:
			scene.Flags ^= FlagLatLongGrid
		case glfw.KeyP:
			preset := CapturePreset("snapshot", scene)
			name := fmt.Sprintf("preset-%s.json", preset.ID[:8])
			if err := SavePreset(preset, name); err != nil {
				logger.Errorf("save preset: %v", err)
			} else {
				logger.Infof("saved %s", name)
			}
		}
	})

	start := glfw.GetTime()
	lastFrame := start
	frames := 0
	fpsTime := 0.0

	for !window.ShouldClose() {
		glfw.PollEvents()

		now := glfw.GetTime()
		if err := r.Draw(scene.FrameValues(float32(now - start))); err != nil {
			return err
		}

		frames++
		fpsTime += now - lastFrame
		lastFrame = now
		if fpsTime >= 1.0 {
			logger.Debugf("%.1f fps", float64(frames)/fpsTime)
			frames = 0
			fpsTime = 0
		}
	}
	return nil
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
