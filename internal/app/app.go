// Package app runs the interactive terrain viewer.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/glgpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/input"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/window"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/scenefile"
)

// sunStep is how far the sun moves per key press, in degrees.
const sunStep = 5

// ScreenshotDir is where F12 captures are written.
const ScreenshotDir = "screenshots"

// App is the viewer: window, input, camera, terrain and renderer.
type App struct {
	cfg *config.Config
	log *zap.Logger

	window *window.Window
	input  *input.Input
	dev    *glgpu.Device
	sys    *terrain.System
	scene  *scene.Scene
	camera *camera.FlyCamera
	sun    *lighting.Sun
	shots  *debug.Screenshots

	limiter *rate.Limiter
	running bool
}

// New opens the window and builds the terrain.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg: cfg,
		log: logger.Named("app"),
	}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "Midgard Terrain",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	a.dev = glgpu.New()
	a.sys, err = terrain.New(a.dev, terrain.FromConfig(cfg))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create terrain: %w", err)
	}

	if cfg.Scene.Path != "" {
		if err := a.loadScene(cfg.Scene.Path); err != nil {
			a.Close()
			return nil, err
		}
	}

	sc := scene.DefaultConfig()
	sc.Width = int32(cfg.Graphics.Width)
	sc.Height = int32(cfg.Graphics.Height)
	a.scene, err = scene.New(sc)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	a.sun = lighting.NewSun(cfg.Light.Azimuth, cfg.Light.Elevation)
	a.sys.SetLightDirection(a.sun.Direction())

	a.camera = camera.NewFlyCamera(mgl32.Vec3{0, a.sys.HeightScale(), 0})
	a.camera.Pitch = -20
	a.camera.Speed = cfg.Camera.Speed
	a.camera.Sensitivity = cfg.Camera.Sensitivity
	a.camera.FOV = cfg.Camera.FOV
	a.camera.Near = cfg.Camera.Near
	a.camera.Far = cfg.Camera.Far
	a.camera.Aspect = a.window.Aspect()

	a.input = input.New()
	a.shots = debug.NewScreenshots(ScreenshotDir, "terrain")

	if cfg.Graphics.FPSLimit > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.Graphics.FPSLimit), 1)
	}

	a.log.Info("viewer initialized",
		zap.Int("tiles", a.sys.Clipmap().TileCount()),
		zap.Int("vertices", a.sys.Clipmap().VertexCount()),
		zap.Int("map_resolution", a.sys.Maps().Resolution()))
	return a, nil
}

// loadScene applies a scene document to the terrain.
func (a *App) loadScene(path string) error {
	doc, err := scenefile.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}
	if err := doc.Apply(a.sys.Serializers()...); err != nil {
		return fmt.Errorf("failed to apply scene %s: %w", path, err)
	}
	a.log.Info("scene loaded", zap.String("path", path), zap.Strings("tokens", doc.Tokens()))
	return nil
}

// saveScene writes the current terrain settings to the configured scene
// path, or terrain.scene.yaml when none is set.
func (a *App) saveScene() {
	path := a.cfg.Scene.Path
	if path == "" {
		path = "terrain.scene.yaml"
	}
	doc, err := scenefile.Capture(a.sys.Serializers()...)
	if err != nil {
		a.log.Error("capturing scene", zap.Error(err))
		return
	}
	if err := doc.Save(path); err != nil {
		a.log.Error("saving scene", zap.String("path", path), zap.Error(err))
		return
	}
	a.log.Info("scene saved", zap.String("path", path))
}

func (a *App) screenshot() {
	path, err := a.shots.Save(a.scene.CaptureImage())
	if err != nil {
		a.log.Error("saving screenshot", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Run drives the frame loop until the window closes, Escape is pressed or
// ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()
	var stats terrain.FrameStats

	a.log.Info("starting viewer loop")

	for a.running {
		if err := ctx.Err(); err != nil {
			break
		}
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				break
			}
		}

		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if a.input.Update() {
			break
		}
		a.handleEvents()

		if a.input.Looking() {
			dx, dy := a.input.MouseDelta()
			a.camera.HandleMouse(float32(dx), float32(dy))
		}
		a.camera.Update(a.input.Movement(), dt)

		stats = a.sys.Frame(a.camera)
		if stats.Stages != 0 {
			a.log.Debug("map stages ran", zap.Stringer("stages", stats.Stages))
		}
		if stats.Full {
			a.log.Debug("full geometry update", zap.Int("tiles", stats.Dispatched))
		}

		a.scene.Render(a.camera, a.sys, a.sun)
		a.scene.Present(a.window.GetSize())
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.window.SetTitle(fmt.Sprintf("Midgard Terrain | %d fps | %d drawn, %d culled",
				frameCount, stats.Drawn, stats.Culled))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	a.running = false
	return nil
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			a.scene.Resize(int32(event.Width), int32(event.Height))
			a.camera.Aspect = a.window.Aspect()
		case input.EventMouseDown, input.EventMouseUp:
			if event.Button == sdl.BUTTON_RIGHT {
				a.window.SetRelativeMouse(event.Type == input.EventMouseDown)
			}
		case input.EventKeyDown:
			a.handleKey(event.Key)
		}
	}
}

func (a *App) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		a.running = false
	case sdl.SCANCODE_L:
		a.sys.RequestShadowUpdate()
	case sdl.SCANCODE_G:
		a.sys.RequestFullGeometryUpdate()
	case sdl.SCANCODE_LEFTBRACKET:
		if a.sun.Rotate(-sunStep) {
			a.sys.SetLightDirection(a.sun.Direction())
		}
	case sdl.SCANCODE_RIGHTBRACKET:
		if a.sun.Rotate(sunStep) {
			a.sys.SetLightDirection(a.sun.Direction())
		}
	case sdl.SCANCODE_PAGEUP:
		if a.sun.Raise(sunStep) {
			a.sys.SetLightDirection(a.sun.Direction())
		}
	case sdl.SCANCODE_PAGEDOWN:
		if a.sun.Raise(-sunStep) {
			a.sys.SetLightDirection(a.sun.Direction())
		}
	case sdl.SCANCODE_F1:
		a.scene.Wireframe = !a.scene.Wireframe
	case sdl.SCANCODE_F2:
		a.scene.ShowBounds = !a.scene.ShowBounds
	case sdl.SCANCODE_F3:
		a.scene.ShowFootprints = !a.scene.ShowFootprints
	case sdl.SCANCODE_F5:
		a.saveScene()
	case sdl.SCANCODE_F12:
		a.screenshot()
	}
}

// Close releases GL resources and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.scene != nil {
		a.scene.Destroy()
	}
	if a.sys != nil {
		a.sys.Release()
	}
	if a.dev != nil {
		a.dev.Release()
	}
	if a.window != nil {
		a.window.Close()
	}
}
