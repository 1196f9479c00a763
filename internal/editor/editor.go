// Package editor is the interactive terrain editor: an ImGui window with the
// rendered terrain in a viewport and panels editing every map stage, the sun
// and the clipmap topology.
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/clipmap"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/glgpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/picking"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/engine/ui"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/scenefile"
)

// Layout constants, in pixels.
const (
	panelWidth      = 380
	statusBarHeight = 28
)

// DefaultScenePath is used by Save when no scene path is configured.
const DefaultScenePath = "terrain.scene.yaml"

// statusDuration is how long a status message stays visible.
const statusDuration = 4 * time.Second

// Editor owns the UI backend and the terrain being edited.
type Editor struct {
	cfg *config.Config
	log *zap.Logger

	ui     *ui.Backend
	dev    *glgpu.Device
	sys    *terrain.System
	scene  *scene.Scene
	camera *camera.FlyCamera
	sun    *lighting.Sun
	shots  *debug.Screenshots

	limiter   *rate.Limiter
	scenePath string
	status    status
	stats     terrain.FrameStats
	fps       fpsCounter

	lastFrame time.Time
	lastMouse imgui.Vec2
	hovered   *picking.Hit

	// clipmapDraft holds topology edits until they are applied, since each
	// change rebuilds every tile.
	clipmapDraft clipmap.Settings
	addTemplate  int
}

// New opens the editor window and builds the terrain.
func New(cfg *config.Config) (*Editor, error) {
	e := &Editor{
		cfg:       cfg,
		log:       logger.Named("editor"),
		scenePath: cfg.Scene.Path,
	}

	var err error
	e.ui, err = ui.NewBackend("Midgard Terrain Editor", cfg.Graphics.Width, cfg.Graphics.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to create UI: %w", err)
	}

	e.dev = glgpu.New()
	e.sys, err = terrain.New(e.dev, terrain.FromConfig(cfg))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create terrain: %w", err)
	}
	if e.scenePath != "" {
		if err := e.loadScene(e.scenePath); err != nil {
			e.Close()
			return nil, err
		}
	}

	sc := scene.DefaultConfig()
	sc.Width = int32(cfg.Graphics.Width - panelWidth)
	sc.Height = int32(cfg.Graphics.Height - statusBarHeight)
	e.scene, err = scene.New(sc)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	e.sun = lighting.NewSun(cfg.Light.Azimuth, cfg.Light.Elevation)
	e.sys.SetLightDirection(e.sun.Direction())

	e.camera = camera.NewFlyCamera(mgl32.Vec3{0, e.sys.HeightScale(), 0})
	e.camera.Pitch = -20
	e.camera.Speed = cfg.Camera.Speed
	e.camera.Sensitivity = cfg.Camera.Sensitivity
	e.camera.FOV = cfg.Camera.FOV
	e.camera.Near = cfg.Camera.Near
	e.camera.Far = cfg.Camera.Far

	e.shots = debug.NewScreenshots("screenshots", "terrain")
	e.clipmapDraft = e.sys.Clipmap().Settings()
	if cfg.Graphics.FPSLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.Graphics.FPSLimit), 1)
	}

	e.log.Info("editor initialized",
		zap.Int("tiles", e.sys.Clipmap().TileCount()),
		zap.Int("map_resolution", e.sys.Maps().Resolution()))
	return e, nil
}

// Run starts the UI loop. It returns when the window closes.
func (e *Editor) Run() {
	e.lastFrame = time.Now()
	e.ui.Run(e.frame)
}

// Close releases GL resources.
func (e *Editor) Close() {
	e.log.Info("closing editor")
	if e.scene != nil {
		e.scene.Destroy()
	}
	if e.sys != nil {
		e.sys.Release()
	}
	if e.dev != nil {
		e.dev.Release()
	}
}

func (e *Editor) frame() {
	if e.limiter != nil {
		_ = e.limiter.Wait(context.Background())
	}
	now := time.Now()
	dt := float32(now.Sub(e.lastFrame).Seconds())
	e.lastFrame = now
	if n, ok := e.fps.tick(now); ok {
		e.ui.SetWindowTitle(fmt.Sprintf("Midgard Terrain Editor | %d fps", n))
	}

	e.handleShortcuts()
	e.drawMenuBar()

	x, y, w, h := ui.Viewport()
	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse
	contentHeight := h - statusBarHeight

	imgui.SetNextWindowPos(imgui.NewVec2(x, y))
	imgui.SetNextWindowSize(imgui.NewVec2(panelWidth, contentHeight))
	if imgui.BeginV("Terrain", nil, flags) {
		e.drawTerrainPanel()
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(x+panelWidth, y))
	imgui.SetNextWindowSize(imgui.NewVec2(w-panelWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags|imgui.WindowFlagsNoScrollbar) {
		e.drawViewport(dt)
	}
	imgui.End()

	imgui.SetNextWindowPos(imgui.NewVec2(x, y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(w, statusBarHeight))
	if imgui.BeginV("##StatusBar", nil, flags|imgui.WindowFlagsNoTitleBar|imgui.WindowFlagsNoScrollbar) {
		e.drawStatusBar(now)
	}
	imgui.End()
}

func (e *Editor) handleShortcuts() {
	if imgui.IsAnyItemActive() {
		return
	}
	switch {
	case ui.IsChordPressed(imgui.ModCtrl, imgui.KeyS):
		e.saveScene()
	case ui.IsKeyPressed(imgui.KeyF12):
		e.screenshot()
	case ui.IsKeyPressed(imgui.KeyL):
		e.sys.RequestShadowUpdate()
	case ui.IsKeyPressed(imgui.KeyG):
		e.sys.RequestFullGeometryUpdate()
	case ui.IsKeyPressed(imgui.KeyF1):
		e.scene.Wireframe = !e.scene.Wireframe
	case ui.IsKeyPressed(imgui.KeyF2):
		e.scene.ShowBounds = !e.scene.ShowBounds
	case ui.IsKeyPressed(imgui.KeyF3):
		e.scene.ShowFootprints = !e.scene.ShowFootprints
	}
}

// drawViewport runs the terrain frame, shows the result and applies camera
// input for the next frame.
func (e *Editor) drawViewport(dt float32) {
	avail := imgui.ContentRegionAvail()
	if avail.X < 1 || avail.Y < 1 {
		return
	}
	e.scene.Resize(int32(avail.X), int32(avail.Y))
	e.camera.Aspect = avail.X / avail.Y

	e.stats = e.sys.Frame(e.camera)
	if e.stats.Stages != 0 {
		e.log.Debug("map stages ran", zap.Stringer("stages", e.stats.Stages))
	}
	e.scene.Render(e.camera, e.sys, e.sun)
	ui.Image(e.scene.ColorTexture(), avail.X, avail.Y)
	hovered := imgui.IsItemHovered()
	mouse := imgui.MousePos()
	e.pick(hovered, mouse.Sub(imgui.ItemRectMin()), avail)

	var m camera.Movement
	if imgui.IsWindowFocused() && !imgui.IsAnyItemActive() {
		m = movementFromKeys(ui.IsKeyDown)
	}
	if hovered && imgui.IsMouseDragging(imgui.MouseButtonRight) {
		e.camera.HandleMouse(mouse.X-e.lastMouse.X, mouse.Y-e.lastMouse.Y)
	}
	e.lastMouse = mouse
	e.camera.Update(m, dt)
}

// pick finds the tile under the cursor and highlights it on the next frame.
func (e *Editor) pick(hovered bool, local, size imgui.Vec2) {
	e.hovered = nil
	e.scene.Highlight = nil
	if !hovered {
		return
	}
	ray := picking.ScreenToRay(local.X, local.Y, size.X, size.Y, e.camera.ViewProjection().Inv())
	hit, ok := picking.PickTile(ray, e.sys.DrawSet(), e.sys.HeightScale())
	if !ok {
		return
	}
	e.hovered = &hit
	e.scene.Highlight = &hit.Bounds
}

func (e *Editor) drawStatusBar(now time.Time) {
	imgui.Text(fmt.Sprintf("drawn %d  culled %d  displaced %d", e.stats.Drawn, e.stats.Culled, e.stats.Dispatched))
	if h := e.hovered; h != nil {
		imgui.SameLine()
		imgui.TextDisabled("|")
		imgui.SameLine()
		p := h.Bounds.Center
		imgui.Text(fmt.Sprintf("%s L%d at (%.0f, %.0f)", h.Item.Tile.Kind, h.Item.Tile.Level, p[0], p[2]))
	}
	if msg := e.status.text(now); msg != "" {
		imgui.SameLine()
		imgui.TextDisabled("|")
		imgui.SameLine()
		imgui.Text(msg)
	}
}

func (e *Editor) loadScene(path string) error {
	doc, err := scenefile.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}
	if err := doc.Apply(e.sys.Serializers()...); err != nil {
		return fmt.Errorf("failed to apply scene %s: %w", path, err)
	}
	e.clipmapDraft = e.sys.Clipmap().Settings()
	e.log.Info("scene loaded", zap.String("path", path))
	return nil
}

func (e *Editor) reloadScene() {
	path := e.scenePathOrDefault()
	if err := e.loadScene(path); err != nil {
		e.log.Error("reloading scene", zap.Error(err))
		e.status.set(time.Now(), "load failed: "+err.Error(), statusDuration)
		return
	}
	e.status.set(time.Now(), "loaded "+path, statusDuration)
}

func (e *Editor) saveScene() {
	path := e.scenePathOrDefault()
	doc, err := scenefile.Capture(e.sys.Serializers()...)
	if err == nil {
		err = doc.Save(path)
	}
	if err != nil {
		e.log.Error("saving scene", zap.String("path", path), zap.Error(err))
		e.status.set(time.Now(), "save failed: "+err.Error(), statusDuration)
		return
	}
	e.scenePath = path
	e.log.Info("scene saved", zap.String("path", path))
	e.status.set(time.Now(), "saved "+path, statusDuration)
}

// saveConfig writes the current topology, sun and scene path back into the
// config file so the next session starts from them.
func (e *Editor) saveConfig() {
	syncConfig(e.cfg, e.sys, e.sun, e.scenePath)
	path, err := e.cfg.Save()
	if err != nil {
		e.log.Error("saving config", zap.String("path", path), zap.Error(err))
		e.status.set(time.Now(), "settings not saved: "+err.Error(), statusDuration)
		return
	}
	e.log.Info("config saved", zap.String("path", path))
	e.status.set(time.Now(), "settings saved to "+path, statusDuration)
}

// syncConfig copies the editable runtime state into cfg.
func syncConfig(cfg *config.Config, sys *terrain.System, sun *lighting.Sun, scenePath string) {
	cs := sys.Clipmap().Settings()
	cfg.Terrain.Levels = cs.Levels
	cfg.Terrain.Subdivisions = cs.Subdivisions
	cfg.Terrain.BaseSideLength = cs.BaseSideLength

	hs := sys.Maps().Height().Settings()
	cfg.Terrain.ScaleXZ = hs.ScaleXZ
	cfg.Terrain.ScaleY = hs.ScaleY

	ss := sys.Maps().Shadow().Settings()
	cfg.Shadow.Enabled = ss.Enabled
	cfg.Shadow.Quality = ss.Quality.String()
	cfg.Shadow.Softness = ss.Softness

	cfg.Light.Azimuth = sun.Azimuth
	cfg.Light.Elevation = sun.Elevation
	cfg.Scene.Path = scenePath
}

func (e *Editor) scenePathOrDefault() string {
	if e.scenePath == "" {
		return DefaultScenePath
	}
	return e.scenePath
}

func (e *Editor) screenshot() {
	path, err := e.shots.Save(e.scene.CaptureImage())
	if err != nil {
		e.log.Error("saving screenshot", zap.Error(err))
		e.status.set(time.Now(), "screenshot failed", statusDuration)
		return
	}
	e.status.set(time.Now(), "screenshot "+path, statusDuration)
}

// movementFromKeys maps WASD, Space, Ctrl and Shift to camera movement.
func movementFromKeys(down func(imgui.Key) bool) camera.Movement {
	var m camera.Movement
	for _, b := range []struct {
		key  imgui.Key
		move camera.Movement
	}{
		{imgui.KeyW, camera.MoveForward},
		{imgui.KeyS, camera.MoveBackward},
		{imgui.KeyA, camera.MoveLeft},
		{imgui.KeyD, camera.MoveRight},
		{imgui.KeySpace, camera.MoveUp},
		{imgui.KeyLeftCtrl, camera.MoveDown},
		{imgui.KeyLeftShift, camera.MoveFast},
	} {
		if down(b.key) {
			m |= b.move
		}
	}
	return m
}

// status is a message shown in the status bar until it expires.
type status struct {
	msg   string
	until time.Time
}

func (s *status) set(now time.Time, msg string, d time.Duration) {
	s.msg, s.until = msg, now.Add(d)
}

func (s *status) text(now time.Time) string {
	if now.After(s.until) {
		return ""
	}
	return s.msg
}

// fpsCounter counts frames per wall-clock second.
type fpsCounter struct {
	start  time.Time
	frames int
}

// tick records a frame and reports the count once a second has passed.
func (f *fpsCounter) tick(now time.Time) (int, bool) {
	if f.start.IsZero() {
		f.start = now
	}
	f.frames++
	if now.Sub(f.start) < time.Second {
		return 0, false
	}
	n := f.frames
	f.start, f.frames = now, 0
	return n, true
}
