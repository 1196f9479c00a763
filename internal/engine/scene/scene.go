// Package scene renders the terrain viewer: an offscreen pass drawing the
// clipmap with the generated maps, presented to the window.
package scene

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/camera"
	"github.com/Faultbox/midgard-terrain/internal/engine/debug"
	"github.com/Faultbox/midgard-terrain/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Config contains scene configuration options.
type Config struct {
	Width      int32
	Height     int32
	FogDensity float32
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Width:      1280,
		Height:     720,
		FogDensity: 0.0006,
	}
}

// Scene manages the render target and the terrain renderer.
type Scene struct {
	config      Config
	framebuffer *framebuffer.Framebuffer
	terrain     *TerrainRenderer
	lines       *LinesRenderer

	SkyColor  mgl32.Vec3
	Wireframe bool

	ShowBounds     bool // outline the bounds of every drawn tile
	ShowFootprints bool // outline the area each clipmap level covers

	// Highlight is outlined in HighlightColor when set.
	Highlight *math.AABB
}

// HighlightColor outlines the Highlight box.
var HighlightColor = mgl32.Vec3{1, 1, 0}

// New creates a new scene with the given configuration.
func New(cfg Config) (*Scene, error) {
	s := &Scene{
		config:   cfg,
		SkyColor: mgl32.Vec3{0.55, 0.68, 0.85},
	}

	var err error
	s.framebuffer, err = framebuffer.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("creating framebuffer: %w", err)
	}

	s.terrain, err = NewTerrainRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating terrain renderer: %w", err)
	}

	s.lines, err = NewLinesRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating lines renderer: %w", err)
	}
	return s, nil
}

// Render draws the terrain into the offscreen target.
func (s *Scene) Render(cam *camera.FlyCamera, sys *terrain.System, sun *lighting.Sun) {
	s.framebuffer.Bind()
	s.framebuffer.Clear(s.SkyColor[0], s.SkyColor[1], s.SkyColor[2], 1)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	s.terrain.Render(sys, Frame{
		ViewProj:   cam.ViewProjection(),
		CameraPos:  cam.Position,
		LightDir:   sun.Direction(),
		SunColor:   sun.Color,
		Ambient:    sun.Ambient,
		FogColor:   s.SkyColor,
		FogDensity: s.config.FogDensity,
		Wireframe:  s.Wireframe,
	})

	gl.Disable(gl.CULL_FACE)

	var lines []debug.LineVertex
	if s.ShowBounds {
		lines = append(lines, debug.DrawSetLines(sys.DrawSet(), sys.HeightScale())...)
	}
	if s.ShowFootprints {
		lines = append(lines, debug.FootprintLines(sys.Clipmap(), cam.PlanarPosition(), 0)...)
	}
	if s.Highlight != nil {
		lines = debug.BoxLines(lines, *s.Highlight, HighlightColor)
	}
	s.lines.Render(cam.ViewProjection(), lines)

	gl.Disable(gl.DEPTH_TEST)
	s.framebuffer.Unbind()
}

// Present copies the rendered image to the window.
func (s *Scene) Present(windowWidth, windowHeight int) {
	s.framebuffer.Present(int32(windowWidth), int32(windowHeight))
}

// Resize updates the scene dimensions.
func (s *Scene) Resize(width, height int32) {
	if width == s.config.Width && height == s.config.Height {
		return
	}
	s.config.Width = width
	s.config.Height = height
	s.framebuffer.Resize(width, height)
}

// ColorTexture returns the GL texture holding the last rendered frame.
func (s *Scene) ColorTexture() uint32 { return s.framebuffer.ColorTexture() }

// Size returns the render target size.
func (s *Scene) Size() (width, height int32) { return s.framebuffer.Size() }

// CaptureImage returns the last rendered frame.
func (s *Scene) CaptureImage() *image.RGBA {
	return s.framebuffer.Capture()
}

// Destroy releases all resources.
func (s *Scene) Destroy() {
	if s.lines != nil {
		s.lines.Destroy()
	}
	if s.terrain != nil {
		s.terrain.Destroy()
	}
	if s.framebuffer != nil {
		s.framebuffer.Destroy()
	}
}
