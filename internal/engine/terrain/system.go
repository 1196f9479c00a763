// Package terrain ties the clipmap to the generated maps. Once per frame it
// brings the maps up to date, displaces the tiles that need it and selects
// the tiles to draw.
package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/clipmap"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/mapgen"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/scenefile"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// Camera is what the terrain needs from the viewer.
type Camera interface {
	PlanarPosition() mgl32.Vec2
	PreviousPlanarPosition() mgl32.Vec2
	Frustum() math.Frustum
}

// Config is everything needed to construct a System.
type Config struct {
	Clipmap clipmap.Settings
	Maps    mapgen.Config
}

// DefaultConfig returns the default clipmap and map settings.
func DefaultConfig() Config {
	return Config{Clipmap: clipmap.DefaultSettings(), Maps: mapgen.DefaultConfig()}
}

// TextureSlots are the sampler units the map textures are bound to for
// shading.
type TextureSlots struct {
	Height   int
	Normal   int
	Shadow   int
	Material int
}

// DefaultTextureSlots binds the maps to units 0 through 3.
var DefaultTextureSlots = TextureSlots{Height: 0, Normal: 1, Shadow: 2, Material: 3}

// FrameStats describes the work done by one Frame.
type FrameStats struct {
	Stages     mapgen.Flags // map stages that ran
	Full       bool         // every tile was displaced
	Dispatched int          // tiles displaced
	Drawn      int
	Culled     int
}

// System owns the clipmap and the map pipeline.
type System struct {
	dev  gpu.Device
	log  *zap.Logger
	cm   *clipmap.Clipmap
	disp *clipmap.Dispatcher
	maps *mapgen.Pipeline
	draw clipmap.DrawSet
}

// New builds the clipmap and the map pipeline.
func New(dev gpu.Device, cfg Config) (*System, error) {
	maps, err := mapgen.New(dev, cfg.Maps)
	if err != nil {
		return nil, fmt.Errorf("terrain maps: %w", err)
	}
	cm, err := clipmap.Build(dev, cfg.Clipmap)
	if err != nil {
		return nil, fmt.Errorf("terrain geometry: %w", err)
	}
	return &System{
		dev:  dev,
		log:  logger.Named("terrain"),
		cm:   cm,
		disp: clipmap.NewDispatcher(dev),
		maps: maps,
	}, nil
}

// Frame runs one frame of terrain work: flagged map stages, then a full or
// conditional displacement, then culling against the camera frustum with
// the same vertical scale the tiles are drawn with.
func (s *System) Frame(cam Camera) FrameStats {
	var st FrameStats
	st.Stages = s.maps.Update()

	curr := cam.PlanarPosition()
	src := s.maps.HeightSource()
	if s.maps.GeometryShouldUpdate() {
		st.Full = true
		st.Dispatched = s.disp.Full(s.cm, src, curr)
		s.maps.ClearGeometryUpdate()
	} else {
		st.Dispatched = s.disp.Conditional(s.cm, src, curr, cam.PreviousPlanarPosition())
	}

	s.draw = clipmap.Select(s.cm, cam.Frustum(), s.HeightScale(), curr)
	st.Drawn = s.draw.Len()
	st.Culled = s.draw.Culled
	return st
}

// RequestFullGeometryUpdate makes the next Frame displace every tile.
func (s *System) RequestFullGeometryUpdate() { s.maps.RequestFullGeometryUpdate() }

// GeometryShouldUpdate reports whether the next Frame displaces every tile.
func (s *System) GeometryShouldUpdate() bool { return s.maps.GeometryShouldUpdate() }

// RequestShadowUpdate retraces shadows on the next Frame.
func (s *System) RequestShadowUpdate() { s.maps.RequestShadowUpdate() }

// SetLightDirection points the sun; shadows follow on the next Frame.
func (s *System) SetLightDirection(dir mgl32.Vec3) { s.maps.SetLightDirection(dir) }

// DrawSet returns the tiles selected by the last Frame.
func (s *System) DrawSet() clipmap.DrawSet { return s.draw }

// Textures returns the map handles.
func (s *System) Textures() mapgen.Textures { return s.maps.Textures() }

// Maps returns the map pipeline for editing.
func (s *System) Maps() *mapgen.Pipeline { return s.maps }

// Clipmap returns the current clipmap.
func (s *System) Clipmap() *clipmap.Clipmap { return s.cm }

// HeightScale returns the world height of a normalized 1.0.
func (s *System) HeightScale() float32 { return s.maps.HeightSource().ScaleY() }

// BindTextures binds the maps as samplers for shading.
func (s *System) BindTextures(slots TextureSlots) {
	tex := s.maps.Textures()
	for _, b := range []struct {
		h    gpu.Handle
		slot int
	}{
		{tex.Height, slots.Height},
		{tex.Normal, slots.Normal},
		{tex.Shadow, slots.Shadow},
		{tex.Material, slots.Material},
	} {
		t, err := s.maps.Arena().Sampled(b.h)
		if err != nil {
			s.log.Error("binding terrain texture", zap.Error(err))
			continue
		}
		t.BindAsSampler(b.slot)
	}
}

// SetClipmapSettings rebuilds the clipmap with a new topology and releases
// the old tile buffers. On failure the old clipmap stays in place.
func (s *System) SetClipmapSettings(cs clipmap.Settings) error {
	if cs == s.cm.Settings() {
		return nil
	}
	cm, err := clipmap.Build(s.dev, cs)
	if err != nil {
		return fmt.Errorf("rebuilding clipmap: %w", err)
	}
	s.cm.Release()
	s.cm = cm
	s.draw = clipmap.DrawSet{}
	s.maps.RequestFullGeometryUpdate()
	return nil
}

// Release frees the clipmap tile buffers.
func (s *System) Release() {
	s.cm.Release()
	s.draw = clipmap.DrawSet{}
}

// Serializers returns the scene hooks of the maps and the clipmap.
func (s *System) Serializers() []scenefile.Serializer {
	return append(s.maps.Serializers(), clipmapSerializer{s})
}
