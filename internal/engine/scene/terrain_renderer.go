package scene

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/clipmap"
	"github.com/Faultbox/midgard-terrain/internal/engine/mapgen"
	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

var (
	//go:embed shaders/terrain.vert
	terrainVertexShader string
	//go:embed shaders/terrain.frag
	terrainFragmentShader string
)

// glObject is a gpu resource backed by a GL name.
type glObject interface {
	ID() uint32
}

// TerrainRenderer draws the clipmap tiles selected by a terrain.System.
type TerrainRenderer struct {
	log     *zap.Logger
	program uint32

	locViewProj    int32
	locOffset      int32
	locExtent      int32
	locMorphBand   int32
	locHeightScale int32
	locScaleXZ     int32
	locLightDir    int32
	locSunColor    int32
	locAmbient     int32
	locPalette     int32
	locCameraPos   int32
	locFogColor    int32
	locFogDensity  int32
	locWireTint    int32

	// VAOs are cached per tile and dropped when the clipmap is rebuilt.
	vaos    map[*clipmap.Tile]uint32
	builtOn *clipmap.Clipmap

	Palette [mapgen.MaxMaterials]mgl32.Vec3
}

// NewTerrainRenderer compiles the terrain program.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	program, err := shader.CompileProgram(terrainVertexShader, terrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	return &TerrainRenderer{
		log:            logger.Named("scene"),
		program:        program,
		locViewProj:    shader.Uniform(program, "uViewProj"),
		locOffset:      shader.Uniform(program, "uOffset"),
		locExtent:      shader.Uniform(program, "uExtent"),
		locMorphBand:   shader.Uniform(program, "uMorphBand"),
		locHeightScale: shader.Uniform(program, "uHeightScale"),
		locScaleXZ:     shader.Uniform(program, "uScaleXZ"),
		locLightDir:    shader.Uniform(program, "uLightDir"),
		locSunColor:    shader.Uniform(program, "uSunColor"),
		locAmbient:     shader.Uniform(program, "uAmbient"),
		locPalette:     shader.Uniform(program, "uPalette"),
		locCameraPos:   shader.Uniform(program, "uCameraPos"),
		locFogColor:    shader.Uniform(program, "uFogColor"),
		locFogDensity:  shader.Uniform(program, "uFogDensity"),
		locWireTint:    shader.Uniform(program, "uWireTint"),
		vaos:           make(map[*clipmap.Tile]uint32),
		Palette:        mapgen.DefaultPalette,
	}, nil
}

// Frame carries the per-frame view and lighting state.
type Frame struct {
	ViewProj   mgl32.Mat4
	CameraPos  mgl32.Vec3
	LightDir   mgl32.Vec3
	SunColor   mgl32.Vec3
	Ambient    float32
	FogColor   mgl32.Vec3
	FogDensity float32
	Wireframe  bool
}

// Render draws the system's current draw set.
func (tr *TerrainRenderer) Render(sys *terrain.System, f Frame) {
	if cm := sys.Clipmap(); cm != tr.builtOn {
		tr.releaseVAOs()
		tr.builtOn = cm
	}

	gl.UseProgram(tr.program)
	gl.UniformMatrix4fv(tr.locViewProj, 1, false, &f.ViewProj[0])
	gl.Uniform1f(tr.locHeightScale, sys.HeightScale())
	gl.Uniform1f(tr.locScaleXZ, sys.Maps().HeightSource().ScaleXZ())
	gl.Uniform3fv(tr.locLightDir, 1, &f.LightDir[0])
	gl.Uniform3fv(tr.locSunColor, 1, &f.SunColor[0])
	gl.Uniform1f(tr.locAmbient, f.Ambient)
	gl.Uniform3fv(tr.locPalette, mapgen.MaxMaterials, &tr.Palette[0][0])
	gl.Uniform3fv(tr.locCameraPos, 1, &f.CameraPos[0])
	gl.Uniform3fv(tr.locFogColor, 1, &f.FogColor[0])
	gl.Uniform1f(tr.locFogDensity, f.FogDensity)
	wire := int32(0)
	if f.Wireframe {
		wire = 1
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	gl.Uniform1i(tr.locWireTint, wire)

	sys.BindTextures(terrain.DefaultTextureSlots)

	var settings clipmap.Settings
	if cm := sys.Clipmap(); cm != nil {
		settings = cm.Settings()
	}
	for _, it := range sys.DrawSet().Items {
		vao := tr.vao(it.Tile)
		if vao == 0 || it.Range.Count == 0 {
			continue
		}
		lo, hi := settings.Extent(it.Tile.Level)
		gl.Uniform2f(tr.locOffset, it.Offset[0], it.Offset[1])
		gl.Uniform2f(tr.locExtent, lo, hi)
		gl.Uniform1f(tr.locMorphBand, settings.MorphBand(it.Tile.Level))
		gl.BindVertexArray(vao)
		gl.DrawElementsWithOffset(gl.TRIANGLES, int32(it.Range.Count), gl.UNSIGNED_INT, uintptr(it.Range.First*4))
	}
	gl.BindVertexArray(0)

	if f.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

func (tr *TerrainRenderer) vao(t *clipmap.Tile) uint32 {
	if vao, ok := tr.vaos[t]; ok {
		return vao
	}
	vb, ok1 := t.Vertices.(glObject)
	ib, ok2 := t.Indices.(glObject)
	if !ok1 || !ok2 {
		tr.log.Error("tile buffers are not GL buffers",
			zap.Stringer("kind", t.Kind), zap.Int("level", t.Level))
		tr.vaos[t] = 0
		return 0
	}

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vb.ID())
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 4, gl.FLOAT, false, 16, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ib.ID())
	gl.BindVertexArray(0)

	tr.vaos[t] = vao
	return vao
}

func (tr *TerrainRenderer) releaseVAOs() {
	for t, vao := range tr.vaos {
		if vao != 0 {
			gl.DeleteVertexArrays(1, &vao)
		}
		delete(tr.vaos, t)
	}
}

// Destroy releases GL resources.
func (tr *TerrainRenderer) Destroy() {
	tr.releaseVAOs()
	if tr.program != 0 {
		gl.DeleteProgram(tr.program)
		tr.program = 0
	}
}
