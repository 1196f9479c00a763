package clipmap

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// testSource is a height source backed by a software texture holding a
// smooth non-linear pattern.
type testSource struct {
	tex   gpu.Texture
	scale float32
}

func (s *testSource) BindAsSampler(slot int) { s.tex.BindAsSampler(slot) }
func (s *testSource) ScaleXZ() float32       { return s.scale }
func (s *testSource) Resolution() int        { return s.tex.Size() }

func newTestSource(t *testing.T, dev *soft.Device) *testSource {
	t.Helper()
	const size = 64
	tex, err := dev.NewTexture(gpu.TextureDesc{Name: "height", Size: size, Format: gpu.FormatR32F, Mips: true})
	require.NoError(t, err)

	texels := make([]mgl32.Vec4, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			u := float32(x) / size
			v := float32(y) / size
			h := 0.5 + 0.25*math32.Sin(2*math32.Pi*3*u)*math32.Cos(2*math32.Pi*2*v)
			texels[y*size+x] = mgl32.Vec4{h}
		}
	}
	st := tex.(*soft.Texture)
	st.Upload(0, texels)

	// Box-filtered mips, so coarse levels read different heights.
	for mip, n := 1, size/2; mip < st.MipLevels(); mip, n = mip+1, n/2 {
		prev := texels
		texels = make([]mgl32.Vec4, n*n)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				sum := prev[2*y*2*n+2*x].Add(prev[2*y*2*n+2*x+1]).
					Add(prev[(2*y+1)*2*n+2*x]).Add(prev[(2*y+1)*2*n+2*x+1])
				texels[y*n+x] = sum.Mul(0.25)
			}
		}
		st.Upload(mip, texels)
	}
	return &testSource{tex: tex, scale: 64}
}

func testSettings() Settings {
	return Settings{Subdivisions: 4, Levels: 3, BaseSideLength: 4}
}

func build(t *testing.T, dev gpu.Device, s Settings) *Clipmap {
	t.Helper()
	cm, err := Build(dev, s)
	require.NoError(t, err)
	return cm
}

func vertices(t *Tile) []mgl32.Vec4 {
	return t.Vertices.(*soft.Buffer).Data()
}

func TestTileCounts(t *testing.T) {
	for n := 1; n <= 6; n++ {
		cm := build(t, soft.New(), Settings{Subdivisions: 4, Levels: n, BaseSideLength: 4})

		if got, want := cm.GridCount(), 4+12*(n-1); got != want {
			t.Errorf("levels=%d: grid count = %d, want %d", n, got, want)
		}
		if got, want := cm.FillCount(), 2*n; got != want {
			t.Errorf("levels=%d: fill count = %d, want %d", n, got, want)
		}
		if cm.LevelCount() != n {
			t.Errorf("levels=%d: level count = %d", n, cm.LevelCount())
		}
	}
}

func TestBuildDisabled(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
	}{
		{"zero subdivisions", Settings{Subdivisions: 0, Levels: 4, BaseSideLength: 4}},
		{"zero levels", Settings{Subdivisions: 32, Levels: 0, BaseSideLength: 4}},
		{"one subdivision", Settings{Subdivisions: 1, Levels: 4, BaseSideLength: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := soft.New()
			cm, err := Build(dev, tt.s)
			require.NoError(t, err)
			assert.True(t, cm.Empty())
			assert.Equal(t, 0, cm.TileCount())

			// Dispatch and culling on an empty clipmap are no-ops.
			d := NewDispatcher(dev)
			src := newTestSource(t, dev)
			assert.Equal(t, 0, d.Full(cm, src, mgl32.Vec2{}))
			assert.Equal(t, 0, Select(cm, testFrustum(), 1, mgl32.Vec2{}).Len())
		})
	}
}

func TestTileTopology(t *testing.T) {
	s := testSettings()
	cm := build(t, soft.New(), s)
	n := s.Subdivisions
	m := n - 1
	long := 4*m + 3

	for _, l := range cm.Levels() {
		for _, g := range l.Grids {
			verts := n
			if l.Index == 0 {
				verts = 2*n - 1
			}
			assert.Equal(t, verts*verts, g.VertexCount, "level %d grid vertices", l.Index)
			assert.Equal(t, (verts-1)*(verts-1)*6, g.ElementCount, "level %d grid indices", l.Index)
			assert.Equal(t, g.VertexCount, g.Vertices.Len())
			assert.Equal(t, g.ElementCount, g.Indices.Len())
			assert.Equal(t, IndexRange{Count: g.ElementCount}, g.Range(0))
		}

		require.Len(t, l.Fills, 2)
		h, v := l.Fills[0], l.Fills[1]
		assert.Equal(t, Horizontal, h.Orientation)
		assert.Equal(t, Vertical, v.Orientation)

		if l.Index == 0 {
			assert.Equal(t, long*3, h.VertexCount)
			assert.Equal(t, long*3, v.VertexCount)
			assert.Equal(t, 2*(4*m+2)*6, h.ElementCount)
			assert.Equal(t, 2*4*m*6, v.ElementCount)
			continue
		}
		assert.Equal(t, long*4, h.VertexCount)
		assert.Equal(t, long*4, v.VertexCount)
		require.Len(t, h.Ranges, 4)
		require.Len(t, v.Ranges, 4)
		for variant := 0; variant < 4; variant++ {
			// One of the two gap rows loses the 2m+1 quads under the finer
			// level, and one gap column loses 2m.
			assert.Equal(t, (6*m+3)*6, h.Range(variant).Count, "variant %d", variant)
			assert.Equal(t, 6*m*6, v.Range(variant).Count, "variant %d", variant)
		}
		last := h.Ranges[3]
		assert.Equal(t, h.ElementCount, last.First+last.Count)
	}
}

func TestSpacingDividesCell(t *testing.T) {
	for _, s := range []Settings{
		testSettings(),
		{Subdivisions: 32, Levels: 6, BaseSideLength: 4},
		{Subdivisions: 8, Levels: 4, BaseSideLength: 3},
		{Subdivisions: 2, Levels: 3, BaseSideLength: 1},
	} {
		for l := 0; l < s.Levels; l++ {
			ratio := s.Cell(l) / s.Spacing(l)
			assert.Equal(t, float32(2), ratio, "%+v level %d", s, l)
			assert.Equal(t, ratio, math32.Round(ratio))
			if l > 0 {
				assert.InDelta(t, 2*s.Spacing(l-1), s.Spacing(l), 1e-6)
				assert.InDelta(t, 2*s.Footprint(l-1), s.Footprint(l), 1e-5)
			}
		}
	}
}

var testViewers = []mgl32.Vec2{
	{0, 0},
	{0.5, 0},
	{0.3, -0.7},
	{3.5, -0.5},
	{-2.6, 5.1},
	{13.37, -9.9},
}

func TestLevelEdgesMeetCoarserHole(t *testing.T) {
	s := testSettings()
	m := float32(s.Subdivisions - 1)
	for _, viewer := range testViewers {
		for l := 1; l < s.Levels; l++ {
			g := s.Spacing(l)
			ax, az := s.InnerShift(viewer, l)
			inner := s.Quantize(viewer, l-1)
			outer := s.Quantize(viewer, l)
			lo, hi := s.Extent(l - 1)

			for axis, a := range []int{ax, az} {
				edgeLo := inner[axis] + lo
				edgeHi := inner[axis] + hi
				assert.InDelta(t, outer[axis]+(-m+float32(a))*g, edgeLo, 1e-5, "viewer %v level %d axis %d", viewer, l, axis)
				assert.InDelta(t, outer[axis]+(m+1+float32(a))*g, edgeHi, 1e-5, "viewer %v level %d axis %d", viewer, l, axis)
			}
		}
	}
}

// triangle is a drawn triangle projected onto the ground plane.
type triangle [3][2]float64

func (tr triangle) contains(p [2]float64) bool {
	cross := func(a, b [2]float64) float64 {
		return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	}
	d0 := cross(tr[0], tr[1])
	d1 := cross(tr[1], tr[2])
	d2 := cross(tr[2], tr[0])
	neg := d0 < 0 || d1 < 0 || d2 < 0
	pos := d0 > 0 || d1 > 0 || d2 > 0
	return !(neg && pos)
}

func drawnTriangles(t *testing.T, ds DrawSet) []triangle {
	t.Helper()
	var out []triangle
	for _, it := range ds.Items {
		verts := vertices(it.Tile)
		indices := it.Tile.Indices.(*soft.Buffer).Indices()
		r := it.Range
		require.LessOrEqual(t, r.First+r.Count, len(indices))
		for i := r.First; i+2 < r.First+r.Count; i += 3 {
			var tr triangle
			for k := 0; k < 3; k++ {
				v := verts[indices[i+k]]
				tr[k] = [2]float64{float64(v[0] + it.Offset[0]), float64(v[2] + it.Offset[1])}
			}
			out = append(out, tr)
		}
	}
	return out
}

func TestDrawnTrianglesTileThePlane(t *testing.T) {
	s := testSettings()
	cm := build(t, soft.New(), s)
	everything := math.ExtractFrustum(mgl32.Ortho(-1000, 1000, -1000, 1000, -1000, 1000))
	g0 := float64(s.Spacing(0))
	outer := s.Levels - 1
	lo, hi := s.Extent(outer)

	for _, viewer := range testViewers {
		ds := Select(cm, everything, 1, viewer)
		require.Zero(t, ds.Culled)
		tris := drawnTriangles(t, ds)

		// Sample points sit off every edge and diagonal of every level.
		origin := s.Quantize(viewer, outer)
		k0 := int(gomath.Round(float64(origin[0]+lo) / g0))
		j0 := int(gomath.Round(float64(origin[1]+lo) / g0))
		steps := int(gomath.Round(float64(hi-lo) / g0))
		for j := 0; j < steps; j++ {
			for k := 0; k < steps; k++ {
				p := [2]float64{(float64(k0+k) + 0.3) * g0, (float64(j0+j) + 0.6) * g0}
				hits := 0
				for _, tr := range tris {
					if tr.contains(p) {
						hits++
					}
				}
				if hits != 1 {
					t.Fatalf("viewer %v: point %v covered by %d triangles", viewer, p, hits)
				}
			}
		}
	}
}

func TestSeamHeightsMatchCoarserLevel(t *testing.T) {
	for _, s := range []Settings{testSettings(), {Subdivisions: 8, Levels: 2, BaseSideLength: 4}} {
		for _, viewer := range testViewers {
			dev := soft.New()
			cm := build(t, dev, s)
			NewDispatcher(dev).Full(cm, newTestSource(t, dev), viewer)
			g0 := s.Spacing(0)
			key := func(x, z float32) [2]int {
				return [2]int{int(math32.Round(x / g0)), int(math32.Round(z / g0))}
			}

			for l := 0; l+1 < s.Levels; l++ {
				coarse := map[[2]int]float32{}
				co := s.Quantize(viewer, l+1)
				for _, tile := range cm.Levels()[l+1].Tiles() {
					for _, v := range vertices(tile) {
						coarse[key(v[0]+co[0], v[2]+co[1])] = v[1]
					}
				}
				coarseAt := func(x, z float32) float32 {
					h, ok := coarse[key(x, z)]
					require.True(t, ok, "no level %d vertex at (%v, %v)", l+1, x, z)
					return h
				}

				g := s.Spacing(l)
				lo, hi := s.Extent(l)
				o := s.Quantize(viewer, l)
				edges := 0
				for _, tile := range cm.Levels()[l].Tiles() {
					for _, v := range vertices(tile) {
						onX := v[0] == lo || v[0] == hi
						onZ := v[2] == lo || v[2] == hi
						if !onX && !onZ {
							continue
						}
						edges++
						x, z := v[0]+o[0], v[2]+o[1]
						want := coarseAt(x, z)
						ix := int(math32.Round(v[0] / g))
						iz := int(math32.Round(v[2] / g))
						switch {
						case ix&1 == 1:
							want = 0.5 * (coarseAt(x-g, z) + coarseAt(x+g, z))
						case iz&1 == 1:
							want = 0.5 * (coarseAt(x, z-g) + coarseAt(x, z+g))
						}
						assert.InDelta(t, want, v[1], 1e-5, "%+v viewer %v level %d at (%v, %v)", s, viewer, l, x, z)
						assert.Zero(t, v[3])
					}
				}
				assert.Greater(t, edges, 0)
			}
		}
	}
}

func TestReleaseFreesEveryBuffer(t *testing.T) {
	dev := soft.New()
	cm := build(t, dev, testSettings())
	assert.Equal(t, 2*cm.TileCount(), dev.LiveBuffers())

	cm.Release()
	assert.Zero(t, dev.LiveBuffers())
	assert.True(t, cm.Empty())
	cm.Release()
}

var errOutOfMemory = errors.New("out of memory")

// budgetDevice fails every allocation after the first budget ones.
type budgetDevice struct {
	*soft.Device
	budget int
}

func (d *budgetDevice) NewVertexBuffer(data []mgl32.Vec4) (gpu.Buffer, error) {
	if d.budget == 0 {
		return nil, errOutOfMemory
	}
	d.budget--
	return d.Device.NewVertexBuffer(data)
}

func (d *budgetDevice) NewIndexBuffer(data []uint32) (gpu.Buffer, error) {
	if d.budget == 0 {
		return nil, errOutOfMemory
	}
	d.budget--
	return d.Device.NewIndexBuffer(data)
}

func TestFailedBuildReleasesBuffers(t *testing.T) {
	for _, budget := range []int{0, 1, 2, 9, 30, 67} {
		dev := &budgetDevice{Device: soft.New(), budget: budget}
		cm, err := Build(dev, testSettings())

		require.ErrorIs(t, err, errOutOfMemory, "budget %d", budget)
		assert.Nil(t, cm)
		assert.Zero(t, dev.LiveBuffers(), "budget %d", budget)
	}
}

func TestCellsGrowWithLevel(t *testing.T) {
	s := Settings{Subdivisions: 32, Levels: 10, BaseSideLength: 4}
	for l := 1; l < s.Levels; l++ {
		if s.Cell(l) <= s.Cell(l-1) {
			t.Errorf("cell(%d) = %v < cell(%d) = %v", l, s.Cell(l), l-1, s.Cell(l-1))
		}
	}
}

func TestLevelShouldUpdateExample(t *testing.T) {
	s := Settings{Subdivisions: 32, Levels: 4, BaseSideLength: 4}
	cm := &Clipmap{settings: s}

	assert.Equal(t, float32(0.125), s.BaseOffset())
	assert.Equal(t, float32(0.5), s.Cell(2))

	origin := mgl32.Vec2{0, 0}
	assert.False(t, cm.LevelShouldUpdate(2, mgl32.Vec2{0.4, 0}, origin))
	assert.True(t, cm.LevelShouldUpdate(2, mgl32.Vec2{0.6, 0}, origin))

	// Crossing zero from the negative side is a boundary crossing too.
	assert.True(t, cm.LevelShouldUpdate(2, mgl32.Vec2{-0.1, 0}, origin))
	assert.False(t, cm.LevelShouldUpdate(2, origin, origin))
}

func TestStaleLevelsFinestFirst(t *testing.T) {
	cm := build(t, soft.New(), Settings{Subdivisions: 32, Levels: 4, BaseSideLength: 4})

	// 0.3 crosses the 0.125 and 0.25 cells of levels 0 and 1 but not 0.5 or 1.
	assert.Equal(t, []int{0, 1}, cm.StaleLevels(mgl32.Vec2{0.3, 0}, mgl32.Vec2{}))
	assert.Empty(t, cm.StaleLevels(mgl32.Vec2{0.1, 0.1}, mgl32.Vec2{0.05, 0.05}))
}

func TestFullAndConditionalMatch(t *testing.T) {
	s := testSettings()
	viewer := mgl32.Vec2{3.3, -1.7}

	devA := soft.New()
	cmA := build(t, devA, s)
	srcA := newTestSource(t, devA)
	NewDispatcher(devA).Full(cmA, srcA, viewer)

	devB := soft.New()
	cmB := build(t, devB, s)
	srcB := newTestSource(t, devB)
	d := NewDispatcher(devB)
	prev := mgl32.Vec2{0.2, 0.1}
	d.Full(cmB, srcB, prev)
	d.Conditional(cmB, srcB, viewer, prev)

	tilesA, tilesB := cmA.Tiles(), cmB.Tiles()
	require.Equal(t, len(tilesA), len(tilesB))
	for i := range tilesA {
		assert.Equal(t, vertices(tilesA[i]), vertices(tilesB[i]), "tile %d", i)
	}
}

func TestConditionalWithoutMotionIsNoop(t *testing.T) {
	dev := soft.New()
	cm := build(t, dev, testSettings())
	src := newTestSource(t, dev)
	d := NewDispatcher(dev)

	p := mgl32.Vec2{1.9, 7.3}
	assert.Equal(t, cm.TileCount(), d.Full(cm, src, p))
	before := dev.Stats()

	assert.Equal(t, 0, d.Conditional(cm, src, p, p))
	assert.Equal(t, before, dev.Stats())
}

func TestConditionalDispatchesStaleLevelsOnly(t *testing.T) {
	dev := soft.New()
	s := testSettings()
	cm := build(t, dev, s)
	src := newTestSource(t, dev)
	d := NewDispatcher(dev)

	// Cells are 1, 2 and 4: moving from 0.5 to 2.5 crosses levels 0 and 1.
	n := d.Conditional(cm, src, mgl32.Vec2{2.5, 0}, mgl32.Vec2{0.5, 0})
	want := len(cm.Levels()[0].Grids) + 2 + len(cm.Levels()[1].Grids) + 2
	assert.Equal(t, want, n)
}

func TestEveryDispatchIsFenced(t *testing.T) {
	dev := soft.New()
	cm := build(t, dev, testSettings())
	src := newTestSource(t, dev)
	d := NewDispatcher(dev)

	d.Full(cm, src, mgl32.Vec2{})
	d.Conditional(cm, src, mgl32.Vec2{5, 5}, mgl32.Vec2{})

	st := dev.Stats()
	assert.Greater(t, st.Dispatches, 0)
	assert.Equal(t, st.Dispatches, st.Barriers)
	assert.Zero(t, st.Hazards)
	assert.Zero(t, st.Unfenced)
	assert.True(t, dev.Fenced())
}

func TestErrorMetricOnOddVerticesOnly(t *testing.T) {
	dev := soft.New()
	cm := build(t, dev, testSettings())
	src := newTestSource(t, dev)
	NewDispatcher(dev).Full(cm, src, mgl32.Vec2{1, -2})

	var oddNonZero bool
	for _, tile := range cm.Tiles() {
		for i, v := range vertices(tile) {
			ix := int(math32.Round(v[0] / tile.Spacing))
			iz := int(math32.Round(v[2] / tile.Spacing))
			if ix&1 == 0 && iz&1 == 0 {
				assert.Zero(t, v[3], "even vertex %d of %s tile has error", i, tile.Kind)
			} else if v[3] != 0 {
				oddNonZero = true
			}
			assert.GreaterOrEqual(t, v[1], float32(0.25-1e-4))
			assert.LessOrEqual(t, v[1], float32(0.75+1e-4))
		}
	}
	assert.True(t, oddNonZero, "a curved height field must produce some error")
}

func TestDisplacementKeepsPlanarPositions(t *testing.T) {
	dev := soft.New()
	cm := build(t, dev, testSettings())
	tile := cm.Levels()[1].Grids[0]
	before := vertices(tile)

	NewDispatcher(dev).Full(cm, newTestSource(t, dev), mgl32.Vec2{10, -3})

	after := vertices(tile)
	for i := range before {
		assert.Equal(t, before[i][0], after[i][0])
		assert.Equal(t, before[i][2], after[i][2])
	}
}
