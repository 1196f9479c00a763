package gpu_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
)

func TestGroups(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0},
		{-3, 0},
		{1, 1},
		{32, 1},
		{33, 2},
		{63, 2},
		{1024, 32},
	}
	for _, tt := range tests {
		if got := gpu.Groups(tt.n); got != tt.want {
			t.Errorf("Groups(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestBarrierHas(t *testing.T) {
	b := gpu.BarrierStorage | gpu.BarrierVertexAttrib

	assert.True(t, b.Has(gpu.BarrierStorage))
	assert.True(t, b.Has(gpu.BarrierStorage|gpu.BarrierVertexAttrib))
	assert.False(t, b.Has(gpu.BarrierImage))
	assert.False(t, b.Has(0))
	assert.True(t, b.Buffers())
	assert.False(t, b.Textures())
	assert.True(t, gpu.BarrierAll.Textures())
	assert.Equal(t, "storage|vertex-attrib", b.String())
}

func TestFormatUniform(t *testing.T) {
	assert.Equal(t, "3", gpu.FormatUniform(gpu.Int(3)))
	assert.Equal(t, "0.5", gpu.FormatUniform(gpu.Float(0.5)))
	assert.Equal(t, "true", gpu.FormatUniform(gpu.Bool(true)))
	assert.Equal(t, "(1, 2)", gpu.FormatUniform(gpu.Vec2{1, 2}))
	assert.Equal(t, "<nil>", gpu.FormatUniform(nil))
}

func TestArenaSingleWriter(t *testing.T) {
	arena := gpu.NewArena(soft.New())

	h, err := arena.Create(gpu.TextureDesc{Name: "height", Size: 16, Format: gpu.FormatR32F, Mips: true}, "height")
	require.NoError(t, err)
	assert.True(t, h.Valid())
	assert.Equal(t, 1, arena.Len())

	tex, err := arena.Writable(h, "height")
	require.NoError(t, err)
	assert.Equal(t, 5, tex.MipLevels())

	_, err = arena.Writable(h, "normal")
	assert.True(t, errors.Is(err, gpu.ErrNotWriter), "got %v", err)

	ro, err := arena.Sampled(h)
	require.NoError(t, err)
	assert.Equal(t, "height", ro.Name())

	writer, err := arena.Writer(h)
	require.NoError(t, err)
	assert.Equal(t, "height", writer)

	found, ok := arena.Lookup("height")
	assert.True(t, ok)
	assert.Equal(t, h, found)
}

func TestArenaUnknownHandle(t *testing.T) {
	arena := gpu.NewArena(soft.New())

	_, err := arena.Sampled(0)
	assert.ErrorIs(t, err, gpu.ErrUnknownHandle)
	_, err = arena.Writable(7, "height")
	assert.ErrorIs(t, err, gpu.ErrUnknownHandle)
}

func TestArenaCreateError(t *testing.T) {
	arena := gpu.NewArena(soft.New())

	_, err := arena.Create(gpu.TextureDesc{Name: "bad", Size: 0}, "height")
	assert.Error(t, err)
	assert.Equal(t, 0, arena.Len())
}

func TestRegisterSourceDuplicatePanics(t *testing.T) {
	gpu.RegisterSource("test_dup_source", "void main() {}")
	src, ok := gpu.Source("test_dup_source")
	assert.True(t, ok)
	assert.Contains(t, src, "main")
	assert.Contains(t, gpu.Sources(), "test_dup_source")

	assert.Panics(t, func() { gpu.RegisterSource("test_dup_source", "") })
}
