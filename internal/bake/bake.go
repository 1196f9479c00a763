// Package bake generates terrain maps on the CPU device and writes them out
// as PNG or TIFF images for inspection or offline use.
package bake

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu/soft"
	"github.com/Faultbox/midgard-terrain/internal/engine/mapgen"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/scenefile"
)

// ErrNotSoft is returned when a map does not live on the CPU device.
var ErrNotSoft = errors.New("bake: texture is not a soft texture")

// Output file names without extension, one per exported map.
const (
	HeightMap   = "height"
	NormalMap   = "normal"
	AOMap       = "ao"
	ShadowMap   = "shadow"
	MaterialMap = "material"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// ParseFormat resolves a format by name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPNG, FormatTIFF:
		return f, nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// Path returns the file for a map name in dir.
func (f Format) Path(dir, name string) string {
	return filepath.Join(dir, name+"."+string(f))
}

func (f Format) encode(w io.Writer, img image.Image) error {
	if f == FormatTIFF {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	return png.Encode(w, img)
}

// Generate builds a pipeline on a fresh soft device, applies doc (which may
// be nil) and runs every stage once.
func Generate(cfg mapgen.Config, doc *scenefile.Document) (*mapgen.Pipeline, error) {
	p, err := mapgen.New(soft.New(), cfg)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		if err := doc.Apply(p.Serializers()...); err != nil {
			return nil, fmt.Errorf("applying scene: %w", err)
		}
	}
	ran := p.Update()
	logger.Named("bake").Info("maps generated",
		zap.Int("resolution", p.Resolution()),
		zap.Stringer("stages", ran))
	return p, nil
}

// Export writes every map of p into dir and returns the written paths in a
// fixed order.
func Export(p *mapgen.Pipeline, dir string, format Format) ([]string, error) {
	tex := p.Textures()
	height, err := softTexture(p.Arena(), tex.Height)
	if err != nil {
		return nil, err
	}
	normal, err := softTexture(p.Arena(), tex.Normal)
	if err != nil {
		return nil, err
	}
	shadow, err := softTexture(p.Arena(), tex.Shadow)
	if err != nil {
		return nil, err
	}
	material, err := softTexture(p.Arena(), tex.Material)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	outputs := []struct {
		name  string
		image func() image.Image
	}{
		{HeightMap, func() image.Image { return HeightImage(height) }},
		{NormalMap, func() image.Image { return NormalImage(normal) }},
		{AOMap, func() image.Image { return AOImage(normal) }},
		{ShadowMap, func() image.Image { return ShadowImage(shadow) }},
		{MaterialMap, func() image.Image { return MaterialImage(material, mapgen.DefaultPalette) }},
	}

	paths := make([]string, len(outputs))
	var g errgroup.Group
	for i, o := range outputs {
		paths[i] = format.Path(dir, o.name)
		g.Go(func() error {
			return writeImage(paths[i], format, o.image())
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func softTexture(a *gpu.Arena, h gpu.Handle) (*soft.Texture, error) {
	s, err := a.Sampled(h)
	if err != nil {
		return nil, err
	}
	t, ok := s.(*soft.Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotSoft, s)
	}
	return t, nil
}

func writeImage(path string, format Format, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := format.encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// HeightImage encodes normalized heights as 16-bit gray.
func HeightImage(t *soft.Texture) *image.Gray16 {
	s := t.Size()
	img := image.NewGray16(image.Rect(0, 0, s, s))
	for i, v := range t.Texels(0) {
		img.SetGray16(i%s, i/s, color.Gray16{Y: unorm16(v[0])})
	}
	return img
}

// NormalImage maps unit normals from [-1, 1] into RGB.
func NormalImage(t *soft.Texture) *image.NRGBA {
	s := t.Size()
	img := image.NewNRGBA(image.Rect(0, 0, s, s))
	for i, v := range t.Texels(0) {
		img.SetNRGBA(i%s, i/s, color.NRGBA{
			R: unorm8(v[0]*0.5 + 0.5),
			G: unorm8(v[1]*0.5 + 0.5),
			B: unorm8(v[2]*0.5 + 0.5),
			A: 0xff,
		})
	}
	return img
}

// AOImage extracts the ambient occlusion packed in the normal map's alpha.
func AOImage(t *soft.Texture) *image.Gray {
	s := t.Size()
	img := image.NewGray(image.Rect(0, 0, s, s))
	for i, v := range t.Texels(0) {
		img.SetGray(i%s, i/s, color.Gray{Y: unorm8(v[3])})
	}
	return img
}

// ShadowImage encodes light visibility, 0 fully shadowed.
func ShadowImage(t *soft.Texture) *image.Gray {
	s := t.Size()
	img := image.NewGray(image.Rect(0, 0, s, s))
	for i, v := range t.Texels(0) {
		img.SetGray(i%s, i/s, color.Gray{Y: unorm8(v[0])})
	}
	return img
}

// MaterialImage colors material indices with palette.
func MaterialImage(t *soft.Texture, palette [mapgen.MaxMaterials]mgl32.Vec3) *image.NRGBA {
	s := t.Size()
	img := image.NewNRGBA(image.Rect(0, 0, s, s))
	for i, v := range t.Texels(0) {
		m := int(v[0] + 0.5)
		m = max(0, min(m, mapgen.MaxMaterials-1))
		c := palette[m]
		img.SetNRGBA(i%s, i/s, color.NRGBA{R: unorm8(c[0]), G: unorm8(c[1]), B: unorm8(c[2]), A: 0xff})
	}
	return img
}

func unorm8(v float32) uint8 {
	v = max(0, min(v, 1))
	return uint8(v*255 + 0.5)
}

func unorm16(v float32) uint16 {
	v = max(0, min(v, 1))
	return uint16(v*65535 + 0.5)
}
