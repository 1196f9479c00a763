package scenefile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fogSettings struct {
	Density float32 `yaml:"density"`
	Color   string  `yaml:"color"`
}

// fogSerializer is a minimal sub-system with defaults.
type fogSerializer struct {
	token    string
	settings fogSettings
	sawNil   bool
}

func newFog(token string) *fogSerializer {
	return &fogSerializer{token: token, settings: fogSettings{Density: 0.5, Color: "grey"}}
}

func (f *fogSerializer) Token() string { return f.token }

func (f *fogSerializer) Serialize(n *yaml.Node) error { return n.Encode(f.settings) }

func (f *fogSerializer) Deserialize(n *yaml.Node) error {
	f.settings = fogSettings{Density: 0.5, Color: "grey"}
	if n == nil {
		f.sawNil = true
		return nil
	}
	return n.Decode(&f.settings)
}

func TestParseEmpty(t *testing.T) {
	d, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, d.Tokens())
}

func TestParseRejectsNonMapping(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("fog: [unclosed"))
	assert.Error(t, err)
}

func TestParseKeepsOrder(t *testing.T) {
	d, err := Parse([]byte("zeta: 1\nalpha: 2\nmid: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, d.Tokens())
	assert.Equal(t, "2", d.Node("alpha").Value)
	assert.Nil(t, d.Node("missing"))
}

func TestCaptureApplyRoundTrip(t *testing.T) {
	src := newFog("fog")
	src.settings = fogSettings{Density: 0.125, Color: "blue"}

	d, err := Capture(src)
	require.NoError(t, err)
	data, err := d.Marshal()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	dst := newFog("fog")
	require.NoError(t, parsed.Apply(dst))
	assert.Equal(t, src.settings, dst.settings)
	assert.False(t, dst.sawNil)
}

func TestApplyMissingTokenRestoresDefaults(t *testing.T) {
	d, err := Parse([]byte("other: {}\n"))
	require.NoError(t, err)

	f := newFog("fog")
	f.settings.Density = 9
	require.NoError(t, d.Apply(f))
	assert.True(t, f.sawNil)
	assert.Equal(t, float32(0.5), f.settings.Density)
	// unclaimed entries stay in the document
	assert.Equal(t, []string{"other"}, d.Tokens())
}

func TestDuplicateTokens(t *testing.T) {
	_, err := Capture(newFog("fog"), newFog("fog"))
	assert.ErrorIs(t, err, ErrDuplicateToken)

	err = New().Apply(newFog("fog"), newFog("fog"))
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

func TestApplyReportsDecodeErrors(t *testing.T) {
	d, err := Parse([]byte("fog:\n  density: thick\n"))
	require.NoError(t, err)
	err = d.Apply(newFog("fog"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fog")
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scene.yaml")
	src := newFog("fog")
	src.settings.Color = "red"

	d, err := Capture(src, newFog("haze"))
	require.NoError(t, err)
	require.NoError(t, d.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fog", "haze"}, loaded.Tokens())

	dst := newFog("fog")
	require.NoError(t, loaded.Apply(dst))
	assert.Equal(t, "red", dst.settings.Color)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
