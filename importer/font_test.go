package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"nexium/scene"
)

func TestLoadFontBasics(t *testing.T) {
	f, err := LoadFontFromMemory("go-regular", goregular.TTF, scene.FontNormal, 24, nil)
	require.NoError(t, err)

	assert.Equal(t, float32(24), f.BaseSize)
	assert.True(t, f.Has('A'))
	assert.True(t, f.Has('?'))
	assert.True(t, f.Has(' '))

	g := f.Glyph('A')
	assert.Greater(t, g.Advance, float32(0))
	assert.Greater(t, g.Atlas.Width, float32(0))
	assert.Greater(t, g.Atlas.Height, float32(0))

	require.NotNil(t, f.Atlas)
	require.NotNil(t, f.Atlas.Image)
	assert.Equal(t, scene.FormatR8, f.Atlas.Image.Format)
	assert.False(t, f.Atlas.Mipmap)
}

func TestLoadFontGlyphsInsideAtlas(t *testing.T) {
	f, err := LoadFontFromMemory("go-regular", goregular.TTF, scene.FontNormal, 16, nil)
	require.NoError(t, err)

	w := float32(f.Atlas.Image.Width)
	h := float32(f.Atlas.Image.Height)
	for r := rune(32); r <= 126; r++ {
		if !f.Has(r) {
			continue
		}
		g := f.Glyph(r)
		assert.GreaterOrEqual(t, g.Atlas.X, float32(0), "rune %q", r)
		assert.GreaterOrEqual(t, g.Atlas.Y, float32(0), "rune %q", r)
		assert.LessOrEqual(t, g.Atlas.X+g.Atlas.Width, w, "rune %q", r)
		assert.LessOrEqual(t, g.Atlas.Y+g.Atlas.Height, h, "rune %q", r)
	}
}

func TestLoadFontCustomCharset(t *testing.T) {
	f, err := LoadFontFromMemory("digits", goregular.TTF, scene.FontNormal, 16, []rune("0123456789"))
	require.NoError(t, err)

	assert.True(t, f.Has('7'))
	assert.False(t, f.Has('A'))
}

func TestLoadFontSDF(t *testing.T) {
	f, err := LoadFontFromMemory("sdf", goregular.TTF, scene.FontSDF, 32, []rune("AB"))
	require.NoError(t, err)

	assert.Equal(t, scene.FontSDF, f.Type)
	assert.Equal(t, sdfSpread, f.Padding)

	// A distance field has values on both sides of the 0.5 edge.
	var above, below bool
	for _, p := range f.Atlas.Image.Pixels {
		if p > 140 {
			above = true
		}
		if p > 0 && p < 116 {
			below = true
		}
	}
	assert.True(t, above)
	assert.True(t, below)
}

func TestLoadFontMeasure(t *testing.T) {
	f, err := LoadFontFromMemory("m", goregular.TTF, scene.FontNormal, 20, nil)
	require.NoError(t, err)

	w1, h := f.MeasureText("hi", 20)
	w2, _ := f.MeasureText("hi there", 20)
	assert.Greater(t, w1, float32(0))
	assert.Greater(t, w2, w1)
	assert.GreaterOrEqual(t, h, float32(20))
}

func TestLoadFontBadData(t *testing.T) {
	_, err := LoadFontFromMemory("bad", []byte("not a font"), scene.FontNormal, 16, nil)
	assert.Error(t, err)
}

func TestLoadFontBadSize(t *testing.T) {
	_, err := LoadFontFromMemory("bad", goregular.TTF, scene.FontNormal, 0, nil)
	assert.Error(t, err)
}
