package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/core"
)

func TestComposeImagesRGB(t *testing.T) {
	mk := func(red byte) *Image {
		img, err := NewImage(2, 2, FormatR8)
		require.NoError(t, err)
		for i := range img.Pixels {
			img.Pixels[i] = red
		}
		return img
	}
	out, err := ComposeImagesRGB(mk(10), mk(20), mk(30))
	require.NoError(t, err)
	assert.Equal(t, FormatRGB8, out.Format)
	for i := 0; i < 4; i++ {
		assert.Equal(t, byte(10), out.Pixels[i*3+0])
		assert.Equal(t, byte(20), out.Pixels[i*3+1])
		assert.Equal(t, byte(30), out.Pixels[i*3+2])
	}
}

func TestComposeImagesRGBFromRGBA(t *testing.T) {
	// Red channels are taken regardless of source layout.
	r, err := NewImage(1, 1, FormatRGBA8)
	require.NoError(t, err)
	r.Fill(core.Color{R: 1, G: 0.5, B: 0.25, A: 1})
	g, _ := NewImage(1, 1, FormatR8)
	b, _ := NewImage(1, 1, FormatR8)

	out, err := ComposeImagesRGB(r, g, b)
	require.NoError(t, err)
	assert.Equal(t, byte(255), out.Pixels[0])
}

func TestComposeImagesRGBSizeMismatch(t *testing.T) {
	a, _ := NewImage(2, 2, FormatR8)
	b, _ := NewImage(3, 2, FormatR8)
	_, err := ComposeImagesRGB(a, a, b)
	assert.Error(t, err)
	_, err = ComposeImagesRGB(a, nil, a)
	assert.Error(t, err)
}

func TestInvert(t *testing.T) {
	img, _ := NewImage(1, 1, FormatRGBA8)
	img.Fill(core.Color{R: 1, G: 0, B: 1, A: 0.5})
	alpha := img.Pixels[3]
	img.Invert()
	assert.Equal(t, byte(0), img.Pixels[0])
	assert.Equal(t, byte(255), img.Pixels[1])
	assert.Equal(t, alpha, img.Pixels[3], "alpha is preserved")
}

func TestGenGradientImage(t *testing.T) {
	img, err := GenGradientImage(1, 3, core.ColorBlack, core.ColorWhite)
	require.NoError(t, err)
	assert.Equal(t, byte(0), img.Pixels[0])
	assert.Equal(t, byte(255), img.Pixels[2*4])
	mid := img.Pixels[1*4]
	assert.InDelta(t, 128, int(mid), 2)
}

func TestGenCheckerImage(t *testing.T) {
	img, err := GenCheckerImage(4, 4, 2, core.ColorBlack, core.ColorWhite)
	require.NoError(t, err)
	at := func(x, y int) byte { return img.Pixels[(y*4+x)*4] }
	assert.Equal(t, byte(0), at(0, 0))
	assert.Equal(t, byte(255), at(2, 0))
	assert.Equal(t, byte(255), at(0, 2))
	assert.Equal(t, byte(0), at(2, 2))

	_, err = GenCheckerImage(4, 4, 0, core.ColorBlack, core.ColorWhite)
	assert.Error(t, err)
}

func TestNewImageInvalidDimensions(t *testing.T) {
	_, err := NewImage(0, 4, FormatR8)
	assert.Error(t, err)
}

func TestFormatMetrics(t *testing.T) {
	assert.Equal(t, 1, FormatR8.BytesPerPixel())
	assert.Equal(t, 3, FormatRGB8.BytesPerPixel())
	assert.Equal(t, 8, FormatRGBA16F.BytesPerPixel())
	assert.Equal(t, 16, FormatRGBA32F.BytesPerPixel())
	assert.Equal(t, 3, FormatRGB32F.Channels())
	assert.Equal(t, 4, FormatRGBA8.Channels())
}
