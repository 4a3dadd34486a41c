package importer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/scene"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadImageRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 10, B: 20, A: 255})
	src.SetNRGBA(3, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 128})

	img, err := LoadImageFromMemory("t.png", encodePNG(t, src))
	require.NoError(t, err)

	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, scene.FormatRGBA8, img.Format)
	assert.Equal(t, byte(255), img.Pixels[0])
	assert.Equal(t, byte(10), img.Pixels[1])
	// Last pixel, alpha channel.
	assert.Equal(t, byte(128), img.Pixels[len(img.Pixels)-1])
}

func TestLoadImageGrayStaysSingleChannel(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	src.SetGray(1, 1, color.Gray{Y: 200})

	img, err := LoadImageFromMemory("g.png", encodePNG(t, src))
	require.NoError(t, err)

	assert.Equal(t, scene.FormatR8, img.Format)
	assert.Len(t, img.Pixels, 9)
	assert.Equal(t, byte(200), img.Pixels[4])
}

func TestLoadImageGarbage(t *testing.T) {
	_, err := LoadImageFromMemory("x.bin", []byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}

func TestLoadImageEmpty(t *testing.T) {
	_, err := LoadImageFromMemory("empty", nil)
	assert.Error(t, err)
}
