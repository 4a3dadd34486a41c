package scene

import (
	"fmt"

	"nexium/core"
	"nexium/math"
)

// ImageFormat enumerates supported in-memory pixel layouts.
type ImageFormat int

const (
	FormatR8 ImageFormat = iota
	FormatRGB8
	FormatRGBA8
	FormatRGB16F
	FormatRGBA16F
	FormatRGB32F
	FormatRGBA32F
)

// Channels returns the component count of the format.
func (f ImageFormat) Channels() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRGB8, FormatRGB16F, FormatRGB32F:
		return 3
	default:
		return 4
	}
}

// BytesPerPixel returns the pixel stride in bytes.
func (f ImageFormat) BytesPerPixel() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRGB8:
		return 3
	case FormatRGBA8:
		return 4
	case FormatRGB16F:
		return 6
	case FormatRGBA16F:
		return 8
	case FormatRGB32F:
		return 12
	default:
		return 16
	}
}

// Image is a decoded CPU-side pixel buffer.
type Image struct {
	Pixels []byte
	Width  int
	Height int
	Format ImageFormat
}

// NewImage allocates a zeroed image.
func NewImage(width, height int, format ImageFormat) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	return &Image{
		Pixels: make([]byte, width*height*format.BytesPerPixel()),
		Width:  width,
		Height: height,
		Format: format,
	}, nil
}

// The generators below operate on the 8-bit formats only; float formats
// come from decoders, not from procedural fills.

func colorToBytes(c core.Color) [4]byte {
	to8 := func(v float32) byte {
		return byte(math.Clamp(v, 0, 1)*255 + 0.5)
	}
	return [4]byte{to8(c.R), to8(c.G), to8(c.B), to8(c.A)}
}

func (img *Image) setPixel8(x, y int, c [4]byte) {
	bpp := img.Format.BytesPerPixel()
	off := (y*img.Width + x) * bpp
	switch img.Format {
	case FormatR8:
		img.Pixels[off] = c[0]
	case FormatRGB8:
		copy(img.Pixels[off:off+3], c[:3])
	case FormatRGBA8:
		copy(img.Pixels[off:off+4], c[:4])
	}
}

// Fill sets every pixel to the given color.
func (img *Image) Fill(c core.Color) {
	b := colorToBytes(c)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.setPixel8(x, y, b)
		}
	}
}

// Invert flips every channel of an 8-bit image in place. Alpha is preserved
// for RGBA.
func (img *Image) Invert() {
	switch img.Format {
	case FormatR8, FormatRGB8:
		for i := range img.Pixels {
			img.Pixels[i] = 255 - img.Pixels[i]
		}
	case FormatRGBA8:
		for i := 0; i < len(img.Pixels); i += 4 {
			img.Pixels[i] = 255 - img.Pixels[i]
			img.Pixels[i+1] = 255 - img.Pixels[i+1]
			img.Pixels[i+2] = 255 - img.Pixels[i+2]
		}
	}
}

// GenGradientImage produces a vertical gradient from top to bottom.
func GenGradientImage(width, height int, top, bottom core.Color) (*Image, error) {
	img, err := NewImage(width, height, FormatRGBA8)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		var t float32
		if height > 1 {
			t = float32(y) / float32(height-1)
		}
		c := core.Color{
			R: math.Lerp(top.R, bottom.R, t),
			G: math.Lerp(top.G, bottom.G, t),
			B: math.Lerp(top.B, bottom.B, t),
			A: math.Lerp(top.A, bottom.A, t),
		}
		b := colorToBytes(c)
		for x := 0; x < width; x++ {
			img.setPixel8(x, y, b)
		}
	}
	return img, nil
}

// GenCheckerImage produces a two-color checkerboard with square cells of
// cellSize pixels.
func GenCheckerImage(width, height, cellSize int, a, b core.Color) (*Image, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("invalid checker cell size %d", cellSize)
	}
	img, err := NewImage(width, height, FormatRGBA8)
	if err != nil {
		return nil, err
	}
	ba, bb := colorToBytes(a), colorToBytes(b)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if ((x/cellSize)+(y/cellSize))%2 == 0 {
				img.setPixel8(x, y, ba)
			} else {
				img.setPixel8(x, y, bb)
			}
		}
	}
	return img, nil
}

// ComposeImagesRGB packs the red channels of three same-size 8-bit sources
// into the R, G and B channels of a new RGB8 image.
func ComposeImagesRGB(r, g, b *Image) (*Image, error) {
	if r == nil || g == nil || b == nil {
		return nil, fmt.Errorf("compose: nil source image")
	}
	if r.Width != g.Width || r.Width != b.Width || r.Height != g.Height || r.Height != b.Height {
		return nil, fmt.Errorf("compose: source dimensions differ")
	}
	out, err := NewImage(r.Width, r.Height, FormatRGB8)
	if err != nil {
		return nil, err
	}
	n := r.Width * r.Height
	for i := 0; i < n; i++ {
		out.Pixels[i*3+0] = redAt(r, i)
		out.Pixels[i*3+1] = redAt(g, i)
		out.Pixels[i*3+2] = redAt(b, i)
	}
	return out, nil
}

func redAt(img *Image, i int) byte {
	return img.Pixels[i*img.Format.BytesPerPixel()]
}
