// Package importer turns asset bytes into the engine's CPU-side scene
// structures: images, fonts, and models with skeletons and animations.
// Nothing here touches the GPU; upload happens in the render layer.
package importer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"nexium/core"
	"nexium/scene"
)

// LoadImageFromMemory decodes an image byte blob into a CPU image.
// PNG, JPEG, BMP and TIFF are supported. Grayscale sources stay single
// channel; everything else becomes RGBA8.
func LoadImageFromMemory(name string, data []byte) (*scene.Image, error) {
	if len(data) == 0 {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("empty image data")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Name the actual container in the error when the sniffer knows it.
		if t, merr := filetype.Match(data); merr == nil && t != filetype.Unknown {
			return nil, &core.ResourceError{
				Path: name,
				Err:  fmt.Errorf("unsupported %s image: %w", t.Extension, err),
			}
		}
		return nil, &core.ResourceError{Path: name, Err: err}
	}
	out := convertImage(img)
	core.Logger().Debug("image decoded",
		"name", name, "format", format, "size", fmt.Sprintf("%dx%d", out.Width, out.Height))
	return out, nil
}

// convertImage flattens any decoded image into the engine's pixel layout.
func convertImage(img image.Image) *scene.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if gray, ok := img.(*image.Gray); ok {
		out := &scene.Image{
			Pixels: make([]byte, w*h),
			Width:  w,
			Height: h,
			Format: scene.FormatR8,
		}
		for y := 0; y < h; y++ {
			copy(out.Pixels[y*w:(y+1)*w], gray.Pix[y*gray.Stride:y*gray.Stride+w])
		}
		return out
	}

	out := &scene.Image{
		Pixels: make([]byte, w*h*4),
		Width:  w,
		Height: h,
		Format: scene.FormatRGBA8,
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < h; y++ {
			copy(out.Pixels[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
		}
		return out
	}
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			out.Pixels[i+0] = byte(r >> 8)
			out.Pixels[i+1] = byte(g >> 8)
			out.Pixels[i+2] = byte(b >> 8)
			out.Pixels[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return out
}
