package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/scene"
)

// GPUTexture is the backend handle stored in scene.Texture.GPUData.
type GPUTexture struct {
	ID     uint32
	Target uint32
	Width  int32
	Height int32
}

func glFormat(f scene.ImageFormat) (internal int32, format, typ uint32, err error) {
	switch f {
	case scene.FormatR8:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE, nil
	case scene.FormatRGB8:
		return gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE, nil
	case scene.FormatRGBA8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, nil
	case scene.FormatRGB16F:
		return gl.RGB16F, gl.RGB, gl.HALF_FLOAT, nil
	case scene.FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, nil
	case scene.FormatRGB32F:
		return gl.RGB32F, gl.RGB, gl.FLOAT, nil
	case scene.FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT, nil
	}
	return 0, 0, 0, fmt.Errorf("unsupported image format %d", f)
}

func glWrap(w scene.TextureWrap) int32 {
	switch w {
	case scene.WrapClamp:
		return gl.CLAMP_TO_EDGE
	case scene.WrapMirror:
		return gl.MIRRORED_REPEAT
	default:
		return gl.REPEAT
	}
}

func glFilters(f scene.TextureFilter, mipmap bool) (min, mag int32) {
	switch f {
	case scene.FilterNearest:
		if mipmap {
			return gl.NEAREST_MIPMAP_NEAREST, gl.NEAREST
		}
		return gl.NEAREST, gl.NEAREST
	case scene.FilterBilinear:
		if mipmap {
			return gl.LINEAR_MIPMAP_NEAREST, gl.LINEAR
		}
		return gl.LINEAR, gl.LINEAR
	default:
		if mipmap {
			return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
		}
		return gl.LINEAR, gl.LINEAR
	}
}

// UploadTexture creates the GL texture for tex and records the handle in
// tex.GPUData. Must run on the render thread.
func UploadTexture(tex *scene.Texture) error {
	if tex == nil || tex.Image == nil {
		return fmt.Errorf("nil texture")
	}
	img := tex.Image
	if len(img.Pixels) == 0 {
		return fmt.Errorf("texture %q has no pixel data", tex.Name)
	}
	internal, format, typ, err := glFormat(img.Format)
	if err != nil {
		return fmt.Errorf("texture %q: %w", tex.Name, err)
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	wrap := glWrap(tex.Wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	minF, magF := glFilters(tex.Filter, tex.Mipmap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minF)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magF)
	if tex.Anisotropy > 1 {
		// GL_EXT_texture_filter_anisotropic; ubiquitous but not in 4.1 core.
		const textureMaxAnisotropyExt = 0x84FE
		gl.TexParameterf(gl.TEXTURE_2D, textureMaxAnisotropyExt, tex.Anisotropy)
	}

	// Tightly packed rows for non-4-aligned formats (R8, RGB8).
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal,
		int32(img.Width), int32(img.Height), 0, format, typ,
		unsafe.Pointer(&img.Pixels[0]))
	if tex.Mipmap {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	tex.GPUData = &GPUTexture{ID: id, Target: gl.TEXTURE_2D, Width: int32(img.Width), Height: int32(img.Height)}
	return nil
}

// DeleteTexture frees the GPU copy of tex, keeping CPU pixels intact.
func DeleteTexture(tex *scene.Texture) {
	if tex == nil {
		return
	}
	if g, ok := tex.GPUData.(*GPUTexture); ok && g.ID != 0 {
		gl.DeleteTextures(1, &g.ID)
		g.ID = 0
	}
	tex.GPUData = nil
}

// TextureID returns the GL name behind tex, or 0 when not uploaded.
func TextureID(tex *scene.Texture) uint32 {
	if tex == nil {
		return 0
	}
	if g, ok := tex.GPUData.(*GPUTexture); ok {
		return g.ID
	}
	return 0
}

// GPUCubemap is the backend handle stored in scene.Cubemap.GPUData.
type GPUCubemap struct {
	ID   uint32
	Size int32
	Mips int32
}

// UploadCubemap creates a cubemap texture from six decoded face images in
// +X,-X,+Y,-Y,+Z,-Z order. All faces must share size and format.
func UploadCubemap(cm *scene.Cubemap) error {
	if cm == nil {
		return fmt.Errorf("nil cubemap")
	}
	first := cm.Faces[0]
	if first == nil {
		return fmt.Errorf("cubemap has no face images")
	}
	internal, format, typ, err := glFormat(first.Format)
	if err != nil {
		return err
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	for i, face := range cm.Faces {
		if face == nil || face.Width != first.Width || face.Height != first.Height || face.Format != first.Format {
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
			gl.DeleteTextures(1, &id)
			return fmt.Errorf("cubemap face %d missing or mismatched", i)
		}
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, internal,
			int32(face.Width), int32(face.Height), 0, format, typ,
			unsafe.Pointer(&face.Pixels[0]))
	}

	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	cm.Size = first.Width
	cm.Format = first.Format
	cm.GPUData = &GPUCubemap{ID: id, Size: int32(first.Width), Mips: mipCount(int32(first.Width))}
	return nil
}

// DeleteCubemap frees the GPU cubemap.
func DeleteCubemap(cm *scene.Cubemap) {
	if cm == nil {
		return
	}
	if g, ok := cm.GPUData.(*GPUCubemap); ok && g.ID != 0 {
		gl.DeleteTextures(1, &g.ID)
		g.ID = 0
	}
	cm.GPUData = nil
}

// CubemapID returns the GL name behind cm, or 0 when not uploaded.
func CubemapID(cm *scene.Cubemap) uint32 {
	if cm == nil {
		return 0
	}
	if g, ok := cm.GPUData.(*GPUCubemap); ok {
		return g.ID
	}
	return 0
}

func mipCount(size int32) int32 {
	var n int32 = 1
	for size > 1 {
		size /= 2
		n++
	}
	return n
}
