package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Attachment formats exposed to the façade so it does not import GL.
const (
	FormatRGBA8   = int32(gl.RGBA8)
	FormatRGBA16F = int32(gl.RGBA16F)
)

// Framebuffer owns an FBO with up to four color attachments and an optional
// depth attachment. Attachments are textures so later passes can sample them.
type Framebuffer struct {
	ID     uint32
	Width  int32
	Height int32

	Color [4]uint32
	Depth uint32

	colorCount int32
	samples    int32
}

// NewFramebuffer creates an FBO with the given color attachment formats and
// an optional depth attachment. samples > 1 creates multisampled storage.
func NewFramebuffer(width, height int32, colorFormats []int32, withDepth bool, samples int32) (*Framebuffer, error) {
	if len(colorFormats) > 4 {
		return nil, fmt.Errorf("too many color attachments: %d", len(colorFormats))
	}
	f := &Framebuffer{Width: width, Height: height, samples: samples}
	gl.GenFramebuffers(1, &f.ID)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.ID)

	target := uint32(gl.TEXTURE_2D)
	if samples > 1 {
		target = gl.TEXTURE_2D_MULTISAMPLE
	}

	drawBuffers := make([]uint32, 0, len(colorFormats))
	for i, format := range colorFormats {
		var tex uint32
		gl.GenTextures(1, &tex)
		gl.BindTexture(target, tex)
		if samples > 1 {
			gl.TexImage2DMultisample(target, samples, uint32(format), width, height, true)
		} else {
			gl.TexImage2D(target, 0, format, width, height, 0, baseFormatFor(format), gl.UNSIGNED_BYTE, nil)
			gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
			gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
			gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
			gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		}
		attachment := uint32(gl.COLOR_ATTACHMENT0 + i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, target, tex, 0)
		f.Color[i] = tex
		drawBuffers = append(drawBuffers, attachment)
		f.colorCount++
	}

	if withDepth {
		gl.GenTextures(1, &f.Depth)
		gl.BindTexture(target, f.Depth)
		if samples > 1 {
			gl.TexImage2DMultisample(target, samples, gl.DEPTH_COMPONENT24, width, height, true)
		} else {
			gl.TexImage2D(target, 0, gl.DEPTH_COMPONENT24, width, height, 0, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT, nil)
			gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
			gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
			gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
			gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, target, f.Depth, 0)
	}

	if len(drawBuffers) > 0 {
		gl.DrawBuffers(int32(len(drawBuffers)), &drawBuffers[0])
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(target, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		f.Destroy()
		return nil, fmt.Errorf("framebuffer incomplete: status=0x%X", status)
	}
	return f, nil
}

func baseFormatFor(internal int32) uint32 {
	switch internal {
	case gl.R8, gl.R16F, gl.R32F:
		return gl.RED
	case gl.RG8, gl.RG16F:
		return gl.RG
	case gl.RGB8, gl.RGB16F, gl.RGB32F:
		return gl.RGB
	default:
		return gl.RGBA
	}
}

// Bind targets the FBO and sets the viewport to its size.
func (f *Framebuffer) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.ID)
	gl.Viewport(0, 0, f.Width, f.Height)
}

// Unbind restores the default framebuffer.
func (f *Framebuffer) Unbind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Multisampled reports whether the attachments are MSAA storage.
func (f *Framebuffer) Multisampled() bool { return f.samples > 1 }

// ResolveTo blits this framebuffer's first color attachment into dst,
// resolving MSAA when present.
func (f *Framebuffer) ResolveTo(dst *Framebuffer) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, f.ID)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dst.ID)
	gl.BlitFramebuffer(0, 0, f.Width, f.Height, 0, 0, dst.Width, dst.Height,
		gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Destroy deletes the FBO and its attachments.
func (f *Framebuffer) Destroy() {
	for i := int32(0); i < f.colorCount; i++ {
		if f.Color[i] != 0 {
			gl.DeleteTextures(1, &f.Color[i])
			f.Color[i] = 0
		}
	}
	if f.Depth != 0 {
		gl.DeleteTextures(1, &f.Depth)
		f.Depth = 0
	}
	if f.ID != 0 {
		gl.DeleteFramebuffers(1, &f.ID)
		f.ID = 0
	}
}
