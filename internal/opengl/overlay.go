package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

// Batch2DMode selects the fragment path for one overlay draw call.
type Batch2DMode int

const (
	Batch2DShape   Batch2DMode = iota // albedo texture * vertex color
	Batch2DText                       // R8 coverage atlas as alpha
	Batch2DTextSDF                    // signed distance field atlas
)

// Vertex2D is the overlay vertex layout: transformed virtual-pixel position,
// atlas UV and premultiplied tint.
type Vertex2D struct {
	Pos   math.Vec2
	UV    math.Vec2
	Color core.Color
}

// Batch2DCall is one range of the overlay index buffer sharing texture,
// mode, blend, scissor and shader state.
type Batch2DCall struct {
	IndexOffset int32
	IndexCount  int32

	Texture uint32 // 0 means the solid white texture
	Mode    Batch2DMode
	Blend   scene.BlendMode
	Scissor core.Scissor
	Shader  *scene.Shader2D // nil for the built-in pipeline
}

const overlayVertexShader = `#version 410 core
layout(location = 0) in vec2 aPosition;
layout(location = 1) in vec2 aTexCoord;
layout(location = 2) in vec4 aColor;

uniform vec2 uScreenSize;

out vec2 vUV;
out vec4 vColor;

void main() {
    vUV = aTexCoord;
    vColor = aColor;
    vec2 ndc = aPosition / uScreenSize * 2.0 - 1.0;
    gl_Position = vec4(ndc.x, -ndc.y, 0.0, 1.0);
}
` + "\x00"

const overlayFragmentShader = `#version 410 core
in vec2 vUV;
in vec4 vColor;
out vec4 FragColor;

uniform sampler2D uTexture;
uniform int uMode; // 0 shape, 1 text, 2 sdf

void main() {
    if (uMode == 1) {
        float coverage = texture(uTexture, vUV).r;
        FragColor = vec4(vColor.rgb, vColor.a * coverage);
    } else if (uMode == 2) {
        float dist = texture(uTexture, vUV).r;
        float w = fwidth(dist);
        float alpha = smoothstep(0.5 - w, 0.5 + w, dist);
        FragColor = vec4(vColor.rgb, vColor.a * alpha);
    } else {
        FragColor = texture(uTexture, vUV) * vColor;
    }
}
` + "\x00"

// Overlay is the GPU half of the 2D batcher: one growing vertex and index
// buffer re-uploaded per frame and replayed call by call.
type Overlay struct {
	vao uint32
	vbo uint32
	ebo uint32

	vboCap int
	eboCap int

	prog     *Program
	whiteTex uint32
}

// NewOverlay compiles the overlay pipeline and allocates the buffers.
func NewOverlay() (*Overlay, error) {
	o := &Overlay{}
	var err error
	if o.prog, err = NewProgram(overlayVertexShader, overlayFragmentShader); err != nil {
		return nil, fmt.Errorf("overlay program: %w", err)
	}

	gl.GenVertexArrays(1, &o.vao)
	gl.BindVertexArray(o.vao)

	gl.GenBuffers(1, &o.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)

	stride := int32(unsafe.Sizeof(Vertex2D{}))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride,
		unsafe.Offsetof(Vertex2D{}.Pos))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride,
		unsafe.Offsetof(Vertex2D{}.UV))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointerWithOffset(2, 4, gl.FLOAT, false, stride,
		unsafe.Offsetof(Vertex2D{}.Color))

	gl.GenBuffers(1, &o.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, o.ebo)

	gl.BindVertexArray(0)

	// 1x1 white fallback for untextured shapes.
	white := [4]uint8{255, 255, 255, 255}
	gl.GenTextures(1, &o.whiteTex)
	gl.BindTexture(gl.TEXTURE_2D, o.whiteTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE,
		unsafe.Pointer(&white[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return o, nil
}

// Draw uploads the batch data and replays the calls against the currently
// bound framebuffer. screenW/screenH are the virtual 2D resolution the
// vertex positions were built in.
func (o *Overlay) Draw(verts []Vertex2D, indices []uint32, calls []Batch2DCall,
	screenW, screenH float32, fbHeight int32) {

	if len(verts) == 0 || len(indices) == 0 || len(calls) == 0 {
		return
	}

	gl.BindVertexArray(o.vao)

	vertBytes := len(verts) * int(unsafe.Sizeof(Vertex2D{}))
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	if vertBytes > o.vboCap {
		o.vboCap = growCap(o.vboCap, vertBytes)
		gl.BufferData(gl.ARRAY_BUFFER, o.vboCap, nil, gl.STREAM_DRAW)
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, vertBytes, gl.Ptr(verts))

	idxBytes := len(indices) * 4
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, o.ebo)
	if idxBytes > o.eboCap {
		o.eboCap = growCap(o.eboCap, idxBytes)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, o.eboCap, nil, gl.STREAM_DRAW)
	}
	gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, idxBytes, gl.Ptr(indices))

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)

	scissorOn := false
	for _, call := range calls {
		if call.IndexCount == 0 {
			continue
		}

		switch call.Blend {
		case scene.BlendAdd:
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
		default:
			gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		}

		if call.Scissor.Enabled {
			if !scissorOn {
				gl.Enable(gl.SCISSOR_TEST)
				scissorOn = true
			}
			// Scissor rects are given top-left; GL counts from the bottom.
			gl.Scissor(call.Scissor.X, fbHeight-call.Scissor.Y-call.Scissor.Height,
				call.Scissor.Width, call.Scissor.Height)
		} else if scissorOn {
			gl.Disable(gl.SCISSOR_TEST)
			scissorOn = false
		}

		tex := call.Texture
		if tex == 0 {
			tex = o.whiteTex
		}

		if call.Shader != nil {
			us, err := EnsureShader2D(call.Shader)
			if err == nil {
				us.Bind(&call.Shader.StaticData,
					call.Shader.DynamicData[:call.Shader.DynamicUsed],
					call.Shader.Textures, 1)
				us.Prog.SetVec2("uScreenSize", screenW, screenH)
				gl.ActiveTexture(gl.TEXTURE0)
				gl.BindTexture(gl.TEXTURE_2D, tex)
				us.Prog.SetInt("uTexture", 0)
			} else {
				continue
			}
		} else {
			o.prog.Use()
			o.prog.SetVec2("uScreenSize", screenW, screenH)
			o.prog.SetInt("uMode", int32(call.Mode))
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, tex)
			o.prog.SetInt("uTexture", 0)
		}

		gl.DrawElementsWithOffset(gl.TRIANGLES, call.IndexCount, gl.UNSIGNED_INT,
			uintptr(call.IndexOffset)*4)
	}

	if scissorOn {
		gl.Disable(gl.SCISSOR_TEST)
	}
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func growCap(current, needed int) int {
	if current == 0 {
		current = 16 * 1024
	}
	for current < needed {
		current *= 2
	}
	return current
}

// Destroy frees GPU resources.
func (o *Overlay) Destroy() {
	if o.prog != nil {
		o.prog.Destroy()
	}
	if o.vao != 0 {
		gl.DeleteVertexArrays(1, &o.vao)
	}
	if o.vbo != 0 {
		gl.DeleteBuffers(1, &o.vbo)
	}
	if o.ebo != 0 {
		gl.DeleteBuffers(1, &o.ebo)
	}
	if o.whiteTex != 0 {
		gl.DeleteTextures(1, &o.whiteTex)
	}
}
