package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/scene"
)

// Uniform block binding points reserved for user shaders.
const (
	staticBlockBinding  = 0
	dynamicBlockBinding = 1
)

// UserShader is the compiled form of a MaterialShader or Shader2D: the
// linked program plus the two uniform buffer objects backing the static and
// dynamic blocks.
type UserShader struct {
	Prog       *Program
	StaticUBO  uint32
	DynamicUBO uint32
}

// NewUserShader compiles user GLSL and allocates the uniform buffers. The
// source may declare `uniform StaticBlock {...}` and `uniform DynamicBlock
// {...}`; absent blocks are simply not bound.
func NewUserShader(vertexSrc, fragmentSrc string) (*UserShader, error) {
	prog, err := NewProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("user shader: %w", err)
	}
	us := &UserShader{Prog: prog}

	bindBlock := func(name string, binding uint32) {
		idx := gl.GetUniformBlockIndex(prog.ID, gl.Str(name+"\x00"))
		if idx != gl.INVALID_INDEX {
			gl.UniformBlockBinding(prog.ID, idx, binding)
		}
	}
	bindBlock("StaticBlock", staticBlockBinding)
	bindBlock("DynamicBlock", dynamicBlockBinding)

	gl.GenBuffers(1, &us.StaticUBO)
	gl.BindBuffer(gl.UNIFORM_BUFFER, us.StaticUBO)
	gl.BufferData(gl.UNIFORM_BUFFER, scene.StaticUniformSize, nil, gl.DYNAMIC_DRAW)

	gl.GenBuffers(1, &us.DynamicUBO)
	gl.BindBuffer(gl.UNIFORM_BUFFER, us.DynamicUBO)
	gl.BufferData(gl.UNIFORM_BUFFER, scene.DynamicUniformSize, nil, gl.STREAM_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	return us, nil
}

// Bind activates the program, uploads both uniform blocks and binds the
// shader's texture table starting at the given unit.
func (us *UserShader) Bind(static *[scene.StaticUniformSize]byte,
	dynamic []byte, textures [scene.MaxShaderTextures]*scene.Texture, firstUnit int32) {

	us.Prog.Use()

	gl.BindBuffer(gl.UNIFORM_BUFFER, us.StaticUBO)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, scene.StaticUniformSize, unsafe.Pointer(&static[0]))
	gl.BindBufferBase(gl.UNIFORM_BUFFER, staticBlockBinding, us.StaticUBO)

	if len(dynamic) > 0 {
		gl.BindBuffer(gl.UNIFORM_BUFFER, us.DynamicUBO)
		gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(dynamic), unsafe.Pointer(&dynamic[0]))
	}
	gl.BindBufferBase(gl.UNIFORM_BUFFER, dynamicBlockBinding, us.DynamicUBO)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	for slot := 0; slot < scene.MaxShaderTextures; slot++ {
		tex := textures[slot]
		if tex == nil {
			continue
		}
		gpu, ok := tex.GPUData.(*GPUTexture)
		if !ok {
			continue
		}
		unit := firstUnit + int32(slot)
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, gpu.ID)
		us.Prog.SetInt(fmt.Sprintf("uTexture%d", slot), unit)
	}
}

// Destroy frees the program and uniform buffers.
func (us *UserShader) Destroy() {
	if us.Prog != nil {
		us.Prog.Destroy()
	}
	if us.StaticUBO != 0 {
		gl.DeleteBuffers(1, &us.StaticUBO)
		us.StaticUBO = 0
	}
	if us.DynamicUBO != 0 {
		gl.DeleteBuffers(1, &us.DynamicUBO)
		us.DynamicUBO = 0
	}
}

// EnsureMaterialShader compiles s on first use and caches the result in
// GPUData. A compile failure is cached as an error string so it is reported
// once, not every frame.
func EnsureMaterialShader(s *scene.MaterialShader) (*UserShader, error) {
	switch v := s.GPUData.(type) {
	case *UserShader:
		return v, nil
	case error:
		return nil, v
	}
	us, err := NewUserShader(s.VertexCode, s.FragmentCode)
	if err != nil {
		s.GPUData = err
		return nil, err
	}
	s.GPUData = us
	return us, nil
}

// EnsureShader2D is EnsureMaterialShader for overlay shaders.
func EnsureShader2D(s *scene.Shader2D) (*UserShader, error) {
	switch v := s.GPUData.(type) {
	case *UserShader:
		return v, nil
	case error:
		return nil, v
	}
	us, err := NewUserShader(s.VertexCode, s.FragmentCode)
	if err != nil {
		s.GPUData = err
		return nil, err
	}
	s.GPUData = us
	return us, nil
}
