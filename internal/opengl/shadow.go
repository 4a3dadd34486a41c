package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// ShadowMap wraps a depth-only framebuffer rendered from a light's
// viewpoint. Directional and spot lights use a single 2D face; omni lights
// use a depth cubemap with six faces.
type ShadowMap struct {
	FBO      uint32
	DepthTex uint32
	Size     int32
	Cube     bool
}

// NewShadowMap creates a 2D depth-only FBO of size×size with hardware PCF
// (COMPARE_REF_TO_TEXTURE).
func NewShadowMap(size int) (*ShadowMap, error) {
	sm := &ShadowMap{Size: int32(size)}

	gl.GenTextures(1, &sm.DepthTex)
	gl.BindTexture(gl.TEXTURE_2D, sm.DepthTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT32F,
		int32(size), int32(size), 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	// Fragments outside the shadow map are lit (border depth = 1.0).
	border := [4]float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.GenFramebuffers(1, &sm.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, sm.DepthTex, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteTextures(1, &sm.DepthTex)
		gl.DeleteFramebuffers(1, &sm.FBO)
		return nil, fmt.Errorf("shadow FBO incomplete: status=0x%X", status)
	}
	return sm, nil
}

// NewShadowCube creates a depth cubemap FBO for omni lights. The cube
// stores linear light-to-fragment distance normalized by the light range,
// so sampling does not use hardware comparison.
func NewShadowCube(size int) (*ShadowMap, error) {
	sm := &ShadowMap{Size: int32(size), Cube: true}

	gl.GenTextures(1, &sm.DepthTex)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, sm.DepthTex)
	for face := 0; face < 6; face++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, gl.DEPTH_COMPONENT32F,
			int32(size), int32(size), 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	// Sampled as plain depth, the lit pass compares linear distance itself.
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_COMPARE_MODE, gl.NONE)

	gl.GenFramebuffers(1, &sm.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT,
		gl.TEXTURE_CUBE_MAP_POSITIVE_X, sm.DepthTex, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteTextures(1, &sm.DepthTex)
		gl.DeleteFramebuffers(1, &sm.FBO)
		return nil, fmt.Errorf("shadow cube FBO incomplete: status=0x%X", status)
	}
	return sm, nil
}

// BindFace targets one face for rendering: face is ignored for 2D maps.
func (sm *ShadowMap) BindFace(face int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, sm.FBO)
	if sm.Cube {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT,
			gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), sm.DepthTex, 0)
	}
	gl.Viewport(0, 0, sm.Size, sm.Size)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
}

// Destroy frees GPU resources.
func (sm *ShadowMap) Destroy() {
	if sm.FBO != 0 {
		gl.DeleteFramebuffers(1, &sm.FBO)
		sm.FBO = 0
	}
	if sm.DepthTex != 0 {
		gl.DeleteTextures(1, &sm.DepthTex)
		sm.DepthTex = 0
	}
}

// Depth-only pipeline. The vertex stage shares the full transform logic
// (skinning, instancing, billboard) with the main pass; the fragment stage
// adds the linear and slope-scaled biases and writes only depth.
const depthVertexShader = `#version 410 core
` + vertexTransformGLSL + `
uniform mat4 uLightVP;

out vec3 vWorldPos;

void main() {
    vec3 worldPos = transformPosition();
    vWorldPos = worldPos;
    gl_Position = uLightVP * vec4(worldPos, 1.0);
}
` + "\x00"

const depthFragmentShader = `#version 410 core
in vec3 vWorldPos;

uniform float uShadowBias;
uniform float uSlopeBias;

// Omni faces store light-to-fragment distance over range instead of
// projected depth; the lit pass compares against the same quantity.
uniform bool  uDistanceMode;
uniform vec3  uLightPos;
uniform float uLightFar;

void main() {
    if (uDistanceMode) {
        gl_FragDepth = clamp(length(vWorldPos - uLightPos) / uLightFar + uShadowBias, 0.0, 1.0);
    } else {
        float slope = fwidth(gl_FragCoord.z);
        gl_FragDepth = gl_FragCoord.z + uShadowBias + slope * uSlopeBias;
    }
}
` + "\x00"

// NewDepthProgram compiles the shadow pass program.
func NewDepthProgram() (*Program, error) {
	return NewProgram(depthVertexShader, depthFragmentShader)
}
