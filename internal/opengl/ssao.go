package opengl

import (
	"fmt"
	"math/rand"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/math"
	"nexium/scene"
)

const ssaoKernelSize = 32

// Depth pre-pass: writes view-space normal to a color target alongside
// depth. Shares the vertex transform prelude with the main pass.
const prepassVertexShader = `#version 410 core
` + vertexTransformGLSL + `
uniform mat4 uView;
uniform mat4 uProj;

out vec3 vViewNormal;

void main() {
    vec3 worldPos = transformPosition();
    vViewNormal = mat3(uView) * transformDirection(aNormal);
    gl_Position = uProj * uView * vec4(worldPos, 1.0);
}
` + "\x00"

const prepassFragmentShader = `#version 410 core
in vec3 vViewNormal;
out vec4 FragColor;

void main() {
    FragColor = vec4(normalize(vViewNormal) * 0.5 + 0.5, 1.0);
}
` + "\x00"

const ssaoFragmentShader = `#version 410 core
in vec2 vUV;
out float FragColor;

uniform sampler2D uDepth;
uniform sampler2D uNormal;
uniform sampler2D uNoise;
uniform vec3 uKernel[32];
uniform mat4 uProj;
uniform mat4 uInvProj;
uniform vec2 uNoiseScale;
uniform float uRadius;
uniform float uBias;
uniform float uIntensity;
uniform float uPower;

vec3 viewPosAt(vec2 uv) {
    float depth = texture(uDepth, uv).r;
    vec4 clip = vec4(uv * 2.0 - 1.0, depth * 2.0 - 1.0, 1.0);
    vec4 view = uInvProj * clip;
    return view.xyz / view.w;
}

void main() {
    float depth = texture(uDepth, vUV).r;
    if (depth >= 1.0) {
        FragColor = 1.0;
        return;
    }

    vec3 pos = viewPosAt(vUV);
    vec3 normal = normalize(texture(uNormal, vUV).xyz * 2.0 - 1.0);
    vec3 random = normalize(texture(uNoise, vUV * uNoiseScale).xyz * 2.0 - 1.0);

    vec3 tangent = normalize(random - normal * dot(random, normal));
    vec3 bitangent = cross(normal, tangent);
    mat3 tbn = mat3(tangent, bitangent, normal);

    float occlusion = 0.0;
    for (int i = 0; i < 32; i++) {
        vec3 samplePos = pos + (tbn * uKernel[i]) * uRadius;
        vec4 offset = uProj * vec4(samplePos, 1.0);
        offset.xyz /= offset.w;
        offset.xyz = offset.xyz * 0.5 + 0.5;
        if (offset.x < 0.0 || offset.x > 1.0 || offset.y < 0.0 || offset.y > 1.0) {
            continue;
        }
        float sampleDepth = viewPosAt(offset.xy).z;
        float rangeCheck = smoothstep(0.0, 1.0, uRadius / abs(pos.z - sampleDepth));
        occlusion += (sampleDepth >= samplePos.z + uBias ? 1.0 : 0.0) * rangeCheck;
    }
    occlusion = 1.0 - (occlusion / 32.0) * uIntensity;
    FragColor = pow(clamp(occlusion, 0.0, 1.0), uPower);
}
` + "\x00"

const ssaoBlurFragmentShader = `#version 410 core
in vec2 vUV;
out float FragColor;

uniform sampler2D uAO;

void main() {
    vec2 texel = 1.0 / vec2(textureSize(uAO, 0));
    float sum = 0.0;
    for (int x = -2; x < 2; x++) {
        for (int y = -2; y < 2; y++) {
            sum += texture(uAO, vUV + vec2(float(x), float(y)) * texel).r;
        }
    }
    FragColor = sum / 16.0;
}
` + "\x00"

// SSAOPass renders screen-space ambient occlusion: a depth+normal prepass
// target, a half-resolution AO pass, and a full-resolution blur.
type SSAOPass struct {
	Prepass *Framebuffer // normal in color0, depth attachment
	aoFBO   *Framebuffer // half-res R8
	blurFBO *Framebuffer // full-res R8

	prepassProg *Program
	aoProg      *Program
	blurProg    *Program

	noiseTex uint32
	kernel   [ssaoKernelSize]math.Vec3
	emptyVAO uint32

	width, height int32
}

// NewSSAOPass builds the pass for the given 3D resolution.
func NewSSAOPass(width, height int32) (*SSAOPass, error) {
	s := &SSAOPass{width: width, height: height}
	var err error

	if s.prepassProg, err = NewProgram(prepassVertexShader, prepassFragmentShader); err != nil {
		return nil, fmt.Errorf("ssao prepass program: %w", err)
	}
	if s.aoProg, err = NewProgram(fullscreenVertexShader, ssaoFragmentShader); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("ssao program: %w", err)
	}
	if s.blurProg, err = NewProgram(fullscreenVertexShader, ssaoBlurFragmentShader); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("ssao blur program: %w", err)
	}

	if s.Prepass, err = NewFramebuffer(width, height, []int32{gl.RGB8}, true, 1); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("ssao prepass target: %w", err)
	}
	if s.aoFBO, err = NewFramebuffer(width/2, height/2, []int32{gl.R8}, false, 1); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("ssao half-res target: %w", err)
	}
	if s.blurFBO, err = NewFramebuffer(width, height, []int32{gl.R8}, false, 1); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("ssao blur target: %w", err)
	}

	// Hemisphere kernel, denser near the origin.
	rng := rand.New(rand.NewSource(7))
	for i := range s.kernel {
		v := math.Vec3{
			X: rng.Float32()*2 - 1,
			Y: rng.Float32()*2 - 1,
			Z: rng.Float32(),
		}.Normalize().Mul(rng.Float32())
		scale := float32(i) / float32(ssaoKernelSize)
		s.kernel[i] = v.Mul(0.1 + 0.9*scale*scale)
	}

	// 4x4 random rotation noise.
	var noise [16 * 3]float32
	for i := 0; i < 16; i++ {
		noise[i*3+0] = rng.Float32()*2 - 1
		noise[i*3+1] = rng.Float32()*2 - 1
		noise[i*3+2] = 0
	}
	gl.GenTextures(1, &s.noiseTex)
	gl.BindTexture(gl.TEXTURE_2D, s.noiseTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB16F, 4, 4, 0, gl.RGB, gl.FLOAT, unsafe.Pointer(&noise[0]))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenVertexArrays(1, &s.emptyVAO)
	return s, nil
}

// PrepassProgram returns the depth+normal program; the caller binds the
// Prepass framebuffer and draws opaque geometry through it.
func (s *SSAOPass) PrepassProgram() *Program { return s.prepassProg }

// Render computes the blurred AO texture from the prepass results and
// returns its GL name.
func (s *SSAOPass) Render(params scene.SSAO, proj, invProj math.Mat4) uint32 {
	// Half-res AO
	s.aoFBO.Bind()
	gl.Disable(gl.DEPTH_TEST)
	s.aoProg.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, s.Prepass.Depth)
	s.aoProg.SetInt("uDepth", 0)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, s.Prepass.Color[0])
	s.aoProg.SetInt("uNormal", 1)
	gl.ActiveTexture(gl.TEXTURE2)
	gl.BindTexture(gl.TEXTURE_2D, s.noiseTex)
	s.aoProg.SetInt("uNoise", 2)

	for i, k := range s.kernel {
		s.aoProg.SetVec3(fmt.Sprintf("uKernel[%d]", i), k)
	}
	s.aoProg.SetMat4("uProj", proj)
	s.aoProg.SetMat4("uInvProj", invProj)
	s.aoProg.SetVec2("uNoiseScale", float32(s.width/2)/4, float32(s.height/2)/4)
	s.aoProg.SetFloat("uRadius", params.Radius)
	s.aoProg.SetFloat("uBias", params.Bias)
	s.aoProg.SetFloat("uIntensity", params.Intensity)
	s.aoProg.SetFloat("uPower", params.Power)

	gl.BindVertexArray(s.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	// Blur to full resolution
	s.blurFBO.Bind()
	s.blurProg.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, s.aoFBO.Color[0])
	s.blurProg.SetInt("uAO", 0)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	gl.BindVertexArray(0)
	s.blurFBO.Unbind()
	gl.UseProgram(0)
	return s.blurFBO.Color[0]
}

// Resize reallocates the render targets for a new 3D resolution.
func (s *SSAOPass) Resize(width, height int32) error {
	if width == s.width && height == s.height {
		return nil
	}
	s.Prepass.Destroy()
	s.aoFBO.Destroy()
	s.blurFBO.Destroy()

	var err error
	if s.Prepass, err = NewFramebuffer(width, height, []int32{gl.RGB8}, true, 1); err != nil {
		return err
	}
	if s.aoFBO, err = NewFramebuffer(width/2, height/2, []int32{gl.R8}, false, 1); err != nil {
		return err
	}
	if s.blurFBO, err = NewFramebuffer(width, height, []int32{gl.R8}, false, 1); err != nil {
		return err
	}
	s.width, s.height = width, height
	return nil
}

// Destroy frees all GPU resources.
func (s *SSAOPass) Destroy() {
	for _, p := range []*Program{s.prepassProg, s.aoProg, s.blurProg} {
		if p != nil {
			p.Destroy()
		}
	}
	for _, f := range []*Framebuffer{s.Prepass, s.aoFBO, s.blurFBO} {
		if f != nil {
			f.Destroy()
		}
	}
	if s.noiseTex != 0 {
		gl.DeleteTextures(1, &s.noiseTex)
	}
	if s.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &s.emptyVAO)
	}
}
