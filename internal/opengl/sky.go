package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

// cubeFaceDirGLSL converts a face index and UV into the cubemap sampling
// direction, matching the GL face orientation rules.
const cubeFaceDirGLSL = `
uniform int uFace;

vec3 faceDirection(vec2 uv) {
    vec2 c = uv * 2.0 - 1.0;
    if (uFace == 0) return normalize(vec3( 1.0, -c.y, -c.x));
    if (uFace == 1) return normalize(vec3(-1.0, -c.y,  c.x));
    if (uFace == 2) return normalize(vec3( c.x,  1.0,  c.y));
    if (uFace == 3) return normalize(vec3( c.x, -1.0, -c.y));
    if (uFace == 4) return normalize(vec3( c.x, -c.y,  1.0));
    return normalize(vec3(-c.x, -c.y, -1.0));
}
`

const skyboxGenFragment = `#version 410 core
in vec2 vUV;
out vec4 FragColor;
` + cubeFaceDirGLSL + `
uniform vec3 uSunDir;
uniform vec3 uSkyColor;
uniform vec3 uHorizonColor;
uniform vec3 uGroundColor;
uniform vec3 uSunColor;
uniform float uSunSize;
uniform float uHaze;
uniform float uEnergy;

void main() {
    vec3 dir = faceDirection(vUV);

    float h = dir.y;
    vec3 color;
    if (h >= 0.0) {
        float t = pow(1.0 - h, 1.0 + uHaze * 4.0);
        color = mix(uSkyColor, uHorizonColor, t);
    } else {
        float t = pow(1.0 + h, 4.0);
        color = mix(uGroundColor, uHorizonColor, t);
    }

    float sunDot = dot(dir, normalize(-uSunDir));
    float disk = smoothstep(1.0 - uSunSize, 1.0 - uSunSize * 0.5, sunDot);
    float glow = pow(max(sunDot, 0.0), 32.0) * uHaze;
    color += uSunColor * (disk * 4.0 + glow);

    FragColor = vec4(color * uEnergy, 1.0);
}
` + "\x00"

const irradianceFragment = `#version 410 core
in vec2 vUV;
out vec4 FragColor;
` + cubeFaceDirGLSL + `
uniform samplerCube uSource;

const float PI = 3.14159265359;

void main() {
    vec3 N = faceDirection(vUV);
    vec3 up = abs(N.y) < 0.999 ? vec3(0.0, 1.0, 0.0) : vec3(1.0, 0.0, 0.0);
    vec3 right = normalize(cross(up, N));
    up = cross(N, right);

    vec3 irradiance = vec3(0.0);
    float count = 0.0;
    for (float phi = 0.0; phi < 2.0 * PI; phi += 0.1) {
        for (float theta = 0.0; theta < 0.5 * PI; theta += 0.05) {
            vec3 tangentDir = vec3(sin(theta) * cos(phi), sin(theta) * sin(phi), cos(theta));
            vec3 dir = tangentDir.x * right + tangentDir.y * up + tangentDir.z * N;
            irradiance += texture(uSource, dir).rgb * cos(theta) * sin(theta);
            count += 1.0;
        }
    }
    FragColor = vec4(PI * irradiance / count, 1.0);
}
` + "\x00"

const prefilterFragment = `#version 410 core
in vec2 vUV;
out vec4 FragColor;
` + cubeFaceDirGLSL + `
uniform samplerCube uSource;
uniform float uRoughness;

const float PI = 3.14159265359;
const uint SAMPLES = 256u;

float radicalInverseVdC(uint bits) {
    bits = (bits << 16u) | (bits >> 16u);
    bits = ((bits & 0x55555555u) << 1u) | ((bits & 0xAAAAAAAAu) >> 1u);
    bits = ((bits & 0x33333333u) << 2u) | ((bits & 0xCCCCCCCCu) >> 2u);
    bits = ((bits & 0x0F0F0F0Fu) << 4u) | ((bits & 0xF0F0F0F0u) >> 4u);
    bits = ((bits & 0x00FF00FFu) << 8u) | ((bits & 0xFF00FF00u) >> 8u);
    return float(bits) * 2.3283064365386963e-10;
}

vec2 hammersley(uint i, uint n) {
    return vec2(float(i) / float(n), radicalInverseVdC(i));
}

vec3 importanceSampleGGX(vec2 xi, vec3 N, float roughness) {
    float a = roughness * roughness;
    float phi = 2.0 * PI * xi.x;
    float cosTheta = sqrt((1.0 - xi.y) / (1.0 + (a * a - 1.0) * xi.y));
    float sinTheta = sqrt(1.0 - cosTheta * cosTheta);

    vec3 H = vec3(cos(phi) * sinTheta, sin(phi) * sinTheta, cosTheta);
    vec3 up = abs(N.z) < 0.999 ? vec3(0.0, 0.0, 1.0) : vec3(1.0, 0.0, 0.0);
    vec3 tangent = normalize(cross(up, N));
    vec3 bitangent = cross(N, tangent);
    return normalize(tangent * H.x + bitangent * H.y + N * H.z);
}

void main() {
    vec3 N = faceDirection(vUV);
    vec3 V = N;

    vec3 sum = vec3(0.0);
    float weight = 0.0;
    for (uint i = 0u; i < SAMPLES; i++) {
        vec2 xi = hammersley(i, SAMPLES);
        vec3 H = importanceSampleGGX(xi, N, uRoughness);
        vec3 L = normalize(2.0 * dot(V, H) * H - V);
        float NdotL = max(dot(N, L), 0.0);
        if (NdotL > 0.0) {
            sum += texture(uSource, L).rgb * NdotL;
            weight += NdotL;
        }
    }
    FragColor = vec4(sum / max(weight, 1e-4), 1.0);
}
` + "\x00"

const brdfLUTFragment = `#version 410 core
in vec2 vUV;
out vec2 FragColor;

const float PI = 3.14159265359;
const uint SAMPLES = 512u;

float radicalInverseVdC(uint bits) {
    bits = (bits << 16u) | (bits >> 16u);
    bits = ((bits & 0x55555555u) << 1u) | ((bits & 0xAAAAAAAAu) >> 1u);
    bits = ((bits & 0x33333333u) << 2u) | ((bits & 0xCCCCCCCCu) >> 2u);
    bits = ((bits & 0x0F0F0F0Fu) << 4u) | ((bits & 0xF0F0F0F0u) >> 4u);
    bits = ((bits & 0x00FF00FFu) << 8u) | ((bits & 0xFF00FF00u) >> 8u);
    return float(bits) * 2.3283064365386963e-10;
}

vec2 hammersley(uint i, uint n) {
    return vec2(float(i) / float(n), radicalInverseVdC(i));
}

vec3 importanceSampleGGX(vec2 xi, vec3 N, float roughness) {
    float a = roughness * roughness;
    float phi = 2.0 * PI * xi.x;
    float cosTheta = sqrt((1.0 - xi.y) / (1.0 + (a * a - 1.0) * xi.y));
    float sinTheta = sqrt(1.0 - cosTheta * cosTheta);
    vec3 H = vec3(cos(phi) * sinTheta, sin(phi) * sinTheta, cosTheta);
    vec3 up = abs(N.z) < 0.999 ? vec3(0.0, 0.0, 1.0) : vec3(1.0, 0.0, 0.0);
    vec3 tangent = normalize(cross(up, N));
    vec3 bitangent = cross(N, tangent);
    return normalize(tangent * H.x + bitangent * H.y + N * H.z);
}

float geometrySchlickIBL(float NdotV, float roughness) {
    float k = (roughness * roughness) / 2.0;
    return NdotV / (NdotV * (1.0 - k) + k);
}

void main() {
    float NdotV = max(vUV.x, 1e-3);
    float roughness = vUV.y;
    vec3 V = vec3(sqrt(1.0 - NdotV * NdotV), 0.0, NdotV);
    vec3 N = vec3(0.0, 0.0, 1.0);

    float A = 0.0;
    float B = 0.0;
    for (uint i = 0u; i < SAMPLES; i++) {
        vec2 xi = hammersley(i, SAMPLES);
        vec3 H = importanceSampleGGX(xi, N, roughness);
        vec3 L = normalize(2.0 * dot(V, H) * H - V);
        float NdotL = max(L.z, 0.0);
        if (NdotL > 0.0) {
            float NdotH = max(H.z, 0.0);
            float VdotH = max(dot(V, H), 0.0);
            float G = geometrySchlickIBL(NdotL, roughness) * geometrySchlickIBL(NdotV, roughness);
            float GVis = (G * VdotH) / (NdotH * NdotV);
            float Fc = pow(1.0 - VdotH, 5.0);
            A += (1.0 - Fc) * GVis;
            B += Fc * GVis;
        }
    }
    FragColor = vec2(A, B) / float(SAMPLES);
}
` + "\x00"

const skyDrawVertex = `#version 410 core
out vec3 vDir;

uniform mat4 uInvView;
uniform mat4 uInvProj;

void main() {
    vec2 pos = vec2(float((gl_VertexID << 1) & 2), float(gl_VertexID & 2)) * 2.0 - 1.0;
    vec4 view = uInvProj * vec4(pos, 1.0, 1.0);
    vDir = (uInvView * vec4(view.xyz, 0.0)).xyz;
    gl_Position = vec4(pos, 0.9999999, 1.0);
}
` + "\x00"

const skyDrawFragment = `#version 410 core
in vec3 vDir;
out vec4 FragColor;

uniform samplerCube uSky;
uniform vec4  uSkyRotation;
uniform float uIntensity;
uniform float uFogSkyAffect;
uniform vec3  uFogColor;
uniform int   uFogMode;

vec3 quatRotate(vec4 q, vec3 v) {
    return v + 2.0 * cross(q.xyz, cross(q.xyz, v) + q.w * v);
}

void main() {
    vec3 dir = quatRotate(uSkyRotation, normalize(vDir));
    vec3 color = texture(uSky, dir).rgb * uIntensity;
    if (uFogMode != 0 && uFogSkyAffect > 0.0) {
        // fade the sky toward the fog color near the horizon
        float horizon = 1.0 - clamp(abs(dir.y) * 3.0, 0.0, 1.0);
        color = mix(color, uFogColor, horizon * uFogSkyAffect);
    }
    FragColor = vec4(color, 1.0);
}
` + "\x00"

// SkyService generates procedural cubemaps, derives reflection probes, and
// draws the sky pass. One fullscreen VAO is shared by every generator.
type SkyService struct {
	genProg        *Program
	irradianceProg *Program
	prefilterProg  *Program
	brdfProg       *Program
	drawProg       *Program

	emptyVAO uint32

	// BRDFLUT is shared by every probe, built once on first use.
	BRDFLUT uint32
}

// NewSkyService compiles the generator programs.
func NewSkyService() (*SkyService, error) {
	s := &SkyService{}
	var err error
	if s.genProg, err = NewProgram(fullscreenVertexShader, skyboxGenFragment); err != nil {
		return nil, fmt.Errorf("skybox generator: %w", err)
	}
	if s.irradianceProg, err = NewProgram(fullscreenVertexShader, irradianceFragment); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("irradiance generator: %w", err)
	}
	if s.prefilterProg, err = NewProgram(fullscreenVertexShader, prefilterFragment); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("prefilter generator: %w", err)
	}
	if s.brdfProg, err = NewProgram(fullscreenVertexShader, brdfLUTFragment); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("brdf lut generator: %w", err)
	}
	if s.drawProg, err = NewProgram(skyDrawVertex, skyDrawFragment); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("sky draw: %w", err)
	}
	gl.GenVertexArrays(1, &s.emptyVAO)
	return s, nil
}

// Destroy frees all programs and the shared LUT.
func (s *SkyService) Destroy() {
	for _, p := range []*Program{s.genProg, s.irradianceProg, s.prefilterProg, s.brdfProg, s.drawProg} {
		if p != nil {
			p.Destroy()
		}
	}
	if s.BRDFLUT != 0 {
		gl.DeleteTextures(1, &s.BRDFLUT)
		s.BRDFLUT = 0
	}
	if s.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &s.emptyVAO)
		s.emptyVAO = 0
	}
}

func (s *SkyService) drawFullscreen() {
	gl.BindVertexArray(s.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

func newEmptyCubemap(size int32, mipmapped bool) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, id)
	for face := 0; face < 6; face++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, gl.RGB16F,
			size, size, 0, gl.RGB, gl.HALF_FLOAT, nil)
	}
	minFilter := int32(gl.LINEAR)
	if mipmapped {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	if mipmapped {
		gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
	}
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return id
}

// GenerateSkybox renders the procedural sky descriptor into a new cubemap
// and records it in cm.GPUData.
func (s *SkyService) GenerateSkybox(cm *scene.Cubemap, box scene.Skybox, size int) error {
	if size <= 0 {
		size = 512
	}
	tex := newEmptyCubemap(int32(size), true)

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Viewport(0, 0, int32(size), int32(size))
	gl.Disable(gl.DEPTH_TEST)

	s.genProg.Use()
	s.genProg.SetVec3("uSunDir", box.SunDirection)
	s.genProg.SetVec3("uSkyColor", colorVec3(box.SkyColor))
	s.genProg.SetVec3("uHorizonColor", colorVec3(box.HorizonColor))
	s.genProg.SetVec3("uGroundColor", colorVec3(box.GroundColor))
	s.genProg.SetVec3("uSunColor", colorVec3(box.SunColor))
	s.genProg.SetFloat("uSunSize", box.SunSize)
	s.genProg.SetFloat("uHaze", box.Haze)
	s.genProg.SetFloat("uEnergy", box.Energy)

	for face := 0; face < 6; face++ {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
			gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), tex, 0)
		if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			gl.DeleteFramebuffers(1, &fbo)
			gl.DeleteTextures(1, &tex)
			return fmt.Errorf("skybox face FBO incomplete: status=0x%X", status)
		}
		s.genProg.SetInt("uFace", int32(face))
		s.drawFullscreen()
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.DeleteFramebuffers(1, &fbo)

	gl.BindTexture(gl.TEXTURE_CUBE_MAP, tex)
	gl.GenerateMipmap(gl.TEXTURE_CUBE_MAP)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	gl.UseProgram(0)

	cm.Size = size
	cm.Format = scene.FormatRGB16F
	cm.GPUData = &GPUCubemap{ID: tex, Size: int32(size), Mips: mipCount(int32(size))}
	return nil
}

// GPUProbe is the backend handle stored in scene.ReflectionProbe.GPUData.
type GPUProbe struct {
	Irradiance uint32
	Prefilter  uint32
	Mips       int32
}

// GenerateProbe derives irradiance and prefiltered specular cubemaps from a
// source cubemap. The shared BRDF LUT is built on first call.
func (s *SkyService) GenerateProbe(probe *scene.ReflectionProbe, source *scene.Cubemap, size int) error {
	srcID := CubemapID(source)
	if srcID == 0 {
		return fmt.Errorf("probe source cubemap has no GPU data")
	}
	if size <= 0 {
		size = 128
	}
	if s.BRDFLUT == 0 {
		if err := s.generateBRDFLUT(); err != nil {
			return err
		}
	}

	irr := newEmptyCubemap(32, false)
	pre := newEmptyCubemap(int32(size), true)
	mips := mipCount(int32(size))

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.Disable(gl.DEPTH_TEST)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, srcID)

	s.irradianceProg.Use()
	s.irradianceProg.SetInt("uSource", 0)
	gl.Viewport(0, 0, 32, 32)
	for face := 0; face < 6; face++ {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
			gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), irr, 0)
		s.irradianceProg.SetInt("uFace", int32(face))
		s.drawFullscreen()
	}

	s.prefilterProg.Use()
	s.prefilterProg.SetInt("uSource", 0)
	for mip := int32(0); mip < mips; mip++ {
		mipSize := int32(size) >> mip
		if mipSize < 1 {
			mipSize = 1
		}
		gl.Viewport(0, 0, mipSize, mipSize)
		roughness := float32(mip) / float32(mips-1)
		s.prefilterProg.SetFloat("uRoughness", roughness)
		for face := 0; face < 6; face++ {
			gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
				gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), pre, mip)
			s.prefilterProg.SetInt("uFace", int32(face))
			s.drawFullscreen()
		}
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.DeleteFramebuffers(1, &fbo)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	gl.UseProgram(0)

	probe.Size = size
	probe.GPUData = &GPUProbe{Irradiance: irr, Prefilter: pre, Mips: mips}
	return nil
}

func (s *SkyService) generateBRDFLUT() error {
	const lutSize = 512
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG16F, lutSize, lutSize, 0, gl.RG, gl.HALF_FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &fbo)
		gl.DeleteTextures(1, &tex)
		return fmt.Errorf("brdf lut FBO incomplete: status=0x%X", status)
	}

	gl.Viewport(0, 0, lutSize, lutSize)
	gl.Disable(gl.DEPTH_TEST)
	s.brdfProg.Use()
	s.drawFullscreen()

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.DeleteFramebuffers(1, &fbo)
	gl.UseProgram(0)

	s.BRDFLUT = tex
	return nil
}

// DeleteProbe frees the probe's GPU cubemaps. The shared BRDF LUT stays.
func DeleteProbe(probe *scene.ReflectionProbe) {
	if probe == nil {
		return
	}
	if g, ok := probe.GPUData.(*GPUProbe); ok {
		if g.Irradiance != 0 {
			gl.DeleteTextures(1, &g.Irradiance)
		}
		if g.Prefilter != 0 {
			gl.DeleteTextures(1, &g.Prefilter)
		}
	}
	probe.GPUData = nil
}

// DrawSky renders the environment sky at infinite depth. Call after the
// opaque pass with depth testing LEQUAL.
func (s *SkyService) DrawSky(env *scene.Environment, invView, invProj math.Mat4) {
	skyID := CubemapID(env.Sky.Cubemap)
	if skyID == 0 {
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)
	gl.Disable(gl.CULL_FACE)

	s.drawProg.Use()
	s.drawProg.SetMat4("uInvView", invView)
	s.drawProg.SetMat4("uInvProj", invProj)
	rot := env.Sky.Rotation.Conjugate()
	s.drawProg.SetVec4("uSkyRotation", math.Vec4{X: rot.X, Y: rot.Y, Z: rot.Z, W: rot.W})
	s.drawProg.SetFloat("uIntensity", env.Sky.Intensity)
	s.drawProg.SetInt("uFogMode", int32(env.Fog.Mode))
	s.drawProg.SetFloat("uFogSkyAffect", env.Fog.SkyAffect)
	s.drawProg.SetVec3("uFogColor", colorVec3(env.Fog.Color))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, skyID)
	s.drawProg.SetInt("uSky", 0)

	s.drawFullscreen()

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
	gl.UseProgram(0)
}

func colorVec3(c core.Color) math.Vec3 {
	return math.Vec3{X: c.R, Y: c.G, Z: c.B}
}
