package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

// Per-draw limits baked into the shaders.
const (
	MaxLightsPerDraw = 8
	MaxShadowMaps    = 4 // 2D slots (directional + spot)
	MaxShadowCubes   = 2 // omni slots
)

// Texture unit assignments for the scene pass.
const (
	unitAlbedo     = 0
	unitNormal     = 1
	unitORM        = 2
	unitEmission   = 3
	unitIrradiance = 4
	unitPrefilter  = 5
	unitBRDF       = 6
	unitSSAO       = 7
	unitShadow0    = 8 // 8..11: 2D shadow maps
	unitShadowCube = 12 // 12..13: cube shadow maps
)

const sceneVertexShader = `#version 410 core
` + vertexTransformGLSL + `
uniform mat4 uView;
uniform mat4 uProj;

out vec3 vWorldPos;
out vec3 vNormal;
out vec4 vTangent;
out vec2 vUV;
out vec4 vColor;
out vec4 vCustom;

uniform vec2 uTexOffset;
uniform vec2 uTexScale;

void main() {
    vec3 worldPos = transformPosition();
    vWorldPos = worldPos;
    vNormal   = transformDirection(aNormal);
    vTangent  = vec4(transformDirection(aTangent.xyz), aTangent.w);
    vUV       = aTexCoord * uTexScale + uTexOffset;
    vColor    = aColor * iColor;
    vCustom   = iCustom;
    gl_Position = uProj * uView * vec4(worldPos, 1.0);
}
` + "\x00"

const sceneFragmentShader = `#version 410 core
in vec3 vWorldPos;
in vec3 vNormal;
in vec4 vTangent;
in vec2 vUV;
in vec4 vColor;
in vec4 vCustom;

out vec4 FragColor;

// Material
uniform vec4  uAlbedoColor;
uniform sampler2D uAlbedoTex;
uniform bool  uHasAlbedoTex;
uniform vec4  uEmissionColor;
uniform sampler2D uEmissionTex;
uniform bool  uHasEmissionTex;
uniform float uEmissionEnergy;
uniform sampler2D uORMTex;
uniform bool  uHasORMTex;
uniform float uOcclusion;
uniform float uRoughness;
uniform float uMetalness;
uniform float uAOLightAffect;
uniform sampler2D uNormalTex;
uniform bool  uHasNormalTex;
uniform float uNormalScale;
uniform float uAlphaCutOff;
uniform int   uShading;       // 0 lit, 1 unlit
uniform bool  uAlphaTest;

// Lights
struct Light {
    int   type;        // 0 directional, 1 spot, 2 omni
    vec3  position;
    vec3  direction;
    vec3  color;
    float energy;
    float specular;
    float range;
    float attenuation;
    float innerCutoff;
    float outerCutoff;
    int   shadowMap;   // 2D slot, -1 none
    int   shadowCube;  // cube slot, -1 none
    float shadowSoftness;
    mat4  shadowVP;
};
uniform Light uLights[8];
uniform int   uLightCount;

uniform sampler2DShadow uShadowMaps[4];
uniform samplerCube     uShadowCubes[2];

// Environment
uniform vec3  uAmbient;
uniform vec3  uCameraPos;
uniform samplerCube uIrradiance;
uniform samplerCube uPrefilter;
uniform sampler2D   uBRDFLUT;
uniform bool  uHasProbe;
uniform float uProbeMips;
uniform vec4  uSkyRotation;   // quaternion applied to env lookups
uniform float uSkyIntensity;
uniform float uSkySpecular;
uniform float uSkyDiffuse;
uniform sampler2D uSSAOTex;
uniform bool  uHasSSAO;
uniform vec2  uScreenSize;

// Fog
uniform int   uFogMode;       // 0 off, 1 linear, 2 exp, 3 exp2
uniform float uFogDensity;
uniform float uFogStart;
uniform float uFogEnd;
uniform vec3  uFogColor;

const float PI = 3.14159265359;

const vec2 POISSON[8] = vec2[](
    vec2(-0.326, -0.406), vec2(-0.840, -0.074),
    vec2(-0.696,  0.457), vec2(-0.203,  0.621),
    vec2( 0.962, -0.195), vec2( 0.473, -0.480),
    vec2( 0.519,  0.767), vec2( 0.185, -0.893));

vec3 quatRotate(vec4 q, vec3 v) {
    return v + 2.0 * cross(q.xyz, cross(q.xyz, v) + q.w * v);
}

float distributionGGX(float NdotH, float roughness) {
    float a = roughness * roughness;
    float a2 = a * a;
    float d = NdotH * NdotH * (a2 - 1.0) + 1.0;
    return a2 / max(PI * d * d, 1e-6);
}

float geometrySmith(float NdotV, float NdotL, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    float gv = NdotV / (NdotV * (1.0 - k) + k);
    float gl2 = NdotL / (NdotL * (1.0 - k) + k);
    return gv * gl2;
}

vec3 fresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

float sampleShadow2D(int slot, vec4 shadowCoord, float softness) {
    vec3 proj = shadowCoord.xyz / shadowCoord.w;
    proj = proj * 0.5 + 0.5;
    if (proj.z > 1.0) return 1.0;
    float texel = softness / 2048.0;
    float sum = 0.0;
    for (int i = 0; i < 8; i++) {
        vec3 uvz = vec3(proj.xy + POISSON[i] * texel, proj.z);
        // sampler arrays need constant indices in GLSL 410
        if      (slot == 0) sum += texture(uShadowMaps[0], uvz);
        else if (slot == 1) sum += texture(uShadowMaps[1], uvz);
        else if (slot == 2) sum += texture(uShadowMaps[2], uvz);
        else                sum += texture(uShadowMaps[3], uvz);
    }
    return sum / 8.0;
}

float sampleShadowCube(int slot, vec3 lightToFrag, float lightFar) {
    float current = length(lightToFrag) / lightFar;
    float stored;
    if (slot == 0) stored = texture(uShadowCubes[0], lightToFrag).r;
    else           stored = texture(uShadowCubes[1], lightToFrag).r;
    return current - 0.002 > stored ? 0.0 : 1.0;
}

vec3 shadeLight(Light light, vec3 N, vec3 V, vec3 albedo, float roughness, float metalness) {
    vec3 L;
    float attenuation = 1.0;

    if (light.type == 0) {
        L = normalize(-light.direction);
    } else {
        vec3 toLight = light.position - vWorldPos;
        float dist = length(toLight);
        if (dist > light.range) return vec3(0.0);
        L = toLight / max(dist, 1e-5);
        float falloff = clamp(1.0 - dist / light.range, 0.0, 1.0);
        attenuation = pow(falloff, light.attenuation);
        if (light.type == 1) {
            float theta = dot(L, normalize(-light.direction));
            float epsilon = max(cos(light.innerCutoff) - cos(light.outerCutoff), 1e-4);
            attenuation *= clamp((theta - cos(light.outerCutoff)) / epsilon, 0.0, 1.0);
        }
    }

    float NdotL = max(dot(N, L), 0.0);
    if (NdotL <= 0.0 || attenuation <= 0.0) return vec3(0.0);

    float shadow = 1.0;
    if (light.shadowMap >= 0) {
        shadow = sampleShadow2D(light.shadowMap, light.shadowVP * vec4(vWorldPos, 1.0), light.shadowSoftness);
    } else if (light.shadowCube >= 0) {
        shadow = sampleShadowCube(light.shadowCube, vWorldPos - light.position, light.range);
    }
    if (shadow <= 0.0) return vec3(0.0);

    vec3 H = normalize(V + L);
    float NdotV = max(dot(N, V), 1e-4);
    float NdotH = max(dot(N, H), 0.0);

    vec3 F0 = mix(vec3(0.04), albedo, metalness);
    float D = distributionGGX(NdotH, roughness);
    float G = geometrySmith(NdotV, NdotL, roughness);
    vec3  F = fresnelSchlick(max(dot(H, V), 0.0), F0);

    vec3 specular = (D * G * F) / max(4.0 * NdotV * NdotL, 1e-6) * light.specular;
    vec3 kd = (vec3(1.0) - F) * (1.0 - metalness);
    vec3 diffuse = kd * albedo / PI;

    vec3 radiance = light.color * light.energy * attenuation;
    return (diffuse + specular) * radiance * NdotL * shadow;
}

void main() {
    vec4 albedoSample = uAlbedoColor * vColor;
    if (uHasAlbedoTex) {
        albedoSample *= texture(uAlbedoTex, vUV);
    }
    if (uAlphaTest && albedoSample.a < uAlphaCutOff) {
        discard;
    }

    if (uShading == 1) {
        FragColor = albedoSample;
        return;
    }

    vec3 N = normalize(vNormal);
    if (uHasNormalTex) {
        vec3 T = normalize(vTangent.xyz - N * dot(vTangent.xyz, N));
        vec3 B = cross(N, T) * vTangent.w;
        vec3 nm = texture(uNormalTex, vUV).xyz * 2.0 - 1.0;
        nm.xy *= uNormalScale;
        N = normalize(mat3(T, B, N) * nm);
    }
    vec3 V = normalize(uCameraPos - vWorldPos);

    float occlusion = uOcclusion;
    float roughness = uRoughness;
    float metalness = uMetalness;
    if (uHasORMTex) {
        vec3 orm = texture(uORMTex, vUV).rgb;
        occlusion *= orm.r;
        roughness *= orm.g;
        metalness *= orm.b;
    }
    roughness = clamp(roughness, 0.04, 1.0);

    float ssao = 1.0;
    if (uHasSSAO) {
        ssao = texture(uSSAOTex, gl_FragCoord.xy / uScreenSize).r;
    }

    vec3 albedo = albedoSample.rgb;
    vec3 direct = vec3(0.0);
    for (int i = 0; i < uLightCount; i++) {
        vec3 c = shadeLight(uLights[i], N, V, albedo, roughness, metalness);
        // aoLightAffect lets baked occlusion darken direct light too
        direct += mix(c, c * occlusion * ssao, uAOLightAffect);
    }

    vec3 ambient;
    if (uHasProbe) {
        vec3 rn = quatRotate(uSkyRotation, N);
        vec3 irradiance = texture(uIrradiance, rn).rgb * uSkyDiffuse;
        vec3 diffuse = irradiance * albedo;

        vec3 R = quatRotate(uSkyRotation, reflect(-V, N));
        float NdotV = max(dot(N, V), 1e-4);
        vec3 F0 = mix(vec3(0.04), albedo, metalness);
        vec3 prefiltered = textureLod(uPrefilter, R, roughness * (uProbeMips - 1.0)).rgb * uSkySpecular;
        vec2 brdf = texture(uBRDFLUT, vec2(NdotV, roughness)).rg;
        vec3 specular = prefiltered * (F0 * brdf.x + brdf.y);

        ambient = (diffuse * (1.0 - metalness) + specular) * uSkyIntensity;
    } else {
        ambient = uAmbient * albedo;
    }
    ambient *= occlusion * ssao;

    vec3 emission = uEmissionColor.rgb * uEmissionEnergy;
    if (uHasEmissionTex) {
        emission *= texture(uEmissionTex, vUV).rgb;
    }

    vec3 color = direct + ambient + emission;

    if (uFogMode != 0) {
        float dist = length(uCameraPos - vWorldPos);
        float fog;
        if (uFogMode == 1) {
            fog = clamp((uFogEnd - dist) / max(uFogEnd - uFogStart, 1e-4), 0.0, 1.0);
        } else if (uFogMode == 2) {
            fog = exp(-uFogDensity * dist);
        } else {
            fog = exp(-uFogDensity * uFogDensity * dist * dist);
        }
        color = mix(uFogColor, color, clamp(fog, 0.0, 1.0));
    }

    FragColor = vec4(color, albedoSample.a);
}
` + "\x00"

// LightUniform is the CPU mirror of the shader's Light struct, filled by
// the pass scheduler. CullMask is used for per-draw light culling and is
// not uploaded.
type LightUniform struct {
	Type           int32
	CullMask       uint32
	Position       math.Vec3
	Direction      math.Vec3
	Color          math.Vec3
	Energy         float32
	Specular       float32
	Range          float32
	Attenuation    float32
	InnerCutoff    float32
	OuterCutoff    float32
	ShadowMap      int32
	ShadowCube     int32
	ShadowSoftness float32
	ShadowVP       math.Mat4
}

// ScenePipeline owns the 3D pass programs and per-frame GL state.
type ScenePipeline struct {
	Scene *Program
	Depth *Program
}

// NewScenePipeline compiles the scene and depth programs and assigns the
// fixed sampler units.
func NewScenePipeline() (*ScenePipeline, error) {
	sceneProg, err := NewProgram(sceneVertexShader, sceneFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("scene program: %w", err)
	}
	depthProg, err := NewDepthProgram()
	if err != nil {
		sceneProg.Destroy()
		return nil, fmt.Errorf("depth program: %w", err)
	}

	sceneProg.Use()
	sceneProg.SetInt("uAlbedoTex", unitAlbedo)
	sceneProg.SetInt("uNormalTex", unitNormal)
	sceneProg.SetInt("uORMTex", unitORM)
	sceneProg.SetInt("uEmissionTex", unitEmission)
	sceneProg.SetInt("uIrradiance", unitIrradiance)
	sceneProg.SetInt("uPrefilter", unitPrefilter)
	sceneProg.SetInt("uBRDFLUT", unitBRDF)
	sceneProg.SetInt("uSSAOTex", unitSSAO)
	for i := 0; i < MaxShadowMaps; i++ {
		sceneProg.SetInt(fmt.Sprintf("uShadowMaps[%d]", i), int32(unitShadow0+i))
	}
	for i := 0; i < MaxShadowCubes; i++ {
		sceneProg.SetInt(fmt.Sprintf("uShadowCubes[%d]", i), int32(unitShadowCube+i))
	}
	gl.UseProgram(0)

	return &ScenePipeline{Scene: sceneProg, Depth: depthProg}, nil
}

// Destroy releases both programs.
func (p *ScenePipeline) Destroy() {
	if p.Scene != nil {
		p.Scene.Destroy()
	}
	if p.Depth != nil {
		p.Depth.Destroy()
	}
}

// SetLights uploads the per-draw light list.
func (p *ScenePipeline) SetLights(lights []LightUniform) {
	prog := p.Scene
	n := len(lights)
	if n > MaxLightsPerDraw {
		n = MaxLightsPerDraw
	}
	prog.SetInt("uLightCount", int32(n))
	for i := 0; i < n; i++ {
		l := &lights[i]
		pre := fmt.Sprintf("uLights[%d].", i)
		prog.SetInt(pre+"type", l.Type)
		prog.SetVec3(pre+"position", l.Position)
		prog.SetVec3(pre+"direction", l.Direction)
		prog.SetVec3(pre+"color", l.Color)
		prog.SetFloat(pre+"energy", l.Energy)
		prog.SetFloat(pre+"specular", l.Specular)
		prog.SetFloat(pre+"range", l.Range)
		prog.SetFloat(pre+"attenuation", l.Attenuation)
		prog.SetFloat(pre+"innerCutoff", l.InnerCutoff)
		prog.SetFloat(pre+"outerCutoff", l.OuterCutoff)
		prog.SetInt(pre+"shadowMap", l.ShadowMap)
		prog.SetInt(pre+"shadowCube", l.ShadowCube)
		prog.SetFloat(pre+"shadowSoftness", l.ShadowSoftness)
		prog.SetMat4(pre+"shadowVP", l.ShadowVP)
	}
}

// BindMaterial applies material state: uniforms, textures, blend, cull,
// depth and polygon mode.
func (p *ScenePipeline) BindMaterial(mat *scene.Material) {
	prog := p.Scene

	prog.SetVec4("uAlbedoColor", colorVec4(mat.Albedo.Color))
	bindOptionalTex(prog, "uHasAlbedoTex", unitAlbedo, mat.Albedo.Texture)
	prog.SetVec4("uEmissionColor", colorVec4(mat.Emission.Color))
	bindOptionalTex(prog, "uHasEmissionTex", unitEmission, mat.Emission.Texture)
	prog.SetFloat("uEmissionEnergy", mat.Emission.Energy)
	bindOptionalTex(prog, "uHasORMTex", unitORM, mat.ORM.Texture)
	prog.SetFloat("uOcclusion", mat.ORM.Occlusion)
	prog.SetFloat("uRoughness", mat.ORM.Roughness)
	prog.SetFloat("uMetalness", mat.ORM.Metalness)
	prog.SetFloat("uAOLightAffect", mat.ORM.AOLightAffect)
	bindOptionalTex(prog, "uHasNormalTex", unitNormal, mat.Normal.Texture)
	prog.SetFloat("uNormalScale", mat.Normal.Scale)
	prog.SetFloat("uAlphaCutOff", mat.AlphaCutOff)
	prog.SetVec2("uTexOffset", mat.TexOffset.X, mat.TexOffset.Y)
	prog.SetVec2("uTexScale", mat.TexScale.X, mat.TexScale.Y)

	if mat.Shading == scene.ShadingUnlit {
		prog.SetInt("uShading", 1)
	} else {
		prog.SetInt("uShading", 0)
	}
	alphaTest := int32(0)
	if mat.Blend == scene.BlendOpaque && mat.AlphaCutOff > 0 {
		alphaTest = 1
	}
	prog.SetInt("uAlphaTest", alphaTest)
	prog.SetInt("uBillboard", int32(mat.Billboard))

	ApplyBlendMode(mat.Blend)
	ApplyCullMode(mat.Cull)
	if mat.Shading == scene.ShadingWireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	if mat.Depth.Test {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	// Translucent draws never write depth.
	gl.DepthMask(!mat.Blend.Translucent())
}

// ApplyBlendMode sets the GL blend state for a material blend class.
func ApplyBlendMode(mode scene.BlendMode) {
	switch mode {
	case scene.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case scene.BlendAdd:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	default:
		gl.Disable(gl.BLEND)
	}
}

// ApplyCullMode sets face culling.
func ApplyCullMode(mode scene.CullMode) {
	switch mode {
	case scene.CullNone:
		gl.Disable(gl.CULL_FACE)
	case scene.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

// ApplyShadowFaceMode sets culling for a shadow pass per the mesh override.
func ApplyShadowFaceMode(face scene.ShadowFaceMode, matCull scene.CullMode) {
	switch face {
	case scene.ShadowFaceFront:
		ApplyCullMode(scene.CullBack)
	case scene.ShadowFaceBack:
		ApplyCullMode(scene.CullFront)
	case scene.ShadowFaceBoth:
		ApplyCullMode(scene.CullNone)
	default:
		ApplyCullMode(matCull)
	}
}

func bindOptionalTex(prog *Program, flag string, unit int32, tex *scene.Texture) {
	id := TextureID(tex)
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, id)
	if id != 0 {
		prog.SetInt(flag, 1)
	} else {
		prog.SetInt(flag, 0)
	}
}

func colorVec4(c core.Color) math.Vec4 {
	return math.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A}
}

