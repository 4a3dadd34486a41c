package scene

import (
	"nexium/core"
	"nexium/math"
)

// FogMode selects the distance fog falloff curve.
type FogMode int

const (
	FogDisabled FogMode = iota
	FogLinear
	FogExp
	FogExp2
)

// BloomMode selects how the bloom result is composited.
type BloomMode int

const (
	BloomDisabled BloomMode = iota
	BloomMix                // lerp(scene, bloom, strength)
	BloomAdditive           // scene + bloom * strength
)

// TonemapMode selects the HDR-to-LDR curve.
type TonemapMode int

const (
	TonemapLinear TonemapMode = iota
	TonemapReinhard
	TonemapFilmic
	TonemapACES
)

// BloomLevels is the maximum depth of the bloom mip pyramid.
const BloomLevels = 8

// Sky describes the environment's sky and image-based lighting sources.
type Sky struct {
	Cubemap  *Cubemap
	Probe    *ReflectionProbe
	Rotation math.Quaternion

	Intensity float32
	Specular  float32
	Diffuse   float32
}

// Fog holds distance fog parameters. Start and End apply to FogLinear,
// Density to the exponential modes.
type Fog struct {
	Mode      FogMode
	Density   float32
	Start     float32
	End       float32
	SkyAffect float32
	Color     core.Color
}

// SSAO holds screen-space ambient occlusion parameters.
type SSAO struct {
	Enabled   bool
	Intensity float32
	Radius    float32
	Power     float32
	Bias      float32
}

// Bloom holds bloom pyramid parameters. Threshold and SoftThreshold form a
// soft knee; Levels weights each pyramid level during the upsample sum.
type Bloom struct {
	Mode          BloomMode
	Threshold     float32
	SoftThreshold float32
	FilterRadius  float32
	Strength      float32
	Levels        [BloomLevels]float32
}

// Adjustment holds final color grading parameters.
type Adjustment struct {
	Brightness float32
	Contrast   float32
	Saturation float32
}

// Tonemap holds the HDR resolve parameters. Exposure multiplies before the
// curve; White normalizes the white point for curves that support it.
type Tonemap struct {
	Mode     TonemapMode
	Exposure float32
	White    float32
}

// Environment is the per-frame ambient, sky, fog and post-process bundle
// consumed by Begin3D. All colors are linear; the composite pass encodes
// the final image to sRGB, so a frame with no draws presents the gamma
// encoding of Background.
type Environment struct {
	Background core.Color
	Ambient    core.Color

	Sky        Sky
	Fog        Fog
	SSAO       SSAO
	Bloom      Bloom
	Adjustment Adjustment
	Tonemap    Tonemap
}

// DefaultEnvironment returns neutral settings: dark background, no sky,
// every post effect disabled or identity.
func DefaultEnvironment() *Environment {
	env := &Environment{
		Background: core.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
		Ambient:    core.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
	}
	env.Sky.Rotation = math.QuaternionIdentity()
	env.Sky.Intensity = 1
	env.Sky.Specular = 1
	env.Sky.Diffuse = 1

	env.Fog.Density = 0.01
	env.Fog.Start = 10
	env.Fog.End = 100
	env.Fog.SkyAffect = 1
	env.Fog.Color = core.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}

	env.SSAO.Intensity = 1
	env.SSAO.Radius = 0.5
	env.SSAO.Power = 1
	env.SSAO.Bias = 0.025

	env.Bloom.Threshold = 1
	env.Bloom.SoftThreshold = 0.5
	env.Bloom.FilterRadius = 1
	env.Bloom.Strength = 0.05
	for i := range env.Bloom.Levels {
		env.Bloom.Levels[i] = 1
	}

	env.Adjustment.Brightness = 1
	env.Adjustment.Contrast = 1
	env.Adjustment.Saturation = 1

	env.Tonemap.Mode = TonemapLinear
	env.Tonemap.Exposure = 1
	env.Tonemap.White = 1
	return env
}

// ── Cubemaps and probes ───────────────────────────────────────────────────────

// Skybox describes a procedural sky used to generate a cubemap without any
// source images.
type Skybox struct {
	SunDirection math.Vec3
	SkyColor     core.Color
	HorizonColor core.Color
	GroundColor  core.Color
	SunColor     core.Color
	SunSize      float32
	Haze         float32
	Energy       float32
}

// DefaultSkybox returns a clear midday sky.
func DefaultSkybox() Skybox {
	return Skybox{
		SunDirection: math.Vec3{X: -0.3, Y: -0.8, Z: -0.5}.Normalize(),
		SkyColor:     core.Color{R: 0.35, G: 0.55, B: 0.85, A: 1},
		HorizonColor: core.Color{R: 0.75, G: 0.83, B: 0.92, A: 1},
		GroundColor:  core.Color{R: 0.3, G: 0.27, B: 0.25, A: 1},
		SunColor:     core.Color{R: 1, G: 0.95, B: 0.85, A: 1},
		SunSize:      0.02,
		Haze:         0.1,
		Energy:       1,
	}
}

// Cubemap is a six-face environment texture, imported or generated from a
// Skybox descriptor.
type Cubemap struct {
	Size   int
	Format ImageFormat

	// Faces holds decoded source pixels in +X,-X,+Y,-Y,+Z,-Z order when the
	// cubemap was imported; nil for procedurally generated ones.
	Faces [6]*Image

	// GPUData is set by the renderer backend. Do not access directly.
	GPUData interface{}
}

// ReflectionProbe derives image-based lighting data from a source cubemap:
// a roughness-prefiltered specular chain, an irradiance map, and the shared
// BRDF LUT. The probe holds no strong reference to its source; its lifetime
// must not exceed the source cubemap's.
type ReflectionProbe struct {
	Size int

	// GPUData is set by the renderer backend. Do not access directly.
	GPUData interface{}
}
