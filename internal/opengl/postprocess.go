package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/math"
	"nexium/scene"
)

const bloomPrefilterShader = `#version 410 core
in vec2 vUV;
out vec4 FragColor;

uniform sampler2D uSource;
uniform vec4 uFilter; // x: threshold, yzw: soft knee curve

void main() {
    vec3 c = texture(uSource, vUV).rgb;
    float brightness = max(c.r, max(c.g, c.b));
    float soft = clamp(brightness - uFilter.y, 0.0, uFilter.z);
    soft = soft * soft * uFilter.w;
    float contribution = max(soft, brightness - uFilter.x) / max(brightness, 1e-5);
    FragColor = vec4(c * contribution, 1.0);
}
` + "\x00"

// 13-tap downsample (Jimenez, SIGGRAPH 2014). Weighted so the center 2x2
// block dominates, which suppresses pulsing on small bright features.
const bloomDownsampleShader = `#version 410 core
in vec2 vUV;
out vec4 FragColor;

uniform sampler2D uSource;

void main() {
    vec2 texel = 1.0 / vec2(textureSize(uSource, 0));
    float x = texel.x;
    float y = texel.y;

    vec3 a = texture(uSource, vUV + vec2(-2.0 * x,  2.0 * y)).rgb;
    vec3 b = texture(uSource, vUV + vec2(    0.0,  2.0 * y)).rgb;
    vec3 c = texture(uSource, vUV + vec2( 2.0 * x,  2.0 * y)).rgb;
    vec3 d = texture(uSource, vUV + vec2(-2.0 * x,      0.0)).rgb;
    vec3 e = texture(uSource, vUV).rgb;
    vec3 f = texture(uSource, vUV + vec2( 2.0 * x,      0.0)).rgb;
    vec3 g = texture(uSource, vUV + vec2(-2.0 * x, -2.0 * y)).rgb;
    vec3 h = texture(uSource, vUV + vec2(    0.0, -2.0 * y)).rgb;
    vec3 i = texture(uSource, vUV + vec2( 2.0 * x, -2.0 * y)).rgb;
    vec3 j = texture(uSource, vUV + vec2(-x,  y)).rgb;
    vec3 k = texture(uSource, vUV + vec2( x,  y)).rgb;
    vec3 l = texture(uSource, vUV + vec2(-x, -y)).rgb;
    vec3 m = texture(uSource, vUV + vec2( x, -y)).rgb;

    vec3 sum = e * 0.125;
    sum += (a + c + g + i) * 0.03125;
    sum += (b + d + f + h) * 0.0625;
    sum += (j + k + l + m) * 0.125;
    FragColor = vec4(sum, 1.0);
}
` + "\x00"

// 9-tap tent upsample. Rendered with additive blending so each level's
// contribution accumulates into the level above it.
const bloomUpsampleShader = `#version 410 core
in vec2 vUV;
out vec4 FragColor;

uniform sampler2D uSource;
uniform float uRadius;
uniform float uWeight;

void main() {
    vec2 texel = uRadius / vec2(textureSize(uSource, 0));
    float x = texel.x;
    float y = texel.y;

    vec3 a = texture(uSource, vUV + vec2(-x,  y)).rgb;
    vec3 b = texture(uSource, vUV + vec2(0.0, y)).rgb;
    vec3 c = texture(uSource, vUV + vec2( x,  y)).rgb;
    vec3 d = texture(uSource, vUV + vec2(-x, 0.0)).rgb;
    vec3 e = texture(uSource, vUV).rgb;
    vec3 f = texture(uSource, vUV + vec2( x, 0.0)).rgb;
    vec3 g = texture(uSource, vUV + vec2(-x, -y)).rgb;
    vec3 h = texture(uSource, vUV + vec2(0.0, -y)).rgb;
    vec3 i = texture(uSource, vUV + vec2( x, -y)).rgb;

    vec3 sum = e * 4.0 + (b + d + f + h) * 2.0 + (a + c + g + i);
    FragColor = vec4(sum / 16.0 * uWeight, 1.0);
}
` + "\x00"

const compositeShader = `#version 410 core
in vec2 vUV;
out vec4 FragColor;

uniform sampler2D uScene;
uniform sampler2D uBloom;
uniform int   uBloomMode;      // 0 off, 1 mix, 2 additive
uniform float uBloomStrength;
uniform int   uTonemap;        // 0 linear, 1 reinhard, 2 filmic, 3 aces
uniform float uExposure;
uniform float uWhite;
uniform float uBrightness;
uniform float uContrast;
uniform float uSaturation;

vec3 hable(vec3 x) {
    const float A = 0.15, B = 0.50, C = 0.10, D = 0.20, E = 0.02, F = 0.30;
    return ((x * (A * x + C * B) + D * E) / (x * (A * x + B) + D * F)) - E / F;
}

vec3 acesFit(vec3 x) {
    const float a = 2.51, b = 0.03, c = 2.43, d = 0.59, e = 0.14;
    return clamp((x * (a * x + b)) / (x * (c * x + d) + e), 0.0, 1.0);
}

void main() {
    vec3 color = texture(uScene, vUV).rgb;

    if (uBloomMode == 1) {
        color = mix(color, texture(uBloom, vUV).rgb, uBloomStrength);
    } else if (uBloomMode == 2) {
        color += texture(uBloom, vUV).rgb * uBloomStrength;
    }

    color *= uExposure;
    if (uTonemap == 1) {
        color = color / (color + vec3(1.0));
    } else if (uTonemap == 2) {
        color = hable(color) / hable(vec3(uWhite));
    } else if (uTonemap == 3) {
        color = acesFit(color);
    }

    // Scene colors (including the clear color) are linear; encode for an
    // sRGB display. A zero-draw frame therefore presents the gamma encoding
    // of the background color.
    color = pow(max(color, 0.0), vec3(1.0 / 2.2));

    color *= uBrightness;
    color = (color - 0.5) * uContrast + 0.5;
    float luma = dot(color, vec3(0.299, 0.587, 0.114));
    color = mix(vec3(luma), color, uSaturation);

    FragColor = vec4(clamp(color, 0.0, 1.0), 1.0);
}
` + "\x00"

// PostProcess owns the HDR scene target and the bloom/tonemap chain. The 3D
// pass renders into Scene; Run resolves, blooms and composites to the output
// framebuffer with the letterbox viewport the caller computed.
type PostProcess struct {
	Scene   *Framebuffer // RGBA16F + depth, possibly multisampled
	resolve *Framebuffer // single-sample mirror when Scene is MSAA

	bloomMips []*Framebuffer // halving chain, bloomMips[0] is half res

	prefilterProg *Program
	downProg      *Program
	upProg        *Program
	compositeProg *Program

	emptyVAO uint32

	width, height int32
	samples       int32
}

// NewPostProcess creates the chain for the given 3D resolution. samples > 1
// allocates a multisampled scene target plus a resolve mirror.
func NewPostProcess(width, height, samples int32) (*PostProcess, error) {
	pp := &PostProcess{width: width, height: height, samples: samples}
	var err error

	if pp.prefilterProg, err = NewProgram(fullscreenVertexShader, bloomPrefilterShader); err != nil {
		return nil, fmt.Errorf("bloom prefilter program: %w", err)
	}
	if pp.downProg, err = NewProgram(fullscreenVertexShader, bloomDownsampleShader); err != nil {
		pp.Destroy()
		return nil, fmt.Errorf("bloom downsample program: %w", err)
	}
	if pp.upProg, err = NewProgram(fullscreenVertexShader, bloomUpsampleShader); err != nil {
		pp.Destroy()
		return nil, fmt.Errorf("bloom upsample program: %w", err)
	}
	if pp.compositeProg, err = NewProgram(fullscreenVertexShader, compositeShader); err != nil {
		pp.Destroy()
		return nil, fmt.Errorf("composite program: %w", err)
	}

	if err = pp.allocTargets(width, height, samples); err != nil {
		pp.Destroy()
		return nil, err
	}

	gl.GenVertexArrays(1, &pp.emptyVAO)
	return pp, nil
}

func (pp *PostProcess) allocTargets(width, height, samples int32) error {
	var err error
	if pp.Scene, err = NewFramebuffer(width, height, []int32{gl.RGBA16F}, true, samples); err != nil {
		return fmt.Errorf("scene target: %w", err)
	}
	if samples > 1 {
		if pp.resolve, err = NewFramebuffer(width, height, []int32{gl.RGBA16F}, false, 1); err != nil {
			return fmt.Errorf("resolve target: %w", err)
		}
	}

	// Bloom chain halves until a dimension drops under 8 pixels.
	w, h := width/2, height/2
	for len(pp.bloomMips) < scene.BloomLevels && w >= 8 && h >= 8 {
		mip, err := NewFramebuffer(w, h, []int32{gl.RGBA16F}, false, 1)
		if err != nil {
			return fmt.Errorf("bloom mip %d: %w", len(pp.bloomMips), err)
		}
		pp.bloomMips = append(pp.bloomMips, mip)
		w /= 2
		h /= 2
	}
	return nil
}

func (pp *PostProcess) freeTargets() {
	if pp.Scene != nil {
		pp.Scene.Destroy()
		pp.Scene = nil
	}
	if pp.resolve != nil {
		pp.resolve.Destroy()
		pp.resolve = nil
	}
	for _, m := range pp.bloomMips {
		m.Destroy()
	}
	pp.bloomMips = nil
}

// Resize reallocates all targets for a new 3D resolution.
func (pp *PostProcess) Resize(width, height int32) error {
	if width == pp.width && height == pp.height {
		return nil
	}
	pp.freeTargets()
	if err := pp.allocTargets(width, height, pp.samples); err != nil {
		return err
	}
	pp.width, pp.height = width, height
	return nil
}

// ResolvedTexture resolves MSAA if needed and returns the single-sample HDR
// color texture of the scene target.
func (pp *PostProcess) ResolvedTexture() uint32 {
	if pp.Scene.Multisampled() {
		pp.Scene.ResolveTo(pp.resolve)
		return pp.resolve.Color[0]
	}
	return pp.Scene.Color[0]
}

// RenderBloom runs the prefilter, downsample and weighted tent upsample
// chain over the resolved scene texture. Returns the bloom texture, or 0
// when bloom is disabled or the pyramid has fewer than two levels.
func (pp *PostProcess) RenderBloom(cfg scene.Bloom, hdrTex uint32) uint32 {
	if cfg.Mode == scene.BloomDisabled || len(pp.bloomMips) < 2 {
		return 0
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(pp.emptyVAO)

	// Prefilter into the first mip with the soft knee.
	knee := cfg.Threshold * cfg.SoftThreshold
	pp.bloomMips[0].Bind()
	pp.prefilterProg.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, hdrTex)
	pp.prefilterProg.SetInt("uSource", 0)
	pp.prefilterProg.SetVec4("uFilter", filterVec(cfg.Threshold, knee))
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	// Downsample the chain.
	pp.downProg.Use()
	pp.downProg.SetInt("uSource", 0)
	for i := 1; i < len(pp.bloomMips); i++ {
		pp.bloomMips[i].Bind()
		gl.BindTexture(gl.TEXTURE_2D, pp.bloomMips[i-1].Color[0])
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
	}

	// Upsample back, accumulating weighted levels additively.
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE)
	pp.upProg.Use()
	pp.upProg.SetInt("uSource", 0)
	pp.upProg.SetFloat("uRadius", cfg.FilterRadius)
	for i := len(pp.bloomMips) - 1; i > 0; i-- {
		pp.bloomMips[i-1].Bind()
		gl.BindTexture(gl.TEXTURE_2D, pp.bloomMips[i].Color[0])
		pp.upProg.SetFloat("uWeight", cfg.Levels[i])
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
	}
	gl.Disable(gl.BLEND)

	gl.BindVertexArray(0)
	return pp.bloomMips[0].Color[0]
}

// Composite tonemaps and grades the HDR texture into the bound output. The
// caller sets the destination framebuffer binding and viewport beforehand
// (the letterbox rectangle when aspect ratios differ).
func (pp *PostProcess) Composite(hdrTex, bloomTex uint32,
	bloom scene.Bloom, tm scene.Tonemap, adj scene.Adjustment) {

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)

	pp.compositeProg.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, hdrTex)
	pp.compositeProg.SetInt("uScene", 0)

	mode := int32(0)
	if bloomTex != 0 {
		mode = int32(bloom.Mode)
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, bloomTex)
	}
	pp.compositeProg.SetInt("uBloom", 1)
	pp.compositeProg.SetInt("uBloomMode", mode)
	pp.compositeProg.SetFloat("uBloomStrength", bloom.Strength)

	pp.compositeProg.SetInt("uTonemap", int32(tm.Mode))
	pp.compositeProg.SetFloat("uExposure", tm.Exposure)
	pp.compositeProg.SetFloat("uWhite", tm.White)
	pp.compositeProg.SetFloat("uBrightness", adj.Brightness)
	pp.compositeProg.SetFloat("uContrast", adj.Contrast)
	pp.compositeProg.SetFloat("uSaturation", adj.Saturation)

	gl.BindVertexArray(pp.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func filterVec(threshold, knee float32) math.Vec4 {
	return math.Vec4{X: threshold, Y: threshold - knee, Z: 2 * knee, W: 0.25 / (knee + 1e-5)}
}

// Destroy frees all GPU resources.
func (pp *PostProcess) Destroy() {
	for _, p := range []*Program{pp.prefilterProg, pp.downProg, pp.upProg, pp.compositeProg} {
		if p != nil {
			p.Destroy()
		}
	}
	pp.freeTargets()
	if pp.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &pp.emptyVAO)
	}
}
