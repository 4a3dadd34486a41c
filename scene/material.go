package scene

import (
	"sync/atomic"

	"nexium/core"
	"nexium/math"
)

// BlendMode selects the framebuffer blend state for a material. Opaque and
// alpha-tested materials sort front-to-back; Alpha and Add sort back-to-front.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
	BlendAdd
)

// Translucent reports whether the mode requires back-to-front ordering.
func (b BlendMode) Translucent() bool { return b != BlendOpaque }

// CullMode selects face culling.
type CullMode int

const (
	CullBack CullMode = iota
	CullFront
	CullNone
)

// ShadingMode selects the lighting path.
type ShadingMode int

const (
	ShadingLit ShadingMode = iota
	ShadingUnlit
	ShadingWireframe
)

// BillboardMode orients geometry toward the camera each frame.
type BillboardMode int

const (
	BillboardDisabled BillboardMode = iota
	BillboardEnabled                // full camera-facing
	BillboardYAxis                  // rotate about Y only
)

var materialIDCounter atomic.Uint32

// Texture is a sampled image resource. Pixel data is decoded on the CPU; the
// backend uploads it and records the handle in GPUData.
type Texture struct {
	ID     uint32
	Name   string
	Image  *Image
	Filter TextureFilter
	Wrap   TextureWrap
	Mipmap bool

	// Anisotropy level, 1 disables.
	Anisotropy float32

	// GPUData is set by the renderer backend. Do not access directly.
	GPUData interface{}
}

var textureIDCounter atomic.Uint32

// NewTexture wraps a decoded image with default sampling parameters.
func NewTexture(name string, img *Image) *Texture {
	return &Texture{
		ID:         textureIDCounter.Add(1),
		Name:       name,
		Image:      img,
		Filter:     FilterTrilinear,
		Mipmap:     true,
		Anisotropy: 1,
	}
}

// TextureFilter selects min/mag filtering.
type TextureFilter int

const (
	FilterNearest TextureFilter = iota
	FilterBilinear
	FilterTrilinear
)

// TextureWrap selects the wrap mode. The importer may receive different
// modes per axis; the recorded mode is the U-axis's.
type TextureWrap int

const (
	WrapRepeat TextureWrap = iota
	WrapClamp
	WrapMirror
)

// Material bundles all parameters defining surface appearance.
type Material struct {
	ID   uint32
	Name string

	Albedo struct {
		Color   core.Color
		Texture *Texture
	}
	Emission struct {
		Color   core.Color
		Texture *Texture
		Energy  float32
	}
	// ORM packs occlusion (R), roughness (G) and metalness (B) glTF-style.
	ORM struct {
		Texture       *Texture
		Occlusion     float32
		Roughness     float32
		Metalness     float32
		AOLightAffect float32
	}
	Normal struct {
		Texture *Texture
		Scale   float32
	}
	Depth struct {
		Test    bool
		PrePass bool
	}

	AlphaCutOff float32
	TexOffset   math.Vec2
	TexScale    math.Vec2

	Billboard BillboardMode
	Shading   ShadingMode
	Blend     BlendMode
	Cull      CullMode

	// Shader overrides the built-in pipeline when non-nil.
	Shader *MaterialShader

	// Textures loaded by a model importer are owned by the model and
	// released with it; caller-supplied textures are not.
	ownedTextures map[*Texture]bool
}

// DefaultMaterial returns a white lit opaque material.
func DefaultMaterial() *Material {
	m := &Material{
		ID:   materialIDCounter.Add(1),
		Name: "Default",
	}
	m.Albedo.Color = core.ColorWhite
	m.Emission.Color = core.ColorBlack
	m.Emission.Energy = 1
	m.ORM.Occlusion = 1
	m.ORM.Roughness = 0.5
	m.ORM.Metalness = 0
	m.ORM.AOLightAffect = 0
	m.Normal.Scale = 1
	m.Depth.Test = true
	m.AlphaCutOff = 0.5
	m.TexScale = math.Vec2{X: 1, Y: 1}
	return m
}

// MarkTextureOwned records that tex was loaded on behalf of a model and
// should be released when the model is destroyed.
func (m *Material) MarkTextureOwned(tex *Texture) {
	if tex == nil {
		return
	}
	if m.ownedTextures == nil {
		m.ownedTextures = make(map[*Texture]bool)
	}
	m.ownedTextures[tex] = true
}

// OwnedTextures returns the textures this material's model is responsible
// for releasing.
func (m *Material) OwnedTextures() []*Texture {
	out := make([]*Texture, 0, len(m.ownedTextures))
	for t := range m.ownedTextures {
		out = append(out, t)
	}
	return out
}

// ── User shaders ──────────────────────────────────────────────────────────────

// StaticUniformSize is the byte size of a user shader's persistent uniform
// buffer, updated by offset between frames.
const StaticUniformSize = 1024

// DynamicUniformSize is the byte size of a user shader's transient uniform
// buffer, re-uploaded on every draw.
const DynamicUniformSize = 256

// MaxShaderTextures is the number of fixed texture slots a user shader can
// bind.
const MaxShaderTextures = 4

// MaterialShader is a user vertex+fragment pair with two uniform buffers and
// a fixed-slot texture table. The static buffer persists between draws and is
// updated by offset; the dynamic buffer is rebuilt every draw.
type MaterialShader struct {
	ID           uint32
	VertexCode   string
	FragmentCode string

	StaticData  [StaticUniformSize]byte
	DynamicData [DynamicUniformSize]byte
	DynamicUsed int

	Textures [MaxShaderTextures]*Texture

	// GPUData is set by the renderer backend. Do not access directly.
	GPUData interface{}
}

var shaderIDCounter atomic.Uint32

// NewMaterialShader wraps user GLSL source. Compilation happens lazily on
// the render thread.
func NewMaterialShader(vertex, fragment string) *MaterialShader {
	return &MaterialShader{
		ID:           shaderIDCounter.Add(1),
		VertexCode:   vertex,
		FragmentCode: fragment,
	}
}

// SetStatic copies data into the persistent uniform buffer at offset.
// Writes past the end are clipped and logged.
func (s *MaterialShader) SetStatic(offset int, data []byte) {
	if offset < 0 || offset >= StaticUniformSize {
		core.Logger().Warn("MaterialShader.SetStatic offset out of range", "offset", offset)
		return
	}
	n := copy(s.StaticData[offset:], data)
	if n < len(data) {
		core.Logger().Warn("MaterialShader.SetStatic clipped", "wrote", n, "requested", len(data))
	}
}

// SetDynamic replaces the transient uniform buffer contents for the next
// draw.
func (s *MaterialShader) SetDynamic(data []byte) {
	n := copy(s.DynamicData[:], data)
	if n < len(data) {
		core.Logger().Warn("MaterialShader.SetDynamic clipped", "wrote", n, "requested", len(data))
	}
	s.DynamicUsed = n
}

// BindTexture assigns a texture to one of the fixed slots.
func (s *MaterialShader) BindTexture(slot int, tex *Texture) {
	if slot < 0 || slot >= MaxShaderTextures {
		core.Logger().Warn("MaterialShader.BindTexture slot out of range", "slot", slot)
		return
	}
	s.Textures[slot] = tex
}

// Shader2D is the overlay counterpart of MaterialShader. Same uniform and
// texture model, applied to 2D batches.
type Shader2D struct {
	ID           uint32
	VertexCode   string
	FragmentCode string

	StaticData  [StaticUniformSize]byte
	DynamicData [DynamicUniformSize]byte
	DynamicUsed int

	Textures [MaxShaderTextures]*Texture

	GPUData interface{}
}

// NewShader2D wraps user GLSL source for overlay drawing.
func NewShader2D(vertex, fragment string) *Shader2D {
	return &Shader2D{
		ID:           shaderIDCounter.Add(1),
		VertexCode:   vertex,
		FragmentCode: fragment,
	}
}
