package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/core"
	"nexium/internal/opengl"
	"nexium/scene"
)

func fullUV() core.Rect { return core.Rect{Width: 1, Height: 1} }

func testFont(t scene.FontType) *scene.Font {
	atlas := &scene.Texture{Image: &scene.Image{Width: 64, Height: 64}}
	return scene.NewFont(t, 16, 4, 1, atlas, []scene.Glyph{
		{Rune: 'A', Atlas: core.Rect{X: 0, Y: 0, Width: 8, Height: 16}, Advance: 10},
		{Rune: ' ', Advance: 5},
		{Rune: '?', Atlas: core.Rect{X: 8, Y: 0, Width: 8, Height: 16}, Advance: 10},
	})
}

func TestBatcherMergesSameState(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.rect(0, 0, 10, 10, fullUV())
	o.rect(20, 0, 10, 10, fullUV())
	o.triangle(0, 0, 5, 0, 2, 5)
	o.end()

	require.Len(t, o.calls, 1)
	assert.Equal(t, int32(0), o.calls[0].IndexOffset)
	assert.Equal(t, int32(15), o.calls[0].IndexCount)
	assert.Len(t, o.verts, 11)
	assert.Len(t, o.indices, 15)
}

func TestBatcherSplitsOnBlendChange(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.rect(0, 0, 10, 10, fullUV())
	o.blend = scene.BlendAdd
	o.rect(0, 0, 10, 10, fullUV())
	o.end()

	require.Len(t, o.calls, 2)
	assert.Equal(t, scene.BlendAlpha, o.calls[0].Blend)
	assert.Equal(t, scene.BlendAdd, o.calls[1].Blend)
	assert.Equal(t, int32(6), o.calls[0].IndexCount)
	assert.Equal(t, int32(6), o.calls[1].IndexOffset)
}

func TestBatcherSplitsOnScissorChange(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.rect(0, 0, 10, 10, fullUV())
	o.scissor = core.Scissor{Enabled: true, Width: 32, Height: 32}
	o.rect(0, 0, 10, 10, fullUV())
	o.scissor = core.Scissor{}
	o.rect(0, 0, 10, 10, fullUV())
	o.end()

	require.Len(t, o.calls, 3)
	assert.True(t, o.calls[1].Scissor.Enabled)
	assert.False(t, o.calls[2].Scissor.Enabled)
}

func TestBatcherSplitsOnShaderChange(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.rect(0, 0, 10, 10, fullUV())
	sh := &scene.Shader2D{}
	o.shader = sh
	o.rect(0, 0, 10, 10, fullUV())
	o.end()

	require.Len(t, o.calls, 2)
	assert.Nil(t, o.calls[0].Shader)
	assert.Same(t, sh, o.calls[1].Shader)
}

func TestBatcherTransformStack(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.translate(10, 20)
	o.push()
	o.translate(5, 0)
	o.rect(0, 0, 2, 2, fullUV())
	require.True(t, o.pop())
	o.rect(0, 0, 2, 2, fullUV())
	o.end()

	require.Len(t, o.verts, 8)
	assert.InDelta(t, 15, o.verts[0].Pos.X, 1e-5)
	assert.InDelta(t, 20, o.verts[0].Pos.Y, 1e-5)
	assert.InDelta(t, 10, o.verts[4].Pos.X, 1e-5)
	assert.InDelta(t, 20, o.verts[4].Pos.Y, 1e-5)
}

func TestBatcherStackRestoresScissor(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	outer := core.Scissor{Enabled: true, X: 10, Y: 10, Width: 100, Height: 100}
	o.scissor = outer
	o.push()
	o.scissor = core.Scissor{Enabled: true, X: 20, Y: 20, Width: 40, Height: 40}
	o.rect(0, 0, 2, 2, fullUV())
	require.True(t, o.pop())
	o.rect(0, 0, 2, 2, fullUV())
	o.end()

	require.Len(t, o.calls, 2)
	assert.Equal(t, outer, o.scissor)
	assert.Equal(t, outer, o.calls[1].Scissor)
	assert.NotEqual(t, outer, o.calls[0].Scissor)
}

func TestBatcherPopWithoutPush(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	assert.False(t, o.pop())
	o.end()
}

func TestBatcherScaleAppliesToGeometry(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.scale(2, 3)
	o.rect(1, 1, 1, 1, fullUV())
	o.end()

	// Far corner of the rect.
	assert.InDelta(t, 4, o.verts[2].Pos.X, 1e-5)
	assert.InDelta(t, 6, o.verts[2].Pos.Y, 1e-5)
}

func TestLineThicknessDPIRule(t *testing.T) {
	o := newOverlayBatcher()
	o.dpiScale = 2
	o.begin()
	o.line(0, 0, 10, 0, 2) // virtual: scaled to 4, half extent 2
	o.line(0, 0, 10, 0, -2)
	o.end()

	require.Len(t, o.verts, 8)
	assert.InDelta(t, -2, o.verts[0].Pos.Y, 1e-5)
	assert.InDelta(t, 2, o.verts[2].Pos.Y, 1e-5)
	assert.InDelta(t, -1, o.verts[4].Pos.Y, 1e-5)
	assert.InDelta(t, 1, o.verts[6].Pos.Y, 1e-5)
}

func TestLineZeroLengthSkipped(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.line(5, 5, 5, 5, 2)
	o.end()

	assert.Empty(t, o.verts)
	assert.Empty(t, o.calls)
}

func TestTextEmitsGlyphQuads(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.font = testFont(scene.FontNormal)
	adv := o.text("A A", 0, 0, 16)
	o.end()

	// Two visible glyphs; the space only advances the pen.
	assert.Len(t, o.verts, 8)
	require.Len(t, o.calls, 1)
	assert.Equal(t, opengl.Batch2DText, o.calls[0].Mode)
	assert.InDelta(t, 25, adv, 1e-5)
}

func TestTextScalesWithSize(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.font = testFont(scene.FontNormal)
	adv := o.text("A", 0, 0, 32)
	o.end()

	assert.InDelta(t, 20, adv, 1e-5)
	// Glyph quad doubles with the scale.
	assert.InDelta(t, 16, o.verts[1].Pos.X-o.verts[0].Pos.X, 1e-5)
}

func TestTextUnknownRuneFallsBack(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.font = testFont(scene.FontNormal)
	o.text("é", 0, 0, 16)
	o.end()

	// The fallback glyph is drawn in place of the missing rune.
	assert.Len(t, o.verts, 4)
}

func TestTextSDFSelectsSDFMode(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.font = testFont(scene.FontSDF)
	o.text("A", 0, 0, 16)
	o.end()

	require.Len(t, o.calls, 1)
	assert.Equal(t, opengl.Batch2DTextSDF, o.calls[0].Mode)
}

func TestTextWithoutFontIsNoOp(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	adv := o.text("hello", 0, 0, 16)
	o.end()

	assert.Zero(t, adv)
	assert.Empty(t, o.verts)
}

func TestTextAndShapesSplitCalls(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.font = testFont(scene.FontNormal)
	o.rect(0, 0, 10, 10, fullUV())
	o.text("A", 0, 0, 16)
	o.rect(0, 20, 10, 10, fullUV())
	o.end()

	require.Len(t, o.calls, 3)
	assert.Equal(t, opengl.Batch2DShape, o.calls[0].Mode)
	assert.Equal(t, opengl.Batch2DText, o.calls[1].Mode)
	assert.Equal(t, opengl.Batch2DShape, o.calls[2].Mode)
}

func TestTextUVsNormalizedByAtlas(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.font = testFont(scene.FontNormal)
	o.text("A", 0, 0, 16)
	o.end()

	require.Len(t, o.verts, 4)
	// Glyph rect 8x16 in a 64x64 atlas.
	assert.InDelta(t, 0, o.verts[0].UV.X, 1e-5)
	assert.InDelta(t, 8.0/64.0, o.verts[1].UV.X, 1e-5)
	assert.InDelta(t, 16.0/64.0, o.verts[2].UV.Y, 1e-5)
}

func TestBeginResetsState(t *testing.T) {
	o := newOverlayBatcher()
	o.begin()
	o.color = core.ColorRed
	o.blend = scene.BlendAdd
	o.translate(50, 50)
	o.push()
	o.end()

	o.begin()
	assert.Equal(t, core.ColorWhite, o.color)
	assert.Equal(t, scene.BlendAlpha, o.blend)
	assert.Empty(t, o.stack)
	o.rect(0, 0, 1, 1, fullUV())
	assert.InDelta(t, 0, o.verts[0].Pos.X, 1e-5)
	o.end()
}
