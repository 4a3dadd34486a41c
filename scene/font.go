package scene

import (
	"sync/atomic"

	"nexium/core"
)

// FontType selects the rasterization style of a font atlas.
type FontType int

const (
	FontNormal FontType = iota
	FontLight
	FontMono
	FontSDF // signed distance field coverage
)

// Glyph holds atlas placement and layout metrics for one codepoint.
type Glyph struct {
	Rune    rune
	Atlas   core.Rect // region in the atlas texture, in pixels
	OffsetX float32   // pen offset when placing the quad
	OffsetY float32
	Advance float32 // horizontal pen advance
}

var fontIDCounter atomic.Uint32

// Font is a rasterized glyph set backed by a single R8 atlas texture. The
// atlas is the only pixel storage; per-glyph bitmaps are discarded after
// packing.
type Font struct {
	ID       uint32
	Type     FontType
	BaseSize float32
	LineGap  float32
	Padding  int

	Atlas  *Texture
	glyphs map[rune]Glyph
}

// NewFont assembles a font from packed glyphs and their atlas texture.
func NewFont(t FontType, baseSize, lineGap float32, padding int, atlas *Texture, glyphs []Glyph) *Font {
	m := make(map[rune]Glyph, len(glyphs))
	for _, g := range glyphs {
		m[g.Rune] = g
	}
	return &Font{
		ID:       fontIDCounter.Add(1),
		Type:     t,
		BaseSize: baseSize,
		LineGap:  lineGap,
		Padding:  padding,
		Atlas:    atlas,
		glyphs:   m,
	}
}

// Glyph looks up the glyph for r, falling back to '?' and then to the zero
// glyph when missing.
func (f *Font) Glyph(r rune) Glyph {
	if g, ok := f.glyphs[r]; ok {
		return g
	}
	if g, ok := f.glyphs['?']; ok {
		return g
	}
	return Glyph{Rune: r}
}

// Has reports whether the font carries a glyph for r.
func (f *Font) Has(r rune) bool {
	_, ok := f.glyphs[r]
	return ok
}

// MeasureText returns the width and height of a single-line string at the
// given size.
func (f *Font) MeasureText(text string, size float32) (float32, float32) {
	scale := size / f.BaseSize
	var w float32
	for _, r := range text {
		w += f.Glyph(r).Advance * scale
	}
	return w, size + f.LineGap*scale
}
