package importer

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

// DefaultCharset is the glyph range rasterized when the caller passes none:
// printable ASCII.
func DefaultCharset() []rune {
	runes := make([]rune, 0, 95)
	for r := rune(32); r <= 126; r++ {
		runes = append(runes, r)
	}
	return runes
}

// sdfSpread is the distance field extent in pixels around each glyph edge.
const sdfSpread = 4

// LoadFontFromMemory rasterizes a TTF/OTF blob into a glyph-packed R8
// atlas at baseSize pixels. FontSDF converts the coverage into a signed
// distance field; the other types keep plain coverage. Per-glyph bitmaps
// are transient; the atlas is the only pixel storage kept.
func LoadFontFromMemory(name string, data []byte, t scene.FontType, baseSize float32, runes []rune) (*scene.Font, error) {
	if baseSize <= 0 {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("invalid base size %g", baseSize)}
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("parse font: %w", err)}
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(baseSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("face: %w", err)}
	}
	defer face.Close()

	if len(runes) == 0 {
		runes = DefaultCharset()
	}
	pad := 1
	if t == scene.FontSDF {
		pad = sdfSpread
	}

	metrics := face.Metrics()
	ascent := float32(metrics.Ascent) / 64
	lineGap := float32(metrics.Height-metrics.Ascent-metrics.Descent) / 64

	type rasterGlyph struct {
		r      rune
		pix    []byte // coverage, w*h
		w, h   int
		offX   float32
		offY   float32
		adv    float32
		atlasX int
		atlasY int
	}

	var glyphs []rasterGlyph
	for _, r := range runes {
		dr, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		g := rasterGlyph{
			r:    r,
			w:    dr.Dx(),
			h:    dr.Dy(),
			offX: float32(dr.Min.X),
			offY: ascent + float32(dr.Min.Y),
			adv:  float32(adv) / 64,
		}
		if g.w > 0 && g.h > 0 {
			g.pix = make([]byte, g.w*g.h)
			for y := 0; y < g.h; y++ {
				for x := 0; x < g.w; x++ {
					_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
					g.pix[y*g.w+x] = byte(a >> 8)
				}
			}
		}
		glyphs = append(glyphs, g)
	}
	if len(glyphs) == 0 {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("no glyphs rasterized")}
	}

	// Shelf packing, growing the atlas until everything fits.
	size := 128
	for {
		x, y, shelf := pad, pad, 0
		fits := true
		for i := range glyphs {
			g := &glyphs[i]
			cw, ch := g.w+2*pad, g.h+2*pad
			if x+cw > size {
				x = pad
				y += shelf
				shelf = 0
			}
			if ch > shelf {
				shelf = ch
			}
			if y+ch > size {
				fits = false
				break
			}
			g.atlasX = x + pad
			g.atlasY = y + pad
			x += cw
		}
		if fits {
			break
		}
		size *= 2
		if size > 4096 {
			return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("glyphs exceed atlas limit")}
		}
	}

	atlas := &scene.Image{
		Pixels: make([]byte, size*size),
		Width:  size,
		Height: size,
		Format: scene.FormatR8,
	}
	for _, g := range glyphs {
		for y := 0; y < g.h; y++ {
			copy(atlas.Pixels[(g.atlasY+y)*size+g.atlasX:], g.pix[y*g.w:(y+1)*g.w])
		}
	}
	if t == scene.FontSDF {
		for _, g := range glyphs {
			coverageToSDF(atlas, g.atlasX-pad, g.atlasY-pad, g.w+2*pad, g.h+2*pad)
		}
	}

	tex := scene.NewTexture(name+"_atlas", atlas)
	tex.Filter = scene.FilterBilinear
	tex.Mipmap = false
	tex.Wrap = scene.WrapClamp

	out := make([]scene.Glyph, len(glyphs))
	for i, g := range glyphs {
		out[i] = scene.Glyph{
			Rune: g.r,
			Atlas: core.Rect{
				X: float32(g.atlasX), Y: float32(g.atlasY),
				Width: float32(g.w), Height: float32(g.h),
			},
			OffsetX: g.offX,
			OffsetY: g.offY,
			Advance: g.adv,
		}
	}
	return scene.NewFont(t, baseSize, lineGap, pad, tex, out), nil
}

// coverageToSDF rewrites one atlas cell from coverage to a signed distance
// field: 0.5 on the glyph edge, larger inside, smaller outside, saturating
// at sdfSpread pixels.
func coverageToSDF(img *scene.Image, cx, cy, cw, ch int) {
	src := make([]bool, cw*ch)
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			src[y*cw+x] = img.Pixels[(cy+y)*img.Width+cx+x] >= 128
		}
	}
	at := func(x, y int) bool {
		if x < 0 || y < 0 || x >= cw || y >= ch {
			return false
		}
		return src[y*cw+x]
	}
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			inside := src[y*cw+x]
			best := float32(sdfSpread)
			for dy := -sdfSpread; dy <= sdfSpread; dy++ {
				for dx := -sdfSpread; dx <= sdfSpread; dx++ {
					if at(x+dx, y+dy) == inside {
						continue
					}
					d := math.Sqrt(float32(dx*dx + dy*dy))
					if d < best {
						best = d
					}
				}
			}
			v := 0.5 + best/(2*sdfSpread)
			if !inside {
				v = 0.5 - best/(2*sdfSpread)
			}
			img.Pixels[(cy+y)*img.Width+cx+x] = byte(math.Clamp(v, 0, 1) * 255)
		}
	}
}
