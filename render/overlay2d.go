package render

import (
	"nexium/core"
	"nexium/internal/opengl"
	"nexium/math"
	"nexium/scene"
)

// batchState is the key of one overlay draw call. Any change flushes the
// current call and opens a new one.
type batchState struct {
	mode    opengl.Batch2DMode
	texture uint32
	shader  *scene.Shader2D
	fontID  uint32
	blend   scene.BlendMode
	scissor core.Scissor
}

// stackFrame is the drawing state saved by push and restored by pop: the
// current transform and the scissor rectangle.
type stackFrame struct {
	xform   math.Mat3
	scissor core.Scissor
}

// overlayBatcher accumulates 2D geometry between Begin2D and End2D. It is
// pure CPU state; End2D hands the arrays to the GL overlay in one submit.
type overlayBatcher struct {
	verts   []opengl.Vertex2D
	indices []uint32
	calls   []opengl.Batch2DCall

	state   batchState
	hasCall bool

	xform math.Mat3
	stack []stackFrame

	color   core.Color
	texture *scene.Texture
	font    *scene.Font
	shader  *scene.Shader2D
	blend   scene.BlendMode
	scissor core.Scissor

	// dpiScale converts virtual pixels to framebuffer pixels for line
	// thickness. Positive thickness inputs are scaled; negative are literal.
	dpiScale float32

	active bool
}

func newOverlayBatcher() *overlayBatcher {
	return &overlayBatcher{dpiScale: 1}
}

func (o *overlayBatcher) begin() {
	o.verts = o.verts[:0]
	o.indices = o.indices[:0]
	o.calls = o.calls[:0]
	o.hasCall = false
	o.xform = math.Mat3Identity()
	o.stack = o.stack[:0]
	o.color = core.ColorWhite
	o.texture = nil
	o.font = nil
	o.shader = nil
	o.blend = scene.BlendAlpha
	o.scissor = core.Scissor{}
	o.active = true
}

func (o *overlayBatcher) end() {
	if len(o.stack) > 0 {
		core.Logger().Warn("End2D with unbalanced Push2D", "depth", len(o.stack))
		o.stack = o.stack[:0]
	}
	o.active = false
}

func (o *overlayBatcher) currentState(mode opengl.Batch2DMode) batchState {
	s := batchState{
		mode:    mode,
		shader:  o.shader,
		blend:   o.blend,
		scissor: o.scissor,
	}
	switch mode {
	case opengl.Batch2DText, opengl.Batch2DTextSDF:
		if o.font != nil {
			s.fontID = o.font.ID
			s.texture = opengl.TextureID(o.font.Atlas)
		}
	default:
		if o.texture != nil {
			s.texture = opengl.TextureID(o.texture)
		}
	}
	return s
}

// ensureDrawCall opens a new draw call when the batch state changed,
// then reserves space for vCount vertices and iCount indices. Returns the
// base vertex index for the new geometry.
func (o *overlayBatcher) ensureDrawCall(mode opengl.Batch2DMode, vCount, iCount int) uint32 {
	s := o.currentState(mode)
	if !o.hasCall || s != o.state {
		o.calls = append(o.calls, opengl.Batch2DCall{
			IndexOffset: int32(len(o.indices)),
			Texture:     s.texture,
			Mode:        s.mode,
			Blend:       s.blend,
			Scissor:     s.scissor,
			Shader:      s.shader,
		})
		o.state = s
		o.hasCall = true
	}
	o.calls[len(o.calls)-1].IndexCount += int32(iCount)
	return uint32(len(o.verts))
}

func (o *overlayBatcher) pushVertex(p math.Vec2, uv math.Vec2) {
	p = o.xform.MulPoint(p)
	o.verts = append(o.verts, opengl.Vertex2D{Pos: p, UV: uv, Color: o.color})
}

func (o *overlayBatcher) push() {
	o.stack = append(o.stack, stackFrame{xform: o.xform, scissor: o.scissor})
}

func (o *overlayBatcher) pop() bool {
	if len(o.stack) == 0 {
		return false
	}
	f := o.stack[len(o.stack)-1]
	o.stack = o.stack[:len(o.stack)-1]
	o.xform = f.xform
	o.scissor = f.scissor
	return true
}

func (o *overlayBatcher) translate(x, y float32) {
	o.xform = math.Mat3Translation(x, y).Mul(o.xform)
}

func (o *overlayBatcher) rotate(angle float32) {
	o.xform = math.Mat3Rotation(angle).Mul(o.xform)
}

func (o *overlayBatcher) scale(x, y float32) {
	o.xform = math.Mat3Scale(x, y).Mul(o.xform)
}

// rect emits one textured quad covering [x,x+w)×[y,y+h) with the given UV
// rectangle.
func (o *overlayBatcher) rect(x, y, w, h float32, uv core.Rect) {
	base := o.ensureDrawCall(opengl.Batch2DShape, 4, 6)
	o.pushVertex(math.Vec2{X: x, Y: y}, math.Vec2{X: uv.X, Y: uv.Y})
	o.pushVertex(math.Vec2{X: x + w, Y: y}, math.Vec2{X: uv.X + uv.Width, Y: uv.Y})
	o.pushVertex(math.Vec2{X: x + w, Y: y + h}, math.Vec2{X: uv.X + uv.Width, Y: uv.Y + uv.Height})
	o.pushVertex(math.Vec2{X: x, Y: y + h}, math.Vec2{X: uv.X, Y: uv.Y + uv.Height})
	o.indices = append(o.indices,
		base, base+1, base+2,
		base, base+2, base+3)
}

// line emits a miter-free extruded quad between two points. Positive
// thickness is in virtual pixels (DPI-scaled); negative thickness is
// literal framebuffer pixels.
func (o *overlayBatcher) line(x1, y1, x2, y2, thickness float32) {
	if thickness < 0 {
		thickness = -thickness
	} else {
		thickness *= o.dpiScale
	}
	dx, dy := x2-x1, y2-y1
	length := math.Sqrt(dx*dx + dy*dy)
	if length < 1e-6 {
		return
	}
	// Perpendicular, half thickness each side.
	nx := -dy / length * thickness * 0.5
	ny := dx / length * thickness * 0.5

	base := o.ensureDrawCall(opengl.Batch2DShape, 4, 6)
	o.pushVertex(math.Vec2{X: x1 + nx, Y: y1 + ny}, math.Vec2{})
	o.pushVertex(math.Vec2{X: x2 + nx, Y: y2 + ny}, math.Vec2{X: 1})
	o.pushVertex(math.Vec2{X: x2 - nx, Y: y2 - ny}, math.Vec2{X: 1, Y: 1})
	o.pushVertex(math.Vec2{X: x1 - nx, Y: y1 - ny}, math.Vec2{Y: 1})
	o.indices = append(o.indices,
		base, base+1, base+2,
		base, base+2, base+3)
}

// triangle emits one solid triangle.
func (o *overlayBatcher) triangle(x1, y1, x2, y2, x3, y3 float32) {
	base := o.ensureDrawCall(opengl.Batch2DShape, 3, 3)
	o.pushVertex(math.Vec2{X: x1, Y: y1}, math.Vec2{})
	o.pushVertex(math.Vec2{X: x2, Y: y2}, math.Vec2{X: 1})
	o.pushVertex(math.Vec2{X: x3, Y: y3}, math.Vec2{X: 0.5, Y: 1})
	o.indices = append(o.indices, base, base+1, base+2)
}

// text emits one quad per glyph of a single-line string at the pen
// position, using the current font. Returns the advance in virtual pixels.
func (o *overlayBatcher) text(s string, x, y, size float32) float32 {
	if o.font == nil {
		core.Logger().Warn("DrawText2D without a font set")
		return 0
	}
	f := o.font
	mode := opengl.Batch2DText
	if f.Type == scene.FontSDF {
		mode = opengl.Batch2DTextSDF
	}

	atlasW, atlasH := float32(1), float32(1)
	if f.Atlas != nil && f.Atlas.Image != nil {
		atlasW = float32(f.Atlas.Image.Width)
		atlasH = float32(f.Atlas.Image.Height)
	}

	glyphScale := size / f.BaseSize
	pen := x
	for _, r := range s {
		g := f.Glyph(r)
		if g.Atlas.Width > 0 && g.Atlas.Height > 0 {
			gx := pen + g.OffsetX*glyphScale
			gy := y + g.OffsetY*glyphScale
			gw := g.Atlas.Width * glyphScale
			gh := g.Atlas.Height * glyphScale

			u0 := g.Atlas.X / atlasW
			v0 := g.Atlas.Y / atlasH
			u1 := (g.Atlas.X + g.Atlas.Width) / atlasW
			v1 := (g.Atlas.Y + g.Atlas.Height) / atlasH

			base := o.ensureDrawCall(mode, 4, 6)
			o.pushVertex(math.Vec2{X: gx, Y: gy}, math.Vec2{X: u0, Y: v0})
			o.pushVertex(math.Vec2{X: gx + gw, Y: gy}, math.Vec2{X: u1, Y: v0})
			o.pushVertex(math.Vec2{X: gx + gw, Y: gy + gh}, math.Vec2{X: u1, Y: v1})
			o.pushVertex(math.Vec2{X: gx, Y: gy + gh}, math.Vec2{X: u0, Y: v1})
			o.indices = append(o.indices,
				base, base+1, base+2,
				base, base+2, base+3)
		}
		pen += g.Advance * glyphScale
	}
	return pen - x
}
