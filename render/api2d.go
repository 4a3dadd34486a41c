package render

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/core"
	"nexium/scene"
)

// Begin2D starts overlay collection. 2D drawing composites over the 3D
// result, so call it after End3D.
func Begin2D() {
	if !ready("Begin2D") {
		return
	}
	if engine.batch.active {
		core.Logger().Warn("Begin2D inside an open Begin2D/End2D scope")
		return
	}
	engine.batch.begin()
}

// End2D submits the collected batches to the GPU.
func End2D() {
	if !ready("End2D") {
		return
	}
	e := engine
	if !e.batch.active {
		core.Logger().Warn("End2D without Begin2D")
		return
	}
	e.batch.end()

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	fbW, fbH := e.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbW), int32(fbH))

	e.overlayGPU.Draw(e.batch.verts, e.batch.indices, e.batch.calls,
		float32(e.config.Res2DWidth), float32(e.config.Res2DHeight), int32(fbH))
	e.stats.DrawCalls2D += len(e.batch.calls)
}

func batch2D(call string) *overlayBatcher {
	if !ready(call) {
		return nil
	}
	if !engine.batch.active {
		core.Logger().Warn(call + " outside Begin2D/End2D")
		return nil
	}
	return engine.batch
}

// SetColor2D sets the tint applied to subsequent geometry.
func SetColor2D(c core.Color) {
	if b := batch2D("SetColor2D"); b != nil {
		b.color = c
	}
}

// SetTexture2D sets the texture sampled by shape drawing; nil reverts to
// solid fill.
func SetTexture2D(t *scene.Texture) {
	if b := batch2D("SetTexture2D"); b != nil {
		b.texture = t
	}
}

// SetFont2D selects the font used by DrawText2D.
func SetFont2D(f *scene.Font) {
	if b := batch2D("SetFont2D"); b != nil {
		b.font = f
	}
}

// SetShader2D overrides the overlay pipeline; nil reverts to built-in.
func SetShader2D(s *scene.Shader2D) {
	if b := batch2D("SetShader2D"); b != nil {
		b.shader = s
	}
}

// SetBlend2D selects the blend mode for subsequent geometry.
func SetBlend2D(mode scene.BlendMode) {
	if b := batch2D("SetBlend2D"); b != nil {
		b.blend = mode
	}
}

// SetScissor2D clips subsequent drawing to a framebuffer rectangle.
func SetScissor2D(s core.Scissor) {
	if b := batch2D("SetScissor2D"); b != nil {
		b.scissor = s
	}
}

// Push2D saves the current transform and scissor.
func Push2D() {
	if b := batch2D("Push2D"); b != nil {
		b.push()
	}
}

// Pop2D restores the last pushed transform and scissor.
func Pop2D() {
	if b := batch2D("Pop2D"); b != nil {
		if !b.pop() {
			core.Logger().Warn("Pop2D without matching Push2D")
		}
	}
}

// Translate2D offsets the current transform.
func Translate2D(x, y float32) {
	if b := batch2D("Translate2D"); b != nil {
		b.translate(x, y)
	}
}

// Rotate2D rotates the current transform by angle radians.
func Rotate2D(angle float32) {
	if b := batch2D("Rotate2D"); b != nil {
		b.rotate(angle)
	}
}

// Scale2D scales the current transform.
func Scale2D(x, y float32) {
	if b := batch2D("Scale2D"); b != nil {
		b.scale(x, y)
	}
}

// DrawRect2D draws a filled (or textured) rectangle.
func DrawRect2D(x, y, w, h float32) {
	if b := batch2D("DrawRect2D"); b != nil {
		b.rect(x, y, w, h, core.Rect{Width: 1, Height: 1})
	}
}

// DrawTextureRect2D draws a rectangle sampling the sub-region uv of the
// current texture (normalized coordinates).
func DrawTextureRect2D(x, y, w, h float32, uv core.Rect) {
	if b := batch2D("DrawTextureRect2D"); b != nil {
		b.rect(x, y, w, h, uv)
	}
}

// DrawLine2D draws a line segment. Positive thickness is in virtual
// pixels and is DPI-scaled; negative thickness is literal pixels.
func DrawLine2D(x1, y1, x2, y2, thickness float32) {
	if b := batch2D("DrawLine2D"); b != nil {
		b.line(x1, y1, x2, y2, thickness)
	}
}

// DrawTriangle2D draws one filled triangle.
func DrawTriangle2D(x1, y1, x2, y2, x3, y3 float32) {
	if b := batch2D("DrawTriangle2D"); b != nil {
		b.triangle(x1, y1, x2, y2, x3, y3)
	}
}

// DrawText2D draws a single-line string at the pen position with the
// current font, returning the horizontal advance.
func DrawText2D(text string, x, y, size float32) float32 {
	if b := batch2D("DrawText2D"); b != nil {
		return b.text(text, x, y, size)
	}
	return 0
}

// MeasureText2D measures a single-line string with the current font.
func MeasureText2D(text string, size float32) (float32, float32) {
	if b := batch2D("MeasureText2D"); b != nil && b.font != nil {
		return b.font.MeasureText(text, size)
	}
	return 0, 0
}
