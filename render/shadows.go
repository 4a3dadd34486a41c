package render

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/internal/opengl"
	"nexium/math"
	"nexium/pool"
	"nexium/scene"
)

// renderShadows assigns shadow map slots, re-renders the maps that are
// due, and returns the frame's light uniform list for the color passes.
func (e *engineState) renderShadows(cam *scene.Camera, aspect float32) []opengl.LightUniform {
	var active []*scene.Light
	e.lights.Range(func(_ pool.Handle, l *scene.Light) bool {
		if l.Active {
			active = append(active, l)
		}
		return true
	})

	// Slot assignment: shadow-casting lights in priority order claim the
	// fixed 2D and cube slots; the rest render unshadowed.
	var shadowed []*scene.Light
	for _, l := range active {
		if l.Shadow.Active {
			shadowed = append(shadowed, l)
		}
		l.Shadow.MapIndex = -1
	}
	sortShadowLights(shadowed, cam.Position)

	next2D, nextCube := 0, 0
	for _, l := range shadowed {
		if l.Type == scene.LightOmni {
			if nextCube < opengl.MaxShadowCubes {
				l.Shadow.MapIndex = nextCube
				nextCube++
			}
		} else if next2D < opengl.MaxShadowMaps {
			l.Shadow.MapIndex = next2D
			next2D++
		}
	}

	now := e.window.Time()
	depthProg := e.pipeline.Depth
	rendered := false

	for _, l := range shadowed {
		if l.Shadow.MapIndex < 0 || !l.NeedsShadowUpdate(now) {
			continue
		}
		if !rendered {
			depthProg.Use()
			setCameraUniforms(depthProg, cam)
			rendered = true
		}
		e.renderShadowLight(l, cam, aspect, depthProg)
		l.ShadowRendered(now)
	}
	if rendered {
		gl.UseProgram(0)
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	}

	return e.buildLightUniforms(active)
}

// renderShadowLight renders every face of one light's shadow map.
func (e *engineState) renderShadowLight(l *scene.Light, cam *scene.Camera, aspect float32, prog *opengl.Program) {
	prog.SetFloat("uShadowBias", l.Shadow.Bias)
	prog.SetFloat("uSlopeBias", l.Shadow.SlopeBias)

	switch l.Type {
	case scene.LightOmni:
		sm := e.shadowCubes[l.Shadow.MapIndex]
		prog.SetInt("uDistanceMode", 1)
		prog.SetVec3("uLightPos", l.Position)
		prog.SetFloat("uLightFar", l.Range)
		for face := 0; face < 6; face++ {
			sm.BindFace(face)
			vp := omniFaceVP(l, face)
			prog.SetMat4("uLightVP", vp)
			e.drawShadowCasters(l, prog)
		}
	default:
		sm := e.shadowMaps[l.Shadow.MapIndex]
		prog.SetInt("uDistanceMode", 0)
		var vp math.Mat4
		if l.Type == scene.LightDirectional {
			vp = directionalShadowVP(l, cam, aspect, int(sm.Size))
		} else {
			vp = spotShadowVP(l)
		}
		e.lightVPs[l] = vp
		sm.BindFace(0)
		prog.SetMat4("uLightVP", vp)
		e.drawShadowCasters(l, prog)
	}
}

func (e *engineState) drawShadowCasters(l *scene.Light, prog *opengl.Program) {
	for i := range e.bucket.calls {
		c := &e.bucket.calls[i]
		if !c.castsShadow(l.ShadowCullMask) {
			continue
		}
		mat := c.material
		prog.SetInt("uBillboard", int32(mat.Billboard))

		face := scene.ShadowFaceAuto
		if c.kind == drawStatic {
			face = c.mesh.ShadowFace
		}
		opengl.ApplyShadowFaceMode(face, mat.Cull)

		g, prim := e.bindCallGeometry(prog, c)
		opengl.DrawGeometry(g, prim, c.instances, c.instanceCount)
		e.stats.ShadowDraws++
	}
}

// buildLightUniforms converts the active lights into the shader mirror,
// attaching slot indices and shadow matrices.
func (e *engineState) buildLightUniforms(active []*scene.Light) []opengl.LightUniform {
	out := make([]opengl.LightUniform, 0, len(active))
	for _, l := range active {
		lu := opengl.LightUniform{
			Type:           int32(l.Type),
			CullMask:       l.CullMask,
			Position:       l.Position,
			Direction:      l.Direction.Normalize(),
			Color:          math.Vec3{X: l.Color.R, Y: l.Color.G, Z: l.Color.B},
			Energy:         l.Energy,
			Specular:       l.Specular,
			Range:          l.Range,
			Attenuation:    l.Attenuation,
			InnerCutoff:    l.InnerCutoff,
			OuterCutoff:    l.OuterCutoff,
			ShadowMap:      -1,
			ShadowCube:     -1,
			ShadowSoftness: l.Shadow.Softness,
		}
		if l.Shadow.Active && l.Shadow.MapIndex >= 0 {
			if l.Type == scene.LightOmni {
				lu.ShadowCube = int32(l.Shadow.MapIndex)
			} else {
				lu.ShadowMap = int32(l.Shadow.MapIndex)
				lu.ShadowVP = e.lightVPs[l]
			}
		}
		out = append(out, lu)
	}
	return out
}
