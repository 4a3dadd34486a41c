package render

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/core"
	"nexium/internal/opengl"
	"nexium/math"
	"nexium/scene"
)

// Begin3D starts draw-call collection. Nil camera, environment or target
// fall back to the engine defaults and the window backbuffer.
func Begin3D(cam *scene.Camera, env *scene.Environment, target *RenderTexture) {
	if !ready("Begin3D") {
		return
	}
	e := engine
	if e.in3D {
		core.Logger().Warn("Begin3D inside an open Begin3D/End3D scope")
		return
	}
	if cam == nil {
		cam = e.defaultCamera
	}
	if env == nil {
		env = e.defaultEnv
	}
	e.cam = cam
	e.env = env
	e.target = target
	e.bucket.reset()
	e.in3D = true
}

func aspect3D() float32 {
	return float32(engine.config.Res3DWidth) / float32(engine.config.Res3DHeight)
}

// pushDraw culls, keys and stores one draw call.
func (e *engineState) pushDraw(c drawCall, prim scene.PrimitiveType, vertexCount int) {
	if vertexCount < prim.MinVertexCount() {
		return
	}
	if c.material == nil {
		c.material = e.defaultMaterial
	}

	cam := e.cam
	if c.hasAABB && c.instances == nil {
		fr := cam.Frustum(aspect3D())
		if !c.worldAABB.IntersectsFrustum(&fr) {
			e.stats.Culled++
			return
		}
	}

	// Depth along the view direction for sorting.
	var ref math.Vec3
	if c.hasAABB {
		ref = c.worldAABB.Center()
	} else {
		ref = math.Vec3{X: c.transform[3][0], Y: c.transform[3][1], Z: c.transform[3][2]}
	}
	depth := ref.Sub(cam.Position).Dot(cam.GetForward())

	var meshID uint32
	if c.kind == drawStatic {
		meshID = c.mesh.ID
	} else {
		meshID = c.dyn.ID
	}
	c.key = sortKey(c.material.Blend, depth, cam.Near, cam.Far, c.material.ID, meshID)

	e.bucket.push(c)
	e.stats.Objects++
	e.stats.Vertices += vertexCount
	if prim == scene.PrimTriangles {
		e.stats.Triangles += vertexCount / 3
	}
}

// DrawMesh3D submits a static mesh with a world transform.
func DrawMesh3D(mesh *scene.Mesh, material *scene.Material, transform core.Transform) {
	if !ready("DrawMesh3D") {
		return
	}
	e := engine
	if !e.in3D {
		core.Logger().Warn("DrawMesh3D outside Begin3D/End3D")
		return
	}
	if mesh == nil {
		core.Logger().Warn("DrawMesh3D: nil mesh")
		return
	}
	world := math.Mat4TRS(transform.Position, transform.Rotation, transform.Scale)
	c := drawCall{
		kind:      drawStatic,
		mesh:      mesh,
		material:  material,
		transform: world,
		layerMask: mesh.LayerMask,
	}
	if mesh.HasAABB && !mesh.AABB.IsEmpty() {
		c.worldAABB = mesh.AABB.Transform(world)
		c.hasAABB = true
	}
	e.pushDraw(c, mesh.Primitive, mesh.VertexCount())
}

// DrawMeshInstanced3D submits count instances driven by the buffer's
// streams. No per-instance culling is performed.
func DrawMeshInstanced3D(mesh *scene.Mesh, material *scene.Material,
	instances *scene.InstanceBuffer, count int, transform core.Transform) {

	if !ready("DrawMeshInstanced3D") {
		return
	}
	e := engine
	if !e.in3D {
		core.Logger().Warn("DrawMeshInstanced3D outside Begin3D/End3D")
		return
	}
	if mesh == nil || instances == nil {
		core.Logger().Warn("DrawMeshInstanced3D: nil mesh or instance buffer")
		return
	}
	if count <= 0 || count > instances.Count {
		count = instances.Count
	}
	c := drawCall{
		kind:          drawStatic,
		mesh:          mesh,
		material:      material,
		transform:     math.Mat4TRS(transform.Position, transform.Rotation, transform.Scale),
		instances:     instances,
		instanceCount: count,
		layerMask:     mesh.LayerMask,
	}
	e.pushDraw(c, mesh.Primitive, mesh.VertexCount())
}

// DrawDynamicMesh3D submits the current contents of a dynamic mesh.
func DrawDynamicMesh3D(dyn *scene.DynamicMesh, material *scene.Material, transform core.Transform) {
	if !ready("DrawDynamicMesh3D") {
		return
	}
	e := engine
	if !e.in3D {
		core.Logger().Warn("DrawDynamicMesh3D outside Begin3D/End3D")
		return
	}
	if dyn == nil || !dyn.Drawable() {
		return
	}
	world := math.Mat4TRS(transform.Position, transform.Rotation, transform.Scale)
	c := drawCall{
		kind:      drawDynamic,
		dyn:       dyn,
		material:  material,
		transform: world,
		layerMask: dyn.LayerMask,
	}
	if box := dyn.ComputeAABB(); !box.IsEmpty() {
		c.worldAABB = box.Transform(world)
		c.hasAABB = true
	}
	e.pushDraw(c, dyn.Primitive, len(dyn.Vertices))
}

// DrawModel3D submits every mesh of a model with its assigned material.
// Skinned models are drawn in bind pose.
func DrawModel3D(model *scene.Model, transform core.Transform) {
	drawModel(model, nil, 0, transform, nil, 0)
}

// DrawModelAnimated3D submits a model posed by an animation frame.
func DrawModelAnimated3D(model *scene.Model, anim *scene.Animation, frame int, transform core.Transform) {
	if !ready("DrawModelAnimated3D") {
		return
	}
	var bones []math.Mat4
	if model != nil && anim != nil && model.Skeleton != nil {
		bones = anim.SkinMatrices(model.Skeleton, frame)
	}
	drawModel(model, nil, 0, transform, bones, 0)
}

// DrawModelInstanced3D submits count instances of every mesh in the model.
func DrawModelInstanced3D(model *scene.Model, instances *scene.InstanceBuffer, count int, transform core.Transform) {
	drawModel(model, instances, count, transform, nil, 0)
}

func drawModel(model *scene.Model, instances *scene.InstanceBuffer, count int,
	transform core.Transform, bones []math.Mat4, _ int) {

	if !ready("DrawModel3D") {
		return
	}
	e := engine
	if !e.in3D {
		core.Logger().Warn("DrawModel3D outside Begin3D/End3D")
		return
	}
	if model == nil {
		core.Logger().Warn("DrawModel3D: nil model")
		return
	}
	world := math.Mat4TRS(transform.Position, transform.Rotation, transform.Scale)
	for i, mesh := range model.Meshes {
		c := drawCall{
			kind:      drawStatic,
			mesh:      mesh,
			material:  model.MaterialFor(i),
			transform: world,
			bones:     bones,
			layerMask: mesh.LayerMask,
		}
		if instances != nil {
			c.instances = instances
			c.instanceCount = count
			if c.instanceCount <= 0 || c.instanceCount > instances.Count {
				c.instanceCount = instances.Count
			}
		} else if mesh.HasAABB && !mesh.AABB.IsEmpty() && bones == nil {
			c.worldAABB = mesh.AABB.Transform(world)
			c.hasAABB = true
		}
		e.pushDraw(c, mesh.Primitive, mesh.VertexCount())
	}
}

// End3D runs the fixed pass pipeline over the collected bucket and
// composites into the Begin3D target or the window backbuffer.
func End3D() {
	if !ready("End3D") {
		return
	}
	e := engine
	if !e.in3D {
		core.Logger().Warn("End3D without Begin3D")
		return
	}
	e.in3D = false

	cam, env := e.cam, e.env
	aspect := aspect3D()
	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(aspect)

	// 1. Shadow maps for lights due an update.
	lightUniforms := e.renderShadows(cam, aspect)

	// 2+3. Depth+normal prepass and SSAO. The prepass also runs without
	// SSAO when a bucketed material asked for it, restricted to those
	// materials.
	var ssaoTex uint32
	if env.SSAO.Enabled || e.bucket.prePass {
		e.renderPrepass(view, proj, cam, env.SSAO.Enabled)
		if env.SSAO.Enabled {
			ssaoTex = e.ssao.Render(env.SSAO, proj, proj.Inverse())
		}
	}

	// 4-6. Color passes into the HDR target.
	e.bucket.sort()
	e.renderColor(view, proj, cam, env, lightUniforms, ssaoTex)

	// 7+8. Resolve, bloom, tonemap, letterboxed blit.
	hdr := e.post.ResolvedTexture()
	bloomTex := e.post.RenderBloom(env.Bloom, hdr)
	e.bindOutput()
	e.post.Composite(hdr, bloomTex, env.Bloom, env.Tonemap, env.Adjustment)

	e.bucket.reset()
	e.cam, e.env, e.target = nil, nil, nil
}

// bindOutput targets the render texture or backbuffer with a letterbox
// viewport preserving the 3D aspect ratio.
func (e *engineState) bindOutput() {
	srcW := float32(e.config.Res3DWidth)
	srcH := float32(e.config.Res3DHeight)

	var dstW, dstH int32
	if e.target != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, e.target.fb.ID)
		dstW, dstH = int32(e.target.Width), int32(e.target.Height)
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		w, h := e.window.GetFramebufferSize()
		dstW, dstH = int32(w), int32(h)
	}

	gl.Viewport(0, 0, dstW, dstH)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	scale := float32(dstW) / srcW
	if s := float32(dstH) / srcH; s < scale {
		scale = s
	}
	vw := int32(srcW * scale)
	vh := int32(srcH * scale)
	gl.Viewport((dstW-vw)/2, (dstH-vh)/2, vw, vh)
}

// setCameraUniforms uploads the shared camera vectors the vertex prelude
// needs for billboards.
func setCameraUniforms(prog *opengl.Program, cam *scene.Camera) {
	prog.SetVec3("uCameraRight", cam.GetRight())
	prog.SetVec3("uCameraUp", cam.GetUp())
	prog.SetVec3("uCameraPos", cam.Position)
}

// bindCallGeometry sets the per-draw vertex uniforms and returns the GPU
// mesh handle, syncing dynamic meshes and instance streams first.
func (e *engineState) bindCallGeometry(prog *opengl.Program, c *drawCall) (*opengl.GPUMesh, scene.PrimitiveType) {
	prog.SetMat4("uModel", c.transform)
	if len(c.bones) > 0 {
		prog.SetInt("uSkinned", 1)
		prog.SetMat4Slice("uBones", c.bones)
	} else {
		prog.SetInt("uSkinned", 0)
	}

	if c.instances != nil {
		opengl.SyncInstanceBuffer(c.instances)
	}

	switch c.kind {
	case drawDynamic:
		if c.dyn.Dirty {
			if err := opengl.UploadDynamicMesh(c.dyn); err != nil {
				core.Logger().Error((&core.GpuError{Op: "upload dynamic mesh", Err: err}).Error())
				return nil, c.dyn.Primitive
			}
		}
		g, _ := c.dyn.GPUData.(*opengl.GPUMesh)
		return g, c.dyn.Primitive
	default:
		g, _ := c.mesh.GPUData.(*opengl.GPUMesh)
		return g, c.mesh.Primitive
	}
}

// renderPrepass draws opaque geometry into the SSAO G-buffer, writing
// depth and view-space normal. With all unset only materials whose
// Depth.PrePass is on are drawn.
func (e *engineState) renderPrepass(view, proj math.Mat4, cam *scene.Camera, all bool) {
	e.ssao.Prepass.Bind()
	gl.ClearColor(0.5, 0.5, 1, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)

	prog := e.ssao.PrepassProgram()
	prog.Use()
	prog.SetMat4("uView", view)
	prog.SetMat4("uProj", proj)
	setCameraUniforms(prog, cam)

	for i := range e.bucket.calls {
		c := &e.bucket.calls[i]
		if !c.prepassEligible(all) {
			continue
		}
		prog.SetInt("uBillboard", int32(c.material.Billboard))
		g, prim := e.bindCallGeometry(prog, c)
		opengl.DrawGeometry(g, prim, c.instances, c.instanceCount)
	}
	gl.UseProgram(0)
}

// renderColor runs the opaque, sky and transparent passes over the sorted
// bucket into the HDR scene target.
func (e *engineState) renderColor(view, proj math.Mat4, cam *scene.Camera,
	env *scene.Environment, lightUniforms []opengl.LightUniform, ssaoTex uint32) {

	e.post.Scene.Bind()
	bg := env.Background
	gl.ClearColor(bg.R, bg.G, bg.B, bg.A)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	prog := e.pipeline.Scene
	prog.Use()
	prog.SetMat4("uView", view)
	prog.SetMat4("uProj", proj)
	setCameraUniforms(prog, cam)
	e.setEnvironmentUniforms(prog, env, ssaoTex)
	e.bindShadowTextures()

	frustum := cam.Frustum(aspect3D())
	skyDrawn := false

	for i := range e.bucket.calls {
		c := &e.bucket.calls[i]
		if !c.colorVisible() {
			continue
		}
		if c.layerMask&cam.CullMask == 0 {
			continue
		}

		// The bucket is sorted opaque first; the sky slots in between.
		if c.translucent() && !skyDrawn {
			e.drawSkyPass(env, view, proj)
			skyDrawn = true
			prog.Use()
		}

		if c.material.Shader != nil {
			e.drawUserShaderCall(c, view, proj, cam)
			prog.Use()
			continue
		}

		lights := cullLightsForCall(lightUniforms, c, &frustum)
		e.pipeline.SetLights(lights)
		e.pipeline.BindMaterial(c.material)

		g, prim := e.bindCallGeometry(prog, c)
		opengl.DrawGeometry(g, prim, c.instances, c.instanceCount)
		e.stats.DrawCalls3D++
	}

	if !skyDrawn {
		e.drawSkyPass(env, view, proj)
	}

	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	gl.UseProgram(0)
}

func (e *engineState) drawSkyPass(env *scene.Environment, view, proj math.Mat4) {
	if env.Sky.Cubemap == nil {
		return
	}
	e.sky.DrawSky(env, view.Inverse(), proj.Inverse())
}

// drawUserShaderCall renders one draw through a user material shader,
// bypassing the built-in lighting.
func (e *engineState) drawUserShaderCall(c *drawCall, view, proj math.Mat4, cam *scene.Camera) {
	us, err := opengl.EnsureMaterialShader(c.material.Shader)
	if err != nil {
		return
	}
	s := c.material.Shader
	us.Bind(&s.StaticData, s.DynamicData[:s.DynamicUsed], s.Textures, 0)
	us.Prog.SetMat4("uView", view)
	us.Prog.SetMat4("uProj", proj)
	setCameraUniforms(us.Prog, cam)
	us.Prog.SetInt("uBillboard", int32(c.material.Billboard))

	opengl.ApplyBlendMode(c.material.Blend)
	opengl.ApplyCullMode(c.material.Cull)

	g, prim := e.bindCallGeometry(us.Prog, c)
	opengl.DrawGeometry(g, prim, c.instances, c.instanceCount)
	e.stats.DrawCalls3D++
}

// setEnvironmentUniforms uploads ambient, probe, fog and SSAO state once
// per frame.
func (e *engineState) setEnvironmentUniforms(prog *opengl.Program, env *scene.Environment, ssaoTex uint32) {
	prog.SetVec3("uAmbient", math.Vec3{X: env.Ambient.R, Y: env.Ambient.G, Z: env.Ambient.B})

	hasProbe := int32(0)
	if env.Sky.Probe != nil {
		if gp, ok := env.Sky.Probe.GPUData.(*opengl.GPUProbe); ok {
			hasProbe = 1
			gl.ActiveTexture(gl.TEXTURE0 + 4)
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, gp.Irradiance)
			gl.ActiveTexture(gl.TEXTURE0 + 5)
			gl.BindTexture(gl.TEXTURE_CUBE_MAP, gp.Prefilter)
			gl.ActiveTexture(gl.TEXTURE0 + 6)
			gl.BindTexture(gl.TEXTURE_2D, e.sky.BRDFLUT)
			prog.SetFloat("uProbeMips", float32(gp.Mips))
		}
	}
	prog.SetInt("uHasProbe", hasProbe)
	rot := env.Sky.Rotation
	prog.SetVec4("uSkyRotation", math.Vec4{X: rot.X, Y: rot.Y, Z: rot.Z, W: rot.W})
	prog.SetFloat("uSkyIntensity", env.Sky.Intensity)
	prog.SetFloat("uSkySpecular", env.Sky.Specular)
	prog.SetFloat("uSkyDiffuse", env.Sky.Diffuse)

	if ssaoTex != 0 {
		gl.ActiveTexture(gl.TEXTURE0 + 7)
		gl.BindTexture(gl.TEXTURE_2D, ssaoTex)
		prog.SetInt("uHasSSAO", 1)
	} else {
		prog.SetInt("uHasSSAO", 0)
	}
	prog.SetVec2("uScreenSize", float32(e.config.Res3DWidth), float32(e.config.Res3DHeight))

	prog.SetInt("uFogMode", int32(env.Fog.Mode))
	prog.SetFloat("uFogDensity", env.Fog.Density)
	prog.SetFloat("uFogStart", env.Fog.Start)
	prog.SetFloat("uFogEnd", env.Fog.End)
	prog.SetVec3("uFogColor", math.Vec3{X: env.Fog.Color.R, Y: env.Fog.Color.G, Z: env.Fog.Color.B})
}

func (e *engineState) bindShadowTextures() {
	for i, sm := range e.shadowMaps {
		gl.ActiveTexture(gl.TEXTURE0 + 8 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, sm.DepthTex)
	}
	for i, sc := range e.shadowCubes {
		gl.ActiveTexture(gl.TEXTURE0 + 12 + uint32(i))
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, sc.DepthTex)
	}
}

// cullLightsForCall filters the frame's lights down to those that can
// affect one draw call: layer overlap plus range against the call's AABB.
func cullLightsForCall(all []opengl.LightUniform, c *drawCall, frustum *scene.Frustum) []opengl.LightUniform {
	out := make([]opengl.LightUniform, 0, opengl.MaxLightsPerDraw)
	for i := range all {
		lu := &all[i]
		if lu.CullMask&c.layerMask == 0 {
			continue
		}
		if lu.Type != int32(scene.LightDirectional) && c.hasAABB {
			if !c.worldAABB.IntersectsSphere(lu.Position, lu.Range) {
				continue
			}
		}
		out = append(out, *lu)
		if len(out) == opengl.MaxLightsPerDraw {
			break
		}
	}
	return out
}
