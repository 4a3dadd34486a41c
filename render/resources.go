package render

import (
	"fmt"

	"nexium/core"
	"nexium/internal/opengl"
	"nexium/scene"
)

// Resource creation goes through typed slab pools so returned pointers
// stay valid until the matching Destroy. All creation and destruction must
// happen on the render thread.

func notReadyErr(call string) error {
	return &core.MisuseError{Call: call, Msg: "engine not initialized"}
}

// CreateMesh uploads a static mesh and returns a stable pointer.
func CreateMesh(name string, vertices []core.Vertex, indices []uint32) (*scene.Mesh, error) {
	if !ready("CreateMesh") {
		return nil, notReadyErr("CreateMesh")
	}
	if len(vertices) == 0 {
		err := &core.ConfigError{Field: "vertices", Msg: "empty vertex array"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, m := engine.meshes.Acquire(*scene.NewMesh(name, vertices, indices))
	m.UpdateAABB()
	if err := opengl.UploadMesh(m); err != nil {
		engine.meshes.Release(h)
		gerr := &core.GpuError{Op: fmt.Sprintf("upload mesh %q", name), Err: err}
		core.Logger().Error(gerr.Error())
		return nil, gerr
	}
	engine.meshHandles[m] = h
	return m, nil
}

// CreateMeshFromGen pools a generated or imported mesh value.
func CreateMeshFromGen(m *scene.Mesh) (*scene.Mesh, error) {
	if !ready("CreateMeshFromGen") {
		return nil, notReadyErr("CreateMeshFromGen")
	}
	if m == nil || len(m.Vertices) == 0 {
		err := &core.ConfigError{Field: "mesh", Msg: "nil or empty mesh"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, pm := engine.meshes.Acquire(*m)
	if !pm.HasAABB {
		pm.UpdateAABB()
	}
	if err := opengl.UploadMesh(pm); err != nil {
		engine.meshes.Release(h)
		gerr := &core.GpuError{Op: fmt.Sprintf("upload mesh %q", m.Name), Err: err}
		core.Logger().Error(gerr.Error())
		return nil, gerr
	}
	engine.meshHandles[pm] = h
	return pm, nil
}

// DestroyMesh releases GPU then CPU storage.
func DestroyMesh(m *scene.Mesh) {
	if !ready("DestroyMesh") || m == nil {
		return
	}
	h, ok := engine.meshHandles[m]
	if !ok {
		core.Logger().Warn("DestroyMesh: unknown mesh", "name", m.Name)
		return
	}
	opengl.DeleteMeshGPU(m.GPUData)
	m.Destroy()
	delete(engine.meshHandles, m)
	engine.meshes.Release(h)
}

// CreateDynamicMesh returns an empty dynamic mesh ready for Begin.
func CreateDynamicMesh() (*scene.DynamicMesh, error) {
	if !ready("CreateDynamicMesh") {
		return nil, notReadyErr("CreateDynamicMesh")
	}
	h, d := engine.dynMeshes.Acquire(*scene.NewDynamicMesh())
	engine.dynHandles[d] = h
	return d, nil
}

// DestroyDynamicMesh releases the dynamic mesh.
func DestroyDynamicMesh(d *scene.DynamicMesh) {
	if !ready("DestroyDynamicMesh") || d == nil {
		return
	}
	h, ok := engine.dynHandles[d]
	if !ok {
		core.Logger().Warn("DestroyDynamicMesh: unknown mesh")
		return
	}
	opengl.DeleteMeshGPU(d.GPUData)
	delete(engine.dynHandles, d)
	engine.dynMeshes.Release(h)
}

// CreateInstanceBuffer allocates per-instance streams for count elements.
func CreateInstanceBuffer(streams scene.InstanceStream, count int) (*scene.InstanceBuffer, error) {
	if !ready("CreateInstanceBuffer") {
		return nil, notReadyErr("CreateInstanceBuffer")
	}
	if streams == 0 || count <= 0 {
		err := &core.ConfigError{Field: "instance buffer", Msg: "no streams or non-positive count"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, b := engine.instances.Acquire(*scene.NewInstanceBuffer(streams, count))
	engine.instanceHandles[b] = h
	return b, nil
}

// DestroyInstanceBuffer releases GPU streams and the pool slot.
func DestroyInstanceBuffer(b *scene.InstanceBuffer) {
	if !ready("DestroyInstanceBuffer") || b == nil {
		return
	}
	h, ok := engine.instanceHandles[b]
	if !ok {
		core.Logger().Warn("DestroyInstanceBuffer: unknown buffer")
		return
	}
	opengl.DeleteInstanceBufferGPU(b)
	delete(engine.instanceHandles, b)
	engine.instances.Release(h)
}

// CreateTexture uploads a decoded image as a sampled texture.
func CreateTexture(name string, img *scene.Image) (*scene.Texture, error) {
	if !ready("CreateTexture") {
		return nil, notReadyErr("CreateTexture")
	}
	if img == nil || len(img.Pixels) == 0 {
		err := &core.ConfigError{Field: "image", Msg: "nil or empty image"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, t := engine.textures.Acquire(*scene.NewTexture(name, img))
	if err := opengl.UploadTexture(t); err != nil {
		engine.textures.Release(h)
		gerr := &core.GpuError{Op: fmt.Sprintf("upload texture %q", name), Err: err}
		core.Logger().Error(gerr.Error())
		return nil, gerr
	}
	engine.textureHandles[t] = h
	return t, nil
}

// DestroyTexture frees the GPU texture and pool slot.
func DestroyTexture(t *scene.Texture) {
	if !ready("DestroyTexture") || t == nil {
		return
	}
	h, ok := engine.textureHandles[t]
	if !ok {
		core.Logger().Warn("DestroyTexture: unknown texture", "name", t.Name)
		return
	}
	opengl.DeleteTexture(t)
	delete(engine.textureHandles, t)
	engine.textures.Release(h)
}

// CreateMaterial returns a default lit material.
func CreateMaterial() (*scene.Material, error) {
	if !ready("CreateMaterial") {
		return nil, notReadyErr("CreateMaterial")
	}
	h, m := engine.materials.Acquire(*scene.DefaultMaterial())
	engine.materialHandles[m] = h
	return m, nil
}

// DestroyMaterial releases the material. Textures it references are not
// destroyed; they belong to the caller or an owning model.
func DestroyMaterial(m *scene.Material) {
	if !ready("DestroyMaterial") || m == nil {
		return
	}
	h, ok := engine.materialHandles[m]
	if !ok {
		core.Logger().Warn("DestroyMaterial: unknown material", "name", m.Name)
		return
	}
	delete(engine.materialHandles, m)
	engine.materials.Release(h)
}

// CreateMaterialShader wraps user GLSL for the 3D pipeline. Compilation is
// deferred to first draw on the render thread.
func CreateMaterialShader(vertex, fragment string) (*scene.MaterialShader, error) {
	if !ready("CreateMaterialShader") {
		return nil, notReadyErr("CreateMaterialShader")
	}
	if vertex == "" || fragment == "" {
		err := &core.ConfigError{Field: "shader", Msg: "empty shader source"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, s := engine.matShaders.Acquire(*scene.NewMaterialShader(vertex, fragment))
	engine.matShaderHandles[s] = h
	return s, nil
}

// DestroyMaterialShader frees the compiled program if any.
func DestroyMaterialShader(s *scene.MaterialShader) {
	if !ready("DestroyMaterialShader") || s == nil {
		return
	}
	h, ok := engine.matShaderHandles[s]
	if !ok {
		core.Logger().Warn("DestroyMaterialShader: unknown shader")
		return
	}
	if us, ok := s.GPUData.(*opengl.UserShader); ok {
		us.Destroy()
	}
	delete(engine.matShaderHandles, s)
	engine.matShaders.Release(h)
}

// CreateShader2D wraps user GLSL for the overlay.
func CreateShader2D(vertex, fragment string) (*scene.Shader2D, error) {
	if !ready("CreateShader2D") {
		return nil, notReadyErr("CreateShader2D")
	}
	if vertex == "" || fragment == "" {
		err := &core.ConfigError{Field: "shader", Msg: "empty shader source"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, s := engine.shaders2D.Acquire(*scene.NewShader2D(vertex, fragment))
	engine.shader2DHandles[s] = h
	return s, nil
}

// DestroyShader2D frees the compiled program if any.
func DestroyShader2D(s *scene.Shader2D) {
	if !ready("DestroyShader2D") || s == nil {
		return
	}
	h, ok := engine.shader2DHandles[s]
	if !ok {
		core.Logger().Warn("DestroyShader2D: unknown shader")
		return
	}
	if us, ok := s.GPUData.(*opengl.UserShader); ok {
		us.Destroy()
	}
	delete(engine.shader2DHandles, s)
	engine.shaders2D.Release(h)
}

// CreateLight allocates an inactive light of the given type.
func CreateLight(t scene.LightType) (*scene.Light, error) {
	if !ready("CreateLight") {
		return nil, notReadyErr("CreateLight")
	}
	h, l := engine.lights.Acquire(*scene.NewLight(t))
	engine.lightHandles[l] = h
	return l, nil
}

// DestroyLight releases the light and its shadow bookkeeping.
func DestroyLight(l *scene.Light) {
	if !ready("DestroyLight") || l == nil {
		return
	}
	h, ok := engine.lightHandles[l]
	if !ok {
		core.Logger().Warn("DestroyLight: unknown light")
		return
	}
	delete(engine.lightVPs, l)
	delete(engine.lightHandles, l)
	engine.lights.Release(h)
}

// GenerateCubemap renders a procedural sky described by box into a new
// cubemap of size×size per face.
func GenerateCubemap(box scene.Skybox, size int) (*scene.Cubemap, error) {
	if !ready("GenerateCubemap") {
		return nil, notReadyErr("GenerateCubemap")
	}
	if size <= 0 {
		err := &core.ConfigError{Field: "size", Msg: "non-positive cubemap size"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, cm := engine.cubemaps.Acquire(scene.Cubemap{})
	if err := engine.sky.GenerateSkybox(cm, box, size); err != nil {
		engine.cubemaps.Release(h)
		gerr := &core.GpuError{Op: "generate skybox", Err: err}
		core.Logger().Error(gerr.Error())
		return nil, gerr
	}
	engine.cubemapHandles[cm] = h
	return cm, nil
}

// CreateCubemap uploads six decoded face images in +X,-X,+Y,-Y,+Z,-Z order.
func CreateCubemap(faces [6]*scene.Image) (*scene.Cubemap, error) {
	if !ready("CreateCubemap") {
		return nil, notReadyErr("CreateCubemap")
	}
	h, cm := engine.cubemaps.Acquire(scene.Cubemap{Faces: faces})
	if err := opengl.UploadCubemap(cm); err != nil {
		engine.cubemaps.Release(h)
		gerr := &core.GpuError{Op: "upload cubemap", Err: err}
		core.Logger().Error(gerr.Error())
		return nil, gerr
	}
	engine.cubemapHandles[cm] = h
	return cm, nil
}

// UpdateCubemap re-renders a procedural sky into an existing cubemap,
// releasing the previous GPU texture. Probes derived from it keep their
// old contents until regenerated with UpdateReflectionProbe.
func UpdateCubemap(cm *scene.Cubemap, box scene.Skybox, size int) error {
	if !ready("UpdateCubemap") {
		return notReadyErr("UpdateCubemap")
	}
	if cm == nil {
		err := &core.ConfigError{Field: "cubemap", Msg: "nil cubemap"}
		core.Logger().Error(err.Error())
		return err
	}
	if _, ok := engine.cubemapHandles[cm]; !ok {
		err := &core.MisuseError{Call: "UpdateCubemap", Msg: "unknown cubemap"}
		core.Logger().Warn(err.Error())
		return err
	}
	if size <= 0 {
		size = cm.Size
	}
	opengl.DeleteCubemap(cm)
	if err := engine.sky.GenerateSkybox(cm, box, size); err != nil {
		gerr := &core.GpuError{Op: "regenerate skybox", Err: err}
		core.Logger().Error(gerr.Error())
		return gerr
	}
	return nil
}

// DestroyCubemap frees the cubemap. Probes derived from it must be
// destroyed first; they hold no strong reference.
func DestroyCubemap(cm *scene.Cubemap) {
	if !ready("DestroyCubemap") || cm == nil {
		return
	}
	h, ok := engine.cubemapHandles[cm]
	if !ok {
		core.Logger().Warn("DestroyCubemap: unknown cubemap")
		return
	}
	opengl.DeleteCubemap(cm)
	delete(engine.cubemapHandles, cm)
	engine.cubemaps.Release(h)
}

// CreateReflectionProbe derives irradiance and prefiltered specular from a
// source cubemap. size is the prefilter base resolution.
func CreateReflectionProbe(source *scene.Cubemap, size int) (*scene.ReflectionProbe, error) {
	if !ready("CreateReflectionProbe") {
		return nil, notReadyErr("CreateReflectionProbe")
	}
	if source == nil {
		err := &core.ConfigError{Field: "source", Msg: "nil source cubemap"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, p := engine.probes.Acquire(scene.ReflectionProbe{})
	if err := engine.sky.GenerateProbe(p, source, size); err != nil {
		engine.probes.Release(h)
		gerr := &core.GpuError{Op: "generate probe", Err: err}
		core.Logger().Error(gerr.Error())
		return nil, gerr
	}
	engine.probeHandles[p] = h
	return p, nil
}

// UpdateReflectionProbe re-derives a probe from its (possibly updated)
// source cubemap, releasing the previous GPU textures.
func UpdateReflectionProbe(p *scene.ReflectionProbe, source *scene.Cubemap, size int) error {
	if !ready("UpdateReflectionProbe") {
		return notReadyErr("UpdateReflectionProbe")
	}
	if p == nil || source == nil {
		err := &core.ConfigError{Field: "probe", Msg: "nil probe or source cubemap"}
		core.Logger().Error(err.Error())
		return err
	}
	if _, ok := engine.probeHandles[p]; !ok {
		err := &core.MisuseError{Call: "UpdateReflectionProbe", Msg: "unknown probe"}
		core.Logger().Warn(err.Error())
		return err
	}
	opengl.DeleteProbe(p)
	if err := engine.sky.GenerateProbe(p, source, size); err != nil {
		gerr := &core.GpuError{Op: "regenerate probe", Err: err}
		core.Logger().Error(gerr.Error())
		return gerr
	}
	return nil
}

// DestroyReflectionProbe frees the probe's cubemaps.
func DestroyReflectionProbe(p *scene.ReflectionProbe) {
	if !ready("DestroyReflectionProbe") || p == nil {
		return
	}
	h, ok := engine.probeHandles[p]
	if !ok {
		core.Logger().Warn("DestroyReflectionProbe: unknown probe")
		return
	}
	opengl.DeleteProbe(p)
	delete(engine.probeHandles, p)
	engine.probes.Release(h)
}

// RegisterFont pools an imported font and uploads its atlas texture.
func RegisterFont(f *scene.Font) (*scene.Font, error) {
	if !ready("RegisterFont") {
		return nil, notReadyErr("RegisterFont")
	}
	if f == nil || f.Atlas == nil {
		err := &core.ConfigError{Field: "font", Msg: "nil font or atlas"}
		core.Logger().Error(err.Error())
		return nil, err
	}
	h, pf := engine.fonts.Acquire(*f)
	if opengl.TextureID(pf.Atlas) == 0 {
		if err := opengl.UploadTexture(pf.Atlas); err != nil {
			engine.fonts.Release(h)
			gerr := &core.GpuError{Op: "upload font atlas", Err: err}
			core.Logger().Error(gerr.Error())
			return nil, gerr
		}
	}
	engine.fontHandles[pf] = h
	return pf, nil
}

// DestroyFont frees the atlas texture and pool slot.
func DestroyFont(f *scene.Font) {
	if !ready("DestroyFont") || f == nil {
		return
	}
	h, ok := engine.fontHandles[f]
	if !ok {
		core.Logger().Warn("DestroyFont: unknown font")
		return
	}
	opengl.DeleteTexture(f.Atlas)
	delete(engine.fontHandles, f)
	engine.fonts.Release(h)
}

// DestroyModel releases an imported model: its meshes, its materials, and
// the textures the importer loaded on its behalf. Caller-supplied textures
// assigned to the model's materials are untouched.
func DestroyModel(m *scene.Model) {
	if !ready("DestroyModel") || m == nil {
		return
	}
	for _, mesh := range m.Meshes {
		opengl.DeleteMeshGPU(mesh.GPUData)
		if h, ok := engine.meshHandles[mesh]; ok {
			delete(engine.meshHandles, mesh)
			engine.meshes.Release(h)
		}
	}
	owned := m.Destroy()
	for _, tex := range owned {
		DestroyTexture(tex)
	}
}
