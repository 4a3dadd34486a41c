package render

import (
	"fmt"

	"nexium/core"
	"nexium/internal/opengl"
	"nexium/math"
	"nexium/pool"
	"nexium/scene"
)

// engineState is the process-wide renderer. Init creates it, Quit destroys
// it; calling any entry point in between logs a MisuseError and no-ops.
// Re-init after Quit is supported.
type engineState struct {
	window *core.Window
	config core.AppConfig

	pipeline   *opengl.ScenePipeline
	sky        *opengl.SkyService
	ssao       *opengl.SSAOPass
	post       *opengl.PostProcess
	overlayGPU *opengl.Overlay

	shadowMaps  [opengl.MaxShadowMaps]*opengl.ShadowMap
	shadowCubes [opengl.MaxShadowCubes]*opengl.ShadowMap

	// lightVPs keeps the last rendered shadow matrix per light so a light
	// whose map is not refreshed this frame still samples correctly.
	lightVPs map[*scene.Light]math.Mat4

	meshes      *pool.Pool[scene.Mesh]
	dynMeshes   *pool.Pool[scene.DynamicMesh]
	instances   *pool.Pool[scene.InstanceBuffer]
	textures    *pool.Pool[scene.Texture]
	materials   *pool.Pool[scene.Material]
	lights      *pool.Pool[scene.Light]
	cubemaps    *pool.Pool[scene.Cubemap]
	probes      *pool.Pool[scene.ReflectionProbe]
	matShaders  *pool.Pool[scene.MaterialShader]
	shaders2D   *pool.Pool[scene.Shader2D]
	fonts       *pool.Pool[scene.Font]

	meshHandles      map[*scene.Mesh]pool.Handle
	dynHandles       map[*scene.DynamicMesh]pool.Handle
	instanceHandles  map[*scene.InstanceBuffer]pool.Handle
	textureHandles   map[*scene.Texture]pool.Handle
	materialHandles  map[*scene.Material]pool.Handle
	lightHandles     map[*scene.Light]pool.Handle
	cubemapHandles   map[*scene.Cubemap]pool.Handle
	probeHandles     map[*scene.ReflectionProbe]pool.Handle
	matShaderHandles map[*scene.MaterialShader]pool.Handle
	shader2DHandles  map[*scene.Shader2D]pool.Handle
	fontHandles      map[*scene.Font]pool.Handle

	defaultCamera   *scene.Camera
	defaultEnv      *scene.Environment
	defaultMaterial *scene.Material

	bucket drawBucket
	batch  *overlayBatcher

	in3D   bool
	cam    *scene.Camera
	env    *scene.Environment
	target *RenderTexture

	stats     FrameStats
	lastStats FrameStats
}

var engine *engineState

// FrameStats reports counters from the most recent frame.
type FrameStats struct {
	DrawCalls3D int
	DrawCalls2D int
	Objects     int
	Vertices    int
	Triangles   int
	Culled      int
	ShadowDraws int
}

// Init creates the window, GL context, render pipelines and resource
// pools. The engine is a process-wide singleton; Init after Quit works.
func Init(cfg core.AppConfig) error {
	if engine != nil {
		err := &core.MisuseError{Call: "Init", Msg: "engine already initialized"}
		core.Logger().Warn(err.Error())
		return err
	}
	cfg = cfg.WithDefaults()

	window, err := core.NewWindow(cfg)
	if err != nil {
		return &core.FatalError{Err: fmt.Errorf("window: %w", err)}
	}

	e := &engineState{
		window:   window,
		config:   cfg,
		lightVPs: make(map[*scene.Light]math.Mat4),
		batch:    newOverlayBatcher(),
	}
	if err := e.initGPU(); err != nil {
		e.teardown()
		return err
	}
	e.initPools()

	e.defaultCamera = scene.NewCamera()
	e.defaultCamera.Position = math.Vec3{Z: 5}
	e.defaultEnv = scene.DefaultEnvironment()
	e.defaultMaterial = scene.DefaultMaterial()

	sx, _ := window.ContentScale()
	e.batch.dpiScale = sx

	engine = e
	core.Logger().Info("engine initialized",
		"width", cfg.Width, "height", cfg.Height, "msaa", cfg.MSAASamples)
	return nil
}

func (e *engineState) initGPU() error {
	var err error
	if e.pipeline, err = opengl.NewScenePipeline(); err != nil {
		return &core.GpuError{Op: "scene pipeline", Err: err}
	}
	if e.sky, err = opengl.NewSkyService(); err != nil {
		return &core.GpuError{Op: "sky service", Err: err}
	}

	w3, h3 := int32(e.config.Res3DWidth), int32(e.config.Res3DHeight)
	if e.ssao, err = opengl.NewSSAOPass(w3, h3); err != nil {
		return &core.GpuError{Op: "ssao pass", Err: err}
	}
	samples := int32(e.config.MSAASamples)
	if samples < 1 {
		samples = 1
	}
	if e.post, err = opengl.NewPostProcess(w3, h3, samples); err != nil {
		return &core.GpuError{Op: "post-process chain", Err: err}
	}
	if e.overlayGPU, err = opengl.NewOverlay(); err != nil {
		return &core.GpuError{Op: "overlay", Err: err}
	}

	res := e.config.ShadowResolution
	for i := range e.shadowMaps {
		if e.shadowMaps[i], err = opengl.NewShadowMap(res); err != nil {
			return &core.GpuError{Op: "shadow map", Err: err}
		}
	}
	for i := range e.shadowCubes {
		if e.shadowCubes[i], err = opengl.NewShadowCube(res); err != nil {
			return &core.GpuError{Op: "shadow cube", Err: err}
		}
	}
	return nil
}

func (e *engineState) initPools() {
	e.meshes = pool.New[scene.Mesh]()
	e.dynMeshes = pool.New[scene.DynamicMesh]()
	e.instances = pool.New[scene.InstanceBuffer]()
	e.textures = pool.New[scene.Texture]()
	e.materials = pool.New[scene.Material]()
	e.lights = pool.New[scene.Light]()
	e.cubemaps = pool.New[scene.Cubemap]()
	e.probes = pool.New[scene.ReflectionProbe]()
	e.matShaders = pool.New[scene.MaterialShader]()
	e.shaders2D = pool.New[scene.Shader2D]()
	e.fonts = pool.New[scene.Font]()

	e.meshHandles = make(map[*scene.Mesh]pool.Handle)
	e.dynHandles = make(map[*scene.DynamicMesh]pool.Handle)
	e.instanceHandles = make(map[*scene.InstanceBuffer]pool.Handle)
	e.textureHandles = make(map[*scene.Texture]pool.Handle)
	e.materialHandles = make(map[*scene.Material]pool.Handle)
	e.lightHandles = make(map[*scene.Light]pool.Handle)
	e.cubemapHandles = make(map[*scene.Cubemap]pool.Handle)
	e.probeHandles = make(map[*scene.ReflectionProbe]pool.Handle)
	e.matShaderHandles = make(map[*scene.MaterialShader]pool.Handle)
	e.shader2DHandles = make(map[*scene.Shader2D]pool.Handle)
	e.fontHandles = make(map[*scene.Font]pool.Handle)
}

// Quit tears the engine down: GPU resources first, then pools, then the
// window. Entry points called after Quit log MisuseError until re-init.
func Quit() {
	if engine == nil {
		core.Logger().Warn("Quit without Init")
		return
	}
	engine.teardown()
	engine = nil
}

func (e *engineState) teardown() {
	// Live pool resources still holding GPU objects.
	if e.meshes != nil {
		e.meshes.Range(func(_ pool.Handle, m *scene.Mesh) bool {
			opengl.DeleteMeshGPU(m.GPUData)
			return true
		})
		e.dynMeshes.Range(func(_ pool.Handle, d *scene.DynamicMesh) bool {
			opengl.DeleteMeshGPU(d.GPUData)
			return true
		})
		e.instances.Range(func(_ pool.Handle, b *scene.InstanceBuffer) bool {
			opengl.DeleteInstanceBufferGPU(b)
			return true
		})
		e.textures.Range(func(_ pool.Handle, t *scene.Texture) bool {
			opengl.DeleteTexture(t)
			return true
		})
		e.cubemaps.Range(func(_ pool.Handle, cm *scene.Cubemap) bool {
			opengl.DeleteCubemap(cm)
			return true
		})
		e.probes.Range(func(_ pool.Handle, p *scene.ReflectionProbe) bool {
			opengl.DeleteProbe(p)
			return true
		})
		e.matShaders.Range(func(_ pool.Handle, s *scene.MaterialShader) bool {
			if us, ok := s.GPUData.(*opengl.UserShader); ok {
				us.Destroy()
			}
			return true
		})
		e.shaders2D.Range(func(_ pool.Handle, s *scene.Shader2D) bool {
			if us, ok := s.GPUData.(*opengl.UserShader); ok {
				us.Destroy()
			}
			return true
		})
	}

	for _, sm := range e.shadowMaps {
		if sm != nil {
			sm.Destroy()
		}
	}
	for _, sc := range e.shadowCubes {
		if sc != nil {
			sc.Destroy()
		}
	}
	if e.overlayGPU != nil {
		e.overlayGPU.Destroy()
	}
	if e.post != nil {
		e.post.Destroy()
	}
	if e.ssao != nil {
		e.ssao.Destroy()
	}
	if e.sky != nil {
		e.sky.Destroy()
	}
	if e.pipeline != nil {
		e.pipeline.Destroy()
	}
	if e.window != nil {
		e.window.Destroy()
	}
}

// ready guards engine entry points, logging a MisuseError when the engine
// is not initialized.
func ready(call string) bool {
	if engine == nil {
		e := &core.MisuseError{Call: call, Msg: "engine not initialized"}
		core.Logger().Warn(e.Error())
		return false
	}
	return true
}

// FrameStep swaps buffers, polls input and advances timing. Returns false
// when the window requested close.
func FrameStep() bool {
	if !ready("FrameStep") {
		return false
	}
	engine.lastStats = engine.stats
	engine.stats = FrameStats{}
	return engine.window.FrameStep()
}

// Window exposes the underlying window for input and clipboard access.
func Window() *core.Window {
	if !ready("Window") {
		return nil
	}
	return engine.window
}

// Time returns seconds since engine start.
func Time() float64 {
	if !ready("Time") {
		return 0
	}
	return engine.window.Time()
}

// DeltaTime returns the duration of the previous frame in seconds.
func DeltaTime() float64 {
	if !ready("DeltaTime") {
		return 0
	}
	return engine.window.DeltaTime()
}

// GetFrameStats returns the counters of the most recently completed frame.
func GetFrameStats() FrameStats {
	if !ready("GetFrameStats") {
		return FrameStats{}
	}
	return engine.lastStats
}

// ── Render textures ───────────────────────────────────────────────────────────

// RenderTexture is an offscreen color target End3D can composite into.
type RenderTexture struct {
	Width  int
	Height int

	fb *opengl.Framebuffer
}

// CreateRenderTexture allocates an RGBA8 offscreen target.
func CreateRenderTexture(width, height int) (*RenderTexture, error) {
	if !ready("CreateRenderTexture") {
		return nil, &core.MisuseError{Call: "CreateRenderTexture", Msg: "engine not initialized"}
	}
	if width <= 0 || height <= 0 {
		err := &core.ConfigError{Field: "size", Msg: fmt.Sprintf("invalid dimensions %dx%d", width, height)}
		core.Logger().Error(err.Error())
		return nil, err
	}
	fb, err := opengl.NewFramebuffer(int32(width), int32(height), []int32{opengl.FormatRGBA8}, false, 1)
	if err != nil {
		gerr := &core.GpuError{Op: "render texture", Err: err}
		core.Logger().Error(gerr.Error())
		return nil, gerr
	}
	return &RenderTexture{Width: width, Height: height, fb: fb}, nil
}

// GLTexture returns the GL name of the color attachment.
func (rt *RenderTexture) GLTexture() uint32 { return rt.fb.Color[0] }

// DestroyRenderTexture frees the target.
func DestroyRenderTexture(rt *RenderTexture) {
	if rt == nil || rt.fb == nil {
		return
	}
	rt.fb.Destroy()
	rt.fb = nil
}
