// Demo scene: an instanced crate field, a few PBR spheres, a scripted
// day/night cycle and a 2D stats HUD. Drop a .glb/.gltf/.obj path on the
// command line to spawn it at the origin.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"golang.org/x/image/font/gofont/goregular"

	"nexium/core"
	"nexium/importer"
	"nexium/math"
	"nexium/render"
	"nexium/scene"
	"nexium/vfs"
)

const (
	crateGridSize = 14
	crateSpacing  = 3.5
)

type demoScene struct {
	ground  *scene.Mesh
	cube    *scene.Mesh
	sphere  *scene.Mesh
	ribbon  *scene.DynamicMesh
	crates  *scene.InstanceBuffer
	nCrates int

	groundMat *scene.Material
	crateMat  *scene.Material
	metalMat  *scene.Material
	glassMat  *scene.Material
	glowMat   *scene.Material

	sun  *scene.Light
	lamp *scene.Light
	spot *scene.Light

	model      *scene.Model
	animations []*scene.Animation
	animFrame  float64
}

func main() {
	err := render.Init(core.AppConfig{
		Title:       "Nexium Demo",
		Width:       1600,
		Height:      900,
		Flags:       core.FlagVSync | core.FlagResizable,
		MSAASamples: 4,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	defer render.Quit()

	files := vfs.New()
	if err := files.MountDir(".", ""); err != nil {
		fmt.Fprintf(os.Stderr, "mount cwd: %v\n", err)
	}
	defer files.Close()

	font, err := loadHUDFont()
	if err != nil {
		fmt.Fprintf(os.Stderr, "font: %v\n", err)
		os.Exit(1)
	}

	ds, err := buildScene(files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scene: %v\n", err)
		os.Exit(1)
	}

	env := scene.DefaultEnvironment()
	skyCM, skyProbe, err := setupSky(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sky: %v (continuing without IBL)\n", err)
	}
	env.SSAO.Enabled = true
	env.SSAO.Radius = 0.6
	env.Bloom.Mode = scene.BloomAdditive
	env.Bloom.Strength = 0.04
	env.Fog.Mode = scene.FogExp2
	env.Fog.Density = 0.012
	env.Tonemap.Mode = scene.TonemapACES
	env.Tonemap.Exposure = 1.1

	cam := scene.NewCamera()
	cam.Position = math.Vec3{X: 0, Y: 2, Z: 14}
	cam.Far = 200

	ctl := newCameraController()
	day := newDayCycle()

	window := render.Window()
	for render.FrameStep() {
		dt := float32(render.DeltaTime())
		t := float32(render.Time())

		if window.IsKeyPressed(core.KeyEscape) {
			window.RequestClose()
		}
		ctl.update(window, cam, dt)
		day.update(ds.sun, env, dt)
		if skyCM != nil && day.takeSkyRefresh() {
			if err := render.UpdateCubemap(skyCM, day.skybox(), 0); err == nil {
				render.UpdateReflectionProbe(skyProbe, skyCM, 0)
			}
		}
		animateLights(ds, t)

		rebuildRibbon(ds.ribbon, t)

		render.Begin3D(cam, env, nil)
		drawScene(ds, t)
		render.End3D()

		drawHUD(font, cam, day)
	}
}

func loadHUDFont() (*scene.Font, error) {
	f, err := importer.LoadFontFromMemory("go-regular", goregular.TTF,
		scene.FontNormal, 18, nil)
	if err != nil {
		return nil, err
	}
	return render.RegisterFont(f)
}

func buildScene(files *vfs.FS) (*demoScene, error) {
	ds := &demoScene{}

	var err error
	if ds.ground, err = render.CreateMeshFromGen(scene.GenMeshPlane(80, 80, 4, 4)); err != nil {
		return nil, err
	}
	if ds.cube, err = render.CreateMeshFromGen(scene.GenMeshCube(1)); err != nil {
		return nil, err
	}
	if ds.sphere, err = render.CreateMeshFromGen(scene.GenMeshSphere(0.8, 24, 32)); err != nil {
		return nil, err
	}
	if ds.ribbon, err = render.CreateDynamicMesh(); err != nil {
		return nil, err
	}

	ds.groundMat, _ = render.CreateMaterial()
	ds.groundMat.Name = "ground"
	ds.groundMat.Albedo.Color = core.Color{R: 0.35, G: 0.36, B: 0.34, A: 1}
	ds.groundMat.ORM.Roughness = 0.95

	ds.crateMat, _ = render.CreateMaterial()
	ds.crateMat.Name = "crate"
	ds.crateMat.Albedo.Color = core.Color{R: 0.55, G: 0.4, B: 0.22, A: 1}
	ds.crateMat.ORM.Roughness = 0.8

	ds.metalMat, _ = render.CreateMaterial()
	ds.metalMat.Name = "metal"
	ds.metalMat.Albedo.Color = core.Color{R: 0.9, G: 0.9, B: 0.92, A: 1}
	ds.metalMat.ORM.Metalness = 1
	ds.metalMat.ORM.Roughness = 0.15

	ds.glassMat, _ = render.CreateMaterial()
	ds.glassMat.Name = "glass"
	ds.glassMat.Albedo.Color = core.Color{R: 0.4, G: 0.7, B: 0.9, A: 0.35}
	ds.glassMat.Blend = scene.BlendAlpha
	ds.glassMat.Cull = scene.CullNone
	ds.glassMat.ORM.Roughness = 0.05

	ds.glowMat, _ = render.CreateMaterial()
	ds.glowMat.Name = "glow"
	ds.glowMat.Albedo.Color = core.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}
	ds.glowMat.Emission.Color = core.Color{R: 1, G: 0.45, B: 0.1, A: 1}
	ds.glowMat.Emission.Energy = 6

	if err := ds.buildCrateField(); err != nil {
		return nil, err
	}
	if err := ds.buildLights(); err != nil {
		return nil, err
	}
	ds.loadOptionalModel(files)
	return ds, nil
}

// buildCrateField fills one instance buffer with a jittered grid of crates.
func (ds *demoScene) buildCrateField() error {
	n := crateGridSize * crateGridSize
	buf, err := render.CreateInstanceBuffer(
		scene.StreamPosition|scene.StreamRotation|scene.StreamScale|scene.StreamColor, n)
	if err != nil {
		return err
	}

	half := float32(crateGridSize-1) * crateSpacing / 2
	i := 0
	for gz := 0; gz < crateGridSize; gz++ {
		for gx := 0; gx < crateGridSize; gx++ {
			// Deterministic jitter keeps the layout stable across runs.
			jx := math.Sqrt(float32((gx*7+gz*13)%11)) * 0.3
			jz := math.Sqrt(float32((gx*3+gz*5)%13)) * 0.3
			s := 0.6 + float32((gx+gz*crateGridSize)%7)*0.12

			buf.SetPosition(i, math.Vec3{
				X: float32(gx)*crateSpacing - half + jx,
				Y: s / 2,
				Z: float32(gz)*crateSpacing - half + jz,
			})
			buf.SetRotation(i, math.QuaternionFromAxisAngle(
				math.Vec3{Y: 1}, float32(gx*31+gz*17)*0.1))
			buf.SetScale(i, math.Vec3{X: s, Y: s, Z: s})
			shade := 0.85 + float32(i%5)*0.03
			buf.SetColor(i, core.Color{R: shade, G: shade, B: shade, A: 1})
			i++
		}
	}
	ds.crates = buf
	ds.nCrates = n
	return nil
}

func (ds *demoScene) buildLights() error {
	var err error
	if ds.sun, err = render.CreateLight(scene.LightDirectional); err != nil {
		return err
	}
	ds.sun.Active = true
	ds.sun.Direction = math.Vec3{X: -0.4, Y: -0.8, Z: -0.3}.Normalize()
	ds.sun.Energy = 3
	ds.sun.Shadow.Active = true
	ds.sun.Shadow.Softness = 1.5

	if ds.lamp, err = render.CreateLight(scene.LightOmni); err != nil {
		return err
	}
	ds.lamp.Active = true
	ds.lamp.Position = math.Vec3{X: 6, Y: 3, Z: 2}
	ds.lamp.Color = core.Color{R: 1, G: 0.5, B: 0.15, A: 1}
	ds.lamp.Energy = 10
	ds.lamp.Range = 18
	ds.lamp.Shadow.Active = true
	ds.lamp.Shadow.UpdateMode = scene.ShadowUpdateInterval
	ds.lamp.Shadow.Interval = 0.1

	if ds.spot, err = render.CreateLight(scene.LightSpot); err != nil {
		return err
	}
	ds.spot.Active = true
	ds.spot.Position = math.Vec3{X: -8, Y: 7, Z: -4}
	ds.spot.Direction = math.Vec3{X: 0.5, Y: -1, Z: 0.3}.Normalize()
	ds.spot.Color = core.Color{R: 0.4, G: 0.7, B: 1, A: 1}
	ds.spot.Energy = 25
	ds.spot.Range = 30
	ds.spot.InnerCutoff = math.Radians(18)
	ds.spot.OuterCutoff = math.Radians(26)
	ds.spot.Shadow.Active = true
	return nil
}

// loadOptionalModel imports the model named on the command line, if any.
func (ds *demoScene) loadOptionalModel(files *vfs.FS) {
	if len(os.Args) < 2 {
		return
	}
	name := os.Args[1]
	data, err := files.ReadFile(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "model %s: %v\n", name, err)
		return
	}
	hint := strings.TrimPrefix(filepath.Ext(name), ".")

	model, err := importer.LoadModelFromMemory(name, data, hint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "model %s: %v\n", name, err)
		return
	}
	ds.model = model

	if model.Skeleton != nil {
		anims, err := importer.LoadModelAnimationsFromMemory(name, data, hint,
			importer.DefaultAnimationFPS)
		if err != nil {
			fmt.Fprintf(os.Stderr, "animations %s: %v\n", name, err)
			return
		}
		ds.animations = anims
	}
}

func animateLights(ds *demoScene, t float32) {
	// Lamp bobs in a slow circle with a subtle flicker.
	ds.lamp.Position.X = 6 * math32.Cos(t*0.4)
	ds.lamp.Position.Z = 6 * math32.Sin(t*0.4)
	ds.lamp.Energy = 10 + 1.5*math32.Sin(t*13)
}

// rebuildRibbon regenerates the waving triangle strip each frame.
func rebuildRibbon(d *scene.DynamicMesh, t float32) {
	const segments = 48
	d.Begin(scene.PrimTriangles)
	d.SetColor(core.Color{R: 0.2, G: 0.9, B: 0.6, A: 1})
	for i := 0; i < segments; i++ {
		x0 := -12 + float32(i)*0.5
		x1 := x0 + 0.5
		y0 := 4 + math32.Sin(t*2+float32(i)*0.4)*0.6
		y1 := 4 + math32.Sin(t*2+float32(i+1)*0.4)*0.6

		a := math.Vec3{X: x0, Y: y0, Z: -10}
		b := math.Vec3{X: x1, Y: y1, Z: -10}
		c := math.Vec3{X: x0, Y: y0 + 1, Z: -10}
		e := math.Vec3{X: x1, Y: y1 + 1, Z: -10}

		d.SetNormal(math.Vec3{Z: 1})
		d.AddVertex(a)
		d.AddVertex(b)
		d.AddVertex(c)
		d.AddVertex(c)
		d.AddVertex(b)
		d.AddVertex(e)
	}
	d.End()
}

func drawScene(ds *demoScene, t float32) {
	ground := core.NewTransform()
	render.DrawMesh3D(ds.ground, ds.groundMat, ground)

	render.DrawMeshInstanced3D(ds.cube, ds.crateMat, ds.crates, ds.nCrates, core.NewTransform())

	// Showcase spheres: metal, glass, emissive.
	tr := core.NewTransform()
	tr.Position = math.Vec3{X: -3, Y: 1.5, Z: 6}
	render.DrawMesh3D(ds.sphere, ds.metalMat, tr)

	tr.Position = math.Vec3{X: 0, Y: 1.5, Z: 6}
	render.DrawMesh3D(ds.sphere, ds.glassMat, tr)

	tr.Position = math.Vec3{X: 3, Y: 1.5 + 0.3*math32.Sin(t*1.7), Z: 6}
	render.DrawMesh3D(ds.sphere, ds.glowMat, tr)

	render.DrawDynamicMesh3D(ds.ribbon, ds.glowMat, core.NewTransform())

	if ds.model != nil {
		mt := core.NewTransform()
		mt.Position = math.Vec3{Y: 0.01}
		if len(ds.animations) > 0 && ds.animations[0].FrameCount > 0 {
			anim := ds.animations[0]
			ds.animFrame += render.DeltaTime() * float64(anim.FrameRate)
			frame := int(ds.animFrame) % anim.FrameCount
			render.DrawModelAnimated3D(ds.model, anim, frame, mt)
		} else {
			render.DrawModel3D(ds.model, mt)
		}
	}
}

// setupSky generates the procedural sky cubemap and its diffuse probe.
func setupSky(env *scene.Environment) (*scene.Cubemap, *scene.ReflectionProbe, error) {
	cm, err := render.GenerateCubemap(scene.DefaultSkybox(), 256)
	if err != nil {
		return nil, nil, err
	}
	probe, err := render.CreateReflectionProbe(cm, 64)
	if err != nil {
		return nil, nil, err
	}
	env.Sky.Cubemap = cm
	env.Sky.Probe = probe
	return cm, probe, nil
}
