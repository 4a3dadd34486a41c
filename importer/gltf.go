package importer

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

// DefaultAnimationFPS is the bake rate used when the caller passes a
// non-positive targetFPS.
const DefaultAnimationFPS = 30

// LoadModelFromMemory parses a model byte blob into meshes, materials and
// an optional skeleton. hint names the container ("glb", "gltf", "obj");
// when empty the format is sniffed from the bytes.
func LoadModelFromMemory(name string, data []byte, hint string) (*scene.Model, error) {
	switch normalizeHint(hint, data) {
	case "obj":
		return LoadOBJFromMemory(name, data, nil)
	case "glb", "gltf":
		return loadGLTF(name, data)
	default:
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("unrecognized model format")}
	}
}

// LoadModelAnimationsFromMemory extracts every animation clip from a glTF
// blob, baked at targetFPS frames per second against the file's skeleton.
func LoadModelAnimationsFromMemory(name string, data []byte, hint string, targetFPS int) ([]*scene.Animation, error) {
	switch normalizeHint(hint, data) {
	case "glb", "gltf":
	default:
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("animations require a glTF container")}
	}
	if targetFPS <= 0 {
		targetFPS = DefaultAnimationFPS
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, &core.ResourceError{Path: name, Err: err}
	}
	skel, joints, err := buildSkeleton(doc)
	if err != nil {
		return nil, &core.ResourceError{Path: name, Err: err}
	}
	if skel == nil {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("no skin in document")}
	}
	return bakeAnimations(doc, skel, joints, targetFPS), nil
}

// normalizeHint lowers a caller hint or sniffs the container from magic
// bytes. GLB carries "glTF" at offset 0; JSON glTF starts with '{'.
func normalizeHint(hint string, data []byte) string {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hint), "."))
	if h != "" {
		return h
	}
	if len(data) >= 4 && string(data[:4]) == "glTF" {
		return "glb"
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return "gltf"
	}
	return "obj"
}

// ── glTF document conversion ──────────────────────────────────────────────────

func loadGLTF(name string, data []byte) (*scene.Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, &core.ResourceError{Path: name, Err: err}
	}

	model := &scene.Model{Name: name}

	skel, joints, err := buildSkeleton(doc)
	if err != nil {
		return nil, &core.ResourceError{Path: name, Err: err}
	}
	model.Skeleton = skel

	textures := decodeTextures(doc)

	matIndex := make([]int, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := convertMaterial(gm, textures)
		matIndex[i] = len(model.Materials)
		model.Materials = append(model.Materials, mat)
	}

	// Flatten the node graph: static meshes are baked into world space,
	// skinned meshes stay in mesh space for the bone palette.
	worlds := nodeWorldTransforms(doc)
	for ni, gn := range doc.Nodes {
		if gn.Mesh == nil || *gn.Mesh >= len(doc.Meshes) {
			continue
		}
		gm := doc.Meshes[*gn.Mesh]
		skinned := gn.Skin != nil

		for pi, prim := range gm.Primitives {
			mesh, err := convertPrimitive(doc, gm.Name, pi, prim, joints)
			if err != nil {
				core.Logger().Warn("gltf: primitive skipped",
					"model", name, "mesh", gm.Name, "primitive", pi, "error", err)
				continue
			}
			if !skinned {
				bakeTransform(mesh, worlds[ni])
			}
			mesh.UpdateAABB()
			model.Meshes = append(model.Meshes, mesh)
			mi := -1
			if prim.Material != nil && *prim.Material < len(matIndex) {
				mi = matIndex[*prim.Material]
			}
			model.MeshMaterial = append(model.MeshMaterial, mi)
		}
	}

	if len(model.Meshes) == 0 {
		return nil, &core.ResourceError{Path: name, Err: fmt.Errorf("no mesh data")}
	}
	return model, nil
}

// decodeTextures decodes every referenced image on a small worker pool and
// returns one engine texture per glTF texture slot (nil where unavailable).
// Decoded results come back over a channel; only this goroutine touches
// the output slice.
func decodeTextures(doc *gltf.Document) []*scene.Texture {
	out := make([]*scene.Texture, len(doc.Textures))

	type job struct {
		slot int
		name string
		data []byte
	}
	var jobs []job
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		img := doc.Images[*gt.Source]
		if img.BufferView == nil {
			if img.URI != "" {
				core.Logger().Warn("gltf: external image skipped", "uri", img.URI)
			}
			continue
		}
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			core.Logger().Warn("gltf: image bufferview", "image", *gt.Source, "error", err)
			continue
		}
		imgName := img.Name
		if imgName == "" {
			imgName = fmt.Sprintf("gltf_img_%d", *gt.Source)
		}
		jobs = append(jobs, job{slot: i, name: imgName, data: raw})
	}
	if len(jobs) == 0 {
		return out
	}

	type result struct {
		slot int
		name string
		img  *scene.Image
	}
	jobCh := make(chan job)
	resCh := make(chan result)

	workers := runtime.NumCPU()
	if workers > 4 {
		workers = 4
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				img, err := LoadImageFromMemory(j.name, j.data)
				if err != nil {
					core.Logger().Warn("gltf: image decode", "image", j.name, "error", err)
					continue
				}
				resCh <- result{slot: j.slot, name: j.name, img: img}
			}
		}()
	}
	go func() {
		for _, j := range jobs {
			jobCh <- j
		}
		close(jobCh)
		wg.Wait()
		close(resCh)
	}()

	for r := range resCh {
		tex := scene.NewTexture(r.name, r.img)
		if gt := doc.Textures[r.slot]; gt.Sampler != nil && *gt.Sampler < len(doc.Samplers) {
			tex.Wrap = convertWrap(doc.Samplers[*gt.Sampler].WrapS)
		}
		out[r.slot] = tex
	}
	return out
}

// convertWrap records the U-axis wrap mode; V is assumed symmetric.
func convertWrap(w gltf.WrappingMode) scene.TextureWrap {
	switch w {
	case gltf.WrapClampToEdge:
		return scene.WrapClamp
	case gltf.WrapMirroredRepeat:
		return scene.WrapMirror
	default:
		return scene.WrapRepeat
	}
}

func convertMaterial(gm *gltf.Material, textures []*scene.Texture) *scene.Material {
	mat := scene.DefaultMaterial()
	mat.Name = gm.Name

	texAt := func(idx int) *scene.Texture {
		if idx >= 0 && idx < len(textures) {
			return textures[idx]
		}
		return nil
	}
	own := func(t *scene.Texture) *scene.Texture {
		mat.MarkTextureOwned(t)
		return t
	}

	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		cf := pbr.BaseColorFactorOrDefault()
		mat.Albedo.Color = core.Color{
			R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3]),
		}
		if pbr.BaseColorTexture != nil {
			mat.Albedo.Texture = own(texAt(pbr.BaseColorTexture.Index))
		}
		mat.ORM.Roughness = float32(pbr.RoughnessFactorOrDefault())
		mat.ORM.Metalness = float32(pbr.MetallicFactorOrDefault())
		if pbr.MetallicRoughnessTexture != nil {
			mat.ORM.Texture = own(texAt(pbr.MetallicRoughnessTexture.Index))
		}
	}
	if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
		// Same channel layout as metallic-roughness; most exporters pack
		// them into one image.
		if mat.ORM.Texture == nil {
			mat.ORM.Texture = own(texAt(*gm.OcclusionTexture.Index))
		}
		mat.ORM.Occlusion = float32(gm.OcclusionTexture.StrengthOrDefault())
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		mat.Normal.Texture = own(texAt(*gm.NormalTexture.Index))
		mat.Normal.Scale = float32(gm.NormalTexture.ScaleOrDefault())
	}
	if gm.EmissiveTexture != nil {
		mat.Emission.Texture = own(texAt(gm.EmissiveTexture.Index))
	}
	ef := gm.EmissiveFactor
	if ef[0] != 0 || ef[1] != 0 || ef[2] != 0 {
		mat.Emission.Color = core.Color{
			R: float32(ef[0]), G: float32(ef[1]), B: float32(ef[2]), A: 1,
		}
	}

	switch gm.AlphaMode {
	case gltf.AlphaBlend:
		mat.Blend = scene.BlendAlpha
	case gltf.AlphaMask:
		mat.AlphaCutOff = float32(gm.AlphaCutoffOrDefault())
	}
	if gm.DoubleSided {
		mat.Cull = scene.CullNone
	}
	return mat
}

// convertPrimitive reads one glTF primitive into an engine mesh. joints
// remaps skin joint slots into skeleton bone order.
func convertPrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive, joints *jointMap) (*scene.Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	var tangents [][4]float32
	var colors [][4]uint8
	var boneIDs [][4]uint16
	var weights [][4]float32

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, _ = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		colors, _ = modeler.ReadColor(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.JOINTS_0]; ok {
		boneIDs, _ = modeler.ReadJoints(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.WEIGHTS_0]; ok {
		weights, _ = modeler.ReadWeights(doc, doc.Accessors[idx], nil)
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.DefaultVertex()
		v.Position = math.Vec3{X: p[0], Y: p[1], Z: p[2]}
		if i < len(normals) {
			v.Normal = math.Vec3{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]}
		}
		if i < len(uvs) {
			v.TexCoord = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		if i < len(tangents) {
			v.Tangent = math.Vec4{
				X: tangents[i][0], Y: tangents[i][1],
				Z: tangents[i][2], W: tangents[i][3],
			}
		}
		if i < len(colors) {
			v.Color = core.Color{
				R: float32(colors[i][0]) / 255, G: float32(colors[i][1]) / 255,
				B: float32(colors[i][2]) / 255, A: float32(colors[i][3]) / 255,
			}
		}
		if i < len(boneIDs) && i < len(weights) {
			for c := 0; c < 4; c++ {
				v.BoneIDs[c] = joints.remap(int32(boneIDs[i][c]))
			}
			v.BoneWeights = math.Vec4{
				X: weights[i][0], Y: weights[i][1],
				Z: weights[i][2], W: weights[i][3],
			}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	mesh := scene.NewMesh(name, verts, indices)
	if len(tangents) == 0 && len(uvs) > 0 {
		scene.ComputeTangents(mesh)
	}
	return mesh, nil
}

// bakeTransform moves a static mesh's vertices into world space.
func bakeTransform(m *scene.Mesh, world math.Mat4) {
	if world == math.Mat4Identity() {
		return
	}
	for i := range m.Vertices {
		v := &m.Vertices[i]
		v.Position = world.MulVec3(v.Position)
		v.Normal = world.MulDir(v.Normal).Normalize()
		t := world.MulDir(math.Vec3{X: v.Tangent.X, Y: v.Tangent.Y, Z: v.Tangent.Z}).Normalize()
		v.Tangent = math.Vec4{X: t.X, Y: t.Y, Z: t.Z, W: v.Tangent.W}
	}
}

// nodeWorldTransforms composes TRS down the node hierarchy.
func nodeWorldTransforms(doc *gltf.Document) []math.Mat4 {
	locals := make([]math.Mat4, len(doc.Nodes))
	parents := make([]int, len(doc.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, gn := range doc.Nodes {
		locals[i] = nodeTransform(gn).GetMatrix()
		for _, c := range gn.Children {
			if c < len(parents) {
				parents[c] = i
			}
		}
	}

	worlds := make([]math.Mat4, len(doc.Nodes))
	resolved := make([]bool, len(doc.Nodes))
	var resolve func(i int) math.Mat4
	resolve = func(i int) math.Mat4 {
		if resolved[i] {
			return worlds[i]
		}
		resolved[i] = true // set before recursing to break cycles
		if p := parents[i]; p >= 0 {
			worlds[i] = locals[i].Mul(resolve(p))
		} else {
			worlds[i] = locals[i]
		}
		return worlds[i]
	}
	for i := range doc.Nodes {
		resolve(i)
	}
	return worlds
}

func nodeTransform(gn *gltf.Node) core.Transform {
	t := gn.TranslationOrDefault()
	r := gn.RotationOrDefault() // [x, y, z, w]
	s := gn.ScaleOrDefault()
	return core.Transform{
		Position: math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])},
		Rotation: math.Quaternion{
			X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3]),
		},
		Scale: math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])},
	}
}

// ── Skeleton ──────────────────────────────────────────────────────────────────

// jointMap translates skin joint slots (what JOINTS_0 indexes) into
// skeleton bone indices, which are reordered so parents precede children.
type jointMap struct {
	slotToBone []int32
	nodeToBone map[int]int
}

func (j *jointMap) remap(slot int32) int32 {
	if j == nil || int(slot) >= len(j.slotToBone) {
		return 0
	}
	return j.slotToBone[slot]
}

// buildSkeleton converts the document's first skin. Returns nils without
// error when the document has no skins.
func buildSkeleton(doc *gltf.Document) (*scene.Skeleton, *jointMap, error) {
	if len(doc.Skins) == 0 {
		return nil, nil, nil
	}
	skin := doc.Skins[0]
	if len(skin.Joints) == 0 {
		return nil, nil, fmt.Errorf("skin has no joints")
	}
	if len(skin.Joints) > scene.MaxBones {
		return nil, nil, fmt.Errorf("skin has %d joints, limit %d", len(skin.Joints), scene.MaxBones)
	}

	var ibms [][4][4]float32
	if skin.InverseBindMatrices != nil {
		raw, err := modeler.ReadAccessor(doc, doc.Accessors[*skin.InverseBindMatrices], nil)
		if err != nil {
			return nil, nil, fmt.Errorf("inverse bind matrices: %w", err)
		}
		m, ok := raw.([][4][4]float32)
		if !ok {
			return nil, nil, fmt.Errorf("inverse bind matrices: unexpected accessor type")
		}
		ibms = m
	}

	inSkin := make(map[int]int, len(skin.Joints)) // node -> joint slot
	for slot, node := range skin.Joints {
		inSkin[node] = slot
	}
	parentNode := make(map[int]int)
	for ni, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if _, ok := inSkin[c]; ok {
				parentNode[c] = ni
			}
		}
	}

	// Topological order: joints whose parent is outside the skin are
	// roots; children follow their parents.
	var order []int // node indices in bone order
	visited := make(map[int]bool)
	var visit func(node int)
	visit = func(node int) {
		if visited[node] {
			return
		}
		if p, ok := parentNode[node]; ok {
			if _, joint := inSkin[p]; joint {
				visit(p)
			}
		}
		visited[node] = true
		order = append(order, node)
	}
	for _, node := range skin.Joints {
		visit(node)
	}

	jm := &jointMap{
		slotToBone: make([]int32, len(skin.Joints)),
		nodeToBone: make(map[int]int, len(order)),
	}
	for bone, node := range order {
		jm.nodeToBone[node] = bone
		jm.slotToBone[inSkin[node]] = int32(bone)
	}

	skel := &scene.Skeleton{Bones: make([]scene.Bone, len(order))}
	for bone, node := range order {
		gn := doc.Nodes[node]
		b := scene.Bone{
			Name:        gn.Name,
			Parent:      -1,
			LocalBind:   nodeTransform(gn),
			InverseBind: math.Mat4Identity(),
		}
		if b.Name == "" {
			b.Name = fmt.Sprintf("bone_%d", bone)
		}
		if p, ok := parentNode[node]; ok {
			if pb, joint := jm.nodeToBone[p]; joint {
				b.Parent = pb
			}
		}
		if slot := inSkin[node]; slot < len(ibms) {
			b.InverseBind = math.Mat4(ibms[slot])
		}
		skel.Bones[bone] = b
	}
	return skel, jm, nil
}

// ── Animation baking ──────────────────────────────────────────────────────────

type channelKind int

const (
	channelTranslation channelKind = iota
	channelRotation
	channelScale
)

// boneChannel is one sampled curve retargeted onto a bone.
type boneChannel struct {
	bone   int
	kind   channelKind
	times  []float32
	vec    []math.Vec3
	quat   []math.Quaternion
	step   bool
	maxT   float32
}

func bakeAnimations(doc *gltf.Document, skel *scene.Skeleton, joints *jointMap, fps int) []*scene.Animation {
	var out []*scene.Animation
	for _, ga := range doc.Animations {
		channels, duration := readChannels(doc, ga, joints)
		if len(channels) == 0 {
			continue
		}
		frameCount := int(duration*float32(fps)) + 1
		anim := &scene.Animation{
			Name:       ga.Name,
			FrameRate:  fps,
			FrameCount: frameCount,
			Frames:     make([][]scene.BonePose, frameCount),
		}

		bind := make([]scene.BonePose, len(skel.Bones))
		for i, b := range skel.Bones {
			bind[i] = scene.BonePose{
				Translation: b.LocalBind.Position,
				Rotation:    b.LocalBind.Rotation,
				Scale:       b.LocalBind.Scale,
			}
		}

		for f := 0; f < frameCount; f++ {
			t := float32(f) / float32(fps)
			poses := make([]scene.BonePose, len(bind))
			copy(poses, bind)
			for _, ch := range channels {
				switch ch.kind {
				case channelTranslation:
					poses[ch.bone].Translation = ch.sampleVec(t)
				case channelRotation:
					poses[ch.bone].Rotation = ch.sampleQuat(t)
				case channelScale:
					poses[ch.bone].Scale = ch.sampleVec(t)
				}
			}
			anim.Frames[f] = poses
		}
		out = append(out, anim)
	}
	return out
}

// readChannels extracts the curves that target skeleton joints, returning
// them with the clip duration.
func readChannels(doc *gltf.Document, ga *gltf.Animation, joints *jointMap) ([]boneChannel, float32) {
	var channels []boneChannel
	var duration float32

	for _, gc := range ga.Channels {
		if gc.Target.Node == nil {
			continue
		}
		bone, ok := joints.nodeToBone[*gc.Target.Node]
		if !ok {
			continue
		}
		gs := ga.Samplers[gc.Sampler]

		rawIn, err := modeler.ReadAccessor(doc, doc.Accessors[gs.Input], nil)
		if err != nil {
			continue
		}
		times, ok := rawIn.([]float32)
		if !ok || len(times) == 0 {
			continue
		}
		rawOut, err := modeler.ReadAccessor(doc, doc.Accessors[gs.Output], nil)
		if err != nil {
			continue
		}

		ch := boneChannel{
			bone:  bone,
			times: times,
			step:  gs.Interpolation == gltf.InterpolationStep,
			maxT:  times[len(times)-1],
		}
		// Cubic spline output carries in-tangent, value, out-tangent per
		// key; only the value element is kept and interpolated linearly.
		cubic := gs.Interpolation == gltf.InterpolationCubicSpline

		switch gc.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			vals, ok := rawOut.([][3]float32)
			if !ok {
				continue
			}
			ch.kind = channelTranslation
			if gc.Target.Path == gltf.TRSScale {
				ch.kind = channelScale
			}
			for k := range times {
				vi := k
				if cubic {
					vi = k*3 + 1
				}
				if vi >= len(vals) {
					break
				}
				ch.vec = append(ch.vec, math.Vec3{X: vals[vi][0], Y: vals[vi][1], Z: vals[vi][2]})
			}
			if len(ch.vec) != len(times) {
				continue
			}
		case gltf.TRSRotation:
			vals, ok := rawOut.([][4]float32)
			if !ok {
				continue
			}
			ch.kind = channelRotation
			for k := range times {
				vi := k
				if cubic {
					vi = k*3 + 1
				}
				if vi >= len(vals) {
					break
				}
				ch.quat = append(ch.quat, math.Quaternion{
					X: vals[vi][0], Y: vals[vi][1], Z: vals[vi][2], W: vals[vi][3],
				}.Normalize())
			}
			if len(ch.quat) != len(times) {
				continue
			}
		default:
			continue
		}

		if ch.maxT > duration {
			duration = ch.maxT
		}
		channels = append(channels, ch)
	}
	return channels, duration
}

// segment finds the keyframe pair bracketing t and the blend factor.
func (ch *boneChannel) segment(t float32) (int, int, float32) {
	if t <= ch.times[0] {
		return 0, 0, 0
	}
	last := len(ch.times) - 1
	if t >= ch.times[last] {
		return last, last, 0
	}
	hi := 1
	for hi < last && ch.times[hi] < t {
		hi++
	}
	lo := hi - 1
	span := ch.times[hi] - ch.times[lo]
	if span <= 0 || ch.step {
		return lo, lo, 0
	}
	return lo, hi, (t - ch.times[lo]) / span
}

func (ch *boneChannel) sampleVec(t float32) math.Vec3 {
	lo, hi, f := ch.segment(t)
	if lo == hi {
		return ch.vec[lo]
	}
	return ch.vec[lo].Lerp(ch.vec[hi], f)
}

func (ch *boneChannel) sampleQuat(t float32) math.Quaternion {
	lo, hi, f := ch.segment(t)
	if lo == hi {
		return ch.quat[lo]
	}
	return ch.quat[lo].Slerp(ch.quat[hi], f)
}
