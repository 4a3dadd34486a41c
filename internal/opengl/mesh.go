package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"nexium/core"
	"nexium/scene"
)

// Vertex attribute locations shared by every pipeline.
const (
	attrPosition    = 0
	attrTexCoord    = 1
	attrNormal      = 2
	attrTangent     = 3
	attrColor       = 4
	attrBoneIDs     = 5
	attrBoneWeights = 6

	// Per-instance attributes, divisor 1.
	attrInstPosition = 7
	attrInstRotation = 8
	attrInstScale    = 9
	attrInstColor    = 10
	attrInstCustom   = 11
)

const vertexStride = int32(unsafe.Sizeof(core.Vertex{}))

// GPUMesh is the backend handle stored in scene.Mesh.GPUData and
// scene.DynamicMesh.GPUData.
type GPUMesh struct {
	VAO uint32
	VBO uint32
	EBO uint32

	VertexCount int32
	IndexCount  int32

	// Allocated capacities in elements, for dynamic growth.
	vertexCap int
}

func glPrimitive(p scene.PrimitiveType) uint32 {
	switch p {
	case scene.PrimPoints:
		return gl.POINTS
	case scene.PrimLines:
		return gl.LINES
	case scene.PrimLineStrip:
		return gl.LINE_STRIP
	case scene.PrimLineLoop:
		return gl.LINE_LOOP
	case scene.PrimTriangleStrip:
		return gl.TRIANGLE_STRIP
	case scene.PrimTriangleFan:
		return gl.TRIANGLE_FAN
	default:
		return gl.TRIANGLES
	}
}

func setupVertexLayout() {
	var proto core.Vertex

	gl.EnableVertexAttribArray(attrPosition)
	gl.VertexAttribPointerWithOffset(attrPosition, 3, gl.FLOAT, false, vertexStride, unsafe.Offsetof(proto.Position))
	gl.EnableVertexAttribArray(attrTexCoord)
	gl.VertexAttribPointerWithOffset(attrTexCoord, 2, gl.FLOAT, false, vertexStride, unsafe.Offsetof(proto.TexCoord))
	gl.EnableVertexAttribArray(attrNormal)
	gl.VertexAttribPointerWithOffset(attrNormal, 3, gl.FLOAT, false, vertexStride, unsafe.Offsetof(proto.Normal))
	gl.EnableVertexAttribArray(attrTangent)
	gl.VertexAttribPointerWithOffset(attrTangent, 4, gl.FLOAT, false, vertexStride, unsafe.Offsetof(proto.Tangent))
	gl.EnableVertexAttribArray(attrColor)
	gl.VertexAttribPointerWithOffset(attrColor, 4, gl.FLOAT, false, vertexStride, unsafe.Offsetof(proto.Color))
	gl.EnableVertexAttribArray(attrBoneIDs)
	gl.VertexAttribIPointerWithOffset(attrBoneIDs, 4, gl.INT, vertexStride, unsafe.Offsetof(proto.BoneIDs))
	gl.EnableVertexAttribArray(attrBoneWeights)
	gl.VertexAttribPointerWithOffset(attrBoneWeights, 4, gl.FLOAT, false, vertexStride, unsafe.Offsetof(proto.BoneWeights))
}

// UploadMesh creates the VAO/VBO/EBO for a static mesh and records the
// handle in m.GPUData.
func UploadMesh(m *scene.Mesh) error {
	if m == nil || len(m.Vertices) == 0 {
		return fmt.Errorf("mesh has no vertices")
	}
	g := &GPUMesh{
		VertexCount: int32(len(m.Vertices)),
		IndexCount:  int32(len(m.Indices)),
		vertexCap:   len(m.Vertices),
	}

	gl.GenVertexArrays(1, &g.VAO)
	gl.BindVertexArray(g.VAO)

	gl.GenBuffers(1, &g.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*int(vertexStride),
		unsafe.Pointer(&m.Vertices[0]), gl.STATIC_DRAW)
	setupVertexLayout()

	if len(m.Indices) > 0 {
		gl.GenBuffers(1, &g.EBO)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.EBO)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4,
			unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	m.GPUData = g
	return nil
}

// UploadDynamicMesh uploads the current CPU content of d, growing the GPU
// buffer only when capacity is exceeded, and clears the dirty flag.
func UploadDynamicMesh(d *scene.DynamicMesh) error {
	if d == nil {
		return fmt.Errorf("nil dynamic mesh")
	}
	g, _ := d.GPUData.(*GPUMesh)
	if g == nil {
		g = &GPUMesh{}
		gl.GenVertexArrays(1, &g.VAO)
		gl.BindVertexArray(g.VAO)
		gl.GenBuffers(1, &g.VBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, g.VBO)
		capVerts := len(d.Vertices)
		if capVerts < 64 {
			capVerts = 64
		}
		gl.BufferData(gl.ARRAY_BUFFER, capVerts*int(vertexStride), nil, gl.DYNAMIC_DRAW)
		setupVertexLayout()
		gl.BindVertexArray(0)
		g.vertexCap = capVerts
		d.GPUData = g
	}

	n := len(d.Vertices)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.VBO)
	if n > g.vertexCap {
		newCap := g.vertexCap * 2
		for newCap < n {
			newCap *= 2
		}
		gl.BufferData(gl.ARRAY_BUFFER, newCap*int(vertexStride), nil, gl.DYNAMIC_DRAW)
		g.vertexCap = newCap
	}
	if n > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, n*int(vertexStride), unsafe.Pointer(&d.Vertices[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	g.VertexCount = int32(n)
	d.Dirty = false
	return nil
}

// DeleteMeshGPU frees the GL objects behind any mesh handle.
func DeleteMeshGPU(gpuData interface{}) {
	g, ok := gpuData.(*GPUMesh)
	if !ok || g == nil {
		return
	}
	if g.EBO != 0 {
		gl.DeleteBuffers(1, &g.EBO)
	}
	if g.VBO != 0 {
		gl.DeleteBuffers(1, &g.VBO)
	}
	if g.VAO != 0 {
		gl.DeleteVertexArrays(1, &g.VAO)
	}
	*g = GPUMesh{}
}

// ── Instance buffers ──────────────────────────────────────────────────────────

// GPUInstanceBuffer holds one GL buffer per enabled stream, stored in
// scene.InstanceBuffer.GPUData.
type GPUInstanceBuffer struct {
	Position uint32
	Rotation uint32
	Scale    uint32
	Color    uint32
	Custom   uint32
	Capacity int
}

// SyncInstanceBuffer creates or updates the GPU streams from the CPU
// mirrors, uploading only the dirty range. No-op while mapped.
func SyncInstanceBuffer(b *scene.InstanceBuffer) {
	if b == nil || b.Mapped() {
		return
	}
	g, _ := b.GPUData.(*GPUInstanceBuffer)
	if g == nil {
		g = &GPUInstanceBuffer{}
		b.GPUData = g
	}

	realloc := g.Capacity != b.Count
	if realloc {
		g.Capacity = b.Count
	}
	lo, hi := b.DirtyLo, b.DirtyHi
	if realloc {
		lo, hi = 0, b.Count
	}
	if hi <= lo {
		return
	}

	syncStream := func(id *uint32, elemSize int, data unsafe.Pointer) {
		if data == nil {
			if *id != 0 {
				gl.DeleteBuffers(1, id)
				*id = 0
			}
			return
		}
		if *id == 0 {
			gl.GenBuffers(1, id)
			realloc = true
		}
		gl.BindBuffer(gl.ARRAY_BUFFER, *id)
		if realloc {
			gl.BufferData(gl.ARRAY_BUFFER, b.Count*elemSize, data, gl.DYNAMIC_DRAW)
		} else {
			off := lo * elemSize
			gl.BufferSubData(gl.ARRAY_BUFFER, off, (hi-lo)*elemSize,
				unsafe.Pointer(uintptr(data)+uintptr(off)))
		}
	}

	if b.Positions != nil && b.Count > 0 {
		syncStream(&g.Position, 12, unsafe.Pointer(&b.Positions[0]))
	}
	if b.Rotations != nil && b.Count > 0 {
		syncStream(&g.Rotation, 16, unsafe.Pointer(&b.Rotations[0]))
	}
	if b.Scales != nil && b.Count > 0 {
		syncStream(&g.Scale, 12, unsafe.Pointer(&b.Scales[0]))
	}
	if b.Colors != nil && b.Count > 0 {
		syncStream(&g.Color, 16, unsafe.Pointer(&b.Colors[0]))
	}
	if b.Customs != nil && b.Count > 0 {
		syncStream(&g.Custom, 16, unsafe.Pointer(&b.Customs[0]))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	b.ClearDirty()
}

// BindInstanceAttribs attaches the instance streams to the currently bound
// VAO. Streams the buffer lacks are set to constant defaults.
func BindInstanceAttribs(b *scene.InstanceBuffer) {
	g, _ := b.GPUData.(*GPUInstanceBuffer)
	if g == nil {
		return
	}

	bindVec := func(attr uint32, id uint32, comps int32, defaults [4]float32) {
		if id != 0 {
			gl.BindBuffer(gl.ARRAY_BUFFER, id)
			gl.EnableVertexAttribArray(attr)
			gl.VertexAttribPointerWithOffset(attr, comps, gl.FLOAT, false, comps*4, 0)
			gl.VertexAttribDivisor(attr, 1)
		} else {
			gl.DisableVertexAttribArray(attr)
			gl.VertexAttrib4f(attr, defaults[0], defaults[1], defaults[2], defaults[3])
		}
	}

	bindVec(attrInstPosition, g.Position, 3, [4]float32{0, 0, 0, 0})
	bindVec(attrInstRotation, g.Rotation, 4, [4]float32{0, 0, 0, 1})
	bindVec(attrInstScale, g.Scale, 3, [4]float32{1, 1, 1, 0})
	bindVec(attrInstColor, g.Color, 4, [4]float32{1, 1, 1, 1})
	bindVec(attrInstCustom, g.Custom, 4, [4]float32{0, 0, 0, 0})
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// UnbindInstanceAttribs resets the instance attributes to their constant
// defaults for non-instanced draws.
func UnbindInstanceAttribs() {
	for _, attr := range [5]uint32{attrInstPosition, attrInstRotation, attrInstScale, attrInstColor, attrInstCustom} {
		gl.DisableVertexAttribArray(attr)
	}
	gl.VertexAttrib4f(attrInstPosition, 0, 0, 0, 0)
	gl.VertexAttrib4f(attrInstRotation, 0, 0, 0, 1)
	gl.VertexAttrib4f(attrInstScale, 1, 1, 1, 0)
	gl.VertexAttrib4f(attrInstColor, 1, 1, 1, 1)
	gl.VertexAttrib4f(attrInstCustom, 0, 0, 0, 0)
}

// DrawGeometry binds the mesh VAO, attaches or clears the instance
// streams, and issues the draw. The caller must have synced the instance
// buffer beforehand.
func DrawGeometry(g *GPUMesh, prim scene.PrimitiveType, inst *scene.InstanceBuffer, instanceCount int) {
	if g == nil || g.VAO == 0 {
		return
	}
	gl.BindVertexArray(g.VAO)
	if inst != nil && instanceCount > 0 {
		BindInstanceAttribs(inst)
	} else {
		UnbindInstanceAttribs()
		instanceCount = 0
	}

	mode := glPrimitive(prim)
	if instanceCount > 0 {
		if g.IndexCount > 0 {
			gl.DrawElementsInstanced(mode, g.IndexCount, gl.UNSIGNED_INT, nil, int32(instanceCount))
		} else {
			gl.DrawArraysInstanced(mode, 0, g.VertexCount, int32(instanceCount))
		}
	} else {
		if g.IndexCount > 0 {
			gl.DrawElements(mode, g.IndexCount, gl.UNSIGNED_INT, nil)
		} else {
			gl.DrawArrays(mode, 0, g.VertexCount)
		}
	}
	gl.BindVertexArray(0)
}

// DeleteInstanceBufferGPU frees the GL streams behind b.
func DeleteInstanceBufferGPU(b *scene.InstanceBuffer) {
	if b == nil {
		return
	}
	g, ok := b.GPUData.(*GPUInstanceBuffer)
	if !ok || g == nil {
		return
	}
	for _, id := range []*uint32{&g.Position, &g.Rotation, &g.Scale, &g.Color, &g.Custom} {
		if *id != 0 {
			gl.DeleteBuffers(1, id)
			*id = 0
		}
	}
	b.GPUData = nil
}
