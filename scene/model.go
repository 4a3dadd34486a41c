package scene

import (
	"nexium/core"
	"nexium/math"
)

// MaxBones is the size of the bone matrix array uploaded for skinned draws.
const MaxBones = 128

// Bone is one joint in a skeleton hierarchy. Parent is -1 for roots.
type Bone struct {
	Name   string
	Parent int

	// LocalBind is the bone's bind-pose transform relative to its parent.
	LocalBind core.Transform

	// InverseBind maps mesh space into the bone's space at bind pose.
	InverseBind math.Mat4
}

// Skeleton is a flat bone array ordered so parents precede children.
type Skeleton struct {
	Bones []Bone
}

// BindPose computes the world-space matrix of every bone at bind pose.
func (s *Skeleton) BindPose() []math.Mat4 {
	out := make([]math.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		local := b.LocalBind.GetMatrix()
		if b.Parent >= 0 {
			out[i] = local.Mul(out[b.Parent])
		} else {
			out[i] = local
		}
	}
	return out
}

// BonePose is one bone's sampled transform in a baked animation frame.
type BonePose struct {
	Translation math.Vec3
	Rotation    math.Quaternion
	Scale       math.Vec3
}

// Animation is a clip baked at a fixed frame rate. Frames[f][b] is bone b's
// local pose at frame f.
type Animation struct {
	Name       string
	FrameRate  int
	FrameCount int
	Frames     [][]BonePose
}

// SampleWorld computes world-space bone matrices at the given frame,
// clamped to the clip's range.
func (a *Animation) SampleWorld(s *Skeleton, frame int) []math.Mat4 {
	if frame < 0 {
		frame = 0
	}
	if frame >= a.FrameCount {
		frame = a.FrameCount - 1
	}
	poses := a.Frames[frame]
	out := make([]math.Mat4, len(s.Bones))
	for i, b := range s.Bones {
		var local math.Mat4
		if i < len(poses) {
			p := poses[i]
			local = math.Mat4TRS(p.Translation, p.Rotation, p.Scale)
		} else {
			local = b.LocalBind.GetMatrix()
		}
		if b.Parent >= 0 {
			out[i] = local.Mul(out[b.Parent])
		} else {
			out[i] = local
		}
	}
	return out
}

// SkinMatrices composes the final shader matrices: inverseBind then the
// animated world transform per bone.
func (a *Animation) SkinMatrices(s *Skeleton, frame int) []math.Mat4 {
	world := a.SampleWorld(s, frame)
	out := make([]math.Mat4, len(world))
	for i := range world {
		out[i] = s.Bones[i].InverseBind.Mul(world[i])
	}
	return out
}

// Model is an imported mesh set with its materials and optional skeleton.
// The model owns its material array; materials reference textures by
// non-owning pointer except those the importer loaded, which are flagged
// owned and released on Destroy.
type Model struct {
	Name      string
	Meshes    []*Mesh
	Materials []*Material

	// MeshMaterial[i] indexes Materials for Meshes[i].
	MeshMaterial []int

	Skeleton *Skeleton
}

// MaterialFor returns the material assigned to mesh index i, or the default
// material when unassigned.
func (m *Model) MaterialFor(i int) *Material {
	if i >= 0 && i < len(m.MeshMaterial) {
		mi := m.MeshMaterial[i]
		if mi >= 0 && mi < len(m.Materials) {
			return m.Materials[mi]
		}
	}
	return DefaultMaterial()
}

// OwnedTextures returns every texture the importer loaded for this model.
func (m *Model) OwnedTextures() []*Texture {
	seen := make(map[*Texture]bool)
	var out []*Texture
	for _, mat := range m.Materials {
		for _, t := range mat.OwnedTextures() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// Destroy releases the model's meshes. Textures the importer loaded are
// returned so the caller's resource layer can release their GPU copies;
// caller-supplied textures are untouched.
func (m *Model) Destroy() []*Texture {
	owned := m.OwnedTextures()
	for _, mesh := range m.Meshes {
		mesh.Destroy()
	}
	m.Meshes = nil
	m.Materials = nil
	m.MeshMaterial = nil
	return owned
}
