package scene

import (
	"nexium/core"
	"nexium/math"
)

// InstanceStream identifies one per-instance attribute stream. Each enabled
// stream is backed by an independent GPU buffer.
type InstanceStream uint32

const (
	StreamPosition InstanceStream = 1 << iota // vec3
	StreamRotation                            // quaternion
	StreamScale                               // vec3
	StreamColor                               // rgba
	StreamCustom                              // vec4, free for user shaders
)

// InstanceBuffer holds per-instance attribute streams for instanced draws.
// CPU mirrors are kept per stream; the backend uploads dirty ranges.
type InstanceBuffer struct {
	Streams InstanceStream
	Count   int

	Positions []math.Vec3
	Rotations []math.Quaternion
	Scales    []math.Vec3
	Colors    []core.Color
	Customs   []math.Vec4

	// Dirty range in instance indices, [DirtyLo, DirtyHi). Collapsed after
	// the backend uploads.
	DirtyLo, DirtyHi int

	mapped bool

	// GPUData is set by the renderer backend. Do not access directly.
	GPUData interface{}
}

// NewInstanceBuffer allocates streams for count instances. Streams not in
// the flag set stay nil.
func NewInstanceBuffer(streams InstanceStream, count int) *InstanceBuffer {
	b := &InstanceBuffer{Streams: streams}
	b.alloc(count)
	return b
}

func (b *InstanceBuffer) alloc(count int) {
	b.Count = count
	if b.Streams&StreamPosition != 0 {
		b.Positions = make([]math.Vec3, count)
	}
	if b.Streams&StreamRotation != 0 {
		b.Rotations = make([]math.Quaternion, count)
		for i := range b.Rotations {
			b.Rotations[i] = math.QuaternionIdentity()
		}
	}
	if b.Streams&StreamScale != 0 {
		b.Scales = make([]math.Vec3, count)
		for i := range b.Scales {
			b.Scales[i] = math.Vec3{X: 1, Y: 1, Z: 1}
		}
	}
	if b.Streams&StreamColor != 0 {
		b.Colors = make([]core.Color, count)
		for i := range b.Colors {
			b.Colors[i] = core.ColorWhite
		}
	}
	if b.Streams&StreamCustom != 0 {
		b.Customs = make([]math.Vec4, count)
	}
	b.DirtyLo, b.DirtyHi = 0, count
}

// Realloc resizes every enabled stream to count instances. With keepData the
// first min(old, new) elements of each stream are preserved; otherwise the
// streams are reset to their defaults.
func (b *InstanceBuffer) Realloc(count int, keepData bool) {
	if count == b.Count {
		return
	}
	if !keepData {
		b.alloc(count)
		return
	}
	old := *b
	b.alloc(count)
	n := min(old.Count, count)
	copy(b.Positions, old.Positions[:clampLen(old.Positions, n)])
	copy(b.Rotations, old.Rotations[:clampLen(old.Rotations, n)])
	copy(b.Scales, old.Scales[:clampLen(old.Scales, n)])
	copy(b.Colors, old.Colors[:clampLen(old.Colors, n)])
	copy(b.Customs, old.Customs[:clampLen(old.Customs, n)])
}

func clampLen[T any](s []T, n int) int {
	if n > len(s) {
		return len(s)
	}
	return n
}

// SetPosition updates one instance's position.
func (b *InstanceBuffer) SetPosition(i int, v math.Vec3) {
	if b.Positions == nil || i < 0 || i >= b.Count {
		return
	}
	b.Positions[i] = v
	b.touch(i, i+1)
}

// SetRotation updates one instance's rotation.
func (b *InstanceBuffer) SetRotation(i int, q math.Quaternion) {
	if b.Rotations == nil || i < 0 || i >= b.Count {
		return
	}
	b.Rotations[i] = q
	b.touch(i, i+1)
}

// SetScale updates one instance's scale.
func (b *InstanceBuffer) SetScale(i int, v math.Vec3) {
	if b.Scales == nil || i < 0 || i >= b.Count {
		return
	}
	b.Scales[i] = v
	b.touch(i, i+1)
}

// SetColor updates one instance's color.
func (b *InstanceBuffer) SetColor(i int, c core.Color) {
	if b.Colors == nil || i < 0 || i >= b.Count {
		return
	}
	b.Colors[i] = c
	b.touch(i, i+1)
}

// SetCustom updates one instance's custom vector.
func (b *InstanceBuffer) SetCustom(i int, v math.Vec4) {
	if b.Customs == nil || i < 0 || i >= b.Count {
		return
	}
	b.Customs[i] = v
	b.touch(i, i+1)
}

// TouchRange marks [lo, hi) as needing upload, for callers that wrote
// through the stream slices directly.
func (b *InstanceBuffer) TouchRange(lo, hi int) { b.touch(lo, hi) }

func (b *InstanceBuffer) touch(lo, hi int) {
	if b.DirtyHi == b.DirtyLo {
		b.DirtyLo, b.DirtyHi = lo, hi
		return
	}
	if lo < b.DirtyLo {
		b.DirtyLo = lo
	}
	if hi > b.DirtyHi {
		b.DirtyHi = hi
	}
}

// ClearDirty collapses the dirty range. Called by the backend after upload.
func (b *InstanceBuffer) ClearDirty() { b.DirtyLo, b.DirtyHi = 0, 0 }

// Map exposes the whole buffer for direct writes until Unmap. While mapped,
// the backend defers uploads.
func (b *InstanceBuffer) Map() bool {
	if b.mapped {
		core.Logger().Warn("InstanceBuffer.Map while already mapped")
		return false
	}
	b.mapped = true
	return true
}

// Unmap ends a Map scope and marks the whole buffer dirty.
func (b *InstanceBuffer) Unmap() {
	if !b.mapped {
		core.Logger().Warn("InstanceBuffer.Unmap without Map")
		return
	}
	b.mapped = false
	b.touch(0, b.Count)
}

// Mapped reports whether the buffer is inside a Map scope.
func (b *InstanceBuffer) Mapped() bool { return b.mapped }
