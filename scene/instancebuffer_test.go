package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/core"
	"nexium/math"
)

func TestInstanceBufferStreamAllocation(t *testing.T) {
	b := NewInstanceBuffer(StreamPosition|StreamColor, 16)

	require.Len(t, b.Positions, 16)
	require.Len(t, b.Colors, 16)
	assert.Nil(t, b.Rotations, "stream not in flags must be absent")
	assert.Nil(t, b.Scales)
	assert.Nil(t, b.Customs)
	assert.Equal(t, 16, b.Count)
}

func TestInstanceBufferDefaults(t *testing.T) {
	b := NewInstanceBuffer(StreamRotation|StreamScale|StreamColor, 4)
	assert.Equal(t, math.QuaternionIdentity(), b.Rotations[2])
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, b.Scales[2])
	assert.Equal(t, core.ColorWhite, b.Colors[2])
}

func TestInstanceBufferReallocKeepData(t *testing.T) {
	b := NewInstanceBuffer(StreamPosition|StreamColor, 4)
	for i := 0; i < 4; i++ {
		b.SetPosition(i, math.Vec3{X: float32(i)})
		b.SetColor(i, core.Color{R: float32(i), A: 1})
	}

	b.Realloc(8, true)
	require.Equal(t, 8, b.Count)
	for i := 0; i < 4; i++ {
		assert.Equal(t, float32(i), b.Positions[i].X, "grow must preserve old elements")
		assert.Equal(t, float32(i), b.Colors[i].R)
	}

	b.Realloc(2, true)
	require.Equal(t, 2, b.Count)
	assert.Equal(t, float32(1), b.Positions[1].X, "shrink preserves min(old,new)")
}

func TestInstanceBufferReallocDiscard(t *testing.T) {
	b := NewInstanceBuffer(StreamPosition, 4)
	b.SetPosition(0, math.Vec3{X: 9})
	b.Realloc(4, false)
	// Same count short-circuits, so force a different size.
	b.Realloc(6, false)
	assert.Equal(t, math.Vec3{}, b.Positions[0])
}

func TestInstanceBufferDirtyTracking(t *testing.T) {
	b := NewInstanceBuffer(StreamPosition, 10)
	b.ClearDirty()

	b.SetPosition(3, math.Vec3{X: 1})
	b.SetPosition(7, math.Vec3{X: 2})
	assert.Equal(t, 3, b.DirtyLo)
	assert.Equal(t, 8, b.DirtyHi)

	b.ClearDirty()
	assert.Equal(t, b.DirtyLo, b.DirtyHi)
}

func TestInstanceBufferOutOfRangeWrite(t *testing.T) {
	b := NewInstanceBuffer(StreamPosition, 2)
	b.ClearDirty()
	b.SetPosition(5, math.Vec3{X: 1})
	b.SetColor(0, core.ColorRed) // stream absent
	assert.Equal(t, b.DirtyLo, b.DirtyHi, "invalid writes must not dirty")
}

func TestInstanceBufferMapUnmap(t *testing.T) {
	b := NewInstanceBuffer(StreamCustom, 8)
	b.ClearDirty()

	require.True(t, b.Map())
	assert.False(t, b.Map(), "double map is rejected")
	assert.True(t, b.Mapped())

	b.Customs[5] = math.Vec4{X: 1}
	b.Unmap()
	assert.False(t, b.Mapped())
	assert.Equal(t, 0, b.DirtyLo)
	assert.Equal(t, 8, b.DirtyHi, "unmap dirties the whole buffer")

	// Unmap without map is a warned no-op.
	b.Unmap()
}
