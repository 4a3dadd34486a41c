package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShadowUpdateContinuous(t *testing.T) {
	l := NewLight(LightDirectional)
	l.Active = true
	l.Shadow.Active = true
	l.Shadow.UpdateMode = ShadowUpdateContinuous

	assert.True(t, l.NeedsShadowUpdate(0))
	l.ShadowRendered(0)
	assert.True(t, l.NeedsShadowUpdate(0.016))
}

func TestShadowUpdateInterval(t *testing.T) {
	l := NewLight(LightSpot)
	l.Active = true
	l.Shadow.Active = true
	l.Shadow.UpdateMode = ShadowUpdateInterval
	l.Shadow.Interval = 0.5

	assert.True(t, l.NeedsShadowUpdate(0))
	l.ShadowRendered(0)
	assert.False(t, l.NeedsShadowUpdate(0.3))
	assert.True(t, l.NeedsShadowUpdate(0.5))
}

func TestShadowUpdateManual(t *testing.T) {
	l := NewLight(LightOmni)
	l.Active = true
	l.Shadow.Active = true
	l.Shadow.UpdateMode = ShadowUpdateManual

	assert.False(t, l.NeedsShadowUpdate(1), "manual mode never refreshes on its own")

	l.MarkShadowDirty()
	assert.True(t, l.NeedsShadowUpdate(2))
	l.ShadowRendered(2)
	assert.False(t, l.NeedsShadowUpdate(3), "rendered shadow clears the dirty flag")
}

func TestShadowInactiveLight(t *testing.T) {
	l := NewLight(LightDirectional)
	l.Shadow.Active = true
	l.Shadow.UpdateMode = ShadowUpdateContinuous
	assert.False(t, l.NeedsShadowUpdate(0), "inactive lights never update")

	l.Active = true
	l.Shadow.Active = false
	assert.False(t, l.NeedsShadowUpdate(0), "shadowless lights never update")
}

func TestLightFaceCount(t *testing.T) {
	assert.Equal(t, 1, NewLight(LightDirectional).FaceCount())
	assert.Equal(t, 1, NewLight(LightSpot).FaceCount())
	assert.Equal(t, 6, NewLight(LightOmni).FaceCount())
}
