package scene

import (
	"nexium/core"
	"nexium/math"
)

// LightType selects the light's emission geometry.
type LightType int

const (
	LightDirectional LightType = iota
	LightSpot
	LightOmni
)

// ShadowUpdateMode controls how often a light's shadow map is re-rendered.
type ShadowUpdateMode int

const (
	ShadowUpdateContinuous ShadowUpdateMode = iota // every frame
	ShadowUpdateInterval                           // when elapsed >= Interval
	ShadowUpdateManual                             // only when explicitly flagged
)

// Light is one light source. Directional lights ignore Position, Range and
// attenuation; omni lights ignore Direction and the cutoff angles.
type Light struct {
	Type   LightType
	Active bool

	// LayerMask gates which cameras see the light. CullMask gates which
	// draw calls the light illuminates; ShadowCullMask gates which draw
	// calls cast into the light's shadow map.
	LayerMask      uint32
	CullMask       uint32
	ShadowCullMask uint32

	Position  math.Vec3
	Direction math.Vec3
	Color     core.Color
	Energy    float32
	Specular  float32

	Range       float32
	Attenuation float32

	// Spot cone angles in radians.
	InnerCutoff float32
	OuterCutoff float32

	Shadow ShadowState
}

// ShadowState holds per-light shadow configuration and scheduling.
type ShadowState struct {
	Active     bool
	Bias       float32
	SlopeBias  float32
	Softness   float32
	UpdateMode ShadowUpdateMode
	Interval   float32 // seconds, for ShadowUpdateInterval

	// Dirty forces one update in manual mode; cleared after rendering.
	Dirty bool

	// LastUpdate is the render-time timestamp of the last refresh.
	LastUpdate float64

	// MapIndex is the backend's shadow map slot, -1 when unassigned.
	MapIndex int
}

// NewLight returns an inactive light of the given type with usable defaults.
func NewLight(t LightType) *Light {
	return &Light{
		Type:           t,
		LayerMask:      0xFFFFFFFF,
		CullMask:       0xFFFFFFFF,
		ShadowCullMask: 0xFFFFFFFF,
		Direction:      math.Vec3{Y: -1},
		Color:          core.ColorWhite,
		Energy:         1,
		Specular:       0.5,
		Range:          16,
		Attenuation:    1,
		InnerCutoff:    0.4,
		OuterCutoff:    0.8,
		Shadow: ShadowState{
			Bias:      0.002,
			SlopeBias: 0.02,
			Softness:  1,
			MapIndex:  -1,
		},
	}
}

// NeedsShadowUpdate reports whether the shadow map must be re-rendered at
// time now, per the update mode.
func (l *Light) NeedsShadowUpdate(now float64) bool {
	if !l.Active || !l.Shadow.Active {
		return false
	}
	switch l.Shadow.UpdateMode {
	case ShadowUpdateContinuous:
		return true
	case ShadowUpdateInterval:
		return now-l.Shadow.LastUpdate >= float64(l.Shadow.Interval)
	case ShadowUpdateManual:
		return l.Shadow.Dirty
	}
	return false
}

// MarkShadowDirty requests one shadow refresh in manual mode.
func (l *Light) MarkShadowDirty() { l.Shadow.Dirty = true }

// ShadowRendered records a completed refresh at time now.
func (l *Light) ShadowRendered(now float64) {
	l.Shadow.Dirty = false
	l.Shadow.LastUpdate = now
}

// FaceCount returns how many shadow map faces the light renders.
func (l *Light) FaceCount() int {
	if l.Type == LightOmni {
		return 6
	}
	return 1
}
