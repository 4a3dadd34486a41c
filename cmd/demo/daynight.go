package main

import (
	"github.com/chewxy/math32"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

const (
	// cycleLength is the duration of a full day in seconds.
	cycleLength = 180.0
	// skyRegenInterval is how often the sky cubemap is re-rendered.
	skyRegenInterval = 4.0
)

// dayCycle drives the sun light and environment through a scripted day.
// timeOfDay is normalized: 0 is midnight, 0.5 is noon.
type dayCycle struct {
	timeOfDay float32

	sunDir     math.Vec3
	daylight   float32
	regenTimer float32
}

func newDayCycle() *dayCycle {
	return &dayCycle{timeOfDay: 0.35} // start mid-morning
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: math.Lerp(a.R, b.R, t),
		G: math.Lerp(a.G, b.G, t),
		B: math.Lerp(a.B, b.B, t),
		A: math.Lerp(a.A, b.A, t),
	}
}

var (
	noonSun  = core.Color{R: 1, G: 0.97, B: 0.9, A: 1}
	duskSun  = core.Color{R: 1, G: 0.55, B: 0.25, A: 1}
	daySky   = core.Color{R: 0.45, G: 0.6, B: 0.8, A: 1}
	nightSky = core.Color{R: 0.02, G: 0.03, B: 0.06, A: 1}
	dayFog   = core.Color{R: 0.65, G: 0.7, B: 0.78, A: 1}
	nightFog = core.Color{R: 0.05, G: 0.06, B: 0.1, A: 1}
)

func (dc *dayCycle) update(sun *scene.Light, env *scene.Environment, dt float32) {
	dc.timeOfDay += dt / cycleLength
	if dc.timeOfDay >= 1 {
		dc.timeOfDay -= 1
	}

	// Sun sweeps a tilted arc; elevation peaks at noon.
	angle := (dc.timeOfDay - 0.25) * 2 * math32.Pi
	elev := math32.Sin(angle)
	dc.sunDir = math.Vec3{
		X: math32.Cos(angle) * 0.8,
		Y: -elev,
		Z: -0.35,
	}.Normalize()
	sun.Direction = dc.sunDir

	daylight := math.Clamp(elev, 0, 1)
	dc.daylight = daylight
	dc.regenTimer += dt
	// Warm tint near the horizon.
	horizon := math.Clamp(1-math.Abs(elev)*4, 0, 1)
	sun.Color = lerpColor(noonSun, duskSun, horizon)
	sun.Energy = 3.5 * daylight
	sun.Active = daylight > 0.01

	env.Ambient = lerpColor(
		core.Color{R: 0.03, G: 0.04, B: 0.07, A: 1},
		core.Color{R: 0.25, G: 0.27, B: 0.3, A: 1},
		daylight)
	env.Background = lerpColor(nightSky, daySky, daylight)
	env.Fog.Color = lerpColor(nightFog, dayFog, daylight)
	env.Sky.Intensity = 0.1 + 0.9*daylight
}

// takeSkyRefresh reports whether the sky cubemap is due for a re-render
// and resets the interval timer when it is.
func (dc *dayCycle) takeSkyRefresh() bool {
	if dc.regenTimer < skyRegenInterval {
		return false
	}
	dc.regenTimer = 0
	return true
}

// skybox builds the procedural sky descriptor for the current time of day.
func (dc *dayCycle) skybox() scene.Skybox {
	box := scene.DefaultSkybox()
	box.SunDirection = dc.sunDir
	box.SkyColor = lerpColor(nightSky, box.SkyColor, dc.daylight)
	box.HorizonColor = lerpColor(nightFog, box.HorizonColor, dc.daylight)
	box.SunColor = lerpColor(duskSun, noonSun, dc.daylight)
	box.Energy = 0.1 + 0.9*dc.daylight
	return box
}

// phase names the current segment of the cycle for the HUD.
func (dc *dayCycle) phase() string {
	switch {
	case dc.timeOfDay < 0.22 || dc.timeOfDay >= 0.81:
		return "night"
	case dc.timeOfDay < 0.31:
		return "dawn"
	case dc.timeOfDay < 0.72:
		return "day"
	default:
		return "dusk"
	}
}
