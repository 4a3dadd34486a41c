package main

import (
	"fmt"

	"nexium/core"
	"nexium/render"
	"nexium/scene"
)

const (
	hudPad      = float32(12.0)
	hudTextSize = float32(18.0)
	hudLineStep = float32(22.0)
)

// drawHUD paints the stats panel in the top-left corner.
func drawHUD(font *scene.Font, cam *scene.Camera, day *dayCycle) {
	stats := render.GetFrameStats()
	dt := render.DeltaTime()
	fps := 0.0
	if dt > 0 {
		fps = 1 / dt
	}

	lines := []string{
		fmt.Sprintf("%.0f fps  (%.2f ms)", fps, dt*1000),
		fmt.Sprintf("draws 3D %d  2D %d  shadow %d",
			stats.DrawCalls3D, stats.DrawCalls2D, stats.ShadowDraws),
		fmt.Sprintf("objects %d  culled %d  tris %d",
			stats.Objects, stats.Culled, stats.Triangles),
		fmt.Sprintf("cam %.1f %.1f %.1f", cam.Position.X, cam.Position.Y, cam.Position.Z),
		fmt.Sprintf("time of day: %s", day.phase()),
		"RMB look / WASD move / Shift sprint / Esc quit",
	}

	render.Begin2D()
	render.SetFont2D(font)

	// Panel sized to the widest line.
	maxW := float32(0)
	for _, s := range lines {
		if w, _ := render.MeasureText2D(s, hudTextSize); w > maxW {
			maxW = w
		}
	}
	panelH := float32(len(lines))*hudLineStep + hudPad*2

	render.SetColor2D(core.Color{R: 0, G: 0, B: 0, A: 0.55})
	render.SetBlend2D(scene.BlendAlpha)
	render.DrawRect2D(hudPad, hudPad, maxW+hudPad*2, panelH)

	render.SetColor2D(core.ColorWhite)
	y := hudPad*2 + hudTextSize
	for _, s := range lines {
		render.DrawText2D(s, hudPad*2, y, hudTextSize)
		y += hudLineStep
	}

	render.End2D()
}
