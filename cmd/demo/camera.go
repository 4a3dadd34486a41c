package main

import (
	"github.com/chewxy/math32"

	"nexium/core"
	"nexium/math"
	"nexium/scene"
)

const (
	moveSpeed   = 8.0
	sprintScale = 3.0
	lookSpeed   = 0.15
)

// cameraController is a free-fly camera: WASD to move, hold the right
// mouse button to look, Space/Ctrl for up/down, Shift to sprint.
type cameraController struct {
	yaw   float32 // degrees, 0 looks down -Z
	pitch float32

	lastX, lastY float64
	dragging     bool
}

func newCameraController() *cameraController {
	return &cameraController{yaw: -90, pitch: -8}
}

func (cc *cameraController) update(window *core.Window, cam *scene.Camera, dt float32) {
	if window.IsMouseButtonPressed(core.MouseButtonRight) {
		x, y := window.GetCursorPos()
		if cc.dragging {
			cc.yaw += float32(x-cc.lastX) * lookSpeed
			cc.pitch -= float32(y-cc.lastY) * lookSpeed
			cc.pitch = math.Clamp(cc.pitch, -89, 89)
		}
		cc.lastX, cc.lastY = x, y
		cc.dragging = true
	} else {
		cc.dragging = false
	}

	yawRad := math.Radians(cc.yaw)
	pitchRad := math.Radians(cc.pitch)
	forward := math.Vec3{
		X: math32.Cos(yawRad) * math32.Cos(pitchRad),
		Y: math32.Sin(pitchRad),
		Z: math32.Sin(yawRad) * math32.Cos(pitchRad),
	}.Normalize()
	right := forward.Cross(math.Vec3{Y: 1}).Normalize()

	speed := moveSpeed * dt
	if window.IsKeyPressed(core.KeyLeftShift) {
		speed *= sprintScale
	}

	move := math.Vec3{}
	if window.IsKeyPressed(core.KeyW) {
		move = move.Add(forward.Mul(speed))
	}
	if window.IsKeyPressed(core.KeyS) {
		move = move.Add(forward.Mul(-speed))
	}
	if window.IsKeyPressed(core.KeyD) {
		move = move.Add(right.Mul(speed))
	}
	if window.IsKeyPressed(core.KeyA) {
		move = move.Add(right.Mul(-speed))
	}
	if window.IsKeyPressed(core.KeySpace) {
		move.Y += speed
	}
	if window.IsKeyPressed(core.KeyLeftControl) {
		move.Y -= speed
	}

	cam.Position = cam.Position.Add(move)
	cam.LookAt(cam.Position.Add(forward), math.Vec3{Y: 1})
}
