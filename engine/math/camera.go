package math

import "github.com/go-gl/mathgl/mgl32"

const (
	MinZoom        float32 = 0.01
	MaxZoom        float32 = 100
	MinFieldOfView float32 = 1
	MaxFieldOfView float32 = 179
)

// View2D moves the world so that position ends up at the centre of the screen.
func View2D(position mgl32.Vec2) mgl32.Mat4 {
	return mgl32.Translate3D(-position.X(), -position.Y(), 0)
}

// Projection2D maps one world unit to one pixel at zoom 1, with the origin
// in the middle of the viewport.
func Projection2D(width, height int32, zoom float32) mgl32.Mat4 {
	zoom = Clamp(zoom, MinZoom, MaxZoom)
	halfWidth := float32(max(width, 1)) / (2 * zoom)
	halfHeight := float32(max(height, 1)) / (2 * zoom)
	return mgl32.Ortho(-halfWidth, halfWidth, -halfHeight, halfHeight, -1, 1)
}

// View3D is the inverse of the camera's world transform.
func View3D(position mgl32.Vec3, rotation mgl32.Quat) mgl32.Mat4 {
	inverse := rotation.Normalize().Conjugate().Mat4()
	return inverse.Mul4(mgl32.Translate3D(-position.X(), -position.Y(), -position.Z()))
}

// Projection3D builds a right-handed perspective projection. fieldOfView is
// the vertical angle in degrees.
func Projection3D(width, height int32, fieldOfView, near, far float32) mgl32.Mat4 {
	fieldOfView = Clamp(fieldOfView, MinFieldOfView, MaxFieldOfView)
	aspect := float32(max(width, 1)) / float32(max(height, 1))
	return mgl32.Perspective(mgl32.DegToRad(fieldOfView), aspect, near, far)
}
