package math

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Builds a 2D model matrix: translate, then rotate about Z, then scale.
 * @param position The translation in world units.
 * @param rotation Optional angle in radians. Nil skips the rotation.
 * @param scale Optional non-uniform scale. Nil skips the scale.
 * @return The model matrix.
 */
func Model2D(position mgl32.Vec2, rotation *float32, scale *mgl32.Vec2) mgl32.Mat4 {
	model := mgl32.Translate3D(position.X(), position.Y(), 0)
	if rotation != nil {
		model = model.Mul4(mgl32.HomogRotate3DZ(*rotation))
	}
	if scale != nil {
		model = model.Mul4(mgl32.Scale3D(scale.X(), scale.Y(), 1))
	}
	return model
}

/**
 * @brief Builds a 3D model matrix: translate, then rotate, then scale.
 * @param position The translation in world units.
 * @param rotation Optional orientation. Nil skips the rotation.
 * @param scale Optional non-uniform scale. Nil skips the scale.
 * @return The model matrix.
 */
func Model3D(position mgl32.Vec3, rotation *mgl32.Quat, scale *mgl32.Vec3) mgl32.Mat4 {
	model := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	if rotation != nil {
		model = model.Mul4(rotation.Normalize().Mat4())
	}
	if scale != nil {
		model = model.Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
	}
	return model
}
