package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/ecs"
)

/**
 * @brief An orthographic camera. One world unit maps to one pixel at zoom 1.
 * Requires Position2D on the same entity.
 */
type Camera2D struct {
	/** @brief Magnification, clamped to a sane range when the projection is built. */
	Zoom float32
	/** @brief Recomputed every frame, do not write. */
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// NewCamera2D returns a camera with zoom 1.
func NewCamera2D() Camera2D {
	return Camera2D{
		Zoom:       1,
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
	}
}

/**
 * @brief A perspective camera looking down its local -Z axis.
 * Requires Position3D and Rotation3D on the same entity.
 */
type Camera3D struct {
	/** @brief Vertical field of view in degrees. */
	FieldOfView float32
	NearPlane   float32
	FarPlane    float32
	/** @brief Recomputed every frame, do not write. */
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

const (
	DefaultFieldOfView float32 = 45
	DefaultNearPlane   float32 = 0.1
	DefaultFarPlane    float32 = 1000
)

// NewCamera3D returns a camera with a 45 degree field of view.
func NewCamera3D() Camera3D {
	return Camera3D{
		FieldOfView: DefaultFieldOfView,
		NearPlane:   DefaultNearPlane,
		FarPlane:    DefaultFarPlane,
		View:        mgl32.Ident4(),
		Projection:  mgl32.Ident4(),
	}
}

func registerCameras(w *ecs.World) {
	ecs.Register[Camera2D](w, "Camera2D")
	ecs.Register[Camera3D](w, "Camera3D")
	ecs.SetHooks(w, ecs.Hooks[Camera2D]{
		Ctor: func(c *Camera2D) { *c = NewCamera2D() },
		// A camera is only usable with the components its matrices are built from.
		OnAdd: func(w *ecs.World, e ecs.Entity, _ *Camera2D) {
			if !w.Has(e, ecs.Id[Position2D](w)) {
				_ = w.Add(e, ecs.Id[Position2D](w))
			}
		},
	})
	ecs.SetHooks(w, ecs.Hooks[Camera3D]{
		Ctor: func(c *Camera3D) { *c = NewCamera3D() },
		OnAdd: func(w *ecs.World, e ecs.Entity, _ *Camera3D) {
			if !w.Has(e, ecs.Id[Position3D](w)) {
				_ = w.Add(e, ecs.Id[Position3D](w))
			}
			if !w.Has(e, ecs.Id[Rotation3D](w)) {
				_ = ecs.Set(w, e, Rotation3D(mgl32.QuatIdent()))
			}
		},
	})
}
