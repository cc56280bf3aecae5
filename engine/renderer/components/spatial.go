package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/ecs"
)

// Position2D is a position in world units.
type Position2D mgl32.Vec2

// Position3D is a position in world units.
type Position3D mgl32.Vec3

// Rotation2D is an angle in radians about the Z axis.
type Rotation2D float32

// Rotation3D is an orientation.
type Rotation3D mgl32.Quat

// Scale2D is a non-uniform scale.
type Scale2D mgl32.Vec2

// Scale3D is a non-uniform scale.
type Scale3D mgl32.Vec3

func registerSpatial(w *ecs.World) {
	ecs.Register[Position2D](w, "Position2D")
	ecs.Register[Position3D](w, "Position3D")
	ecs.Register[Rotation2D](w, "Rotation2D")
	ecs.Register[Rotation3D](w, "Rotation3D", ecs.IsA(ecs.DataTypeVec4))
	ecs.Register[Scale2D](w, "Scale2D")
	ecs.Register[Scale3D](w, "Scale3D")

	ecs.SetHooks(w, ecs.Hooks[Rotation3D]{
		Ctor: func(r *Rotation3D) { *r = Rotation3D(mgl32.QuatIdent()) },
	})
	ecs.SetHooks(w, ecs.Hooks[Scale2D]{
		Ctor: func(s *Scale2D) { *s = Scale2D{1, 1} },
	})
	ecs.SetHooks(w, ecs.Hooks[Scale3D]{
		Ctor: func(s *Scale3D) { *s = Scale3D{1, 1, 1} },
	})
}
