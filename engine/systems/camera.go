package systems

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/math"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
)

/**
 * @brief Recomputes the view and projection matrices of every camera once
 * per frame, before drawing.
 */
type CameraSystem struct {
	renderer *renderer.Renderer
}

func NewCameraSystem(r *renderer.Renderer) (*CameraSystem, error) {
	if r == nil {
		err := fmt.Errorf("NewCameraSystem - renderer is required")
		core.LogError(err.Error())
		return nil, err
	}
	return &CameraSystem{renderer: r}, nil
}

func (cs *CameraSystem) Shutdown() error {
	return nil
}

func (cs *CameraSystem) updateSystems(w *ecs.World) []ecs.SystemDesc {
	return []ecs.SystemDesc{
		{
			Name:  "UpdateCameras2D",
			Phase: ecs.PreStore,
			Query: &ecs.QueryDesc{Terms: []ecs.Term{
				{ID: ecs.Id[components.Camera2D](w), InOut: ecs.Out},
				{ID: ecs.Id[components.Position2D](w), InOut: ecs.In},
			}},
			Callback: cs.updateCameras2D,
		},
		{
			Name:  "UpdateCameras3D",
			Phase: ecs.PreStore,
			Query: &ecs.QueryDesc{Terms: []ecs.Term{
				{ID: ecs.Id[components.Camera3D](w), InOut: ecs.Out},
				{ID: ecs.Id[components.Position3D](w), InOut: ecs.In},
				{ID: ecs.Id[components.Rotation3D](w), InOut: ecs.In},
			}},
			Callback: cs.updateCameras3D,
		},
	}
}

// viewport returns the cached window size, or the renderer's when no
// window is known yet.
func (cs *CameraSystem) viewport(w *ecs.World) (int32, int32) {
	if win := ecs.Singleton[components.Window](w); win != nil && win.Width > 0 && win.Height > 0 {
		return win.Width, win.Height
	}
	return cs.renderer.Size()
}

func (cs *CameraSystem) updateCameras2D(it *ecs.Iter) {
	width, height := cs.viewport(it.World)
	cameras := ecs.Field[components.Camera2D](it, 0)
	positions := ecs.Field[components.Position2D](it, 1)
	for i := range cameras {
		cameras[i].View = math.View2D(mgl32.Vec2(positions[i]))
		cameras[i].Projection = math.Projection2D(width, height, cameras[i].Zoom)
	}
}

func (cs *CameraSystem) updateCameras3D(it *ecs.Iter) {
	width, height := cs.viewport(it.World)
	cameras := ecs.Field[components.Camera3D](it, 0)
	positions := ecs.Field[components.Position3D](it, 1)
	rotations := ecs.Field[components.Rotation3D](it, 2)
	for i := range cameras {
		c := &cameras[i]
		c.View = math.View3D(mgl32.Vec3(positions[i]), mgl32.Quat(rotations[i]))
		c.Projection = math.Projection3D(width, height, c.FieldOfView, c.NearPlane, c.FarPlane)
	}
}
