package systems

import (
	"github.com/spaghettifunk/glitch/engine/assets"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
)

type SystemManager struct {
	world *ecs.World

	ShaderSystem   *ShaderSystem
	meshSystem     *MeshSystem
	cameraSystem   *CameraSystem
	rendererSystem *RendererSystem
}

/**
 * @brief Registers the renderer components in w and creates every system.
 * @param am The asset manager used for shader loading and hot reload. Can be nil.
 */
func NewSystemManager(w *ecs.World, r *renderer.Renderer, surface Surface, events *core.EventSystem, am *assets.AssetManager) (*SystemManager, error) {
	components.Register(w)

	ss, err := NewShaderSystem(w, r, am)
	if err != nil {
		return nil, err
	}
	ms, err := NewMeshSystem(w, r)
	if err != nil {
		return nil, err
	}
	cs, err := NewCameraSystem(r)
	if err != nil {
		return nil, err
	}
	rs, err := NewRendererSystem(w, r, surface, events)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		world:          w,
		ShaderSystem:   ss,
		meshSystem:     ms,
		cameraSystem:   cs,
		rendererSystem: rs,
	}, nil
}

/**
 * @brief Schedules the systems. Within a phase they run in this order:
 * OnLoad reloads shaders, uploads meshes then compiles shaders; PreStore
 * pumps events and clears then updates cameras; OnStore draws; PostFrame
 * presents.
 */
func (sm *SystemManager) Initialize() error {
	descs := []ecs.SystemDesc{
		sm.ShaderSystem.reloadSystem(),
		sm.meshSystem.makeMeshesSystem(sm.world),
		sm.ShaderSystem.compileSystem(),
		sm.rendererSystem.preFrameSystem(),
	}
	descs = append(descs, sm.cameraSystem.updateSystems(sm.world)...)
	descs = append(descs, sm.rendererSystem.frameSystems()...)
	for _, desc := range descs {
		if _, err := sm.world.System(desc); err != nil {
			core.LogError(err.Error())
			return err
		}
		core.LogDebug("system `%s` registered in %s", desc.Name, desc.Phase)
	}
	return nil
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.rendererSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.cameraSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.meshSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.ShaderSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
