package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/glitch/engine/assets"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/platform"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
	"github.com/spaghettifunk/glitch/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	world         *ecs.World
	events        *core.EventSystem
	platform      *platform.Platform
	renderer      *renderer.Renderer
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	clock         *core.Clock
	lastTime      float64
	stopRequested atomic.Bool
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		err := fmt.Errorf("engine.New - the game and its application config are required")
		core.LogError(err.Error())
		return nil, err
	}
	config := g.ApplicationConfig
	if err := config.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	level, _ := core.ParseLogLevel(config.LogLevel)
	core.SetLogLevel(level)

	events := core.NewEventSystem()
	p, err := platform.New(events)
	if err != nil {
		return nil, err
	}

	var am *assets.AssetManager
	if config.AssetsDir != "" {
		am, err = assets.NewAssetManager(&assets.AssetManagerConfig{
			AssetsDir: config.AssetsDir,
			HotReload: config.HotReload,
		})
		if err != nil {
			core.LogError(err.Error())
			return nil, err
		}
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		world:        ecs.NewWorld(),
		events:       events,
		platform:     p,
		assetManager: am,
		clock:        core.NewClock(),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig

	backend, err := e.platform.Startup(platform.WindowConfig{
		Title:  config.Name,
		X:      config.StartPosX,
		Y:      config.StartPosY,
		Width:  config.StartWidth,
		Height: config.StartHeight,
		VSync:  config.VSync,
	})
	if err != nil {
		return err
	}

	width, height := e.platform.Size()
	if e.renderer, err = renderer.New(backend, width, height); err != nil {
		core.LogError(err.Error())
		return err
	}

	if e.systemManager, err = systems.NewSystemManager(e.world, e.renderer, e.platform, e.events, e.assetManager); err != nil {
		return err
	}
	if err := e.systemManager.Initialize(); err != nil {
		return err
	}

	if err := ecs.SetSingleton(e.world, components.Window{Title: config.Name, Width: width, Height: height}); err != nil {
		return err
	}
	if err := ecs.SetSingleton(e.world, components.ClearColor(config.ClearColor)); err != nil {
		return err
	}

	e.events.Register(core.EventCodeKeyPressed, e, e.onKey)

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized (%dx%d)", config.Name, width, height)
	return nil
}

/**
 * @brief Runs frames until the world quits or Stop is called.
 * Each frame is one Progress of the world with the wall clock delta.
 */
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine.Run - the engine is not initialized")
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if fps := e.gameInstance.ApplicationConfig.TargetFPS; fps > 0 {
		targetFrameSeconds = 1.0 / float64(fps)
	}

	for !e.stopRequested.Load() {
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		if !e.world.Progress(float32(delta)) {
			break
		}

		// Give the time left in the frame back to the OS.
		if targetFrameSeconds > 0 {
			e.clock.Update()
			if remaining := targetFrameSeconds - (e.clock.Elapsed() - currentTime); remaining > 0 {
				time.Sleep(time.Duration(remaining * float64(time.Second)))
			}
		}
	}
	core.LogInfo("main loop finished after %.2fs", e.clock.Elapsed())
	return nil
}

// Stop makes Run return after the current frame. It is safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(e); err != nil {
			core.LogError(err.Error())
		}
	}
	e.events.Unregister(core.EventCodeKeyPressed, e)
	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			return err
		}
	}
	// Runs the remove hooks releasing the GPU objects while the context exists.
	e.world.Fini()
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			return err
		}
	}
	if e.assetManager != nil {
		if err := e.assetManager.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	return e.events.Shutdown()
}

// World returns the world the game populates.
func (e *Engine) World() *ecs.World {
	return e.world
}

// Events returns the event system the platform fires into.
func (e *Engine) Events() *core.EventSystem {
	return e.events
}

// HasAssets reports whether shaders can be loaded from the assets directory.
func (e *Engine) HasAssets() bool {
	return e.assetManager != nil
}

// LoadShader creates a shader entity from assets/shaders/<name>.vert and .frag.
func (e *Engine) LoadShader(name string) (ecs.Entity, error) {
	return e.systemManager.ShaderSystem.LoadShader(name)
}

// NewShader creates a shader entity from in-memory sources.
func (e *Engine) NewShader(name string, source metadata.ShaderProgramSource) (ecs.Entity, error) {
	return e.systemManager.ShaderSystem.NewShader(name, source)
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (int32, int32) {
	return e.renderer.Size()
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KeyEscape {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EventCodeApplicationQuit, e, core.EventContext{Type: core.EventCodeApplicationQuit})
		// Block anything else from processing this.
		return true
	}
	return false
}
