package engine

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	// Called once the world, the renderer and its systems exist.
	FnInitialize Initialize
	// Called before the engine tears the world down. Optional.
	FnShutdown Shutdown
}

type Initialize func(e *Engine) error
type Shutdown func(e *Engine) error
