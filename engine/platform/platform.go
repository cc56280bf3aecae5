package platform

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/glitch/engine/containers"
	"github.com/spaghettifunk/glitch/engine/core"
)

/** @brief How many window events can wait for the next pump. */
const maxQueuedEvents = 256

/** @brief The window created by Startup. */
type WindowConfig struct {
	Title  string
	X, Y   int32
	Width  int32
	Height int32
	VSync  bool
}

/**
 * @brief Owns the window and its graphics context. Native callbacks only
 * enqueue events, PumpMessages fires them on the caller's thread.
 */
type Platform struct {
	events *core.EventSystem
	queue  *containers.RingQueue[core.EventContext]
	native native

	width  int32
	height int32
}

func New(events *core.EventSystem) (*Platform, error) {
	if events == nil {
		err := fmt.Errorf("platform.New - the event system is required")
		core.LogError(err.Error())
		return nil, err
	}
	return &Platform{
		events: events,
		queue:  containers.NewRingQueue[core.EventContext](maxQueuedEvents),
	}, nil
}

// Size returns the framebuffer size in pixels.
func (p *Platform) Size() (int32, int32) {
	return p.width, p.height
}

func (p *Platform) PumpMessages() {
	p.native.poll(p)
	p.dispatch()
}

func (p *Platform) SwapBuffers() {
	p.native.swap()
}

func (p *Platform) Shutdown() error {
	p.dispatch()
	return p.native.shutdown()
}

func (p *Platform) enqueue(context core.EventContext) {
	if err := p.queue.Enqueue(context); err != nil {
		core.LogWarn("event %d dropped: %s", context.Type, err)
	}
}

// dispatch fires the queued events until the queue is empty. Listeners may
// queue more events while it runs.
func (p *Platform) dispatch() {
	for {
		context, err := p.queue.Dequeue()
		if errors.Is(err, containers.ErrQueueEmpty) {
			return
		}
		p.events.Fire(context.Type, p, context)
	}
}

func (p *Platform) resized(width, height int32) {
	p.width, p.height = width, height
	p.enqueue(core.EventContext{
		Type: core.EventCodeResized,
		Data: &core.SystemEvent{WindowWidth: width, WindowHeight: height},
	})
}

func (p *Platform) key(code core.SystemEventCode, keyCode int) {
	p.enqueue(core.EventContext{Type: code, Data: &core.KeyEvent{KeyCode: keyCode}})
}

func (p *Platform) closed() {
	p.enqueue(core.EventContext{Type: core.EventCodeApplicationQuit})
}
