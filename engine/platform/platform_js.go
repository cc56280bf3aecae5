//go:build js && wasm

package platform

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/webgl"
)

/** @brief The id of the canvas drawn into. It is created when the page has none. */
const CanvasID = "glitch"

type listener struct {
	target js.Value
	event  string
	fn     js.Func
}

type native struct {
	canvas    js.Value
	listeners []listener
	frame     chan struct{}
	onFrame   js.Func
}

/**
 * @brief Finds or creates the canvas and its WebGL 2 context.
 * @return The backend drawing into the canvas.
 */
func (p *Platform) Startup(config WindowConfig) (renderer.Backend, error) {
	document := js.Global().Get("document")
	if document.IsUndefined() {
		err := fmt.Errorf("%w: no document", core.ErrNoContext)
		core.LogError(err.Error())
		return nil, err
	}
	document.Set("title", config.Title)

	canvas := document.Call("getElementById", CanvasID)
	if canvas.IsNull() {
		canvas = document.Call("createElement", "canvas")
		canvas.Set("id", CanvasID)
		canvas.Set("width", config.Width)
		canvas.Set("height", config.Height)
		document.Get("body").Call("appendChild", canvas)
	}
	p.native.canvas = canvas
	p.width = int32(canvas.Get("width").Int())
	p.height = int32(canvas.Get("height").Int())

	p.native.frame = make(chan struct{}, 1)
	p.native.onFrame = js.FuncOf(func(js.Value, []js.Value) interface{} {
		p.native.frame <- struct{}{}
		return nil
	})

	window := js.Global()
	p.native.listen(window, "keydown", func(e js.Value) {
		if !e.Get("repeat").Bool() {
			p.key(core.EventCodeKeyPressed, keyCode(e.Get("key").String()))
		}
	})
	p.native.listen(window, "keyup", func(e js.Value) {
		p.key(core.EventCodeKeyReleased, keyCode(e.Get("key").String()))
	})
	p.native.listen(window, "resize", func(js.Value) {
		ratio := window.Get("devicePixelRatio").Float()
		width := int32(canvas.Get("clientWidth").Float() * ratio)
		height := int32(canvas.Get("clientHeight").Float() * ratio)
		canvas.Set("width", width)
		canvas.Set("height", height)
		p.resized(width, height)
	})
	p.native.listen(window, "pagehide", func(js.Value) {
		p.closed()
	})

	backend, err := webgl.New(canvas)
	if err != nil {
		_ = p.native.shutdown()
		return nil, err
	}
	return backend, nil
}

func (n *native) listen(target js.Value, event string, handle func(js.Value)) {
	fn := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		handle(args[0])
		return nil
	})
	target.Call("addEventListener", event, fn)
	n.listeners = append(n.listeners, listener{target: target, event: event, fn: fn})
}

// poll has nothing to do, the browser delivers events while swap waits.
func (n *native) poll(_ *Platform) {}

// swap blocks until the next animation frame so the browser can present.
func (n *native) swap() {
	js.Global().Call("requestAnimationFrame", n.onFrame)
	<-n.frame
}

func (n *native) shutdown() error {
	for _, l := range n.listeners {
		l.target.Call("removeEventListener", l.event, l.fn)
		l.fn.Release()
	}
	n.listeners = nil
	if n.frame != nil {
		n.onFrame.Release()
		n.frame = nil
	}
	return nil
}

// keyCode maps a KeyboardEvent key to the GLFW numbering.
func keyCode(key string) int {
	switch key {
	case "Escape":
		return core.KeyEscape
	case "Enter":
		return core.KeyEnter
	case " ":
		return core.KeySpace
	}
	if len(key) == 1 {
		return int(strings.ToUpper(key)[0])
	}
	return 0
}
