package rendertest

import "github.com/spaghettifunk/glitch/engine/core"

// Surface stands in for a window. Queued events are fired through Events
// on the next PumpMessages, the same way the platform layer does.
type Surface struct {
	Events *core.EventSystem
	Swaps  int
	Pumps  int

	pending []core.EventContext
}

// NewSurface returns a surface firing into events.
func NewSurface(events *core.EventSystem) *Surface {
	return &Surface{Events: events}
}

// Queue schedules an event for the next pump.
func (s *Surface) Queue(context core.EventContext) {
	s.pending = append(s.pending, context)
}

// Resize queues a framebuffer resize.
func (s *Surface) Resize(width, height int32) {
	s.Queue(core.EventContext{
		Type: core.EventCodeResized,
		Data: &core.SystemEvent{WindowWidth: width, WindowHeight: height},
	})
}

// Close queues a close request.
func (s *Surface) Close() {
	s.Queue(core.EventContext{Type: core.EventCodeApplicationQuit})
}

func (s *Surface) PumpMessages() {
	s.Pumps++
	pending := s.pending
	s.pending = nil
	for _, context := range pending {
		s.Events.Fire(context.Type, s, context)
	}
}

func (s *Surface) SwapBuffers() {
	s.Swaps++
}
