package ecs

import "fmt"

// Phase orders systems within a frame.
type Phase uint8

const (
	OnLoad Phase = iota
	PostLoad
	PreUpdate
	OnUpdate
	PreStore
	OnStore
	PostFrame
	phaseCount
)

var phaseNames = [phaseCount]string{"OnLoad", "PostLoad", "PreUpdate", "OnUpdate", "PreStore", "OnStore", "PostFrame"}

func (p Phase) String() string {
	if p < phaseCount {
		return phaseNames[p]
	}
	return "invalid"
}

// SystemDesc describes a system. Callback runs once per matched batch, or
// once per frame with an empty iterator when Query is nil.
type SystemDesc struct {
	Name     string
	Phase    Phase
	Query    *QueryDesc
	Callback func(it *Iter)
}

type system struct {
	entity   Entity
	name     string
	phase    Phase
	query    *Query
	callback func(it *Iter)
}

// System registers a system. Systems of a phase run in registration order.
func (w *World) System(desc SystemDesc) (Entity, error) {
	if desc.Callback == nil {
		return 0, fmt.Errorf("system %q has no callback", desc.Name)
	}
	if desc.Phase >= phaseCount {
		return 0, fmt.Errorf("system %q has an invalid phase", desc.Name)
	}
	s := &system{name: desc.Name, phase: desc.Phase, callback: desc.Callback}
	if desc.Query != nil {
		q, err := w.Query(*desc.Query)
		if err != nil {
			return 0, fmt.Errorf("system %q: %w", desc.Name, err)
		}
		s.query = q
	}
	e, err := w.NewNamed(desc.Name)
	if err != nil {
		e = w.New()
	}
	s.entity = e
	w.systems = append(w.systems, s)
	return e, nil
}

func (w *World) runSystem(s *system) {
	w.DeferBegin()
	defer w.DeferEnd()
	if s.query == nil {
		s.callback(&Iter{World: w, DeltaTime: w.deltaTime, WorldTime: w.worldTime})
		return
	}
	it := s.query.Iter()
	for it.Next() {
		s.callback(it)
	}
}

// Progress runs every phase once. It returns false once Quit was called.
func (w *World) Progress(deltaTime float32) bool {
	if w.finished {
		return false
	}
	w.deltaTime = deltaTime
	w.worldTime += deltaTime
	for phase := OnLoad; phase < phaseCount; phase++ {
		for _, s := range w.systems {
			if s.phase == phase {
				w.runSystem(s)
			}
		}
	}
	return !w.quit
}

// Quit makes the next Progress return false.
func (w *World) Quit() {
	w.quit = true
}

// ShouldQuit reports whether Quit was called.
func (w *World) ShouldQuit() bool {
	return w.quit
}
