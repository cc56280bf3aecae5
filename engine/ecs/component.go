package ecs

import (
	"fmt"
	"reflect"
	"unsafe"
)

type componentInfo struct {
	id       Entity
	name     string
	typ      reflect.Type
	size     uintptr
	dataType DataType
	hooks    typeHooks
}

type typeHooks struct {
	ctor     func(ptr unsafe.Pointer)
	onAdd    func(w *World, e Entity, ptr unsafe.Pointer)
	onSet    func(w *World, e Entity, ptr unsafe.Pointer)
	onRemove func(w *World, e Entity, ptr unsafe.Pointer)
}

// Hooks are lifecycle callbacks for a component type.
//
// OnRemove runs whenever a value is destroyed: when the component is removed,
// when its entity is deleted, when the world shuts down and when Set replaces
// an existing value. Moving an entity between tables never runs hooks.
type Hooks[T any] struct {
	// Ctor initialises the value created by Add.
	Ctor     func(v *T)
	OnAdd    func(w *World, e Entity, v *T)
	OnSet    func(w *World, e Entity, v *T)
	OnRemove func(w *World, e Entity, v *T)
}

// ComponentOption customises a registration.
type ComponentOption func(*componentInfo)

// IsA declares the data type of a component whose Go type cannot be inferred,
// or overrides the inferred one. A data type whose size differs from the Go
// type's is ignored and the component has no data type.
func IsA(dataType DataType) ComponentOption {
	return func(ci *componentInfo) {
		ci.dataType = dataType
	}
}

// Register makes T a component named name. Registering the same type twice
// returns the existing id.
func Register[T any](w *World, name string, opts ...ComponentOption) Entity {
	typ := reflect.TypeFor[T]()
	if id, ok := w.typeIDs[typ]; ok {
		return id
	}
	id, err := w.NewNamed(name)
	if err != nil {
		// The name belongs to a plain entity; register anonymously.
		id = w.New()
	}
	ci := &componentInfo{
		id:       id,
		name:     name,
		typ:      typ,
		size:     typ.Size(),
		dataType: inferDataType(typ),
	}
	for _, opt := range opts {
		opt(ci)
	}
	if uintptr(ci.dataType.Scalars()*4) != ci.size {
		ci.dataType = DataTypeNone
	}
	w.components[id] = ci
	w.typeIDs[typ] = id
	return id
}

// Tag creates a named, data-less id such as a relationship.
func Tag(w *World, name string) Entity {
	if e := w.Lookup(name); e != 0 {
		return e
	}
	e, _ := w.NewNamed(name)
	return e
}

// Id returns the id of component T, or 0 when T is not registered.
func Id[T any](w *World) Entity {
	return w.typeIDs[reflect.TypeFor[T]()]
}

func ensureRegistered[T any](w *World) Entity {
	if id := Id[T](w); id != 0 {
		return id
	}
	return Register[T](w, reflect.TypeFor[T]().Name())
}

// SetHooks installs lifecycle hooks for component T.
func SetHooks[T any](w *World, hooks Hooks[T]) {
	ci := w.components[ensureRegistered[T](w)]
	if hooks.Ctor != nil {
		ctor := hooks.Ctor
		ci.hooks.ctor = func(ptr unsafe.Pointer) { ctor((*T)(ptr)) }
	}
	if hooks.OnAdd != nil {
		fn := hooks.OnAdd
		ci.hooks.onAdd = func(w *World, e Entity, ptr unsafe.Pointer) { fn(w, e, (*T)(ptr)) }
	}
	if hooks.OnSet != nil {
		fn := hooks.OnSet
		ci.hooks.onSet = func(w *World, e Entity, ptr unsafe.Pointer) { fn(w, e, (*T)(ptr)) }
	}
	if hooks.OnRemove != nil {
		fn := hooks.OnRemove
		ci.hooks.onRemove = func(w *World, e Entity, ptr unsafe.Pointer) { fn(w, e, (*T)(ptr)) }
	}
}

// IsComponent reports whether id is a registered component carrying data.
func (w *World) IsComponent(id Entity) bool {
	ci, ok := w.components[id]
	return ok && ci.size > 0
}

// DataTypeOf returns the declared or inferred data type of a component.
func (w *World) DataTypeOf(id Entity) DataType {
	if ci, ok := w.components[id]; ok {
		return ci.dataType
	}
	return DataTypeNone
}

// ComponentSize returns the size in bytes of a component value.
func (w *World) ComponentSize(id Entity) uintptr {
	if ci, ok := w.components[id]; ok {
		return ci.size
	}
	return 0
}

func (w *World) componentFor(id Entity) (*componentInfo, error) {
	ci, ok := w.components[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	return ci, nil
}
