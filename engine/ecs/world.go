package ecs

import (
	"fmt"
	"reflect"
	"unsafe"
)

type record struct {
	table *table
	row   int
}

// World owns every entity, component value, query and system.
type World struct {
	nextID      Entity
	records     map[Entity]*record
	names       map[string]Entity
	entityNames map[Entity]string

	components map[Entity]*componentInfo
	typeIDs    map[reflect.Type]Entity

	tables     []*table
	tableIndex map[string]*table
	root       *table

	queries map[*Query]struct{}
	systems []*system

	deferDepth int
	deferred   []func()

	deltaTime float32
	worldTime float32
	quit      bool
	finished  bool
}

// NewWorld creates an empty world.
func NewWorld() *World {
	w := &World{
		nextID:      firstUserEntity,
		records:     make(map[Entity]*record),
		names:       make(map[string]Entity),
		entityNames: make(map[Entity]string),
		components:  make(map[Entity]*componentInfo),
		typeIDs:     make(map[reflect.Type]Entity),
		tableIndex:  make(map[string]*table),
		queries:     make(map[*Query]struct{}),
	}
	w.root = w.tableFor(nil)
	return w
}

// New creates an anonymous entity.
func (w *World) New() Entity {
	e := w.nextID
	w.nextID++
	row := w.appendRow(w.root, e)
	w.records[e] = &record{table: w.root, row: row}
	return e
}

// NewNamed creates an entity with a unique name.
func (w *World) NewNamed(name string) (Entity, error) {
	if _, ok := w.names[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrNameInUse, name)
	}
	e := w.New()
	if name != "" {
		w.names[name] = e
		w.entityNames[e] = name
	}
	return e, nil
}

// Lookup returns the entity with the given name, or 0. Names are matched
// exactly.
func (w *World) Lookup(name string) Entity {
	return w.names[name]
}

// Name returns the name of e, or an empty string.
func (w *World) Name(e Entity) string {
	return w.entityNames[e]
}

// IsAlive reports whether e exists.
func (w *World) IsAlive(e Entity) bool {
	_, ok := w.records[e]
	return ok
}

// Has reports whether e has id. Pair ids may use Wildcard as target.
func (w *World) Has(e Entity, id Entity) bool {
	rec, ok := w.records[e]
	if !ok {
		return false
	}
	return rec.table.find(id) >= 0
}

// Target returns the first target of relationship rel on e, or 0.
func (w *World) Target(e Entity, rel Entity) Entity {
	rec, ok := w.records[e]
	if !ok {
		return 0
	}
	if i := rec.table.find(Pair(rel, Wildcard)); i >= 0 {
		return rec.table.ids[i].Second()
	}
	return 0
}

// Add adds id to e. Data components are constructed with their Ctor hook
// and announced with OnAdd.
func (w *World) Add(e Entity, id Entity) error {
	if id == 0 || (id.IsPair() && id.Second() == Wildcard) {
		return fmt.Errorf("%w: cannot add %s", ErrInvalidTerm, id)
	}
	if w.deferDepth > 0 {
		w.enqueue(func() { _ = w.Add(e, id) })
		return nil
	}
	_, err := w.add(e, id)
	return err
}

// add moves e into a table containing id and returns the new value, if any.
// It returns a nil pointer when e already had id.
func (w *World) add(e Entity, id Entity) (unsafe.Pointer, error) {
	rec, ok := w.records[e]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAlive, e)
	}
	if rec.table.find(id) >= 0 {
		return nil, nil
	}
	dst := w.tableWith(rec.table, id)
	w.moveEntity(e, dst)
	ci, ok := w.components[id]
	if !ok || ci.size == 0 {
		return nil, nil
	}
	ptr := dst.columns[dst.find(id)].pointer(rec.row)
	if ci.hooks.ctor != nil {
		ci.hooks.ctor(ptr)
	}
	if ci.hooks.onAdd != nil {
		ci.hooks.onAdd(w, e, ptr)
		// The hook may have moved e.
		ptr = w.pointer(e, id)
	}
	return ptr, nil
}

// Remove removes id from e, running OnRemove for data components.
func (w *World) Remove(e Entity, id Entity) error {
	if w.deferDepth > 0 {
		w.enqueue(func() { _ = w.Remove(e, id) })
		return nil
	}
	rec, ok := w.records[e]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAlive, e)
	}
	i := rec.table.find(id)
	if i < 0 {
		return nil
	}
	actual := rec.table.ids[i]
	if c := rec.table.columns[i]; c != nil && c.info.hooks.onRemove != nil {
		c.info.hooks.onRemove(w, e, c.pointer(rec.row))
	}
	// OnRemove may have restructured e.
	if rec, ok = w.records[e]; !ok || rec.table.find(actual) < 0 {
		return nil
	}
	w.moveEntity(e, w.tableWithout(rec.table, actual))
	return nil
}

// Delete destroys e and every value it owns. Relationships pointing at e
// are removed from the entities holding them.
func (w *World) Delete(e Entity) error {
	if w.deferDepth > 0 {
		w.enqueue(func() { _ = w.Delete(e) })
		return nil
	}
	rec, ok := w.records[e]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAlive, e)
	}
	w.DeferBegin()
	for _, c := range rec.table.columns {
		if c != nil && c.info.hooks.onRemove != nil {
			c.info.hooks.onRemove(w, e, c.pointer(rec.row))
		}
	}
	w.removeRow(rec.table, rec.row)
	delete(w.records, e)
	if name, ok := w.entityNames[e]; ok {
		delete(w.names, name)
		delete(w.entityNames, e)
	}
	w.removeReferences(e)
	w.DeferEnd()
	return nil
}

// removeReferences strips every pair naming e, and e itself when it is used
// as a tag, from the remaining entities.
func (w *World) removeReferences(e Entity) {
	type removal struct {
		entity Entity
		id     Entity
	}
	var removals []removal
	for _, t := range w.tables {
		for _, id := range t.ids {
			if id == e || (id.IsPair() && (id.First() == e || id.Second() == e)) {
				for _, holder := range t.entities {
					removals = append(removals, removal{holder, id})
				}
			}
		}
	}
	for _, r := range removals {
		_ = w.Remove(r.entity, r.id)
	}
}

func (w *World) pointer(e Entity, id Entity) unsafe.Pointer {
	rec, ok := w.records[e]
	if !ok {
		return nil
	}
	i := rec.table.find(id)
	if i < 0 || rec.table.columns[i] == nil {
		return nil
	}
	return rec.table.columns[i].pointer(rec.row)
}

// Set assigns the value of component T on e, adding it when missing.
// Replacing an existing value runs OnRemove on the old value first.
func Set[T any](w *World, e Entity, value T) error {
	id := ensureRegistered[T](w)
	if w.deferDepth > 0 {
		w.enqueue(func() { _ = Set(w, e, value) })
		return nil
	}
	if !w.IsAlive(e) {
		return fmt.Errorf("%w: %s", ErrNotAlive, e)
	}
	ci := w.components[id]
	ptr := w.pointer(e, id)
	if ptr != nil {
		if ci.hooks.onRemove != nil {
			ci.hooks.onRemove(w, e, ptr)
			if ptr = w.pointer(e, id); ptr == nil {
				return nil
			}
		}
	} else {
		var err error
		if ptr, err = w.add(e, id); err != nil {
			return err
		}
		if ptr == nil {
			// Zero-size type.
			return nil
		}
	}
	*(*T)(ptr) = value
	if ci.hooks.onSet != nil {
		ci.hooks.onSet(w, e, ptr)
	}
	return nil
}

// Get returns a pointer to e's value of T, or nil. The pointer is valid until
// the next structural change.
func Get[T any](w *World, e Entity) *T {
	id := Id[T](w)
	if id == 0 {
		return nil
	}
	return (*T)(w.pointer(e, id))
}

// Modified runs the OnSet hook of T after an in-place change through Get.
func Modified[T any](w *World, e Entity) {
	id := Id[T](w)
	ptr := w.pointer(e, id)
	if ptr == nil {
		return
	}
	if ci := w.components[id]; ci.hooks.onSet != nil {
		ci.hooks.onSet(w, e, ptr)
	}
}

// SetSingleton stores value on the component entity of T.
func SetSingleton[T any](w *World, value T) error {
	return Set(w, ensureRegistered[T](w), value)
}

// Singleton returns the singleton value of T, or nil.
func Singleton[T any](w *World) *T {
	id := Id[T](w)
	if id == 0 {
		return nil
	}
	return Get[T](w, id)
}

// DeferBegin queues structural changes until the matching DeferEnd.
func (w *World) DeferBegin() {
	w.deferDepth++
}

// DeferEnd flushes queued changes once the outermost deferral ends.
func (w *World) DeferEnd() {
	w.deferDepth--
	if w.deferDepth > 0 {
		return
	}
	for len(w.deferred) > 0 {
		ops := w.deferred
		w.deferred = nil
		for _, op := range ops {
			op()
		}
	}
}

func (w *World) enqueue(op func()) {
	w.deferred = append(w.deferred, op)
}

// DeltaTime returns the delta time of the current frame.
func (w *World) DeltaTime() float32 {
	return w.deltaTime
}

// WorldTime returns the sum of all delta times passed to Progress.
func (w *World) WorldTime() float32 {
	return w.worldTime
}

// Fini destroys every component value, running OnRemove hooks, and releases
// all queries. The world must not be used afterwards.
func (w *World) Fini() {
	if w.finished {
		return
	}
	w.finished = true
	w.deferDepth++
	for _, t := range w.tables {
		for i, c := range t.columns {
			if c == nil || c.info.hooks.onRemove == nil {
				continue
			}
			for row := 0; row < t.count(); row++ {
				c.info.hooks.onRemove(w, t.entities[row], t.columns[i].pointer(row))
			}
		}
	}
	w.deferred = nil
	for q := range w.queries {
		q.Fini()
	}
	w.records = make(map[Entity]*record)
	w.tables = nil
	w.systems = nil
}
