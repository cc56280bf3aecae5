package ecs

import "unsafe"

// Iter walks the tables matched by a query one batch at a time.
type Iter struct {
	World     *World
	DeltaTime float32
	WorldTime float32
	// Count is the number of entities in the current batch.
	Count    int
	Entities []Entity

	query  *Query
	tables []*table
	next   int
	m      match
}

// Iter starts a new iteration over q.
func (q *Query) Iter() *Iter {
	w := q.world
	it := &Iter{
		World:     w,
		DeltaTime: w.deltaTime,
		WorldTime: w.worldTime,
		query:     q,
	}
	if !q.finished && !w.finished {
		q.refresh()
		it.tables = append([]*table(nil), q.candidates...)
	}
	return it
}

// Next advances to the next non-empty matching table.
func (it *Iter) Next() bool {
	for it.next < len(it.tables) {
		t := it.tables[it.next]
		it.next++
		if t.count() == 0 {
			continue
		}
		it.m.reset(len(it.query.terms), len(it.query.vars))
		if !it.query.matchFrom(t, 0, &it.m) {
			continue
		}
		it.Count = t.count()
		it.Entities = t.entities[:it.Count:it.Count]
		return true
	}
	it.Count = 0
	it.Entities = nil
	return false
}

// IsSet reports whether field i matched in the current batch. Optional, Not
// and non-matching Or fields are unset.
func (it *Iter) IsSet(i int) bool {
	return it.m.set[i]
}

// IsSelf reports whether field i is read from the iterated entities.
func (it *Iter) IsSelf(i int) bool {
	return it.query.isSelf(i)
}

// FieldID returns the id matched by field i, with wildcards resolved.
func (it *Iter) FieldID(i int) Entity {
	return it.m.ids[i]
}

// Src returns the entity field i was read from, or 0 for self fields.
func (it *Iter) Src(i int) Entity {
	return it.m.src[i]
}

// Var returns the entity bound to a query variable.
func (it *Iter) Var(name string) Entity {
	if v := it.query.varIndex(name); v >= 0 {
		return it.m.vars[v]
	}
	return 0
}

// FieldPointer returns the address of field i for row. Fields that are not
// self-sourced ignore row.
func (it *Iter) FieldPointer(i, row int) unsafe.Pointer {
	c := it.m.cols[i]
	if !it.m.set[i] || c == nil {
		return nil
	}
	if it.m.src[i] != 0 {
		row = it.m.rows[i]
	}
	return c.pointer(row)
}

// Field returns the values of field i. Self fields have one value per
// entity; fields read from another entity have exactly one value. Unset
// fields and fields of a different type return nil.
func Field[T any](it *Iter, i int) []T {
	c := it.m.cols[i]
	if !it.m.set[i] || c == nil {
		return nil
	}
	data := c.data
	if it.m.src[i] != 0 {
		row := it.m.rows[i]
		data = data.Slice(row, row+1)
	}
	values, _ := data.Interface().([]T)
	return values
}
